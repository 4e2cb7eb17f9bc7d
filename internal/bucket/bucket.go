// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package bucket groups a ranked candidate list into the 2D row/column grid
// §4.6 describes: n_rows buckets along the dimension internal/entropy picked,
// n_per_row items in each, with human-readable row labels. Numerical
// dimensions (price, mileage, year) are split at data-driven quantile
// boundaries; categorical dimensions take the n_rows most common values.
package bucket

import (
	"fmt"
	"sort"

	"github.com/productreco/backend/internal/entropy"
	"github.com/productreco/backend/internal/productmodel"
)

// GenerateLabel renders a human-readable label for the [low, high] bucket
// range of dimension.
func GenerateLabel(dimension string, low, high float64) string {
	switch dimension {
	case "price":
		if high >= 1_000_000 {
			return fmt.Sprintf("$%.0fK+", low/1000)
		}
		return fmt.Sprintf("$%.0fK - $%.0fK", low/1000, high/1000)
	case "mileage":
		if high >= 500_000 {
			return fmt.Sprintf("%.0fK+ miles", low/1000)
		}
		return fmt.Sprintf("%.0fK - %.0fK miles", low/1000, high/1000)
	case "year":
		if low == high {
			return fmt.Sprintf("%d", int(low))
		}
		return fmt.Sprintf("%d - %d", int(low), int(high))
	default:
		return fmt.Sprintf("%.1f - %.1f", low, high)
	}
}

// ComputeQuantileBoundaries returns n_buckets-1 boundary values computed via
// linear-interpolated percentiles (the same method numpy.percentile uses),
// over the sorted values.
func ComputeQuantileBoundaries(values []float64, nBuckets int) []float64 {
	if len(values) == 0 || nBuckets <= 1 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	boundaries := make([]float64, 0, nBuckets-1)
	for i := 1; i < nBuckets; i++ {
		pct := 100 * float64(i) / float64(nBuckets)
		boundaries = append(boundaries, percentile(sorted, pct))
	}
	return boundaries
}

// percentile computes the pct-th percentile of already-sorted values using
// linear interpolation between the two nearest ranks.
func percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := (pct / 100) * float64(n-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func valueFor(p productmodel.Product, dimension string) (string, float64, bool) {
	if entropy.NumericalDimensions[dimension] {
		if dimension == "price" {
			if p.PriceCents == 0 {
				return "", 0, false
			}
			// GenerateLabel formats price in dollars.
			return "", float64(p.PriceCents) / 100, true
		}
		v, ok := p.Num(dimension)
		return "", v, ok
	}
	if dimension == "make" {
		if p.Make == "" {
			return "", 0, false
		}
		return p.Make, 0, true
	}
	v := p.Attr(dimension)
	if v == "" {
		return "", 0, false
	}
	return v, 0, true
}

// Row is one bucket in the output grid: its products and its display label.
type Row struct {
	Products []productmodel.Product
	Label    string
}

// BucketNumerical splits candidates into nBuckets quantile-based rows along
// dimension, keeping at most nPerBucket products per row.
func BucketNumerical(candidates []productmodel.Product, dimension string, nBuckets, nPerBucket int) []Row {
	if len(candidates) == 0 {
		rows := make([]Row, nBuckets)
		for i := range rows {
			rows[i] = Row{Label: "No data"}
		}
		return rows
	}

	type indexed struct {
		value float64
		idx   int
	}
	var withIdx []indexed
	for i, p := range candidates {
		if _, v, ok := valueFor(p, dimension); ok {
			withIdx = append(withIdx, indexed{v, i})
		}
	}
	if len(withIdx) == 0 {
		end := nPerBucket
		if end > len(candidates) {
			end = len(candidates)
		}
		return []Row{{Products: candidates[:end], Label: fmt.Sprintf("All (%s unknown)", dimension)}}
	}

	sort.Slice(withIdx, func(i, j int) bool { return withIdx[i].value < withIdx[j].value })
	sortedValues := make([]float64, len(withIdx))
	for i, v := range withIdx {
		sortedValues[i] = v.value
	}

	boundaries := ComputeQuantileBoundaries(sortedValues, nBuckets)
	minVal, maxVal := sortedValues[0], sortedValues[len(sortedValues)-1]

	type rng struct{ low, high float64 }
	var ranges []rng
	prev := minVal
	for _, b := range boundaries {
		ranges = append(ranges, rng{prev, b})
		prev = b
	}
	ranges = append(ranges, rng{prev, maxVal})

	rows := make([]Row, nBuckets)
	for i, r := range ranges {
		rows[i] = Row{Label: GenerateLabel(dimension, r.low, r.high)}
	}
	for i := len(ranges); i < nBuckets; i++ {
		rows[i] = Row{Label: "No data"}
	}

	for _, wi := range withIdx {
		for ri, r := range ranges {
			last := ri == len(ranges)-1
			inRange := (r.low <= wi.value && wi.value < r.high) || (last && r.low <= wi.value && wi.value <= r.high)
			if inRange {
				if len(rows[ri].Products) < nPerBucket {
					rows[ri].Products = append(rows[ri].Products, candidates[wi.idx])
				}
				break
			}
		}
	}
	return rows
}

// BucketCategorical groups candidates by dimension's distinct values, taking
// the nBuckets most common values as rows.
func BucketCategorical(candidates []productmodel.Product, dimension string, nBuckets, nPerBucket int) []Row {
	if len(candidates) == 0 {
		rows := make([]Row, nBuckets)
		for i := range rows {
			rows[i] = Row{Label: "No data"}
		}
		return rows
	}

	byValue := make(map[string][]productmodel.Product)
	var order []string
	for _, p := range candidates {
		v, _, ok := valueFor(p, dimension)
		if !ok {
			continue
		}
		if _, seen := byValue[v]; !seen {
			order = append(order, v)
		}
		byValue[v] = append(byValue[v], p)
	}
	if len(byValue) == 0 {
		end := nPerBucket
		if end > len(candidates) {
			end = len(candidates)
		}
		return []Row{{Products: candidates[:end], Label: fmt.Sprintf("All (%s unknown)", dimension)}}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(byValue[order[i]]) > len(byValue[order[j]])
	})

	top := order
	if len(top) > nBuckets {
		top = top[:nBuckets]
	}

	rows := make([]Row, 0, nBuckets)
	for _, v := range top {
		products := byValue[v]
		if len(products) > nPerBucket {
			products = products[:nPerBucket]
		}
		rows = append(rows, Row{Products: products, Label: v})
	}
	for len(rows) < nBuckets {
		rows = append(rows, Row{Label: "Other"})
	}
	return rows
}

// BucketVehicles auto-detects numerical vs. categorical and delegates.
// "Vehicles" names the original vehicle-recommendation use case; the
// function works identically for any domain's products.
func BucketVehicles(candidates []productmodel.Product, dimension string, nBuckets, nPerBucket int) []Row {
	if entropy.NumericalDimensions[dimension] {
		return BucketNumerical(candidates, dimension, nBuckets, nPerBucket)
	}
	return BucketCategorical(candidates, dimension, nBuckets, nPerBucket)
}
