// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package entropy selects which product dimension the coverage-risk ranker
// should diversify along (§4.5's "soft constraint" bonus pulls candidates
// toward what the user already asked for; this package decides what to vary
// among the rest). For every dimension not already pinned by an explicit
// filter, it buckets numerical values into quantiles, computes the Shannon
// entropy of the resulting value distribution, and picks the dimension with
// the most uncertainty — the one where showing a spread of values teaches
// the user the most.
package entropy

import (
	"math"
	"sort"

	"github.com/productreco/backend/internal/productmodel"
)

// DiversifiableDimensions is the fixed set of dimensions considered for
// diversification, in priority order for tie-breaking display purposes.
var DiversifiableDimensions = []string{
	"price", "make", "body_style", "fuel_type", "drivetrain", "mileage", "year", "transmission",
}

// NumericalDimensions must be quantile-bucketed before their entropy can be
// computed; all other dimensions are treated as categorical.
var NumericalDimensions = map[string]bool{
	"price": true, "mileage": true, "year": true,
}

// getValue extracts dimension's categorical value from p, or ("", false) if
// absent. "make" reads the dedicated Product field; everything else reads the
// domain-specific Attributes map. Numerical dimensions, price included, go
// through getNumericValue instead.
func getValue(p productmodel.Product, dimension string) (string, bool) {
	switch dimension {
	case "make":
		if p.Make == "" {
			return "", false
		}
		return p.Make, true
	default:
		v := p.Attr(dimension)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// getNumericValue extracts dimension's numerical value from p.
func getNumericValue(p productmodel.Product, dimension string) (float64, bool) {
	if dimension == "price" {
		if p.PriceCents == 0 {
			return 0, false
		}
		return float64(p.PriceCents), true
	}
	return p.Num(dimension)
}

// bucketNumericalValues assigns each value (nil meaning "missing") to one of
// n_buckets quantile buckets, mirroring entropy.py's bucket_numerical_values:
// boundaries are picked at sorted-index int(n*i/n_buckets), buckets are
// half-open [low, high) except the last, which is closed [low, high].
func bucketNumericalValues(values []*float64, nBuckets int) []int {
	if len(values) == 0 {
		return nil
	}
	var valid []float64
	for _, v := range values {
		if v != nil {
			valid = append(valid, *v)
		}
	}
	if len(valid) == 0 {
		return make([]int, len(values)) // all default to bucket 0
	}

	sorted := append([]float64(nil), valid...)
	sort.Float64s(sorted)
	n := len(sorted)

	var boundaries []float64
	for i := 1; i < nBuckets; i++ {
		idx := n * i / nBuckets
		if idx >= n {
			idx = n - 1
		}
		boundaries = append(boundaries, sorted[idx])
	}

	type rng struct{ low, high float64 }
	var ranges []rng
	prev := sorted[0]
	for _, b := range boundaries {
		ranges = append(ranges, rng{prev, b})
		prev = b
	}
	ranges = append(ranges, rng{prev, sorted[n-1]})

	out := make([]int, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = 0
			continue
		}
		assigned := false
		for j, r := range ranges {
			if j == len(ranges)-1 {
				if r.low <= *v && *v <= r.high {
					out[i] = j
					assigned = true
					break
				}
			} else if r.low <= *v && *v < r.high {
				out[i] = j
				assigned = true
				break
			}
		}
		if !assigned {
			out[i] = len(ranges) - 1
		}
	}
	return out
}

// ComputeShannonEntropy computes H = -Σ p_i·log2(p_i) over the frequency
// distribution of values. Empty values count toward no bucket.
func ComputeShannonEntropy(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[string]int, len(values))
	total := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
		total++
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// computeDimensionEntropy computes dimension's entropy across candidates,
// bucketing first if it's numerical.
func computeDimensionEntropy(candidates []productmodel.Product, dimension string, nBuckets int) float64 {
	if len(candidates) == 0 {
		return 0
	}
	if NumericalDimensions[dimension] {
		values := make([]*float64, len(candidates))
		for i, p := range candidates {
			if v, ok := getNumericValue(p, dimension); ok {
				vv := v
				values[i] = &vv
			}
		}
		buckets := bucketNumericalValues(values, nBuckets)
		strs := make([]string, len(buckets))
		for i, present := range values {
			if present == nil {
				continue
			}
			strs[i] = "bucket_" + itoa(buckets[i])
		}
		return ComputeShannonEntropy(strs)
	}

	values := make([]string, len(candidates))
	for i, p := range candidates {
		if v, ok := getValue(p, dimension); ok {
			values[i] = v
		}
	}
	return ComputeShannonEntropy(values)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// DiscoverDimensions returns the subset of DiversifiableDimensions for which
// at least half of candidates carry a non-empty value.
func DiscoverDimensions(candidates []productmodel.Product) []string {
	if len(candidates) == 0 {
		return nil
	}
	var available []string
	for _, dim := range DiversifiableDimensions {
		nonNull := 0
		for _, p := range candidates {
			if NumericalDimensions[dim] {
				if _, ok := getNumericValue(p, dim); ok {
					nonNull++
				}
			} else if _, ok := getValue(p, dim); ok {
				nonNull++
			}
		}
		if float64(nonNull) >= float64(len(candidates))*0.5 {
			available = append(available, dim)
		}
	}
	return available
}

const defaultNBuckets = 3

// SelectDiversificationDimension picks the highest-entropy dimension among
// those not already pinned by explicitFilters or exclude, defaulting to
// "price" if candidates is empty or every available dimension is already
// specified.
func SelectDiversificationDimension(candidates []productmodel.Product, explicitFilters map[string]string, exclude []string) string {
	if len(candidates) == 0 {
		return "price"
	}

	available := DiscoverDimensions(candidates)
	excluded := make(map[string]bool, len(exclude))
	for _, d := range exclude {
		excluded[d] = true
	}

	var unspecified []string
	for _, d := range available {
		if explicitFilters[d] != "" || excluded[d] {
			continue
		}
		unspecified = append(unspecified, d)
	}
	if len(unspecified) == 0 {
		return "price"
	}

	bestDim := unspecified[0]
	bestEntropy := computeDimensionEntropy(candidates, bestDim, defaultNBuckets)
	for _, dim := range unspecified[1:] {
		e := computeDimensionEntropy(candidates, dim, defaultNBuckets)
		if e > bestEntropy {
			bestDim, bestEntropy = dim, e
		}
	}
	return bestDim
}

// ComputeEntropyReport computes entropy for every dimension in dimensions
// (or every discovered dimension if dimensions is nil), for logging/analysis
// endpoints.
func ComputeEntropyReport(candidates []productmodel.Product, dimensions []string) map[string]float64 {
	if dimensions == nil {
		dimensions = DiscoverDimensions(candidates)
	}
	report := make(map[string]float64, len(dimensions))
	for _, dim := range dimensions {
		report[dim] = computeDimensionEntropy(candidates, dim, defaultNBuckets)
	}
	return report
}
