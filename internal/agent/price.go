// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package agent

import (
	"fmt"
	"regexp"
	"strconv"
)

// priceRange is a parsed budget statement before it's rendered into the
// domain-appropriate filter representation.
type priceRange struct {
	hasMin bool
	hasMax bool
	min    float64 // whole dollars
	max    float64 // whole dollars
}

var (
	reBetween = regexp.MustCompile(`between\s*\$?(\d+(?:\.\d+)?)(k)?\s*(?:and|-|to)\s*\$?(\d+(?:\.\d+)?)(k)?`)
	reDash    = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)(k)?\s*-\s*\$?(\d+(?:\.\d+)?)(k)?`)
	reUnder   = regexp.MustCompile(`(?:under|below|less than|cheaper than|no more than)\s*\$?(\d+(?:\.\d+)?)(k)?`)
	reOver    = regexp.MustCompile(`(?:over|above|more than|at least)\s*\$?(\d+(?:\.\d+)?)(k)?`)
)

func parseAmount(numStr, kSuffix string) float64 {
	v, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	if kSuffix != "" {
		v *= 1000
	}
	return v
}

// extractPriceRange finds the first budget statement in lower, trying the
// most specific pattern first so "between 800 and 1500" isn't swallowed by
// the looser "N-M" match.
func extractPriceRange(lower string) (priceRange, bool) {
	if m := reBetween.FindStringSubmatch(lower); m != nil {
		return priceRange{hasMin: true, hasMax: true, min: parseAmount(m[1], m[2]), max: parseAmount(m[3], m[4])}, true
	}
	if m := reDash.FindStringSubmatch(lower); m != nil {
		return priceRange{hasMin: true, hasMax: true, min: parseAmount(m[1], m[2]), max: parseAmount(m[3], m[4])}, true
	}
	if m := reUnder.FindStringSubmatch(lower); m != nil {
		return priceRange{hasMax: true, max: parseAmount(m[1], m[2])}, true
	}
	if m := reOver.FindStringSubmatch(lower); m != nil {
		return priceRange{hasMin: true, min: parseAmount(m[1], m[2])}, true
	}
	return priceRange{}, false
}

// applyVehiclePrice renders a budget statement as the raw-dollar "min-max"
// string the vehicles domain's price filter uses.
func applyVehiclePrice(pr priceRange, filters map[string]string) {
	min, max := pr.min, pr.max
	if !pr.hasMin {
		min = 0
	}
	if !pr.hasMax {
		max = 0 // 0 signals "no upper bound" to the vehicles price filter
	}
	filters["price"] = fmt.Sprintf("%.0f-%.0f", min, max)
}

// applyCentsPrice renders a budget statement as price_min_cents/
// price_max_cents, the representation e-commerce domains (laptops, books)
// use. Cents are whole-dollar amounts x100, matching NormalizePriceCents.
func applyCentsPrice(pr priceRange, filters map[string]string) {
	if pr.hasMin {
		filters["price_min_cents"] = fmt.Sprintf("%.0f", pr.min*100)
	}
	if pr.hasMax {
		filters["price_max_cents"] = fmt.Sprintf("%.0f", pr.max*100)
	}
}
