// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package productmodel defines the normalised product record shared by the
// relational store, the phrase/embedding indexes, and the ranking engines.
// One struct covers all three domains (vehicles, laptops, books); fields
// that don't apply to a domain are left zero.
package productmodel

import "time"

// PriceUnit distinguishes domains that send price already in cents from
// domains that send whole-currency units (Open Question 3: price-cents
// normalisation is per-domain, not a global flag).
type PriceUnit string

const (
	PriceUnitCents   PriceUnit = "cents"
	PriceUnitDollars PriceUnit = "dollars"
)

// Product is one row of the products/vehicles relational store.
type Product struct {
	ID         string
	Domain     string
	Title      string
	Make       string
	PriceCents int64

	// Attributes holds domain-specific categorical fields: body_style,
	// fuel_type, drivetrain, transmission, genre, format, os, and so on,
	// keyed by the same names used in schema.Slot.FilterKey.
	Attributes map[string]string

	// Numeric holds domain-specific numeric fields used for bucketing and
	// entropy discovery: year, mileage, seating_capacity, page_count, and
	// so on.
	Numeric map[string]float64

	Pros []string
	Cons []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attr returns an attribute value, or "" if unset.
func (p Product) Attr(key string) string {
	if p.Attributes == nil {
		return ""
	}
	return p.Attributes[key]
}

// Num returns a numeric field value and whether it was present.
func (p Product) Num(key string) (float64, bool) {
	if p.Numeric == nil {
		return 0, false
	}
	v, ok := p.Numeric[key]
	return v, ok
}

// NormalizePriceCents converts a domain's native price unit to cents.
func NormalizePriceCents(value float64, unit PriceUnit) int64 {
	if unit == PriceUnitDollars {
		return int64(value * 100)
	}
	return int64(value)
}
