// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package search is the cache-aside candidate lookup shared by both ranking
// engines: translate a domain's filter map into an internal/db.Filter, check
// internal/cache before hitting SQLite, and cache what comes back. Each
// ranker calls Candidates once per turn with the filter set progressive
// relaxation settled on.
package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/productreco/backend/internal/cache"
	"github.com/productreco/backend/internal/db"
	"github.com/productreco/backend/internal/productmodel"
)

// Store is the subset of *db.Store this package needs.
type Store interface {
	Search(ctx context.Context, f db.Filter, limit int) ([]productmodel.Product, error)
}

// Index does the cache-aside candidate lookup over Store.
type Index struct {
	store Store
	cache cache.Cacher
}

// New builds an Index. cache may be nil to disable caching.
func New(store Store, cacher cache.Cacher) *Index {
	return &Index{store: store, cache: cacher}
}

// FiltersToDB translates the generic string-keyed filter map the
// orchestrator/relax packages work with into a structured db.Filter.
// "price"/"price_min_cents"/"price_max_cents" and "body_style" (repeated as
// a comma-joined list) get special handling; everything else lands in
// Attributes for in-process exact-match filtering.
func FiltersToDB(domain string, filters map[string]string) db.Filter {
	f := db.Filter{Domain: domain, Attributes: make(map[string]string)}

	for k, v := range filters {
		if v == "" {
			continue
		}
		switch k {
		case "make", "brand":
			f.Make = v
		case "body_style":
			f.BodyStyles = append(f.BodyStyles, v)
		case "price_min_cents":
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				f.MinPriceCents = n
			}
		case "price_max_cents":
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				f.MaxPriceCents = n
			}
		case "price":
			min, max := parseVehiclePriceRange(v)
			f.MinPriceCents = min
			f.MaxPriceCents = max
		default:
			f.Attributes[k] = v
		}
	}
	return f
}

func parseVehiclePriceRange(raw string) (minCents, maxCents int64) {
	var lo, hi float64
	if _, err := fmt.Sscanf(raw, "%f-%f", &lo, &hi); err != nil {
		return 0, 0
	}
	if lo > 0 {
		minCents = int64(lo * 100)
	}
	if hi > 0 {
		maxCents = int64(hi * 100)
	}
	return minCents, maxCents
}

// Candidates runs the cache-aside lookup for domain+filters, capped at
// limit.
func (idx *Index) Candidates(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
	key := cache.GenerateKey("search:"+domain, filters)
	if idx.cache != nil {
		if cached, ok := idx.cache.Get(key); ok {
			if products, ok := cached.([]productmodel.Product); ok {
				return products, nil
			}
		}
	}

	products, err := idx.store.Search(ctx, FiltersToDB(domain, filters), limit)
	if err != nil {
		return nil, fmt.Errorf("search: candidates for %s: %w", domain, err)
	}

	if idx.cache != nil {
		idx.cache.Set(key, products)
	}
	return products, nil
}
