// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package relax implements progressive filter relaxation: when a search
// against the current filter set comes back empty, drop the least important
// filter and try again, stopping the instant any results appear. This keeps
// an overly specific interview from ever producing a hard zero.
//
// Filters are relaxed in three tiers — inferred filters first (the least
// certain, since the agent guessed them from conversational context),
// regular explicit filters second, must-have filters last — and within a
// tier, FilterRelaxationOrder decides which goes before which.
package relax

import (
	"context"

	"github.com/productreco/backend/internal/productmodel"
)

// FilterRelaxationOrder ranks filter keys from least important (relaxed
// first) to most important (kept longest). Keys absent from this list are
// treated as least important within whatever tier they fall in.
var FilterRelaxationOrder = []string{
	"search_radius",
	"interior_color",
	"exterior_color",
	"is_cpo",
	"engine",
	"trim",
	"doors",
	"portability",
	"os",
	"format",
	"tone",
	"length",
	"year",
	"mileage",
	"price_min_cents",
	"price",
	"price_max_cents",
	"model",
	"brand",
	"make",
	"drivetrain",
	"seating_capacity",
	"genre",
	"transmission",
	"fuel_type",
	"is_used",
	"use_case",
	"body_style",
}

// SearchFunc runs one relaxation attempt's query. Implementations typically
// translate filters into an internal/db.Filter and call Store.Search.
type SearchFunc func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error)

// State reports what progressive relaxation had to do to find results.
type State struct {
	AllCriteriaMet bool
	MetFilters     []string
	RelaxedFilters []string
	OriginalValues map[string]string
}

func tierBoost(name string, mustHave, inferred map[string]bool) int {
	tierSize := len(FilterRelaxationOrder)
	switch {
	case inferred[name]:
		return 0
	case mustHave[name]:
		return 2 * tierSize
	default:
		return tierSize
	}
}

func basePriority(name string) int {
	for i, f := range FilterRelaxationOrder {
		if f == name {
			return i
		}
	}
	return -1
}

// Relax runs search against filters, progressively dropping the
// least-important filter (per FilterRelaxationOrder and the must-have/
// inferred tiers) whenever a search returns zero results, stopping at the
// first non-empty result set or once every filter has been dropped.
func Relax(ctx context.Context, domain string, filters map[string]string, mustHave, inferred []string, limit int, search SearchFunc) ([]productmodel.Product, State, error) {
	mustHaveSet := toSet(mustHave)
	inferredSet := toSet(inferred)

	current := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			current[k] = v
		}
	}

	priorities := make(map[string]int, len(current))
	var ranked []string
	for name := range current {
		priorities[name] = basePriority(name) + tierBoost(name, mustHaveSet, inferredSet)
		ranked = append(ranked, name)
	}
	sortByPriority(ranked, priorities)

	var relaxedList []string
	originalValues := make(map[string]string)

	var candidates []productmodel.Product
	for {
		results, err := search(ctx, domain, current, limit)
		if err != nil {
			return nil, State{}, err
		}
		candidates = results
		if len(candidates) > 0 {
			break
		}
		if len(current) == 0 {
			break
		}

		leastImportant := ""
		for _, name := range ranked {
			if _, ok := current[name]; ok {
				leastImportant = name
				break
			}
		}
		if leastImportant == "" {
			break
		}

		originalValues[leastImportant] = current[leastImportant]
		relaxedList = append(relaxedList, leastImportant)
		delete(current, leastImportant)
	}

	metFilters := make([]string, 0, len(current))
	for name := range current {
		metFilters = append(metFilters, name)
	}

	return candidates, State{
		AllCriteriaMet: len(relaxedList) == 0,
		MetFilters:     metFilters,
		RelaxedFilters: relaxedList,
		OriginalValues: originalValues,
	}, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// sortByPriority is a small insertion sort; relaxation filter lists are tiny
// (single digits), so this avoids pulling in sort.Slice's closure overhead
// for no real benefit.
func sortByPriority(names []string, priorities map[string]int) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && priorities[names[j-1]] > priorities[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}
