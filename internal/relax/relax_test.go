// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package relax

import (
	"context"
	"testing"

	"github.com/productreco/backend/internal/productmodel"
)

func TestRelax_ReturnsImmediatelyWhenResultsExist(t *testing.T) {
	calls := 0
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		calls++
		return []productmodel.Product{{ID: "p1"}}, nil
	}
	results, state, err := Relax(context.Background(), "vehicles", map[string]string{"make": "Toyota"}, nil, nil, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 search call, got %d", calls)
	}
	if len(results) != 1 || !state.AllCriteriaMet {
		t.Errorf("expected 1 result and AllCriteriaMet=true, got %+v / %+v", results, state)
	}
}

func TestRelax_DropsLeastImportantFirst(t *testing.T) {
	var seenFilterSets [][]string
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		seenFilterSets = append(seenFilterSets, keys)
		if len(filters) <= 1 {
			return []productmodel.Product{{ID: "p1"}}, nil
		}
		return nil, nil
	}
	filters := map[string]string{"body_style": "SUV", "exterior_color": "Red"}
	_, state, err := Relax(context.Background(), "vehicles", filters, nil, nil, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if len(state.RelaxedFilters) != 1 || state.RelaxedFilters[0] != "exterior_color" {
		t.Errorf("expected exterior_color relaxed first (cosmetic, ranked below body_style), got %v", state.RelaxedFilters)
	}
}

func TestRelax_MustHaveRelaxedLast(t *testing.T) {
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		return nil, nil // never any results; force full relaxation
	}
	filters := map[string]string{"model": "Camry", "trim": "LE"}
	_, state, err := Relax(context.Background(), "vehicles", filters, []string{"model"}, nil, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if len(state.RelaxedFilters) != 2 {
		t.Fatalf("expected both filters eventually relaxed, got %v", state.RelaxedFilters)
	}
	if state.RelaxedFilters[len(state.RelaxedFilters)-1] != "model" {
		t.Errorf("expected must-have 'model' relaxed last, got order %v", state.RelaxedFilters)
	}
}

func TestRelax_InferredRelaxedFirst(t *testing.T) {
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		if len(filters) <= 1 {
			return []productmodel.Product{{ID: "p1"}}, nil
		}
		return nil, nil
	}
	filters := map[string]string{"body_style": "SUV", "make": "Toyota"}
	_, state, err := Relax(context.Background(), "vehicles", filters, nil, []string{"make"}, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if len(state.RelaxedFilters) != 1 || state.RelaxedFilters[0] != "make" {
		t.Errorf("expected inferred 'make' relaxed before regular 'body_style', got %v", state.RelaxedFilters)
	}
}

func TestRelax_StopsWhenNoFiltersLeft(t *testing.T) {
	calls := 0
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		calls++
		return nil, nil
	}
	_, state, err := Relax(context.Background(), "vehicles", map[string]string{"make": "Toyota"}, nil, nil, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if state.AllCriteriaMet {
		t.Error("expected AllCriteriaMet=false when no results were ever found")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls (with filter, then empty), got %d", calls)
	}
}

func TestRelax_EmptyFilters(t *testing.T) {
	search := func(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
		return []productmodel.Product{{ID: "p1"}}, nil
	}
	_, state, err := Relax(context.Background(), "vehicles", nil, nil, nil, 10, search)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if !state.AllCriteriaMet {
		t.Error("expected AllCriteriaMet=true with no filters to relax")
	}
}
