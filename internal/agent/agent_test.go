// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package agent

import "testing"

func TestParse_LaptopScenario_FillsSlotsAcrossTurns(t *testing.T) {
	domain := "laptops"

	p1 := Parse("I'm looking for a laptop for gaming", domain)
	if p1.Domain != "laptops" {
		t.Fatalf("expected domain=laptops, got %q", p1.Domain)
	}
	if p1.Preferences["use_case"] != "gaming" {
		t.Errorf("expected use_case=gaming, got %q", p1.Preferences["use_case"])
	}

	p2 := Parse("under 1500", domain)
	if p2.Domain != "laptops" {
		t.Errorf("expected domain carried over as laptops, got %q", p2.Domain)
	}
	if p2.Filters["price_max_cents"] != "150000" {
		t.Errorf("expected price_max_cents=150000, got %q", p2.Filters["price_max_cents"])
	}

	p3 := Parse("Dell", domain)
	if p3.Filters["brand"] != "Dell" {
		t.Errorf("expected brand=Dell, got %q", p3.Filters["brand"])
	}
}

func TestParse_VehiclePriceRange_RawDollarString(t *testing.T) {
	p := Parse("I want an SUV between 20000 and 35000", "vehicles")
	if p.Filters["body_style"] != "SUV" {
		t.Errorf("expected body_style=SUV, got %q", p.Filters["body_style"])
	}
	if p.Filters["price"] != "20000-35000" {
		t.Errorf("expected price=20000-35000, got %q", p.Filters["price"])
	}
}

func TestParse_VehicleBrandNationality(t *testing.T) {
	p := Parse("I'd like a German car", "vehicles")
	if p.Filters["make"] != "BMW,Mercedes-Benz,Audi,Porsche,Volkswagen" {
		t.Errorf("unexpected make filter: %q", p.Filters["make"])
	}
}

func TestParse_VehicleDirectMakeOverridesNationality(t *testing.T) {
	p := Parse("Looking at a Toyota that's also pretty fuel efficient", "vehicles")
	if p.Filters["make"] != "Toyota" {
		t.Errorf("expected make=Toyota, got %q", p.Filters["make"])
	}
	if p.Preferences["liked_features"] != "fuel efficient" {
		t.Errorf("expected liked_features to include fuel efficient, got %q", p.Preferences["liked_features"])
	}
}

func TestParse_BookGenreAndFormat(t *testing.T) {
	p := Parse("I want a mystery novel, ebook format please", "books")
	if p.Filters["genre"] != "Mystery" {
		t.Errorf("expected genre=Mystery, got %q", p.Filters["genre"])
	}
	if p.Filters["format"] != "Ebook" {
		t.Errorf("expected format=Ebook, got %q", p.Filters["format"])
	}
}

func TestParse_ImpatiencePhraseSetsWantsRecommend(t *testing.T) {
	p := Parse("just show me recommendations", "vehicles")
	if !p.IsImpatient || !p.WantsRecommend {
		t.Errorf("expected impatience to be detected, got %+v", p)
	}
}

func TestParse_DomainDetectionSwitchesFromMessage(t *testing.T) {
	p := Parse("Can you help me find a good book to read?", "vehicles")
	if p.Domain != "books" {
		t.Errorf("expected domain=books, got %q", p.Domain)
	}
}

func TestParse_NoSignalKeepsCurrentDomain(t *testing.T) {
	p := Parse("hmm, not sure yet", "laptops")
	if p.Domain != "laptops" {
		t.Errorf("expected domain to be carried over, got %q", p.Domain)
	}
}

func TestParse_EmptyMessageReturnsEmptyMaps(t *testing.T) {
	p := Parse("", "vehicles")
	if len(p.Filters) != 0 || len(p.Preferences) != 0 {
		t.Errorf("expected empty filters/preferences, got %+v / %+v", p.Filters, p.Preferences)
	}
}
