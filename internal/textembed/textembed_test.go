// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package textembed

import "testing"

func TestEncode_Deterministic(t *testing.T) {
	a := Encode("spacious cabin")
	b := Encode("spacious cabin")
	if CosineSimilarity(a, b) < 0.999 {
		t.Errorf("expected identical text to re-encode identically")
	}
}

func TestEncode_SimilarTextScoresHigherThanUnrelated(t *testing.T) {
	query := Encode("spacious cabin with plenty of legroom")
	related := Encode("cabin feels spacious and roomy")
	unrelated := Encode("underpowered engine with poor fuel economy")

	simRelated := CosineSimilarity(query, related)
	simUnrelated := CosineSimilarity(query, unrelated)
	if simRelated <= simUnrelated {
		t.Errorf("expected related phrase to score higher: related=%.4f unrelated=%.4f", simRelated, simUnrelated)
	}
}

func TestEncode_EmptyString(t *testing.T) {
	v := Encode("")
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector for empty string, got %v", v)
		}
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	if s := CosineSimilarity(Encode(""), Encode("anything")); s != 0 {
		t.Errorf("expected 0 similarity against a zero vector, got %.4f", s)
	}
}
