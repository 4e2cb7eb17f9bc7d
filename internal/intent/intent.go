// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package intent classifies a user's message once a session has already
// reached session.StageRecommendations, so internal/orchestrator knows
// whether to narrate a comparison, re-run search with changed filters, mark
// a favorite, or page in more results, instead of treating every follow-up
// as another interview question.
package intent

import "strings"

// Intent is the action a post-recommendation message maps to.
type Intent string

const (
	// Compare asks a follow-up question about the current recommendations
	// ("why is the Civic better on mileage?", "pros and cons").
	Compare Intent = "compare"
	// Refine asks to change filters/preferences and search again
	// ("show me cheaper ones", "I want an SUV instead").
	Refine Intent = "refine"
	// Favorite marks one or more of the current recommendations.
	Favorite Intent = "favorite"
	// More asks for additional recommendations beyond the current set.
	More Intent = "more"
)

// keyword sets are checked in this order: Favorite, More, Refine, Compare,
// falling through to Compare as the default, matching the ancestor's
// default-to-discussion-on-ambiguity behavior.
var (
	favoriteKeywords = []string{
		"favorite", "favourite", "save this", "save that", "bookmark", "i like the", "i'll take", "i will take",
	}
	moreKeywords = []string{
		"more options", "show me more", "more recommendations", "what else", "anything else", "other options", "see more",
	}
	compareKeywords = []string{
		"compare", "comparison", "versus", " vs ", "vs.", "which is better", "which one",
		"differences", "pros and cons", "trade-offs", "tradeoffs", "side by side", "side-by-side",
		"compared to", "compare my options", "compare these", "compare them", "why is", "are you sure",
	}
	refineKeywords = []string{
		"show me cheaper", "more expensive", "less expensive", "cheaper", "under $", "below $",
		"budget", "different brand", "different make", "instead", "change", "refine",
		"similar items", "broaden", "narrow", "bigger", "smaller", "at least", "no more than",
	}
)

// Classify returns the Intent for message given a session already at
// session.StageRecommendations. It is keyword-based and fast; internal/llm
// can be layered in front of it for harder cases without changing this
// fallback, mirroring the ancestor's LLM-with-keyword-fallback routing.
func Classify(message string) Intent {
	lower := strings.ToLower(message)

	if containsAny(lower, favoriteKeywords) {
		return Favorite
	}
	if containsAny(lower, moreKeywords) {
		return More
	}
	if containsAny(lower, refineKeywords) {
		return Refine
	}
	if containsAny(lower, compareKeywords) {
		return Compare
	}
	return Compare
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
