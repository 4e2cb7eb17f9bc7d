// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package agent is the rule-based stand-in for the Universal Agent (the
// LLM-driven semantic parser spec.md §7 describes): given a chat message and
// the session's current domain, it detects which domain the conversation is
// in and extracts whatever filters and preferences the message states in
// plain keyword/regex matching, with no external call and no possibility of
// a timeout. internal/llm's structured-output client sits in front of this
// for the richer, model-driven parse when a provider is configured and
// healthy; Parse is what orchestrator falls back to otherwise, and what it
// always has.
package agent

import "strings"

// ParsedInput is the rule-based parse of one chat message, the fallback
// shape of what an LLM structured-output call would have returned.
type ParsedInput struct {
	Domain         string
	Filters        map[string]string
	Preferences    map[string]string
	IsImpatient    bool
	WantsRecommend bool
}

var impatiencePhrases = []string{
	"just show me", "skip", "recommend now", "enough questions", "show recommendations",
	"show me options", "stop asking", "never mind the questions",
}

// Parse extracts a ParsedInput from message. currentDomain is carried over
// when the message gives no domain signal of its own, so a terse follow-up
// reply ("under 1500") doesn't reset the conversation's domain.
func Parse(message, currentDomain string) ParsedInput {
	lower := strings.ToLower(message)
	domain := detectDomain(lower, currentDomain)

	p := ParsedInput{
		Domain:      domain,
		Filters:     map[string]string{},
		Preferences: map[string]string{},
	}

	switch domain {
	case "laptops":
		extractLaptopFilters(lower, p.Filters)
		extractLaptopPreferences(lower, p.Preferences)
	case "books":
		extractBookFilters(lower, p.Filters)
		extractBookPreferences(lower, p.Preferences)
	default:
		extractVehicleFilters(lower, p.Filters)
		extractVehiclePreferences(lower, p.Preferences)
	}

	for _, phrase := range impatiencePhrases {
		if strings.Contains(lower, phrase) {
			p.IsImpatient = true
			p.WantsRecommend = true
			break
		}
	}
	return p
}

func detectDomain(lower, currentDomain string) string {
	switch {
	case strings.Contains(lower, "laptop") || strings.Contains(lower, "notebook computer"):
		return "laptops"
	case strings.Contains(lower, "book") || strings.Contains(lower, "novel") || strings.Contains(lower, "read"):
		return "books"
	case strings.Contains(lower, "car") || strings.Contains(lower, "suv") || strings.Contains(lower, "truck") || strings.Contains(lower, "vehicle"):
		return "vehicles"
	default:
		return currentDomain
	}
}
