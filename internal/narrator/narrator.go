// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package narrator turns a set of ranked recommendations into a short
// Markdown comparison answering the user's specific follow-up question
// ("which one is better for gaming?", "pros and cons"). It prefers an
// internal/llm.Client when one is configured and reachable, and always
// falls back to a deterministic per-domain spec-sheet comparison when the
// client is unavailable or returns something that doesn't parse.
package narrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/productreco/backend/internal/llm"
	"github.com/productreco/backend/internal/productmodel"
)

// domainAttrs lists the attribute keys (and display labels) worth calling
// out per domain, mirroring the ancestor's per-domain spec sheet fields.
var domainAttrs = map[string][][2]string{
	"laptops": {
		{"Processor", "processor"}, {"RAM", "ram"}, {"Storage", "storage"},
		{"Storage Type", "storage_type"}, {"Screen", "screen_size"},
		{"GPU", "gpu"}, {"Battery", "battery_life"}, {"OS", "os"},
	},
	"vehicles": {
		{"Year", "year"}, {"Trim", "trim"}, {"Mileage", "mileage"},
		{"Fuel Type", "fuel_type"}, {"Drivetrain", "drivetrain"}, {"Body Style", "body_style"},
	},
	"books": {
		{"Author", "author"}, {"Genre", "genre"}, {"Pages", "pages"},
	},
}

type llmResponse struct {
	Narrative   string   `json:"narrative"`
	SelectedIDs []string `json:"selected_ids"`
}

// Narrate produces a comparison narrative for products, tailored to
// userMessage. client may be nil or llm.UnavailableClient{}; either way a
// narrative is always returned.
func Narrate(ctx context.Context, client llm.Client, products []productmodel.Product, userMessage, domain string) string {
	if len(products) == 0 {
		return "I don't have any recommendations to compare yet — let's find some first."
	}
	if client == nil {
		return fallbackComparison(products, domain)
	}

	req := llm.CompletionRequest{Messages: []llm.Message{
		{Role: "system", Content: systemPrompt(domain)},
		{Role: "user", Content: userPrompt(products, userMessage, domain)},
	}}

	result, err := client.Complete(ctx, req)
	if err != nil {
		return fallbackComparison(products, domain)
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(result.Text), &parsed); err != nil || parsed.Narrative == "" {
		return fallbackComparison(products, domain)
	}
	return parsed.Narrative
}

func systemPrompt(domain string) string {
	return "You are a helpful product advisor. Compare the recommended products based strictly on what the user asked.\n\n" +
		"Output valid JSON with exactly two keys: 'narrative' (a Markdown comparison, one bullet block per product, " +
		"ending with a line starting 'Best pick:') and 'selected_ids' (array of the 2-3 product IDs you compared). " +
		"Never include raw IDs inside the narrative text itself, only product names."
}

func userPrompt(products []productmodel.Product, userMessage, domain string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User context/question: %q\n\n", userMessage)
	b.WriteString("Available recommendations:\n")
	b.WriteString(buildSpecSheet(products, domain))
	return b.String()
}

// buildSpecSheet renders a plain-text spec sheet, the prompt context the
// LLM path uses and the data the fallback path renders directly.
func buildSpecSheet(products []productmodel.Product, domain string) string {
	var b strings.Builder
	for i, p := range products {
		name := p.Title
		if name == "" {
			name = fmt.Sprintf("Product %d", i+1)
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, name, p.Make)
		fmt.Fprintf(&b, "    ID: %s\n", p.ID)
		fmt.Fprintf(&b, "    Price: %s\n", formatPriceCents(p.PriceCents))
		for _, attr := range domainAttrs[domain] {
			label, key := attr[0], attr[1]
			if v := p.Attr(key); v != "" {
				fmt.Fprintf(&b, "    %s: %s\n", label, v)
			} else if n, ok := p.Num(key); ok {
				fmt.Fprintf(&b, "    %s: %s\n", label, strconv.FormatFloat(n, 'f', -1, 64))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// fallbackComparison is the rule-based comparison rendered when no LLM
// client is configured or the call fails, mirroring the ancestor's
// _fallback_comparison.
func fallbackComparison(products []productmodel.Product, domain string) string {
	var b strings.Builder
	b.WriteString("Here's a quick comparison of your recommendations:\n\n")
	for _, p := range products {
		name := p.Title
		if name == "" {
			name = "Product"
		}
		fmt.Fprintf(&b, "**%s**\n", name)
		fmt.Fprintf(&b, "  Price: %s\n", formatPriceCents(p.PriceCents))
		for _, attr := range domainAttrs[domain] {
			label, key := attr[0], attr[1]
			if v := p.Attr(key); v != "" {
				fmt.Fprintf(&b, "  %s: %s\n", label, v)
			}
		}
		if len(p.Pros) > 0 {
			fmt.Fprintf(&b, "  Pros: %s\n", strings.Join(p.Pros, "; "))
		}
		if len(p.Cons) > 0 {
			fmt.Fprintf(&b, "  Cons: %s\n", strings.Join(p.Cons, "; "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPriceCents(cents int64) string {
	if cents <= 0 {
		return "N/A"
	}
	return "$" + humanize.Comma(cents/100)
}
