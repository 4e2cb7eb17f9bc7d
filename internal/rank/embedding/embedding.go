// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package embedding implements the Embedding-Similarity ranker: rank
// candidates by dense cosine similarity between their feature text and the
// user's liked features, then run Maximal Marginal Relevance to trade some
// of that relevance for variety so the result isn't ten near-identical
// trims of the same model. It's the "embedding_similarity" entry in
// internal/orchestrator's ranker map, the faster, coarser alternative to
// internal/rank/coverage's phrase-level objective.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/productreco/backend/internal/api"
	"github.com/productreco/backend/internal/bucket"
	"github.com/productreco/backend/internal/embedstore"
	"github.com/productreco/backend/internal/entropy"
	"github.com/productreco/backend/internal/productmodel"
	"github.com/productreco/backend/internal/relax"
	"github.com/productreco/backend/internal/schema"
	"github.com/productreco/backend/internal/search"
)

// Config holds the embedding-similarity ranker's tunable weights.
type Config struct {
	// Lambda trades relevance for diversity in MMR: 1.0 is pure relevance,
	// 0.0 is pure diversity.
	Lambda      float64
	SearchLimit int
}

// DefaultConfig matches the ancestor's documented default (lambda=0.85,
// mildly diversity-aware).
func DefaultConfig() Config {
	return Config{Lambda: 0.85, SearchLimit: 500}
}

// Ranker implements orchestrator.Ranker using dense embedding similarity
// plus MMR diversification.
type Ranker struct {
	search *search.Index
	embed  *embedstore.Store
	cfg    Config
}

// New builds a Ranker.
func New(idx *search.Index, embed *embedstore.Store, cfg Config) *Ranker {
	if cfg.SearchLimit <= 0 {
		cfg = DefaultConfig()
	}
	return &Ranker{search: idx, embed: embed, cfg: cfg}
}

// Rank implements orchestrator.Ranker.
func (r *Ranker) Rank(ctx context.Context, domain string, filters, preferences map[string]string, nRows, nPerRow int) (api.RecommendResult, error) {
	k := nRows * nPerRow
	if k <= 0 {
		k = 20
	}

	mustHave := mustHaveKeys(domain)
	candidates, _, err := relax.Relax(ctx, domain, filters, mustHave, nil, r.cfg.SearchLimit, r.searchFunc)
	if err != nil {
		return api.RecommendResult{}, fmt.Errorf("embedding: relax search: %w", err)
	}
	if len(candidates) == 0 {
		return api.RecommendResult{MethodUsed: "embedding_similarity"}, nil
	}

	queryText := buildQueryText(preferences)

	scores := make(map[string]float64, len(candidates))
	ranked := candidates
	if queryText != "" {
		ids := make([]string, len(candidates))
		byID := make(map[string]productmodel.Product, len(candidates))
		for i, p := range candidates {
			ids[i] = p.ID
			byID[p.ID] = p
		}
		scored, serr := r.embed.SearchByCandidates(ctx, ids, queryText, len(ids))
		if serr != nil {
			return api.RecommendResult{}, fmt.Errorf("embedding: dense search: %w", serr)
		}
		ranked = make([]productmodel.Product, 0, len(scored))
		for _, s := range scored {
			scores[s.ProductID] = s.Score
			ranked = append(ranked, byID[s.ProductID])
		}
	}

	selected := ranked
	if len(ranked) > k {
		selected = diversify(ranked, scores, k, r.cfg.Lambda)
	} else if k < len(ranked) {
		selected = ranked[:k]
	}

	dim := entropy.SelectDiversificationDimension(selected, filters, nil)
	rows := bucket.BucketVehicles(selected, dim, maxInt(nRows, 1), maxInt(nPerRow, 1))

	recs := make([]api.RankedCandidate, 0, len(selected))
	bucketLabels := make(map[string]string, len(rows))
	rank := 0
	for i, row := range rows {
		bucketLabels[fmt.Sprintf("%d", i)] = row.Label
		for _, p := range row.Products {
			rank++
			recs = append(recs, api.RankedCandidate{
				ProductID: p.ID, Domain: p.Domain, Score: scores[p.ID], Rank: rank, Bucket: row.Label,
			})
		}
	}

	return api.RecommendResult{
		Recommendations:          recs,
		BucketLabels:             bucketLabels,
		DiversificationDimension: dim,
		TotalCandidates:          len(candidates),
		MethodUsed:               "embedding_similarity",
	}, nil
}

func (r *Ranker) searchFunc(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
	return r.search.Candidates(ctx, domain, filters, limit)
}

// buildQueryText assembles the text to embed for dense similarity search:
// liked features first (what the candidate should resemble), disliked
// features negated so their vocabulary pulls similarity down rather than up.
func buildQueryText(preferences map[string]string) string {
	var parts []string
	if liked := preferences["liked_features"]; liked != "" {
		parts = append(parts, strings.ReplaceAll(liked, ",", " "))
	}
	if disliked := preferences["disliked_features"]; disliked != "" {
		parts = append(parts, "not "+strings.ReplaceAll(disliked, ",", " "))
	}
	if useCase := preferences["use_case"]; useCase != "" {
		parts = append(parts, useCase)
	}
	return strings.Join(parts, " ")
}

// diversify runs greedy Maximal Marginal Relevance selection: at each step
// pick the unselected candidate maximizing lambda*relevance -
// (1-lambda)*max-similarity-to-anything-already-selected, the same
// trade-off and greedy loop shape as the ancestor's MMR reranker.
func diversify(candidates []productmodel.Product, scores map[string]float64, k int, lambda float64) []productmodel.Product {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}

	selected := make([]productmodel.Product, 0, k)
	taken := make([]bool, len(candidates))

	selected = append(selected, candidates[0])
	taken[0] = true

	for len(selected) < k {
		bestIdx, bestScore := -1, -1.0
		for i, c := range candidates {
			if taken[i] {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				if sim := productSimilarity(c, s); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*scores[c.ID] - (1-lambda)*maxSim
			if bestIdx < 0 || mmr > bestScore {
				bestIdx, bestScore = i, mmr
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, candidates[bestIdx])
		taken[bestIdx] = true
	}
	return selected
}

// productSimilarity scores how similar two candidates are for diversity
// purposes: same make and title is a near-duplicate listing, same make
// alone is moderately similar, matching body style alone is weakly
// similar, otherwise they're considered fully diverse. Mirrors the
// ancestor's make/model/body_style heuristic.
func productSimilarity(a, b productmodel.Product) float64 {
	makeA, makeB := strings.ToLower(a.Make), strings.ToLower(b.Make)
	titleA, titleB := strings.ToLower(a.Title), strings.ToLower(b.Title)
	bodyA, bodyB := a.Attr("body_style"), b.Attr("body_style")

	switch {
	case makeA != "" && makeA == makeB && titleA == titleB:
		return 0.9
	case makeA != "" && makeA == makeB:
		if bodyA != "" && bodyA == bodyB {
			return 0.7
		}
		return 0.6
	case bodyA != "" && bodyA == bodyB:
		return 0.4
	default:
		return 0
	}
}

func mustHaveKeys(domain string) []string {
	d := schema.Lookup(domain)
	var keys []string
	for _, slot := range d.Slots {
		if slot.Priority != schema.PriorityHigh {
			continue
		}
		if slot.FilterKey != "" {
			keys = append(keys, slot.FilterKey)
		}
		keys = append(keys, slot.FilterKeyAlts...)
	}
	return keys
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
