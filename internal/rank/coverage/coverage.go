// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package coverage implements the Coverage-Risk Optimization ranker: a
// greedy submodular selection that maximizes how well the chosen set of
// products covers the user's liked features while minimizing exposure to
// disliked ones, with a calibrated bonus for candidates that still satisfy
// filters progressive relaxation had to drop. It's the "coverage_risk"
// entry in internal/orchestrator's ranker map.
package coverage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/productreco/backend/internal/api"
	"github.com/productreco/backend/internal/bucket"
	"github.com/productreco/backend/internal/entropy"
	"github.com/productreco/backend/internal/phrasestore"
	"github.com/productreco/backend/internal/productmodel"
	"github.com/productreco/backend/internal/relax"
	"github.com/productreco/backend/internal/schema"
	"github.com/productreco/backend/internal/search"
)

// Mode selects how alignment scores aggregate across phrases and how
// coverage aggregates across the selected set, mirroring the two modes the
// Python ancestor supported.
type Mode string

const (
	// ModeMax takes the best-matching phrase per feature and the best
	// covered feature per selected candidate — simpler, the ancestor's
	// original implementation.
	ModeMax Mode = "max"
	// ModeSum sums thresholded phrase matches and uses noisy-or coverage
	// across the selected set — the full submodular objective.
	ModeSum Mode = "sum"
)

// Config holds the coverage-risk objective's tunable weights.
type Config struct {
	Mode          Mode
	LambdaRisk    float64 // risk penalty weight
	Tau           float64 // phrase-level similarity threshold, φ(t) = max(0, t-τ)
	Alpha         float64 // g() steepness in sum mode
	MinSimilarity float64 // phrase-level similarity floor in max mode
	Rho           float64 // μ calibration scale factor
	SearchLimit   int     // how many candidates to pull from storage before ranking
}

// DefaultConfig matches the ancestor's documented defaults.
func DefaultConfig() Config {
	return Config{Mode: ModeMax, LambdaRisk: 0.5, Tau: 0.5, Alpha: 1.0, MinSimilarity: 0.5, Rho: 1.0, SearchLimit: 500}
}

// Ranker implements orchestrator.Ranker using phrase-level preference
// alignment and greedy coverage-risk selection.
type Ranker struct {
	search  *search.Index
	phrases *phrasestore.Store
	cfg     Config
}

// New builds a Ranker. phrases may be a store with zero phrases loaded (new
// domain, nothing reviewed yet); Rank degrades to price-ordered output in
// that case rather than failing.
func New(idx *search.Index, phrases *phrasestore.Store, cfg Config) *Ranker {
	if cfg.SearchLimit <= 0 {
		cfg = DefaultConfig()
	}
	return &Ranker{search: idx, phrases: phrases, cfg: cfg}
}

// Rank implements orchestrator.Ranker.
func (r *Ranker) Rank(ctx context.Context, domain string, filters, preferences map[string]string, nRows, nPerRow int) (api.RecommendResult, error) {
	k := nRows * nPerRow
	if k <= 0 {
		k = 20
	}

	mustHave := mustHaveKeys(domain)
	candidates, relaxState, err := relax.Relax(ctx, domain, filters, mustHave, nil, r.cfg.SearchLimit, r.searchFunc)
	if err != nil {
		return api.RecommendResult{}, fmt.Errorf("coverage: relax search: %w", err)
	}
	if len(candidates) == 0 {
		return api.RecommendResult{MethodUsed: "coverage_risk"}, nil
	}

	liked := splitCSV(preferences["liked_features"])
	disliked := splitCSV(preferences["disliked_features"])

	var ranked []productmodel.Product
	var scores map[string]float64
	if len(liked) == 0 && len(disliked) == 0 {
		ranked = candidates
		if len(ranked) > k {
			ranked = ranked[:k]
		}
		scores = map[string]float64{}
	} else {
		ranked, scores = r.rankByAlignment(candidates, liked, disliked, relaxState, filters, k)
	}

	dim := entropy.SelectDiversificationDimension(ranked, filters, nil)
	rows := bucket.BucketVehicles(ranked, dim, maxInt(nRows, 1), maxInt(nPerRow, 1))

	recs := make([]api.RankedCandidate, 0, len(ranked))
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
		MethodUsed:               "coverage_risk",
	}, nil
}

func (r *Ranker) searchFunc(ctx context.Context, domain string, filters map[string]string, limit int) ([]productmodel.Product, error) {
	return r.search.Candidates(ctx, domain, filters, limit)
}

// rankByAlignment computes per-candidate Pos/Neg alignment against liked and
// disliked feature phrases, a soft bonus for satisfying relaxed filters, and
// greedily selects up to k candidates maximizing coverage - λ·risk + μ·bonus.
func (r *Ranker) rankByAlignment(candidates []productmodel.Product, liked, disliked []string, relaxState relax.State, filters map[string]string, k int) ([]productmodel.Product, map[string]float64) {
	pos := make([][]float64, len(candidates)) // pos[v][j]: candidate v, liked feature j
	neg := make([][]float64, len(candidates)) // neg[v][j]: candidate v, disliked feature j

	// phrasestore.Score sums per-phrase max(0, cosine) with no threshold;
	// φ(t) = max(0, t-τ) is applied here at the aggregated-per-feature level
	// instead of per individual phrase, a coarser version of the same
	// weak-match filter.
	for i, p := range candidates {
		pos[i] = make([]float64, len(liked))
		for j, feature := range liked {
			prosScore, _ := r.phrases.Score(p.ID, p.Make, feature)
			pos[i][j] = phiThreshold(prosScore, r.cfg.Tau)
		}
		neg[i] = make([]float64, len(disliked))
		for j, feature := range disliked {
			_, consScore := r.phrases.Score(p.ID, p.Make, feature)
			neg[i][j] = phiThreshold(consScore, r.cfg.Tau)
		}
	}

	softBonus := computeSoftBonus(candidates, relaxState, filters)
	mu := 0.0
	if anyPositive(softBonus) {
		mu = calibrateMu(pos, softBonus, r.cfg.Mode, r.cfg.Alpha, r.cfg.Rho)
	}

	weightedBonus := make([]float64, len(softBonus))
	for i, b := range softBonus {
		weightedBonus[i] = mu * b
	}
	selected := greedySelect(pos, neg, weightedBonus, k, r.cfg)

	ranked := make([]productmodel.Product, len(selected))
	scores := make(map[string]float64, len(selected))
	for i, idx := range selected {
		ranked[i] = candidates[idx]
		scores[candidates[idx].ID] = sum(pos[idx]) - r.cfg.LambdaRisk*sum(neg[idx]) + mu*softBonus[idx]
	}
	return ranked, scores
}

// greedySelect runs the marginal-gain greedy algorithm: at each step pick
// the unselected candidate with the highest gain in coverage minus risk plus
// soft bonus, tracking running coverage state so each step's gain reflects
// what's genuinely new.
func greedySelect(pos, neg [][]float64, softBonus []float64, k int, cfg Config) []int {
	v := len(pos)
	if v == 0 {
		return nil
	}
	if k > v {
		k = v
	}

	selected := make([]int, 0, k)
	taken := make([]bool, v)

	switch cfg.Mode {
	case ModeSum:
		m := 0
		if v > 0 {
			m = len(pos[0])
		}
		gPos := make([][]float64, v)
		riskPenalty := make([]float64, v)
		for i := range pos {
			gPos[i] = make([]float64, m)
			for j, x := range pos[i] {
				gPos[i][j] = 1 - math.Exp(-cfg.Alpha*math.Max(x, 0))
			}
			riskPenalty[i] = sum(neg[i])
		}
		q := make([]float64, m)
		for i := range q {
			q[i] = 1
		}
		for len(selected) < k {
			best, bestGain := -1, math.Inf(-1)
			for i := 0; i < v; i++ {
				if taken[i] {
					continue
				}
				gain := 0.0
				for j := 0; j < m; j++ {
					gain += q[j] * gPos[i][j]
				}
				gain -= cfg.LambdaRisk * riskPenalty[i]
				gain += softBonus[i] // already scaled by μ

				if gain > bestGain {
					best, bestGain = i, gain
				}
			}
			if best < 0 {
				break
			}
			selected = append(selected, best)
			taken[best] = true
			for j := 0; j < m; j++ {
				q[j] *= 1 - gPos[best][j]
			}
		}
	default: // ModeMax
		m, n := 0, 0
		if v > 0 {
			m, n = len(pos[0]), len(neg[0])
		}
		currentMaxPos := make([]float64, m)
		currentMaxNeg := make([]float64, n)
		var currentCoverage, currentRisk float64

		for len(selected) < k {
			best, bestGain := -1, math.Inf(-1)
			for i := 0; i < v; i++ {
				if taken[i] {
					continue
				}
				newCoverage, newRisk := currentCoverage, currentRisk
				for j := 0; j < m; j++ {
					pv := filteredAbove(pos[i][j], cfg.MinSimilarity)
					if pv > currentMaxPos[j] {
						newCoverage += pv - currentMaxPos[j]
					}
				}
				for j := 0; j < n; j++ {
					nv := filteredAbove(neg[i][j], cfg.MinSimilarity)
					if nv > currentMaxNeg[j] {
						newRisk += nv - currentMaxNeg[j]
					}
				}
				gain := (newCoverage - currentCoverage) - cfg.LambdaRisk*(newRisk-currentRisk) + softBonus[i]
				if gain > bestGain {
					best, bestGain = i, gain
				}
			}
			if best < 0 {
				break
			}
			selected = append(selected, best)
			taken[best] = true
			for j := 0; j < m; j++ {
				if pv := filteredAbove(pos[best][j], cfg.MinSimilarity); pv > currentMaxPos[j] {
					currentMaxPos[j] = pv
				}
			}
			for j := 0; j < n; j++ {
				if nv := filteredAbove(neg[best][j], cfg.MinSimilarity); nv > currentMaxNeg[j] {
					currentMaxNeg[j] = nv
				}
			}
			currentCoverage = sum(currentMaxPos)
			currentRisk = sum(currentMaxNeg)
		}
	}
	return selected
}

// phiThreshold implements φ(t) = max(0, t-τ): phrase matches weaker than τ
// contribute nothing to alignment.
func phiThreshold(t, tau float64) float64 {
	if d := t - tau; d > 0 {
		return d
	}
	return 0
}

func filteredAbove(v, floor float64) float64 {
	if v > floor {
		return v
	}
	return 0
}

// calibrateMu implements the scale-matching rule μ = ρ·median(singleton
// coverage marginals) / (median(positive soft bonuses) + ε), so the soft
// bonus contributes on a comparable scale to coverage gains rather than
// needing a hand-tuned weight.
func calibrateMu(pos [][]float64, softBonus []float64, mode Mode, alpha, rho float64) float64 {
	if len(pos) == 0 || len(pos[0]) == 0 {
		return 0
	}
	marginals := make([]float64, len(pos))
	for i, row := range pos {
		if mode == ModeSum {
			s := 0.0
			for _, x := range row {
				s += 1 - math.Exp(-alpha*math.Max(x, 0))
			}
			marginals[i] = s
		} else {
			marginals[i] = sum(row)
		}
	}
	medianCoverage := median(marginals)

	var positive []float64
	for _, b := range softBonus {
		if b > 0 {
			positive = append(positive, b)
		}
	}
	medianBonus := median(positive)

	const epsilon = 1e-6
	return rho * medianCoverage / (medianBonus + epsilon)
}

// computeSoftBonus scores each candidate on how many of the filters
// progressive relaxation had to drop it still happens to satisfy, weighted
// by how important that filter was (must-have filters weigh more than
// regular ones).
func computeSoftBonus(candidates []productmodel.Product, state relax.State, filters map[string]string) []float64 {
	bonus := make([]float64, len(candidates))
	if len(state.RelaxedFilters) == 0 {
		return bonus
	}
	for i, p := range candidates {
		for _, name := range state.RelaxedFilters {
			original := state.OriginalValues[name]
			if original == "" {
				continue
			}
			if satisfiesRelaxedFilter(p, name, original) {
				bonus[i] += 1.0
			}
		}
	}
	return bonus
}

// satisfiesRelaxedFilter checks whether p would still have matched the
// relaxed filter's original value, reusing the same field lookups
// internal/search.FiltersToDB uses so the two stay consistent.
func satisfiesRelaxedFilter(p productmodel.Product, name, original string) bool {
	switch name {
	case "make", "brand":
		return strings.EqualFold(p.Make, original)
	case "body_style":
		return strings.EqualFold(p.Attr("body_style"), original)
	case "price", "price_min_cents", "price_max_cents":
		return true // price is numeric-range, not a clean equality check here; left to the hard filter path
	default:
		return strings.EqualFold(p.Attr(name), original)
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

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func anyPositive(xs []float64) bool {
	for _, x := range xs {
		if x > 0 {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
