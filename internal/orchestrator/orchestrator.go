// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package orchestrator implements the chat state machine that drives one
// interview turn: hand the user's message to internal/agent, merge what it
// reveals into the session's filters/preferences, decide whether enough is
// known to recommend, and either ask the next highest-priority question or
// hand off to the ranking engines.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/productreco/backend/internal/agent"
	"github.com/productreco/backend/internal/api"
	"github.com/productreco/backend/internal/intent"
	"github.com/productreco/backend/internal/kg"
	"github.com/productreco/backend/internal/llm"
	"github.com/productreco/backend/internal/narrator"
	"github.com/productreco/backend/internal/productmodel"
	"github.com/productreco/backend/internal/schema"
	"github.com/productreco/backend/internal/session"
)

// Ranker produces ranked recommendations for a domain given filters and
// preferences. Implemented by internal/rank/coverage and
// internal/rank/embedding; Orchestrator depends only on this interface so it
// can be built and tested before either ranker exists.
type Ranker interface {
	Rank(ctx context.Context, domain string, filters, preferences map[string]string, nRows, nPerRow int) (api.RecommendResult, error)
}

// HotSessionStore is the subset of *session.Store that Orchestrator needs;
// satisfied by *session.Store, and by a fake in tests.
type HotSessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.State, error)
	Save(ctx context.Context, state *session.State) error
	Delete(ctx context.Context, sessionID string) error
}

// WarmMemoryStore is the subset of *kg.Store that Orchestrator needs;
// satisfied by *kg.Store, and by a fake in tests.
type WarmMemoryStore interface {
	Get(ctx context.Context, sessionID string) (*kg.SessionMemory, error)
	Persist(ctx context.Context, mem *kg.SessionMemory) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// ProductLookup resolves a full productmodel.Product by ID, used only to
// build comparison narratives out of the lightweight RankedCandidate rows a
// Ranker returns. Satisfied by *internal/db.Store.
type ProductLookup interface {
	Get(ctx context.Context, id string) (productmodel.Product, error)
}

// Config holds the interview parameters from the top-level configuration
// (§6 configuration enumeration: k, method, n_rows, n_per_row).
type Config struct {
	K       int
	Method  string
	NRows   int
	NPerRow int
}

var _ api.Orchestrator = (*Orchestrator)(nil)

// Orchestrator implements api.Orchestrator.
type Orchestrator struct {
	hot       HotSessionStore
	warm      WarmMemoryStore
	rankers   map[string]Ranker // keyed by method name: "coverage_risk", "embedding_similarity"
	products  ProductLookup     // optional; nil disables narration, not recommending
	llmClient llm.Client        // optional; defaults to llm.UnavailableClient{}
	cfg       Config
	logger    zerolog.Logger
}

// New builds an Orchestrator. rankers may be nil/empty if the ranking
// engines are not wired yet; Recommend then returns a typed
// TRANSIENT_STORAGE error instead of panicking.
func New(hot HotSessionStore, warm WarmMemoryStore, rankers map[string]Ranker, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{hot: hot, warm: warm, rankers: rankers, llmClient: llm.UnavailableClient{}, cfg: cfg, logger: logger}
}

// WithProductLookup attaches the product store narration needs to resolve
// full records from a RankedCandidate's ProductID. Returns o for chaining.
func (o *Orchestrator) WithProductLookup(products ProductLookup) *Orchestrator {
	o.products = products
	return o
}

// WithLLMClient attaches an optional LLM client for comparison narration.
// Returns o for chaining.
func (o *Orchestrator) WithLLMClient(client llm.Client) *Orchestrator {
	if client != nil {
		o.llmClient = client
	}
	return o
}

// resolveSession loads a session from the hot tier, falling back to the warm
// tier, or creates a fresh one if neither has a record.
func (o *Orchestrator) resolveSession(ctx context.Context, sessionID string) (*session.State, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := o.hot.Get(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	if mem, werr := o.warm.Get(ctx, sessionID); werr == nil {
		state = session.NewState(sessionID, mem.Domain)
		state.ExplicitFilters = mem.ExplicitFilters
		state.Preferences = mem.Preferences
		state.QuestionsAsked = mem.AskedSlots
		return state, nil
	}

	return session.NewState(sessionID, schema.DefaultDomain), nil
}

func (o *Orchestrator) persist(ctx context.Context, state *session.State) error {
	if err := o.hot.Save(ctx, state); err != nil {
		return err
	}
	_, err := o.warm.Persist(ctx, &kg.SessionMemory{
		SessionID:       state.SessionID,
		Domain:          state.ActiveDomain,
		ExplicitFilters: state.ExplicitFilters,
		Preferences:     state.Preferences,
		AskedSlots:      state.QuestionsAsked,
	})
	return err
}

// HandleChatTurn implements api.Orchestrator.
func (o *Orchestrator) HandleChatTurn(ctx context.Context, req api.ChatRequest) (api.ChatResult, error) {
	state, err := o.resolveSession(ctx, req.SessionID)
	if err != nil {
		return api.ChatResult{}, &api.OrchestratorError{Kind: api.ErrKindTransientStorage, Code: "session_load_failed", Message: "could not load session state"}
	}

	parsed := agent.Parse(req.Message, state.ActiveDomain)
	if parsed.Domain != "" {
		state.ActiveDomain = parsed.Domain
	}
	mergeInto(state.ExplicitFilters, parsed.Filters)
	mergeInto(state.Preferences, parsed.Preferences)
	state.ConversationHistory = append(state.ConversationHistory, session.Turn{Role: "user", Content: req.Message})

	if state.Stage == session.StageRecommendations {
		if result, handled := o.handlePostRecommendationTurn(ctx, state, req); handled {
			if err := o.persist(ctx, state); err != nil {
				o.logger.Warn().Err(err).Str("session_id", state.SessionID).Msg("failed to persist session state")
			}
			return result, nil
		}
	}

	k := o.cfg.K
	if req.K > 0 {
		k = req.K
	}

	var result api.ChatResult
	if shouldRecommend(k, state.QuestionCount, parsed) {
		nRows, nPerRow := o.resolveDims(req.NRows, req.NPerRow)
		method := o.resolveMethod(req.Method)
		rec, rerr := o.rank(ctx, state, method, nRows, nPerRow)
		if rerr != nil {
			return api.ChatResult{}, rerr
		}
		state.Stage = session.StageRecommendations
		state.LastRecommendationIDs = productIDs(rec.Recommendations)
		result = api.ChatResult{
			ResponseType:             "recommendations",
			Message:                  "Here's what I found for you.",
			SessionID:                state.SessionID,
			Recommendations:          rec.Recommendations,
			BucketLabels:             rec.BucketLabels,
			DiversificationDimension: rec.DiversificationDimension,
			Filters:                  toAny(state.ExplicitFilters),
			QuestionCount:            state.QuestionCount,
		}
	} else {
		domain := schema.Lookup(state.ActiveDomain)
		status := schema.SlotStatus(domain, state.ExplicitFilters, state.Preferences)
		next := status.NextSlot()
		state.QuestionCount++
		if next != nil {
			state.QuestionsAsked = append(state.QuestionsAsked, next.Name)
		}
		result = api.ChatResult{
			ResponseType:   "question",
			Message:        questionMessage(next),
			SessionID:      state.SessionID,
			QuickReplies:   quickReplies(next),
			Filters:        toAny(state.ExplicitFilters),
			QuestionCount:  state.QuestionCount,
		}
	}

	if err := o.persist(ctx, state); err != nil {
		o.logger.Warn().Err(err).Str("session_id", state.SessionID).Msg("failed to persist session state")
	}
	return result, nil
}

// handlePostRecommendationTurn routes a message received while the session
// is already at session.StageRecommendations to narration, favoriting, or
// paging in more results. It returns handled=false for a Refine intent so
// the caller falls through to the normal recommend path with the
// already-merged filter/preference changes.
func (o *Orchestrator) handlePostRecommendationTurn(ctx context.Context, state *session.State, req api.ChatRequest) (api.ChatResult, bool) {
	switch intent.Classify(req.Message) {
	case intent.Compare:
		narrative := o.narrateComparison(ctx, state, req.Message)
		return api.ChatResult{
			ResponseType:  "comparison",
			Message:       narrative,
			SessionID:     state.SessionID,
			Filters:       toAny(state.ExplicitFilters),
			QuestionCount: state.QuestionCount,
		}, true

	case intent.Favorite:
		state.FavoriteProductIDs = appendUnique(state.FavoriteProductIDs, state.LastRecommendationIDs)
		return api.ChatResult{
			ResponseType:  "favorite_saved",
			Message:       "Saved to your favorites.",
			SessionID:     state.SessionID,
			Filters:       toAny(state.ExplicitFilters),
			QuestionCount: state.QuestionCount,
		}, true

	case intent.More:
		nRows, nPerRow := o.resolveDims(req.NRows, req.NPerRow)
		method := o.resolveMethod(req.Method)
		rec, rerr := o.rank(ctx, state, method, nRows, nPerRow*2)
		if rerr != nil {
			return api.ChatResult{}, false
		}
		state.LastRecommendationIDs = productIDs(rec.Recommendations)
		return api.ChatResult{
			ResponseType:             "recommendations",
			Message:                  "Here are some more options.",
			SessionID:                state.SessionID,
			Recommendations:          rec.Recommendations,
			BucketLabels:             rec.BucketLabels,
			DiversificationDimension: rec.DiversificationDimension,
			Filters:                  toAny(state.ExplicitFilters),
			QuestionCount:            state.QuestionCount,
		}, true

	default: // intent.Refine
		return api.ChatResult{}, false
	}
}

// narrateComparison resolves the session's last recommended products (best
// effort; skips any ID that fails to resolve) and narrates them.
func (o *Orchestrator) narrateComparison(ctx context.Context, state *session.State, userMessage string) string {
	if o.products == nil || len(state.LastRecommendationIDs) == 0 {
		return narrator.Narrate(ctx, o.llmClient, nil, userMessage, state.ActiveDomain)
	}
	products := make([]productmodel.Product, 0, len(state.LastRecommendationIDs))
	for _, id := range state.LastRecommendationIDs {
		p, err := o.products.Get(ctx, id)
		if err != nil {
			continue
		}
		products = append(products, p)
	}
	return narrator.Narrate(ctx, o.llmClient, products, userMessage, state.ActiveDomain)
}

// GetSession implements api.Orchestrator.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (api.SessionSnapshot, error) {
	state, err := o.hot.Get(ctx, sessionID)
	if err != nil {
		return api.SessionSnapshot{}, &api.OrchestratorError{Kind: api.ErrKindNotFound, Code: "session_not_found", Message: "session not found"}
	}
	return api.SessionSnapshot{
		SessionID:      state.SessionID,
		Domain:         state.ActiveDomain,
		Filters:        toAny(state.ExplicitFilters),
		Preferences:    toAny(state.Preferences),
		QuestionsAsked: state.QuestionsAsked,
		QuestionCount:  state.QuestionCount,
		FavoriteIDs:    state.FavoriteProductIDs,
		CreatedAt:      state.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      state.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// ResetSession implements api.Orchestrator.
func (o *Orchestrator) ResetSession(ctx context.Context, sessionID string) (api.ResetResult, error) {
	if sessionID == "" {
		return api.ResetResult{Status: "no_session"}, nil
	}
	if err := o.hot.Delete(ctx, sessionID); err != nil {
		return api.ResetResult{}, &api.OrchestratorError{Kind: api.ErrKindTransientStorage, Code: "reset_failed", Message: "could not reset session"}
	}
	_ = o.warm.Delete(ctx, sessionID)
	return api.ResetResult{SessionID: sessionID, Status: "reset"}, nil
}

// Recommend implements api.Orchestrator.
func (o *Orchestrator) Recommend(ctx context.Context, req api.RecommendRequest) (api.RecommendResult, error) {
	domain := schema.DefaultDomain
	if req.SessionID != "" {
		if state, err := o.hot.Get(ctx, req.SessionID); err == nil {
			domain = state.ActiveDomain
		}
	}
	nRows, nPerRow := o.resolveDims(req.NRows, req.NPerRow)
	method := o.resolveMethod(req.Method)
	state := &session.State{ActiveDomain: domain, ExplicitFilters: toStr(req.Filters), Preferences: toStr(req.Preferences)}
	return o.rank(ctx, state, method, nRows, nPerRow)
}

// CompareRecommend implements api.Orchestrator.
func (o *Orchestrator) CompareRecommend(ctx context.Context, req api.RecommendRequest) (api.CompareResult, error) {
	nRows, nPerRow := o.resolveDims(req.NRows, req.NPerRow)
	state := &session.State{ExplicitFilters: toStr(req.Filters), Preferences: toStr(req.Preferences)}

	coverage, err := o.rank(ctx, state, "coverage_risk", nRows, nPerRow)
	if err != nil {
		return api.CompareResult{}, err
	}
	embedding, err := o.rank(ctx, state, "embedding_similarity", nRows, nPerRow)
	if err != nil {
		return api.CompareResult{}, err
	}

	var narrative string
	if o.products != nil {
		domain := state.ActiveDomain
		if domain == "" {
			domain = schema.DefaultDomain
		}
		ids := productIDs(coverage.Recommendations)
		products := make([]productmodel.Product, 0, len(ids))
		for _, id := range ids {
			if p, perr := o.products.Get(ctx, id); perr == nil {
				products = append(products, p)
			}
		}
		narrative = narrator.Narrate(ctx, o.llmClient, products, "compare these options", domain)
	}

	return api.CompareResult{CoverageRisk: coverage, EmbeddingSimilarity: embedding, Narrative: narrative}, nil
}

// Status implements api.Orchestrator.
func (o *Orchestrator) Status(ctx context.Context) (api.StatusResult, error) {
	components := make([]api.ComponentStatus, 0, len(o.rankers))
	for name, r := range o.rankers {
		components = append(components, api.ComponentStatus{Name: name, Ready: r != nil})
	}
	return api.StatusResult{
		Method:     o.cfg.Method,
		K:          o.cfg.K,
		NRows:      o.cfg.NRows,
		NPerRow:    o.cfg.NPerRow,
		Components: components,
	}, nil
}

func (o *Orchestrator) rank(ctx context.Context, state *session.State, method string, nRows, nPerRow int) (api.RecommendResult, error) {
	ranker, ok := o.rankers[method]
	if !ok || ranker == nil {
		return api.RecommendResult{}, &api.OrchestratorError{
			Kind:    api.ErrKindTransientStorage,
			Code:    "ranker_unavailable",
			Message: "the " + method + " ranking engine is not warmed up yet",
		}
	}
	domain := state.ActiveDomain
	if domain == "" {
		domain = schema.DefaultDomain
	}
	return ranker.Rank(ctx, domain, state.ExplicitFilters, state.Preferences, nRows, nPerRow)
}

func (o *Orchestrator) resolveDims(nRows, nPerRow int) (int, int) {
	if nRows <= 0 {
		nRows = o.cfg.NRows
	}
	if nPerRow <= 0 {
		nPerRow = o.cfg.NPerRow
	}
	return nRows, nPerRow
}

func (o *Orchestrator) resolveMethod(method string) string {
	if method == "" {
		return o.cfg.Method
	}
	return method
}

func productIDs(recs []api.RankedCandidate) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func appendUnique(dst, add []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, id := range dst {
		seen[id] = struct{}{}
	}
	for _, id := range add {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}

func mergeInto(dst, src map[string]string) {
	for k, v := range src {
		if v != "" {
			dst[k] = v
		}
	}
}

func toAny(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toStr(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func questionMessage(next *schema.Slot) string {
	if next == nil {
		return "I think I have everything I need."
	}
	return next.ExampleQuestion
}

func quickReplies(next *schema.Slot) []string {
	if next == nil {
		return nil
	}
	return next.ExampleReplies
}

func shouldRecommend(k, questionCount int, parsed agent.ParsedInput) bool {
	if k <= 0 {
		return true
	}
	if questionCount >= k {
		return true
	}
	return parsed.IsImpatient || parsed.WantsRecommend
}
