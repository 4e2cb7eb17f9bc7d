// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/productreco/backend/internal/api"
	"github.com/productreco/backend/internal/kg"
	"github.com/productreco/backend/internal/productmodel"
	"github.com/productreco/backend/internal/session"
)

type fakeHotStore struct {
	states map[string]*session.State
}

func newFakeHotStore() *fakeHotStore { return &fakeHotStore{states: map[string]*session.State{}} }

func (f *fakeHotStore) Get(ctx context.Context, sessionID string) (*session.State, error) {
	if s, ok := f.states[sessionID]; ok {
		return s, nil
	}
	return nil, session.ErrNotFound
}
func (f *fakeHotStore) Save(ctx context.Context, state *session.State) error {
	f.states[state.SessionID] = state
	return nil
}
func (f *fakeHotStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

type fakeWarmStore struct {
	mems map[string]*kg.SessionMemory
}

func newFakeWarmStore() *fakeWarmStore { return &fakeWarmStore{mems: map[string]*kg.SessionMemory{}} }

func (f *fakeWarmStore) Get(ctx context.Context, sessionID string) (*kg.SessionMemory, error) {
	if m, ok := f.mems[sessionID]; ok {
		return m, nil
	}
	return nil, kg.ErrMemoryNotFound
}
func (f *fakeWarmStore) Persist(ctx context.Context, mem *kg.SessionMemory) (bool, error) {
	f.mems[mem.SessionID] = mem
	return true, nil
}
func (f *fakeWarmStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.mems, sessionID)
	return nil
}

type fakeRanker struct {
	result api.RecommendResult
	err    error
}

func (f *fakeRanker) Rank(ctx context.Context, domain string, filters, preferences map[string]string, nRows, nPerRow int) (api.RecommendResult, error) {
	return f.result, f.err
}

func newTestOrchestrator(rankers map[string]Ranker) *Orchestrator {
	cfg := Config{K: 2, Method: "coverage_risk", NRows: 3, NPerRow: 3}
	return New(newFakeHotStore(), newFakeWarmStore(), rankers, cfg, zerolog.Nop())
}

func TestHandleChatTurn_AsksQuestionBeforeKReached(t *testing.T) {
	o := newTestOrchestrator(nil)
	result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "I want an SUV"})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}
	if result.ResponseType != "question" {
		t.Errorf("expected a question, got %q", result.ResponseType)
	}
	if result.SessionID == "" {
		t.Error("expected a session id to be assigned")
	}
	if result.QuestionCount != 1 {
		t.Errorf("expected question_count=1, got %d", result.QuestionCount)
	}
}

func TestHandleChatTurn_RecommendsAfterKQuestions(t *testing.T) {
	ranker := &fakeRanker{result: api.RecommendResult{MethodUsed: "coverage_risk", TotalCandidates: 10}}
	o := newTestOrchestrator(map[string]Ranker{"coverage_risk": ranker})

	sessionID := ""
	for i := 0; i < 2; i++ {
		result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "SUV for family use", SessionID: sessionID})
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		sessionID = result.SessionID
	}

	final, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "anything else", SessionID: sessionID})
	if err != nil {
		t.Fatalf("final turn: %v", err)
	}
	if final.ResponseType != "recommendations" {
		t.Errorf("expected recommendations after k questions, got %q", final.ResponseType)
	}
}

func TestHandleChatTurn_ImpatienceShortCircuits(t *testing.T) {
	ranker := &fakeRanker{result: api.RecommendResult{MethodUsed: "coverage_risk"}}
	o := newTestOrchestrator(map[string]Ranker{"coverage_risk": ranker})

	result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "just show me recommendations"})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}
	if result.ResponseType != "recommendations" {
		t.Errorf("expected impatience to trigger recommendations, got %q", result.ResponseType)
	}
}

func TestHandleChatTurn_MissingRankerReturnsTypedError(t *testing.T) {
	o := newTestOrchestrator(nil)
	_, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "just show me recommendations"})
	var oerr *api.OrchestratorError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected *api.OrchestratorError, got %v", err)
	}
	if oerr.Kind != api.ErrKindTransientStorage {
		t.Errorf("expected TRANSIENT_STORAGE, got %v", oerr.Kind)
	}
}

func TestResetSession(t *testing.T) {
	o := newTestOrchestrator(nil)
	first, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	result, err := o.ResetSession(context.Background(), first.SessionID)
	if err != nil {
		t.Fatalf("ResetSession: %v", err)
	}
	if result.Status != "reset" {
		t.Errorf("expected status=reset, got %q", result.Status)
	}

	if _, err := o.GetSession(context.Background(), first.SessionID); err == nil {
		t.Error("expected session to be gone after reset")
	}
}

func TestCompareRecommend(t *testing.T) {
	rankers := map[string]Ranker{
		"coverage_risk":        &fakeRanker{result: api.RecommendResult{MethodUsed: "coverage_risk"}},
		"embedding_similarity": &fakeRanker{result: api.RecommendResult{MethodUsed: "embedding_similarity"}},
	}
	o := newTestOrchestrator(rankers)

	result, err := o.CompareRecommend(context.Background(), api.RecommendRequest{NRows: 3, NPerRow: 3})
	if err != nil {
		t.Fatalf("CompareRecommend: %v", err)
	}
	if result.CoverageRisk.MethodUsed != "coverage_risk" || result.EmbeddingSimilarity.MethodUsed != "embedding_similarity" {
		t.Errorf("unexpected compare result: %+v", result)
	}
}

type fakeProductLookup struct {
	products map[string]productmodel.Product
}

func (f *fakeProductLookup) Get(ctx context.Context, id string) (productmodel.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return productmodel.Product{}, errors.New("not found")
	}
	return p, nil
}

func TestHandleChatTurn_CompareIntentNarratesWithoutRecommending(t *testing.T) {
	ranker := &fakeRanker{result: api.RecommendResult{
		Recommendations: []api.RankedCandidate{{ProductID: "v1"}, {ProductID: "v2"}},
		MethodUsed:      "coverage_risk",
	}}
	o := newTestOrchestrator(map[string]Ranker{"coverage_risk": ranker})
	o.WithProductLookup(&fakeProductLookup{products: map[string]productmodel.Product{
		"v1": {ID: "v1", Title: "Highlander", Make: "Toyota"},
		"v2": {ID: "v2", Title: "Civic", Make: "Honda"},
	}})

	sessionID := ""
	for i := 0; i < 2; i++ {
		result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "SUV for family use", SessionID: sessionID})
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		sessionID = result.SessionID
	}
	rec, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "just show me recommendations", SessionID: sessionID})
	if err != nil {
		t.Fatalf("recommend turn: %v", err)
	}
	if rec.ResponseType != "recommendations" {
		t.Fatalf("expected recommendations first, got %q", rec.ResponseType)
	}

	compare, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "which one is better for gas mileage?", SessionID: sessionID})
	if err != nil {
		t.Fatalf("compare turn: %v", err)
	}
	if compare.ResponseType != "comparison" {
		t.Errorf("expected response_type=comparison, got %q", compare.ResponseType)
	}
	if compare.Message == "" {
		t.Error("expected a non-empty comparison narrative")
	}
}

func TestHandleChatTurn_FavoriteIntentSavesLastRecommendations(t *testing.T) {
	ranker := &fakeRanker{result: api.RecommendResult{
		Recommendations: []api.RankedCandidate{{ProductID: "v1"}},
		MethodUsed:      "coverage_risk",
	}}
	o := newTestOrchestrator(map[string]Ranker{"coverage_risk": ranker})

	sessionID := ""
	for i := 0; i < 2; i++ {
		result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "SUV for family use", SessionID: sessionID})
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		sessionID = result.SessionID
	}
	if _, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "just show me recommendations", SessionID: sessionID}); err != nil {
		t.Fatalf("recommend turn: %v", err)
	}

	result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "save that one as a favorite", SessionID: sessionID})
	if err != nil {
		t.Fatalf("favorite turn: %v", err)
	}
	if result.ResponseType != "favorite_saved" {
		t.Errorf("expected response_type=favorite_saved, got %q", result.ResponseType)
	}

	snapshot, err := o.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(snapshot.FavoriteIDs) != 1 || snapshot.FavoriteIDs[0] != "v1" {
		t.Errorf("expected favorite_ids=[v1], got %v", snapshot.FavoriteIDs)
	}
}

func TestDomainDetection_SwitchesDomainFromMessage(t *testing.T) {
	o := newTestOrchestrator(nil)
	result, err := o.HandleChatTurn(context.Background(), api.ChatRequest{Message: "I'm looking for a laptop for gaming"})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}
	snapshot, err := o.GetSession(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if snapshot.Domain != "laptops" {
		t.Errorf("expected domain=laptops, got %q", snapshot.Domain)
	}
}
