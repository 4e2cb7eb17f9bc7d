// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package phrasestore holds individual pros/cons phrase embeddings per
// product and scores how well a user preference phrase aligns with them.
// Each phrase is embedded separately (not concatenated), and a product's
// alignment score is the sum of max(0, cosine(preference, phrase)) across
// its phrases — the same per-phrase scoring rule the coverage-risk ranker's
// Python ancestor used, now backed by github.com/liliang-cn/sqvect/v2 for
// persistence instead of a pickle+numpy file pair.
package phrasestore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/liliang-cn/sqvect/v2"
	"github.com/liliang-cn/sqvect/v2/pkg/core"

	"github.com/productreco/backend/internal/textembed"
)

// Phrases holds one product's pros/cons phrase texts and their embeddings.
type Phrases struct {
	ProductID string
	Pros      []string
	Cons      []string
	ProsVecs  [][]float32
	ConsVecs  [][]float32
	Imputed   bool
}

// Store is the phrase-embedding store for one domain.
type Store struct {
	db  *sqvect.DB
	byProduct map[string]*Phrases
	byMake    map[string][]*Phrases // for same-make imputation fallback
}

// Open opens (or creates) the phrase-embedding database under dir.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "phrase_embeddings.db")
	db, err := sqvect.Open(sqvect.Config{Path: path, Dimensions: textembed.Dimensions, SimilarityFn: core.CosineSimilarity})
	if err != nil {
		return nil, fmt.Errorf("phrasestore: open %s: %w", path, err)
	}
	return &Store{db: db, byProduct: make(map[string]*Phrases), byMake: make(map[string][]*Phrases)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddPhrases embeds and stores pros/cons phrases for productID, keyed
// additionally by make so ProductPhrases can impute for products that were
// never reviewed.
func (s *Store) AddPhrases(ctx context.Context, productID, make_ string, pros, cons []string) error {
	p := &Phrases{ProductID: productID, Pros: pros, Cons: cons}
	p.ProsVecs = make([][]float32, len(pros))
	p.ConsVecs = make([][]float32, len(cons))

	for i, phrase := range pros {
		vec := textembed.Encode(phrase)
		p.ProsVecs[i] = vec
		if err := s.db.Vector().Upsert(ctx, &core.Embedding{
			ID: fmt.Sprintf("%s:pro:%d", productID, i), Vector: vec, Content: phrase,
			Metadata: map[string]string{"product_id": productID, "kind": "pro", "make": make_},
		}); err != nil {
			return fmt.Errorf("phrasestore: upsert pro phrase: %w", err)
		}
	}
	for i, phrase := range cons {
		vec := textembed.Encode(phrase)
		p.ConsVecs[i] = vec
		if err := s.db.Vector().Upsert(ctx, &core.Embedding{
			ID: fmt.Sprintf("%s:con:%d", productID, i), Vector: vec, Content: phrase,
			Metadata: map[string]string{"product_id": productID, "kind": "con", "make": make_},
		}); err != nil {
			return fmt.Errorf("phrasestore: upsert con phrase: %w", err)
		}
	}

	s.byProduct[productID] = p
	if make_ != "" {
		key := strings.ToUpper(make_)
		s.byMake[key] = append(s.byMake[key], p)
	}
	return nil
}

// ProductPhrases returns productID's phrases, imputing from the most
// recently added product of the same make if productID was never scored
// directly (mirroring the Python store's same-make-most-recent-year
// imputation, without the year ordering since products here aren't
// necessarily model-year vehicles).
func (s *Store) ProductPhrases(productID, make_ string) (*Phrases, bool) {
	if p, ok := s.byProduct[productID]; ok {
		return p, true
	}
	if make_ == "" {
		return nil, false
	}
	candidates := s.byMake[strings.ToUpper(make_)]
	if len(candidates) == 0 {
		return nil, false
	}
	source := candidates[len(candidates)-1]
	imputed := &Phrases{
		ProductID: productID, Pros: source.Pros, Cons: source.Cons,
		ProsVecs: source.ProsVecs, ConsVecs: source.ConsVecs, Imputed: true,
	}
	return imputed, true
}

// Score computes (prosScore, consScore) for preferenceText against
// productID's phrases: the sum, across each phrase, of
// max(0, cosine(preference, phrase)).
func (s *Store) Score(productID, make_, preferenceText string) (prosScore, consScore float64) {
	phrases, ok := s.ProductPhrases(productID, make_)
	if !ok || preferenceText == "" {
		return 0, 0
	}
	prefVec := textembed.Encode(preferenceText)
	for _, v := range phrases.ProsVecs {
		if sim := textembed.CosineSimilarity(prefVec, v); sim > 0 {
			prosScore += sim
		}
	}
	for _, v := range phrases.ConsVecs {
		if sim := textembed.CosineSimilarity(prefVec, v); sim > 0 {
			consScore += sim
		}
	}
	return prosScore, consScore
}

// Count returns how many products have directly-added phrases.
func (s *Store) Count() int {
	return len(s.byProduct)
}
