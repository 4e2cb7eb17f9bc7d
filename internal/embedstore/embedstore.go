// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package embedstore is the dense embedding index behind the
// embedding-similarity ranker: every product's combined feature text (pros,
// cons, title, attributes) is embedded once at ingest time and indexed so a
// user preference string can be ranked against a candidate subset by cosine
// similarity. The Python ancestor backed this with a FAISS index file;
// github.com/liliang-cn/sqvect/v2 plays the same role here as a
// SQLite-backed vector index, searched by internal/rank/embedding over the
// candidate set internal/db.Store.Search already narrowed.
package embedstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/liliang-cn/sqvect/v2"
	"github.com/liliang-cn/sqvect/v2/pkg/core"

	"github.com/productreco/backend/internal/productmodel"
	"github.com/productreco/backend/internal/textembed"
)

// Store indexes one domain's product embeddings. Vectors are kept in an
// in-memory lookup for SearchByCandidates (the vector-store interface has no
// get-by-id call) alongside the sqvect-backed table, which exists for
// durability and for future similarity-search-without-a-candidate-list use.
type Store struct {
	db      *sqvect.DB
	vectors map[string][]float32
}

// Open opens (or creates) the dense embedding index under dir.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "dense_embeddings.db")
	db, err := sqvect.Open(sqvect.Config{Path: path, Dimensions: textembed.Dimensions, SimilarityFn: core.CosineSimilarity})
	if err != nil {
		return nil, fmt.Errorf("embedstore: open %s: %w", path, err)
	}
	return &Store{db: db, vectors: make(map[string][]float32)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FeatureText builds the text a product is embedded from: title, make, pros,
// cons, and attribute values, concatenated — the Go analogue of the
// ancestor's encode_features token-sum approach, except the sum happens
// inside textembed.Encode's bag-of-words hashing rather than over individual
// feature vectors.
func FeatureText(p productmodel.Product) string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteString(" ")
	b.WriteString(p.Make)
	for _, s := range p.Pros {
		b.WriteString(" ")
		b.WriteString(s)
	}
	for _, s := range p.Cons {
		b.WriteString(" ")
		b.WriteString(s)
	}
	for _, v := range p.Attributes {
		b.WriteString(" ")
		b.WriteString(v)
	}
	return b.String()
}

// Index embeds and stores p under its product ID, overwriting any prior
// entry (re-ingestion replaces rather than duplicates).
func (s *Store) Index(ctx context.Context, p productmodel.Product) error {
	vec := textembed.Encode(FeatureText(p))
	err := s.db.Vector().Upsert(ctx, &core.Embedding{
		ID: p.ID, Vector: vec, Content: p.Title,
		Metadata: map[string]string{"domain": p.Domain},
	})
	if err != nil {
		return fmt.Errorf("embedstore: index %s: %w", p.ID, err)
	}
	s.vectors[p.ID] = vec
	return nil
}

// Scored pairs a product ID with its cosine similarity to a query.
type Scored struct {
	ProductID string
	Score     float64
}

// SearchByCandidates ranks candidateIDs by cosine similarity to queryText,
// mirroring search_by_vins: embed the query once, score only the supplied
// candidate subset (already filtered by internal/db), sort descending.
func (s *Store) SearchByCandidates(ctx context.Context, candidateIDs []string, queryText string, k int) ([]Scored, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	queryVec := textembed.Encode(queryText)

	scored := make([]Scored, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		vec, ok := s.vectors[id]
		if !ok {
			scored = append(scored, Scored{ProductID: id, Score: 0})
			continue
		}
		scored = append(scored, Scored{ProductID: id, Score: core.CosineSimilarity(queryVec, vec)})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
