// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package db is the relational store behind the recommendation pipeline: a
// SQLite-backed products/vehicles table queried by both ranking engines
// (internal/rank/coverage, internal/rank/embedding) and the progressive
// relaxation loop (internal/relax). It opens the file the top-level
// configuration's database.path/data.vehicle_db point at and exposes
// filtered search plus the simple CRUD the demo CLI and ingestion scripts
// need.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/productreco/backend/internal/database/query"
	"github.com/productreco/backend/internal/metrics"
	"github.com/productreco/backend/internal/productmodel"
)

// Store wraps a *sql.DB opened against a single SQLite file holding one
// domain's products table. A deployment opens one Store per domain (the
// vehicles table is large and separately configured via data.vehicle_db).
type Store struct {
	conn    *sql.DB
	timeout time.Duration
}

// Open creates the parent directory if needed and opens (or creates) the
// SQLite file at path, initializing the products schema.
func Open(path string, queryTimeout time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("db: create directory %s: %w", dir, err)
		}
	}
	if queryTimeout <= 0 {
		queryTimeout = 2 * time.Second
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite: single writer, WAL handles concurrent readers

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: enable WAL: %w", err)
	}

	s := &Store{conn: conn, timeout: queryTimeout}
	if err := s.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	domain       TEXT NOT NULL,
	title        TEXT NOT NULL,
	make         TEXT NOT NULL DEFAULT '',
	price_cents  INTEGER NOT NULL DEFAULT 0,
	attributes   TEXT NOT NULL DEFAULT '{}', -- JSON object, category fields
	numeric      TEXT NOT NULL DEFAULT '{}', -- JSON object, bucketing/entropy fields
	pros         TEXT NOT NULL DEFAULT '[]', -- JSON array
	cons         TEXT NOT NULL DEFAULT '[]', -- JSON array
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_domain ON products(domain);
CREATE INDEX IF NOT EXISTS idx_products_domain_make ON products(domain, make);
CREATE INDEX IF NOT EXISTS idx_products_domain_price ON products(domain, price_cents);
`

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("db: migrate schema: %w", err)
	}
	return nil
}

// Filter narrows a Search call. Empty/nil fields are left unconstrained.
// MinPriceCents/MaxPriceCents of 0 mean "unbounded" on that side.
type Filter struct {
	Domain        string
	Make          string
	BodyStyles    []string
	MinPriceCents int64
	MaxPriceCents int64
	Attributes    map[string]string // exact-match on Attributes[key] = value, AND'd together
}

// whereAndArgs builds the WHERE clause for Search using the generalized
// product-domain WhereBuilder (internal/database/query), the same fluent
// builder the teacher's analytics queries use.
func whereAndArgs(f Filter) (string, []interface{}) {
	wb := query.NewWhereBuilder()
	wb.AddEq("domain", f.Domain)
	wb.AddEq("make", f.Make)

	var min, max *int64
	if f.MinPriceCents > 0 {
		min = &f.MinPriceCents
	}
	if f.MaxPriceCents > 0 {
		max = &f.MaxPriceCents
	}
	wb.AddRange("price_cents", min, max)

	clause, args := wb.Build()
	return clause, args
}

// Search returns products in domain matching f, ordered by price ascending,
// capped at limit (0 means no cap).
func (s *Store) Search(ctx context.Context, f Filter, limit int) (products []productmodel.Product, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("search", "products", time.Since(start), err) }()

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	where, args := whereAndArgs(f)
	q := fmt.Sprintf(`SELECT id, domain, title, make, price_cents, attributes, numeric, pros, cons, created_at, updated_at
		FROM products WHERE %s ORDER BY price_cents ASC`, where)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db: search products: %w", err)
	}
	defer rows.Close()

	products, err = scanProducts(rows)
	if err != nil {
		return nil, err
	}
	products = filterByAttributes(products, f.Attributes)
	products = filterByBodyStyle(products, f.BodyStyles)
	return products, nil
}

// filterByBodyStyle keeps products whose body_style attribute is one of
// styles (an IN-style match); body_style lives in the JSON attributes blob
// rather than its own column, so this is applied in-process like
// filterByAttributes.
func filterByBodyStyle(products []productmodel.Product, styles []string) []productmodel.Product {
	if len(styles) == 0 {
		return products
	}
	out := products[:0]
	for _, p := range products {
		style := p.Attr("body_style")
		for _, s := range styles {
			if style == s {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// filterByAttributes applies the Attributes exact-match constraints
// in-process: SQLite's JSON1 extension isn't guaranteed present in every
// modernc.org/sqlite build, so attribute filters are applied after the
// decode rather than pushed into the WHERE clause.
func filterByAttributes(products []productmodel.Product, attrs map[string]string) []productmodel.Product {
	if len(attrs) == 0 {
		return products
	}
	out := products[:0]
	for _, p := range products {
		match := true
		for k, v := range attrs {
			if p.Attr(k) != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	return out
}

// Get fetches a single product by id, returning sql.ErrNoRows if absent.
func (s *Store) Get(ctx context.Context, id string) (p productmodel.Product, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get", "products", time.Since(start), err) }()

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, `SELECT id, domain, title, make, price_cents, attributes, numeric, pros, cons, created_at, updated_at
		FROM products WHERE id = ?`, id)
	p, err = scanProduct(row)
	return p, err
}

// Upsert inserts or replaces a product record.
func (s *Store) Upsert(ctx context.Context, p productmodel.Product) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "products", time.Since(start), err) }()

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	attrs, err := encodeJSON(p.Attributes)
	if err != nil {
		return fmt.Errorf("db: encode attributes: %w", err)
	}
	numeric, err := encodeJSON(p.Numeric)
	if err != nil {
		return fmt.Errorf("db: encode numeric: %w", err)
	}
	pros, err := encodeJSON(p.Pros)
	if err != nil {
		return fmt.Errorf("db: encode pros: %w", err)
	}
	cons, err := encodeJSON(p.Cons)
	if err != nil {
		return fmt.Errorf("db: encode cons: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO products (id, domain, title, make, price_cents, attributes, numeric, pros, cons, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain, title = excluded.title, make = excluded.make,
			price_cents = excluded.price_cents, attributes = excluded.attributes,
			numeric = excluded.numeric, pros = excluded.pros, cons = excluded.cons,
			updated_at = CURRENT_TIMESTAMP
	`, p.ID, p.Domain, p.Title, p.Make, p.PriceCents, attrs, numeric, pros, cons)
	if err != nil {
		return fmt.Errorf("db: upsert product %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a product by id.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "products", time.Since(start), err) }()

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()
	_, err = s.conn.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete product %s: %w", id, err)
	}
	return nil
}

// CountByDomain returns how many products are stored for domain.
func (s *Store) CountByDomain(ctx context.Context, domain string) (int, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE domain = ?`, domain).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db: count domain %s: %w", domain, err)
	}
	return n, nil
}
