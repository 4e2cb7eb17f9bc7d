// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package db

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/productreco/backend/internal/productmodel"
)

func encodeJSON(v interface{}) (string, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (productmodel.Product, error) {
	var (
		p                              productmodel.Product
		attrsJSON, numericJSON         string
		prosJSON, consJSON             string
	)
	err := row.Scan(&p.ID, &p.Domain, &p.Title, &p.Make, &p.PriceCents,
		&attrsJSON, &numericJSON, &prosJSON, &consJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return productmodel.Product{}, err
	}
	if err := decodeProductJSON(&p, attrsJSON, numericJSON, prosJSON, consJSON); err != nil {
		return productmodel.Product{}, err
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]productmodel.Product, error) {
	var out []productmodel.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db: scan product row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func decodeProductJSON(p *productmodel.Product, attrsJSON, numericJSON, prosJSON, consJSON string) error {
	if err := json.Unmarshal([]byte(attrsJSON), &p.Attributes); err != nil {
		return fmt.Errorf("decode attributes: %w", err)
	}
	if err := json.Unmarshal([]byte(numericJSON), &p.Numeric); err != nil {
		return fmt.Errorf("decode numeric: %w", err)
	}
	if err := json.Unmarshal([]byte(prosJSON), &p.Pros); err != nil {
		return fmt.Errorf("decode pros: %w", err)
	}
	if err := json.Unmarshal([]byte(consJSON), &p.Cons); err != nil {
		return fmt.Errorf("decode cons: %w", err)
	}
	return nil
}
