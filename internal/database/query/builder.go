// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package query provides SQL query building utilities for the database package.
// It reduces code duplication and provides type-safe query construction.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
// It ensures consistent parameter handling and reduces SQL injection risks.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddEq("domain", "vehicles")
//	wb.AddIn("make", []string{"Toyota", "Honda"})
//	whereClause, args := wb.Build()
//	// domain = ? AND make IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
// This is useful for custom conditions not covered by helper methods.
//
// Parameters:
//   - clause: SQL condition fragment (e.g., "media_type = ?")
//   - args: Arguments to bind to placeholders in the clause
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddDateRange adds start and/or end date filters to the WHERE clause.
// Nil dates are skipped, allowing flexible date range queries.
//
// Parameters:
//   - startDate: Optional start date (nil to skip)
//   - endDate: Optional end date (nil to skip)
//
// Generates:
//   - "started_at >= ?" if startDate is non-nil
//   - "started_at <= ?" if endDate is non-nil
func (wb *WhereBuilder) AddDateRange(startDate, endDate *time.Time) *WhereBuilder {
	if startDate != nil {
		wb.clauses = append(wb.clauses, "started_at >= ?")
		wb.args = append(wb.args, *startDate)
	}
	if endDate != nil {
		wb.clauses = append(wb.clauses, "started_at <= ?")
		wb.args = append(wb.args, *endDate)
	}
	return wb
}

// AddEq adds a column equality filter. Generates "column = ?". Skipped if
// value is empty, so optional product filters can be added unconditionally.
func (wb *WhereBuilder) AddEq(column, value string) *WhereBuilder {
	if value != "" {
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s = ?", column))
		wb.args = append(wb.args, value)
	}
	return wb
}

// AddIn adds a column filter using an IN clause.
// Generates "column IN (?, ?, ...)".
//
// Parameters:
//   - column: column name (caller-controlled, never request input)
//   - values: candidate values to filter (empty slice is skipped)
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) > 0 {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			wb.args = append(wb.args, v)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}
	return wb
}

// AddRange adds an inclusive numeric range filter on column. Either bound
// may be nil to leave that side open.
func (wb *WhereBuilder) AddRange(column string, min, max *int64) *WhereBuilder {
	if min != nil {
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s >= ?", column))
		wb.args = append(wb.args, *min)
	}
	if max != nil {
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s <= ?", column))
		wb.args = append(wb.args, *max)
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
//
// Returns:
//   - string: Complete WHERE clause (without "WHERE" keyword)
//   - []interface{}: Arguments to bind to placeholders
//
// Example:
//
//	whereClause, args := wb.Build()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", whereClause)
//	db.Query(query, args...)
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
// Useful for direct SQL construction without manual prefix addition.
//
// Returns:
//   - string: Complete WHERE clause with "WHERE " prefix
//   - []interface{}: Arguments to bind to placeholders
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
// Useful for conditional logic based on filter complexity.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
