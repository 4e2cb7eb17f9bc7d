// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package query provides SQL query building utilities for the database package.
//
// This package reduces code duplication and provides type-safe query construction
// for parameterized SQL WHERE clauses. It ensures consistent parameter handling
// and prevents SQL injection vulnerabilities.
//
// # Overview
//
// The WhereBuilder is the primary component, providing a fluent interface for
// constructing WHERE clauses with properly parameterized queries:
//
//	wb := query.NewWhereBuilder()
//	wb.AddEq("domain", "vehicles")
//	wb.AddIn("make", []string{"Toyota", "Honda"})
//	wb.AddRange("price_cents", nil, &maxPrice)
//	whereClause, args := wb.Build()
//	// Result: "domain = ? AND make IN (?, ?) AND price_cents <= ?"
//	// Args: ["vehicles", "Toyota", "Honda", maxPrice]
//
// # Usage Example
//
// Building a query with multiple filters:
//
//	func SearchProducts(ctx context.Context, filter Filter) ([]Product, error) {
//	    wb := query.NewWhereBuilder()
//	    wb.AddEq("domain", filter.Domain)
//	    wb.AddEq("make", filter.Make)
//	    wb.AddIn("body_style", filter.BodyStyles)
//	    wb.AddRange("price_cents", filter.MinPriceCents, filter.MaxPriceCents)
//
//	    whereClause, args := wb.Build()
//
//	    sql := fmt.Sprintf(`
//	        SELECT * FROM products
//	        WHERE %s
//	        ORDER BY price_cents ASC
//	        LIMIT ?
//	    `, whereClause)
//	    args = append(args, filter.Limit)
//
//	    rows, err := db.QueryContext(ctx, sql, args...)
//	    // ...
//	}
//
// Adding custom clauses:
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("bitrate >= ?", 5000)
//	wb.AddClause("duration > ?", 3600)
//	wb.AddClause("transcode_decision = ?", "transcode")
//
// # Available Filter Methods
//
// The WhereBuilder provides methods for common filter types:
//
//   - AddDateRange: Filters by started_at date range
//   - AddEq: Filters a column by equality (skipped for an empty value)
//   - AddIn: Filters a column by a value list (IN clause; skipped when empty)
//   - AddRange: Filters a numeric column by inclusive bounds (nil bound is open)
//   - AddClause: Adds custom WHERE clause with parameters
//
// # SQL Injection Prevention
//
// All methods use parameterized queries with ? placeholders:
//
//	// Safe - parameters are properly escaped by the database driver
//	wb.AddIn("make", userInput)  // Generates: "make IN (?, ?)"
//
//	// The generated SQL is safe regardless of input content
//	// Never concatenate user input directly into SQL strings
//
// # Thread Safety
//
// WhereBuilder instances are not thread-safe. Create a new instance per query
// or protect concurrent access with appropriate synchronization.
//
// # Performance
//
//   - Zero allocations for empty builders (returns "1=1")
//   - Efficient string building using slices
//   - No reflection or dynamic SQL parsing
//
// # See Also
//
//   - internal/db: Product store whose Search uses this builder
package query
