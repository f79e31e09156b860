// Command generate_schema applies every migration to an empty in-memory
// ledger database and writes the resulting schema to sqlc/schema.sql, the
// schema sqlc compiles queries.sql against. Run from the repository root.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"multidist/internal/database"
	"multidist/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'make generate-schema' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

func main() {
	outPath := filepath.Join("internal", "database", "sqlc", "schema.sql")
	if err := run(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s from migrations\n", outPath)
}

func run(outPath string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return err
	}

	stmts, err := schemaStatements(db)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(header)
	for _, stmt := range stmts {
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	return os.WriteFile(outPath, []byte(b.String()), 0644)
}

// schemaStatements returns the CREATE statements of every ledger table and
// index, tables first, skipping SQLite internals and the migrate bookkeeping table.
func schemaStatements(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT sql
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY CASE type WHEN 'table' THEN 1 ELSE 2 END, name
	`)
	if err != nil {
		return nil, fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, rows.Err()
}
