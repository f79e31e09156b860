package database

import _ "embed"

// Schema is the full schema produced by the migrations, for tests that
// need tables without a migration history.
//
//go:embed sqlc/schema.sql
var Schema string
