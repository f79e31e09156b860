package database

// Code generation for the ledger schema and query layer.
//
// After adding a migration under migrations/files, regenerate with:
//   go generate ./internal/database
//
// The first step rebuilds sqlc/schema.sql from the migrations, the second
// compiles sqlc/queries.sql against it.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
