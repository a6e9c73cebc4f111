// Package db provides the embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedMenu is the default catalogue loaded by cmd/seed-db.
//
//go:embed seed/menu.json
var SeedMenu []byte
