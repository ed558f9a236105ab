// Package migrations embeds the schema migrations for each supported driver.
package migrations

import "embed"

// SqliteMigrations holds the schema for development and single-node installs.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds the schema for production installs.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
