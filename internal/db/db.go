// Package db ships the postgres schema as goose migrations embedded in the binary.
package db

import "embed"

// Migrations holds the SQL files under "migrations"; pass it to pg.Migrate
// with MigrationsPath set to MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"
