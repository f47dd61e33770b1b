package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema changes; each numbered file registers itself.
var Migrations = migrate.NewMigrations()
