// Package migrations holds the Postgres schema. Each file registers one migration; bun
// names it after the file's timestamp prefix.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
