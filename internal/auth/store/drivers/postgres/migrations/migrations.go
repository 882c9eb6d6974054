// Package migrations embeds the postgres schema applied by golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
