// Package migrations embeds the SQL schema of the checkout attempt log.
package migrations

import "embed"

// FS holds every *.up.sql file, applied in name order by database.RunMigrations.
//
//go:embed *.sql
var FS embed.FS
