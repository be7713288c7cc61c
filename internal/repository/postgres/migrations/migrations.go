// Package migrations embeds the Postgres schema.
package migrations

import "embed"

// FS holds the Postgres schema migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
