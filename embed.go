package opsdesk

import "embed"

// MigrationsFS embeds the SQL schema migrations applied at startup.
//
//go:embed migrations
var MigrationsFS embed.FS
