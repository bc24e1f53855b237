// Package migrations holds the PostgreSQL schema of the students database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
