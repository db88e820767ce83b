package migrations

import "embed"

// Dir is the directory within FS that holds the migration files.
const Dir = "."

//go:embed *.sql
var FS embed.FS
