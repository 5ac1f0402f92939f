// Package migrations holds the SQL schema applied at startup when
// AUTO_MIGRATE is set and by the postgres integration tests.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
