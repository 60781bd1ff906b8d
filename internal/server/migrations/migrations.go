// Package migrations embeds the SQL schema of the identity provider database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
