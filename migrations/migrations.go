// Package migrations embeds the SQL schema files so the migrate command and
// the integration test harness apply the same schema.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
