// Package appfs exposes the embedded assets the application needs at runtime:
// SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed templates/email
var Templates embed.FS
