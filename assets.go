// Package adminconsole embeds the console's templates and static files.
package adminconsole

import "embed"

// StaticFS and TemplateFS back production builds. Dev mode reads the same
// directories from disk so edits show without a rebuild.
//
//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
