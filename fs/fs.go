// Package appfs embeds static assets needed at runtime:
// database migrations and email templates.
package appfs

import "embed"

// all: is needed to pick up the _base.* template partials,
// which plain embed patterns skip.
//
//go:embed migrations all:templates
var FS embed.FS
