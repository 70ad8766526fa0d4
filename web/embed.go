// Package web holds the embedded templates and static assets of the dashboard.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds stylesheets and scripts served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
