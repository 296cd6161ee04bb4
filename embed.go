package spacetravelling

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// style.css, logo.svg, favicon.svg, comments.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
