// Package static embeds the search page stylesheet and script.
package static

import "embed"

// FS holds app.css and app.js, served under /static/.
//
//go:embed app.css app.js
var FS embed.FS
