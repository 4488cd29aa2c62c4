// Package templates renders sheetview's HTML. Components are written in
// .templ files; run `templ generate` after editing them.
package templates
