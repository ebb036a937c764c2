// Package htmlsanitize cleans user supplied rich text before it is stored.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps formatting markup and links while dropping scripts, event
// handlers and unsafe URLs.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(input))
}

// PlainText strips all markup.
func PlainText(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(strict.Sanitize(input))
}
