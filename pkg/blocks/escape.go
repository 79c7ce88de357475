package blocks

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes & < > and " for use in element content.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeAttr escapes a value for a double-quoted attribute. Newlines
// become spaces.
func EscapeAttr(s string) string {
	return strings.ReplaceAll(EscapeHTML(s), "\n", " ")
}
