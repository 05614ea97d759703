package catleg

import (
	"regexp"
	"strings"
)

var multiSpaceRe = regexp.MustCompile(` {2,}`)

// NormalizeForDiff joins manually wrapped lines so that two texts differing
// only in line breaks or repeated spaces compare equal. It is idempotent.
func NormalizeForDiff(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var markupReplacer = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`)

// EscapeMarkup backslash-escapes the characters that the word diff markers
// and Markdown emphasis would otherwise give meaning to.
func EscapeMarkup(text string) string {
	return markupReplacer.Replace(text)
}

// ReferenceDiffText returns the reference side of a comparison: text and
// NOTA, escaped and normalized.
func ReferenceDiffText(ref *ReferenceArticle) string {
	return NormalizeForDiff(EscapeMarkup(ref.TextAndNota()))
}
