package catala

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/catleg/markdown"
)

// render returns the Markdown text of a body block. Prose is escaped the way
// reference texts are, so that literal brackets and stars compare equal.
func render(doc *markdown.Document, i int) string {
	n := doc.Node(i)
	switch n.Kind {
	case markdown.KindParagraph:
		lines := make([]string, len(n.Lines))
		for j, l := range n.Lines {
			lines[j] = escapeProse(strings.TrimSpace(l))
		}
		return strings.Join(lines, "\n")
	case markdown.KindList, markdown.KindBlockQuote:
		src := doc.Source(i)
		lines := make([]string, len(src))
		for j, l := range src {
			prefix := blockPrefixRe.FindString(l)
			lines[j] = prefix + escapeProse(l[len(prefix):])
		}
		return strings.Join(lines, "\n")
	case markdown.KindThematicBreak:
		return "---"
	default:
		return strings.Join(doc.Source(i), "\n")
	}
}

// blockPrefixRe matches the container markers of a line: indentation, block
// quote markers and a list item marker.
var blockPrefixRe = regexp.MustCompile(`^[ \t]*(?:>[ \t]?)*[ \t]*(?:(?:[-+*]|[0-9]{1,9}[.)])(?:[ \t]+|$))?`)

// escapeProse backslash-escapes brackets and the stars that cannot delimit
// emphasis. Existing escapes and code spans are kept as is.
func escapeProse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]):
			b.WriteString(s[i : i+2])
			i += 2
		case c == '`':
			n := 1
			for i+n < len(s) && s[i+n] == '`' {
				n++
			}
			end := closingBackticks(s, i+n, n)
			if end < 0 {
				b.WriteString(s[i : i+n])
				i += n
				continue
			}
			b.WriteString(s[i:end])
			i = end
		case c == '[' || c == ']':
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		case c == '*':
			if !flanked(s, i) {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// closingBackticks returns the index just past a run of exactly n backticks
// starting at or after from, or -1.
func closingBackticks(s string, from, n int) int {
	for i := from; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '`' {
			j++
		}
		if j-i == n {
			return j
		}
		i = j
	}
	return -1
}

// flanked reports whether the star at i touches a non-space character on
// either side, and so may open or close emphasis.
func flanked(s string, i int) bool {
	before, after := ' ', ' '
	if i > 0 {
		before, _ = utf8.DecodeLastRuneInString(s[:i])
	}
	if i+1 < len(s) {
		after, _ = utf8.DecodeRuneInString(s[i+1:])
	}
	return !unicode.IsSpace(before) || !unicode.IsSpace(after)
}

func isASCIIPunct(c byte) bool {
	return c >= '!' && c <= '/' || c >= ':' && c <= '@' || c >= '[' && c <= '`' || c >= '{' && c <= '~'
}
