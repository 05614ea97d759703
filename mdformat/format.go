// Package mdformat rewraps Markdown documents to a fixed width.
//
// Paragraphs, list items and block quotes are refilled; ordered lists are
// renumbered consecutively from their first number. Headings, code, HTML and
// tables are kept as they are.
package mdformat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/markdown"
	"github.com/mattn/go-runewidth"
)

// DefaultWidth is the line width of Catala sources.
const DefaultWidth = 80

// minWidth bounds the width left to deeply nested content.
const minWidth = 10

var _ catleg.Formatter = (*Formatter)(nil)

// Formatter wraps Markdown to a fixed display width.
type Formatter struct {
	Width int
}

// NewFormatter creates a Formatter wrapping at width columns.
func NewFormatter(width int) *Formatter {
	return &Formatter{Width: width}
}

// Format implements catleg.Formatter. The result ends with a newline unless
// it is empty.
func (f *Formatter) Format(md string) (string, error) {
	width := f.Width
	if width <= 0 {
		width = DefaultWidth
	}
	out := formatBlocks(md, width)
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

func formatBlocks(md string, width int) string {
	doc := markdown.Parse([]byte(md))
	blocks := make([]string, 0, len(doc.Children(doc.Root())))
	for _, i := range doc.Children(doc.Root()) {
		if b := formatBlock(doc, i, width); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func formatBlock(doc *markdown.Document, i, width int) string {
	n := doc.Node(i)
	switch n.Kind {
	case markdown.KindHeading:
		return catleg.Heading(n.Level, n.Text)
	case markdown.KindParagraph:
		if isTable(n.Lines) {
			return strings.Join(trimAll(n.Lines), "\n")
		}
		return fillParagraph(n.Lines, width)
	case markdown.KindList:
		return formatList(doc.Source(i), width)
	case markdown.KindBlockQuote:
		inner := formatBlocks(strings.Join(n.Lines, "\n"), max(width-2, minWidth))
		return prefixLines(inner, "> ", "> ")
	case markdown.KindThematicBreak:
		return "---"
	default:
		return strings.TrimRight(strings.Join(doc.Source(i), "\n"), " \t")
	}
}

// fillParagraph refills a paragraph, keeping hard line breaks.
func fillParagraph(lines []string, width int) string {
	var out []string
	var words []string
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		words = append(words, strings.Fields(trimmed)...)
		brk := ""
		switch {
		case strings.HasSuffix(l, "  "):
			brk = "  "
		case strings.HasSuffix(trimmed, `\`) && !strings.HasSuffix(trimmed, `\\`):
			brk = `\`
			words[len(words)-1] = strings.TrimSuffix(words[len(words)-1], `\`)
			if words[len(words)-1] == "" {
				words = words[:len(words)-1]
			}
		}
		if brk != "" && len(words) > 0 {
			filled := fill(words, width)
			filled[len(filled)-1] += brk
			out = append(out, filled...)
			words = nil
		}
	}
	if len(words) > 0 {
		out = append(out, fill(words, width)...)
	}
	return strings.Join(out, "\n")
}

// fill greedily packs words into lines of at most width columns. Words
// longer than the width get a line of their own. A word that would open a
// block at the start of a line stays on the previous line.
func fill(words []string, width int) []string {
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, w := range words {
		ww := runewidth.StringWidth(w)
		switch {
		case curWidth == 0:
			cur.WriteString(w)
			curWidth = ww
		case curWidth+1+ww <= width || opensBlock(w):
			cur.WriteByte(' ')
			cur.WriteString(w)
			curWidth += 1 + ww
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
			curWidth = ww
		}
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

var orderedMarkerRe = regexp.MustCompile(`^[0-9]{1,9}[.)]$`)

func opensBlock(word string) bool {
	switch {
	case word == "-" || word == "+" || word == "*":
		return true
	case strings.HasPrefix(word, ">"):
		return true
	case strings.Trim(word, "#") == "":
		return true
	case strings.Trim(word, "=") == "" || strings.Trim(word, "-") == "":
		return true
	case strings.HasPrefix(word, "```") || strings.HasPrefix(word, "~~~"):
		return true
	}
	return orderedMarkerRe.MatchString(word)
}

var listItemRe = regexp.MustCompile(`^( {0,3})([-+*]|([0-9]{1,9})([.)]))([ \t]+|$)`)

type listItem struct {
	marker string
	lines  []string
}

// formatList refills each item of a list, renumbering ordered items.
func formatList(src []string, width int) string {
	items := splitItems(src)
	if len(items) == 0 {
		return strings.Join(src, "\n")
	}

	ordered, start, delim := false, 0, ""
	if m := listItemRe.FindStringSubmatch(src[0]); m != nil && m[3] != "" {
		ordered, delim = true, m[4]
		start, _ = strconv.Atoi(m[3])
	}

	out := make([]string, 0, len(items))
	for k, it := range items {
		marker := it.marker
		if ordered {
			marker = strconv.Itoa(start+k) + delim
		}
		indent := strings.Repeat(" ", len(marker)+1)
		body := formatBlocks(strings.Join(it.lines, "\n"), max(width-len(indent), minWidth))
		if body == "" {
			out = append(out, marker)
			continue
		}
		out = append(out, prefixLines(body, marker+" ", indent))
	}
	return strings.Join(out, "\n")
}

// splitItems splits list source lines into items, removing markers and the
// indentation of continuation lines.
func splitItems(src []string) []listItem {
	var items []listItem
	contentIndent := 0
	for _, l := range src {
		if m := listItemRe.FindStringSubmatch(l); m != nil && (len(items) == 0 || len(m[1]) < contentIndent) {
			contentIndent = len(m[0])
			if strings.TrimSpace(m[5]) == "" && len(m[0]) == len(l) {
				contentIndent = len(m[1]) + len(m[2]) + 1
			}
			items = append(items, listItem{marker: m[2], lines: []string{l[len(m[0]):]}})
			continue
		}
		if len(items) == 0 {
			continue
		}
		it := &items[len(items)-1]
		it.lines = append(it.lines, stripIndent(l, contentIndent))
	}
	return items
}

func stripIndent(l string, n int) string {
	i := 0
	for i < len(l) && i < n && l[i] == ' ' {
		i++
	}
	return l[i:]
}

// prefixLines prefixes the first line with first and the others with rest.
// Blank lines get the prefix without trailing spaces.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" {
			lines[i] = strings.TrimRight(p, " ")
			continue
		}
		lines[i] = p + l
	}
	return strings.Join(lines, "\n")
}

func isTable(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), "|") {
			return false
		}
	}
	return true
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
