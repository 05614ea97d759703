package markdown

import (
	"slices"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// blockParser is a CommonMark block parser whose ATX headings have no level
// cap. Inline content is not parsed.
var blockParser = parser.NewParser(parser.WithBlockParsers(
	util.Prioritized(tracked{parser.NewSetextHeadingParser()}, 100),
	util.Prioritized(tracked{parser.NewThematicBreakParser()}, 200),
	util.Prioritized(tracked{parser.NewListParser()}, 300),
	util.Prioritized(tracked{parser.NewListItemParser()}, 400),
	util.Prioritized(tracked{parser.NewCodeBlockParser()}, 500),
	util.Prioritized(tracked{headingParser{}}, 600),
	util.Prioritized(tracked{parser.NewFencedCodeBlockParser()}, 700),
	util.Prioritized(tracked{parser.NewBlockquoteParser()}, 800),
	util.Prioritized(tracked{parser.NewHTMLBlockParser()}, 900),
	util.Prioritized(tracked{parser.NewParagraphParser()}, 1000),
))

var linesKey = parser.NewContextKey()

// Parse parses src into a block tree.
func Parse(src []byte) *Document {
	source := []byte(strings.ReplaceAll(string(src), "\r\n", "\n"))
	lines := strings.Split(string(source), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	l := newLineIndex(source)
	pc := parser.NewContext()
	pc.Set(linesKey, l)
	root := blockParser.Parse(text.NewReader(source), parser.WithContext(pc))

	d := &Document{Lines: lines}
	d.Nodes = append(d.Nodes, Node{Kind: KindDocument, End: len(lines), Parent: -1})
	b := &builder{doc: d, source: source, lines: l}
	b.children(root, d.Root())
	return d
}

// lineIndex maps byte offsets to 0-based line numbers and records where
// the block parsers opened and closed each block.
type lineIndex struct {
	starts []int
	open   map[ast.Node]int
	close  map[ast.Node]int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts, open: map[ast.Node]int{}, close: map[ast.Node]int{}}
}

func (l *lineIndex) line(offset int) int {
	i, found := slices.BinarySearch(l.starts, offset)
	if !found {
		i--
	}
	return max(i, 0)
}

// tracked records the line on which a block opens, and the line consumed
// by a block parser that closes its block on a line of its own, such as a
// closing code fence. Goldmark keeps neither.
type tracked struct {
	parser.BlockParser
}

func (p tracked) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	_, seg := reader.PeekLine()
	node, state := p.BlockParser.Open(parent, reader, pc)
	if l, ok := pc.Get(linesKey).(*lineIndex); ok && node != nil {
		l.open[node] = l.line(seg.Start)
	}
	return node, state
}

func (p tracked) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	_, before := reader.PeekLine()
	state := p.BlockParser.Continue(node, reader, pc)
	if state&parser.Close == 0 {
		return state
	}
	if _, after := reader.PeekLine(); after.Start != before.Start {
		if l, ok := pc.Get(linesKey).(*lineIndex); ok {
			l.close[node] = l.line(before.Start)
		}
	}
	return state
}

// headingParser parses ATX headings of any level.
type headingParser struct{}

func (headingParser) Trigger() []byte {
	return []byte{'#'}
}

func (headingParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, seg := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	i := pos
	for i < len(line) && line[i] == '#' {
		i++
	}
	level := i - pos
	if level == 0 || (i < len(line) && !util.IsSpace(line[i])) {
		return nil, parser.NoChildren
	}

	start, stop := i, len(line)
	for start < stop && util.IsSpace(line[start]) {
		start++
	}
	for stop > start && util.IsSpace(line[stop-1]) {
		stop--
	}
	// Optional closing sequence, which must follow a space.
	j := stop
	for j > start && line[j-1] == '#' {
		j--
	}
	switch {
	case j == start:
		stop = start
	case j < stop && (line[j-1] == ' ' || line[j-1] == '\t'):
		stop = j
		for stop > start && util.IsSpace(line[stop-1]) {
			stop--
		}
	}

	node := ast.NewHeading(level)
	if stop > start {
		offset := seg.Start - seg.Padding
		node.Lines().Append(text.NewSegment(offset+start, offset+stop))
	}
	return node, parser.NoChildren
}

func (headingParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (headingParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (headingParser) CanInterruptParagraph() bool { return true }

func (headingParser) CanAcceptIndentedLine() bool { return false }

// builder copies a goldmark block tree into a Document.
type builder struct {
	doc    *Document
	source []byte
	lines  *lineIndex
}

func (b *builder) children(n ast.Node, parent int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		b.node(c, parent)
	}
}

// node adds n and its block descendants below parent and returns its index.
func (b *builder) node(n ast.Node, parent int) int {
	i := len(b.doc.Nodes)
	b.doc.Nodes = append(b.doc.Nodes, Node{Kind: kindOf(n), Parent: parent})
	b.doc.Nodes[parent].Children = append(b.doc.Nodes[parent].Children, i)
	b.children(n, i)

	start, end := b.span(n, i)
	node := &b.doc.Nodes[i]
	node.Start, node.End = start, end

	switch n := n.(type) {
	case *ast.Heading:
		node.Level = n.Level
		node.Lines = b.segments(n)
		texts := make([]string, len(node.Lines))
		for k, l := range node.Lines {
			texts[k] = strings.TrimSpace(l)
		}
		node.Text = strings.Join(texts, " ")
	case *ast.FencedCodeBlock:
		if n.Info != nil {
			node.Info = strings.TrimSpace(string(n.Info.Segment.Value(b.source)))
		}
		node.Lines = b.segments(n)
	case *ast.Paragraph, *ast.TextBlock, *ast.CodeBlock:
		node.Lines = b.segments(n)
	case *ast.Blockquote:
		src := b.doc.Lines[start:end]
		node.Lines = make([]string, len(src))
		for k, l := range src {
			node.Lines[k] = quoteContent(l)
		}
	default:
		node.Lines = b.doc.Lines[start:end]
	}
	return i
}

// span returns the lines of n: from its opening line, or its first content
// line, to the last line it or its descendants consumed.
func (b *builder) span(n ast.Node, i int) (int, int) {
	start, end := -1, -1
	include := func(first, last int) {
		if start < 0 || first < start {
			start = first
		}
		if last+1 > end {
			end = last + 1
		}
	}

	if l, ok := b.lines.open[n]; ok {
		include(l, l)
	}
	if l, ok := b.lines.close[n]; ok {
		include(l, l)
	}
	if lines := n.Lines(); lines.Len() > 0 {
		first, last := lines.At(0), lines.At(lines.Len()-1)
		include(b.lines.line(first.Start), b.lines.line(max(last.Start, last.Stop-1)))
	}
	if h, ok := n.(*ast.HTMLBlock); ok && h.HasClosure() {
		l := b.lines.line(h.ClosureLine.Start)
		include(l, l)
	}
	for _, c := range b.doc.Nodes[i].Children {
		child := &b.doc.Nodes[c]
		if child.End > child.Start {
			include(child.Start, child.End-1)
		}
	}

	if start < 0 {
		return 0, 0
	}
	end = min(end, len(b.doc.Lines))
	return min(start, end), end
}

// segments returns the content lines of a leaf block without line
// terminators.
func (b *builder) segments(n ast.Node) []string {
	lines := n.Lines()
	out := make([]string, lines.Len())
	for k := range out {
		seg := lines.At(k)
		out[k] = strings.TrimSuffix(string(seg.Value(b.source)), "\n")
	}
	return out
}

func kindOf(n ast.Node) Kind {
	switch n.(type) {
	case *ast.Heading:
		return KindHeading
	case *ast.FencedCodeBlock:
		return KindFencedCode
	case *ast.CodeBlock:
		return KindIndentedCode
	case *ast.List:
		return KindList
	case *ast.ListItem:
		return KindListItem
	case *ast.Blockquote:
		return KindBlockQuote
	case *ast.ThematicBreak:
		return KindThematicBreak
	case *ast.HTMLBlock:
		return KindHTML
	default:
		return KindParagraph
	}
}

// quoteContent strips the block quote marker of a line and the optional
// space after it. Lazy continuation lines have no marker.
func quoteContent(line string) string {
	rest := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(rest, ">") {
		return line
	}
	rest = rest[1:]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
	}
	return rest
}
