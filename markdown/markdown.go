// Package markdown parses the block structure of Markdown documents.
//
// Blocks are parsed the CommonMark way, except that ATX headings have no
// six-level cap. Inline markup is left as text. Parsing never fails: any
// line that does not open a known block ends up in a paragraph.
package markdown

// Kind is the type of a block node.
type Kind int

// Block kinds.
const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindFencedCode
	KindIndentedCode
	KindList
	KindListItem
	KindBlockQuote
	KindThematicBreak
	KindHTML
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindHeading:       "heading",
	KindParagraph:     "paragraph",
	KindFencedCode:    "fence",
	KindIndentedCode:  "code_block",
	KindList:          "list",
	KindListItem:      "list_item",
	KindBlockQuote:    "blockquote",
	KindThematicBreak: "hr",
	KindHTML:          "html_block",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Node is a block of a document.
type Node struct {
	Kind Kind

	// Level of headings, from 1.
	Level int

	// Text is the inline content of headings.
	Text string

	// Info is the info string of fenced code blocks (e.g. "catala-code-fr").
	Info string

	// Start and End delimit the 0-based document lines of the block; End is
	// exclusive.
	Start, End int

	// Lines holds the content of the block. For paragraphs and headings it
	// is the text without indentation; for code blocks, the code without
	// fences or indentation; for block quotes, the source lines without the
	// quote markers. Other blocks hold their source lines.
	Lines []string

	Parent   int
	Children []int
}

// Document is a parsed document. Nodes live in an arena; Nodes[0] is the
// document node and every other node refers to its parent and children by
// index.
type Document struct {
	Nodes []Node

	// Lines of the source, without line terminators.
	Lines []string
}

// Root returns the index of the document node.
func (d *Document) Root() int { return 0 }

// Node returns the node at index i.
func (d *Document) Node(i int) *Node { return &d.Nodes[i] }

// Children returns the indexes of the children of node i, in document order.
func (d *Document) Children(i int) []int { return d.Nodes[i].Children }

// Source returns the source lines spanned by node i.
func (d *Document) Source(i int) []string {
	n := &d.Nodes[i]
	return d.Lines[n.Start:n.End]
}
