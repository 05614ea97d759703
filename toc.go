package catleg

import (
	"errors"
	"slices"
)

// NodeKind distinguishes sections from articles in a table of contents.
type NodeKind int

// Table of contents node kinds.
const (
	KindSection NodeKind = iota
	KindArticle
)

// TOC is the hierarchical table of contents of a law text.
// Nodes live in an arena and reference their children by index; Nodes[0]
// is the root, i.e. the text itself. A TOC is never mutated once built.
type TOC struct {
	Nodes []TOCNode
}

// TOCNode is a section or an article of a table of contents.
type TOCNode struct {
	ID    string
	CID   string // common identifier shared by all versions of a section
	Kind  NodeKind
	Title string
	Num   string

	// Order is the explicit ordering key of published texts.
	Order int

	// HTML is the article content, when the table of contents carries it.
	HTML string

	Sections []int
	Articles []int
}

// Root returns the index of the root node.
func (t *TOC) Root() int { return 0 }

// Add appends a node and returns its index.
func (t *TOC) Add(n TOCNode) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// Visit is a node reached by a traversal, with its heading level.
// Articles share the level of their containing section.
type Visit struct {
	Index int
	Level int
}

// Preorder traverses the subtree rooted at root, which is given level.
// Each section is visited before its own articles, which are visited before
// its child sections, in listed order. Child sections are one level deeper.
// The traversal stops at the first error returned by fn.
func (t *TOC) Preorder(root, level int, fn func(Visit) error) error {
	return t.walk(root, level, false, fn)
}

// OrderedPreorder is like Preorder but merges the child sections and
// articles of each section into a single sequence sorted by Order.
func (t *TOC) OrderedPreorder(root, level int, fn func(Visit) error) error {
	return t.walk(root, level, true, fn)
}

// Find returns the first node, in preorder, whose ID or CID is id,
// along with its level relative to the root at level 1.
func (t *TOC) Find(id string) (Visit, bool) {
	var found Visit
	ok := false
	_ = t.Preorder(t.Root(), 1, func(v Visit) error {
		n := &t.Nodes[v.Index]
		if n.CID == id || n.ID == id {
			found, ok = v, true
			return errStopWalk
		}
		return nil
	})
	return found, ok
}

var errStopWalk = errors.New("stop walk")

// walk uses an explicit stack so that deeply nested codes do not grow
// the call stack.
func (t *TOC) walk(root, level int, merged bool, fn func(Visit) error) error {
	if root < 0 || root >= len(t.Nodes) {
		return nil
	}
	stack := []Visit{{Index: root, Level: level}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(v); err != nil {
			return err
		}

		n := &t.Nodes[v.Index]
		if n.Kind != KindSection {
			continue
		}
		children := t.children(n, v.Level, merged)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

func (t *TOC) children(n *TOCNode, level int, merged bool) []Visit {
	children := make([]Visit, 0, len(n.Articles)+len(n.Sections))
	for _, i := range n.Articles {
		children = append(children, Visit{Index: i, Level: level})
	}
	for _, i := range n.Sections {
		children = append(children, Visit{Index: i, Level: level + 1})
	}
	if merged {
		slices.SortStableFunc(children, func(a, b Visit) int {
			return t.Nodes[a.Index].Order - t.Nodes[b.Index].Order
		})
	}
	return children
}
