// Package catala extracts the legislative articles quoted in Catala source
// files.
//
// Catala sources are literate Markdown: the law text is quoted under
// headings naming the article identifier, e.g.
//
//	###### Article L841-1 | LEGIARTI000038814864
//
// followed by the quoted text and by fenced blocks of implementation code.
package catala

import (
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/markdown"
)

// ArchiveMarker in a heading flags an article quoting a past version on purpose.
const ArchiveMarker = "[archive]"

// ParseArticles returns the articles of a Catala document, in document order.
// Path is recorded on each article and may be empty.
//
// An article starts at every heading whose text contains an article
// identifier. Its text is made of the blocks that follow the heading, up to
// the next heading of any kind, except fenced code blocks.
func ParseArticles(src []byte, path string) []catleg.LocalArticle {
	doc := markdown.Parse(src)

	var articles []catleg.LocalArticle
	for i := range doc.Nodes {
		n := doc.Node(i)
		if n.Kind != markdown.KindHeading {
			continue
		}
		id, ok := catleg.FindArticleID(n.Text)
		if !ok {
			continue
		}
		articles = append(articles, article(doc, i, id, path))
	}
	return articles
}

// ParseFile reads and parses the Catala file at path.
func ParseFile(path string) ([]catleg.LocalArticle, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catala file: %w", err)
	}
	return ParseArticles(src, path), nil
}

func article(doc *markdown.Document, heading int, id catleg.ArticleID, path string) catleg.LocalArticle {
	h := doc.Node(heading)
	a := catleg.LocalArticle{
		ID:        id,
		Path:      path,
		Archived:  strings.Contains(h.Text, ArchiveMarker),
		StartLine: h.End,
	}

	siblings := doc.Children(h.Parent)
	pos := 0
	for pos < len(siblings) && siblings[pos] != heading {
		pos++
	}

	var segments []string
	for _, s := range siblings[pos+1:] {
		n := doc.Node(s)
		if n.Kind == markdown.KindHeading {
			break
		}
		if n.Kind == markdown.KindFencedCode {
			continue
		}
		if segments == nil {
			a.StartLine = n.Start
		}
		segments = append(segments, render(doc, s))
	}
	a.Text = strings.Join(segments, " ")
	return a
}
