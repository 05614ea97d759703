// Package skeleton renders law texts as Markdown skeletons ready to be
// annotated with Catala code.
package skeleton

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/catleg"
)

var _ catleg.SkeletonBuilder = (*Builder)(nil)

// Builder renders skeletons from the reference texts of a Backend.
type Builder struct {
	Backend   catleg.Backend
	Converter catleg.Converter
	Formatter catleg.Formatter
}

// NewBuilder creates a Builder.
func NewBuilder(backend catleg.Backend, converter catleg.Converter, formatter catleg.Formatter) *Builder {
	return &Builder{Backend: backend, Converter: converter, Formatter: formatter}
}

// Section renders a section of a code and everything below it. Section
// headings keep their absolute depth in the code; each article gets a
// heading one level below its section followed by its formatted text.
// An empty sectionID renders the whole text.
func (b *Builder) Section(ctx context.Context, textID, sectionID string) (string, error) {
	if sectionID != "" && !catleg.IsSectionID(sectionID) {
		return "", catleg.ErrInvalidIdentifier.Errorf("expected a section identifier (LEGISCTA), got %q", sectionID)
	}

	toc, err := b.Backend.TableOfContents(ctx, textID)
	if err != nil {
		return "", timeout(ctx, err)
	}

	start := catleg.Visit{Index: toc.Root(), Level: 1}
	if sectionID != "" {
		v, ok := toc.Find(sectionID)
		if !ok {
			return "", catleg.ErrSectionNotFound.Errorf("section %s not found in text %s", sectionID, textID)
		}
		start = v
	}

	var visits []catleg.Visit
	_ = toc.Preorder(start.Index, start.Level, func(v catleg.Visit) error {
		visits = append(visits, v)
		return nil
	})
	return b.layout(ctx, toc, visits, false)
}

// Article renders a single article under a heading whose level accounts for
// the text and the sections containing it. With breadcrumbs, the headings of
// the text and of the containing sections come first.
func (b *Builder) Article(ctx context.Context, id catleg.ArticleID, breadcrumbs bool) (string, error) {
	a, err := b.Backend.Article(ctx, id)
	if err != nil {
		return "", timeout(ctx, err)
	}

	var parts []string
	if breadcrumbs {
		if title, ok := a.Context.TextTitle(); ok {
			parts = append(parts, catleg.Heading(1, title))
		}
		for i, s := range a.Context.Sections {
			parts = append(parts, catleg.Heading(i+2, s))
		}
	}

	level := 1 + len(a.Context.Sections) + 1
	body, err := b.body(a)
	if err != nil {
		return "", err
	}
	parts = append(parts, catleg.Heading(level, catleg.ArticleHeading(a.Num, a.ID.String())), body)
	return join(parts), nil
}

// PublishedText renders a text as published in the official journal.
// Sections and articles are laid out by their ordering key. Article content
// carried by the table of contents is used as is; missing content is
// fetched.
func (b *Builder) PublishedText(ctx context.Context, textID string) (string, error) {
	toc, err := b.Backend.PublishedText(ctx, textID)
	if err != nil {
		return "", timeout(ctx, err)
	}

	var visits []catleg.Visit
	_ = toc.OrderedPreorder(toc.Root(), 1, func(v catleg.Visit) error {
		visits = append(visits, v)
		return nil
	})
	return b.layout(ctx, toc, visits, true)
}

// layout renders visited nodes in order. The articles to fetch are requested
// in a single batch before anything is rendered. With embedded, articles
// whose content is in the table of contents are not fetched.
func (b *Builder) layout(ctx context.Context, toc *catleg.TOC, visits []catleg.Visit, embedded bool) (string, error) {
	var ids []catleg.ArticleID
	for _, v := range visits {
		n := &toc.Nodes[v.Index]
		if n.Kind != catleg.KindArticle || (embedded && hasHTML(n)) {
			continue
		}
		id, err := catleg.ParseArticleID(n.ID)
		if err != nil {
			return "", err
		}
		ids = append(ids, id)
	}

	fetched, err := b.fetch(ctx, ids)
	if err != nil {
		return "", timeout(ctx, err)
	}

	parts := make([]string, 0, 2*len(visits))
	for _, v := range visits {
		n := &toc.Nodes[v.Index]
		if n.Kind == catleg.KindSection {
			parts = append(parts, catleg.Heading(v.Level, n.Title))
			continue
		}

		var body string
		if embedded && hasHTML(n) {
			body, err = b.render(n.HTML, "", "")
		} else {
			body, err = b.body(fetched[0])
			fetched = fetched[1:]
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, catleg.Heading(v.Level+1, catleg.ArticleHeading(n.Num, n.ID)), body)
	}
	return join(parts), nil
}

// fetch retrieves articles in one batch. Any missing article fails the
// whole batch.
func (b *Builder) fetch(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	articles, err := b.Backend.Articles(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(articles) != len(ids) {
		return nil, catleg.Errorf(catleg.EINTERNAL, "requested %d articles, got %d", len(ids), len(articles))
	}
	for i, a := range articles {
		if a == nil {
			return nil, catleg.ErrArticleNotFound.Errorf("article %s not found", ids[i])
		}
	}
	return articles, nil
}

func hasHTML(n *catleg.TOCNode) bool {
	return strings.TrimSpace(n.HTML) != ""
}

// body converts and formats the text of an article with its NOTA.
func (b *Builder) body(a *catleg.ReferenceArticle) (string, error) {
	if strings.TrimSpace(a.TextHTML) == "" {
		return b.format(catleg.EscapeMarkup(a.TextAndNota()))
	}
	return b.render(a.TextHTML, a.NotaHTML, a.Nota)
}

func (b *Builder) render(html, notaHTML, nota string) (string, error) {
	md, err := b.Converter.Convert(html)
	if err != nil {
		return "", fmt.Errorf("converting article: %w", err)
	}
	switch {
	case strings.TrimSpace(notaHTML) != "":
		n, err := b.Converter.Convert(notaHTML)
		if err != nil {
			return "", fmt.Errorf("converting nota: %w", err)
		}
		md += "\n\nNOTA :\n\n" + n
	case nota != "":
		md += "\n\nNOTA :\n\n" + catleg.EscapeMarkup(nota)
	}
	return b.format(md)
}

func (b *Builder) format(md string) (string, error) {
	out, err := b.Formatter.Format(md)
	if err != nil {
		return "", fmt.Errorf("formatting article: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func join(parts []string) string {
	return strings.Join(parts, "\n\n")
}

// timeout reports a failure caused by an expired deadline as ErrTimeout,
// whether or not err carries context.DeadlineExceeded.
func timeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return catleg.ErrTimeout.Errorf("skeleton generation timed out: %v", err)
	}
	return err
}
