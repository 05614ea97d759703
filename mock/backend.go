package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/catleg"
)

var _ catleg.Backend = (*Backend)(nil)

// Backend is a mock implementation of catleg.Backend.
type Backend struct {
	ArticleFn         func(ctx context.Context, id catleg.ArticleID) (*catleg.ReferenceArticle, error)
	ArticlesFn        func(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error)
	TableOfContentsFn func(ctx context.Context, textID string) (*catleg.TOC, error)
	PublishedTextFn   func(ctx context.Context, textID string) (*catleg.TOC, error)
}

func (b *Backend) Article(ctx context.Context, id catleg.ArticleID) (*catleg.ReferenceArticle, error) {
	return b.ArticleFn(ctx, id)
}

func (b *Backend) Articles(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
	return b.ArticlesFn(ctx, ids)
}

func (b *Backend) TableOfContents(ctx context.Context, textID string) (*catleg.TOC, error) {
	return b.TableOfContentsFn(ctx, textID)
}

func (b *Backend) PublishedText(ctx context.Context, textID string) (*catleg.TOC, error) {
	return b.PublishedTextFn(ctx, textID)
}

var _ catleg.RawQuerier = (*RawQuerier)(nil)

// RawQuerier is a mock implementation of catleg.RawQuerier.
type RawQuerier struct {
	RawArticleFn         func(ctx context.Context, id catleg.ArticleID) (json.RawMessage, error)
	RawTableOfContentsFn func(ctx context.Context, textID string) (json.RawMessage, error)
	RawCodesFn           func(ctx context.Context) (json.RawMessage, error)
}

func (q *RawQuerier) RawArticle(ctx context.Context, id catleg.ArticleID) (json.RawMessage, error) {
	return q.RawArticleFn(ctx, id)
}

func (q *RawQuerier) RawTableOfContents(ctx context.Context, textID string) (json.RawMessage, error) {
	return q.RawTableOfContentsFn(ctx, textID)
}

func (q *RawQuerier) RawCodes(ctx context.Context) (json.RawMessage, error) {
	return q.RawCodesFn(ctx)
}
