package mock

import (
	"context"

	"github.com/fwojciec/catleg"
)

var _ catleg.SkeletonBuilder = (*SkeletonBuilder)(nil)

// SkeletonBuilder is a mock implementation of catleg.SkeletonBuilder.
type SkeletonBuilder struct {
	SectionFn       func(ctx context.Context, textID, sectionID string) (string, error)
	ArticleFn       func(ctx context.Context, id catleg.ArticleID, breadcrumbs bool) (string, error)
	PublishedTextFn func(ctx context.Context, textID string) (string, error)
}

func (b *SkeletonBuilder) Section(ctx context.Context, textID, sectionID string) (string, error) {
	return b.SectionFn(ctx, textID, sectionID)
}

func (b *SkeletonBuilder) Article(ctx context.Context, id catleg.ArticleID, breadcrumbs bool) (string, error) {
	return b.ArticleFn(ctx, id, breadcrumbs)
}

func (b *SkeletonBuilder) PublishedText(ctx context.Context, textID string) (string, error) {
	return b.PublishedTextFn(ctx, textID)
}
