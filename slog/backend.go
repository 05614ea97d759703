package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/catleg"
)

// Ensure LoggingBackend implements catleg.Backend.
var _ catleg.Backend = (*LoggingBackend)(nil)

// LoggingBackend wraps a Backend with logging of every call.
type LoggingBackend struct {
	next   catleg.Backend
	logger *slog.Logger
}

// NewLoggingBackend creates a new LoggingBackend.
func NewLoggingBackend(next catleg.Backend, logger *slog.Logger) *LoggingBackend {
	return &LoggingBackend{next: next, logger: logger}
}

// Article delegates to the wrapped backend and logs the operation.
func (b *LoggingBackend) Article(ctx context.Context, id catleg.ArticleID) (a *catleg.ReferenceArticle, err error) {
	defer func(begin time.Time) {
		b.logger.Info("article retrieval",
			"id", id.String(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Article(ctx, id)
}

// Articles delegates to the wrapped backend and logs how many of the
// requested articles were found.
func (b *LoggingBackend) Articles(ctx context.Context, ids []catleg.ArticleID) (articles []*catleg.ReferenceArticle, err error) {
	defer func(begin time.Time) {
		found := 0
		for _, a := range articles {
			if a != nil {
				found++
			}
		}
		b.logger.Info("batch article retrieval",
			"count", len(ids),
			"found", found,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Articles(ctx, ids)
}

// TableOfContents delegates to the wrapped backend and logs the operation.
func (b *LoggingBackend) TableOfContents(ctx context.Context, textID string) (toc *catleg.TOC, err error) {
	defer func(begin time.Time) {
		b.logger.Info("table of contents retrieval",
			"text", textID,
			"nodes", nodeCount(toc),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.TableOfContents(ctx, textID)
}

// PublishedText delegates to the wrapped backend and logs the operation.
func (b *LoggingBackend) PublishedText(ctx context.Context, textID string) (toc *catleg.TOC, err error) {
	defer func(begin time.Time) {
		b.logger.Info("published text retrieval",
			"text", textID,
			"nodes", nodeCount(toc),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.PublishedText(ctx, textID)
}

func nodeCount(toc *catleg.TOC) int {
	if toc == nil {
		return 0
	}
	return len(toc.Nodes)
}
