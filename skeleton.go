package catleg

import "context"

// SkeletonBuilder renders Markdown skeletons of law texts.
type SkeletonBuilder interface {
	// Section renders a section of a code and everything below it, or the
	// whole code when sectionID is empty.
	// Returns ErrSectionNotFound if the code has no such section.
	Section(ctx context.Context, textID, sectionID string) (string, error)

	// Article renders a single article, optionally preceded by the headings
	// of the text and sections containing it.
	Article(ctx context.Context, id ArticleID, breadcrumbs bool) (string, error)

	// PublishedText renders a text as published in the official journal.
	PublishedText(ctx context.Context, textID string) (string, error)
}
