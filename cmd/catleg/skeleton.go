package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/catleg"
)

// Run executes the skeleton command.
func (c *SkeletonCmd) Run(deps *Dependencies) error {
	md, err := deps.Skeletons.Section(deps.Ctx, c.TextID, c.SectionID)
	if err != nil {
		return report(deps.Stderr, err)
	}
	return writeSkeleton(deps, c.Output, md)
}

// Run executes the article-skeleton command.
func (c *ArticleSkeletonCmd) Run(deps *Dependencies) error {
	id, err := catleg.ParseArticleID(c.ArticleID)
	if err != nil {
		return report(deps.Stderr, err)
	}

	md, err := deps.Skeletons.Article(deps.Ctx, id, c.Breadcrumbs)
	if err != nil {
		return report(deps.Stderr, err)
	}
	return writeSkeleton(deps, c.Output, md)
}

// Run executes the jorf-skeleton command.
func (c *JorfSkeletonCmd) Run(deps *Dependencies) error {
	md, err := deps.Skeletons.PublishedText(deps.Ctx, c.TextID)
	if err != nil {
		return report(deps.Stderr, err)
	}
	return writeSkeleton(deps, c.Output, md)
}

func writeSkeleton(deps *Dependencies, path, md string) error {
	err := writeReport(deps, path, func(w io.Writer) error {
		_, err := io.WriteString(w, md+"\n")
		return err
	})
	if err != nil {
		return report(deps.Stderr, err)
	}
	if path != "" {
		fmt.Fprintf(deps.Stderr, "Wrote %s\n", path)
	}
	return nil
}
