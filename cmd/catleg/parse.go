package main

import (
	"encoding/json"
	"io"

	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/catala"
)

// Run executes the parse command.
func (c *ParseCmd) Run(deps *Dependencies) error {
	articles, err := catala.ParseFile(c.File)
	if err != nil {
		return report(deps.Stderr, err)
	}
	if articles == nil {
		articles = []catleg.LocalArticle{}
	}
	return writeJSON(deps.Stdout, articles)
}

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	id, err := catleg.ParseArticleID(c.ArticleID)
	if err != nil {
		return report(deps.Stderr, err)
	}

	article, err := deps.Backend.Article(deps.Ctx, id)
	if err != nil {
		return report(deps.Stderr, err)
	}
	return writeJSON(deps.Stdout, article)
}

// writeJSON writes v as indented JSON, leaving markup unescaped.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
