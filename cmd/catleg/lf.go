package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/catleg"
)

// Run executes the "lf article" command.
func (c *LfArticleCmd) Run(deps *Dependencies) error {
	id, err := catleg.ParseArticleID(c.ArticleID)
	if err != nil {
		return report(deps.Stderr, err)
	}
	raw, err := deps.RawQuerier.RawArticle(deps.Ctx, id)
	return writeRaw(deps, raw, err)
}

// Run executes the "lf codes" command.
func (c *LfCodesCmd) Run(deps *Dependencies) error {
	raw, err := deps.RawQuerier.RawCodes(deps.Ctx)
	return writeRaw(deps, raw, err)
}

// Run executes the "lf toc" command.
func (c *LfTocCmd) Run(deps *Dependencies) error {
	raw, err := deps.RawQuerier.RawTableOfContents(deps.Ctx, c.TextID)
	return writeRaw(deps, raw, err)
}

// writeRaw pretty-prints a raw API reply.
func writeRaw(deps *Dependencies, raw json.RawMessage, err error) error {
	if err != nil {
		return report(deps.Stderr, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting reply: %w", err)
	}
	buf.WriteByte('\n')
	_, err = deps.Stdout.Write(buf.Bytes())
	return err
}
