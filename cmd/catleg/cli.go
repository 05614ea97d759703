package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/catleg"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Now        func() time.Time
	Backend    catleg.Backend
	RawQuerier catleg.RawQuerier
	Skeletons  catleg.SkeletonBuilder

	// ServeTimeout is the default time allowed to render a skeleton in the
	// web viewer.
	ServeTimeout time.Duration
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Diff            DiffCmd            `cmd:"" help:"Show differences between each article of a Catala file and its reference version"`
	Expiry          ExpiryCmd          `cmd:"" help:"Report articles of a Catala file that have expired or will expire"`
	Parse           ParseCmd           `cmd:"" help:"List the articles quoted in a Catala file"`
	Query           QueryCmd           `cmd:"" help:"Retrieve the reference version of a French law article"`
	Skeleton        SkeletonCmd        `cmd:"" help:"Output a section of a code as a Markdown skeleton"`
	ArticleSkeleton ArticleSkeletonCmd `cmd:"" help:"Output a single article as a Markdown skeleton"`
	JorfSkeleton    JorfSkeletonCmd    `cmd:"" help:"Output a text published in the official journal as a Markdown skeleton"`
	Lf              LfCmd              `cmd:"" name:"lf" help:"Query the raw Legifrance API"`
	Serve           ServeCmd           `cmd:"" help:"Serve skeletons over HTTP"`
}

// DiffCmd is the "diff" subcommand.
type DiffCmd struct {
	File   string `arg:"" type:"existingfile" help:"Catala source file"`
	Format string `short:"f" enum:"text,json" default:"text" help:"Output format (text or json)"`
	Color  bool   `help:"Color the word diff"`
	Output string `short:"o" type:"path" help:"Write the report to a file instead of stdout"`
}

// ExpiryCmd is the "expiry" subcommand.
type ExpiryCmd struct {
	File string `arg:"" type:"existingfile" help:"Catala source file"`
}

// ParseCmd is the "parse" subcommand.
type ParseCmd struct {
	File string `arg:"" type:"existingfile" help:"Catala source file"`
}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	ArticleID string `arg:"" help:"Article identifier (LEGIARTI, JORFARTI or CETATEXT)"`
}

// SkeletonCmd is the "skeleton" subcommand.
type SkeletonCmd struct {
	TextID    string `arg:"" help:"Code identifier (LEGITEXT)"`
	SectionID string `arg:"" optional:"" help:"Section identifier (LEGISCTA); the whole code when omitted"`
	Output    string `short:"o" type:"path" help:"Write the skeleton to a file instead of stdout"`
}

// ArticleSkeletonCmd is the "article-skeleton" subcommand.
type ArticleSkeletonCmd struct {
	ArticleID   string `arg:"" help:"Article identifier"`
	Breadcrumbs bool   `short:"b" help:"Precede the article with the headings of its text and sections"`
	Output      string `short:"o" type:"path" help:"Write the skeleton to a file instead of stdout"`
}

// JorfSkeletonCmd is the "jorf-skeleton" subcommand.
type JorfSkeletonCmd struct {
	TextID string `arg:"" help:"Official journal text identifier (JORFTEXT)"`
	Output string `short:"o" type:"path" help:"Write the skeleton to a file instead of stdout"`
}

// LfCmd groups the raw Legifrance subcommands.
type LfCmd struct {
	Article LfArticleCmd `cmd:"" help:"Retrieve an article from Legifrance"`
	Codes   LfCodesCmd   `cmd:"" help:"Retrieve the list of codes in force"`
	Toc     LfTocCmd     `cmd:"" help:"Retrieve the table of contents of a code"`
}

// LfArticleCmd is the "lf article" subcommand.
type LfArticleCmd struct {
	ArticleID string `arg:"" help:"Article identifier"`
}

// LfCodesCmd is the "lf codes" subcommand.
type LfCodesCmd struct{}

// LfTocCmd is the "lf toc" subcommand.
type LfTocCmd struct {
	TextID string `arg:"" help:"Code identifier (LEGITEXT)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr    string        `default:"localhost:8000" help:"Listen address"`
	Timeout time.Duration `help:"Time allowed to render a skeleton (default: twice the Legifrance timeout)"`
}
