package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/catleg/catala"
	"github.com/fwojciec/catleg/fs"
	"github.com/fwojciec/catleg/reconcile"
	"github.com/fwojciec/catleg/wdiff"
)

// Run executes the diff command.
func (c *DiffCmd) Run(deps *Dependencies) error {
	articles, err := catala.ParseFile(c.File)
	if err != nil {
		return report(deps.Stderr, err)
	}

	checker := newChecker(deps)
	checker.Differ = wdiff.NewDiffer(c.Color)
	result, err := checker.Diff(deps.Ctx, articles)
	if err != nil {
		return report(deps.Stderr, err)
	}

	write := func(w io.Writer) error {
		if c.Format == "json" {
			return reconcile.WriteDiffJSON(w, result)
		}
		return reconcile.WriteDiffText(w, result)
	}
	if err := writeReport(deps, c.Output, write); err != nil {
		return report(deps.Stderr, err)
	}
	if c.Format == "text" {
		_ = reconcile.WriteDiffSummary(deps.Stderr, result)
	}

	if code := result.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// Run executes the expiry command.
func (c *ExpiryCmd) Run(deps *Dependencies) error {
	articles, err := catala.ParseFile(c.File)
	if err != nil {
		return report(deps.Stderr, err)
	}

	result, err := newChecker(deps).CheckExpiry(deps.Ctx, articles)
	if err != nil {
		return report(deps.Stderr, err)
	}

	fmt.Fprintf(deps.Stdout, "Checked %d articles (%d archived, %d not retrieved): %d expired or expiring\n",
		result.Total, result.Archived, result.Unretrieved, len(result.Notices))

	if code := result.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// newChecker returns a checker streaming warnings to stderr.
func newChecker(deps *Dependencies) *reconcile.Checker {
	return &reconcile.Checker{
		Backend: deps.Backend,
		Logger:  deps.Logger,
		Now:     deps.Now,
		Warn: func(w reconcile.Warning) {
			fmt.Fprintf(deps.Stderr, "warning: %s\n", w.Message)
		},
	}
}

// writeReport runs write against stdout, or against the file at path when
// one is given. Files are only replaced once the report is complete.
func writeReport(deps *Dependencies, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(deps.Stdout)
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Abort()
		return err
	}
	return f.Commit()
}
