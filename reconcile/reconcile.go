// Package reconcile compares the articles quoted in Catala sources with
// their reference versions: textual drift and expiry.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/catleg"
)

// Checker reconciles local articles with their reference versions.
type Checker struct {
	Backend catleg.Backend
	Differ  catleg.Differ
	Logger  *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Warn receives warnings as they are discovered. When nil, warnings
	// are logged.
	Warn WarningFunc
}

// WarningKind classifies warnings.
type WarningKind int

const (
	WarningNotRetrieved WarningKind = iota
	WarningExpired
	WarningExpiring
)

// Warning is a per-article condition that does not stop the run.
type Warning struct {
	Kind      WarningKind
	ArticleID catleg.ArticleID
	Message   string
}

// WarningFunc is a callback for reporting warnings.
type WarningFunc func(Warning)

// DiffResult holds the outcome of a diff run.
type DiffResult struct {
	// Entries of differing articles, in input order.
	Entries []catleg.DiffEntry

	// Total number of articles checked.
	Total int

	// Unretrieved counts articles with no reference version.
	Unretrieved int
}

// ExitCode is 1 when any article differs from its reference.
func (r *DiffResult) ExitCode() int {
	if len(r.Entries) > 0 {
		return 1
	}
	return 0
}

// Diff compares each article with its reference version.
func (c *Checker) Diff(ctx context.Context, articles []catleg.LocalArticle) (*DiffResult, error) {
	refs, err := c.references(ctx, articles)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{Total: len(articles)}
	for i, a := range articles {
		ref := refs[i]
		if ref == nil {
			c.notRetrieved(a.ID)
			result.Unretrieved++
			continue
		}

		local := catleg.NormalizeForDiff(a.Text)
		reference := catleg.ReferenceDiffText(ref)
		diff, changed := c.Differ.WordDiff(local, reference, a.StartLine)
		if !changed {
			continue
		}
		result.Entries = append(result.Entries, catleg.DiffEntry{
			ArticleID:       a.ID,
			Path:            a.Path,
			StartLine:       a.StartLine,
			Diff:            diff,
			ExitCode:        1,
			LocalDigest:     computeHash(local),
			ReferenceDigest: computeHash(reference),
		})
	}
	return result, nil
}

// ExpiryNotice reports an article that has expired or will expire.
type ExpiryNotice struct {
	ArticleID  catleg.ArticleID `json:"articleId"`
	ExpiresAt  time.Time        `json:"expiresAt"`
	ReplacedBy catleg.ArticleID `json:"replacedBy"`
	Expired    bool             `json:"expired"`
}

// ExpiryResult holds the outcome of an expiry check.
type ExpiryResult struct {
	Notices     []ExpiryNotice
	Total       int
	Archived    int
	Unretrieved int
}

// ExitCode is 1 when any non-archived article has expired.
func (r *ExpiryResult) ExitCode() int {
	for _, n := range r.Notices {
		if n.Expired {
			return 1
		}
	}
	return 0
}

// CheckExpiry reports the articles that have expired or are scheduled to
// expire. Archived articles are not checked.
func (c *Checker) CheckExpiry(ctx context.Context, articles []catleg.LocalArticle) (*ExpiryResult, error) {
	refs, err := c.references(ctx, articles)
	if err != nil {
		return nil, err
	}

	now := c.now()
	log := c.logger()
	result := &ExpiryResult{Total: len(articles)}
	for i, a := range articles {
		ref := refs[i]
		if ref == nil {
			c.notRetrieved(a.ID)
			result.Unretrieved++
			continue
		}
		if a.Archived {
			log.Info("archived, skipping expiry check", "id", a.ID)
			result.Archived++
			continue
		}
		log.Info("checking article", "id", a.ID)

		notice := ExpiryNotice{ArticleID: a.ID, ExpiresAt: ref.ExpiresAt, ReplacedBy: ref.LatestVersion}
		date := ref.ExpiresAt.Format(time.DateOnly)
		switch catleg.CheckExpiry(ref, now) {
		case catleg.ExpiryOpen:
			continue
		case catleg.ExpiryPassed:
			notice.Expired = true
			c.warn(Warning{
				Kind:      WarningExpired,
				ArticleID: a.ID,
				Message:   fmt.Sprintf("Article '%s' has expired (on %s). It has been replaced by '%s'.", a.ID, date, ref.LatestVersion),
			})
		case catleg.ExpiryScheduled:
			c.warn(Warning{
				Kind:      WarningExpiring,
				ArticleID: a.ID,
				Message:   fmt.Sprintf("Article '%s' will expire on %s. It will be replaced by '%s'", a.ID, date, ref.LatestVersion),
			})
		}
		result.Notices = append(result.Notices, notice)
	}
	return result, nil
}

// references fetches the reference version of every article, in order.
func (c *Checker) references(ctx context.Context, articles []catleg.LocalArticle) ([]*catleg.ReferenceArticle, error) {
	ids := make([]catleg.ArticleID, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	refs, err := c.Backend.Articles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching reference articles: %w", err)
	}
	if len(refs) != len(ids) {
		return nil, catleg.Errorf(catleg.EINTERNAL, "backend returned %d articles for %d ids", len(refs), len(ids))
	}
	return refs, nil
}

func (c *Checker) notRetrieved(id catleg.ArticleID) {
	c.warn(Warning{
		Kind:      WarningNotRetrieved,
		ArticleID: id,
		Message:   fmt.Sprintf("Could not retrieve article '%s'", id),
	})
}

func (c *Checker) warn(w Warning) {
	if c.Warn != nil {
		c.Warn(w)
		return
	}
	c.logger().Warn(w.Message, "id", w.ArticleID)
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *Checker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}
