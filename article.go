package catleg

import (
	"context"
	"encoding/json"
	"time"
)

// EndOfTime is the expiration date Legifrance uses for articles that are not
// expired and not scheduled to expire (2999-01-01).
var EndOfTime = FromTimestamp(32472144000000)

// FromTimestamp converts a Legifrance timestamp (milliseconds since the Unix
// epoch) to a UTC time.
func FromTimestamp(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// LocalArticle is a legislative article quoted in a Catala source file.
type LocalArticle struct {
	ID   ArticleID `json:"id"`
	Text string    `json:"text"`

	// StartLine is the 0-based line of the first block following the
	// article heading.
	StartLine int `json:"startLine"`

	// Path of the source file. Empty when unknown.
	Path string `json:"path,omitempty"`

	// Archived articles quote a past version on purpose and are not
	// checked for expiry.
	Archived bool `json:"archived"`
}

// ReferenceArticle is the reference version of an article, as retrieved
// from Legifrance.
type ReferenceArticle struct {
	ID       ArticleID `json:"id"`
	Num      string    `json:"num,omitempty"`
	Text     string    `json:"text"`
	TextHTML string    `json:"textHtml"`
	Nota     string    `json:"nota,omitempty"`
	NotaHTML string    `json:"notaHtml,omitempty"`

	// ExpiresAt is the end of validity of this version. The zero value and
	// EndOfTime both mean the article is open-ended.
	ExpiresAt time.Time `json:"expiresAt"`

	// LatestVersion is the most recent version of the article, which
	// replaces this one once it expires.
	LatestVersion ArticleID `json:"latestVersion"`

	Context ArticleContext `json:"context"`
}

// IsOpenEnded reports whether the article has no enforceable expiration date.
func (a *ReferenceArticle) IsOpenEnded() bool {
	return a.ExpiresAt.IsZero() || a.ExpiresAt.Equal(EndOfTime)
}

// TextAndNota returns the article text followed by its NOTA, if any.
func (a *ReferenceArticle) TextAndNota() string {
	if a.Nota == "" {
		return a.Text
	}
	return a.Text + "\n\nNOTA :\n\n" + a.Nota
}

// ArticleContext locates an article within the texts and sections containing it.
type ArticleContext struct {
	// Candidate parent texts. An article may belong to several versions of
	// a text, only some of which are in force.
	Texts []ParentText `json:"texts,omitempty"`

	// Titles of the containing sections, shallowest first.
	Sections []string `json:"sections,omitempty"`
}

// ParentText is a law text containing an article.
type ParentText struct {
	Title   string `json:"title"`
	InForce bool   `json:"inForce"`
}

// TextTitle returns the title of the text containing the article,
// preferring a text in force over one that is not.
func (c ArticleContext) TextTitle() (string, bool) {
	for _, t := range c.Texts {
		if t.InForce {
			return t.Title, true
		}
	}
	if len(c.Texts) > 0 {
		return c.Texts[0].Title, true
	}
	return "", false
}

// Backend retrieves reference versions of law texts.
type Backend interface {
	// Article retrieves a single article.
	// Returns ErrArticleNotFound if the article does not exist.
	Article(ctx context.Context, id ArticleID) (*ReferenceArticle, error)

	// Articles retrieves several articles concurrently. The result has one
	// entry per id, in the order of ids; entries are nil for articles that
	// could not be found.
	Articles(ctx context.Context, ids []ArticleID) ([]*ReferenceArticle, error)

	// TableOfContents retrieves the structure of a code, without article text.
	// Returns ErrTocNotFound if the text has no table of contents.
	TableOfContents(ctx context.Context, textID string) (*TOC, error)

	// PublishedText retrieves the structure of a text as published in the
	// official journal, including article content when available.
	PublishedText(ctx context.Context, textID string) (*TOC, error)
}

// RawQuerier exposes the remote API replies unchanged, for inspection.
type RawQuerier interface {
	RawArticle(ctx context.Context, id ArticleID) (json.RawMessage, error)
	RawTableOfContents(ctx context.Context, textID string) (json.RawMessage, error)
	RawCodes(ctx context.Context) (json.RawMessage, error)
}
