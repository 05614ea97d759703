package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/catleg"
	main "github.com/fwojciec/catleg/cmd/catleg"
	"github.com/fwojciec/catleg/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	articleID = "LEGIARTI000038814864"
	source    = "# Code\n\n## Article L841-1 | " + articleID + "\n\nLes aides sont versées.\n\n```catala\ndéclaration x contenu entier\n```\n"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// newMain returns a Main reading no configuration and using the given
// reference services.
func newMain(t *testing.T, backend catleg.Backend, raw catleg.RawQuerier) *main.Main {
	t.Helper()
	m := main.NewMain()
	m.Dir = t.TempDir()
	m.Getenv = func(string) string { return "" }
	m.Now = func() time.Time { return now }
	m.Backend = backend
	m.RawQuerier = raw
	return m
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aides.catala_fr")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func referenceBackend(ref *catleg.ReferenceArticle) *mock.Backend {
	return &mock.Backend{
		ArticlesFn: func(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
			out := make([]*catleg.ReferenceArticle, len(ids))
			for i, id := range ids {
				if ref != nil && id == ref.ID {
					out[i] = ref
				}
			}
			return out, nil
		},
	}
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newMain(t, nil, nil).Run(context.Background(), []string{"--help"}, stdout, stderr)

	require.NoError(t, err)
	help := stdout.String()
	for _, cmd := range []string{"diff", "expiry", "parse", "query", "skeleton", "article-skeleton", "jorf-skeleton", "lf", "serve"} {
		assert.Contains(t, help, cmd, "Help should mention %s command", cmd)
	}
	assert.Contains(t, help, "Usage:")
}

func TestMain_Run_NoCommand(t *testing.T) {
	t.Parallel()

	err := newMain(t, nil, nil).Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})

	assert.ErrorContains(t, err, "no command specified")
}

func TestMain_Run_Diff(t *testing.T) {
	t.Parallel()

	id := catleg.MustParseArticleID(articleID)

	t.Run("reports differing articles", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		m := newMain(t, referenceBackend(&catleg.ReferenceArticle{ID: id, Text: "Les aides sont payées."}), nil)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"diff", path}, stdout, stderr)

		var exit *main.ExitError
		require.True(t, errors.As(err, &exit))
		assert.Equal(t, 1, exit.Code)
		out := stdout.String()
		assert.Contains(t, out, articleID+"\n"+path+":5\n")
		assert.Contains(t, out, "[-versées.-]")
		assert.Contains(t, out, "{+payées.+}")
		assert.Contains(t, stderr.String(), "Found 1 articles with diffs (out of 1 articles)")
	})

	t.Run("succeeds when texts match", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		m := newMain(t, referenceBackend(&catleg.ReferenceArticle{ID: id, Text: "Les aides\nsont versées."}), nil)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"diff", path}, stdout, stderr)

		require.NoError(t, err)
		assert.Empty(t, stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("warns about articles that cannot be retrieved", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		stderr := &bytes.Buffer{}

		err := newMain(t, referenceBackend(nil), nil).Run(context.Background(), []string{"diff", path}, &bytes.Buffer{}, stderr)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "warning: Could not retrieve article '"+articleID+"'")
	})

	t.Run("writes json reports to a file", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		report := filepath.Join(t.TempDir(), "report.json")
		m := newMain(t, referenceBackend(&catleg.ReferenceArticle{ID: id, Text: "Les aides sont payées."}), nil)
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"diff", "--format", "json", "-o", report, path}, stdout, &bytes.Buffer{})

		var exit *main.ExitError
		require.True(t, errors.As(err, &exit))
		assert.Empty(t, stdout.String())
		data, err := os.ReadFile(report)
		require.NoError(t, err)
		var got struct {
			Total     int `json:"total"`
			Differing int `json:"differing"`
			Entries   []struct {
				ArticleID string `json:"articleId"`
				Location  string `json:"location"`
			} `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, 1, got.Differing)
		require.Len(t, got.Entries, 1)
		assert.Equal(t, articleID, got.Entries[0].ArticleID)
		assert.Equal(t, path+":5", got.Entries[0].Location)
	})
}

func TestMain_Run_Expiry(t *testing.T) {
	t.Parallel()

	id := catleg.MustParseArticleID(articleID)

	t.Run("fails on expired articles", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		m := newMain(t, referenceBackend(&catleg.ReferenceArticle{
			ID:            id,
			ExpiresAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			LatestVersion: catleg.MustParseArticleID("LEGIARTI000048000000"),
		}), nil)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"expiry", path}, stdout, stderr)

		var exit *main.ExitError
		require.True(t, errors.As(err, &exit))
		assert.Equal(t, 1, exit.Code)
		assert.Contains(t, stderr.String(), "Article '"+articleID+"' has expired (on 2024-01-01). It has been replaced by 'LEGIARTI000048000000'.")
		assert.Contains(t, stdout.String(), "Checked 1 articles")
	})

	t.Run("succeeds on scheduled expiry", func(t *testing.T) {
		t.Parallel()

		path := writeSource(t, source)
		m := newMain(t, referenceBackend(&catleg.ReferenceArticle{
			ID:            id,
			ExpiresAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			LatestVersion: catleg.MustParseArticleID("LEGIARTI000048000000"),
		}), nil)
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"expiry", path}, &bytes.Buffer{}, stderr)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "will expire on 2026-01-01")
	})
}

func TestMain_Run_Parse(t *testing.T) {
	t.Parallel()

	path := writeSource(t, source)
	stdout := &bytes.Buffer{}

	err := newMain(t, nil, nil).Run(context.Background(), []string{"parse", path}, stdout, &bytes.Buffer{})

	require.NoError(t, err)
	var got []catleg.LocalArticle
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, articleID, got[0].ID.String())
	assert.Equal(t, "Les aides sont versées.", got[0].Text)
	assert.Equal(t, 4, got[0].StartLine)
}

func TestMain_Run_Query(t *testing.T) {
	t.Parallel()

	t.Run("prints the reference article", func(t *testing.T) {
		t.Parallel()

		backend := &mock.Backend{
			ArticleFn: func(ctx context.Context, id catleg.ArticleID) (*catleg.ReferenceArticle, error) {
				return &catleg.ReferenceArticle{ID: id, Num: "L841-1", TextHTML: "<p>Les aides</p>"}, nil
			},
		}
		stdout := &bytes.Buffer{}

		err := newMain(t, backend, &mock.RawQuerier{}).Run(context.Background(), []string{"query", articleID}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), `"num": "L841-1"`)
		assert.Contains(t, stdout.String(), `"textHtml": "<p>Les aides</p>"`)
	})

	t.Run("rejects invalid identifiers", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}

		err := newMain(t, &mock.Backend{}, &mock.RawQuerier{}).Run(context.Background(), []string{"query", "LEGIARTI42"}, &bytes.Buffer{}, stderr)

		assert.ErrorIs(t, err, catleg.ErrInvalidIdentifier)
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}

		err := newMain(t, nil, nil).Run(context.Background(), []string{"query", articleID}, &bytes.Buffer{}, stderr)

		assert.Equal(t, catleg.EINVALID, catleg.ErrorCode(err))
		assert.Contains(t, stderr.String(), "please supply Legifrance credentials")
	})
}

func TestMain_Run_Skeleton(t *testing.T) {
	t.Parallel()

	toc := &catleg.TOC{}
	root := toc.Add(catleg.TOCNode{ID: "LEGITEXT000006074096", Kind: catleg.KindSection, Title: "Code de la construction"})
	art := toc.Add(catleg.TOCNode{ID: articleID, Kind: catleg.KindArticle, Num: "L841-1"})
	toc.Nodes[root].Articles = []int{art}
	ref := func(id catleg.ArticleID) *catleg.ReferenceArticle {
		return &catleg.ReferenceArticle{ID: id, Num: "L841-1", TextHTML: "<p>Les aides personnelles.</p>"}
	}
	backend := &mock.Backend{
		TableOfContentsFn: func(ctx context.Context, textID string) (*catleg.TOC, error) { return toc, nil },
		ArticleFn: func(ctx context.Context, id catleg.ArticleID) (*catleg.ReferenceArticle, error) {
			return ref(id), nil
		},
		ArticlesFn: func(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
			out := make([]*catleg.ReferenceArticle, len(ids))
			for i, id := range ids {
				out[i] = ref(id)
			}
			return out, nil
		},
	}

	t.Run("prints the skeleton", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}

		err := newMain(t, backend, &mock.RawQuerier{}).Run(context.Background(), []string{"skeleton", "LEGITEXT000006074096"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "# Code de la construction\n\n## Article L841-1 | "+articleID+"\n\nLes aides personnelles.\n", stdout.String())
	})

	t.Run("writes the skeleton to a file", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "skeleton.catala_fr")
		stderr := &bytes.Buffer{}

		err := newMain(t, backend, &mock.RawQuerier{}).Run(context.Background(), []string{"article-skeleton", articleID, "-o", out}, &bytes.Buffer{}, stderr)

		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "## Article L841-1 | "+articleID+"\n\nLes aides personnelles.\n", string(data))
		assert.Contains(t, stderr.String(), "Wrote "+out)
	})

	t.Run("rejects non-section identifiers", func(t *testing.T) {
		t.Parallel()

		err := newMain(t, backend, &mock.RawQuerier{}).Run(context.Background(), []string{"skeleton", "LEGITEXT000006074096", articleID}, &bytes.Buffer{}, &bytes.Buffer{})

		assert.ErrorIs(t, err, catleg.ErrInvalidIdentifier)
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	t.Run("reported errors are written once", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		err := newMain(t, &mock.Backend{}, &mock.RawQuerier{}).Run(context.Background(), []string{"query", "LEGIARTI42"}, &bytes.Buffer{}, stderr)
		require.Error(t, err)

		code := main.ExitCode(err, stderr)

		assert.Equal(t, 1, code)
		assert.Equal(t, 1, strings.Count(stderr.String(), "error:"))
		assert.NotContains(t, stderr.String(), "catleg error:")
	})

	t.Run("unreported errors are written", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}

		code := main.ExitCode(errors.New("failed to load configuration"), stderr)

		assert.Equal(t, 1, code)
		assert.Equal(t, "error: failed to load configuration\n", stderr.String())
	})

	t.Run("exit errors carry their status", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}

		assert.Equal(t, 1, main.ExitCode(&main.ExitError{Code: 1}, stderr))
		assert.Equal(t, 0, main.ExitCode(nil, stderr))
		assert.Empty(t, stderr.String())
	})
}
