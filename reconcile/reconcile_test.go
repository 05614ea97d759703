package reconcile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/mock"
	"github.com/fwojciec/catleg/reconcile"
	"github.com/fwojciec/catleg/wdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idA = catleg.MustParseArticleID("LEGIARTI000038814864")
	idB = catleg.MustParseArticleID("LEGIARTI000038814865")
	idC = catleg.MustParseArticleID("LEGIARTI000038814866")
	idD = catleg.MustParseArticleID("LEGIARTI000038814867")
)

// backendWith returns a backend resolving ids from refs; missing ids are nil.
func backendWith(refs map[catleg.ArticleID]*catleg.ReferenceArticle) *mock.Backend {
	return &mock.Backend{
		ArticlesFn: func(_ context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
			out := make([]*catleg.ReferenceArticle, len(ids))
			for i, id := range ids {
				out[i] = refs[id]
			}
			return out, nil
		},
	}
}

// recorder collects warnings.
type recorder struct {
	mu       sync.Mutex
	warnings []reconcile.Warning
}

func (r *recorder) warn(w reconcile.Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

func TestChecker_Diff(t *testing.T) {
	t.Parallel()

	t.Run("reports differing articles and missing references", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := &reconcile.Checker{
			Backend: backendWith(map[catleg.ArticleID]*catleg.ReferenceArticle{
				idA: {ID: idA, Text: "Les aides sont attribuées."},
				idB: {ID: idB, Text: "Les aides sont versées."},
			}),
			Differ: wdiff.NewDiffer(false),
			Warn:   rec.warn,
		}
		articles := []catleg.LocalArticle{
			{ID: idA, Text: "Les aides\nsont attribuées.", StartLine: 3, Path: "logement.catala_fr"},
			{ID: idB, Text: "Les aides sont payées.", StartLine: 12, Path: "logement.catala_fr"},
			{ID: idC, Text: "Introuvable.", StartLine: 20},
		}

		result, err := c.Diff(context.Background(), articles)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 1, result.Unretrieved)
		assert.Equal(t, 1, result.ExitCode())
		require.Len(t, result.Entries, 1)

		e := result.Entries[0]
		assert.Equal(t, idB, e.ArticleID)
		assert.Equal(t, "logement.catala_fr", e.Path)
		assert.Equal(t, 12, e.StartLine)
		assert.Equal(t, 1, e.ExitCode)
		assert.Equal(t, "@@ -13 +13 @@\nLes aides sont [-payées.-]{+versées.+}\n", string(e.Diff))
		assert.NotEqual(t, e.LocalDigest, e.ReferenceDigest)

		require.Len(t, rec.warnings, 1)
		assert.Equal(t, reconcile.WarningNotRetrieved, rec.warnings[0].Kind)
		assert.Equal(t, "Could not retrieve article 'LEGIARTI000038814866'", rec.warnings[0].Message)
	})

	t.Run("reflowed text does not differ", func(t *testing.T) {
		t.Parallel()

		c := &reconcile.Checker{
			Backend: backendWith(map[catleg.ArticleID]*catleg.ReferenceArticle{
				idA: {ID: idA, Text: "Le montant de l'aide est fixé par décret."},
			}),
			Differ: wdiff.NewDiffer(false),
		}
		articles := []catleg.LocalArticle{
			{ID: idA, Text: "Le montant de l'aide\nest  fixé\npar décret.\n"},
		}

		result, err := c.Diff(context.Background(), articles)

		require.NoError(t, err)
		assert.Empty(t, result.Entries)
		assert.Equal(t, 0, result.ExitCode())
	})

	t.Run("compares nota and escaped markup", func(t *testing.T) {
		t.Parallel()

		c := &reconcile.Checker{
			Backend: backendWith(map[catleg.ArticleID]*catleg.ReferenceArticle{
				idA: {ID: idA, Text: "Texte [abrogé].", Nota: "Voir décret."},
			}),
			Differ: wdiff.NewDiffer(false),
		}
		articles := []catleg.LocalArticle{
			{ID: idA, Text: "Texte \\[abrogé\\]. NOTA : Voir décret."},
		}

		result, err := c.Diff(context.Background(), articles)

		require.NoError(t, err)
		assert.Empty(t, result.Entries)
	})

	t.Run("passes normalized texts and start line to differ", func(t *testing.T) {
		t.Parallel()

		var gotLocal, gotRef string
		var gotOffset int
		c := &reconcile.Checker{
			Backend: backendWith(map[catleg.ArticleID]*catleg.ReferenceArticle{
				idA: {ID: idA, Text: "b\nb"},
			}),
			Differ: &mock.Differ{
				WordDiffFn: func(local, ref string, lineOffset int) ([]byte, bool) {
					gotLocal, gotRef, gotOffset = local, ref, lineOffset
					return []byte("diff"), true
				},
			},
		}

		result, err := c.Diff(context.Background(), []catleg.LocalArticle{{ID: idA, Text: " a\n a ", StartLine: 7}})

		require.NoError(t, err)
		assert.Equal(t, "a a", gotLocal)
		assert.Equal(t, "b b", gotRef)
		assert.Equal(t, 7, gotOffset)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "diff", string(result.Entries[0].Diff))
	})

	t.Run("backend failure aborts", func(t *testing.T) {
		t.Parallel()

		c := &reconcile.Checker{
			Backend: &mock.Backend{
				ArticlesFn: func(context.Context, []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
					return nil, errors.New("connection refused")
				},
			},
			Differ: wdiff.NewDiffer(false),
		}

		_, err := c.Diff(context.Background(), []catleg.LocalArticle{{ID: idA}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("no articles", func(t *testing.T) {
		t.Parallel()

		c := &reconcile.Checker{Backend: backendWith(nil), Differ: wdiff.NewDiffer(false)}

		result, err := c.Diff(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Equal(t, 0, result.ExitCode())
	})
}

func TestChecker_CheckExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	latest := catleg.MustParseArticleID("LEGIARTI000049000000")

	newChecker := func(rec *recorder, refs map[catleg.ArticleID]*catleg.ReferenceArticle) *reconcile.Checker {
		return &reconcile.Checker{
			Backend: backendWith(refs),
			Now:     func() time.Time { return now },
			Warn:    rec.warn,
		}
	}

	t.Run("expired one second ago fails", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := newChecker(rec, map[catleg.ArticleID]*catleg.ReferenceArticle{
			idA: {ID: idA, ExpiresAt: now.Add(-time.Second), LatestVersion: latest},
		})

		result, err := c.CheckExpiry(context.Background(), []catleg.LocalArticle{{ID: idA}})

		require.NoError(t, err)
		assert.Equal(t, 1, result.ExitCode())
		require.Len(t, rec.warnings, 1)
		assert.Equal(t, reconcile.WarningExpired, rec.warnings[0].Kind)
		assert.Equal(t, "Article 'LEGIARTI000038814864' has expired (on 2024-03-01). It has been replaced by 'LEGIARTI000049000000'.", rec.warnings[0].Message)
	})

	t.Run("expiring next year warns without failing", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := newChecker(rec, map[catleg.ArticleID]*catleg.ReferenceArticle{
			idA: {ID: idA, ExpiresAt: now.AddDate(1, 0, 0), LatestVersion: latest},
		})

		result, err := c.CheckExpiry(context.Background(), []catleg.LocalArticle{{ID: idA}})

		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode())
		require.Len(t, result.Notices, 1)
		assert.False(t, result.Notices[0].Expired)
		require.Len(t, rec.warnings, 1)
		assert.Equal(t, "Article 'LEGIARTI000038814864' will expire on 2025-03-01. It will be replaced by 'LEGIARTI000049000000'", rec.warnings[0].Message)
	})

	t.Run("open-ended articles are silent", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := newChecker(rec, map[catleg.ArticleID]*catleg.ReferenceArticle{
			idA: {ID: idA, ExpiresAt: catleg.EndOfTime},
			idB: {ID: idB},
		})

		result, err := c.CheckExpiry(context.Background(), []catleg.LocalArticle{{ID: idA}, {ID: idB}})

		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode())
		assert.Empty(t, result.Notices)
		assert.Empty(t, rec.warnings)
	})

	t.Run("archived articles are skipped", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := newChecker(rec, map[catleg.ArticleID]*catleg.ReferenceArticle{
			idA: {ID: idA, ExpiresAt: now.AddDate(-1, 0, 0), LatestVersion: latest},
		})

		result, err := c.CheckExpiry(context.Background(), []catleg.LocalArticle{{ID: idA, Archived: true}})

		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode())
		assert.Equal(t, 1, result.Archived)
		assert.Empty(t, rec.warnings)
	})

	t.Run("missing reference warns and continues", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		c := newChecker(rec, map[catleg.ArticleID]*catleg.ReferenceArticle{
			idD: {ID: idD, ExpiresAt: now.Add(-time.Hour), LatestVersion: latest},
		})

		result, err := c.CheckExpiry(context.Background(), []catleg.LocalArticle{{ID: idC}, {ID: idD}})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Unretrieved)
		assert.Equal(t, 1, result.ExitCode())
		require.Len(t, rec.warnings, 2)
		assert.Equal(t, reconcile.WarningNotRetrieved, rec.warnings[0].Kind)
		assert.Equal(t, reconcile.WarningExpired, rec.warnings[1].Kind)
	})
}

func TestWriteDiffText(t *testing.T) {
	t.Parallel()

	result := &reconcile.DiffResult{
		Total: 4,
		Entries: []catleg.DiffEntry{
			{ArticleID: idA, Path: "a.catala_fr", StartLine: 9, Diff: []byte("@@ -10 +10 @@\n[-a-]{+b+}\n")},
			{ArticleID: idB, StartLine: 0, Diff: []byte("@@ -1 +1 @@\n{+c+}\n")},
		},
	}

	var out, summary bytes.Buffer
	require.NoError(t, reconcile.WriteDiffText(&out, result))
	require.NoError(t, reconcile.WriteDiffSummary(&summary, result))

	assert.Equal(t, "LEGIARTI000038814864\na.catala_fr:10\n@@ -10 +10 @@\n[-a-]{+b+}\n"+
		"LEGIARTI000038814865\n<unknown file>:1\n@@ -1 +1 @@\n{+c+}\n", out.String())
	assert.Equal(t, "Found 2 articles with diffs (out of 4 articles)\n", summary.String())
}

func TestWriteDiffSummary_NoDiff(t *testing.T) {
	t.Parallel()

	var summary bytes.Buffer
	require.NoError(t, reconcile.WriteDiffSummary(&summary, &reconcile.DiffResult{Total: 3}))

	assert.Empty(t, summary.String())
}

func TestWriteDiffJSON(t *testing.T) {
	t.Parallel()

	result := &reconcile.DiffResult{
		Total:       2,
		Unretrieved: 1,
		Entries: []catleg.DiffEntry{
			{ArticleID: idA, Path: "a.catala_fr", StartLine: 9, Diff: []byte("[-a-]{+b+}"), ExitCode: 1, LocalDigest: "1", ReferenceDigest: "2"},
		},
	}

	var out bytes.Buffer
	require.NoError(t, reconcile.WriteDiffJSON(&out, result))

	var got struct {
		Total       int `json:"total"`
		Differing   int `json:"differing"`
		Unretrieved int `json:"unretrieved"`
		Entries     []struct {
			ArticleID       string `json:"articleId"`
			Location        string `json:"location"`
			Diff            string `json:"diff"`
			LocalDigest     string `json:"localDigest"`
			ReferenceDigest string `json:"referenceDigest"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))

	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Differing)
	assert.Equal(t, 1, got.Unretrieved)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "LEGIARTI000038814864", got.Entries[0].ArticleID)
	assert.Equal(t, "a.catala_fr:10", got.Entries[0].Location)
	assert.Equal(t, "[-a-]{+b+}", got.Entries[0].Diff)
	assert.Equal(t, "1", got.Entries[0].LocalDigest)
}
