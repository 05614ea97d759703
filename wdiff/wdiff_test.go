package wdiff_test

import (
	"testing"

	"github.com/fwojciec/catleg/wdiff"
	"github.com/stretchr/testify/assert"
)

func TestDiffer_WordDiff(t *testing.T) {
	t.Parallel()

	t.Run("identical texts", func(t *testing.T) {
		t.Parallel()

		diff, changed := wdiff.NewDiffer(false).WordDiff("Les aides.", "Les aides.", 0)

		assert.False(t, changed)
		assert.Empty(t, diff)
	})

	t.Run("ignores whitespace at end of line", func(t *testing.T) {
		t.Parallel()

		diff, changed := wdiff.NewDiffer(false).WordDiff("Les aides. \nsuite", "Les aides.\nsuite\t", 0)

		assert.False(t, changed)
		assert.Empty(t, diff)
	})

	t.Run("replacement at line offset", func(t *testing.T) {
		t.Parallel()

		diff, changed := wdiff.NewDiffer(false).WordDiff("Les aides sont versées", "Les aides sont attribuées", 9)

		assert.True(t, changed)
		assert.Equal(t, "@@ -10 +10 @@\nLes aides sont [-versées-]{+attribuées+}\n", string(diff))
	})

	t.Run("deletion", func(t *testing.T) {
		t.Parallel()

		diff, _ := wdiff.NewDiffer(false).WordDiff("a b c", "a c", 0)

		assert.Equal(t, "@@ -1 +1 @@\na [-b-] c\n", string(diff))
	})

	t.Run("insertion of several words", func(t *testing.T) {
		t.Parallel()

		diff, _ := wdiff.NewDiffer(false).WordDiff("a d", "a b c d", 0)

		assert.Equal(t, "@@ -1 +1 @@\na {+b c+} d\n", string(diff))
	})

	t.Run("multi-line texts", func(t *testing.T) {
		t.Parallel()

		diff, _ := wdiff.NewDiffer(false).WordDiff("a\nb", "a\nc", 4)

		assert.Equal(t, "@@ -5,2 +5,2 @@\na\n[-b-]{+c+}\n", string(diff))
	})

	t.Run("colors", func(t *testing.T) {
		t.Parallel()

		diff, _ := wdiff.NewDiffer(true).WordDiff("a b", "a c", 0)

		assert.Equal(t, "\x1b[36m@@ -1 +1 @@\x1b[m\na \x1b[31mb\x1b[m\x1b[32mc\x1b[m\n", string(diff))
	})

	t.Run("long texts keep frequent words", func(t *testing.T) {
		t.Parallel()

		local := ""
		for range 300 {
			local += "de la "
		}
		ref := local + "fin"

		diff, changed := wdiff.NewDiffer(false).WordDiff(local, ref, 0)

		assert.True(t, changed)
		assert.Contains(t, string(diff), "{+fin+}")
		assert.NotContains(t, string(diff), "[-")
	})
}
