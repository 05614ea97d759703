package mock

import "github.com/fwojciec/catleg"

var _ catleg.Differ = (*Differ)(nil)

// Differ is a mock implementation of catleg.Differ.
type Differ struct {
	WordDiffFn func(local, ref string, lineOffset int) ([]byte, bool)
}

func (d *Differ) WordDiff(local, ref string, lineOffset int) ([]byte, bool) {
	return d.WordDiffFn(local, ref, lineOffset)
}
