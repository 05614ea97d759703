// Package wdiff renders word-level differences in the format of
// git diff --word-diff, with optional colors as in --color-words.
package wdiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fwojciec/catleg"
	"github.com/pmezard/go-difflib/difflib"
)

// ANSI escape sequences used in colored output, matching git defaults.
const (
	colorReset = "\x1b[m"
	colorFrag  = "\x1b[36m"
	colorOld   = "\x1b[31m"
	colorNew   = "\x1b[32m"
)

const newline = "\n"

// Ensure Differ implements catleg.Differ.
var _ catleg.Differ = (*Differ)(nil)

// Differ computes word diffs.
type Differ struct {
	// Color marks changes with ANSI colors instead of [-…-] and {+…+}.
	Color bool
}

// NewDiffer creates a Differ.
func NewDiffer(color bool) *Differ {
	return &Differ{Color: color}
}

// WordDiff implements catleg.Differ.
func (d *Differ) WordDiff(local, ref string, lineOffset int) ([]byte, bool) {
	a, b := trimLineEnds(local), trimLineEnds(ref)
	if a == b {
		return nil, false
	}

	aw, bw := words(a), words(b)
	m := difflib.NewMatcherWithJunk(aw, bw, false, nil)

	var buf bytes.Buffer
	d.header(&buf, lineOffset, lineCount(a), lineCount(b))
	w := &writer{buf: &buf, lineStart: true}
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			w.words(bw[op.J1:op.J2])
		case 'd':
			w.change(aw[op.I1:op.I2], d.marks(false), true)
		case 'i':
			w.change(bw[op.J1:op.J2], d.marks(true), true)
		case 'r':
			w.change(aw[op.I1:op.I2], d.marks(false), true)
			w.change(bw[op.J1:op.J2], d.marks(true), false)
		}
	}
	if !w.lineStart {
		buf.WriteString(newline)
	}
	return buf.Bytes(), true
}

func (d *Differ) header(buf *bytes.Buffer, offset, oldLines, newLines int) {
	h := fmt.Sprintf("@@ -%s +%s @@", hunkRange(offset+1, oldLines), hunkRange(offset+1, newLines))
	if d.Color {
		h = colorFrag + h + colorReset
	}
	buf.WriteString(h + newline)
}

func hunkRange(start, n int) string {
	if n == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, n)
}

func (d *Differ) marks(insert bool) [2]string {
	switch {
	case d.Color && insert:
		return [2]string{colorNew, colorReset}
	case d.Color:
		return [2]string{colorOld, colorReset}
	case insert:
		return [2]string{"{+", "+}"}
	default:
		return [2]string{"[-", "-]"}
	}
}

type writer struct {
	buf       *bytes.Buffer
	lineStart bool
}

func (w *writer) words(ws []string) {
	for _, word := range ws {
		if word == newline {
			w.buf.WriteString(newline)
			w.lineStart = true
			continue
		}
		w.space()
		w.buf.WriteString(word)
	}
}

// change writes a run of removed or added words between marks. A change
// following another one without separator is written flush against it.
func (w *writer) change(ws []string, marks [2]string, separate bool) {
	if separate {
		w.space()
	}
	w.buf.WriteString(marks[0])
	first := true
	for _, word := range ws {
		if !first && word != newline {
			w.buf.WriteByte(' ')
		}
		w.buf.WriteString(word)
		first = word == newline
	}
	w.buf.WriteString(marks[1])
	w.lineStart = false
}

func (w *writer) space() {
	if !w.lineStart {
		w.buf.WriteByte(' ')
	}
	w.lineStart = false
}

// words splits text into words, keeping line breaks as tokens.
func words(text string) []string {
	var ws []string
	for i, line := range strings.Split(text, newline) {
		if i > 0 {
			ws = append(ws, newline)
		}
		ws = append(ws, strings.Fields(line)...)
	}
	return ws
}

func trimLineEnds(text string) string {
	lines := strings.Split(text, newline)
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Join(lines, newline)
}

func lineCount(text string) int {
	return strings.Count(text, newline) + 1
}
