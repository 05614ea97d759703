package reconcile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/catleg"
)

// WriteDiffText writes each differing article as its identifier, its
// location and its word diff.
func WriteDiffText(w io.Writer, r *DiffResult) error {
	for i := range r.Entries {
		e := &r.Entries[i]
		if _, err := fmt.Fprintf(w, "%s\n%s\n", e.ArticleID, e.Location()); err != nil {
			return err
		}
		if _, err := w.Write(e.Diff); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiffSummary writes the number of differing articles, if any.
func WriteDiffSummary(w io.Writer, r *DiffResult) error {
	if len(r.Entries) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Found %d articles with diffs (out of %d articles)\n", len(r.Entries), r.Total)
	return err
}

type jsonEntry struct {
	catleg.DiffEntry
	Location string `json:"location"`
	Diff     string `json:"diff"`
}

type jsonReport struct {
	Total       int         `json:"total"`
	Differing   int         `json:"differing"`
	Unretrieved int         `json:"unretrieved"`
	Entries     []jsonEntry `json:"entries"`
}

// WriteDiffJSON writes the result as a JSON document.
func WriteDiffJSON(w io.Writer, r *DiffResult) error {
	report := jsonReport{
		Total:       r.Total,
		Differing:   len(r.Entries),
		Unretrieved: r.Unretrieved,
		Entries:     make([]jsonEntry, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		report.Entries = append(report.Entries, jsonEntry{DiffEntry: e, Location: e.Location(), Diff: string(e.Diff)})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
