package catleg

// Differ computes word-level differences between two normalized texts.
type Differ interface {
	// WordDiff renders the differences between local and ref. Reported line
	// numbers start at lineOffset+1. The boolean is false when the texts only
	// differ by end-of-line whitespace, in which case the diff is empty.
	WordDiff(local, ref string, lineOffset int) ([]byte, bool)
}

// DiffEntry reports an article whose local text differs from the reference.
type DiffEntry struct {
	ArticleID ArticleID `json:"articleId"`
	Path      string    `json:"path"`
	StartLine int       `json:"startLine"`
	Diff      []byte    `json:"-"`
	ExitCode  int       `json:"exitCode"`

	// Digests of the normalized texts, so that drift can be tracked across runs.
	LocalDigest     string `json:"localDigest"`
	ReferenceDigest string `json:"referenceDigest"`
}

// UnknownFile stands for the path of articles parsed from an unnamed source.
const UnknownFile = "<unknown file>"

// Location returns the "path:line" position of the entry, with a 1-based line.
func (e *DiffEntry) Location() string {
	path := e.Path
	if path == "" {
		path = UnknownFile
	}
	return path + ":" + itoa(e.StartLine+1)
}
