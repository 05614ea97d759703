package catleg

import (
	"regexp"
	"strings"
)

// Authority identifies the issuing category of a legal identifier.
type Authority string

// Known article authorities. The set is closed: adding one requires a new
// routing rule in the reference backend.
const (
	// LEGIARTI identifies an article of a consolidated code or law.
	LEGIARTI Authority = "LEGIARTI"
	// CETATEXT identifies an administrative court decision.
	CETATEXT Authority = "CETATEXT"
	// JORFARTI identifies an article published in the official journal.
	JORFARTI Authority = "JORFARTI"
)

// Authorities lists the known article authorities.
func Authorities() []Authority {
	return []Authority{LEGIARTI, CETATEXT, JORFARTI}
}

// Valid reports whether a is one of the known authorities.
func (a Authority) Valid() bool {
	switch a {
	case LEGIARTI, CETATEXT, JORFARTI:
		return true
	}
	return false
}

const (
	authorityLen = 8
	codeLen      = 12
)

// ArticleID identifies a legislative article, e.g. LEGIARTI000038814944.
// ArticleID is an immutable value; the zero value means "no identifier".
type ArticleID struct {
	Authority Authority
	Code      string // always 12 digits
}

// String returns the canonical identifier, e.g. "LEGIARTI000038814944".
func (id ArticleID) String() string {
	if id.IsZero() {
		return ""
	}
	return string(id.Authority) + id.Code
}

// IsZero reports whether id is the zero identifier.
func (id ArticleID) IsZero() bool {
	return id.Authority == "" && id.Code == ""
}

// MarshalText implements encoding.TextMarshaler.
func (id ArticleID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ArticleID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ArticleID{}
		return nil
	}
	parsed, err := ParseArticleID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseArticleID parses an article identifier. Only the last dash-separated
// segment is considered, so anchors such as 'article-l822-2-legiarti000038814944'
// are accepted. The authority prefix is matched case-insensitively.
func ParseArticleID(s string) (ArticleID, error) {
	segment := s
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		segment = s[i+1:]
	}
	segment = strings.TrimSpace(segment)

	if len(segment) < authorityLen {
		return ArticleID{}, ErrInvalidIdentifier.Errorf("invalid article identifier %q", s)
	}
	authority := Authority(strings.ToUpper(segment[:authorityLen]))
	if !authority.Valid() {
		return ArticleID{}, ErrInvalidIdentifier.Errorf("unknown authority in article identifier %q", s)
	}
	code := segment[authorityLen:]
	if !isDigits(code, codeLen) {
		return ArticleID{}, ErrInvalidIdentifier.Errorf("article identifier %q must end with %d digits", s, codeLen)
	}
	return ArticleID{Authority: authority, Code: code}, nil
}

// MustParseArticleID is like ParseArticleID but panics on error.
// It is meant for constants in tests and examples.
func MustParseArticleID(s string) ArticleID {
	id, err := ParseArticleID(s)
	if err != nil {
		panic(err)
	}
	return id
}

var articleIDRe = regexp.MustCompile(`\b(LEGIARTI|CETATEXT|JORFARTI)([0-9]{12})\b`)

// FindArticleID returns the first article identifier found in text,
// e.g. in an '###### Article L841-1 | LEGIARTI000038814864' heading.
func FindArticleID(text string) (ArticleID, bool) {
	m := articleIDRe.FindStringSubmatch(text)
	if m == nil {
		return ArticleID{}, false
	}
	return ArticleID{Authority: Authority(m[1]), Code: m[2]}, true
}

// TextKind identifies the category of a law text identifier.
type TextKind string

// Known law text kinds.
const (
	// LEGITEXT identifies a consolidated code or law.
	LEGITEXT TextKind = "LEGITEXT"
	// JORFTEXT identifies a text as published in the official journal.
	JORFTEXT TextKind = "JORFTEXT"
)

var textIDRe = regexp.MustCompile(`(?i)\b(LEGITEXT|JORFTEXT)([0-9]{12})\b`)

// FindTextID returns the first law text identifier found in text,
// upper-cased, along with its kind.
func FindTextID(text string) (string, TextKind, bool) {
	m := textIDRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	kind := TextKind(strings.ToUpper(m[1]))
	return string(kind) + m[2], kind, true
}

// IsSectionID reports whether id identifies a section of a code (LEGISCTA).
func IsSectionID(id string) bool {
	return hasPrefixFold(id, "LEGISCTA")
}

// IsPublishedTextID reports whether id identifies an official journal text (JORFTEXT).
func IsPublishedTextID(id string) bool {
	return hasPrefixFold(id, string(JORFTEXT))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
