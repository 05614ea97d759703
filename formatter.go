package catleg

import (
	"strconv"
	"strings"
)

// Formatter normalizes Markdown layout.
type Formatter interface {
	// Format rewraps Markdown to a fixed width, keeping list numbering.
	Format(markdown string) (string, error)
}

// Heading returns an ATX heading of the given level. Levels are not capped
// at 6: Catala sources nest headings as deep as the law text does.
func Heading(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// ArticleHeading returns the heading text of an article, e.g.
// "Article L841-1 | LEGIARTI000038814864".
func ArticleHeading(num, id string) string {
	return "Article " + num + " | " + id
}

func itoa(i int) string { return strconv.Itoa(i) }
