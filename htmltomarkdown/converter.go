// Package htmltomarkdown converts the HTML of Legifrance articles to Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/catleg"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Converter implements catleg.Converter at compile time.
var _ catleg.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
// Links are reduced to their text: references to other articles point to
// the Legifrance site and are noise in a Catala source.
type Converter struct {
	conv   *converter.Converter
	policy *bluemonday.Policy
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv, policy: articlePolicy()}
}

// articlePolicy keeps the structural markup of law texts. Elements it does
// not allow, anchors among them, are removed and their text kept.
func articlePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "div", "span",
		"b", "strong", "i", "em", "u", "sup", "sub",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
	)
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("start").OnElements("ol")
	return p
}

// Convert transforms an article HTML fragment into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", catleg.Errorf(catleg.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(c.policy.Sanitize(html))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}
