package mock

import "github.com/fwojciec/catleg"

var _ catleg.Converter = (*Converter)(nil)

// Converter is a mock implementation of catleg.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ catleg.Formatter = (*Formatter)(nil)

// Formatter is a mock implementation of catleg.Formatter.
type Formatter struct {
	FormatFn func(markdown string) (string, error)
}

func (f *Formatter) Format(markdown string) (string, error) {
	return f.FormatFn(markdown)
}
