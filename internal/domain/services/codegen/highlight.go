package codegen

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Format selects how the generated source is presented.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatANSI Format = "ansi"
)

// HighlightStyle is the chroma style used for html and ansi output.
const HighlightStyle = "monokai"

var ErrUnknownFormat = errors.New("unknown code format")

// ParseFormat validates a format name; empty means text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatHTML, FormatANSI:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType returns the MIME type of output in f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Write renders Generate() to w in format f.
func Write(w io.Writer, f Format) error {
	source := Generate()
	if f == FormatText {
		_, err := io.WriteString(w, source)
		return err
	}

	formatterName := "terminal256"
	if f == FormatHTML {
		formatterName = "html"
	} else if f != FormatANSI {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	lexer := lexers.Get("tsx")
	if lexer == nil {
		lexer = lexers.Get("typescript")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("failed to tokenise component: %w", err)
	}

	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get(HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	if err := formatter.Format(w, style, iterator); err != nil {
		return fmt.Errorf("failed to format component: %w", err)
	}
	return nil
}

// Render is Write into a string.
func Render(f Format) (string, error) {
	var b strings.Builder
	if err := Write(&b, f); err != nil {
		return "", err
	}
	return b.String(), nil
}
