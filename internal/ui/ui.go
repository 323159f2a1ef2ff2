// Package ui renders command output for terminals. Interactive
// terminals get styled headings and emphasis; pipes, CI, and NO_COLOR
// environments get the text unchanged.
package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// Writer writes command output to one destination, styling it when the
// destination is an interactive terminal.
type Writer struct {
	out    io.Writer
	styles Styles
	color  bool
}

// Option adjusts Writer construction.
type Option func(*writerOptions)

type writerOptions struct {
	noColor bool
}

// WithNoColor disables styling regardless of terminal detection.
func WithNoColor(noColor bool) Option {
	return func(o *writerOptions) {
		o.noColor = noColor
	}
}

// NewWriter creates a Writer for out. Styling turns on only for an
// interactive terminal outside CI with color not disabled.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	var o writerOptions
	for _, opt := range opts {
		opt(&o)
	}

	color := !o.noColor && !DetectNoColor() && !DetectCI() && IsTTY(out)
	return &Writer{
		out:    out,
		styles: GetStyles(!color),
		color:  color,
	}
}

// Printf writes formatted text without styling.
// Write errors are ignored for console output.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Println writes a line without styling.
func (w *Writer) Println(args ...any) {
	_, _ = fmt.Fprintln(w.out, args...)
}

// Successf writes a success line.
func (w *Writer) Successf(format string, args ...any) {
	w.writeLine(w.styles.Success, format, args...)
}

// Warningf writes a warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.writeLine(w.styles.Warning, format, args...)
}

// Errorf writes an error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.writeLine(w.styles.Error, format, args...)
}

// Dimf writes a secondary-text line.
func (w *Writer) Dimf(format string, args ...any) {
	w.writeLine(w.styles.Dim, format, args...)
}

func (w *Writer) writeLine(style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		msg = style.Render(msg)
	}
	_, _ = fmt.Fprintln(w.out, msg)
}

// boldSpan matches a markdown bold span on a single line.
var boldSpan = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// Block writes a markdown-shaped text block. In color mode headings
// lose their markers and gain styling, bold spans lose the asterisks,
// and code fence markers are dimmed; fenced content is never touched.
// In plain mode the block passes through unchanged.
func (w *Writer) Block(text string) {
	if !w.color {
		_, _ = fmt.Fprintln(w.out, text)
		return
	}

	inFence := false
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintln(w.out, w.styleLine(line, &inFence))
	}
}

func (w *Writer) styleLine(line string, inFence *bool) string {
	if strings.HasPrefix(strings.TrimSpace(line), "```") {
		*inFence = !*inFence
		return w.styles.Fence.Render(line)
	}
	if *inFence {
		return line
	}

	switch {
	case strings.HasPrefix(line, "## "):
		return w.styles.Section.Render(strings.TrimPrefix(line, "## "))
	case strings.HasPrefix(line, "# "):
		return w.styles.Title.Render(strings.TrimPrefix(line, "# "))
	}

	return boldSpan.ReplaceAllStringFunc(line, func(span string) string {
		return w.styles.Emphasis.Render(strings.Trim(span, "*"))
	})
}
