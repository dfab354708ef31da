package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler implements the line-based interface: one raw trigger per input line,
// one state per output line.
type TextHandler struct {
	lines     *lineReader
	Writer    io.Writer
	ErrWriter io.Writer

	// StatusWriter receives a colored status line. Nil disables status output.
	StatusWriter *termenv.Output
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithErrorWriter sends rejections and errors to w instead of stderr.
func WithErrorWriter(w io.Writer) TextHandlerOption {
	return func(h *TextHandler) {
		h.ErrWriter = w
	}
}

// WithStatusOutput enables the status line on w using the given color profile.
func WithStatusOutput(w io.Writer, profile termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.StatusWriter = termenv.NewOutput(w, termenv.WithProfile(profile))
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		lines:     newLineReader(r),
		Writer:    w,
		ErrWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	text, err := h.lines.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (h *TextHandler) Output(ctx context.Context, out domain.Output) error {
	_, err := fmt.Fprintln(h.Writer, out.State)
	return err
}

func (h *TextHandler) Error(ctx context.Context, err error) error {
	_, werr := fmt.Fprintf(h.ErrWriter, "error: %v\n", err)
	return werr
}

func (h *TextHandler) Status(ctx context.Context, status domain.Status) error {
	if h.StatusWriter == nil {
		return nil
	}
	color := "2" // green
	if !status.OK() {
		color = "1" // red
	}
	dot := h.StatusWriter.String("●").Foreground(h.StatusWriter.Color(color))
	_, err := fmt.Fprintf(h.StatusWriter, "%s %s\n", dot, status.Text)
	return err
}
