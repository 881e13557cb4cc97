package display

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/guidoenr/vaporwall/internal/render"
)

const (
	cellWidth  = 4
	cellHeight = 8
)

// Terminal previews a single surface as half-block ANSI art on the
// controlling terminal.
type Terminal struct {
	out     *bufio.Writer
	fd      int
	cols    int
	rows    int
	surface Surface
	enc     render.ANSIEncoder
	status  string
	pending []Event
	started bool
}

// NewTerminal sizes the preview to the terminal, falling back to the
// configured logical size when the output is not a terminal.
func NewTerminal(cfg Config) *Terminal {
	t := &Terminal{out: bufio.NewWriterSize(cfg.Out, 1<<16), fd: -1}
	if f, ok := cfg.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
	}
	cols, rows := max(1, cfg.Width/cellWidth), max(2, cfg.Height/cellHeight+1)
	if w, h, ok := t.size(); ok {
		cols, rows = w, h
	}
	t.setGrid(cols, rows)
	return t
}

func (t *Terminal) size() (int, int, bool) {
	if t.fd < 0 {
		return 0, 0, false
	}
	w, h, err := term.GetSize(t.fd)
	if err != nil || w <= 0 || h <= 1 {
		return 0, 0, false
	}
	return w, h, true
}

// setGrid reserves the last row for the status bar.
func (t *Terminal) setGrid(cols, rows int) {
	t.cols, t.rows = cols, rows
	t.surface = Surface{
		ID:     0,
		Name:   "terminal",
		Width:  cols * cellWidth,
		Height: (rows - 1) * cellHeight,
	}
}

// Surfaces implements Backend.
func (t *Terminal) Surfaces() []Surface { return []Surface{t.surface} }

// Present implements Backend.
func (t *Terminal) Present(surface int, frame *image.RGBA) error {
	if surface != 0 {
		return ErrUnknownSurface
	}
	if !t.started {
		enterAltScreen(t.out)
		clearScreen(t.out)
		hideCursor(t.out)
		t.started = true
	}
	if w, h, ok := t.size(); ok && (w != t.cols || h != t.rows) {
		t.setGrid(w, h)
		clearScreen(t.out)
		t.pending = append(t.pending, Event{
			Kind:   EventResize,
			Width:  t.surface.Width,
			Height: t.surface.Height,
		})
	}

	f := t.enc.Encode(frame, t.cols, t.rows-1)
	moveCursorHome(t.out)
	for _, line := range f.Lines {
		t.out.WriteString(line)
		t.out.WriteString("\r\n")
	}
	t.out.WriteString(statusBar(t.status, t.cols))
	return t.out.Flush()
}

// SetStatus implements Backend.
func (t *Terminal) SetStatus(text string) { t.status = text }

// Poll implements Backend. Keyboard input is read by the app itself.
func (t *Terminal) Poll() []Event {
	out := t.pending
	t.pending = nil
	return out
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	if !t.started {
		return nil
	}
	showCursor(t.out)
	exitAltScreen(t.out)
	t.started = false
	return t.out.Flush()
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	if len(text) >= width {
		return text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J")
	moveCursorHome(w)
}

func moveCursorHome(w io.Writer) {
	fmt.Fprint(w, "\x1b[H")
}

func hideCursor(w io.Writer) {
	fmt.Fprint(w, "\x1b[?25l")
}

func showCursor(w io.Writer) {
	fmt.Fprint(w, "\x1b[?25h")
}

func enterAltScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[?1049h")
}

func exitAltScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[?1049l\x1b[0m")
}
