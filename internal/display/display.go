// Package display provides drawable surfaces, one per physical display,
// and turns windowing input into surface-local events.
package display

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
)

var (
	// ErrQuit signals that the user closed the output.
	ErrQuit = errors.New("display: quit requested")
	// ErrUnknownSurface is returned when presenting to a surface that does not exist.
	ErrUnknownSurface = errors.New("display: unknown surface")
)

// Surface is one drawable region. Origin is its position on the virtual
// desktop; Width and Height are in surface pixels.
type Surface struct {
	ID     int
	Name   string
	Origin image.Point
	Width  int
	Height int
}

// EventKind classifies backend input.
type EventKind int

const (
	EventClick EventKind = iota
	EventResize
	EventKey
	EventQuit
)

// Event is backend input translated into surface-local terms.
type Event struct {
	Kind    EventKind
	Surface int
	X, Y    float64
	Width   int
	Height  int
	Key     rune
}

// Backend owns the surfaces. All methods are called from the render loop.
type Backend interface {
	Surfaces() []Surface
	Present(surface int, frame *image.RGBA) error
	SetStatus(text string)
	Poll() []Event
	Close() error
}

// Kind names a backend implementation.
type Kind string

const (
	KindTerminal Kind = "terminal"
	KindSDL      Kind = "sdl"
	KindHeadless Kind = "headless"
)

// ParseKind maps a flag value onto a backend kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindTerminal, KindSDL, KindHeadless:
		return k, nil
	case "":
		return KindTerminal, nil
	default:
		return "", fmt.Errorf("unknown display backend %q (terminal|sdl|headless)", name)
	}
}

// Config selects and sizes a backend.
type Config struct {
	Kind   Kind
	Width  int
	Height int
	Title  string
	Out    io.Writer
	Log    *log.Logger
}

// Open creates the configured backend.
func Open(cfg Config) (Backend, error) {
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 540
	}
	if cfg.Title == "" {
		cfg.Title = "vaporwall"
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}

	switch cfg.Kind {
	case KindSDL:
		return openSDL(cfg)
	case KindHeadless:
		return NewHeadless(image.Pt(cfg.Width, cfg.Height)), nil
	default:
		return NewTerminal(cfg), nil
	}
}
