//go:build !sdl

package display

import "errors"

// ErrSDLUnavailable is returned when the binary was built without -tags sdl.
var ErrSDLUnavailable = errors.New("display: SDL backend not enabled; rebuild with -tags sdl")

// SupportsSDL reports whether the SDL backend was compiled in.
func SupportsSDL() bool { return false }

func openSDL(Config) (Backend, error) {
	return nil, ErrSDLUnavailable
}
