package audio

import "sync"

// Mode identifies which source currently feeds the smoother.
type Mode int

const (
	SystemAudio Mode = iota
	Microphone
	Simulated
)

func (m Mode) String() string {
	switch m {
	case SystemAudio:
		return "system"
	case Microphone:
		return "microphone"
	case Simulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// Sink receives normalized levels from capture goroutines. Implementations
// must be safe for use from a goroutine other than the render loop.
type Sink interface {
	Push(level float64)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(level float64)

// Push calls f(level).
func (f SinkFunc) Push(level float64) { f(level) }

// Source opens capture streams for one Mode.
type Source interface {
	Mode() Mode
	Open(sink Sink) (Stream, error)
}

// Stream is an active capture. Stop must be idempotent and safe to call while
// a callback is in flight. Done is closed when the stream stops for any
// reason, including asynchronously from the capture side.
type Stream interface {
	Stop() error
	Done() <-chan struct{}
}

// lifecycle carries the stop/done bookkeeping shared by stream implementations.
type lifecycle struct {
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once
	doneOnce sync.Once
	wg       sync.WaitGroup
}

func newLifecycle() *lifecycle {
	return &lifecycle{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Done implements Stream.
func (l *lifecycle) Done() <-chan struct{} { return l.done }

// finish marks the stream as stopped without tearing anything down.
func (l *lifecycle) finish() {
	l.doneOnce.Do(func() { close(l.done) })
}

// shutdown signals workers, waits for them and marks the stream done. It
// reports whether this call performed the shutdown.
func (l *lifecycle) shutdown(teardown func()) bool {
	first := false
	l.quitOnce.Do(func() {
		first = true
		close(l.quit)
		if teardown != nil {
			teardown()
		}
		l.wg.Wait()
		l.finish()
	})
	return first
}
