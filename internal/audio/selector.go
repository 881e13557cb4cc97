package audio

import (
	"io"
	"log"
	"slices"
	"sync"
)

// SelectorConfig lists the sources tried in fallback order. Nil capture
// sources are skipped; a nil Simulated source is replaced by the default one.
type SelectorConfig struct {
	System     Source
	Microphone Source
	Simulated  Source
	Sink       Sink
	Log        *log.Logger
}

// Selector runs the SystemAudio → Microphone → Simulated fallback chain and
// owns the active stream.
type Selector struct {
	chain []Source
	sink  Sink
	log   *log.Logger

	// switchMu serialises start, restart and stop so the previous stream is
	// fully torn down before the next one opens.
	switchMu sync.Mutex
	closed   bool

	mu        sync.Mutex
	mode      Mode
	stream    Stream
	active    bool
	gen       uint64
	observers []func(Mode)
}

// NewSelector builds a selector. The initial mode is SystemAudio; observers
// are only notified on transitions away from the current mode.
func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}
	if cfg.Sink == nil {
		cfg.Sink = SinkFunc(func(float64) {})
	}
	if cfg.Simulated == nil {
		cfg.Simulated = NewSimulatedSource()
	}
	chain := make([]Source, 0, 3)
	for _, src := range []Source{cfg.System, cfg.Microphone, cfg.Simulated} {
		if src != nil {
			chain = append(chain, src)
		}
	}
	return &Selector{
		chain: chain,
		sink:  cfg.Sink,
		log:   cfg.Log,
		mode:  SystemAudio,
	}
}

// OnModeChange registers fn to be called with every newly active mode. It is
// called after the switch completes, from the goroutine that ran it.
func (s *Selector) OnModeChange(fn func(Mode)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Mode returns the current mode.
func (s *Selector) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Active reports whether the current mode still has a running stream. It
// turns false when the stream stops on its own; the selector does not fall
// back further until Restart is called.
func (s *Selector) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start runs the fallback chain once and returns the resulting mode. It does
// nothing after Stop.
func (s *Selector) Start() Mode {
	s.switchMu.Lock()
	if s.closed {
		s.switchMu.Unlock()
		return s.Mode()
	}
	s.mu.Lock()
	running := s.stream != nil
	mode := s.mode
	s.mu.Unlock()
	if running {
		s.switchMu.Unlock()
		return mode
	}
	mode, changes := s.runChain()
	s.switchMu.Unlock()

	s.notify(changes)
	return mode
}

// Restart tears down the current stream and re-runs the chain from
// SystemAudio. It does nothing after Stop.
func (s *Selector) Restart() Mode {
	s.switchMu.Lock()
	if s.closed {
		s.switchMu.Unlock()
		return s.Mode()
	}
	s.teardown()
	s.log.Printf("audio restart requested")
	mode, changes := s.runChain()
	s.switchMu.Unlock()

	s.notify(changes)
	return mode
}

// Stop tears down the active stream and keeps later Start and Restart calls
// from opening a new one. Safe to call repeatedly.
func (s *Selector) Stop() error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.closed = true
	return s.teardown()
}

// runChain opens the first source that succeeds. It returns the modes entered
// on the way so observers can be called once switchMu is released.
func (s *Selector) runChain() (Mode, []Mode) {
	var changes []Mode
	for _, src := range s.chain {
		mode := src.Mode()
		if s.transition(mode) {
			changes = append(changes, mode)
		}

		stream, err := src.Open(s.sink)
		if err != nil {
			s.log.Printf("audio %s unavailable: %v", mode, err)
			continue
		}

		s.mu.Lock()
		s.gen++
		gen := s.gen
		s.stream = stream
		s.active = true
		s.mu.Unlock()

		go s.watch(gen, mode, stream)
		s.log.Printf("audio source active: %s", mode)
		return mode, changes
	}

	s.mu.Lock()
	s.active = false
	mode := s.mode
	s.mu.Unlock()
	s.log.Printf("audio: every source failed, staying in %s without a stream", mode)
	return mode, changes
}

func (s *Selector) transition(mode Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		return false
	}
	s.mode = mode
	return true
}

// notify runs observers outside switchMu, so they may call back into the selector.
func (s *Selector) notify(changes []Mode) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, mode := range changes {
		for _, fn := range observers {
			fn(mode)
		}
	}
}

func (s *Selector) watch(gen uint64, mode Mode, stream Stream) {
	<-stream.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.active = false
	s.log.Printf("audio %s stream stopped; holding last level until restart", mode)
}

func (s *Selector) teardown() error {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.active = false
	s.gen++
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Stop()
}
