package app

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// profiler appends per-section frame timings as CSV and logs the mean of
// each section when closed. A nil profiler is a no-op.
type profiler struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	start  time.Time
	last   time.Time
	frames int
	totals map[string]float64
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("profiler disabled: %v", err)
		}
		return nil
	}
	p := &profiler{
		file:   f,
		logger: logger,
		totals: make(map[string]float64),
	}
	fmt.Fprintln(p.file, "timestamp,frame,section,delta_ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	p.start = now
	p.last = now
	p.frames++
}

// markSection records the time since the previous mark.
func (p *profiler) markSection(name string) {
	if p == nil {
		return
	}
	now := time.Now()
	delta := now.Sub(p.last).Seconds() * 1000
	p.last = now
	p.record(name, delta)
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	p.record("frame_total", time.Since(p.start).Seconds()*1000)
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	if p.logger != nil && p.frames > 0 {
		names := make([]string, 0, len(p.totals))
		for name := range p.totals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p.logger.Printf("profile %s: %.3f ms/frame over %d frames", name, p.totals[name]/float64(p.frames), p.frames)
		}
	}
	err := p.file.Close()
	p.file = nil
	return err
}

func (p *profiler) record(section string, deltaMs float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return
	}
	p.totals[section] += deltaMs
	timestamp := time.Now().Format(time.RFC3339Nano)
	fmt.Fprintf(p.file, "%s,%d,%s,%.3f\n", timestamp, p.frames, section, deltaMs)
}
