package scene

import (
	"fmt"
	"math"
	"strings"
)

const (
	TickerLineCount  = 140
	TickerLineHeight = 14.0
	TickerScrollStep = 0.45

	tickerWrapMultiple = 4096
	tickerMaxColumns   = 38
)

var (
	tickerWords = []string{
		"SYNC", "VAPOR", "PULSE", "GRID", "SUNSET", "DRIFT", "ECHO", "NEON",
		"WAVE", "PALM", "MALL", "TAPE", "CHROME", "DREAM", "SIGNAL", "ORBIT",
		"PLAZA", "LASER", "SHUTTLE", "CASSETTE", "AQUA", "HORIZON",
	}
	tickerGlyphs = []rune("#%&*+=<>/\\|~^:;[]{}")
)

// GenerateTicker builds n reproducible pseudo-random lines of printable ASCII.
func GenerateTicker(seed uint64, n int) []string {
	if n <= 0 {
		n = TickerLineCount
	}
	rng := NewRand(seed ^ 0x7469636b)
	lines := make([]string, n)
	var b strings.Builder
	for i := range lines {
		b.Reset()
		tokens := 3 + rng.Intn(4)
		for t := 0; t < tokens; t++ {
			if t > 0 {
				b.WriteByte(' ')
			}
			switch rng.Intn(4) {
			case 0:
				fmt.Fprintf(&b, "0x%04X", rng.Intn(0x10000))
			case 1:
				b.WriteString(tickerWords[rng.Intn(len(tickerWords))])
			case 2:
				run := 2 + rng.Intn(5)
				for k := 0; k < run; k++ {
					b.WriteRune(tickerGlyphs[rng.Intn(len(tickerGlyphs))])
				}
			default:
				fmt.Fprintf(&b, "%02d.%02d", rng.Intn(100), rng.Intn(100))
			}
		}
		line := b.String()
		if len(line) > tickerMaxColumns {
			line = line[:tickerMaxColumns]
		}
		lines[i] = line
	}
	return lines
}

// TickerContentHeight is the scrollable height of the given lines in pixels.
func TickerContentHeight(lines []string) float64 {
	return float64(len(lines)) * TickerLineHeight
}

// advanceTicker moves the scroll offset forward, wrapping at a large multiple
// of the content height.
func advanceTicker(offset float64, lines []string) float64 {
	offset += TickerScrollStep
	wrap := TickerContentHeight(lines) * tickerWrapMultiple
	if wrap > 0 && offset >= wrap {
		offset = math.Mod(offset, wrap)
	}
	return offset
}
