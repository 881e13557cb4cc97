package render

import (
	"image"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/guidoenr/vaporwall/internal/scene"
)

// Frame is a terminal preview: one string per character row plus a status
// line.
type Frame struct {
	Lines  []string
	Status string
}

const halfBlock = "▀"

var (
	resetANSI = "\x1b[0m"
	fgANSI    [256]string
	bgANSI    [256]string
)

func init() {
	for i := range fgANSI {
		fgANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
		bgANSI[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

// ANSIEncoder downsamples frames into 256-colour half-block text. Each
// character cell carries two vertical pixels.
type ANSIEncoder struct {
	small         *image.RGBA
	statusBuilder strings.Builder
}

// Encode converts img into cols x rows character cells.
func (e *ANSIEncoder) Encode(img *image.RGBA, cols, rows int) Frame {
	if img == nil || cols <= 0 || rows <= 0 {
		return Frame{}
	}
	bounds := image.Rect(0, 0, cols, rows*2)
	if e.small == nil || e.small.Bounds() != bounds {
		e.small = image.NewRGBA(bounds)
	}
	xdraw.ApproxBiLinear.Scale(e.small, bounds, img, img.Bounds(), xdraw.Src, nil)

	lines := make([]string, rows)
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > rows {
		numWorkers = rows
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	rowJobs := make(chan int, numWorkers)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rowJobs {
				var builder strings.Builder
				builder.Grow(cols * 24)
				lastFg, lastBg := -1, -1
				for x := 0; x < cols; x++ {
					fg := pixelANSI(e.small, x, y*2)
					bg := pixelANSI(e.small, x, y*2+1)
					if fg != lastFg {
						builder.WriteString(fgANSI[fg])
						lastFg = fg
					}
					if bg != lastBg {
						builder.WriteString(bgANSI[bg])
						lastBg = bg
					}
					builder.WriteString(halfBlock)
				}
				builder.WriteString(resetANSI)
				lines[y] = builder.String()
			}
		}()
	}
	for y := 0; y < rows; y++ {
		rowJobs <- y
	}
	close(rowJobs)
	wg.Wait()

	return Frame{Lines: lines}
}

// pixelANSI maps a premultiplied pixel onto the 256-colour palette.
func pixelANSI(img *image.RGBA, x, y int) int {
	o := img.PixOffset(x, y)
	p := img.Pix[o : o+4 : o+4]
	return rgbToANSI(float64(p[0])/255, float64(p[1])/255, float64(p[2])/255)
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// Grayscale ramp for near-neutral pixels
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

// Status summarises the live signals for the preview footer.
func (e *ANSIEncoder) Status(st *scene.State, audioMode string, stopped bool, fps float64) string {
	builder := &e.statusBuilder
	builder.Reset()
	builder.Grow(128)
	builder.WriteString("VAPORWALL | audio=")
	builder.WriteString(audioMode)
	if stopped {
		builder.WriteString(" (stopped)")
	}
	builder.WriteString(" bg=")
	builder.WriteString(string(st.Params.Mode))
	builder.WriteString(" | level ")
	appendFloat(builder, st.Signals.Level, 2)
	builder.WriteString(" beat ")
	appendFloat(builder, st.Signals.Beat, 2)
	builder.WriteString(" energy ")
	appendFloat(builder, st.Signals.Energy, 2)
	builder.WriteString(" fps ")
	appendFloat(builder, fps, 1)
	return builder.String()
}

func appendFloat(builder *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b := strconv.AppendFloat(buf[:0], value, 'f', precision, 64)
	builder.Write(b)
}
