package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var face = basicfont.Face7x13

const (
	glyphWidth  = 7
	glyphHeight = 13
)

type maskKey struct {
	text  string
	scale int
}

// textCache keeps rasterized strings between frames. The ticker lines and
// clock glyphs repeat every frame so each is drawn once.
type textCache struct {
	masks map[maskKey]*image.Alpha
}

func newTextCache() *textCache {
	return &textCache{masks: make(map[maskKey]*image.Alpha)}
}

// mask returns the coverage of s at an integer scale factor.
func (c *textCache) mask(s string, scale int) *image.Alpha {
	scale = max(1, scale)
	key := maskKey{s, scale}
	if m, ok := c.masks[key]; ok {
		return m
	}
	m := rasterizeText(s)
	if scale > 1 {
		b := m.Bounds()
		big := image.NewAlpha(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		xdraw.BiLinear.Scale(big, big.Bounds(), m, b, xdraw.Src, nil)
		m = big
	}
	if len(c.masks) > 4096 {
		clear(c.masks)
	}
	c.masks[key] = m
	return m
}

func rasterizeText(s string) *image.Alpha {
	w := max(1, font.MeasureString(face, s).Ceil())
	dst := image.NewAlpha(image.Rect(0, 0, w, glyphHeight))
	d := font.Drawer{
		Dst:  dst,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)
	return dst
}

// textWidth is the advance of s in pixels at scale 1.
func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}
