package export

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type pt struct {
	X, Y float64
}

// canvas paints anti-aliased polygons onto an RGBA image. Every shape is
// clipped to the image, then rasterized inside its own bounding box.
type canvas struct {
	img *image.RGBA
	z   vector.Rasterizer
}

func newCanvas(w, h int, bg color.Color) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	return &canvas{img: img}
}

func (c *canvas) fill(poly []pt, col color.Color) {
	b := c.img.Bounds()
	poly = clipPolygon(poly, float64(b.Dx()), float64(b.Dy()))
	if len(poly) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).Intersect(b)
	if r.Empty() {
		return
	}
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	c.z.Reset(r.Dx(), r.Dy())
	c.z.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
	for _, p := range poly[1:] {
		c.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	c.z.ClosePath()
	c.z.Draw(c.img, r, image.NewUniform(col), image.Point{})
}

func (c *canvas) line(a, b pt, width float64, col color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	c.fill([]pt{{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny}, {b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny}}, col)
}

// polyline strokes pts, rounding the joints.
func (c *canvas) polyline(pts []pt, width float64, col color.Color, closed bool) {
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], width, col)
	}
	if closed && len(pts) > 2 {
		c.line(pts[len(pts)-1], pts[0], width, col)
	}
	if width > 2 {
		for _, p := range pts {
			c.disc(p, width/2, col)
		}
	}
}

func (c *canvas) disc(center pt, r float64, col color.Color) {
	c.fill(ellipse(center, r, r, 32), col)
}

func (c *canvas) ring(center pt, r, width float64, col color.Color) {
	c.polyline(ellipse(center, r, r, 48), width, col, true)
}

// text draws s centered on center with a glyph height of px pixels.
func (c *canvas) text(s string, center pt, px float64, col color.Color) {
	if s == "" || px <= 0 {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Metrics().Height.Ceil()
	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	k := px / float64(h)
	dw, dh := float64(w)*k, float64(h)*k
	dst := image.Rect(
		int(math.Round(center.X-dw/2)), int(math.Round(center.Y-dh/2)),
		int(math.Round(center.X+dw/2)), int(math.Round(center.Y+dh/2)),
	)
	xdraw.ApproxBiLinear.Scale(c.img, dst, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func ellipse(center pt, rx, ry float64, n int) []pt {
	out := make([]pt, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = pt{center.X + rx*math.Cos(a), center.Y + ry*math.Sin(a)}
	}
	return out
}

type clipEdge struct {
	vertical bool
	bound    float64
	keepLow  bool
}

func (e clipEdge) inside(p pt) bool {
	v := p.Y
	if e.vertical {
		v = p.X
	}
	if e.keepLow {
		return v <= e.bound
	}
	return v >= e.bound
}

func (e clipEdge) cross(a, b pt) pt {
	if e.vertical {
		t := (e.bound - a.X) / (b.X - a.X)
		return pt{e.bound, a.Y + t*(b.Y-a.Y)}
	}
	t := (e.bound - a.Y) / (b.Y - a.Y)
	return pt{a.X + t*(b.X-a.X), e.bound}
}

// clipPolygon keeps the part of poly inside [0,w]x[0,h] (Sutherland-Hodgman).
func clipPolygon(poly []pt, w, h float64) []pt {
	edges := []clipEdge{
		{vertical: true, bound: 0},
		{vertical: true, bound: w, keepLow: true},
		{vertical: false, bound: 0},
		{vertical: false, bound: h, keepLow: true},
	}
	for _, e := range edges {
		if len(poly) == 0 {
			return nil
		}
		out := make([]pt, 0, len(poly)+4)
		prev := poly[len(poly)-1]
		for _, cur := range poly {
			cin, pin := e.inside(cur), e.inside(prev)
			switch {
			case cin && !pin:
				out = append(out, e.cross(prev, cur), cur)
			case cin:
				out = append(out, cur)
			case pin:
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		poly = out
	}
	return poly
}

// parseColor reads the hex forms a snapshot may carry: #rgb, #rgba, #rrggbb
// and #rrggbbaa. Anything else yields fallback.
func parseColor(s string, fallback color.NRGBA) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 || len(s) == 4 {
		long := make([]byte, 0, 2*len(s))
		for i := 0; i < len(s); i++ {
			long = append(long, s[i], s[i])
		}
		s = string(long)
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func lighten(c color.NRGBA, amount float64) color.NRGBA {
	mix := func(v uint8) uint8 { return uint8(float64(v) + (255-float64(v))*amount) }
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}
