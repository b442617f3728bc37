package export

import (
	"bytes"
	"context"
	"image/color"
	"math"
	"sync/atomic"

	"tacticboard/internal/annotation"
	"tacticboard/internal/field"
	"tacticboard/internal/pitch"
)

// DefaultDeviceScale matches the headless browser's device pixel ratio.
const DefaultDeviceScale = 2.0

var (
	backgroundColor = color.NRGBA{0x0b, 0x12, 0x20, 0xff}
	lineColor       = color.NRGBA{0xff, 0xff, 0xff, 0xd9}
	zoneFill        = color.NRGBA{0xff, 0xff, 0xff, 0x14}
	zoneEdge        = color.NRGBA{0xff, 0xff, 0xff, 0x59}
	markerFill      = color.NRGBA{0x1d, 0x4e, 0xd8, 0xff}
	markerEdge      = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	selectedRing    = color.NRGBA{0xfa, 0xcc, 0x15, 0xff}
	waypointColor   = color.NRGBA{0xfa, 0xcc, 0x15, 0xe6}
	captainColor    = color.NRGBA{0xfa, 0xcc, 0x15, 0xff}
	yellowCard      = color.NRGBA{0xfd, 0xe0, 0x47, 0xff}
	redCard         = color.NRGBA{0xdc, 0x26, 0x26, 0xff}
	starColor       = color.NRGBA{0xf5, 0x9e, 0x0b, 0xff}
	textDark        = color.NRGBA{0x11, 0x18, 0x27, 0xff}
	fallbackField   = color.NRGBA{0x0d, 0x4b, 0x3e, 0xff}
)

// RasterEngine draws the resolved field view directly to pixels. It needs no
// external process, so every context is a fresh in-memory image.
type RasterEngine struct {
	inbox    *Inbox
	viewport field.Viewport
	scale    float64

	open atomic.Int64
}

// NewRasterEngine renders snapshots redeemed from inbox onto a pitch
// container of size vp, multiplied by scale (DefaultDeviceScale when <= 0).
func NewRasterEngine(inbox *Inbox, vp field.Viewport, scale float64) *RasterEngine {
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = field.DefaultViewport()
	}
	if scale <= 0 {
		scale = DefaultDeviceScale
	}
	return &RasterEngine{inbox: inbox, viewport: vp, scale: scale}
}

func (e *RasterEngine) Name() string { return "raster" }

// Open returns how many contexts are acquired and not yet closed.
func (e *RasterEngine) Open() int64 { return e.open.Load() }

func (e *RasterEngine) Acquire(ctx context.Context) (RenderContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.open.Add(1)
	return &rasterContext{engine: e}, nil
}

type rasterContext struct {
	engine *RasterEngine
	closed atomic.Bool
}

func (c *rasterContext) Render(ctx context.Context, req Request) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageNavigate}, Err: err}
	}
	snap, ok := c.engine.inbox.Take(req.Token)
	if !ok {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageNavigate}, Err: errSnapshotMissing}
	}

	view := field.Resolve(snap, c.engine.viewport)
	cv := paint(view, c.engine.scale)
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageReady, SnapshotReceived: true}, Err: err}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, cv.img, req.Format); err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageEncode, SnapshotReceived: true, Ready: true}, Err: err}
	}
	return buf.Bytes(), nil
}

func (c *rasterContext) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.engine.open.Add(-1)
	}
	return nil
}

// painter maps normalized pitch points through the view's perspective to
// output pixels.
type painter struct {
	cv    *canvas
	view  field.View
	rect  pitch.Rect
	scale float64
}

func paint(view field.View, scale float64) *canvas {
	w := int(math.Round(view.Viewport.Width * scale))
	h := int(math.Round(view.Viewport.Height * scale))
	p := painter{
		cv:    newCanvas(w, h, backgroundColor),
		view:  view,
		rect:  view.Viewport.Rect(),
		scale: scale,
	}
	p.pitch()
	p.zones()
	p.markings()
	p.segments()
	for _, m := range view.Markers {
		p.marker(m)
	}
	return p.cv
}

func (p *painter) at(x, y float64) pt {
	sp := p.view.Perspective.Project(pitch.Point{X: x, Y: y}, p.rect)
	return pt{sp.X * p.scale, sp.Y * p.scale}
}

func (p *painter) quad(left, top, width, height float64) []pt {
	return []pt{
		p.at(left, top), p.at(left+width, top),
		p.at(left+width, top+height), p.at(left, top+height),
	}
}

// lineWidth is a pitch line's width in output pixels.
func (p *painter) lineWidth() float64 {
	return 2 * p.scale * p.view.Perspective.Scale()
}

func (p *painter) pitch() {
	base := parseColor(p.view.FieldColor, fallbackField)
	p.cv.fill(p.quad(0, 0, 100, 100), base)
	stripe := lighten(base, 0.06)
	const bands = 10
	for i := 0; i < bands; i += 2 {
		p.cv.fill(p.quad(0, float64(i)*100/bands, 100, 100.0/bands), stripe)
	}
}

// Pitch markings on a 68 x 105 m pitch, as percentages of width and length.
const (
	centreRadiusX = 9.15 / 68 * 100
	centreRadiusY = 9.15 / 105 * 100
	boxWidth      = 40.32 / 68 * 100
	boxDepth      = 16.5 / 105 * 100
	goalAreaWidth = 18.32 / 68 * 100
	goalAreaDepth = 5.5 / 105 * 100
	spotDistance  = 11.0 / 105 * 100
)

func (p *painter) markings() {
	lw := p.lineWidth()
	p.cv.polyline(p.quad(0, 0, 100, 100), lw, lineColor, true)
	p.cv.line(p.at(0, 50), p.at(100, 50), lw, lineColor)

	circle := make([]pt, 48)
	for i := range circle {
		a := 2 * math.Pi * float64(i) / float64(len(circle))
		circle[i] = p.at(50+centreRadiusX*math.Cos(a), 50+centreRadiusY*math.Sin(a))
	}
	p.cv.polyline(circle, lw, lineColor, true)
	p.cv.disc(p.at(50, 50), lw*1.5, lineColor)

	for _, top := range []bool{true, false} {
		box := p.endBox(boxWidth, boxDepth, top)
		p.cv.polyline(box, lw, lineColor, false)
		goal := p.endBox(goalAreaWidth, goalAreaDepth, top)
		p.cv.polyline(goal, lw, lineColor, false)
		spotY := spotDistance
		if !top {
			spotY = 100 - spotDistance
		}
		p.cv.disc(p.at(50, spotY), lw*1.5, lineColor)
	}
}

// endBox is the three sides of a box standing on one goal line.
func (p *painter) endBox(width, depth float64, top bool) []pt {
	left, right := 50-width/2, 50+width/2
	line, inner := 0.0, depth
	if !top {
		line, inner = 100, 100-depth
	}
	return []pt{p.at(left, line), p.at(left, inner), p.at(right, inner), p.at(right, line)}
}

func (p *painter) zones() {
	draw := func(zones []annotation.Zone) {
		for i, z := range zones {
			if i%2 == 0 {
				p.cv.fill(p.quad(z.Left, z.Top, z.Width, z.Height), zoneFill)
			}
			p.cv.polyline(p.quad(z.Left, z.Top, z.Width, z.Height), p.lineWidth()/2, zoneEdge, true)
			p.cv.text(z.Name, p.at(z.Left+z.Width/2, z.Top+z.Height/2), 11*p.scale*p.view.Perspective.Scale(), zoneEdge)
		}
	}
	draw(p.view.HorizontalZones)
	draw(p.view.VerticalZones)
}

func (p *painter) screen(sp pt) pt {
	return pt{sp.X * p.scale, sp.Y * p.scale}
}

func (p *painter) segments() {
	for _, s := range p.view.Segments {
		x1, y1, x2, y2 := p.view.Ends(s)
		a := p.screen(pt{x1, y1})
		b := p.screen(pt{x2, y2})
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		ux, uy := dx/l, dy/l
		w := p.view.WaypointWidth() * p.scale
		p.cv.line(a, b, w, waypointColor)
		head := 4 * w
		p.cv.fill([]pt{
			b,
			{b.X - ux*head - uy*head/2, b.Y - uy*head + ux*head/2},
			{b.X - ux*head + uy*head/2, b.Y - uy*head - ux*head/2},
		}, waypointColor)
	}
}

func (p *painter) marker(m field.Marker) {
	c := p.screen(pt{m.Screen.X, m.Screen.Y})
	size := m.Size * p.scale
	r := size / 2

	if m.Selected {
		p.cv.ring(c, r+size*0.15, size*0.08, selectedRing)
	}
	switch p.view.MarkerType {
	case field.MarkerShirt:
		shirt := make([]pt, len(shirtOutline))
		for i, s := range shirtOutline {
			shirt[i] = pt{c.X + s.X*size, c.Y + s.Y*size}
		}
		p.cv.fill(shirt, markerFill)
		p.cv.polyline(shirt, size*0.05, markerEdge, true)
	default:
		p.cv.disc(c, r, markerEdge)
		p.cv.disc(c, r*0.88, markerFill)
	}
	p.cv.text(m.Label, c, size*0.42, markerEdge)

	if p.view.ShowLabels {
		p.cv.text(m.Name, pt{c.X, c.Y + r + size*0.3}, size*0.34, markerEdge)
	}

	badge := size * 0.2
	if m.Captain {
		bc := pt{c.X + r*0.8, c.Y - r*0.8}
		p.cv.disc(bc, badge, captainColor)
		p.cv.text("C", bc, badge*1.4, textDark)
	}
	cardW, cardH := size*0.16, size*0.24
	cardX := c.X - r*0.95
	if m.Yellow {
		p.cv.fill(box(cardX, c.Y-r, cardW, cardH), yellowCard)
		cardX += cardW * 1.2
	}
	if m.Red {
		p.cv.fill(box(cardX, c.Y-r, cardW, cardH), redCard)
	}
	if m.Star {
		p.cv.fill(star(pt{c.X, c.Y - r - badge}, badge), starColor)
	}
}

// shirtOutline is a shirt silhouette in marker-size units, centred on the marker.
var shirtOutline = []pt{
	{-0.5, -0.28}, {-0.2, -0.45}, {-0.08, -0.45}, {0, -0.36}, {0.08, -0.45},
	{0.2, -0.45}, {0.5, -0.28}, {0.4, -0.08}, {0.26, -0.16}, {0.26, 0.45},
	{-0.26, 0.45}, {-0.26, -0.16}, {-0.4, -0.08},
}

func box(x, y, w, h float64) []pt {
	return []pt{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func star(c pt, r float64) []pt {
	out := make([]pt, 10)
	for i := range out {
		radius := r
		if i%2 == 1 {
			radius = r * 0.45
		}
		a := -math.Pi/2 + math.Pi*float64(i)/5
		out[i] = pt{c.X + radius*math.Cos(a), c.Y + radius*math.Sin(a)}
	}
	return out
}
