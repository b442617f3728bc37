package perspective

import (
	"math"

	"tacticboard/internal/pitch"
)

// DefaultMarkerSize is the rendered marker diameter in px before transform.
const DefaultMarkerSize = 36.0

// ScreenPoint is a projected position in viewport pixels. Depth is the
// perspective divisor; values above 1 are nearer the viewer.
type ScreenPoint struct {
	X     float64
	Y     float64
	Depth float64
}

// Project maps a normalized pitch point to where it appears on screen when
// the pitch, laid out in container, is transformed by s.
func (s State) Project(p pitch.Point, container pitch.Rect) ScreenPoint {
	cx, cy := container.Center()
	px, py := pitch.ToPixel(p, container)
	x, y := px-cx, py-cy

	// The CSS transform list applies right to left: tilt, rotate, then scale.
	tilt := s.TiltAngle * math.Pi / 180
	y, z := y*math.Cos(tilt), y*math.Sin(tilt)

	rot := s.RotationAngle * math.Pi / 180
	x, y = x*math.Cos(rot)-y*math.Sin(rot), x*math.Sin(rot)+y*math.Cos(rot)

	// scale() is two-dimensional and leaves depth alone.
	scale := s.Scale()
	x, y = x*scale, y*scale

	w := 1 - z/PerspectiveDistance
	if w <= 0 {
		w = 1e-6
	}
	return ScreenPoint{X: cx + x/w, Y: cy + y/w, Depth: 1 / w}
}

// Bounds returns the screen bounding box of the transformed pitch, which is
// what a browser reports for the container's bounding rect.
func (s State) Bounds(container pitch.Rect) pitch.Rect {
	corners := []pitch.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		sp := s.Project(c, container)
		minX, maxX = math.Min(minX, sp.X), math.Max(maxX, sp.X)
		minY, maxY = math.Min(minY, sp.Y), math.Max(maxY, sp.Y)
	}
	return pitch.Rect{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// MarkerSize returns the on-screen diameter of a marker at the given depth.
func (s State) MarkerSize(base float64, depth float64) float64 {
	return base * s.Scale() * depth
}

// ProjectedGeometry answers geometry queries by computing the transformed
// layout instead of measuring a DOM.
type ProjectedGeometry struct {
	Container  pitch.Rect
	State      State
	Players    []pitch.Player
	MarkerSize float64
}

// ContainerRect implements pitch.GeometryProvider.
func (g ProjectedGeometry) ContainerRect() (pitch.Rect, bool) {
	if g.Container.Empty() {
		return pitch.Rect{}, false
	}
	return g.State.Bounds(g.Container), true
}

// MarkerRect implements pitch.GeometryProvider.
func (g ProjectedGeometry) MarkerRect(playerID int) (pitch.Rect, bool) {
	if g.Container.Empty() {
		return pitch.Rect{}, false
	}
	for _, p := range g.Players {
		if p.ID != playerID {
			continue
		}
		base := g.MarkerSize
		if base <= 0 {
			base = DefaultMarkerSize
		}
		sp := g.State.Project(p.Point(), g.Container)
		size := g.State.MarkerSize(base, sp.Depth)
		return pitch.Rect{Left: sp.X - size/2, Top: sp.Y - size/2, Width: size, Height: size}, true
	}
	return pitch.Rect{}, false
}
