package pitch

import "math"

const (
	// MinCoord and MaxCoord bound the normalized pitch space (percent of width/height).
	MinCoord = 0.0
	MaxCoord = 100.0
)

// Point is a position in normalized pitch space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a bounding box in viewport (pixel) space, as reported by the
// rendering surface for the pitch container or a marker.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rect.
func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.Left + r.Width
}

// Empty reports whether the rect has no usable area.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Clamp bounds v to [MinCoord, MaxCoord]. NaN clamps to MinCoord.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < MinCoord {
		return MinCoord
	}
	if v > MaxCoord {
		return MaxCoord
	}
	return v
}

// ClampPoint clamps both axes.
func ClampPoint(p Point) Point {
	return Point{X: Clamp(p.X), Y: Clamp(p.Y)}
}

// ToNormalized converts a pointer position into normalized pitch coordinates
// relative to the container rect. The rect already reflects any transform
// applied to the container, so no un-rotation is done here: drags always move
// along the flat semantic pitch.
func ToNormalized(pointerX, pointerY float64, container Rect) Point {
	if container.Empty() {
		return Point{}
	}
	return Point{
		X: Clamp(100 * (pointerX - container.Left) / container.Width),
		Y: Clamp(100 * (pointerY - container.Top) / container.Height),
	}
}

// ToPixel maps a normalized point back into the container's pixel space.
func ToPixel(p Point, container Rect) (float64, float64) {
	return container.Left + p.X/100*container.Width, container.Top + p.Y/100*container.Height
}

// GeometryProvider answers bounding-box queries about the rendered pitch.
// In a browser these are DOM lookups; tests and headless consumers inject
// synthetic or computed boxes.
type GeometryProvider interface {
	ContainerRect() (Rect, bool)
	MarkerRect(playerID int) (Rect, bool)
}

// StaticGeometry is a GeometryProvider backed by fixed rects.
type StaticGeometry struct {
	Container Rect
	Markers   map[int]Rect
}

// ContainerRect implements GeometryProvider.
func (g StaticGeometry) ContainerRect() (Rect, bool) {
	return g.Container, !g.Container.Empty()
}

// MarkerRect implements GeometryProvider.
func (g StaticGeometry) MarkerRect(playerID int) (Rect, bool) {
	r, ok := g.Markers[playerID]
	return r, ok
}
