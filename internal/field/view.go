package field

import (
	"math"

	"tacticboard/internal/annotation"
	"tacticboard/internal/perspective"
	"tacticboard/internal/pitch"
)

// Viewport is the pitch container's layout size in px, before any transform.
type Viewport struct {
	Width      float64
	Height     float64
	MarkerSize float64
}

// DefaultViewport matches the pitch container of the editor page: a 68:105
// pitch standing upright, goals at the top and bottom.
func DefaultViewport() Viewport {
	return Viewport{Width: 680, Height: 1050, MarkerSize: perspective.DefaultMarkerSize}
}

// Rect returns the container rect at the origin.
func (v Viewport) Rect() pitch.Rect {
	return pitch.Rect{Width: v.Width, Height: v.Height}
}

// Marker is one resolved player token.
type Marker struct {
	ID       int
	Number   int
	Label    string
	Name     string
	X        float64
	Y        float64
	Screen   perspective.ScreenPoint
	Size     float64
	Captain  bool
	Yellow   bool
	Red      bool
	Star     bool
	Selected bool
}

// Segment is a resolved waypoint connector.
type Segment struct {
	Index   int
	From    int
	To      int
	X1, Y1  float64
	X2, Y2  float64
	Screen1 perspective.ScreenPoint
	Screen2 perspective.ScreenPoint
}

// View is the drawable form of a snapshot. Flat X/Y values are percentages
// of the untransformed pitch (for surfaces that apply Transform themselves);
// Screen values already have the perspective applied (for surfaces that draw
// pixels directly).
type View struct {
	Viewport        Viewport
	Perspective     perspective.State
	Transform       string
	FieldColor      string
	MarkerType      MarkerType
	ShowLabels      bool
	WaypointsMode   bool
	Markers         []Marker
	Segments        []Segment
	HorizontalZones []annotation.Zone
	VerticalZones   []annotation.Zone
}

// Resolve derives the drawable view from a snapshot. It is the only place
// label defaults and overlay geometry are decided, and it is a pure function
// of its inputs.
func Resolve(s Snapshot, vp Viewport) View {
	s = s.Normalize()
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = DefaultViewport()
	}
	if vp.MarkerSize <= 0 {
		vp.MarkerSize = perspective.DefaultMarkerSize
	}
	rect := vp.Rect()

	view := View{
		Viewport:      vp,
		Perspective:   s.State,
		Transform:     s.State.CSS(),
		FieldColor:    s.FieldColor,
		MarkerType:    s.MarkerType,
		ShowLabels:    s.ShowPlayerLabels,
		WaypointsMode: s.IsWaypointsMode,
		Markers:       make([]Marker, 0, len(s.Players)),
	}

	byID := make(map[int]pitch.Player, len(s.Players))
	for _, p := range s.Players {
		byID[p.ID] = p
		screen := s.State.Project(p.Point(), rect)
		view.Markers = append(view.Markers, Marker{
			ID:      p.ID,
			Number:  int(p.Number),
			Label:   p.DisplayPosition(),
			Name:    p.DisplayName(),
			X:       p.X,
			Y:       p.Y,
			Screen:  screen,
			Size:    s.State.MarkerSize(vp.MarkerSize, screen.Depth),
			Captain: p.IsCaptain,
			Yellow:  p.HasYellowCard,
			Red:     p.HasRedCard,
			Star:    p.IsStarPlayer,
		})
	}

	for i, w := range s.Waypoints {
		from, okFrom := byID[w.From]
		to, okTo := byID[w.To]
		if !okFrom || !okTo {
			continue
		}
		view.Segments = append(view.Segments, Segment{
			Index:   i,
			From:    w.From,
			To:      w.To,
			X1:      from.X,
			Y1:      from.Y,
			X2:      to.X,
			Y2:      to.Y,
			Screen1: s.State.Project(from.Point(), rect),
			Screen2: s.State.Project(to.Point(), rect),
		})
	}

	if s.ShowHorizontalZones {
		view.HorizontalZones = annotation.HorizontalZones()
	}
	if s.ShowVerticalZones {
		view.VerticalZones = annotation.VerticalZones()
	}
	return view
}

// Ends returns the on-screen endpoints of a connector, in container px. The
// line stops at the edge of the target marker so its arrow head stays visible.
func (v View) Ends(s Segment) (x1, y1, x2, y2 float64) {
	x1, y1 = s.Screen1.X, s.Screen1.Y
	x2, y2 = s.Screen2.X, s.Screen2.Y
	l := math.Hypot(x2-x1, y2-y1)
	r := v.Perspective.MarkerSize(v.Viewport.MarkerSize, s.Screen2.Depth) / 2
	if l > 2*r {
		x2 -= (x2 - x1) / l * r
		y2 -= (y2 - y1) / l * r
	}
	return x1, y1, x2, y2
}

// WaypointWidth is the stroke width of a connector in container px.
func (v View) WaypointWidth() float64 {
	return 3 * v.Perspective.Scale()
}

// Select marks the marker with id as the pending waypoint endpoint.
func (v *View) Select(id int) {
	for i := range v.Markers {
		v.Markers[i].Selected = v.Markers[i].ID == id
	}
}
