package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"tacticboard/internal/annotation"
	"tacticboard/internal/field"
	"tacticboard/internal/perspective"
	"tacticboard/internal/viewmodel"
)

var perspectiveButtons = []struct{ op, label string }{
	{"rotate-left", "Rotate left"},
	{"rotate-right", "Rotate right"},
	{"tilt-up", "Tilt up"},
	{"tilt-down", "Tilt down"},
	{"zoom-in", "Zoom in"},
	{"zoom-out", "Zoom out"},
	{"reset", "Reset view"},
}

var markerTypes = []field.MarkerType{field.MarkerCircle, field.MarkerShirt}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ContainerStyle sizes the pitch container and makes it the perspective
// parent of the pitch plane. The distance is the one the projection uses.
func ContainerStyle(vp field.Viewport) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("width:%spx;height:%spx;perspective:%spx;perspective-origin:50%% 50%%",
		num(vp.Width), num(vp.Height), num(perspective.PerspectiveDistance)))
}

// PitchStyle is the transform of the pitch plane about its centre.
func PitchStyle(v field.View) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("transform:%s;transform-origin:50%% 50%%;background-color:%s", v.Transform, v.FieldColor))
}

// MarkerStyle centres the marker on its projected point. Sizes follow the
// marker's depth so nearer players draw larger.
func MarkerStyle(m field.Marker) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("left:%spx;top:%spx;width:%spx;height:%spx;font-size:%spx",
		num(m.Screen.X), num(m.Screen.Y), num(m.Size), num(m.Size), num(m.Size*0.42)))
}

func zoneStyle(z annotation.Zone) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("left:%s%%;top:%s%%;width:%s%%;height:%s%%", num(z.Left), num(z.Top), num(z.Width), num(z.Height)))
}

func menuStyle(data viewmodel.MenuFragment) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("left:%spx;top:%spx", num(data.X), num(data.Y)))
}

func viewBox(vp field.Viewport) string {
	return "0 0 " + num(vp.Width) + " " + num(vp.Height)
}

// connector is a waypoint line trimmed to the edge of its target marker.
type connector struct {
	index          int
	x1, y1, x2, y2 string
}

func connectors(v field.View) []connector {
	out := make([]connector, 0, len(v.Segments))
	for _, s := range v.Segments {
		x1, y1, x2, y2 := v.Ends(s)
		out = append(out, connector{index: s.Index, x1: num(x1), y1: num(y1), x2: num(x2), y2: num(y2)})
	}
	return out
}

func readout(data viewmodel.ToolbarFragment) string {
	return "rotation " + trim(data.Rotation) + "°, tilt " + trim(data.Tilt) + "°, zoom " + trim(data.Zoom) + "x"
}

func trim(v float64) string {
	s := num(v)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
