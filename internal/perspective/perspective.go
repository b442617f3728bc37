// Package perspective holds the rotation, tilt and zoom applied to the whole
// pitch surface, and the projection that maps semantic pitch coordinates onto
// the transformed screen plane.
package perspective

import (
	"fmt"
	"math"
	"strconv"
)

const (
	RotationStep = 15.0
	TiltStep     = 5.0
	MinTilt      = 0.0
	MaxTilt      = 45.0

	// BaseScale fits the pitch inside its container before zoom is applied.
	BaseScale = 0.675
	// PerspectiveDistance is the CSS perspective of the pitch's parent, in px.
	PerspectiveDistance = 1000.0

	DefaultZoom = 1.0

	ladderEpsilon = 1e-9
)

// ZoomLadder lists the only zoom levels the steppers can reach, ascending.
var ZoomLadder = []float64{0.75, 1.0, 1.2}

// State is the perspective triple shared by the editor and the export view.
type State struct {
	RotationAngle float64 `json:"rotationAngle"`
	TiltAngle     float64 `json:"tiltAngle"`
	ZoomLevel     float64 `json:"zoomLevel"`
}

// Default returns the flat, unzoomed view.
func Default() State {
	return State{ZoomLevel: DefaultZoom}
}

// Reset returns to the default view.
func (s *State) Reset() {
	*s = Default()
}

// RotateLeft turns the pitch counter-clockwise by one step.
func (s *State) RotateLeft() {
	s.RotationAngle = wrapDegrees(s.RotationAngle - RotationStep)
}

// RotateRight turns the pitch clockwise by one step.
func (s *State) RotateRight() {
	s.RotationAngle = wrapDegrees(s.RotationAngle + RotationStep)
}

// TiltUp increases the tilt by one step, up to MaxTilt.
func (s *State) TiltUp() {
	s.TiltAngle = clampTilt(s.TiltAngle + TiltStep)
}

// TiltDown decreases the tilt by one step, down to MinTilt.
func (s *State) TiltDown() {
	s.TiltAngle = clampTilt(s.TiltAngle - TiltStep)
}

// ZoomIn moves one rung up the ladder. At the top it stays put.
func (s *State) ZoomIn() {
	for _, z := range ZoomLadder {
		if z > s.ZoomLevel+ladderEpsilon {
			s.ZoomLevel = z
			return
		}
	}
	s.ZoomLevel = ZoomLadder[len(ZoomLadder)-1]
}

// ZoomOut moves one rung down the ladder. At the bottom it stays put.
func (s *State) ZoomOut() {
	for i := len(ZoomLadder) - 1; i >= 0; i-- {
		if ZoomLadder[i] < s.ZoomLevel-ladderEpsilon {
			s.ZoomLevel = ZoomLadder[i]
			return
		}
	}
	s.ZoomLevel = ZoomLadder[0]
}

// OnLadder reports whether the zoom level is one of the supported rungs.
// Other values render, but only ladder values are guaranteed to match
// between the live view and the export.
func (s State) OnLadder() bool {
	for _, z := range ZoomLadder {
		if math.Abs(z-s.ZoomLevel) <= ladderEpsilon {
			return true
		}
	}
	return false
}

// Normalize brings externally supplied values into range: rotation wraps,
// tilt clamps, and a non-positive zoom falls back to the default.
func (s State) Normalize() State {
	s.RotationAngle = wrapDegrees(s.RotationAngle)
	s.TiltAngle = clampTilt(s.TiltAngle)
	if !(s.ZoomLevel > 0) || math.IsInf(s.ZoomLevel, 0) {
		s.ZoomLevel = DefaultZoom
	}
	return s
}

// Scale is the uniform scale applied before rotation.
func (s State) Scale() float64 {
	return BaseScale * s.ZoomLevel
}

// CSS renders the transform in the order both surfaces must apply it:
// scale, then rotate about Z, then tilt about X, anchored at the center.
func (s State) CSS() string {
	return fmt.Sprintf("scale(%s) rotateZ(%sdeg) rotateX(%sdeg)",
		formatFloat(s.Scale()), formatFloat(s.RotationAngle), formatFloat(s.TiltAngle))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func wrapDegrees(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	if v >= 360 {
		v -= 360
	}
	return v
}

func clampTilt(v float64) float64 {
	if math.IsNaN(v) || v < MinTilt {
		return MinTilt
	}
	if v > MaxTilt {
		return MaxTilt
	}
	return v
}
