package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacticboard/internal/annotation"
	"tacticboard/internal/perspective"
	"tacticboard/internal/pitch"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		State:             perspective.State{RotationAngle: 30, TiltAngle: 20, ZoomLevel: 1.2},
		FieldColor:        "#0d4b3e",
		ShowPlayerLabels:  true,
		MarkerType:        MarkerShirt,
		IsWaypointsMode:   true,
		ShowVerticalZones: true,
		Players: []pitch.Player{
			{ID: 1, X: 50, Y: 90, Number: 1, Name: "Keeper", Position: "GK", IsCaptain: true},
			{ID: 2, X: 20, Y: 70, Number: 2, HasYellowCard: true},
			{ID: 3, X: 80, Y: 30, Number: 9, IsStarPlayer: true, HasRedCard: true},
		},
		Waypoints: []annotation.Waypoint{{From: 1, To: 2}, {From: 2, To: 3}},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := sampleSnapshot()
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DeterministicAfterRoundTrip(t *testing.T) {
	in := sampleSnapshot()
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)

	vp := DefaultViewport()
	if diff := cmp.Diff(Resolve(in, vp), Resolve(out, vp)); diff != "" {
		t.Errorf("resolved views differ (-want +got):\n%s", diff)
	}
}

func TestDecode_WireFieldNames(t *testing.T) {
	body := `{
		"rotationAngle": 0, "tiltAngle": 20, "zoomLevel": 1.0,
		"fieldColor": "#0d4b3e", "markerType": "circle", "showPlayerLabels": true,
		"isWaypointsMode": false, "showHorizontalZones": false, "showVerticalZones": false,
		"players": [{"id": 1, "x": 50, "y": 90, "name": "Keeper", "number": "1"}]
	}`
	s, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.TiltAngle)
	assert.Equal(t, 1.0, s.ZoomLevel)
	assert.Equal(t, MarkerCircle, s.MarkerType)
	require.Len(t, s.Players, 1)
	assert.Equal(t, pitch.JerseyNumber(1), s.Players[0].Number)
	require.NoError(t, s.Validate())

	_, err = Decode([]byte(`{"players": {}}`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestValidate(t *testing.T) {
	s := sampleSnapshot()
	require.NoError(t, s.Validate())

	bad := sampleSnapshot()
	bad.Players = nil
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSnapshot)

	bad = sampleSnapshot()
	bad.MarkerType = "triangle"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSnapshot)

	bad = sampleSnapshot()
	bad.FieldColor = "not a colour"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSnapshot)

	bad = sampleSnapshot()
	bad.Players = append(bad.Players, pitch.Player{ID: 1})
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSnapshot)
}

// Both renderers must paint the same colour, and the raster one reads hex only.
func TestValidate_FieldColorIsHex(t *testing.T) {
	for _, c := range []string{"#0d4b3e", "#0D4B3E", "#fff", ""} {
		s := sampleSnapshot()
		s.FieldColor = c
		assert.NoError(t, s.Validate(), c)
	}
	for _, c := range []string{"rgb(200,0,0)", "rgba(0,0,0,0.5)", "hsl(120,50%,30%)", "hsla(120,50%,30%,1)", "green", "#12345"} {
		s := sampleSnapshot()
		s.FieldColor = c
		assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot, c)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	s := Snapshot{
		State:   perspective.State{RotationAngle: 370, TiltAngle: -4},
		Players: []pitch.Player{{ID: 1, X: 120, Y: -3, Number: 1}},
	}
	n := s.Normalize()
	assert.Equal(t, DefaultFieldColor, n.FieldColor)
	assert.Equal(t, MarkerCircle, n.MarkerType)
	assert.Equal(t, perspective.State{RotationAngle: 10, TiltAngle: 0, ZoomLevel: 1}, n.State)
	assert.Equal(t, pitch.Point{X: 100, Y: 0}, n.Players[0].Point())
	// the input is left alone
	assert.Equal(t, 120.0, s.Players[0].X)
}

func TestNormalize_ShadowsPerspective(t *testing.T) {
	s := sampleSnapshot()
	s.RotationAngle = -90
	s.FieldColor = ""
	n := s.Normalize()
	assert.Equal(t, s.State.Normalize(), n.State)
	assert.Equal(t, 270.0, n.RotationAngle)
	assert.Equal(t, DefaultFieldColor, n.FieldColor)
	assert.Len(t, n.Players, len(s.Players))
}

func TestResolve_LabelsAndFlags(t *testing.T) {
	v := Resolve(sampleSnapshot(), DefaultViewport())
	require.Len(t, v.Markers, 3)

	assert.Equal(t, "GK", v.Markers[0].Label)
	assert.Equal(t, "Keeper", v.Markers[0].Name)
	assert.True(t, v.Markers[0].Captain)

	assert.Equal(t, "2", v.Markers[1].Label)
	assert.Equal(t, "Player 2", v.Markers[1].Name)
	assert.True(t, v.Markers[1].Yellow)

	assert.True(t, v.Markers[2].Star)
	assert.True(t, v.Markers[2].Red)

	assert.Equal(t, s.State.CSS(), v.Transform)
	assert.Contains(t, v.Transform, "rotateZ(30deg) rotateX(20deg)")
	assert.Equal(t, MarkerShirt, v.MarkerType)
	assert.Empty(t, v.HorizontalZones)
	assert.Len(t, v.VerticalZones, 5)
}

func TestResolve_SegmentsSkipMissingPlayers(t *testing.T) {
	s := sampleSnapshot()
	s.Waypoints = append(s.Waypoints, annotation.Waypoint{From: 3, To: 42})
	v := Resolve(s, DefaultViewport())
	require.Len(t, v.Segments, 2)
	assert.Equal(t, 0, v.Segments[0].Index)
	assert.Equal(t, 1, v.Segments[1].Index)
	assert.Equal(t, 50.0, v.Segments[0].X1)
	assert.Equal(t, 20.0, v.Segments[0].X2)

	m := v.Markers[0]
	assert.Equal(t, m.Screen, v.Segments[0].Screen1)
}

func TestResolve_ScreenPositionsUsePerspective(t *testing.T) {
	s := sampleSnapshot()
	vp := DefaultViewport()
	flat := s
	flat.State = perspective.Default()

	tilted := Resolve(s, vp)
	plain := Resolve(flat, vp)
	assert.NotEqual(t, tilted.Markers[0].Screen, plain.Markers[0].Screen)
	// semantic coordinates never depend on perspective
	assert.Equal(t, tilted.Markers[0].X, plain.Markers[0].X)
	assert.Equal(t, tilted.Markers[0].Y, plain.Markers[0].Y)
}

func TestView_Select(t *testing.T) {
	v := Resolve(sampleSnapshot(), DefaultViewport())
	v.Select(2)
	assert.False(t, v.Markers[0].Selected)
	assert.True(t, v.Markers[1].Selected)
}
