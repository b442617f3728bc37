package pitch

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContainer = Rect{Left: 100, Top: 50, Width: 800, Height: 500}

func TestToNormalized(t *testing.T) {
	tests := []struct {
		name   string
		px, py float64
		want   Point
	}{
		{name: "top left corner", px: 100, py: 50, want: Point{0, 0}},
		{name: "center", px: 500, py: 300, want: Point{50, 50}},
		{name: "bottom right corner", px: 900, py: 550, want: Point{100, 100}},
		{name: "far outside top left", px: 100 - 500, py: 50 - 500, want: Point{0, 0}},
		{name: "far outside bottom right", px: 5000, py: 5000, want: Point{100, 100}},
		{name: "mixed", px: -20, py: 175, want: Point{0, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNormalized(tt.px, tt.py, testContainer)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestToNormalized_EmptyRect(t *testing.T) {
	got := ToNormalized(10, 10, Rect{})
	assert.Equal(t, Point{}, got)
}

func TestToPixel_InvertsToNormalized(t *testing.T) {
	p := Point{X: 37.5, Y: 62.5}
	x, y := ToPixel(p, testContainer)
	back := ToNormalized(x, y, testContainer)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1))
	assert.Equal(t, 100.0, Clamp(101))
	assert.Equal(t, 42.0, Clamp(42))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 100.0, Clamp(math.Inf(1)))
}

func TestPlayer_DisplayDefaults(t *testing.T) {
	p := Player{ID: 3, Number: 7}
	assert.Equal(t, "Player 7", p.DisplayName())
	assert.Equal(t, "7", p.DisplayPosition())

	p.Name = "Winger"
	p.Position = "RWB"
	assert.Equal(t, "Winger", p.DisplayName())
	assert.Equal(t, "RW", p.DisplayPosition())
}

func TestJerseyNumber_AcceptsStringAndNumber(t *testing.T) {
	var players []Player
	err := json.Unmarshal([]byte(`[{"id":1,"x":50,"y":90,"name":"Keeper","number":"1"},{"id":2,"x":1,"y":2,"number":9}]`), &players)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, JerseyNumber(1), players[0].Number)
	assert.Equal(t, JerseyNumber(9), players[1].Number)

	out, err := json.Marshal(players[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"number":1`)

	err = json.Unmarshal([]byte(`{"id":1,"number":"ten"}`), &Player{})
	assert.Error(t, err)
}

func TestNewRegistry_SeedsFullLineup(t *testing.T) {
	r := NewRegistry()
	players := r.Players()
	require.Len(t, players, TeamSize)
	for i, p := range players {
		assert.Equal(t, i+1, p.ID)
		assert.Equal(t, JerseyNumber(i+1), p.Number)
		assert.GreaterOrEqual(t, p.X, MinCoord)
		assert.LessOrEqual(t, p.X, MaxCoord)
	}
	assert.Equal(t, Point{50, 90}, players[0].Point())
}

func TestRegistry_MoveClamps(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Move(5, -30, 140))
	p, ok := r.Get(5)
	require.True(t, ok)
	assert.Equal(t, Point{0, 100}, p.Point())

	assert.False(t, r.Move(99, 10, 10))
}

func TestRegistry_PlayersReturnsCopy(t *testing.T) {
	r := NewRegistry()
	players := r.Players()
	players[0].X = 3
	p, _ := r.Get(1)
	assert.NotEqual(t, 3.0, p.X)
}

func TestRegistry_CaptainQueries(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.HasCaptain())
	r.Update(4, func(p *Player) { p.IsCaptain = true })
	assert.True(t, r.HasCaptain())
	c, ok := r.Captain()
	require.True(t, ok)
	assert.Equal(t, 4, c.ID)
}

func TestRegistry_RemoveAndReplace(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Remove(2))
	assert.Equal(t, TeamSize-1, r.Len())
	_, ok := r.Get(2)
	assert.False(t, ok)
	assert.False(t, r.Remove(2))

	r.Replace([]Player{{ID: 1, X: 200, Y: -5, Number: 1}})
	p, _ := r.Get(1)
	assert.Equal(t, Point{100, 0}, p.Point())

	r.Reset()
	assert.Equal(t, TeamSize, r.Len())
}

func TestParseFormation(t *testing.T) {
	lines, err := ParseFormation("4-2-3-1")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 3, 1}, lines)

	for _, bad := range []string{"", "442", "4-4", "4-4-3", "a-b-c", "4--4-2", "4-0-6"} {
		_, err := ParseFormation(bad)
		assert.ErrorIs(t, err, ErrInvalidFormation, bad)
	}
	assert.True(t, ValidFormation("4-4"))
}

func TestRegistry_ApplyFormation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.ApplyFormation("4-3-3"))
	players := r.Players()
	assert.Equal(t, Point{50, 90}, players[0].Point())
	// the last three players form the front line
	for _, p := range players[8:] {
		assert.InDelta(t, attackTop, p.Y, 1e-9)
	}
	assert.Error(t, r.ApplyFormation("5-5-5"))
}

func TestDragController_ClampsAtExtremes(t *testing.T) {
	r := NewRegistry()
	d := NewDragController(r)
	geo := StaticGeometry{Container: testContainer}

	d.BeginDrag(7, false)
	moves := []PointerEvent{
		{X: testContainer.Left - 500, Y: testContainer.Top - 500},
		{X: 1e6, Y: -1e6},
		{X: 500, Y: 300},
		{X: -1e6, Y: 1e6},
	}
	for _, ev := range moves {
		require.True(t, d.OnPointerMove(ev, geo))
		p, _ := r.Get(7)
		assert.GreaterOrEqual(t, p.X, MinCoord)
		assert.LessOrEqual(t, p.X, MaxCoord)
		assert.GreaterOrEqual(t, p.Y, MinCoord)
		assert.LessOrEqual(t, p.Y, MaxCoord)
	}
	d.EndDrag()
	p, _ := r.Get(7)
	assert.Equal(t, Point{0, 100}, p.Point())
}

func TestDragController_TopLeftMinus500IsOrigin(t *testing.T) {
	r := NewRegistry()
	d := NewDragController(r)
	d.BeginDrag(1, false)
	d.OnPointerMove(PointerEvent{X: testContainer.Left - 500, Y: testContainer.Top - 500}, StaticGeometry{Container: testContainer})
	p, _ := r.Get(1)
	assert.Equal(t, Point{0, 0}, p.Point())
}

func TestDragController_IdleMoveIsNoop(t *testing.T) {
	r := NewRegistry()
	before := r.Players()
	d := NewDragController(r)
	assert.False(t, d.OnPointerMove(PointerEvent{X: 500, Y: 300}, StaticGeometry{Container: testContainer}))
	assert.Equal(t, before, r.Players())
}

func TestDragController_StickyRestoresOrigin(t *testing.T) {
	r := NewRegistry()
	d := NewDragController(r)
	origin, _ := r.Get(3)

	d.BeginDrag(3, true)
	d.OnPointerMove(PointerEvent{X: 500, Y: 300}, StaticGeometry{Container: testContainer})
	moved, _ := r.Get(3)
	assert.Equal(t, Point{50, 50}, moved.Point())

	assert.True(t, d.EndDrag())
	back, _ := r.Get(3)
	assert.Equal(t, origin.Point(), back.Point())
	_, active := d.Active()
	assert.False(t, active)
}

func TestDragController_RemovedTargetIsDropped(t *testing.T) {
	r := NewRegistry()
	d := NewDragController(r)
	d.BeginDrag(6, true)
	r.Remove(6)

	assert.False(t, d.OnPointerMove(PointerEvent{X: 500, Y: 300}, StaticGeometry{Container: testContainer}))
	assert.False(t, d.EndDrag())
	assert.Equal(t, TeamSize-1, r.Len())
}

func TestDragController_NoContainerIsNoop(t *testing.T) {
	r := NewRegistry()
	d := NewDragController(r)
	d.BeginDrag(2, false)
	assert.False(t, d.OnPointerMove(PointerEvent{X: 1, Y: 1}, StaticGeometry{}))
	assert.False(t, d.OnPointerMove(PointerEvent{X: 1, Y: 1}, nil))
}
