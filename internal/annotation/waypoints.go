package annotation

import "github.com/samber/lo"

// Waypoint is a connector drawn from one player marker to another.
type Waypoint struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Touches reports whether either end is playerID.
func (w Waypoint) Touches(playerID int) bool {
	return w.From == playerID || w.To == playerID
}

// WaypointTool runs the two-click protocol that creates waypoints:
// the first click selects a player, a click on the same player cancels,
// a click on another player emits a connector. Identical connectors may
// coexist and are removed by position.
type WaypointTool struct {
	enabled   bool
	selecting bool
	selected  int
	list      []Waypoint
}

// SetMode turns waypoint mode on or off. Any pending selection is dropped.
func (t *WaypointTool) SetMode(on bool) {
	t.enabled = on
	t.selecting = false
	t.selected = 0
}

// Enabled reports whether clicks are routed to the tool.
func (t *WaypointTool) Enabled() bool {
	return t.enabled
}

// Selected returns the pending first endpoint, if any.
func (t *WaypointTool) Selected() (int, bool) {
	return t.selected, t.selecting
}

// Click advances the protocol. It returns the new waypoint when one is emitted.
// Outside waypoint mode clicks are ignored.
func (t *WaypointTool) Click(playerID int) (Waypoint, bool) {
	if !t.enabled {
		return Waypoint{}, false
	}
	if !t.selecting {
		t.selecting = true
		t.selected = playerID
		return Waypoint{}, false
	}
	from := t.selected
	t.selecting = false
	t.selected = 0
	if from == playerID {
		return Waypoint{}, false
	}
	w := Waypoint{From: from, To: playerID}
	t.list = append(t.list, w)
	return w, true
}

// Waypoints returns a copy of the list in creation order.
func (t *WaypointTool) Waypoints() []Waypoint {
	return append([]Waypoint(nil), t.list...)
}

// Load replaces the list.
func (t *WaypointTool) Load(list []Waypoint) {
	t.list = append([]Waypoint(nil), list...)
}

// Remove deletes the waypoint at index.
func (t *WaypointTool) Remove(index int) bool {
	if index < 0 || index >= len(t.list) {
		return false
	}
	t.list = append(t.list[:index], t.list[index+1:]...)
	return true
}

// RemoveFor drops every connector touching playerID and cancels a pending
// selection of that player.
func (t *WaypointTool) RemoveFor(playerID int) int {
	kept := lo.Reject(t.list, func(w Waypoint, _ int) bool { return w.Touches(playerID) })
	removed := len(t.list) - len(kept)
	t.list = kept
	if t.selecting && t.selected == playerID {
		t.selecting = false
		t.selected = 0
	}
	return removed
}

// Clear removes every waypoint and any pending selection.
func (t *WaypointTool) Clear() {
	t.list = nil
	t.selecting = false
	t.selected = 0
}
