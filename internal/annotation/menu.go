package annotation

import "tacticboard/internal/pitch"

// MenuOffset is the gap between a marker's right edge and the menu, in px.
const MenuOffset = 8.0

// Anchor is a screen-space position.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ContextMenu is the transient menu state. The anchor is derived from the
// rendered marker, so it has to be recomputed whenever the perspective changes.
type ContextMenu struct {
	Visible  bool   `json:"visible"`
	Anchor   Anchor `json:"anchor"`
	PlayerID int    `json:"playerId"`
}

// Open shows the menu next to playerID's marker. It stays closed if the
// marker cannot be located.
func (m *ContextMenu) Open(playerID int, geometry pitch.GeometryProvider) bool {
	anchor, ok := anchorFor(playerID, geometry)
	if !ok {
		m.Close()
		return false
	}
	m.Visible = true
	m.PlayerID = playerID
	m.Anchor = anchor
	return true
}

// Recompute refreshes the anchor from the live marker position. A menu whose
// marker has gone away is closed rather than left at a stale position.
func (m *ContextMenu) Recompute(geometry pitch.GeometryProvider) {
	if !m.Visible {
		return
	}
	anchor, ok := anchorFor(m.PlayerID, geometry)
	if !ok {
		m.Close()
		return
	}
	m.Anchor = anchor
}

// OutsideClick closes the menu.
func (m *ContextMenu) OutsideClick() {
	m.Close()
}

// Close hides the menu and forgets its target.
func (m *ContextMenu) Close() {
	*m = ContextMenu{}
}

func anchorFor(playerID int, geometry pitch.GeometryProvider) (Anchor, bool) {
	if geometry == nil {
		return Anchor{}, false
	}
	r, ok := geometry.MarkerRect(playerID)
	if !ok {
		return Anchor{}, false
	}
	_, cy := r.Center()
	return Anchor{X: r.Right() + MenuOffset, Y: cy}, true
}
