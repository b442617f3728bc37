package viewmodel

import (
	"tacticboard/internal/annotation"
	"tacticboard/internal/field"
)

// HomePage holds data for the landing page.
type HomePage struct {
	Title  string
	Boards []string
}

// EditorPage holds data for the board editor page.
type EditorPage struct {
	Title   string
	BoardID string
	Field   FieldFragment
	Menu    MenuFragment
	Toolbar ToolbarFragment
}

// FieldFragment holds data for the pitch and everything drawn on it.
type FieldFragment struct {
	BoardID  string
	View     field.View
	Editable bool
	Dragging int
	// RenderOnly drops the editor wiring: no pointer handlers, no menu.
	RenderOnly bool
}

// MenuFragment holds data for the player context menu.
type MenuFragment struct {
	BoardID    string
	Visible    bool
	PlayerID   int
	PlayerName string
	X          float64
	Y          float64
	Items      []annotation.MenuItem
}

// ToolbarFragment holds data for the controls beside the pitch.
type ToolbarFragment struct {
	BoardID         string
	Options         field.Options
	Formation       string
	Formations      []string
	Rotation        float64
	Tilt            float64
	Zoom            float64
	WaypointsMode   bool
	HorizontalZones bool
	VerticalZones   bool
}

// RenderPage holds data for the headless export view.
type RenderPage struct {
	Token string
	Field FieldFragment
	// SettleMs is how long the page waits after two animation frames before
	// it reports itself ready.
	SettleMs int
}
