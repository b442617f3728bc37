// Package editor holds live editing sessions. A Board composes the player
// registry, drag controller, perspective, annotations and presentation
// options behind one mutex; the Store notifies subscribers when boards change.
package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"tacticboard/internal/annotation"
	"tacticboard/internal/field"
	"tacticboard/internal/perspective"
	"tacticboard/internal/pitch"
	"tacticboard/pkg/realtime"
)

// Event names published to board subscribers.
const (
	EventField   = "field"
	EventMenu    = "menu"
	EventOptions = "options"
)

var (
	ErrReadOnly        = errors.New("board is read-only")
	ErrMenuDisabled    = errors.New("context menu disabled")
	ErrMenuClosed      = errors.New("context menu not open")
	ErrUnknownOp       = errors.New("unknown perspective operation")
	ErrInvalidOptions  = errors.New("invalid options")
	ErrUnknownWaypoint = errors.New("unknown waypoint")
	ErrTwoCaptains     = errors.New("more than one captain")
)

// PerspectiveOp names one perspective control.
type PerspectiveOp string

const (
	OpRotateLeft  PerspectiveOp = "rotate-left"
	OpRotateRight PerspectiveOp = "rotate-right"
	OpTiltUp      PerspectiveOp = "tilt-up"
	OpTiltDown    PerspectiveOp = "tilt-down"
	OpZoomIn      PerspectiveOp = "zoom-in"
	OpZoomOut     PerspectiveOp = "zoom-out"
	OpReset       PerspectiveOp = "reset"
)

// Board is one editing session.
type Board struct {
	mu        sync.Mutex
	ID        string
	CreatedAt time.Time

	registry        *pitch.Registry
	drag            *pitch.DragController
	perspective     perspective.State
	menu            annotation.ContextMenu
	waypoints       annotation.WaypointTool
	horizontalZones bool
	verticalZones   bool
	options         field.Options
	viewport        field.Viewport
	formation       string

	frames realtime.FrameClock
}

// NewBoard returns a board with the default eleven, default perspective and
// default options.
func NewBoard(id string, frameInterval time.Duration) *Board {
	registry := pitch.NewRegistry()
	return &Board{
		ID:          id,
		CreatedAt:   time.Now().UTC(),
		registry:    registry,
		drag:        pitch.NewDragController(registry),
		perspective: perspective.Default(),
		options:     field.DefaultOptions(),
		viewport:    field.DefaultViewport(),
		formation:   pitch.DefaultFormation,
		frames:      realtime.NewFrameClock(frameInterval),
	}
}

// geometryLocked is the server-side answer to "where is everything on
// screen", used when the client did not measure for us.
func (b *Board) geometryLocked() pitch.GeometryProvider {
	return perspective.ProjectedGeometry{
		Container:  b.viewport.Rect(),
		State:      b.perspective,
		Players:    b.registry.Players(),
		MarkerSize: b.viewport.MarkerSize,
	}
}

// Geometry returns the projected geometry for the board's current layout.
func (b *Board) Geometry() pitch.GeometryProvider {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.geometryLocked()
}

// SetViewport records the client's untransformed pitch container size.
func (b *Board) SetViewport(vp field.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	if vp.MarkerSize <= 0 {
		vp.MarkerSize = perspective.DefaultMarkerSize
	}
	b.viewport = vp
	b.menu.Recompute(b.geometryLocked())
}

// BeginDrag starts dragging playerID.
func (b *Board) BeginDrag(playerID int, sticky bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.options.Editable {
		return ErrReadOnly
	}
	b.menu.Close()
	b.drag.BeginDrag(playerID, sticky)
	b.frames.Mark(EventMenu)
	return nil
}

// MoveDrag feeds one pointer move. geometry may be nil, in which case the
// board's projected geometry is used. It reports whether a player moved.
func (b *Board) MoveDrag(ev pitch.PointerEvent, geometry pitch.GeometryProvider) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if geometry == nil {
		geometry = b.geometryLocked()
	}
	moved := b.drag.OnPointerMove(ev, geometry)
	if moved {
		b.frames.Mark(EventField)
	}
	return moved
}

// EndDrag finishes the active drag.
func (b *Board) EndDrag() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag.EndDrag() {
		b.frames.Mark(EventField)
	}
}

// ApplyPerspective runs one perspective control. An open context menu
// follows its marker to the new position.
func (b *Board) ApplyPerspective(op PerspectiveOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch op {
	case OpRotateLeft:
		b.perspective.RotateLeft()
	case OpRotateRight:
		b.perspective.RotateRight()
	case OpTiltUp:
		b.perspective.TiltUp()
	case OpTiltDown:
		b.perspective.TiltDown()
	case OpZoomIn:
		b.perspective.ZoomIn()
	case OpZoomOut:
		b.perspective.ZoomOut()
	case OpReset:
		b.perspective.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	b.menu.Recompute(b.geometryLocked())
	b.frames.Mark(EventField)
	b.frames.Mark(EventMenu)
	return nil
}

// Perspective returns the current perspective.
func (b *Board) Perspective() perspective.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.perspective
}

// OpenMenu opens the context menu for playerID. A nil geometry uses the
// board's projected geometry.
func (b *Board) OpenMenu(playerID int, geometry pitch.GeometryProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.options.EnableContextMenu || !b.options.Editable {
		return ErrMenuDisabled
	}
	if geometry == nil {
		geometry = b.geometryLocked()
	}
	b.frames.Mark(EventMenu)
	if !b.menu.Open(playerID, geometry) {
		return fmt.Errorf("%w: %d", annotation.ErrUnknownPlayer, playerID)
	}
	return nil
}

// CloseMenu hides the context menu, as an outside click does.
func (b *Board) CloseMenu() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.menu.Visible {
		b.menu.OutsideClick()
		b.frames.Mark(EventMenu)
	}
}

// Menu returns the menu state and, while it is open, its items.
func (b *Board) Menu() (annotation.ContextMenu, []annotation.MenuItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.menu.Visible {
		return b.menu, nil
	}
	return b.menu, annotation.MenuItems(b.registry.Players(), b.menu.PlayerID)
}

// ApplyMenuAction applies action to the menu's player and closes the menu.
// A disabled action leaves the menu open and the registry unchanged.
func (b *Board) ApplyMenuAction(action annotation.Action) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.menu.Visible {
		return ErrMenuClosed
	}
	if err := annotation.Apply(b.registry, action, b.menu.PlayerID); err != nil {
		return err
	}
	b.menu.Close()
	b.frames.Mark(EventField)
	b.frames.Mark(EventMenu)
	return nil
}

// SetWaypointMode switches the waypoint tool on or off.
func (b *Board) SetWaypointMode(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waypoints.SetMode(on)
	b.frames.Mark(EventField)
}

// ClickPlayer feeds a marker click to the waypoint tool.
func (b *Board) ClickPlayer(playerID int) (annotation.Waypoint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.registry.Get(playerID); !ok {
		return annotation.Waypoint{}, false
	}
	w, emitted := b.waypoints.Click(playerID)
	b.frames.Mark(EventField)
	return w, emitted
}

// RemoveWaypoint deletes the connector at index.
func (b *Board) RemoveWaypoint(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.waypoints.Remove(index) {
		return fmt.Errorf("%w: %d", ErrUnknownWaypoint, index)
	}
	b.frames.Mark(EventField)
	return nil
}

// RemovePlayer takes a player off the pitch together with its connectors.
func (b *Board) RemovePlayer(playerID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.options.Editable {
		return ErrReadOnly
	}
	if !b.registry.Remove(playerID) {
		return fmt.Errorf("%w: %d", annotation.ErrUnknownPlayer, playerID)
	}
	b.waypoints.RemoveFor(playerID)
	b.menu.Recompute(b.geometryLocked())
	b.frames.Mark(EventField)
	return nil
}

// SetZones toggles the tactical zone overlays.
func (b *Board) SetZones(horizontal, vertical bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.horizontalZones = horizontal
	b.verticalZones = vertical
	b.frames.Mark(EventField)
}

// SetOptions replaces the presentation options.
func (b *Board) SetOptions(opts field.Options) error {
	if opts.FieldColor == "" {
		opts.FieldColor = field.DefaultFieldColor
	}
	if opts.MarkerType == "" {
		opts.MarkerType = field.MarkerCircle
	}
	check := field.Snapshot{
		FieldColor: opts.FieldColor,
		MarkerType: opts.MarkerType,
		Players:    []pitch.Player{{ID: 1}},
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.options = opts
	if !opts.EnableContextMenu || !opts.Editable {
		b.menu.Close()
	}
	if !opts.Editable {
		b.drag.EndDrag()
	}
	b.frames.Mark(EventOptions)
	b.frames.Mark(EventField)
	return nil
}

// Options returns the presentation options.
func (b *Board) Options() field.Options {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.options
}

// ApplyFormation lines the players up in formation.
func (b *Board) ApplyFormation(formation string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.options.Editable {
		return ErrReadOnly
	}
	if err := b.registry.ApplyFormation(formation); err != nil {
		return err
	}
	b.formation = formation
	b.menu.Recompute(b.geometryLocked())
	b.frames.Mark(EventField)
	return nil
}

// Formation returns the last formation applied.
func (b *Board) Formation() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.formation
}

// Reset restores the default eleven and view. Options survive.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drag.EndDrag()
	b.registry.Reset()
	b.perspective.Reset()
	b.menu.Close()
	b.waypoints.Clear()
	b.waypoints.SetMode(false)
	b.horizontalZones = false
	b.verticalZones = false
	b.formation = pitch.DefaultFormation
	b.frames.Mark(EventField)
	b.frames.Mark(EventMenu)
}

// Load replaces the board contents with a snapshot's.
func (b *Board) Load(s field.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if lo.CountBy(s.Players, func(p pitch.Player) bool { return p.IsCaptain }) > 1 {
		return ErrTwoCaptains
	}
	s = s.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.drag.EndDrag()
	b.registry.Replace(s.Players)
	b.perspective = s.State
	b.menu.Close()
	b.waypoints.Clear()
	b.waypoints.Load(s.Waypoints)
	b.waypoints.SetMode(s.IsWaypointsMode)
	b.horizontalZones = s.ShowHorizontalZones
	b.verticalZones = s.ShowVerticalZones
	b.options.FieldColor = s.FieldColor
	b.options.MarkerType = s.MarkerType
	b.options.ShowPlayerLabels = s.ShowPlayerLabels
	b.frames.Mark(EventField)
	b.frames.Mark(EventOptions)
	return nil
}

// Players returns a copy of the registry contents.
func (b *Board) Players() []pitch.Player {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Players()
}

// Snapshot captures everything a renderer needs. It is the only state that
// crosses into export.
func (b *Board) Snapshot() field.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() field.Snapshot {
	return field.Snapshot{
		State:               b.perspective,
		FieldColor:          b.options.FieldColor,
		ShowPlayerLabels:    b.options.ShowPlayerLabels,
		MarkerType:          b.options.MarkerType,
		IsWaypointsMode:     b.waypoints.Enabled(),
		ShowHorizontalZones: b.horizontalZones,
		ShowVerticalZones:   b.verticalZones,
		Players:             b.registry.Players(),
		Waypoints:           b.waypoints.Waypoints(),
	}
}

// State bundles everything the live editor renders.
type State struct {
	ID        string
	View      field.View
	Menu      annotation.ContextMenu
	MenuItems []annotation.MenuItem
	Options   field.Options
	Formation string
	Dragging  int
}

// State resolves the live view with the pending waypoint endpoint selected.
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	view := field.Resolve(b.snapshotLocked(), b.viewport)
	if id, ok := b.waypoints.Selected(); ok {
		view.Select(id)
	}
	st := State{
		ID:        b.ID,
		View:      view,
		Menu:      b.menu,
		Options:   b.options,
		Formation: b.formation,
	}
	if b.menu.Visible {
		st.MenuItems = annotation.MenuItems(b.registry.Players(), b.menu.PlayerID)
	}
	if id, ok := b.drag.Active(); ok {
		st.Dragging = id
	}
	return st
}

// NextFrame returns when pending notifications may be flushed; zero when
// nothing is pending.
func (b *Board) NextFrame(now time.Time) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, ok := b.frames.NextWake(now)
	if !ok {
		return time.Time{}
	}
	return next
}

// FlushFrame returns the events due at now and clears them.
func (b *Board) FlushFrame(now time.Time) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames.Advance(now)
}
