package pitch

// PointerEvent is a pointer position in viewport coordinates.
type PointerEvent struct {
	X float64 `json:"clientX"`
	Y float64 `json:"clientY"`
}

// DragController turns pointer moves into registry mutations.
type DragController struct {
	registry *Registry

	active   bool
	playerID int
	sticky   bool
	origin   Point
}

// NewDragController binds a controller to a registry.
func NewDragController(registry *Registry) *DragController {
	return &DragController{registry: registry}
}

// BeginDrag marks playerID as the drag target. In sticky mode the player
// snaps back to where it started when the drag ends.
func (d *DragController) BeginDrag(playerID int, sticky bool) {
	d.active = true
	d.playerID = playerID
	d.sticky = false
	d.origin = Point{}
	if sticky {
		if p, ok := d.registry.Get(playerID); ok {
			d.sticky = true
			d.origin = p.Point()
		}
	}
}

// Active returns the player currently being dragged.
func (d *DragController) Active() (int, bool) {
	return d.playerID, d.active
}

// OnPointerMove moves the active player under the pointer. It reports whether
// the registry changed; moves with no active drag, no container, or a target
// that has disappeared are dropped.
func (d *DragController) OnPointerMove(ev PointerEvent, geometry GeometryProvider) bool {
	if !d.active || geometry == nil {
		return false
	}
	container, ok := geometry.ContainerRect()
	if !ok {
		return false
	}
	p := ToNormalized(ev.X, ev.Y, container)
	return d.registry.Move(d.playerID, p.X, p.Y)
}

// EndDrag finishes the drag. It reports whether a sticky restore changed the registry.
func (d *DragController) EndDrag() bool {
	if !d.active {
		return false
	}
	restored := false
	if d.sticky {
		restored = d.registry.Move(d.playerID, d.origin.X, d.origin.Y)
	}
	d.active = false
	d.playerID = 0
	d.sticky = false
	d.origin = Point{}
	return restored
}
