package field

// Options is the per-session presentation configuration. It is not stored
// with the players and resets when a session starts.
type Options struct {
	FieldColor        string     `json:"fieldColor"`
	MarkerType        MarkerType `json:"markerType"`
	ShowPlayerLabels  bool       `json:"showPlayerLabels"`
	EnableContextMenu bool       `json:"enableContextMenu"`
	Editable          bool       `json:"editable"`
}

// DefaultOptions are the documented defaults:
// labels shown, circle markers, context menu enabled, editable.
func DefaultOptions() Options {
	return Options{
		FieldColor:        DefaultFieldColor,
		MarkerType:        MarkerCircle,
		ShowPlayerLabels:  true,
		EnableContextMenu: true,
		Editable:          true,
	}
}
