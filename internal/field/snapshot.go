// Package field defines the render contract: the one serializable snapshot
// that both the live editor and the headless export render from, and the
// resolution step that turns it into drawable geometry.
package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"tacticboard/internal/annotation"
	"tacticboard/internal/perspective"
	"tacticboard/internal/pitch"
)

// MarkerType selects how players are drawn.
type MarkerType string

const (
	MarkerCircle MarkerType = "circle"
	MarkerShirt  MarkerType = "shirt"

	DefaultFieldColor = "#0d4b3e"
)

var ErrInvalidSnapshot = errors.New("invalid field snapshot")

// Snapshot is the complete description of one pitch view. Nothing else
// crosses from the editing surface to the export renderer.
//
// The embedded State carries the rotation, tilt and zoom keys at the top
// level of the JSON form. Snapshot.Normalize shadows State.Normalize; use
// s.State.Normalize for the perspective alone.
type Snapshot struct {
	perspective.State

	FieldColor          string                `json:"fieldColor" validate:"omitempty,hexcolor"`
	ShowPlayerLabels    bool                  `json:"showPlayerLabels"`
	MarkerType          MarkerType            `json:"markerType" validate:"omitempty,oneof=circle shirt"`
	IsWaypointsMode     bool                  `json:"isWaypointsMode"`
	ShowHorizontalZones bool                  `json:"showHorizontalZones"`
	ShowVerticalZones   bool                  `json:"showVerticalZones"`
	Players             []pitch.Player        `json:"players" validate:"required,min=1"`
	Waypoints           []annotation.Waypoint `json:"waypoints,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func snapshotValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the snapshot's value constraints.
func (s Snapshot) Validate() error {
	if err := snapshotValidator().Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	seen := make(map[int]struct{}, len(s.Players))
	for _, p := range s.Players {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate player id %d", ErrInvalidSnapshot, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Normalize fills presentation defaults and brings the perspective and
// player positions into range. Both renderers resolve from the normalized form.
func (s Snapshot) Normalize() Snapshot {
	s.State = s.State.Normalize()
	if s.FieldColor == "" {
		s.FieldColor = DefaultFieldColor
	}
	if s.MarkerType != MarkerShirt {
		s.MarkerType = MarkerCircle
	}
	players := make([]pitch.Player, len(s.Players))
	for i, p := range s.Players {
		p.X = pitch.Clamp(p.X)
		p.Y = pitch.Clamp(p.Y)
		players[i] = p
	}
	s.Players = players
	s.Waypoints = append([]annotation.Waypoint(nil), s.Waypoints...)
	return s
}

// Encode serializes the snapshot for transport.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a snapshot produced by Encode or sent by a client.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s, nil
}
