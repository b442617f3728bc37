package pitch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxPositionLen is the longest positional abbreviation shown on a marker.
const MaxPositionLen = 2

// JerseyNumber is a shirt number. Clients send it either as a JSON number or
// as a numeric string, so both are accepted.
type JerseyNumber int

// UnmarshalJSON implements json.Unmarshaler.
func (n *JerseyNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid jersey number %s", string(data))
	}
	*n = JerseyNumber(v)
	return nil
}

// Player is one token on the pitch.
type Player struct {
	ID            int          `json:"id"`
	X             float64      `json:"x"`
	Y             float64      `json:"y"`
	Number        JerseyNumber `json:"number"`
	Name          string       `json:"name,omitempty"`
	Position      string       `json:"position,omitempty"`
	IsCaptain     bool         `json:"isCaptain,omitempty"`
	HasYellowCard bool         `json:"hasYellowCard,omitempty"`
	HasRedCard    bool         `json:"hasRedCard,omitempty"`
	IsStarPlayer  bool         `json:"isStarPlayer,omitempty"`
}

// MinimalPlayer is the shape exchanged with collaborators outside the editor.
type MinimalPlayer struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Number int     `json:"number"`
}

// Minimal projects the player onto the cross-boundary shape.
func (p Player) Minimal() MinimalPlayer {
	return MinimalPlayer{ID: p.ID, X: p.X, Y: p.Y, Number: int(p.Number)}
}

// Point returns the player's normalized position.
func (p Player) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// DisplayName is the name shown under the marker.
func (p Player) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Player %d", p.Number)
}

// DisplayPosition is the short text drawn on the marker itself.
func (p Player) DisplayPosition() string {
	pos := strings.TrimSpace(p.Position)
	if pos == "" {
		return strconv.Itoa(int(p.Number))
	}
	if utf8.RuneCountInString(pos) > MaxPositionLen {
		pos = string([]rune(pos)[:MaxPositionLen])
	}
	return pos
}

// MarshalJSON keeps the number numeric on output.
func (n JerseyNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(n))
}
