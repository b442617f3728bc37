package pitch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// TeamSize is the number of players in a lineup.
	TeamSize = 11
	// DefaultFormation seeds new registries.
	DefaultFormation = "4-4-2"

	keeperY   = 90.0
	attackTop = 18.0
	defenceY  = 72.0
)

// Presets are the formations offered by the editor toolbar.
var Presets = []string{"4-4-2", "4-3-3", "4-2-3-1", "3-5-2", "3-4-3", "5-3-2", "4-1-4-1"}

var (
	formationPattern = regexp.MustCompile(`^\d+-\d+(-\d+)*$`)

	ErrInvalidFormation = errors.New("invalid formation")
)

// ValidFormation reports whether s has the shape "4-4-2", "4-2-3-1", ...
func ValidFormation(s string) bool {
	return formationPattern.MatchString(s)
}

// ParseFormation splits a formation into its outfield lines, defence first.
// The lines must add up to ten outfield players.
func ParseFormation(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if !ValidFormation(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormation, s)
	}
	parts := strings.Split(s, "-")
	lines := make([]int, 0, len(parts))
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormation, s)
		}
		lines = append(lines, n)
		total += n
	}
	if total != TeamSize-1 {
		return nil, fmt.Errorf("%w: %q has %d outfield players", ErrInvalidFormation, s, total)
	}
	return lines, nil
}

// FormationPositions lays out a keeper and the outfield lines as evenly
// spaced rows, keeper at the bottom and the last line nearest the top.
func FormationPositions(formation string) ([]Point, error) {
	lines, err := ParseFormation(formation)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, TeamSize)
	points = append(points, Point{X: 50, Y: keeperY})

	step := 0.0
	if len(lines) > 1 {
		step = (defenceY - attackTop) / float64(len(lines)-1)
	}
	for i, count := range lines {
		y := defenceY - step*float64(i)
		for j := 0; j < count; j++ {
			x := 100 * float64(j+1) / float64(count+1)
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points, nil
}

func defaultPlayers() []Player {
	points, _ := FormationPositions(DefaultFormation)
	players := make([]Player, 0, TeamSize)
	for i, p := range points {
		players = append(players, Player{
			ID:     i + 1,
			Number: JerseyNumber(i + 1),
			X:      p.X,
			Y:      p.Y,
		})
	}
	return players
}
