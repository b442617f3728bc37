// Package annotation implements everything drawn or toggled on top of the
// players: context-menu flags, waypoint connectors and tactical zones.
package annotation

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"tacticboard/internal/pitch"
)

// Action is a context-menu entry.
type Action string

const (
	ActionCaptain Action = "captain"
	ActionYellow  Action = "yellow"
	ActionRed     Action = "red"
	ActionKey     Action = "key"
)

// Actions lists the menu entries in display order.
var Actions = []Action{ActionCaptain, ActionYellow, ActionRed, ActionKey}

var (
	ErrActionDisabled = errors.New("action disabled")
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnknownPlayer  = errors.New("unknown player")
)

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Label is the menu text for the action.
func (a Action) Label() string {
	switch a {
	case ActionCaptain:
		return "Captain"
	case ActionYellow:
		return "Yellow card"
	case ActionRed:
		return "Red card"
	case ActionKey:
		return "Key player"
	}
	return string(a)
}

// MenuItem is one rendered context-menu row.
type MenuItem struct {
	Action   Action
	Label    string
	Checked  bool
	Disabled bool
}

// CaptainDisabled reports whether the captain toggle is unavailable for
// target: someone else already wears the armband.
func CaptainDisabled(players []pitch.Player, target int) bool {
	return lo.ContainsBy(players, func(p pitch.Player) bool {
		return p.IsCaptain && p.ID != target
	})
}

// MenuItems builds the menu for target.
func MenuItems(players []pitch.Player, target int) []MenuItem {
	current, _ := lo.Find(players, func(p pitch.Player) bool { return p.ID == target })
	items := make([]MenuItem, 0, len(Actions))
	for _, a := range Actions {
		item := MenuItem{Action: a, Label: a.Label(), Checked: flag(current, a)}
		if a == ActionCaptain {
			item.Disabled = CaptainDisabled(players, target)
		}
		items = append(items, item)
	}
	return items
}

func flag(p pitch.Player, a Action) bool {
	switch a {
	case ActionCaptain:
		return p.IsCaptain
	case ActionYellow:
		return p.HasYellowCard
	case ActionRed:
		return p.HasRedCard
	case ActionKey:
		return p.IsStarPlayer
	}
	return false
}

// Apply toggles the flag for action on target. A captain toggle is refused
// while another player is captain; only the current captain can give it up.
func Apply(registry *pitch.Registry, action Action, target int) error {
	if _, ok := registry.Get(target); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, target)
	}
	switch action {
	case ActionCaptain:
		if CaptainDisabled(registry.Players(), target) {
			return fmt.Errorf("%w: %s", ErrActionDisabled, action)
		}
		registry.Update(target, func(p *pitch.Player) { p.IsCaptain = !p.IsCaptain })
	case ActionYellow:
		registry.Update(target, func(p *pitch.Player) { p.HasYellowCard = !p.HasYellowCard })
	case ActionRed:
		registry.Update(target, func(p *pitch.Player) { p.HasRedCard = !p.HasRedCard })
	case ActionKey:
		registry.Update(target, func(p *pitch.Player) { p.IsStarPlayer = !p.IsStarPlayer })
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}
