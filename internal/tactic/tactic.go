// Package tactic is the publish sink: a board's lineup, titled and tagged,
// validated and stored through gorm.
package tactic

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"tacticboard/internal/pitch"
)

const MaxTags = 5

var (
	ErrInvalidTactic = errors.New("invalid tactic")
	ErrNotFound      = errors.New("tactic not found")
)

// Tactic is a saved formation: eleven players plus metadata.
type Tactic struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title" validate:"required,max=120"`
	Formation   string         `json:"formation" validate:"required,formation"`
	Description string         `json:"description,omitempty" validate:"max=2000"`
	Tags        []string       `json:"tags,omitempty" validate:"max=5,dive,required,max=30"`
	Players     []pitch.Player `json:"players" validate:"len=11"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func tacticValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("formation", func(fl validator.FieldLevel) bool {
			_, err := pitch.ParseFormation(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks field constraints and the lineup rules: unique ids,
// positions on the pitch and at most one captain.
func (t Tactic) Validate() error {
	if err := tacticValidator().Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTactic, err)
	}
	if ids := lo.FindDuplicatesBy(t.Players, func(p pitch.Player) int { return p.ID }); len(ids) > 0 {
		return fmt.Errorf("%w: duplicate player id %d", ErrInvalidTactic, ids[0].ID)
	}
	for _, p := range t.Players {
		if pitch.Clamp(p.X) != p.X || pitch.Clamp(p.Y) != p.Y {
			return fmt.Errorf("%w: player %d is off the pitch", ErrInvalidTactic, p.ID)
		}
	}
	if lo.CountBy(t.Players, func(p pitch.Player) bool { return p.IsCaptain }) > 1 {
		return fmt.Errorf("%w: more than one captain", ErrInvalidTactic)
	}
	return nil
}
