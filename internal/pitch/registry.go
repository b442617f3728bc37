package pitch

import (
	"github.com/samber/lo"
)

// Registry is the ordered list of players on one pitch. It is not safe for
// concurrent use; the owning board serializes access.
type Registry struct {
	players []Player
}

// NewRegistry returns a registry seeded with a full lineup in the default formation.
func NewRegistry() *Registry {
	return &Registry{players: defaultPlayers()}
}

// NewRegistryFrom returns a registry holding a copy of players.
func NewRegistryFrom(players []Player) *Registry {
	r := &Registry{}
	r.Replace(players)
	return r
}

// Players returns a copy of the player list in order.
func (r *Registry) Players() []Player {
	return append([]Player(nil), r.players...)
}

// Len returns the number of players.
func (r *Registry) Len() int {
	return len(r.players)
}

// Get returns the player with the given id.
func (r *Registry) Get(id int) (Player, bool) {
	return lo.Find(r.players, func(p Player) bool { return p.ID == id })
}

func (r *Registry) index(id int) int {
	_, idx, ok := lo.FindIndexOf(r.players, func(p Player) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// Move sets a player's position, clamped into the pitch. It reports false if
// the player does not exist.
func (r *Registry) Move(id int, x, y float64) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.players[idx].X = Clamp(x)
	r.players[idx].Y = Clamp(y)
	return true
}

// Update applies fn to the player in place. Position changes made by fn are clamped.
func (r *Registry) Update(id int, fn func(p *Player)) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	fn(&r.players[idx])
	r.players[idx].X = Clamp(r.players[idx].X)
	r.players[idx].Y = Clamp(r.players[idx].Y)
	return true
}

// Remove deletes a player, keeping the order of the rest.
func (r *Registry) Remove(id int) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	return true
}

// Replace swaps the whole lineup for a copy of players, clamping positions.
func (r *Registry) Replace(players []Player) {
	r.players = lo.Map(players, func(p Player, _ int) Player {
		p.X = Clamp(p.X)
		p.Y = Clamp(p.Y)
		return p
	})
}

// Reset restores the default lineup.
func (r *Registry) Reset() {
	r.players = defaultPlayers()
}

// HasCaptain reports whether any player holds the armband.
func (r *Registry) HasCaptain() bool {
	return lo.SomeBy(r.players, func(p Player) bool { return p.IsCaptain })
}

// Captain returns the current captain, if any.
func (r *Registry) Captain() (Player, bool) {
	return lo.Find(r.players, func(p Player) bool { return p.IsCaptain })
}

// ApplyFormation moves the players, in order, onto the formation's slots.
// Players beyond the eleventh keep their positions.
func (r *Registry) ApplyFormation(formation string) error {
	points, err := FormationPositions(formation)
	if err != nil {
		return err
	}
	for i := range r.players {
		if i >= len(points) {
			break
		}
		r.players[i].X = points[i].X
		r.players[i].Y = points[i].Y
	}
	return nil
}
