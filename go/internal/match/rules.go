package match

import (
	"fmt"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// ServeSlot returns the position that takes serve when side wins serve at
// score. Even scores serve from the first position for side a and from the
// second position for side b; odd scores use the opposite position.
func ServeSlot(side models.Side, score int) models.Slot {
	even := score%2 == 0
	switch {
	case side == models.SideA && even, side == models.SideB && !even:
		return models.SlotFirst
	default:
		return models.SlotSecond
	}
}

// ApplyScore changes side's score by delta and moves serve accordingly.
//
// A won point (+1) by the serving side swaps its two players. A won point by
// the receiving side passes serve to it, on the position given by ServeSlot for
// the new score. A correction (-1) only changes the score. On error the input
// is returned unchanged.
func ApplyScore(s models.SetState, side models.Side, delta int) (models.SetState, error) {
	if !side.Valid() {
		return s, invalid("side", "unknown side %q", side)
	}
	if delta != 1 && delta != -1 {
		return s, ErrInvalidDelta
	}

	score := s.TeamScore.Get(side) + delta
	if score < 0 {
		return s, ErrScoreUnderflow
	}

	next := s
	next.TeamScore = next.TeamScore.With(side, score)
	if delta < 0 {
		return next, nil
	}

	pair := next.TeamPlayers.Get(side)
	if pair.Serving() {
		next.TeamPlayers = next.TeamPlayers.With(side, models.Pair{First: pair.Second, Second: pair.First})
		return next, nil
	}

	next.TeamPlayers = clearServe(next.TeamPlayers)
	pair = next.TeamPlayers.Get(side)
	slot := ServeSlot(side, score)
	server := pair.Get(slot)
	server.Serving = true
	next.TeamPlayers = next.TeamPlayers.With(side, pair.With(slot, server))
	return next, nil
}

// SwapPlayers exchanges the names of side's two players. Serve is a property
// of the court position, so each position keeps its serving flag.
func SwapPlayers(s models.SetState, side models.Side) (models.SetState, error) {
	if !side.Valid() {
		return s, invalid("side", "unknown side %q", side)
	}
	pair := s.TeamPlayers.Get(side)
	pair.First.Name, pair.Second.Name = pair.Second.Name, pair.First.Name
	s.TeamPlayers = s.TeamPlayers.With(side, pair)
	return s, nil
}

// SetServer hands serve to one position, clearing every other flag.
func SetServer(s models.SetState, side models.Side, slot models.Slot) (models.SetState, error) {
	if !side.Valid() {
		return s, invalid("side", "unknown side %q", side)
	}
	if !slot.Valid() {
		return s, invalid("slot", "unknown slot %q", slot)
	}
	s.TeamPlayers = clearServe(s.TeamPlayers)
	pair := s.TeamPlayers.Get(side)
	server := pair.Get(slot)
	server.Serving = true
	s.TeamPlayers = s.TeamPlayers.With(side, pair.With(slot, server))
	return s, nil
}

// RenameTeam replaces side's display name.
func RenameTeam(s models.SetState, side models.Side, name string) models.SetState {
	s.TeamName = s.TeamName.With(side, name)
	return s
}

// RenamePlayer replaces the name at one position, leaving serve untouched.
func RenamePlayer(s models.SetState, side models.Side, slot models.Slot, name string) models.SetState {
	pair := s.TeamPlayers.Get(side)
	player := pair.Get(slot)
	player.Name = name
	s.TeamPlayers = s.TeamPlayers.With(side, pair.With(slot, player))
	return s
}

// RenamePlayers replaces both names of side.
func RenamePlayers(s models.SetState, side models.Side, first, second string) models.SetState {
	s = RenamePlayer(s, side, models.SlotFirst, first)
	return RenamePlayer(s, side, models.SlotSecond, second)
}

// ServingPosition returns who holds serve, if anyone.
func ServingPosition(s models.SetState) (models.Side, models.Slot, bool) {
	for _, side := range []models.Side{models.SideA, models.SideB} {
		pair := s.TeamPlayers.Get(side)
		for _, slot := range []models.Slot{models.SlotFirst, models.SlotSecond} {
			if pair.Get(slot).Serving {
				return side, slot, true
			}
		}
	}
	return "", "", false
}

// CheckInvariants verifies that at most one position serves and that no score
// is negative.
func CheckInvariants(s models.SetState) error {
	if s.TeamScore.A < 0 || s.TeamScore.B < 0 {
		return fmt.Errorf("%w: negative score %d-%d", ErrInvariant, s.TeamScore.A, s.TeamScore.B)
	}
	servers := 0
	for _, p := range []models.PlayerSlot{
		s.TeamPlayers.A.First, s.TeamPlayers.A.Second,
		s.TeamPlayers.B.First, s.TeamPlayers.B.Second,
	} {
		if p.Serving {
			servers++
		}
	}
	if servers > 1 {
		return fmt.Errorf("%w: %d positions serving", ErrInvariant, servers)
	}
	return nil
}

func clearServe(p models.TeamPlayers) models.TeamPlayers {
	p.A.First.Serving = false
	p.A.Second.Serving = false
	p.B.First.Serving = false
	p.B.Second.Serving = false
	return p
}
