package models

import (
	"fmt"
	"time"
)

// Side identifies one of the two teams on the court.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// ParseSide converts a wire value into a Side.
func ParseSide(v string) (Side, error) {
	s := Side(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown side %q", v)
	}
	return s, nil
}

// Slot identifies one of the two player positions of a side.
type Slot string

const (
	SlotFirst  Slot = "first"
	SlotSecond Slot = "second"
)

func (s Slot) Valid() bool {
	return s == SlotFirst || s == SlotSecond
}

// ParseSlot converts a wire value into a Slot.
func ParseSlot(v string) (Slot, error) {
	s := Slot(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown slot %q", v)
	}
	return s, nil
}

// SetKey identifies one of the three sets of a match.
type SetKey string

const (
	SetFirst  SetKey = "first"
	SetSecond SetKey = "second"
	SetThird  SetKey = "third"
)

// SetKeys lists the sets in playing order.
var SetKeys = []SetKey{SetFirst, SetSecond, SetThird}

func (k SetKey) Valid() bool {
	return k == SetFirst || k == SetSecond || k == SetThird
}

// ParseSetKey converts a wire value into a SetKey.
func ParseSetKey(v string) (SetKey, error) {
	k := SetKey(v)
	if !k.Valid() {
		return "", fmt.Errorf("unknown set %q", v)
	}
	return k, nil
}

// PlayerSlot is one player position on a side.
type PlayerSlot struct {
	Name    string `json:"name"`
	Serving bool   `json:"serving"`
}

// Pair holds the two player positions of one side.
type Pair struct {
	First  PlayerSlot `json:"first"`
	Second PlayerSlot `json:"second"`
}

// Get returns the player at slot.
func (p Pair) Get(slot Slot) PlayerSlot {
	if slot == SlotSecond {
		return p.Second
	}
	return p.First
}

// With returns a copy of p with the player at slot replaced.
func (p Pair) With(slot Slot, player PlayerSlot) Pair {
	if slot == SlotSecond {
		p.Second = player
	} else {
		p.First = player
	}
	return p
}

// Serving reports whether either position of the pair holds serve.
func (p Pair) Serving() bool {
	return p.First.Serving || p.Second.Serving
}

// TeamNames holds the display name of each side.
type TeamNames struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (n TeamNames) Get(side Side) string {
	if side == SideB {
		return n.B
	}
	return n.A
}

func (n TeamNames) With(side Side, name string) TeamNames {
	if side == SideB {
		n.B = name
	} else {
		n.A = name
	}
	return n
}

// TeamScores holds the score of each side.
type TeamScores struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (s TeamScores) Get(side Side) int {
	if side == SideB {
		return s.B
	}
	return s.A
}

func (s TeamScores) With(side Side, score int) TeamScores {
	if side == SideB {
		s.B = score
	} else {
		s.A = score
	}
	return s
}

// TeamPlayers holds the player pair of each side.
type TeamPlayers struct {
	A Pair `json:"a"`
	B Pair `json:"b"`
}

func (p TeamPlayers) Get(side Side) Pair {
	if side == SideB {
		return p.B
	}
	return p.A
}

func (p TeamPlayers) With(side Side, pair Pair) TeamPlayers {
	if side == SideB {
		p.B = pair
	} else {
		p.A = pair
	}
	return p
}

// SetState is the scoring state of one set. All fields are values, so a
// SetState passed by value is an independent copy.
type SetState struct {
	TeamName    TeamNames   `json:"team_name"`
	TeamScore   TeamScores  `json:"team_score"`
	TeamPlayers TeamPlayers `json:"team_players"`
}

// MatchState is the document stored for a match: three independent sets.
type MatchState struct {
	First  SetState `json:"first"`
	Second SetState `json:"second"`
	Third  SetState `json:"third"`
}

// Set returns the state of the set identified by key.
func (m MatchState) Set(key SetKey) SetState {
	switch key {
	case SetSecond:
		return m.Second
	case SetThird:
		return m.Third
	default:
		return m.First
	}
}

// WithSet returns a copy of m with the set identified by key replaced.
func (m MatchState) WithSet(key SetKey, s SetState) MatchState {
	switch key {
	case SetSecond:
		m.Second = s
	case SetThird:
		m.Third = s
	default:
		m.First = s
	}
	return m
}

// Match is a stored match document together with its storage metadata.
type Match struct {
	ID        string     `json:"id"`
	Version   int64      `json:"version"`
	Sets      MatchState `json:"sets"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
