package match

import (
	"strings"
	"unicode/utf8"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

const (
	// MaxNameLength bounds team and player display names, in characters.
	MaxNameLength = 50
	// MaxIDLength bounds match ids accepted from callers.
	MaxIDLength = 64
)

// CreateMatchRequest represents the data needed to create a new match
type CreateMatchRequest struct {
	TeamNameA     string `json:"team_name_a"`
	TeamNameB     string `json:"team_name_b"`
	PlayerAFirst  string `json:"player_a_first"`
	PlayerASecond string `json:"player_a_second"`
	PlayerBFirst  string `json:"player_b_first"`
	PlayerBSecond string `json:"player_b_second"`
	SwitchEnds    bool   `json:"switch_ends"`
}

// UpdateScoreRequest changes one side's score in one set by Delta (+1 or -1)
type UpdateScoreRequest struct {
	MatchID string        `json:"match_id"`
	Set     models.SetKey `json:"set"`
	Side    models.Side   `json:"side"`
	Delta   int           `json:"delta"`
}

// SwapPlayersRequest exchanges a side's two players in one set
type SwapPlayersRequest struct {
	MatchID string        `json:"match_id"`
	Set     models.SetKey `json:"set"`
	Side    models.Side   `json:"side"`
}

// SetServerRequest seeds serve on one position
type SetServerRequest struct {
	MatchID string        `json:"match_id"`
	Set     models.SetKey `json:"set"`
	Side    models.Side   `json:"side"`
	Slot    models.Slot   `json:"slot"`
}

// UpdateTeamNameRequest replaces a side's display name in one set
type UpdateTeamNameRequest struct {
	MatchID string        `json:"match_id"`
	Set     models.SetKey `json:"set"`
	Side    models.Side   `json:"side"`
	Name    string        `json:"name"`
}

// UpdatePlayerNamesRequest replaces both player names of a side in one set
type UpdatePlayerNamesRequest struct {
	MatchID string        `json:"match_id"`
	Set     models.SetKey `json:"set"`
	Side    models.Side   `json:"side"`
	First   string        `json:"first"`
	Second  string        `json:"second"`
}

// NewMatchState builds the initial document: three sets copied from one
// template with zero scores and nobody serving. Serve is established by the
// first won point or by an explicit SetServer. With SwitchEnds the second set
// starts with the teams on opposite sides.
func NewMatchState(req CreateMatchRequest) models.MatchState {
	template := models.SetState{
		TeamName: models.TeamNames{A: req.TeamNameA, B: req.TeamNameB},
		TeamPlayers: models.TeamPlayers{
			A: models.Pair{First: models.PlayerSlot{Name: req.PlayerAFirst}, Second: models.PlayerSlot{Name: req.PlayerASecond}},
			B: models.Pair{First: models.PlayerSlot{Name: req.PlayerBFirst}, Second: models.PlayerSlot{Name: req.PlayerBSecond}},
		},
	}

	second := template
	if req.SwitchEnds {
		second = models.SetState{
			TeamName:    models.TeamNames{A: template.TeamName.B, B: template.TeamName.A},
			TeamPlayers: models.TeamPlayers{A: template.TeamPlayers.B, B: template.TeamPlayers.A},
		}
	}

	return models.MatchState{First: template, Second: second, Third: template}
}

// normalizeName trims surrounding whitespace and enforces the length bounds.
func normalizeName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", invalid(field, "is required")
	}
	if n > MaxNameLength {
		return "", invalid(field, "must be at most %d characters", MaxNameLength)
	}
	return name, nil
}

// ValidateID checks that id can be used as a storage key and a subject token.
func ValidateID(id string) error {
	if id == "" {
		return invalid("match_id", "is required")
	}
	if len(id) > MaxIDLength {
		return invalid("match_id", "must be at most %d characters", MaxIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return invalid("match_id", "contains invalid character %q", r)
		}
	}
	return nil
}

func validateTarget(id string, set models.SetKey, side models.Side) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !set.Valid() {
		return invalid("set", "unknown set %q", set)
	}
	if !side.Valid() {
		return invalid("side", "unknown side %q", side)
	}
	return nil
}

func (req *CreateMatchRequest) normalize() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"team_name_a", &req.TeamNameA},
		{"team_name_b", &req.TeamNameB},
		{"player_a_first", &req.PlayerAFirst},
		{"player_a_second", &req.PlayerASecond},
		{"player_b_first", &req.PlayerBFirst},
		{"player_b_second", &req.PlayerBSecond},
	}
	for _, f := range fields {
		v, err := normalizeName(f.name, *f.value)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}
