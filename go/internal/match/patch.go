package match

import "github.com/mcdev12/scoreboard/go/internal/models"

// Field is one leaf assignment inside the stored match document.
type Field struct {
	Path  []string
	Value string
}

// Patch is a typed partial update of a match document. Apply and Fields must
// describe the same change: Apply is used by in-process stores, Fields by
// stores that update document paths in place.
type Patch interface {
	Apply(models.MatchState) models.MatchState
	Fields() []Field
	EventType() models.EventType
}

// TeamNamePatch replaces one side's display name in one set.
type TeamNamePatch struct {
	Set  models.SetKey
	Side models.Side
	Name string
}

func (p TeamNamePatch) Apply(m models.MatchState) models.MatchState {
	return m.WithSet(p.Set, RenameTeam(m.Set(p.Set), p.Side, p.Name))
}

func (p TeamNamePatch) Fields() []Field {
	return []Field{{Path: teamNamePath(p.Set, p.Side), Value: p.Name}}
}

func (p TeamNamePatch) EventType() models.EventType { return models.EventTypeTeamRenamed }

// PlayerNamesPatch replaces both player names of one side in one set.
type PlayerNamesPatch struct {
	Set    models.SetKey
	Side   models.Side
	First  string
	Second string
}

func (p PlayerNamesPatch) Apply(m models.MatchState) models.MatchState {
	return m.WithSet(p.Set, RenamePlayers(m.Set(p.Set), p.Side, p.First, p.Second))
}

func (p PlayerNamesPatch) Fields() []Field {
	return []Field{
		{Path: playerNamePath(p.Set, p.Side, models.SlotFirst), Value: p.First},
		{Path: playerNamePath(p.Set, p.Side, models.SlotSecond), Value: p.Second},
	}
}

func (p PlayerNamesPatch) EventType() models.EventType { return models.EventTypePlayersRenamed }

// Path segments follow the json tags of models.MatchState.
func teamNamePath(set models.SetKey, side models.Side) []string {
	return []string{string(set), "team_name", string(side)}
}

func playerNamePath(set models.SetKey, side models.Side, slot models.Slot) []string {
	return []string{string(set), "team_players", string(side), string(slot), "name"}
}
