package models

import "errors"

// ErrNotFound is returned when a match (or any other keyed record) does not exist.
var ErrNotFound = errors.New("not found")

// EventType names a committed change to a match.
type EventType string

const (
	EventTypeMatchCreated   EventType = "MatchCreated"
	EventTypeScoreUpdated   EventType = "ScoreUpdated"
	EventTypePlayersSwapped EventType = "PlayersSwapped"
	EventTypeServerSet      EventType = "ServerSet"
	EventTypeTeamRenamed    EventType = "TeamRenamed"
	EventTypePlayersRenamed EventType = "PlayersRenamed"
)

// ErrInvalidArgument is matched by errors describing a malformed request.
var ErrInvalidArgument = errors.New("invalid argument")
