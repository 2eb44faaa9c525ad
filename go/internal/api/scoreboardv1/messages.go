package scoreboardv1

import (
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// Match is the wire form of a stored match.
type Match struct {
	ID        string            `json:"id"`
	Version   int64             `json:"version"`
	Sets      models.MatchState `json:"sets"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type CreateMatchRequest struct {
	TeamNameA     string `json:"team_name_a"`
	TeamNameB     string `json:"team_name_b"`
	PlayerAFirst  string `json:"player_a_first"`
	PlayerASecond string `json:"player_a_second"`
	PlayerBFirst  string `json:"player_b_first"`
	PlayerBSecond string `json:"player_b_second"`
	SwitchEnds    bool   `json:"switch_ends,omitempty"`
}

type CreateMatchResponse struct {
	Match *Match `json:"match"`
}

type GetMatchRequest struct {
	ID string `json:"id"`
}

type GetMatchResponse struct {
	Match *Match `json:"match"`
}

type UpdateScoreRequest struct {
	MatchID string `json:"match_id"`
	Set     string `json:"set"`
	Side    string `json:"side"`
	Delta   int32  `json:"delta"`
}

type UpdateScoreResponse struct {
	Match *Match `json:"match"`
}

type SwapPlayersRequest struct {
	MatchID string `json:"match_id"`
	Set     string `json:"set"`
	Side    string `json:"side"`
}

type SwapPlayersResponse struct {
	Match *Match `json:"match"`
}

type SetServerRequest struct {
	MatchID string `json:"match_id"`
	Set     string `json:"set"`
	Side    string `json:"side"`
	Slot    string `json:"slot"`
}

type SetServerResponse struct {
	Match *Match `json:"match"`
}

type UpdateTeamNameRequest struct {
	MatchID string `json:"match_id"`
	Set     string `json:"set"`
	Side    string `json:"side"`
	Name    string `json:"name"`
}

type UpdateTeamNameResponse struct {
	Match *Match `json:"match"`
}

type UpdatePlayerNamesRequest struct {
	MatchID string `json:"match_id"`
	Set     string `json:"set"`
	Side    string `json:"side"`
	First   string `json:"first"`
	Second  string `json:"second"`
}

type UpdatePlayerNamesResponse struct {
	Match *Match `json:"match"`
}

// User is the wire form of an operator account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	User *User `json:"user"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

type UpdatePasswordResponse struct{}
