package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

func newSet() models.SetState {
	return NewMatchState(CreateMatchRequest{
		TeamNameA:     "Hawks",
		TeamNameB:     "Owls",
		PlayerAFirst:  "Ann",
		PlayerASecond: "Bea",
		PlayerBFirst:  "Cal",
		PlayerBSecond: "Dan",
	}).First
}

func servers(s models.SetState) int {
	n := 0
	for _, p := range []models.PlayerSlot{
		s.TeamPlayers.A.First, s.TeamPlayers.A.Second,
		s.TeamPlayers.B.First, s.TeamPlayers.B.Second,
	} {
		if p.Serving {
			n++
		}
	}
	return n
}

func TestServeSlot(t *testing.T) {
	tests := []struct {
		side  models.Side
		score int
		want  models.Slot
	}{
		{models.SideA, 0, models.SlotFirst},
		{models.SideA, 1, models.SlotSecond},
		{models.SideA, 2, models.SlotFirst},
		{models.SideA, 7, models.SlotSecond},
		{models.SideB, 0, models.SlotSecond},
		{models.SideB, 1, models.SlotFirst},
		{models.SideB, 4, models.SlotSecond},
		{models.SideB, 9, models.SlotFirst},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ServeSlot(tt.side, tt.score), "side %s score %d", tt.side, tt.score)
	}
}

func TestApplyScore_ServeTransfersToScoringSide(t *testing.T) {
	tests := []struct {
		name     string
		side     models.Side
		score    int // score before the point
		wantSlot models.Slot
	}{
		{"a to odd", models.SideA, 0, models.SlotSecond},
		{"a to even", models.SideA, 1, models.SlotFirst},
		{"b to odd", models.SideB, 0, models.SlotFirst},
		{"b to even", models.SideB, 3, models.SlotSecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSet()
			s.TeamScore = s.TeamScore.With(tt.side, tt.score)
			// Opponent holds serve.
			s, err := SetServer(s, tt.side.Other(), models.SlotFirst)
			require.NoError(t, err)

			next, err := ApplyScore(s, tt.side, 1)
			require.NoError(t, err)

			assert.Equal(t, tt.score+1, next.TeamScore.Get(tt.side))
			assert.Equal(t, 1, servers(next))
			assert.True(t, next.TeamPlayers.Get(tt.side).Get(tt.wantSlot).Serving)
			assert.False(t, next.TeamPlayers.Get(tt.side.Other()).Serving())
			// Names do not move when serve changes hands.
			assert.Equal(t, s.TeamPlayers, withoutServe(next.TeamPlayers, s.TeamPlayers))
		})
	}
}

// withoutServe returns got with serve flags copied from want, so only names
// are compared.
func withoutServe(got, want models.TeamPlayers) models.TeamPlayers {
	got.A.First.Serving = want.A.First.Serving
	got.A.Second.Serving = want.A.Second.Serving
	got.B.First.Serving = want.B.First.Serving
	got.B.Second.Serving = want.B.Second.Serving
	return got
}

func TestApplyScore_ServingSideRotates(t *testing.T) {
	for _, side := range []models.Side{models.SideA, models.SideB} {
		for _, slot := range []models.Slot{models.SlotFirst, models.SlotSecond} {
			t.Run(string(side)+"/"+string(slot), func(t *testing.T) {
				s, err := SetServer(newSet(), side, slot)
				require.NoError(t, err)
				before := s.TeamPlayers.Get(side)

				next, err := ApplyScore(s, side, 1)
				require.NoError(t, err)

				after := next.TeamPlayers.Get(side)
				assert.Equal(t, before.First, after.Second)
				assert.Equal(t, before.Second, after.First)
				assert.True(t, after.Serving())
				assert.Equal(t, 1, servers(next))
				assert.Equal(t, s.TeamPlayers.Get(side.Other()), next.TeamPlayers.Get(side.Other()))
			})
		}
	}
}

func TestApplyScore_Scenarios(t *testing.T) {
	t.Run("first point of the set", func(t *testing.T) {
		next, err := ApplyScore(newSet(), models.SideA, 1)
		require.NoError(t, err)

		assert.Equal(t, 1, next.TeamScore.A)
		assert.True(t, next.TeamPlayers.A.Second.Serving)
		assert.False(t, next.TeamPlayers.A.First.Serving)
		assert.False(t, next.TeamPlayers.B.Serving())
	})

	t.Run("serving side wins at four", func(t *testing.T) {
		s, err := SetServer(newSet(), models.SideA, models.SlotFirst)
		require.NoError(t, err)
		s.TeamScore.A = 4

		next, err := ApplyScore(s, models.SideA, 1)
		require.NoError(t, err)

		assert.Equal(t, 5, next.TeamScore.A)
		assert.Equal(t, "Bea", next.TeamPlayers.A.First.Name)
		assert.Equal(t, "Ann", next.TeamPlayers.A.Second.Name)
		assert.True(t, next.TeamPlayers.A.Serving())
		assert.Equal(t, 1, servers(next))
	})

	t.Run("decrement at zero is rejected", func(t *testing.T) {
		s := newSet()
		next, err := ApplyScore(s, models.SideB, -1)
		require.ErrorIs(t, err, ErrScoreUnderflow)
		assert.Equal(t, s, next)
	})
}

func TestApplyScore_DecrementKeepsServe(t *testing.T) {
	s, err := SetServer(newSet(), models.SideB, models.SlotSecond)
	require.NoError(t, err)
	s.TeamScore = models.TeamScores{A: 3, B: 2}

	next, err := ApplyScore(s, models.SideA, -1)
	require.NoError(t, err)

	assert.Equal(t, models.TeamScores{A: 2, B: 2}, next.TeamScore)
	assert.Equal(t, s.TeamPlayers, next.TeamPlayers)
}

func TestApplyScore_RejectsBadInput(t *testing.T) {
	s := newSet()

	for _, delta := range []int{0, 2, -2} {
		next, err := ApplyScore(s, models.SideA, delta)
		require.ErrorIs(t, err, ErrInvalidDelta)
		assert.Equal(t, s, next)
	}

	next, err := ApplyScore(s, models.Side("c"), 1)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, s, next)
}

func TestApplyScore_DoesNotMutateInput(t *testing.T) {
	s, err := SetServer(newSet(), models.SideA, models.SlotFirst)
	require.NoError(t, err)
	snapshot := s

	_, err = ApplyScore(s, models.SideA, 1)
	require.NoError(t, err)
	_, err = ApplyScore(s, models.SideB, 1)
	require.NoError(t, err)

	assert.Equal(t, snapshot, s)
}

func TestApplyScore_RallySequenceHoldsInvariants(t *testing.T) {
	s := newSet()
	rallies := []struct {
		side  models.Side
		delta int
	}{
		{models.SideA, 1}, {models.SideA, 1}, {models.SideB, 1}, {models.SideB, 1},
		{models.SideB, -1}, {models.SideA, 1}, {models.SideB, 1}, {models.SideA, -1},
		{models.SideA, -1}, {models.SideA, -1}, {models.SideA, -1}, {models.SideB, 1},
	}

	for i, r := range rallies {
		next, err := ApplyScore(s, r.side, r.delta)
		if err != nil {
			require.ErrorIs(t, err, ErrScoreUnderflow, "rally %d", i)
			assert.Equal(t, s, next)
			continue
		}
		require.NoError(t, CheckInvariants(next), "rally %d", i)
		assert.GreaterOrEqual(t, next.TeamScore.A, 0)
		assert.GreaterOrEqual(t, next.TeamScore.B, 0)
		s = next
	}
	assert.Equal(t, 1, servers(s))
}

func TestSwapPlayers(t *testing.T) {
	s, err := SetServer(newSet(), models.SideA, models.SlotFirst)
	require.NoError(t, err)

	once, err := SwapPlayers(s, models.SideA)
	require.NoError(t, err)
	assert.Equal(t, "Bea", once.TeamPlayers.A.First.Name)
	assert.Equal(t, "Ann", once.TeamPlayers.A.Second.Name)
	// Serve stays on the court position.
	assert.True(t, once.TeamPlayers.A.First.Serving)
	assert.False(t, once.TeamPlayers.A.Second.Serving)
	assert.Equal(t, s.TeamPlayers.B, once.TeamPlayers.B)
	assert.Equal(t, s.TeamScore, once.TeamScore)

	twice, err := SwapPlayers(once, models.SideA)
	require.NoError(t, err)
	assert.Equal(t, s, twice)

	_, err = SwapPlayers(s, models.Side(""))
	assert.True(t, IsValidation(err))
}

func TestSetServer(t *testing.T) {
	s, err := SetServer(newSet(), models.SideA, models.SlotSecond)
	require.NoError(t, err)
	s, err = SetServer(s, models.SideB, models.SlotFirst)
	require.NoError(t, err)

	assert.Equal(t, 1, servers(s))
	side, slot, ok := ServingPosition(s)
	require.True(t, ok)
	assert.Equal(t, models.SideB, side)
	assert.Equal(t, models.SlotFirst, slot)

	_, err = SetServer(s, models.SideA, models.Slot("third"))
	assert.True(t, IsValidation(err))
}

func TestServingPosition_Nobody(t *testing.T) {
	_, _, ok := ServingPosition(newSet())
	assert.False(t, ok)
}

func TestRenames(t *testing.T) {
	s, err := SetServer(newSet(), models.SideB, models.SlotSecond)
	require.NoError(t, err)

	s = RenameTeam(s, models.SideB, "Ravens")
	assert.Equal(t, models.TeamNames{A: "Hawks", B: "Ravens"}, s.TeamName)

	s = RenamePlayers(s, models.SideB, "Eve", "Fay")
	assert.Equal(t, "Eve", s.TeamPlayers.B.First.Name)
	assert.Equal(t, "Fay", s.TeamPlayers.B.Second.Name)
	assert.True(t, s.TeamPlayers.B.Second.Serving)
	assert.Equal(t, 1, servers(s))
}

func TestCheckInvariants(t *testing.T) {
	require.NoError(t, CheckInvariants(newSet()))

	s := newSet()
	s.TeamScore.B = -1
	assert.ErrorIs(t, CheckInvariants(s), ErrInvariant)

	s = newSet()
	s.TeamPlayers.A.First.Serving = true
	s.TeamPlayers.B.Second.Serving = true
	assert.ErrorIs(t, CheckInvariants(s), ErrInvariant)
}

func TestNewMatchState(t *testing.T) {
	req := CreateMatchRequest{
		TeamNameA: "Hawks", TeamNameB: "Owls",
		PlayerAFirst: "Ann", PlayerASecond: "Bea",
		PlayerBFirst: "Cal", PlayerBSecond: "Dan",
	}

	m := NewMatchState(req)
	assert.Equal(t, m.First, m.Second)
	assert.Equal(t, m.First, m.Third)
	assert.Equal(t, models.TeamScores{}, m.First.TeamScore)
	assert.Equal(t, 0, servers(m.First))

	req.SwitchEnds = true
	m = NewMatchState(req)
	assert.Equal(t, models.TeamNames{A: "Owls", B: "Hawks"}, m.Second.TeamName)
	assert.Equal(t, "Cal", m.Second.TeamPlayers.A.First.Name)
	assert.Equal(t, m.First, m.Third)
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"abc123", true},
		{"A-b_C", true},
		{"", false},
		{"has space", false},
		{"a.b", false},
		{"a*", false},
		{string(make([]byte, MaxIDLength+1)), false},
	}
	for _, tt := range tests {
		err := ValidateID(tt.id)
		if tt.valid {
			assert.NoError(t, err, "id %q", tt.id)
		} else {
			assert.True(t, IsValidation(err), "id %q", tt.id)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		}
	}
}

func TestCreateMatchRequestNormalize(t *testing.T) {
	req := CreateMatchRequest{
		TeamNameA: "  Hawks ", TeamNameB: "Owls",
		PlayerAFirst: "Ann", PlayerASecond: "Bea",
		PlayerBFirst: "Cal", PlayerBSecond: "Dan",
	}
	require.NoError(t, req.normalize())
	assert.Equal(t, "Hawks", req.TeamNameA)

	req.PlayerBSecond = "   "
	err := req.normalize()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "player_b_second", ve.Field)

	long := make([]rune, MaxNameLength+1)
	for i := range long {
		long[i] = 'é'
	}
	req.PlayerBSecond = string(long)
	assert.Error(t, req.normalize())

	req.PlayerBSecond = string(long[:MaxNameLength])
	assert.NoError(t, req.normalize())
}
