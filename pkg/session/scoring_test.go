package session

import (
	"testing"
	"time"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
	"github.com/stretchr/testify/assert"
)

func theory(playerID int64, obj games.SpaceObject, sector, progress int, frozen, accurate bool, turn int) *types.Theory {
	return &types.Theory{
		PlayerID: playerID,
		Object:   obj,
		Sector:   sector,
		Progress: progress,
		Frozen:   frozen,
		Accurate: accurate,
		Turn:     turn,
	}
}

func TestComputeScoresObjectAndFirstPoints(t *testing.T) {
	boardType := bt(t, 12)
	players := []*types.Player{
		testPlayer(1, 4, 1),
		testPlayer(2, 4, 2),
	}
	theories := []*types.Theory{
		// Player 1 revealed an accurate asteroid claim on sector 0 first.
		theory(1, games.Asteroid, 0, 4, true, true, 1),
		// Player 2 claimed the same sector later, still accurate.
		theory(2, games.Asteroid, 0, 4, true, true, 2),
		// Inaccurate claims never score.
		theory(2, games.Comet, 3, 4, true, false, 2),
		// Unrevealed accurate claim scores only once the game ends.
		theory(2, games.DwarfPlanet, 7, 2, false, true, 5),
	}

	scores := computeScores(players, theories, nil, boardType, false)
	assert.Equal(t, 2+1, scores[1].Total(), "object points plus first bonus")
	assert.Equal(t, 2, scores[2].Total(), "object points without first bonus")

	scores = computeScores(players, theories, nil, boardType, true)
	assert.Equal(t, 3, scores[1].Total())
	assert.Equal(t, 2+4, scores[2].Total(), "dwarf planet claim counts at game end")
}

func TestComputeScoresFirstBonusTieBreak(t *testing.T) {
	boardType := bt(t, 12)
	players := []*types.Player{
		testPlayer(1, 0, 1),
		testPlayer(2, 0, 2),
	}
	// Player 2's claim is younger but has advanced further: depth wins.
	theories := []*types.Theory{
		theory(1, games.Comet, 6, 2, false, true, 4),
		theory(2, games.Comet, 6, 3, false, true, 5),
	}

	scores := computeScores(players, theories, nil, boardType, true)
	assert.Equal(t, 0, scores[1].FirstPoints)
	assert.Equal(t, 1, scores[2].FirstPoints)
}

func TestComputeScoresLocateBonuses(t *testing.T) {
	boardType := bt(t, 12)
	players := []*types.Player{
		testPlayer(1, 9, 1),
		testPlayer(2, 5, 1),
		testPlayer(3, 2, 1),
	}
	now := time.Now()
	history := []types.Turn{
		&types.LocateTurn{
			TurnMeta:   types.TurnMeta{TurnNumber: 8, PlayerID: 1, Time: now},
			Sector:     3,
			Successful: true,
		},
		&types.LocateTurn{
			TurnMeta:   types.TurnMeta{TurnNumber: 9, PlayerID: 2, Time: now},
			Sector:     3,
			Successful: true,
		},
		&types.LocateTurn{
			TurnMeta:   types.TurnMeta{TurnNumber: 9, PlayerID: 3, Time: now},
			Sector:     7,
			Successful: false,
		},
	}

	scores := computeScores(players, nil, history, boardType, true)
	assert.Equal(t, 10, scores[1].PlanetXPoints, "first finder gets the full bonus")
	assert.Equal(t, 2*4, scores[2].PlanetXPoints, "later finder scores by distance behind")
	assert.Equal(t, 0, scores[3].PlanetXPoints, "failed locate scores nothing")
}

func TestKickQuorumReached(t *testing.T) {
	active := func(n int) []*types.Player {
		players := make([]*types.Player, n)
		for i := range players {
			players[i] = testPlayer(int64(i+1), 0, i+1)
		}
		return players
	}
	vote := func(voter int64, inFavor bool) types.KickVote {
		return types.KickVote{KickPlayerID: 99, VotePlayerID: voter, Vote: inFavor}
	}

	tests := []struct {
		name    string
		votes   []types.KickVote
		players []*types.Player
		want    bool
	}{
		{
			name:    "exact half of four",
			votes:   []types.KickVote{vote(1, true), vote(2, true)},
			players: active(4),
			want:    true,
		},
		{
			name:    "below half of four",
			votes:   []types.KickVote{vote(1, true)},
			players: active(4),
			want:    false,
		},
		{
			name:    "two of five is short",
			votes:   []types.KickVote{vote(1, true), vote(2, true)},
			players: active(5),
			want:    false,
		},
		{
			name:    "three of five passes",
			votes:   []types.KickVote{vote(1, true), vote(2, true), vote(3, true)},
			players: active(5),
			want:    true,
		},
		{
			name:    "votes against do not count",
			votes:   []types.KickVote{vote(1, true), vote(2, false)},
			players: active(4),
			want:    false,
		},
		{
			name:    "votes from removed players do not count",
			votes:   []types.KickVote{vote(1, true), vote(77, true)},
			players: active(4),
			want:    false,
		},
		{
			name:    "votes for a different target do not count",
			votes:   []types.KickVote{{KickPlayerID: 3, VotePlayerID: 1, Vote: true}, vote(2, true)},
			players: active(4),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kickQuorumReached(tt.votes, tt.players, 99))
		})
	}
}
