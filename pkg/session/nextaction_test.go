package session

import (
	"testing"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
	"github.com/stretchr/testify/assert"
)

func testPlayer(id int64, sector, arrival int) *types.Player {
	return &types.Player{ID: id, Num: int(id), Sector: sector, Arrival: arrival}
}

func bt(t *testing.T, boardSize int) *games.BoardType {
	t.Helper()
	boardType, err := games.BoardTypeFor(boardSize)
	assert.NoError(t, err)
	return boardType
}

func TestNextAction(t *testing.T) {
	playerTurn := types.Action{Type: types.ActionPlayerTurn, Subject: types.ForPlayer(1), Turn: 3}

	tests := []struct {
		name          string
		players       []*types.Player
		boardSize     int
		currentSector int
		currentAction types.Action
		firstRotation bool
		wantType      types.ActionType
		wantPlayerID  int64
		wantSector    int
		wantFirst     bool
	}{
		{
			name: "game start picks lowest arrival",
			players: []*types.Player{
				testPlayer(1, 0, 2),
				testPlayer(2, 0, 1),
			},
			boardSize:     12,
			currentSector: 0,
			currentAction: types.Action{Type: types.ActionStartGame, Subject: types.ForPlayer(1), Turn: 0},
			firstRotation: true,
			wantType:      types.ActionPlayerTurn,
			wantPlayerID:  2,
			wantSector:    0,
			wantFirst:     true,
		},
		{
			name: "trailing player acts next",
			players: []*types.Player{
				testPlayer(1, 4, 1),
				testPlayer(2, 0, 2),
			},
			boardSize:     12,
			currentSector: 0,
			currentAction: playerTurn,
			firstRotation: false,
			wantType:      types.ActionPlayerTurn,
			wantPlayerID:  2,
			wantSector:    0,
			wantFirst:     false,
		},
		{
			name: "theory checkpoint preempts a farther player",
			players: []*types.Player{
				testPlayer(1, 3, 1),
				testPlayer(2, 5, 2),
			},
			boardSize:     12,
			currentSector: 0,
			currentAction: playerTurn,
			firstRotation: false,
			wantType:      types.ActionTheoryPhase,
			wantSector:    2,
			wantFirst:     false,
		},
		{
			name: "completed theory phase does not re-trigger",
			players: []*types.Player{
				testPlayer(1, 3, 1),
				testPlayer(2, 5, 2),
			},
			boardSize:     12,
			currentSector: 2,
			currentAction: types.Action{Type: types.ActionTheoryPhase, Subject: types.ForAllActive(), Turn: 3},
			firstRotation: false,
			wantType:      types.ActionPlayerTurn,
			wantPlayerID:  1,
			wantSector:    3,
			wantFirst:     false,
		},
		{
			name: "conference preempts during the first rotation",
			players: []*types.Player{
				testPlayer(1, 10, 1),
			},
			boardSize:     18,
			currentSector: 5,
			currentAction: types.Action{Type: types.ActionTheoryPhase, Subject: types.ForAllActive(), Turn: 3},
			firstRotation: true,
			wantType:      types.ActionConferencePhase,
			wantSector:    6,
			wantFirst:     true,
		},
		{
			name: "conference ignored after the first rotation",
			players: []*types.Player{
				testPlayer(1, 7, 1),
			},
			boardSize:     18,
			currentSector: 5,
			currentAction: types.Action{Type: types.ActionTheoryPhase, Subject: types.ForAllActive(), Turn: 3},
			firstRotation: false,
			wantType:      types.ActionPlayerTurn,
			wantPlayerID:  1,
			wantSector:    7,
			wantFirst:     false,
		},
		{
			name: "crossing the start sector ends the first rotation",
			players: []*types.Player{
				testPlayer(1, 9, 1),
			},
			boardSize:     12,
			currentSector: 11,
			currentAction: types.Action{Type: types.ActionTheoryPhase, Subject: types.ForAllActive(), Turn: 3},
			firstRotation: true,
			wantType:      types.ActionTheoryPhase,
			wantSector:    2,
			wantFirst:     false,
		},
		{
			name:          "no active players ends the game",
			players:       nil,
			boardSize:     12,
			currentSector: 4,
			currentAction: playerTurn,
			firstRotation: false,
			wantType:      types.ActionEndGame,
			wantSector:    4,
			wantFirst:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, sector, first := nextAction(tt.players, bt(t, tt.boardSize), tt.currentSector, tt.currentAction, tt.firstRotation)
			assert.Equal(t, tt.wantType, action.Type)
			assert.Equal(t, tt.currentAction.Turn+1, action.Turn)
			assert.Equal(t, tt.wantSector, sector)
			assert.Equal(t, tt.wantFirst, first)
			if tt.wantPlayerID != 0 {
				playerID, ok := action.Subject.Player()
				assert.True(t, ok)
				assert.Equal(t, tt.wantPlayerID, playerID)
			}
		})
	}
}

func TestLargestGap(t *testing.T) {
	tests := []struct {
		name       string
		sectors    []int
		boardSize  int
		current    int
		wantBefore int
		wantAfter  int
	}{
		{
			name:       "single sector owns the whole ring",
			sectors:    []int{5},
			boardSize:  12,
			current:    0,
			wantBefore: 5,
			wantAfter:  5,
		},
		{
			name:       "clear largest gap",
			sectors:    []int{3, 5},
			boardSize:  12,
			current:    0,
			wantBefore: 5,
			wantAfter:  3,
		},
		{
			name:       "tie resolves to nearest ahead of current",
			sectors:    []int{0, 6},
			boardSize:  12,
			current:    0,
			wantBefore: 6,
			wantAfter:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := largestGap(tt.sectors, tt.boardSize, tt.current)
			assert.Equal(t, tt.wantBefore, before)
			assert.Equal(t, tt.wantAfter, after)
		})
	}
}

func TestSectorsBehind(t *testing.T) {
	players := []*types.Player{
		testPlayer(1, 5, 1),
		testPlayer(2, 9, 1),
	}
	assert.Equal(t, 4, sectorsBehind(players, 12, 1))
	assert.Equal(t, 0, sectorsBehind(players, 12, 2))
	assert.Equal(t, 0, sectorsBehind(players, 12, 99))
	assert.Equal(t, 0, sectorsBehind(nil, 12, 1))
}

func TestLastActionTheoryCap(t *testing.T) {
	assert.Equal(t, 1, lastActionTheoryCap(0))
	assert.Equal(t, 1, lastActionTheoryCap(2))
	assert.Equal(t, 2, lastActionTheoryCap(3))
	assert.Equal(t, 2, lastActionTheoryCap(7))
}
