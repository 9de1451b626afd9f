package session

import (
	"testing"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
	"github.com/stretchr/testify/assert"
)

func TestValidateIntent(t *testing.T) {
	pending := &types.Action{ID: 10, Type: types.ActionPlayerTurn, Subject: types.ForPlayer(1), Turn: 5}

	tests := []struct {
		name        string
		pending     *types.Action
		claimedTurn int
		accepts     []types.ActionType
		wantAllowed bool
	}{
		{
			name:        "matching turn and type",
			pending:     pending,
			claimedTurn: 5,
			accepts:     []types.ActionType{types.ActionPlayerTurn},
			wantAllowed: true,
		},
		{
			name:        "second accepted type matches",
			pending:     pending,
			claimedTurn: 5,
			accepts:     []types.ActionType{types.ActionLastAction, types.ActionPlayerTurn},
			wantAllowed: true,
		},
		{
			name:        "nothing pending",
			pending:     nil,
			claimedTurn: 5,
			accepts:     []types.ActionType{types.ActionPlayerTurn},
		},
		{
			name:        "stale turn",
			pending:     pending,
			claimedTurn: 4,
			accepts:     []types.ActionType{types.ActionPlayerTurn},
		},
		{
			name:        "wrong action type",
			pending:     pending,
			claimedTurn: 5,
			accepts:     []types.ActionType{types.ActionTheoryPhase},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := validateIntent(tt.pending, tt.claimedTurn, tt.accepts...)
			assert.Equal(t, tt.wantAllowed, out.Allowed)
			if !tt.wantAllowed {
				assert.NotEmpty(t, out.Reason)
			}
		})
	}
}

func TestValidateTheories(t *testing.T) {
	boardType := bt(t, 12)

	tests := []struct {
		name        string
		existing    []*types.Theory
		submitted   []*types.Theory
		maxTheories int
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "empty submission passes",
			maxTheories: 1,
			wantAllowed: true,
		},
		{
			name: "simple claim passes",
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 3},
			},
			maxTheories: 1,
			wantAllowed: true,
		},
		{
			name: "over the cap",
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 3},
				{Object: games.Comet, Sector: 4},
			},
			maxTheories: 1,
			wantReason:  "at most 1 theories may be submitted",
		},
		{
			name: "planet x is not scoreable",
			submitted: []*types.Theory{
				{Object: games.PlanetX, Sector: 3},
			},
			maxTheories: 1,
			wantReason:  "cannot submit a theory about Planet X",
		},
		{
			name: "sector off the board",
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 12},
			},
			maxTheories: 1,
			wantReason:  "sector 12 is not on the board",
		},
		{
			name: "sector already revealed accurate",
			existing: []*types.Theory{
				theory(2, games.Comet, 3, 4, true, true, 1),
			},
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 3},
			},
			maxTheories: 1,
			wantReason:  "sector 4 is already revealed",
		},
		{
			name: "duplicate of an own standing claim",
			existing: []*types.Theory{
				theory(1, games.Asteroid, 3, 2, false, true, 1),
			},
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 3},
			},
			maxTheories: 1,
			wantReason:  "duplicate theory for sector 4",
		},
		{
			name: "duplicate inside one submission",
			submitted: []*types.Theory{
				{Object: games.Asteroid, Sector: 3},
				{Object: games.Asteroid, Sector: 3},
			},
			maxTheories: 2,
			wantReason:  "duplicate theory for sector 4",
		},
		{
			name: "too many claims on one object type",
			existing: []*types.Theory{
				theory(1, games.DwarfPlanet, 2, 2, false, false, 1),
			},
			submitted: []*types.Theory{
				{Object: games.DwarfPlanet, Sector: 6},
			},
			maxTheories: 1,
			wantReason:  "too many active theories for dwarf planets",
		},
		{
			name: "disproven claim frees its object slot",
			existing: []*types.Theory{
				theory(1, games.DwarfPlanet, 2, 4, true, false, 1),
			},
			submitted: []*types.Theory{
				{Object: games.DwarfPlanet, Sector: 6},
			},
			maxTheories: 1,
			wantAllowed: true,
		},
		{
			name: "other players do not consume the slot",
			existing: []*types.Theory{
				theory(2, games.DwarfPlanet, 2, 2, false, false, 1),
			},
			submitted: []*types.Theory{
				{Object: games.DwarfPlanet, Sector: 6},
			},
			maxTheories: 1,
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := validateTheories(tt.existing, tt.submitted, 1, boardType, tt.maxTheories)
			assert.Equal(t, tt.wantAllowed, out.Allowed)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, out.Reason)
			}
		})
	}
}
