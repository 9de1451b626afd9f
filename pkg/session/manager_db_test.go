package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/planetxonline/server/pkg/session/types"
	"github.com/planetxonline/server/pkg/store"
	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.ApplyMigrations(ctx, filepath.Join("..", "..", "migrations", "sqlite")); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return st
}

func seedTestGame(t *testing.T, st *store.Store) {
	t.Helper()
	_, err := st.NewConnector().Exec(context.Background(),
		`INSERT INTO games (game_code, board_size, board_objects, starting_information, research, conference)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		"TEST1", 12, "CAAXGECDGAAE", "ACBD|CG|DCEA|", "ACDN|ADGN|WGEA2", "OXAE")
	if err != nil {
		t.Fatalf("failed to seed game: %v", err)
	}
}

func pendingFor(t *testing.T, st *store.Store, playerID int64) *types.Action {
	t.Helper()
	action, err := st.GetPendingActionForPlayer(context.Background(), nil, playerID)
	assert.NoError(t, err)
	return action
}

func mustTurn(t *testing.T, code string, turnNumber int, playerID int64) types.Turn {
	t.Helper()
	turn, err := types.ParseTurn(code, turnNumber, playerID, time.Now())
	if err != nil {
		t.Fatalf("failed to parse turn %q: %v", code, err)
	}
	return turn
}

func mustTheory(t *testing.T, object string, sector int) *types.Theory {
	t.Helper()
	theory, err := types.ParseTheory(object, sector)
	if err != nil {
		t.Fatalf("failed to parse theory: %v", err)
	}
	return theory
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedTestGame(t, st)
	m := NewManager(NewManagerOptions{Store: st})

	info, err := m.CreateSession(ctx, nil, 12, "Ada")
	assert.NoError(t, err)

	second, out, err := m.JoinSession(ctx, nil, info.SessionCode, "Brahe")
	assert.NoError(t, err)
	assert.True(t, out.Allowed)
	third, out, err := m.JoinSession(ctx, nil, info.SessionCode, "Cassini")
	assert.NoError(t, err)
	assert.True(t, out.Allowed)
	playerIDs := []int64{info.PlayerID, second.PlayerID, third.PlayerID}

	game, err := m.GameView(ctx, nil, info.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, 12, game.Board.Size)
	assert.Len(t, game.Research, 3)
	assert.Len(t, game.Conference, 1)

	out, err = m.StartSession(ctx, nil, info.SessionID, info.PlayerID)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	// Three surveys of four sectors each put everyone at sector 4, so the
	// clock's next stop is the checkpoint at sector 2.
	for i := 0; i < 3; i++ {
		var pending *types.Action
		var actor int64
		for _, id := range playerIDs {
			if a := pendingFor(t, st, id); a != nil {
				pending = a
				actor = id
			}
		}
		if pending == nil {
			t.Fatal("no pending player turn")
		}
		assert.Equal(t, types.ActionPlayerTurn, pending.Type)
		out, err = m.SubmitMove(ctx, nil, info.SessionID, actor, mustTurn(t, "SC0,1,2,3", pending.Turn, actor), 4)
		assert.NoError(t, err)
		assert.True(t, out.Allowed)
	}

	row, err := st.GetSessionByID(ctx, nil, info.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, types.ActionTheoryPhase, row.CurrentAction.Type)
	assert.Equal(t, 2, row.CurrentSector)

	phaseTurn := row.CurrentAction.Turn
	for _, id := range playerIDs {
		a := pendingFor(t, st, id)
		if assert.NotNil(t, a) {
			assert.Equal(t, types.ActionTheoryPhase, a.Type)
			assert.Equal(t, phaseTurn, a.Turn)
		}
	}

	out, err = m.SubmitTheories(ctx, nil, info.SessionID, info.PlayerID,
		[]*types.Theory{mustTheory(t, "C", 0)}, phaseTurn)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	// A duplicate submission finds no pending action and changes nothing.
	out, err = m.SubmitTheories(ctx, nil, info.SessionID, info.PlayerID,
		[]*types.Theory{mustTheory(t, "C", 0)}, phaseTurn)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)
	theories, err := st.GetTheoriesForSession(ctx, nil, info.SessionID)
	assert.NoError(t, err)
	assert.Len(t, theories, 1)

	out, err = m.SubmitTheories(ctx, nil, info.SessionID, second.PlayerID, nil, phaseTurn)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)
	out, err = m.SubmitTheories(ctx, nil, info.SessionID, third.PlayerID, nil, phaseTurn)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	// The phase resolved, so exactly one player turn is pending again.
	var finder int64
	var finderPending *types.Action
	for _, id := range playerIDs {
		if a := pendingFor(t, st, id); a != nil {
			finder = id
			finderPending = a
		}
	}
	if finderPending == nil {
		t.Fatal("no pending player turn after the theory phase")
	}
	assert.Equal(t, types.ActionPlayerTurn, finderPending.Type)

	// Planet X sits at sector 3 between an asteroid and a gas cloud. The
	// successful locate hands everyone else a single final action.
	out, err = m.SubmitMove(ctx, nil, info.SessionID, finder, mustTurn(t, "L0AG3", finderPending.Turn, finder), 1)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	assert.Nil(t, pendingFor(t, st, finder))
	var others []int64
	var lastTurn int
	for _, id := range playerIDs {
		if id == finder {
			continue
		}
		others = append(others, id)
		a := pendingFor(t, st, id)
		if assert.NotNil(t, a) {
			assert.Equal(t, types.ActionLastAction, a.Type)
			lastTurn = a.Turn
		}
	}

	out, err = m.SubmitTheories(ctx, nil, info.SessionID, others[0], nil, lastTurn)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)
	out, err = m.SubmitMove(ctx, nil, info.SessionID, others[1], mustTurn(t, "L0EC1", lastTurn, others[1]), 1)
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	row, err = st.GetSessionByID(ctx, nil, info.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, types.ActionEndGame, row.CurrentAction.Type)

	sess, err := Load(ctx, st, nil, info.SessionID)
	assert.NoError(t, err)
	scores, err := sess.Scores(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 10, scores[finder].PlanetXPoints)
	assert.Equal(t, 0, scores[others[1]].PlanetXPoints)
	assert.Equal(t, 3, scores[info.PlayerID].ObjectPoints["C"])
	assert.Equal(t, 1, scores[info.PlayerID].FirstPoints)
}

func TestOperationsRequireSessionMembership(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedTestGame(t, st)
	m := NewManager(NewManagerOptions{Store: st})

	info, err := m.CreateSession(ctx, nil, 12, "Ada")
	assert.NoError(t, err)
	second, out, err := m.JoinSession(ctx, nil, info.SessionCode, "Brahe")
	assert.NoError(t, err)
	assert.True(t, out.Allowed)
	_, out, err = m.JoinSession(ctx, nil, info.SessionCode, "Cassini")
	assert.NoError(t, err)
	assert.True(t, out.Allowed)

	outsider, err := m.CreateSession(ctx, nil, 12, "Drake")
	assert.NoError(t, err)

	// A majority of one session cannot remove a player of another.
	out, err = m.CastKickVote(ctx, nil, info.SessionID, info.PlayerID, outsider.PlayerID, true)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)
	out, err = m.CastKickVote(ctx, nil, info.SessionID, second.PlayerID, outsider.PlayerID, true)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)
	target, err := st.GetPlayer(ctx, nil, outsider.PlayerID, false)
	assert.NoError(t, err)
	assert.False(t, target.Kicked)

	// An outside creator's pending START_GAME does not open this session.
	out, err = m.StartSession(ctx, nil, info.SessionID, outsider.PlayerID)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)

	out, err = m.SubmitTheories(ctx, nil, info.SessionID, outsider.PlayerID,
		[]*types.Theory{mustTheory(t, "C", 0)}, 0)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)
	theories, err := st.GetTheoriesForSession(ctx, nil, info.SessionID)
	assert.NoError(t, err)
	assert.Empty(t, theories)

	out, err = m.AcknowledgeConference(ctx, nil, info.SessionID, outsider.PlayerID)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)

	out, err = m.SubmitMove(ctx, nil, info.SessionID, outsider.PlayerID, mustTurn(t, "SC0,1,2,3", 0, outsider.PlayerID), 4)
	assert.NoError(t, err)
	assert.False(t, out.Allowed)
}
