package session

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/planetxonline/server/pkg/codec"
	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/log"
	"github.com/planetxonline/server/pkg/session/types"
	"github.com/planetxonline/server/pkg/store"
)

// maxCodeAttempts bounds the join-code collision retry loop.
const maxCodeAttempts = 8

// Manager validates and applies every player intent: it owns the phase
// transitions, the kick-vote protocol and the notification trigger. Every
// public operation accepts an optional externally-owned Connector; a nil
// Connector scopes the operation to its own transaction.
type Manager struct {
	store    *store.Store
	notifier Notifier
}

type NewManagerOptions struct {
	Store *store.Store
	// Notifier may be nil when nothing subscribes to session updates.
	Notifier Notifier
}

func NewManager(opts NewManagerOptions) *Manager {
	return &Manager{
		store:    opts.Store,
		notifier: opts.Notifier,
	}
}

// JoinInfo identifies a freshly seated player.
type JoinInfo struct {
	SessionID   int64  `json:"sessionID"`
	SessionCode string `json:"sessionCode"`
	PlayerID    int64  `json:"playerID"`
	PlayerNum   int    `json:"playerNum"`
}

// CreateSession picks a random game for the board size, creates the
// session under a fresh join code and seats the creator, who receives the
// pending START_GAME action.
func (m *Manager) CreateSession(ctx context.Context, c *store.Connector, boardSize int, creatorName string) (*JoinInfo, error) {
	if _, err := games.BoardTypeFor(boardSize); err != nil {
		return nil, err
	}

	var info *JoinInfo
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		game, err := m.store.PickGame(ctx, c, boardSize)
		if err != nil {
			return err
		}

		var sessionID int64
		var code string
		for attempt := 0; ; attempt++ {
			code, err = codec.EncodeSessionCode(rand.Intn(codec.MaxCode))
			if err != nil {
				return err
			}
			// A savepoint scope per attempt keeps a collision from
			// aborting the surrounding transaction.
			err = m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
				var createErr error
				sessionID, createErr = m.store.CreateSession(ctx, c, code, boardSize, game.ID)
				return createErr
			})
			if err == nil {
				break
			}
			if !store.IsUniqueViolation(err) || attempt+1 >= maxCodeAttempts {
				return err
			}
		}

		creator, err := m.store.CreatePlayer(ctx, c, sessionID, creatorName)
		if err != nil {
			return err
		}
		action := types.Action{Type: types.ActionStartGame, Subject: types.ForPlayer(creator.ID), Turn: 0}
		if err := m.store.CreateAction(ctx, c, sessionID, action.Type, creator.ID, action.Turn); err != nil {
			return err
		}
		if err := m.store.UpdateSessionAction(ctx, c, sessionID, action); err != nil {
			return err
		}

		info = &JoinInfo{
			SessionID:   sessionID,
			SessionCode: code,
			PlayerID:    creator.ID,
			PlayerNum:   creator.Num,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("created session %s (board size %d)", info.SessionCode, boardSize)
	m.notify(ctx, info.SessionID)
	return info, nil
}

// JoinSession seats a new player in a session that has not started yet.
func (m *Manager) JoinSession(ctx context.Context, c *store.Connector, code, name string) (*JoinInfo, Outcome, error) {
	var (
		info *JoinInfo
		out  = allowed()
	)
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := LoadByCode(ctx, m.store, c, code)
		if errors.Is(err, store.ErrNotFound) {
			out = denied("no session with code %s", code)
			return nil
		} else if err != nil {
			return err
		}
		if sess.CurrentAction.Type != types.ActionStartGame {
			out = denied("the game has already started")
			return nil
		}
		players, err := sess.Players(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			if p.Name == name {
				out = denied("the name %s is already taken", name)
				return nil
			}
		}
		player, err := m.store.CreatePlayer(ctx, c, sess.ID, name)
		if err != nil {
			return err
		}
		info = &JoinInfo{
			SessionID:   sess.ID,
			SessionCode: sess.Code,
			PlayerID:    player.ID,
			PlayerNum:   player.Num,
		}
		return nil
	})
	if err != nil || !out.Allowed {
		return nil, out, err
	}
	m.notify(ctx, info.SessionID)
	return info, out, nil
}

// StartSession resolves the creator's START_GAME action: arrivals are
// shuffled and the first turn is decided.
func (m *Manager) StartSession(ctx context.Context, c *store.Connector, sessionID, playerID int64) (Outcome, error) {
	out := allowed()
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := Load(ctx, m.store, c, sessionID)
		if err != nil {
			return err
		}
		if _, check, err := member(ctx, sess, playerID); err != nil {
			return err
		} else if !check.Allowed {
			out = check
			return nil
		}
		pending, err := m.store.GetPendingActionForPlayer(ctx, c, playerID)
		if err != nil {
			return err
		}
		if pending == nil || pending.Type != types.ActionStartGame {
			out = denied("this player cannot start the game")
			return nil
		}

		active, err := sess.ActivePlayers(ctx)
		if err != nil {
			return err
		}
		for i, order := range rand.Perm(len(active)) {
			p := active[i]
			if err := m.store.MovePlayer(ctx, c, p.ID, 0, order+1); err != nil {
				return err
			}
			p.Sector = 0
			p.Arrival = order + 1
		}

		if err := m.store.ResolveAction(ctx, c, pending.ID, nil); err != nil {
			return err
		}
		action, sector, firstRotation, err := sess.NextAction(ctx)
		if err != nil {
			return err
		}
		return m.advanceTo(ctx, c, sess, action, sector, firstRotation)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	log.Info("session %d started by player %d", sessionID, playerID)
	m.notify(ctx, sessionID)
	return out, nil
}

// SubmitMove applies an ordinary turn (survey, target, research) or a
// locate Planet X attempt, advancing the player's position by the move's
// time cost.
func (m *Manager) SubmitMove(ctx context.Context, c *store.Connector, sessionID, playerID int64, turn types.Turn, movementCost int) (Outcome, error) {
	out := allowed()
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := Load(ctx, m.store, c, sessionID)
		if err != nil {
			return err
		}
		player, check, err := member(ctx, sess, playerID)
		if err != nil {
			return err
		}
		if !check.Allowed {
			out = check
			return nil
		}
		pending, err := m.store.GetPendingActionForPlayer(ctx, c, playerID)
		if err != nil {
			return err
		}

		switch turn.Kind() {
		case types.TurnSurvey, types.TurnTarget, types.TurnResearch:
			out = validateIntent(pending, turn.Meta().TurnNumber, types.ActionPlayerTurn)
		case types.TurnLocatePlanetX:
			out = validateIntent(pending, turn.Meta().TurnNumber, types.ActionPlayerTurn, types.ActionLastAction)
		default:
			out = denied("turn kind %s is not a movement intent", turn.Kind())
		}
		if !out.Allowed {
			return nil
		}

		if turn.Kind() == types.TurnTarget {
			history, err := sess.History(ctx)
			if err != nil {
				return err
			}
			targets := 0
			for _, past := range history {
				if past.Kind() == types.TurnTarget && past.Meta().PlayerID == playerID {
					targets++
				}
			}
			if targets >= sess.BoardType.TargetQuota {
				out = denied("target quota of %d is exhausted", sess.BoardType.TargetQuota)
				return nil
			}
		}

		turn.Meta().PlayerID = playerID
		if turn.Meta().Time.IsZero() {
			turn.Meta().Time = time.Now()
		}

		locate, isLocate := turn.(*types.LocateTurn)
		if isLocate {
			game, err := sess.Game(ctx)
			if err != nil {
				return err
			}
			locate.Successful = checkLocate(game.Board, locate)
		}

		if err := m.store.ResolveAction(ctx, c, pending.ID, turn); err != nil {
			return err
		}
		sess.invalidateHistory()

		if err := m.movePlayerForward(ctx, c, sess, player, movementCost); err != nil {
			return err
		}

		// A successful mid-game locate ends the round: everyone else gets
		// one last action, or the game ends on the spot for a lone player.
		if isLocate && locate.Successful && pending.Type == types.ActionPlayerTurn {
			return m.beginLastActions(ctx, c, sess, playerID)
		}
		return m.maybeAdvancePhase(ctx, c, sess)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	m.notify(ctx, sessionID)
	return out, nil
}

// SubmitTheories applies a theory phase or last action submission.
func (m *Manager) SubmitTheories(ctx context.Context, c *store.Connector, sessionID, playerID int64, submitted []*types.Theory, claimedTurn int) (Outcome, error) {
	out := allowed()
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := Load(ctx, m.store, c, sessionID)
		if err != nil {
			return err
		}
		if _, check, err := member(ctx, sess, playerID); err != nil {
			return err
		} else if !check.Allowed {
			out = check
			return nil
		}
		pending, err := m.store.GetPendingActionForPlayer(ctx, c, playerID)
		if err != nil {
			return err
		}
		out = validateIntent(pending, claimedTurn, types.ActionTheoryPhase, types.ActionLastAction)
		if !out.Allowed {
			return nil
		}

		maxTheories := sess.BoardType.TheoriesPerTurn
		if pending.Type == types.ActionLastAction {
			behind, err := sess.SectorsBehind(ctx, playerID)
			if err != nil {
				return err
			}
			maxTheories = lastActionTheoryCap(behind)
		}

		existing, err := sess.Theories(ctx)
		if err != nil {
			return err
		}
		out = validateTheories(existing, submitted, playerID, sess.BoardType, maxTheories)
		if !out.Allowed {
			return nil
		}

		game, err := sess.Game(ctx)
		if err != nil {
			return err
		}
		for _, t := range submitted {
			t.PlayerID = playerID
			t.Turn = claimedTurn
			t.SetAccuracy(game.Board)
			if err := m.store.CreateTheory(ctx, c, sess.ID, t); err != nil {
				return err
			}
		}
		sess.invalidateTheories()

		record := &types.TheoryTurn{
			TurnMeta: types.TurnMeta{TurnNumber: claimedTurn, PlayerID: playerID, Time: time.Now()},
			Theories: submitted,
		}
		if err := m.store.ResolveAction(ctx, c, pending.ID, record); err != nil {
			return err
		}
		sess.invalidateHistory()
		return m.maybeAdvancePhase(ctx, c, sess)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	m.notify(ctx, sessionID)
	return out, nil
}

// AcknowledgeConference resolves a player's pending conference action.
func (m *Manager) AcknowledgeConference(ctx context.Context, c *store.Connector, sessionID, playerID int64) (Outcome, error) {
	out := allowed()
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := Load(ctx, m.store, c, sessionID)
		if err != nil {
			return err
		}
		if _, check, err := member(ctx, sess, playerID); err != nil {
			return err
		} else if !check.Allowed {
			out = check
			return nil
		}
		pending, err := m.store.GetPendingActionForPlayer(ctx, c, playerID)
		if err != nil {
			return err
		}
		if pending == nil || pending.Type != types.ActionConferencePhase {
			out = denied("no conference is pending for this player")
			return nil
		}

		index := 0
		for i, sector := range sess.BoardType.ConferencePhases {
			if sector == sess.CurrentSector {
				index = i
			}
		}
		record := &types.ConferenceTurn{
			TurnMeta: types.TurnMeta{TurnNumber: pending.Turn, PlayerID: playerID, Time: time.Now()},
			Index:    index,
		}
		if err := m.store.ResolveAction(ctx, c, pending.ID, record); err != nil {
			return err
		}
		sess.invalidateHistory()
		return m.maybeAdvancePhase(ctx, c, sess)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	m.notify(ctx, sessionID)
	return out, nil
}

// CastKickVote records one vote and removes the target when the standing
// votes in favor reach half the active player count. The two player rows
// are locked for the whole check-act sequence.
func (m *Manager) CastKickVote(ctx context.Context, c *store.Connector, sessionID, voterID, targetID int64, vote bool) (Outcome, error) {
	if voterID == targetID {
		return denied("players cannot vote to remove themselves"), nil
	}

	out := allowed()
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		sess, err := Load(ctx, m.store, c, sessionID)
		if err != nil {
			return err
		}
		for _, id := range []int64{voterID, targetID} {
			if _, check, err := member(ctx, sess, id); err != nil {
				return err
			} else if !check.Allowed {
				out = check
				return nil
			}
		}

		// Lock in ID order so concurrent votes cannot deadlock.
		ids := []int64{voterID, targetID}
		if ids[0] > ids[1] {
			ids[0], ids[1] = ids[1], ids[0]
		}
		for _, id := range ids {
			p, err := m.store.GetPlayer(ctx, c, id, true)
			if errors.Is(err, store.ErrNotFound) {
				out = denied("unknown player")
				return nil
			} else if err != nil {
				return err
			}
			if p.Kicked {
				out = denied("player %s has already been removed", p.Name)
				return nil
			}
		}

		if err := m.store.UpsertKickVote(ctx, c, sessionID, targetID, voterID, vote); err != nil {
			return err
		}
		if !vote {
			return nil
		}

		votes, err := m.store.GetKickVotesForSession(ctx, c, sessionID)
		if err != nil {
			return err
		}
		active, err := sess.ActivePlayers(ctx)
		if err != nil {
			return err
		}
		if !kickQuorumReached(votes, active, targetID) {
			return nil
		}

		if err := m.store.SetPlayerKicked(ctx, c, targetID); err != nil {
			return err
		}
		if err := m.store.DeletePendingActions(ctx, c, targetID); err != nil {
			return err
		}
		sess.invalidatePlayers()
		sess.invalidatePending()
		log.Info("player %d kicked from session %d", targetID, sessionID)
		return m.repairAfterKick(ctx, c, sess, targetID)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	m.notify(ctx, sessionID)
	return out, nil
}

// repairAfterKick patches up game state the removal may have broken: a
// kicked creator's START_GAME moves to a random remaining player, a kicked
// player's open turn passes on, and a phase whose last holdout was the
// kicked player advances.
func (m *Manager) repairAfterKick(ctx context.Context, c *store.Connector, sess *Session, kickedID int64) error {
	holder, held := sess.CurrentAction.Subject.Player()

	if sess.CurrentAction.Type == types.ActionStartGame {
		if !held || holder != kickedID {
			return nil
		}
		active, err := sess.ActivePlayers(ctx)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return nil
		}
		next := active[rand.Intn(len(active))]
		action := types.Action{Type: types.ActionStartGame, Subject: types.ForPlayer(next.ID), Turn: sess.CurrentAction.Turn}
		if err := m.store.CreateAction(ctx, c, sess.ID, action.Type, next.ID, action.Turn); err != nil {
			return err
		}
		if err := m.store.UpdateSessionAction(ctx, c, sess.ID, action); err != nil {
			return err
		}
		sess.CurrentAction = action
		sess.invalidatePending()
		return nil
	}

	if held && holder == kickedID {
		action, sector, firstRotation, err := sess.NextAction(ctx)
		if err != nil {
			return err
		}
		return m.advanceTo(ctx, c, sess, action, sector, firstRotation)
	}
	return m.maybeAdvancePhase(ctx, c, sess)
}

// SetPlayerColor claims a color, unique per session.
func (m *Manager) SetPlayerColor(ctx context.Context, c *store.Connector, playerID int64, color string) (Outcome, error) {
	out := allowed()
	var sessionID int64
	err := m.store.WithTransaction(ctx, c, func(c *store.Connector) error {
		var err error
		sessionID, err = m.store.GetPlayerSession(ctx, c, playerID)
		if errors.Is(err, store.ErrNotFound) {
			out = denied("unknown player")
			return nil
		} else if err != nil {
			return err
		}
		players, err := m.store.GetPlayersForSession(ctx, c, sessionID)
		if err != nil {
			return err
		}
		for _, p := range players {
			if p.ID != playerID && p.Color != nil && *p.Color == color {
				out = denied("the color %s is already taken", color)
				return nil
			}
		}
		return m.store.SetPlayerColor(ctx, c, playerID, color)
	})
	if err != nil || !out.Allowed {
		return out, err
	}
	m.notify(ctx, sessionID)
	return out, nil
}

// SetPlayerConnected flips a player's liveness flag.
func (m *Manager) SetPlayerConnected(ctx context.Context, c *store.Connector, playerID int64, connected bool) error {
	sessionID, err := m.store.GetPlayerSession(ctx, c, playerID)
	if err != nil {
		return err
	}
	if err := m.store.SetPlayerConnected(ctx, c, playerID, connected); err != nil {
		return err
	}
	m.notify(ctx, sessionID)
	return nil
}

// SessionView builds the subscriber projection for one session.
func (m *Manager) SessionView(ctx context.Context, c *store.Connector, sessionID int64) (*View, error) {
	sess, err := Load(ctx, m.store, c, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.BuildView(ctx)
}

// GameView builds the static content projection for one session: the board,
// the research and conference rules and the seasonal starting clues.
func (m *Manager) GameView(ctx context.Context, c *store.Connector, sessionID int64) (*games.GameView, error) {
	sess, err := Load(ctx, m.store, c, sessionID)
	if err != nil {
		return nil, err
	}
	game, err := sess.Game(ctx)
	if err != nil {
		return nil, err
	}
	return game.View(), nil
}

// member resolves a player ID against the session's own seats. IDs from
// other sessions deny the intent before any foreign row is touched.
func member(ctx context.Context, sess *Session, playerID int64) (*types.Player, Outcome, error) {
	player, err := sess.Player(ctx, playerID)
	if err != nil {
		return nil, allowed(), err
	}
	if player == nil {
		return nil, denied("player %d is not part of this session", playerID), nil
	}
	return player, allowed(), nil
}

// checkLocate verifies a locate claim against the board: Planet X at the
// claimed sector with the claimed objects on either side.
func checkLocate(board *games.Board, locate *types.LocateTurn) bool {
	return board.ObjectAt(locate.Sector) == games.PlanetX &&
		board.ObjectAt(locate.Sector-1).Initial == locate.LeftObject.Initial &&
		board.ObjectAt(locate.Sector+1).Initial == locate.RightObject.Initial
}

// movePlayerForward advances a player around the ring, arriving after
// everyone already standing on the destination sector.
func (m *Manager) movePlayerForward(ctx context.Context, c *store.Connector, sess *Session, player *types.Player, sectors int) error {
	if sectors <= 0 {
		return nil
	}
	n := sess.BoardType.BoardSize
	newSector := (player.Sector + sectors) % n
	players, err := sess.Players(ctx)
	if err != nil {
		return err
	}
	arrival := 1
	for _, p := range players {
		if p.ID != player.ID && !p.Kicked && p.Sector == newSector && p.Arrival >= arrival {
			arrival = p.Arrival + 1
		}
	}
	if err := m.store.MovePlayer(ctx, c, player.ID, newSector, arrival); err != nil {
		return err
	}
	player.Sector = newSector
	player.Arrival = arrival
	return nil
}

// beginLastActions gives every other active player a LAST_ACTION, or ends
// the game when the finder was alone.
func (m *Manager) beginLastActions(ctx context.Context, c *store.Connector, sess *Session, finderID int64) error {
	active, err := sess.ActivePlayers(ctx)
	if err != nil {
		return err
	}
	others := make([]*types.Player, 0, len(active))
	for _, p := range active {
		if p.ID != finderID {
			others = append(others, p)
		}
	}

	turn := sess.CurrentAction.Turn + 1
	if len(others) == 0 {
		action := types.Action{Type: types.ActionEndGame, Subject: types.ForAllActive(), Turn: turn}
		return m.advanceTo(ctx, c, sess, action, sess.CurrentSector, sess.FirstRotation)
	}

	action := types.Action{Type: types.ActionLastAction, Subject: types.ForAllActive(), Turn: turn}
	for _, p := range others {
		if err := m.store.CreateAction(ctx, c, sess.ID, action.Type, p.ID, turn); err != nil {
			return err
		}
	}
	if err := m.store.UpdateSessionStatus(ctx, c, sess.ID, action, sess.CurrentSector, sess.FirstRotation); err != nil {
		return err
	}
	sess.CurrentAction = action
	sess.invalidatePending()
	return nil
}

// maybeAdvancePhase re-reads the pending set and, when the phase has fully
// resolved, runs its post-processing and persists the next decision. The
// re-read happens inside the caller's transaction, so only one resolver
// can observe the empty set and cross into the transition.
func (m *Manager) maybeAdvancePhase(ctx context.Context, c *store.Connector, sess *Session) error {
	sess.invalidatePending()
	pending, err := sess.PendingActions(ctx)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return nil
	}

	switch sess.CurrentAction.Type {
	case types.ActionEndGame:
		return nil
	case types.ActionLastAction:
		action := types.Action{Type: types.ActionEndGame, Subject: types.ForAllActive(), Turn: sess.CurrentAction.Turn + 1}
		return m.advanceTo(ctx, c, sess, action, sess.CurrentSector, sess.FirstRotation)
	case types.ActionTheoryPhase:
		if err := m.advanceTheories(ctx, c, sess); err != nil {
			return err
		}
	}

	action, sector, firstRotation, err := sess.NextAction(ctx)
	if err != nil {
		return err
	}
	return m.advanceTo(ctx, c, sess, action, sector, firstRotation)
}

// advanceTo persists a phase decision: the pending rows it fans out to and
// the session's new status, in the caller's transaction.
func (m *Manager) advanceTo(ctx context.Context, c *store.Connector, sess *Session, action types.Action, sector int, firstRotation bool) error {
	if action.Type != types.ActionEndGame {
		if playerID, ok := action.Subject.Player(); ok {
			if err := m.store.CreateAction(ctx, c, sess.ID, action.Type, playerID, action.Turn); err != nil {
				return err
			}
		} else {
			active, err := sess.ActivePlayers(ctx)
			if err != nil {
				return err
			}
			for _, p := range active {
				if err := m.store.CreateAction(ctx, c, sess.ID, action.Type, p.ID, action.Turn); err != nil {
					return err
				}
			}
		}
	}
	if err := m.store.UpdateSessionStatus(ctx, c, sess.ID, action, sector, firstRotation); err != nil {
		return err
	}
	sess.CurrentAction = action
	sess.CurrentSector = sector
	sess.FirstRotation = firstRotation
	sess.invalidatePending()
	return nil
}

// advanceTheories runs the end-of-theory-phase bookkeeping: the time
// penalty for wrong claims reaching their reveal, then the progress tick
// and the freezes it causes.
//
// Movement amounts come from the pre-movement snapshot and are applied in
// a fixed order, furthest ahead of the clock first, so reruns of the same
// state replay identically.
func (m *Manager) advanceTheories(ctx context.Context, c *store.Connector, sess *Session) error {
	theories, err := sess.Theories(ctx)
	if err != nil {
		return err
	}
	moves := make(map[int64]int)
	for _, t := range theories {
		if !t.Frozen && !t.Accurate && t.Progress == types.TheoryMaxProgress-1 {
			moves[t.PlayerID]++
		}
	}

	active, err := sess.ActivePlayers(ctx)
	if err != nil {
		return err
	}
	n := sess.BoardType.BoardSize
	order := make([]*types.Player, len(active))
	copy(order, active)
	sort.SliceStable(order, func(i, j int) bool {
		di := ((order[i].Sector - sess.CurrentSector) % n + n) % n
		dj := ((order[j].Sector - sess.CurrentSector) % n + n) % n
		if di != dj {
			return di > dj
		}
		return order[i].Arrival > order[j].Arrival
	})
	for _, p := range order {
		if moves[p.ID] > 0 {
			if err := m.movePlayerForward(ctx, c, sess, p, moves[p.ID]); err != nil {
				return err
			}
		}
	}

	if err := m.store.AdvanceTheories(ctx, c, sess.ID); err != nil {
		return err
	}
	sess.invalidateTheories()
	theories, err = sess.Theories(ctx)
	if err != nil {
		return err
	}

	for _, t := range theories {
		if !t.Frozen && t.Progress >= types.TheoryMaxProgress {
			if err := m.store.FreezeTheory(ctx, c, t.ID); err != nil {
				return err
			}
			t.Frozen = true
		}
	}
	public := make(map[int]bool)
	for _, t := range theories {
		if t.Frozen && t.Accurate {
			public[t.Sector] = true
		}
	}
	for _, t := range theories {
		if !t.Frozen && public[t.Sector] {
			if err := m.store.FreezeTheory(ctx, c, t.ID); err != nil {
				return err
			}
			t.Frozen = true
		}
	}
	return nil
}

// notify publishes the refreshed view after a committed change. Failures
// are logged, never surfaced: delivery is best effort.
func (m *Manager) notify(ctx context.Context, sessionID int64) {
	if m.notifier == nil {
		return
	}
	view, err := m.SessionView(ctx, nil, sessionID)
	if err != nil {
		log.Error("failed to build view for session %d: %v", sessionID, err)
		return
	}
	m.notifier.PublishSession(ctx, view)
}
