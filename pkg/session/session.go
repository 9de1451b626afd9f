// Package session implements the turn engine: a read-through cache over one
// playthrough's persisted state, the phase transition algorithm, scoring,
// and the manager that validates and applies player intents.
package session

import (
	"context"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
	"github.com/planetxonline/server/pkg/store"
)

// Session caches one game's persisted state for the duration of a logical
// operation. Collections load on first use through the operation's
// Connector, so statements inside a transaction see that transaction's
// writes. Not safe for concurrent use; each operation loads its own.
type Session struct {
	ID            int64
	Code          string
	BoardSize     int
	GameID        int64
	FirstRotation bool
	CurrentSector int
	CurrentAction types.Action

	BoardType *games.BoardType

	st   *store.Store
	conn *store.Connector

	players  []*types.Player
	theories []*types.Theory
	pending  []*types.Action
	history  []types.Turn
	votes    []types.KickVote
	game     *games.Game

	playersLoaded  bool
	theoriesLoaded bool
	pendingLoaded  bool
	historyLoaded  bool
	votesLoaded    bool
}

func fromRow(st *store.Store, c *store.Connector, row *store.SessionRow) (*Session, error) {
	bt, err := games.BoardTypeFor(row.BoardSize)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:            row.ID,
		Code:          row.Code,
		BoardSize:     row.BoardSize,
		GameID:        row.GameID,
		FirstRotation: row.FirstRotation,
		CurrentSector: row.CurrentSector,
		CurrentAction: row.CurrentAction,
		BoardType:     bt,
		st:            st,
		conn:          c,
	}, nil
}

// Load reads a session snapshot by ID through the given Connector.
func Load(ctx context.Context, st *store.Store, c *store.Connector, sessionID int64) (*Session, error) {
	row, err := st.GetSessionByID(ctx, c, sessionID)
	if err != nil {
		return nil, err
	}
	return fromRow(st, c, row)
}

// LoadByCode reads a session snapshot by join code.
func LoadByCode(ctx context.Context, st *store.Store, c *store.Connector, code string) (*Session, error) {
	row, err := st.GetSessionByCode(ctx, c, code)
	if err != nil {
		return nil, err
	}
	return fromRow(st, c, row)
}

// Players returns every seat in the session, kicked ones included.
func (s *Session) Players(ctx context.Context) ([]*types.Player, error) {
	if !s.playersLoaded {
		players, err := s.st.GetPlayersForSession(ctx, s.conn, s.ID)
		if err != nil {
			return nil, err
		}
		s.players = players
		s.playersLoaded = true
	}
	return s.players, nil
}

// ActivePlayers returns the non-kicked seats.
func (s *Session) ActivePlayers(ctx context.Context) ([]*types.Player, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*types.Player, 0, len(players))
	for _, p := range players {
		if !p.Kicked {
			active = append(active, p)
		}
	}
	return active, nil
}

// Player returns one seat by ID, or nil when absent.
func (s *Session) Player(ctx context.Context, playerID int64) (*types.Player, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *Session) Theories(ctx context.Context) ([]*types.Theory, error) {
	if !s.theoriesLoaded {
		theories, err := s.st.GetTheoriesForSession(ctx, s.conn, s.ID)
		if err != nil {
			return nil, err
		}
		s.theories = theories
		s.theoriesLoaded = true
	}
	return s.theories, nil
}

// PendingActions returns the unresolved per-player obligations.
func (s *Session) PendingActions(ctx context.Context) ([]*types.Action, error) {
	if !s.pendingLoaded {
		pending, err := s.st.GetPendingActions(ctx, s.conn, s.ID)
		if err != nil {
			return nil, err
		}
		s.pending = pending
		s.pendingLoaded = true
	}
	return s.pending, nil
}

// History returns the resolved turns in order.
func (s *Session) History(ctx context.Context) ([]types.Turn, error) {
	if !s.historyLoaded {
		history, err := s.st.GetHistory(ctx, s.conn, s.ID)
		if err != nil {
			return nil, err
		}
		s.history = history
		s.historyLoaded = true
	}
	return s.history, nil
}

func (s *Session) KickVotes(ctx context.Context) ([]types.KickVote, error) {
	if !s.votesLoaded {
		votes, err := s.st.GetKickVotesForSession(ctx, s.conn, s.ID)
		if err != nil {
			return nil, err
		}
		s.votes = votes
		s.votesLoaded = true
	}
	return s.votes, nil
}

// Game returns the session's immutable board content.
func (s *Session) Game(ctx context.Context) (*games.Game, error) {
	if s.game == nil {
		game, err := s.st.GetGameByID(ctx, s.conn, s.GameID)
		if err != nil {
			return nil, err
		}
		s.game = game
	}
	return s.game, nil
}

// invalidatePlayers drops the cached players after a write.
func (s *Session) invalidatePlayers() {
	s.players = nil
	s.playersLoaded = false
}

func (s *Session) invalidateTheories() {
	s.theories = nil
	s.theoriesLoaded = false
}

func (s *Session) invalidatePending() {
	s.pending = nil
	s.pendingLoaded = false
}

func (s *Session) invalidateHistory() {
	s.history = nil
	s.historyLoaded = false
}

// NextAction computes the next phase decision from the current snapshot.
func (s *Session) NextAction(ctx context.Context) (types.Action, int, bool, error) {
	active, err := s.ActivePlayers(ctx)
	if err != nil {
		return types.Action{}, 0, false, err
	}
	action, sector, firstRotation := nextAction(active, s.BoardType, s.CurrentSector, s.CurrentAction, s.FirstRotation)
	return action, sector, firstRotation, nil
}

// SectorsBehind reports how far behind the leading edge a player sits.
func (s *Session) SectorsBehind(ctx context.Context, playerID int64) (int, error) {
	active, err := s.ActivePlayers(ctx)
	if err != nil {
		return 0, err
	}
	return sectorsBehind(active, s.BoardType.BoardSize, playerID), nil
}

// Scores recomputes every player's derived score from the snapshot.
func (s *Session) Scores(ctx context.Context) (map[int64]*types.Score, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	theories, err := s.Theories(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	gameOver := s.CurrentAction.Type == types.ActionEndGame
	return computeScores(players, theories, history, s.BoardType, gameOver), nil
}
