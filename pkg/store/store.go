package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
)

// WithTransaction runs fn inside a transaction scope on c (nested via
// savepoint when the caller already opened one), committing on success and
// rolling back before any error surfaces. A nil Connector gets a single-use
// one scoped to this call.
func (s *Store) WithTransaction(ctx context.Context, c *Connector, fn func(c *Connector) error) error {
	c = s.connector(c)
	if err := c.StartTransaction(ctx); err != nil {
		return err
	}
	if err := fn(c); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return c.Commit(ctx)
}

func scanGame(row *sql.Row) (*games.Game, error) {
	var (
		id                                              int64
		code, board, startingInfo, research, conference string
	)
	if err := row.Scan(&id, &code, &board, &startingInfo, &research, &conference); err != nil {
		return nil, err
	}
	return games.ParseGame(id, code, board, startingInfo, research, conference)
}

// PickGame selects a random game for the board size. Uniqueness across
// sessions is not required.
func (s *Store) PickGame(ctx context.Context, c *Connector, boardSize int) (*games.Game, error) {
	c = s.connector(c)
	row := c.QueryRow(ctx,
		`SELECT id, game_code, board_objects, starting_information, research, conference
		   FROM games WHERE board_size = $1 ORDER BY RANDOM() LIMIT 1`, boardSize)
	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to pick game for board size %d: %w", boardSize, err)
	}
	return game, nil
}

// GetGameByID loads one game's content.
func (s *Store) GetGameByID(ctx context.Context, c *Connector, gameID int64) (*games.Game, error) {
	c = s.connector(c)
	row := c.QueryRow(ctx,
		`SELECT id, game_code, board_objects, starting_information, research, conference
		   FROM games WHERE id = $1`, gameID)
	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}
	return game, nil
}

// SessionRow is the persisted state of one session.
type SessionRow struct {
	ID            int64
	Code          string
	BoardSize     int
	GameID        int64
	FirstRotation bool
	CurrentSector int
	CurrentAction types.Action
}

func scanSessionRow(row *sql.Row) (*SessionRow, error) {
	var (
		sr           SessionRow
		actionType   string
		actionPlayer sql.NullInt64
		currentTurn  int
	)
	if err := row.Scan(&sr.ID, &sr.Code, &sr.BoardSize, &sr.GameID, &sr.FirstRotation,
		&sr.CurrentSector, &actionType, &actionPlayer, &currentTurn); err != nil {
		return nil, err
	}
	parsedType, err := types.ParseActionType(actionType)
	if err != nil {
		return nil, err
	}
	subject := types.ForAllActive()
	if actionPlayer.Valid {
		subject = types.ForPlayer(actionPlayer.Int64)
	}
	sr.CurrentAction = types.Action{Type: parsedType, Subject: subject, Turn: currentTurn}
	return &sr, nil
}

const sessionColumns = `id, session_code, board_size, game_id, first_rotation,
	current_sector, current_action, action_player, current_turn`

// ErrNotFound reports a lookup that matched no row.
var ErrNotFound = errors.New("not found")

func (s *Store) GetSessionByID(ctx context.Context, c *Connector, sessionID int64) (*SessionRow, error) {
	c = s.connector(c)
	row := c.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, sessionID)
	sr, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}
	return sr, nil
}

func (s *Store) GetSessionByCode(ctx context.Context, c *Connector, code string) (*SessionRow, error) {
	c = s.connector(c)
	row := c.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_code = $1`, code)
	sr, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", code, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", code, err)
	}
	return sr, nil
}

// CreateSession inserts a new session waiting on START_GAME. The join code
// has a uniqueness constraint; callers retry with a fresh code on conflict.
func (s *Store) CreateSession(ctx context.Context, c *Connector, code string, boardSize int, gameID int64) (int64, error) {
	c = s.connector(c)
	var id int64
	err := c.QueryRow(ctx,
		`INSERT INTO sessions (session_code, board_size, game_id, first_rotation, current_sector, current_action, action_player, current_turn)
		 VALUES ($1, $2, $3, TRUE, 0, $4, NULL, 0) RETURNING id`,
		code, boardSize, gameID, string(types.ActionStartGame)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// UpdateSessionStatus persists the phase decision: next action, clock
// sector and rotation flag, atomically with the caller's transaction.
func (s *Store) UpdateSessionStatus(ctx context.Context, c *Connector, sessionID int64, action types.Action, currentSector int, firstRotation bool) error {
	c = s.connector(c)
	var actionPlayer sql.NullInt64
	if playerID, ok := action.Subject.Player(); ok {
		actionPlayer = sql.NullInt64{Int64: playerID, Valid: true}
	}
	_, err := c.Exec(ctx,
		`UPDATE sessions SET first_rotation = $1, current_sector = $2,
		 current_action = $3, action_player = $4, current_turn = $5 WHERE id = $6`,
		firstRotation, currentSector, string(action.Type), actionPlayer, action.Turn, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session %d status: %w", sessionID, err)
	}
	return nil
}

// UpdateSessionAction persists a new current action without touching the
// clock sector or rotation flag.
func (s *Store) UpdateSessionAction(ctx context.Context, c *Connector, sessionID int64, action types.Action) error {
	c = s.connector(c)
	var actionPlayer sql.NullInt64
	if playerID, ok := action.Subject.Player(); ok {
		actionPlayer = sql.NullInt64{Int64: playerID, Valid: true}
	}
	_, err := c.Exec(ctx,
		`UPDATE sessions SET current_action = $1, action_player = $2, current_turn = $3 WHERE id = $4`,
		string(action.Type), actionPlayer, action.Turn, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session %d action: %w", sessionID, err)
	}
	return nil
}

const playerColumns = `id, session_id, num, name, color, sector, arrival, kicked, connected`

func scanPlayer(scan func(dest ...interface{}) error) (*types.Player, error) {
	var (
		p         types.Player
		sessionID int64
		color     sql.NullString
	)
	if err := scan(&p.ID, &sessionID, &p.Num, &p.Name, &color, &p.Sector, &p.Arrival, &p.Kicked, &p.Connected); err != nil {
		return nil, err
	}
	if color.Valid {
		p.Color = &color.String
	}
	return &p, nil
}

// CreatePlayer seats a new player: next free seat number, sector 0,
// arrival after everyone already seated.
func (s *Store) CreatePlayer(ctx context.Context, c *Connector, sessionID int64, name string) (*types.Player, error) {
	c = s.connector(c)
	var num int
	if err := c.QueryRow(ctx,
		`SELECT COALESCE(MAX(num), 0) + 1 FROM players WHERE session_id = $1`, sessionID).Scan(&num); err != nil {
		return nil, fmt.Errorf("failed to count players in session %d: %w", sessionID, err)
	}
	var id int64
	err := c.QueryRow(ctx,
		`INSERT INTO players (session_id, num, name, sector, arrival, kicked, connected)
		 VALUES ($1, $2, $3, 0, $2, FALSE, TRUE) RETURNING id`,
		sessionID, num, name).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return &types.Player{ID: id, Num: num, Name: name, Arrival: num, Connected: true}, nil
}

func (s *Store) GetPlayersForSession(ctx context.Context, c *Connector, sessionID int64) ([]*types.Player, error) {
	c = s.connector(c)
	rows, err := c.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE session_id = $1 ORDER BY num`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var players []*types.Player
	for rows.Next() {
		p, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayer loads one player, optionally locking the row for the rest of
// the caller's transaction.
func (s *Store) GetPlayer(ctx context.Context, c *Connector, playerID int64, lock bool) (*types.Player, error) {
	c = s.connector(c)
	q := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	if lock {
		q += s.forUpdate()
	}
	p, err := scanPlayer(c.QueryRow(ctx, q, playerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	return p, nil
}

// GetPlayerSession returns the session a player belongs to.
func (s *Store) GetPlayerSession(ctx context.Context, c *Connector, playerID int64) (int64, error) {
	c = s.connector(c)
	var sessionID int64
	err := c.QueryRow(ctx, `SELECT session_id FROM players WHERE id = $1`, playerID).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	} else if err != nil {
		return 0, fmt.Errorf("failed to load player %d session: %w", playerID, err)
	}
	return sessionID, nil
}

// MovePlayer places a player at a sector with the given arrival rank.
func (s *Store) MovePlayer(ctx context.Context, c *Connector, playerID int64, sector, arrival int) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `UPDATE players SET sector = $1, arrival = $2 WHERE id = $3`, sector, arrival, playerID)
	if err != nil {
		return fmt.Errorf("failed to move player %d: %w", playerID, err)
	}
	return nil
}

func (s *Store) SetPlayerColor(ctx context.Context, c *Connector, playerID int64, color string) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `UPDATE players SET color = $1 WHERE id = $2`, color, playerID)
	if err != nil {
		return fmt.Errorf("failed to set player %d color: %w", playerID, err)
	}
	return nil
}

func (s *Store) SetPlayerConnected(ctx context.Context, c *Connector, playerID int64, connected bool) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `UPDATE players SET connected = $1 WHERE id = $2`, connected, playerID)
	if err != nil {
		return fmt.Errorf("failed to set player %d connected: %w", playerID, err)
	}
	return nil
}

func (s *Store) SetPlayerKicked(ctx context.Context, c *Connector, playerID int64) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `UPDATE players SET kicked = TRUE WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("failed to kick player %d: %w", playerID, err)
	}
	return nil
}

// CreateTheory records a submitted theory with its accuracy fixed at
// submission time.
func (s *Store) CreateTheory(ctx context.Context, c *Connector, sessionID int64, t *types.Theory) error {
	c = s.connector(c)
	err := c.QueryRow(ctx,
		`INSERT INTO theories (session_id, player_id, object, sector, progress, frozen, accurate, turn)
		 VALUES ($1, $2, $3, $4, 0, FALSE, $5, $6) RETURNING id`,
		sessionID, t.PlayerID, t.Object.Initial, t.Sector, t.Accurate, t.Turn).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create theory: %w", err)
	}
	return nil
}

func (s *Store) GetTheoriesForSession(ctx context.Context, c *Connector, sessionID int64) ([]*types.Theory, error) {
	c = s.connector(c)
	rows, err := c.Query(ctx,
		`SELECT id, player_id, object, sector, progress, frozen, accurate, turn
		   FROM theories WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query theories for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var theories []*types.Theory
	for rows.Next() {
		var (
			t       types.Theory
			initial string
		)
		if err := rows.Scan(&t.ID, &t.PlayerID, &initial, &t.Sector, &t.Progress, &t.Frozen, &t.Accurate, &t.Turn); err != nil {
			return nil, fmt.Errorf("failed to scan theory: %w", err)
		}
		obj, err := games.ParseSpaceObject(initial)
		if err != nil {
			return nil, err
		}
		t.Object = obj
		theories = append(theories, &t)
	}
	return theories, rows.Err()
}

// AdvanceTheories increments progress on every live theory in the session.
func (s *Store) AdvanceTheories(ctx context.Context, c *Connector, sessionID int64) error {
	c = s.connector(c)
	_, err := c.Exec(ctx,
		`UPDATE theories SET progress = progress + 1
		  WHERE session_id = $1 AND frozen = FALSE AND progress < $2`,
		sessionID, types.TheoryMaxProgress)
	if err != nil {
		return fmt.Errorf("failed to advance theories for session %d: %w", sessionID, err)
	}
	return nil
}

// FreezeTheory stops a theory's progress for good.
func (s *Store) FreezeTheory(ctx context.Context, c *Connector, theoryID int64) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `UPDATE theories SET frozen = TRUE WHERE id = $1`, theoryID)
	if err != nil {
		return fmt.Errorf("failed to freeze theory %d: %w", theoryID, err)
	}
	return nil
}

// CreateAction inserts one pending obligation for a player.
func (s *Store) CreateAction(ctx context.Context, c *Connector, sessionID int64, actionType types.ActionType, playerID int64, turn int) error {
	c = s.connector(c)
	_, err := c.Exec(ctx,
		`INSERT INTO actions (session_id, action_type, player_id, turn, resolved)
		 VALUES ($1, $2, $3, $4, FALSE)`,
		sessionID, string(actionType), playerID, turn)
	if err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

func scanAction(scan func(dest ...interface{}) error) (*types.Action, error) {
	var (
		a          types.Action
		actionType string
		playerID   int64
	)
	if err := scan(&a.ID, &actionType, &playerID, &a.Turn); err != nil {
		return nil, err
	}
	parsedType, err := types.ParseActionType(actionType)
	if err != nil {
		return nil, err
	}
	a.Type = parsedType
	a.Subject = types.ForPlayer(playerID)
	return &a, nil
}

// GetPendingActions lists every unresolved per-player obligation in the
// session.
func (s *Store) GetPendingActions(ctx context.Context, c *Connector, sessionID int64) ([]*types.Action, error) {
	c = s.connector(c)
	rows, err := c.Query(ctx,
		`SELECT id, action_type, player_id, turn FROM actions
		  WHERE session_id = $1 AND resolved = FALSE ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending actions for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var actions []*types.Action
	for rows.Next() {
		a, err := scanAction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// GetPendingActionForPlayer returns the player's single unresolved
// obligation, or nil when the player has nothing pending.
func (s *Store) GetPendingActionForPlayer(ctx context.Context, c *Connector, playerID int64) (*types.Action, error) {
	c = s.connector(c)
	a, err := scanAction(c.QueryRow(ctx,
		`SELECT id, action_type, player_id, turn FROM actions
		  WHERE player_id = $1 AND resolved = FALSE`, playerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load pending action for player %d: %w", playerID, err)
	}
	return a, nil
}

// ResolveAction marks a pending action consumed, recording the turn that
// resolved it. A nil turn records a forced resolution with no history entry.
func (s *Store) ResolveAction(ctx context.Context, c *Connector, actionID int64, turn types.Turn) error {
	c = s.connector(c)
	resolveTime := time.Now()
	resolveCode := ""
	if turn != nil {
		resolveTime = turn.Meta().Time
		resolveCode = turn.Code()
	}
	res, err := c.Exec(ctx,
		`UPDATE actions SET resolved = TRUE, resolve_time = $1, resolve_action = $2
		  WHERE id = $3 AND resolved = FALSE`,
		resolveTime, resolveCode, actionID)
	if err != nil {
		return fmt.Errorf("failed to resolve action %d: %w", actionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve action %d: %w", actionID, err)
	}
	if affected == 0 {
		return fmt.Errorf("action %d: %w", actionID, ErrNotFound)
	}
	return nil
}

// DeletePendingActions purges a player's unresolved obligations, used when
// the player is removed from the game.
func (s *Store) DeletePendingActions(ctx context.Context, c *Connector, playerID int64) error {
	c = s.connector(c)
	_, err := c.Exec(ctx, `DELETE FROM actions WHERE player_id = $1 AND resolved = FALSE`, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete pending actions for player %d: %w", playerID, err)
	}
	return nil
}

// GetHistory loads the session's resolved turns in order.
func (s *Store) GetHistory(ctx context.Context, c *Connector, sessionID int64) ([]types.Turn, error) {
	c = s.connector(c)
	rows, err := c.Query(ctx,
		`SELECT player_id, turn, resolve_time, resolve_action FROM actions
		  WHERE session_id = $1 AND resolved = TRUE AND resolve_action <> ''
		  ORDER BY turn, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var history []types.Turn
	for rows.Next() {
		var (
			playerID    int64
			turnNumber  int
			resolveTime time.Time
			resolveCode string
		)
		if err := rows.Scan(&playerID, &turnNumber, &resolveTime, &resolveCode); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		turn, err := types.ParseTurn(resolveCode, turnNumber, playerID, resolveTime)
		if err != nil {
			return nil, fmt.Errorf("session %d history: %w", sessionID, err)
		}
		history = append(history, turn)
	}
	return history, rows.Err()
}

// UpsertKickVote records or overwrites one (target, voter) vote.
func (s *Store) UpsertKickVote(ctx context.Context, c *Connector, sessionID, kickPlayerID, votePlayerID int64, vote bool) error {
	c = s.connector(c)
	_, err := c.Exec(ctx,
		`INSERT INTO kick_votes (session_id, kick_player_id, vote_player_id, vote)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (kick_player_id, vote_player_id) DO UPDATE SET vote = excluded.vote`,
		sessionID, kickPlayerID, votePlayerID, vote)
	if err != nil {
		return fmt.Errorf("failed to record kick vote: %w", err)
	}
	return nil
}

func (s *Store) GetKickVotesForSession(ctx context.Context, c *Connector, sessionID int64) ([]types.KickVote, error) {
	c = s.connector(c)
	rows, err := c.Query(ctx,
		`SELECT kick_player_id, vote_player_id, vote FROM kick_votes WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query kick votes for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var votes []types.KickVote
	for rows.Next() {
		var v types.KickVote
		if err := rows.Scan(&v.KickPlayerID, &v.VotePlayerID, &v.Vote); err != nil {
			return nil, fmt.Errorf("failed to scan kick vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
