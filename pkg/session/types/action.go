// Package types holds the plain domain entities of a session: players,
// pending actions, turn history records, theories, kick votes and scores.
// Everything here is data plus small pure computations; persistence and
// orchestration live elsewhere.
package types

import "fmt"

// ActionType is the kind of event a session is waiting on.
type ActionType string

const (
	ActionStartGame       ActionType = "START_GAME"
	ActionPlayerTurn      ActionType = "PLAYER_TURN"
	ActionConferencePhase ActionType = "CONFERENCE_PHASE"
	ActionTheoryPhase     ActionType = "THEORY_PHASE"
	ActionLastAction      ActionType = "LAST_ACTION"
	ActionEndGame         ActionType = "END_GAME"
)

// ParseActionType validates a stored action type string.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionStartGame, ActionPlayerTurn, ActionConferencePhase,
		ActionTheoryPhase, ActionLastAction, ActionEndGame:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("unknown action type %q", s)
}

// ActionSubject says who an action applies to: one player, or every
// active player independently.
type ActionSubject struct {
	playerID int64
	all      bool
}

// ForPlayer scopes an action to a single player.
func ForPlayer(playerID int64) ActionSubject {
	return ActionSubject{playerID: playerID}
}

// ForAllActive scopes an action to every non-kicked player.
func ForAllActive() ActionSubject {
	return ActionSubject{all: true}
}

// Player returns the single subject player, or false for an
// all-active subject.
func (s ActionSubject) Player() (int64, bool) {
	if s.all {
		return 0, false
	}
	return s.playerID, true
}

// All reports whether the action fans out to every active player.
func (s ActionSubject) All() bool {
	return s.all
}

// Action is a pending, unresolved unit of work. The session-level current
// action carries no row ID; per-player pending rows do.
type Action struct {
	ID      int64
	Type    ActionType
	Subject ActionSubject
	Turn    int
}

// ActionView is the serialized form of an action.
type ActionView struct {
	ActionType string `json:"actionType"`
	PlayerID   *int64 `json:"playerID"`
	Turn       int    `json:"turn"`
}

func (a Action) View() ActionView {
	view := ActionView{
		ActionType: string(a.Type),
		Turn:       a.Turn,
	}
	if playerID, ok := a.Subject.Player(); ok {
		view.PlayerID = &playerID
	}
	return view
}
