package session

import (
	"context"

	"github.com/planetxonline/server/pkg/session/types"
)

// View is the full projection of a session for subscribers. It carries no
// secrets; clients receive it verbatim after every observable change.
type View struct {
	SessionID      int64               `json:"sessionID"`
	SessionCode    string              `json:"sessionCode"`
	BoardSize      int                 `json:"boardSize"`
	FirstRotation  bool                `json:"firstRotation"`
	CurrentSector  int                 `json:"currentSector"`
	CurrentAction  types.ActionView    `json:"currentAction"`
	Players        []types.PlayerView  `json:"players"`
	KickedPlayers  []types.PlayerView  `json:"kickedPlayers"`
	KickVotes      []types.KickVote    `json:"kickVotes"`
	Theories       []types.TheoryView  `json:"theories"`
	PendingActions []types.ActionView  `json:"pendingActions"`
	History        []types.TurnView    `json:"history"`
	Scores         []types.ScoreView   `json:"scores"`
}

// Notifier publishes refreshed session views to subscribed clients. The
// delivery mechanism is outside the engine; a nil notifier is valid.
type Notifier interface {
	PublishSession(ctx context.Context, view *View)
}

// BuildView assembles the projection from the session snapshot.
func (s *Session) BuildView(ctx context.Context) (*View, error) {
	view := &View{
		SessionID:      s.ID,
		SessionCode:    s.Code,
		BoardSize:      s.BoardSize,
		FirstRotation:  s.FirstRotation,
		CurrentSector:  s.CurrentSector,
		CurrentAction:  s.CurrentAction.View(),
		Players:        []types.PlayerView{},
		KickedPlayers:  []types.PlayerView{},
		KickVotes:      []types.KickVote{},
		Theories:       []types.TheoryView{},
		PendingActions: []types.ActionView{},
		History:        []types.TurnView{},
		Scores:         []types.ScoreView{},
	}

	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.Kicked {
			view.KickedPlayers = append(view.KickedPlayers, p.View())
		} else {
			view.Players = append(view.Players, p.View())
		}
	}

	votes, err := s.KickVotes(ctx)
	if err != nil {
		return nil, err
	}
	view.KickVotes = append(view.KickVotes, votes...)

	theories, err := s.Theories(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range theories {
		view.Theories = append(view.Theories, t.View())
	}

	pending, err := s.PendingActions(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range pending {
		view.PendingActions = append(view.PendingActions, a.View())
	}

	history, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	for _, turn := range history {
		view.History = append(view.History, turn.View())
	}

	scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if score, ok := scores[p.ID]; ok {
			view.Scores = append(view.Scores, score.View())
		}
	}

	return view, nil
}
