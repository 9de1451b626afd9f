package types

import "fmt"

// Player is one seat in a session. Kicked players are excluded from active
// game queries but kept for history and scoring.
type Player struct {
	ID   int64
	Num  int
	Name string
	// Color is nil until the player picks one; unique within a session.
	Color *string
	// Sector is the player's current ring position.
	Sector int
	// Arrival breaks ties between players sharing a sector. Assigned by
	// random shuffle at game start, then maintained on every move.
	Arrival   int
	Kicked    bool
	Connected bool
}

func (p *Player) String() string {
	return fmt.Sprintf("Player %d: %s (#%d in sector %d)", p.Num, p.Name, p.Arrival, p.Sector+1)
}

// PlayerView is the serialized form of a player.
type PlayerView struct {
	ID        int64   `json:"id"`
	Num       int     `json:"num"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	Sector    int     `json:"sector"`
	Arrival   int     `json:"arrival"`
	Kicked    bool    `json:"kicked"`
	Connected bool    `json:"connected"`
}

func (p *Player) View() PlayerView {
	return PlayerView{
		ID:        p.ID,
		Num:       p.Num,
		Name:      p.Name,
		Color:     p.Color,
		Sector:    p.Sector,
		Arrival:   p.Arrival,
		Kicked:    p.Kicked,
		Connected: p.Connected,
	}
}

// KickVote is one player's standing vote on removing another. Re-votes
// overwrite; only the latest value per (target, voter) pair counts.
type KickVote struct {
	KickPlayerID int64 `json:"kickPlayerID"`
	VotePlayerID int64 `json:"votePlayerID"`
	Vote         bool  `json:"vote"`
}
