package types

import (
	"github.com/planetxonline/server/pkg/games"
)

// TheoryMaxProgress is the terminal progress value. A theory that reaches
// it is frozen and its accuracy becomes public knowledge.
const TheoryMaxProgress = 4

// Theory is one player's claim that a sector holds an object. It stays
// private while its progress advances, then freezes into a public fact.
type Theory struct {
	ID       int64
	PlayerID int64
	Object   games.SpaceObject
	Sector   int
	Progress int
	Frozen   bool
	Accurate bool
	// Turn is the session turn counter at submission time.
	Turn int
}

// ParseTheory builds a fresh claim from an object initial and a sector.
func ParseTheory(object string, sector int) (*Theory, error) {
	obj, err := games.ParseSpaceObject(object)
	if err != nil {
		return nil, err
	}
	return &Theory{Object: obj, Sector: sector}, nil
}

// Revealed reports whether the claim has become public knowledge.
func (t *Theory) Revealed() bool {
	return t.Frozen
}

// SetAccuracy records whether the claim matches the board. Called once at
// submission; the board never changes afterwards.
func (t *Theory) SetAccuracy(board *games.Board) {
	t.Accurate = board.ObjectAt(t.Sector).Initial == t.Object.Initial
}

// TheoryView is the serialized form of a theory.
type TheoryView struct {
	ID          int64             `json:"id"`
	SpaceObject games.SpaceObject `json:"spaceObject"`
	Sector      int               `json:"sector"`
	Progress    int               `json:"progress"`
	Revealed    bool              `json:"revealed"`
	Accurate    bool              `json:"accurate"`
	PlayerID    int64             `json:"playerID"`
	Turn        int               `json:"turn"`
}

func (t *Theory) View() TheoryView {
	return TheoryView{
		ID:          t.ID,
		SpaceObject: t.Object,
		Sector:      t.Sector,
		Progress:    t.Progress,
		Revealed:    t.Revealed(),
		Accurate:    t.Accurate,
		PlayerID:    t.PlayerID,
		Turn:        t.Turn,
	}
}
