package types

import "fmt"

// Score is a player's derived point total. It is recomputed on demand from
// players, theories and history, never persisted.
type Score struct {
	PlayerID      int64
	FirstPoints   int
	PlanetXPoints int
	ObjectPoints  map[string]int

	values map[string]int
}

// NewScore creates an empty score with the board's per-object point values.
func NewScore(playerID int64, objectValues map[string]int) *Score {
	objectPoints := make(map[string]int, len(objectValues))
	for initial := range objectValues {
		objectPoints[initial] = 0
	}
	return &Score{
		PlayerID:     playerID,
		ObjectPoints: objectPoints,
		values:       objectValues,
	}
}

// AddObjectPoints credits one accurate theory on the given object type.
func (s *Score) AddObjectPoints(initial string) error {
	points, ok := s.values[initial]
	if !ok {
		return fmt.Errorf("no score value for object %q", initial)
	}
	s.ObjectPoints[initial] += points
	return nil
}

// AddFirstPoint credits being the first accurate claimant on a sector.
func (s *Score) AddFirstPoint() {
	s.FirstPoints++
}

func (s *Score) Total() int {
	total := s.FirstPoints + s.PlanetXPoints
	for _, points := range s.ObjectPoints {
		total += points
	}
	return total
}

// ScoreView is the serialized form of a score.
type ScoreView struct {
	PlayerID int64          `json:"playerID"`
	First    int            `json:"first"`
	PlanetX  int            `json:"planetX"`
	Objects  map[string]int `json:"objects"`
	Total    int            `json:"total"`
}

func (s *Score) View() ScoreView {
	return ScoreView{
		PlayerID: s.PlayerID,
		First:    s.FirstPoints,
		PlanetX:  s.PlanetXPoints,
		Objects:  s.ObjectPoints,
		Total:    s.Total(),
	}
}
