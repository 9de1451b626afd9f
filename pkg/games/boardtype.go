package games

import "fmt"

// BoardType holds the per-size configuration constants for a board.
type BoardType struct {
	BoardSize           int
	NumObjects          map[string]int
	TheoryPhaseInterval int
	// TheoryPhases lists the checkpoint sectors that force a theory phase.
	TheoryPhases []int
	// ConferencePhases lists the sectors that trigger a conference during
	// the first rotation.
	ConferencePhases []int
	// ScoreValues maps object initials to points per accurate theory.
	ScoreValues map[string]int
	// TheoriesPerTurn caps how many theories one submission may carry.
	TheoriesPerTurn int
	// TargetQuota caps target moves per player over the whole game.
	TargetQuota int
	// PlanetXBonus is the score for the first successful locate.
	PlanetXBonus int
}

func newBoardType(boardSize int, numObjects map[string]int, theoryPhaseInterval int, conferencePhases []int, scoreValues map[string]int, theoriesPerTurn int) *BoardType {
	numTheoryPhases := boardSize / theoryPhaseInterval
	theoryPhases := make([]int, numTheoryPhases)
	for i := range theoryPhases {
		theoryPhases[i] = (i+1)*theoryPhaseInterval - 1
	}
	return &BoardType{
		BoardSize:           boardSize,
		NumObjects:          numObjects,
		TheoryPhaseInterval: theoryPhaseInterval,
		TheoryPhases:        theoryPhases,
		ConferencePhases:    conferencePhases,
		ScoreValues:         scoreValues,
		TheoriesPerTurn:     theoriesPerTurn,
		TargetQuota:         2,
		PlanetXBonus:        10,
	}
}

var boardTypes = map[int]*BoardType{
	12: newBoardType(12,
		map[string]int{"X": 1, "E": 2, "G": 2, "D": 1, "A": 4, "C": 2},
		3, []int{8},
		map[string]int{"A": 2, "C": 3, "D": 4, "G": 4},
		1),
	18: newBoardType(18,
		map[string]int{"X": 1, "E": 5, "G": 2, "D": 4, "A": 4, "C": 2},
		3, []int{6, 15},
		map[string]int{"A": 2, "C": 3, "D": 2, "G": 4},
		2),
	24: newBoardType(24,
		map[string]int{"X": 1, "E": 6, "G": 3, "D": 4, "A": 6, "C": 3, "B": 1},
		3, []int{6, 15, 21},
		map[string]int{"A": 2, "C": 3, "D": 2, "G": 4, "B": 5},
		2),
}

// BoardTypeFor returns the configuration for a supported board size.
func BoardTypeFor(boardSize int) (*BoardType, error) {
	bt, ok := boardTypes[boardSize]
	if !ok {
		return nil, fmt.Errorf("unsupported board size %d", boardSize)
	}
	return bt, nil
}
