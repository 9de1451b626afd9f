package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoard(t *testing.T) {
	board, err := ParseBoard("CAAXGECDGAAE")
	assert.NoError(t, err)
	assert.Equal(t, 12, board.Size())
	assert.Equal(t, "CAAXGECDGAAE", board.String())
	assert.Equal(t, map[string]int{"C": 2, "A": 4, "X": 1, "G": 2, "E": 2, "D": 1}, board.NumObjects)

	_, err = ParseBoard("CAZ")
	assert.Error(t, err)
}

func TestBoardObjectAt(t *testing.T) {
	board, err := ParseBoard("CAX")
	assert.NoError(t, err)

	tests := []struct {
		name   string
		sector int
		want   SpaceObject
	}{
		{
			name:   "in range",
			sector: 1,
			want:   Asteroid,
		},
		{
			name:   "wraps below zero",
			sector: -1,
			want:   PlanetX,
		},
		{
			name:   "wraps past the end",
			sector: 3,
			want:   Comet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, board.ObjectAt(tt.sector))
		})
	}
}

func TestSpaceObjectPhrasing(t *testing.T) {
	assert.Equal(t, "an", Asteroid.One())
	assert.Equal(t, "a", Comet.One())
	assert.Equal(t, "the dwarf planet", DwarfPlanet.Singular())
	assert.Equal(t, "Planet X", PlanetX.Singular())
	assert.Equal(t, "Dwarf Planets", DwarfPlanet.Category())
	assert.Equal(t, "Planet X", PlanetX.Category())
	assert.Equal(t, "a comet", Comet.AnyOf(2))
	assert.Equal(t, "the dwarf planet", DwarfPlanet.AnyOf(1))
}
