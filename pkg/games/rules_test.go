package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBoard(t *testing.T) *Board {
	t.Helper()
	board, err := ParseBoard("CAAXGECDGAAE")
	assert.NoError(t, err)
	return board
}

func TestParseRuleText(t *testing.T) {
	board := testBoard(t)

	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "adjacent with none qualifier",
			code: "ACDN",
			want: "No comet is adjacent to the dwarf planet.",
		},
		{
			name: "adjacent with single subject",
			code: "ADGN",
			want: "The dwarf planet is not adjacent to a gas cloud.",
		},
		{
			name: "opposite with unique subject",
			code: "OXAE",
			want: "Planet X is directly opposite an asteroid.",
		},
		{
			name: "within",
			code: "WGEA2",
			want: "At least one gas cloud is within 2 sectors of an empty sector.",
		},
		{
			name: "adjacent self",
			code: "CCN",
			want: "No comet is adjacent to another comet.",
		},
		{
			name: "opposite self",
			code: "SGN",
			want: "No gas cloud is directly opposite another gas cloud.",
		},
		{
			name: "band strict",
			code: "BA3S",
			want: "The asteroids are in a band of exactly 3.",
		},
		{
			name: "band within",
			code: "BC6W",
			want: "The comets are in a band of at most 6.",
		},
		{
			name: "sectors",
			code: "PCBD",
			want: "The comets are only in sectors 2, 4.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.code)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, rule.Text(board))
			assert.Equal(t, tt.want, rule.View(board).Text)
		})
	}
}

func TestParseRuleErrors(t *testing.T) {
	for _, code := range []string{"", "Z", "A", "ACD", "ACDQ", "BA3", "BAxS", "WGEA"} {
		_, err := ParseRule(code)
		assert.Error(t, err, "code %q", code)
	}
}

func TestParseRules(t *testing.T) {
	board := testBoard(t)

	rules, err := ParseRules("ACDN|BA3S|PCBD")
	assert.NoError(t, err)
	assert.Len(t, rules, 3)
	assert.Equal(t, "BAND", rules[1].View(board).RuleType)

	_, err = ParseRules("ACDN|bogus")
	assert.Error(t, err)
}

func TestRuleCategoryName(t *testing.T) {
	board := testBoard(t)

	rule, err := ParseRule("ACDN")
	assert.NoError(t, err)
	assert.Equal(t, "Comets & Dwarf Planets", rule.View(board).CategoryName)

	// A trailing empty object is dropped from the heading.
	rule, err = ParseRule("AGEN")
	assert.NoError(t, err)
	assert.Equal(t, "Gas Clouds", rule.View(board).CategoryName)
}
