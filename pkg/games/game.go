// Package games models the static content of a playthrough: the ring of
// sector objects, the research and conference rules, and the per-size
// configuration constants. A game is immutable once loaded; sessions only
// read "what object is at sector i" facts and config from it.
package games

import (
	"fmt"
	"strings"
)

var seasons = []string{"WINTER", "SPRING", "SUMMER", "AUTUMN"}

// EliminationClue tells one player that a sector does not hold an object.
type EliminationClue struct {
	Sector           int
	EliminatedObject SpaceObject
}

// ParseEliminationClue reads a packed 2-character clue: sector letter then
// object code.
func ParseEliminationClue(s string) (EliminationClue, error) {
	if len(s) != 2 {
		return EliminationClue{}, fmt.Errorf("clue %q must be 2 characters", s)
	}
	obj, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return EliminationClue{}, err
	}
	return EliminationClue{Sector: int(s[0]) - 'A', EliminatedObject: obj}, nil
}

func (c EliminationClue) Text() string {
	return fmt.Sprintf("Sector %d does not contain %s %s.",
		c.Sector+1, c.EliminatedObject.One(), c.EliminatedObject.Name)
}

// ClueView is the serialized form of an elimination clue.
type ClueView struct {
	Sector           int         `json:"sector"`
	EliminatedObject SpaceObject `json:"eliminatedObject"`
	Text             string      `json:"text"`
}

// StartingInformation holds each season's opening clues.
type StartingInformation struct {
	Clues map[string][]EliminationClue
}

// ParseStartingInformation reads pipe-separated clue strings, one per
// season, each a run of packed 2-character clues.
func ParseStartingInformation(s string) (*StartingInformation, error) {
	clues := make(map[string][]EliminationClue, len(seasons))
	parts := strings.Split(s, "|")
	if len(parts) != len(seasons) {
		return nil, fmt.Errorf("starting information has %d seasons, want %d", len(parts), len(seasons))
	}
	for i, season := range seasons {
		part := parts[i]
		seasonClues := make([]EliminationClue, 0, len(part)/2)
		for j := 0; j+1 < len(part); j += 2 {
			clue, err := ParseEliminationClue(part[j : j+2])
			if err != nil {
				return nil, fmt.Errorf("season %s: %w", season, err)
			}
			seasonClues = append(seasonClues, clue)
		}
		clues[season] = seasonClues
	}
	return &StartingInformation{Clues: clues}, nil
}

// View projects the clues keyed by season.
func (si *StartingInformation) View() map[string][]ClueView {
	out := make(map[string][]ClueView, len(si.Clues))
	for season, clues := range si.Clues {
		views := make([]ClueView, len(clues))
		for i, c := range clues {
			views[i] = ClueView{Sector: c.Sector, EliminatedObject: c.EliminatedObject, Text: c.Text()}
		}
		out[season] = views
	}
	return out
}

// Game is one playable board with its rule content.
type Game struct {
	ID           int64
	Code         string
	Board        *Board
	StartingInfo *StartingInformation
	Research     []Rule
	Conference   []Rule
}

// ParseGame assembles a game from its packed database columns.
func ParseGame(id int64, code, boardObjects, startingInfo, research, conference string) (*Game, error) {
	board, err := ParseBoard(boardObjects)
	if err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	si, err := ParseStartingInformation(startingInfo)
	if err != nil {
		return nil, fmt.Errorf("parse starting information: %w", err)
	}
	researchRules, err := ParseRules(research)
	if err != nil {
		return nil, fmt.Errorf("parse research: %w", err)
	}
	conferenceRules, err := ParseRules(conference)
	if err != nil {
		return nil, fmt.Errorf("parse conference: %w", err)
	}
	return &Game{
		ID:           id,
		Code:         code,
		Board:        board,
		StartingInfo: si,
		Research:     researchRules,
		Conference:   conferenceRules,
	}, nil
}

// GameView is the serialized form of the game content.
type GameView struct {
	Board struct {
		Objects    []SpaceObject  `json:"objects"`
		Size       int            `json:"size"`
		NumObjects map[string]int `json:"numObjects"`
	} `json:"board"`
	Research            []RuleView            `json:"research"`
	Conference          []RuleView            `json:"conference"`
	StartingInformation map[string][]ClueView `json:"startingInformation"`
}

func (g *Game) View() *GameView {
	view := &GameView{
		Research:            make([]RuleView, len(g.Research)),
		Conference:          make([]RuleView, len(g.Conference)),
		StartingInformation: g.StartingInfo.View(),
	}
	view.Board.Objects = g.Board.Objects
	view.Board.Size = g.Board.Size()
	view.Board.NumObjects = g.Board.NumObjects
	for i, rule := range g.Research {
		view.Research[i] = rule.View(g.Board)
	}
	for i, rule := range g.Conference {
		view.Conference[i] = rule.View(g.Board)
	}
	return view
}
