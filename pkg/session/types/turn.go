package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/planetxonline/server/pkg/games"
)

// TurnType tags the closed set of history record kinds.
type TurnType string

const (
	TurnSurvey        TurnType = "SURVEY"
	TurnTarget        TurnType = "TARGET"
	TurnResearch      TurnType = "RESEARCH"
	TurnConference    TurnType = "CONFERENCE"
	TurnLocatePlanetX TurnType = "LOCATE_PLANET_X"
	TurnTheory        TurnType = "THEORY"
)

// TurnMeta carries the fields common to every turn kind.
type TurnMeta struct {
	TurnNumber int
	PlayerID   int64
	Time       time.Time
}

// Turn is a write-once history record of one resolved action. The set of
// implementations is closed; construction and serialization are exhaustive
// switches over the kinds.
type Turn interface {
	Kind() TurnType
	// Code renders the compact storage form of the turn.
	Code() string
	Meta() *TurnMeta
	View() TurnView

	isTurn()
}

// TurnView is the serialized form of any turn kind.
type TurnView struct {
	TurnType    string             `json:"turnType"`
	SpaceObject *games.SpaceObject `json:"spaceObject,omitempty"`
	Sectors     []int              `json:"sectors,omitempty"`
	Sector      *int               `json:"sector,omitempty"`
	Index       *int               `json:"index,omitempty"`
	LeftObject  *games.SpaceObject `json:"leftObject,omitempty"`
	RightObject *games.SpaceObject `json:"rightObject,omitempty"`
	Successful  *bool              `json:"successful,omitempty"`
	Theories    []TheoryView       `json:"theories,omitempty"`
	Text        string             `json:"text"`
	Turn        int                `json:"turn"`
	Time        time.Time          `json:"time"`
	PlayerID    int64              `json:"playerID"`
}

// ParseTurn reads a stored turn code. The leading character selects the
// turn kind.
func ParseTurn(code string, turnNumber int, playerID int64, turnTime time.Time) (Turn, error) {
	if code == "" {
		return nil, fmt.Errorf("empty turn code")
	}
	meta := TurnMeta{TurnNumber: turnNumber, PlayerID: playerID, Time: turnTime}
	switch code[0] {
	case 'S':
		return parseSurveyTurn(code, meta)
	case 'T':
		return parseTargetTurn(code, meta)
	case 'R':
		return parseResearchTurn(code, meta)
	case 'C':
		return parseConferenceTurn(code, meta)
	case 'L':
		return parseLocateTurn(code, meta)
	case 'G':
		return parseTheoryTurn(code, meta)
	}
	return nil, fmt.Errorf("unknown turn code %q", code)
}

// SurveyTurn records a survey of one object type over a sector range.
type SurveyTurn struct {
	TurnMeta
	Object  games.SpaceObject
	Sectors []int
}

func parseSurveyTurn(code string, meta TurnMeta) (*SurveyTurn, error) {
	if len(code) < 3 {
		return nil, fmt.Errorf("short survey code %q", code)
	}
	obj, err := games.ParseSpaceObject(code[1:2])
	if err != nil {
		return nil, err
	}
	parts := strings.Split(code[2:], ",")
	sectors := make([]int, len(parts))
	for i, p := range parts {
		sectors[i], err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("survey code %q: %w", code, err)
		}
	}
	return &SurveyTurn{TurnMeta: meta, Object: obj, Sectors: sectors}, nil
}

func (t *SurveyTurn) isTurn()         {}
func (t *SurveyTurn) Kind() TurnType  { return TurnSurvey }
func (t *SurveyTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *SurveyTurn) Code() string {
	sectors := make([]string, len(t.Sectors))
	for i, s := range t.Sectors {
		sectors[i] = strconv.Itoa(s)
	}
	return "S" + t.Object.Initial + strings.Join(sectors, ",")
}

func (t *SurveyTurn) String() string {
	sectors := make([]string, len(t.Sectors))
	for i, s := range t.Sectors {
		sectors[i] = strconv.Itoa(s + 1)
	}
	return "Survey, " + t.Object.Proper() + ", " + strings.Join(sectors, "-")
}

func (t *SurveyTurn) View() TurnView {
	obj := t.Object
	return TurnView{
		TurnType:    string(TurnSurvey),
		SpaceObject: &obj,
		Sectors:     t.Sectors,
		Text:        t.String(),
		Turn:        t.TurnNumber,
		Time:        t.Time,
		PlayerID:    t.PlayerID,
	}
}

// TargetTurn records a targeted scan of a single sector.
type TargetTurn struct {
	TurnMeta
	Sector int
}

func parseTargetTurn(code string, meta TurnMeta) (*TargetTurn, error) {
	sector, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("target code %q: %w", code, err)
	}
	return &TargetTurn{TurnMeta: meta, Sector: sector}, nil
}

func (t *TargetTurn) isTurn()         {}
func (t *TargetTurn) Kind() TurnType  { return TurnTarget }
func (t *TargetTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *TargetTurn) Code() string {
	return "T" + strconv.Itoa(t.Sector)
}

func (t *TargetTurn) String() string {
	return "Target, Sector " + strconv.Itoa(t.Sector+1)
}

func (t *TargetTurn) View() TurnView {
	sector := t.Sector
	return TurnView{
		TurnType: string(TurnTarget),
		Sector:   &sector,
		Text:     t.String(),
		Turn:     t.TurnNumber,
		Time:     t.Time,
		PlayerID: t.PlayerID,
	}
}

// ResearchTurn records reading one research topic.
type ResearchTurn struct {
	TurnMeta
	Index int
}

func parseResearchTurn(code string, meta TurnMeta) (*ResearchTurn, error) {
	index, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("research code %q: %w", code, err)
	}
	return &ResearchTurn{TurnMeta: meta, Index: index}, nil
}

func (t *ResearchTurn) isTurn()         {}
func (t *ResearchTurn) Kind() TurnType  { return TurnResearch }
func (t *ResearchTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *ResearchTurn) Code() string {
	return "R" + strconv.Itoa(t.Index)
}

func (t *ResearchTurn) String() string {
	return "Research " + string(rune('A'+t.Index))
}

func (t *ResearchTurn) View() TurnView {
	index := t.Index
	return TurnView{
		TurnType: string(TurnResearch),
		Index:    &index,
		Text:     t.String(),
		Turn:     t.TurnNumber,
		Time:     t.Time,
		PlayerID: t.PlayerID,
	}
}

// ConferenceTurn records acknowledging one conference.
type ConferenceTurn struct {
	TurnMeta
	Index int
}

func parseConferenceTurn(code string, meta TurnMeta) (*ConferenceTurn, error) {
	index, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("conference code %q: %w", code, err)
	}
	return &ConferenceTurn{TurnMeta: meta, Index: index}, nil
}

func (t *ConferenceTurn) isTurn()         {}
func (t *ConferenceTurn) Kind() TurnType  { return TurnConference }
func (t *ConferenceTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *ConferenceTurn) Code() string {
	return "C" + strconv.Itoa(t.Index)
}

func (t *ConferenceTurn) String() string {
	return "Conference X" + strconv.Itoa(t.Index+1)
}

func (t *ConferenceTurn) View() TurnView {
	index := t.Index
	return TurnView{
		TurnType: string(TurnConference),
		Index:    &index,
		Text:     t.String(),
		Turn:     t.TurnNumber,
		Time:     t.Time,
		PlayerID: t.PlayerID,
	}
}

// LocateTurn records a locate Planet X attempt: the claimed sector, the two
// flanking objects, and whether the claim matched the board.
type LocateTurn struct {
	TurnMeta
	Sector      int
	LeftObject  games.SpaceObject
	RightObject games.SpaceObject
	Successful  bool
}

func parseLocateTurn(code string, meta TurnMeta) (*LocateTurn, error) {
	if len(code) < 5 {
		return nil, fmt.Errorf("short locate code %q", code)
	}
	successful := code[1] == '1'
	left, err := games.ParseSpaceObject(code[2:3])
	if err != nil {
		return nil, err
	}
	right, err := games.ParseSpaceObject(code[3:4])
	if err != nil {
		return nil, err
	}
	sector, err := strconv.Atoi(code[4:])
	if err != nil {
		return nil, fmt.Errorf("locate code %q: %w", code, err)
	}
	return &LocateTurn{
		TurnMeta:    meta,
		Sector:      sector,
		LeftObject:  left,
		RightObject: right,
		Successful:  successful,
	}, nil
}

func (t *LocateTurn) isTurn()         {}
func (t *LocateTurn) Kind() TurnType  { return TurnLocatePlanetX }
func (t *LocateTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *LocateTurn) Code() string {
	successful := "0"
	if t.Successful {
		successful = "1"
	}
	return "L" + successful + t.LeftObject.Initial + t.RightObject.Initial + strconv.Itoa(t.Sector)
}

func (t *LocateTurn) String() string {
	if t.Successful {
		return "Locate Planet X, Success"
	}
	return "Locate Planet X, Fail"
}

func (t *LocateTurn) View() TurnView {
	sector := t.Sector
	left := t.LeftObject
	right := t.RightObject
	successful := t.Successful
	return TurnView{
		TurnType:    string(TurnLocatePlanetX),
		Sector:      &sector,
		LeftObject:  &left,
		RightObject: &right,
		Successful:  &successful,
		Text:        t.String(),
		Turn:        t.TurnNumber,
		Time:        t.Time,
		PlayerID:    t.PlayerID,
	}
}

// TheoryTurn records a theory phase submission, possibly empty when the
// player passed.
type TheoryTurn struct {
	TurnMeta
	Theories []*Theory
}

func parseTheoryTurn(code string, meta TurnMeta) (*TheoryTurn, error) {
	turn := &TheoryTurn{TurnMeta: meta}
	if len(code) == 1 {
		return turn, nil
	}
	for _, part := range strings.Split(code[1:], ",") {
		if len(part) < 2 {
			return nil, fmt.Errorf("theory code %q: short entry %q", code, part)
		}
		obj, err := games.ParseSpaceObject(part[:1])
		if err != nil {
			return nil, err
		}
		sector, err := strconv.Atoi(part[1:])
		if err != nil {
			return nil, fmt.Errorf("theory code %q: %w", code, err)
		}
		turn.Theories = append(turn.Theories, &Theory{
			PlayerID: meta.PlayerID,
			Object:   obj,
			Sector:   sector,
		})
	}
	return turn, nil
}

func (t *TheoryTurn) isTurn()         {}
func (t *TheoryTurn) Kind() TurnType  { return TurnTheory }
func (t *TheoryTurn) Meta() *TurnMeta { return &t.TurnMeta }

func (t *TheoryTurn) Code() string {
	parts := make([]string, len(t.Theories))
	for i, theory := range t.Theories {
		parts[i] = theory.Object.Initial + strconv.Itoa(theory.Sector)
	}
	return "G" + strings.Join(parts, ",")
}

func (t *TheoryTurn) String() string {
	sectors := make([]string, len(t.Theories))
	for i, theory := range t.Theories {
		sectors[i] = strconv.Itoa(theory.Sector + 1)
	}
	return "Submit Theories, " + strings.Join(sectors, " ")
}

func (t *TheoryTurn) View() TurnView {
	theories := make([]TheoryView, len(t.Theories))
	for i, theory := range t.Theories {
		theories[i] = theory.View()
	}
	return TurnView{
		TurnType: string(TurnTheory),
		Theories: theories,
		Text:     t.String(),
		Turn:     t.TurnNumber,
		Time:     t.Time,
		PlayerID: t.PlayerID,
	}
}
