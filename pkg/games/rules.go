package games

import (
	"fmt"
	"strconv"
	"strings"
)

// RuleQualifier scopes a rule to none, some, or all of an object type.
type RuleQualifier int

const (
	QualifierNone RuleQualifier = iota
	QualifierAtLeastOne
	QualifierEvery
)

func ParseRuleQualifier(code string) (RuleQualifier, error) {
	switch code {
	case "N":
		return QualifierNone, nil
	case "A":
		return QualifierAtLeastOne, nil
	case "E":
		return QualifierEvery, nil
	}
	return 0, fmt.Errorf("unknown rule qualifier %q", code)
}

func (q RuleQualifier) String() string {
	switch q {
	case QualifierNone:
		return "NONE"
	case QualifierAtLeastOne:
		return "AT_LEAST_ONE"
	case QualifierEvery:
		return "EVERY"
	}
	return "UNKNOWN"
}

// ForObject phrases the subject of a rule sentence, e.g. "No comet is" or
// "Planet X is not".
func (q RuleQualifier) ForObject(obj SpaceObject, numObject int) string {
	capitalized := strings.ToUpper(obj.Singular()[:1]) + obj.Singular()[1:]
	switch q {
	case QualifierNone:
		if numObject == 1 {
			return capitalized + " is not"
		}
		return "No " + obj.Name + " is"
	case QualifierAtLeastOne:
		return "At least one " + obj.Name + " is"
	case QualifierEvery:
		if numObject == 1 {
			return capitalized + " is"
		}
		return "Every " + obj.Name + " is"
	}
	return ""
}

// Precision distinguishes exact from bounded band sizes.
type Precision int

const (
	PrecisionStrict Precision = iota
	PrecisionWithin
)

func ParsePrecision(code string) (Precision, error) {
	switch code {
	case "S":
		return PrecisionStrict, nil
	case "W":
		return PrecisionWithin, nil
	}
	return 0, fmt.Errorf("unknown precision %q", code)
}

func (p Precision) String() string {
	if p == PrecisionStrict {
		return "STRICT"
	}
	return "WITHIN"
}

func (p Precision) text() string {
	if p == PrecisionStrict {
		return "exactly"
	}
	return "at most"
}

// RuleView is the serialized form of any rule, ready for clients.
type RuleView struct {
	RuleType       string       `json:"ruleType"`
	SpaceObject    *SpaceObject `json:"spaceObject,omitempty"`
	SpaceObject1   *SpaceObject `json:"spaceObject1,omitempty"`
	SpaceObject2   *SpaceObject `json:"spaceObject2,omitempty"`
	Qualifier      string       `json:"qualifier,omitempty"`
	Precision      string       `json:"precision,omitempty"`
	NumSectors     int          `json:"numSectors,omitempty"`
	AllowedSectors []int        `json:"allowedSectors,omitempty"`
	CategoryName   string       `json:"categoryName"`
	Text           string       `json:"text"`
}

// Rule is a closed set of research and conference rule kinds.
type Rule interface {
	// SpaceObjects lists the objects the rule speaks about.
	SpaceObjects() []SpaceObject
	// Text renders the rule sentence against a concrete board.
	Text(board *Board) string
	// View projects the rule for serialization.
	View(board *Board) RuleView

	isRule()
}

// ParseRule reads a packed rule code. The leading character selects the
// rule kind.
func ParseRule(s string) (Rule, error) {
	if s == "" {
		return nil, fmt.Errorf("empty rule")
	}
	switch s[0] {
	case 'B':
		return parseBandRule(s)
	case 'O':
		return parseOppositeRule(s)
	case 'S':
		return parseOppositeSelfRule(s)
	case 'A':
		return parseAdjacentRule(s)
	case 'C':
		return parseAdjacentSelfRule(s)
	case 'W':
		return parseWithinRule(s)
	case 'P':
		return parseSectorsRule(s)
	}
	return nil, fmt.Errorf("unknown rule code %q", s)
}

// ParseRules reads a pipe-separated list of packed rule codes.
func ParseRules(s string) ([]Rule, error) {
	parts := strings.Split(s, "|")
	rules := make([]Rule, 0, len(parts))
	for _, part := range parts {
		rule, err := ParseRule(part)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func categoryName(objects []SpaceObject) string {
	if len(objects) > 0 && objects[len(objects)-1] == Empty {
		objects = objects[:len(objects)-1]
	}
	titles := make([]string, len(objects))
	for i, obj := range objects {
		titles[i] = obj.Category()
	}
	return strings.Join(titles, " & ")
}

// AdjacentRule relates two object types by adjacency.
type AdjacentRule struct {
	Object1   SpaceObject
	Object2   SpaceObject
	Qualifier RuleQualifier
}

func parseAdjacentRule(s string) (*AdjacentRule, error) {
	if len(s) < 4 {
		return nil, fmt.Errorf("short adjacent rule %q", s)
	}
	obj1, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	obj2, err := ParseSpaceObject(s[2:3])
	if err != nil {
		return nil, err
	}
	qualifier, err := ParseRuleQualifier(s[3:4])
	if err != nil {
		return nil, err
	}
	return &AdjacentRule{Object1: obj1, Object2: obj2, Qualifier: qualifier}, nil
}

func (r *AdjacentRule) isRule() {}

func (r *AdjacentRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object1, r.Object2}
}

func (r *AdjacentRule) Text(board *Board) string {
	return r.Qualifier.ForObject(r.Object1, board.NumObjects[r.Object1.Initial]) +
		" adjacent to " + r.Object2.AnyOf(board.NumObjects[r.Object2.Initial]) + "."
}

func (r *AdjacentRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "ADJACENT",
		SpaceObject1: &r.Object1,
		SpaceObject2: &r.Object2,
		Qualifier:    r.Qualifier.String(),
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// OppositeRule relates two object types across the ring.
type OppositeRule struct {
	Object1   SpaceObject
	Object2   SpaceObject
	Qualifier RuleQualifier
}

func parseOppositeRule(s string) (*OppositeRule, error) {
	if len(s) < 4 {
		return nil, fmt.Errorf("short opposite rule %q", s)
	}
	obj1, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	obj2, err := ParseSpaceObject(s[2:3])
	if err != nil {
		return nil, err
	}
	qualifier, err := ParseRuleQualifier(s[3:4])
	if err != nil {
		return nil, err
	}
	return &OppositeRule{Object1: obj1, Object2: obj2, Qualifier: qualifier}, nil
}

func (r *OppositeRule) isRule() {}

func (r *OppositeRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object1, r.Object2}
}

func (r *OppositeRule) Text(board *Board) string {
	return r.Qualifier.ForObject(r.Object1, board.NumObjects[r.Object1.Initial]) +
		" directly opposite " + r.Object2.AnyOf(board.NumObjects[r.Object2.Initial]) + "."
}

func (r *OppositeRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "OPPOSITE",
		SpaceObject1: &r.Object1,
		SpaceObject2: &r.Object2,
		Qualifier:    r.Qualifier.String(),
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// WithinRule bounds the distance between two object types.
type WithinRule struct {
	Object1    SpaceObject
	Object2    SpaceObject
	Qualifier  RuleQualifier
	NumSectors int
}

func parseWithinRule(s string) (*WithinRule, error) {
	if len(s) < 5 {
		return nil, fmt.Errorf("short within rule %q", s)
	}
	obj1, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	obj2, err := ParseSpaceObject(s[2:3])
	if err != nil {
		return nil, err
	}
	qualifier, err := ParseRuleQualifier(s[3:4])
	if err != nil {
		return nil, err
	}
	numSectors, err := strconv.Atoi(s[4:])
	if err != nil {
		return nil, fmt.Errorf("within rule %q: %w", s, err)
	}
	return &WithinRule{Object1: obj1, Object2: obj2, Qualifier: qualifier, NumSectors: numSectors}, nil
}

func (r *WithinRule) isRule() {}

func (r *WithinRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object1, r.Object2}
}

func (r *WithinRule) Text(board *Board) string {
	return r.Qualifier.ForObject(r.Object1, board.NumObjects[r.Object1.Initial]) +
		" within " + strconv.Itoa(r.NumSectors) + " sectors of " +
		r.Object2.AnyOf(board.NumObjects[r.Object2.Initial]) + "."
}

func (r *WithinRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "WITHIN",
		SpaceObject1: &r.Object1,
		SpaceObject2: &r.Object2,
		Qualifier:    r.Qualifier.String(),
		NumSectors:   r.NumSectors,
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// AdjacentSelfRule relates an object type to itself by adjacency.
type AdjacentSelfRule struct {
	Object    SpaceObject
	Qualifier RuleQualifier
}

func parseAdjacentSelfRule(s string) (*AdjacentSelfRule, error) {
	if len(s) < 3 {
		return nil, fmt.Errorf("short adjacent self rule %q", s)
	}
	obj, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	qualifier, err := ParseRuleQualifier(s[2:3])
	if err != nil {
		return nil, err
	}
	return &AdjacentSelfRule{Object: obj, Qualifier: qualifier}, nil
}

func (r *AdjacentSelfRule) isRule() {}

func (r *AdjacentSelfRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object}
}

func (r *AdjacentSelfRule) Text(board *Board) string {
	return r.Qualifier.ForObject(r.Object, board.NumObjects[r.Object.Initial]) +
		" adjacent to another " + r.Object.Name + "."
}

func (r *AdjacentSelfRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "ADJACENT_SELF",
		SpaceObject:  &r.Object,
		Qualifier:    r.Qualifier.String(),
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// OppositeSelfRule relates an object type to itself across the ring.
type OppositeSelfRule struct {
	Object    SpaceObject
	Qualifier RuleQualifier
}

func parseOppositeSelfRule(s string) (*OppositeSelfRule, error) {
	if len(s) < 3 {
		return nil, fmt.Errorf("short opposite self rule %q", s)
	}
	obj, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	qualifier, err := ParseRuleQualifier(s[2:3])
	if err != nil {
		return nil, err
	}
	return &OppositeSelfRule{Object: obj, Qualifier: qualifier}, nil
}

func (r *OppositeSelfRule) isRule() {}

func (r *OppositeSelfRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object}
}

func (r *OppositeSelfRule) Text(board *Board) string {
	return r.Qualifier.ForObject(r.Object, board.NumObjects[r.Object.Initial]) +
		" directly opposite another " + r.Object.Name + "."
}

func (r *OppositeSelfRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "OPPOSITE_SELF",
		SpaceObject:  &r.Object,
		Qualifier:    r.Qualifier.String(),
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// BandRule confines all copies of an object to a band of sectors.
type BandRule struct {
	Object    SpaceObject
	BandSize  int
	Precision Precision
}

func parseBandRule(s string) (*BandRule, error) {
	if len(s) < 4 {
		return nil, fmt.Errorf("short band rule %q", s)
	}
	obj, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	bandSize, err := strconv.Atoi(s[2:3])
	if err != nil {
		return nil, fmt.Errorf("band rule %q: %w", s, err)
	}
	precision, err := ParsePrecision(s[3:4])
	if err != nil {
		return nil, err
	}
	return &BandRule{Object: obj, BandSize: bandSize, Precision: precision}, nil
}

func (r *BandRule) isRule() {}

func (r *BandRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object}
}

func (r *BandRule) Text(board *Board) string {
	return "The " + r.Object.Plural() + " are in a band of " +
		r.Precision.text() + " " + strconv.Itoa(r.BandSize) + "."
}

func (r *BandRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:     "BAND",
		SpaceObject:  &r.Object,
		NumSectors:   r.BandSize,
		Precision:    r.Precision.String(),
		CategoryName: categoryName(r.SpaceObjects()),
		Text:         r.Text(board),
	}
}

// SectorsRule confines an object type to an explicit sector list.
type SectorsRule struct {
	Object    SpaceObject
	Positions []int
}

func parseSectorsRule(s string) (*SectorsRule, error) {
	if len(s) < 3 {
		return nil, fmt.Errorf("short sectors rule %q", s)
	}
	obj, err := ParseSpaceObject(s[1:2])
	if err != nil {
		return nil, err
	}
	positions := make([]int, 0, len(s)-2)
	for i := 2; i < len(s); i++ {
		positions = append(positions, int(s[i])-'A')
	}
	return &SectorsRule{Object: obj, Positions: positions}, nil
}

func (r *SectorsRule) isRule() {}

func (r *SectorsRule) SpaceObjects() []SpaceObject {
	return []SpaceObject{r.Object}
}

func (r *SectorsRule) Text(board *Board) string {
	sectors := make([]string, len(r.Positions))
	for i, p := range r.Positions {
		sectors[i] = strconv.Itoa(p + 1)
	}
	return "The " + r.Object.Plural() + " are only in sectors " + strings.Join(sectors, ", ") + "."
}

func (r *SectorsRule) View(board *Board) RuleView {
	return RuleView{
		RuleType:       "SECTORS",
		SpaceObject:    &r.Object,
		AllowedSectors: r.Positions,
		CategoryName:   categoryName(r.SpaceObjects()),
		Text:           r.Text(board),
	}
}
