package games

import (
	"fmt"
	"strings"
)

// SpaceObject is one kind of object that can occupy a sector.
type SpaceObject struct {
	Initial string `json:"initial"`
	Name    string `json:"name"`
	Unique  bool   `json:"-"`
}

var (
	Empty       = SpaceObject{Initial: "E", Name: "empty sector"}
	Comet       = SpaceObject{Initial: "C", Name: "comet"}
	Asteroid    = SpaceObject{Initial: "A", Name: "asteroid"}
	DwarfPlanet = SpaceObject{Initial: "D", Name: "dwarf planet"}
	PlanetX     = SpaceObject{Initial: "X", Name: "Planet X", Unique: true}
	GasCloud    = SpaceObject{Initial: "G", Name: "gas cloud"}
	BlackHole   = SpaceObject{Initial: "B", Name: "black hole"}
)

// ParseSpaceObject maps a one character code to its object.
func ParseSpaceObject(code string) (SpaceObject, error) {
	switch code {
	case "E":
		return Empty, nil
	case "C":
		return Comet, nil
	case "A":
		return Asteroid, nil
	case "D":
		return DwarfPlanet, nil
	case "X":
		return PlanetX, nil
	case "G":
		return GasCloud, nil
	case "B":
		return BlackHole, nil
	}
	return SpaceObject{}, fmt.Errorf("unknown space object code %q", code)
}

// One returns the indefinite article for the object's name.
func (o SpaceObject) One() string {
	switch o.Name[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	default:
		return "a"
	}
}

func (o SpaceObject) Plural() string {
	return o.Name + "s"
}

// Singular names the object as the subject of a sentence.
func (o SpaceObject) Singular() string {
	if o.Unique {
		return o.Name
	}
	return "the " + o.Name
}

// Proper title-cases the object name.
func (o SpaceObject) Proper() string {
	words := strings.Fields(o.Name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (o SpaceObject) ProperPlural() string {
	return o.Proper() + "s"
}

// Category is the heading used when grouping rules about this object.
func (o SpaceObject) Category() string {
	if o.Unique {
		return o.Name
	}
	return o.ProperPlural()
}

// AnyOf phrases "an asteroid" or "the comet" depending on how many of the
// object the board holds.
func (o SpaceObject) AnyOf(numObject int) string {
	if numObject == 1 {
		return o.Singular()
	}
	return o.One() + " " + o.Name
}

// Board is the ring of sector contents for one game. Immutable once parsed.
type Board struct {
	Objects    []SpaceObject
	NumObjects map[string]int
}

// ParseBoard reads the packed object string, one code character per sector.
func ParseBoard(s string) (*Board, error) {
	objects := make([]SpaceObject, 0, len(s))
	numObjects := make(map[string]int)
	for i := 0; i < len(s); i++ {
		obj, err := ParseSpaceObject(s[i : i+1])
		if err != nil {
			return nil, fmt.Errorf("sector %d: %w", i, err)
		}
		objects = append(objects, obj)
		numObjects[obj.Initial]++
	}
	return &Board{Objects: objects, NumObjects: numObjects}, nil
}

// Size is the number of sectors on the board.
func (b *Board) Size() int {
	return len(b.Objects)
}

// ObjectAt returns the object occupying a sector, taken modulo board size
// so callers can ask about "the sector left of 0".
func (b *Board) ObjectAt(sector int) SpaceObject {
	n := len(b.Objects)
	return b.Objects[((sector%n)+n)%n]
}

func (b *Board) String() string {
	var sb strings.Builder
	for _, obj := range b.Objects {
		sb.WriteString(obj.Initial)
	}
	return sb.String()
}
