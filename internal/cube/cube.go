package cube

import (
	"math/rand/v2"
)

// Face indexes one of the six cube faces.
type Face int8

const (
	Up Face = iota
	Down
	Front
	Back
	Left
	Right

	NumFaces = 6
)

// StateLen is the length of a serialized cube: 6 faces of 9 stickers.
const StateLen = NumFaces * 9

// solved face labels: White, Yellow, Green, Blue, Orange, Red.
var solvedLabels = [NumFaces]byte{'W', 'Y', 'G', 'B', 'O', 'R'}

// Cube is the full sticker configuration: six faces of 3x3 single-byte
// labels, row-major, with index 4 the fixed center. Cube is a value type;
// Apply mutates in place, so copy before mutating when you need to keep the
// old state.
type Cube [NumFaces][9]byte

// Solved returns a cube with every face uniform in its center label.
func Solved() Cube {
	var c Cube
	for f := range c {
		for i := range c[f] {
			c[f][i] = solvedLabels[f]
		}
	}
	return c
}

// Parse reconstructs a cube from its 54-character serialization. Strings of
// any other length fail with [InvalidStateError].
func Parse(s string) (Cube, error) {
	var c Cube
	if len(s) != StateLen {
		return c, InvalidStateError{len(s)}
	}
	for f := range c {
		copy(c[f][:], s[f*9:(f+1)*9])
	}
	return c, nil
}

// String serializes the cube as 54 characters, faces in order U D F B L R,
// stickers row-major. Parse is its exact inverse.
func (c Cube) String() string {
	b := make([]byte, 0, StateLen)
	for f := range c {
		b = append(b, c[f][:]...)
	}
	return string(b)
}

// IsSolved reports whether every sticker matches its face's center label.
func (c Cube) IsSolved() bool {
	for f := range c {
		center := c[f][4]
		for _, label := range c[f] {
			if label != center {
				return false
			}
		}
	}
	return true
}

// Heuristic estimates the remaining move count as misplaced stickers divided
// by 8, since a single move displaces stickers in batches. The estimate is a
// search-order driver, not a lower bound: it may overestimate, and states
// with fewer than 8 misplaced stickers round down to 0.
func (c Cube) Heuristic() int {
	misplaced := 0
	for f := range c {
		center := c[f][4]
		for i, label := range c[f] {
			if i != 4 && label != center {
				misplaced++
			}
		}
	}
	return misplaced / 8
}

// Hash folds all 54 labels into a single value. Equal cubes hash equal.
func (c Cube) Hash() uint64 {
	var h uint64
	for f := range c {
		for _, label := range c[f] {
			h = h*31 + uint64(label)
		}
	}
	return h
}

// Apply performs one move, mutating the cube in place. Invalid moves fail
// with [InvalidMoveError] and leave the cube untouched.
func (c *Cube) Apply(m Move) error {
	if !m.Valid() {
		return InvalidMoveError{m.String()}
	}
	c.MustApply(m)
	return nil
}

// MustApply performs one move known to be valid, such as a move drawn from
// the catalog. It panics on anything else.
func (c *Cube) MustApply(m Move) {
	face := int(m) / 3
	switch m % 3 {
	case 0:
		c.turn(turns[face*2])
	case 1:
		c.turn(turns[face*2+1])
	default: // half turn
		c.turn(turns[face*2])
		c.turn(turns[face*2])
	}
}

// ApplyAll performs a sequence of moves, stopping at the first invalid one.
func (c *Cube) ApplyAll(ms []Move) error {
	for _, m := range ms {
		if err := c.Apply(m); err != nil {
			return err
		}
	}
	return nil
}

// Scramble applies n random quarter turns drawn from r and returns them.
func (c *Cube) Scramble(n int, r *rand.Rand) []Move {
	gens := Generators()
	ms := make([]Move, n)
	for i := range ms {
		ms[i] = gens[r.IntN(len(gens))]
		c.MustApply(ms[i])
	}
	return ms
}

// edge names three stickers along one face's boundary with a turned face.
type edge struct {
	face Face
	idx  [3]int
}

// turn is one quarter turn: a face rotation plus a 4-cycle of edge strips.
// The strips cycle backwards: cycle[0] receives cycle[3], cycle[3] receives
// cycle[2], and so on.
type turn struct {
	face  Face
	ccw   bool
	cycle [4]edge
}

// Quarter-turn tables, clockwise then counterclockwise per face, in face
// order U D F B L R. Sticker indices follow the row-major layout viewed
// face-on.
var turns = [12]turn{
	{Up, false, [4]edge{{Front, [3]int{0, 1, 2}}, {Left, [3]int{0, 1, 2}}, {Back, [3]int{0, 1, 2}}, {Right, [3]int{0, 1, 2}}}},
	{Up, true, [4]edge{{Front, [3]int{0, 1, 2}}, {Right, [3]int{0, 1, 2}}, {Back, [3]int{0, 1, 2}}, {Left, [3]int{0, 1, 2}}}},
	{Down, false, [4]edge{{Front, [3]int{6, 7, 8}}, {Right, [3]int{6, 7, 8}}, {Back, [3]int{6, 7, 8}}, {Left, [3]int{6, 7, 8}}}},
	{Down, true, [4]edge{{Front, [3]int{6, 7, 8}}, {Left, [3]int{6, 7, 8}}, {Back, [3]int{6, 7, 8}}, {Right, [3]int{6, 7, 8}}}},
	{Front, false, [4]edge{{Up, [3]int{6, 7, 8}}, {Right, [3]int{0, 3, 6}}, {Down, [3]int{2, 1, 0}}, {Left, [3]int{8, 5, 2}}}},
	{Front, true, [4]edge{{Up, [3]int{6, 7, 8}}, {Left, [3]int{8, 5, 2}}, {Down, [3]int{2, 1, 0}}, {Right, [3]int{0, 3, 6}}}},
	{Back, false, [4]edge{{Up, [3]int{2, 1, 0}}, {Left, [3]int{0, 3, 6}}, {Down, [3]int{6, 7, 8}}, {Right, [3]int{8, 5, 2}}}},
	{Back, true, [4]edge{{Up, [3]int{2, 1, 0}}, {Right, [3]int{8, 5, 2}}, {Down, [3]int{6, 7, 8}}, {Left, [3]int{0, 3, 6}}}},
	{Left, false, [4]edge{{Up, [3]int{0, 3, 6}}, {Front, [3]int{0, 3, 6}}, {Down, [3]int{0, 3, 6}}, {Back, [3]int{8, 5, 2}}}},
	{Left, true, [4]edge{{Up, [3]int{0, 3, 6}}, {Back, [3]int{8, 5, 2}}, {Down, [3]int{0, 3, 6}}, {Front, [3]int{0, 3, 6}}}},
	{Right, false, [4]edge{{Up, [3]int{8, 5, 2}}, {Back, [3]int{0, 3, 6}}, {Down, [3]int{8, 5, 2}}, {Front, [3]int{8, 5, 2}}}},
	{Right, true, [4]edge{{Up, [3]int{8, 5, 2}}, {Front, [3]int{8, 5, 2}}, {Down, [3]int{8, 5, 2}}, {Back, [3]int{0, 3, 6}}}},
}

func (c *Cube) turn(t turn) {
	if t.ccw {
		c.rotateCCW(t.face)
	} else {
		c.rotateCW(t.face)
	}

	e0, e1, e2, e3 := t.cycle[0], t.cycle[1], t.cycle[2], t.cycle[3]
	var tmp [3]byte
	for k := range 3 {
		tmp[k] = c[e0.face][e0.idx[k]]
	}
	for k := range 3 {
		c[e0.face][e0.idx[k]] = c[e3.face][e3.idx[k]]
	}
	for k := range 3 {
		c[e3.face][e3.idx[k]] = c[e2.face][e2.idx[k]]
	}
	for k := range 3 {
		c[e2.face][e2.idx[k]] = c[e1.face][e1.idx[k]]
	}
	for k := range 3 {
		c[e1.face][e1.idx[k]] = tmp[k]
	}
}

func (c *Cube) rotateCW(f Face) {
	old := c[f]
	c[f][0], c[f][1], c[f][2] = old[6], old[3], old[0]
	c[f][3], c[f][5] = old[7], old[1]
	c[f][6], c[f][7], c[f][8] = old[8], old[5], old[2]
}

func (c *Cube) rotateCCW(f Face) {
	old := c[f]
	c[f][0], c[f][1], c[f][2] = old[2], old[5], old[8]
	c[f][3], c[f][5] = old[1], old[7]
	c[f][6], c[f][7], c[f][8] = old[0], old[3], old[6]
}
