package cube

// Move is one element of the 18-symbol generator alphabet: a quarter turn
// (clockwise or counterclockwise) or a half turn of one of the six faces.
type Move int8

const (
	// MoveNone marks the root of a search, where no move has been made yet.
	MoveNone Move = -1

	MoveU Move = iota - 1
	MoveUPrime
	MoveU2
	MoveD
	MoveDPrime
	MoveD2
	MoveF
	MoveFPrime
	MoveF2
	MoveB
	MoveBPrime
	MoveB2
	MoveL
	MoveLPrime
	MoveL2
	MoveR
	MoveRPrime
	MoveR2

	NumMoves = 18
)

var moveNames = [NumMoves]string{
	"U", "U'", "U2",
	"D", "D'", "D2",
	"F", "F'", "F2",
	"B", "B'", "B2",
	"L", "L'", "L2",
	"R", "R'", "R2",
}

var inverses = [NumMoves]Move{
	MoveUPrime, MoveU, MoveU2,
	MoveDPrime, MoveD, MoveD2,
	MoveFPrime, MoveF, MoveF2,
	MoveBPrime, MoveB, MoveB2,
	MoveLPrime, MoveL, MoveL2,
	MoveRPrime, MoveR, MoveR2,
}

// The three opposite face pairs are fixed by the cube's geometry.
var opposites = [6]Face{
	Up:    Down,
	Down:  Up,
	Front: Back,
	Back:  Front,
	Left:  Right,
	Right: Left,
}

func (m Move) Valid() bool {
	return 0 <= m && m < NumMoves
}

func (m Move) String() string {
	if !m.Valid() {
		return "?"
	}
	return moveNames[m]
}

// Inverse returns the move that undoes m. Half turns are self-inverse.
func (m Move) Inverse() Move {
	return inverses[m]
}

// Face returns the face m turns.
func (m Move) Face() Face {
	return Face(m / 3)
}

// ParseMove maps a move symbol ("U", "U'", "U2", ...) back to a Move. Unknown
// symbols fail with [InvalidMoveError].
func ParseMove(s string) (Move, error) {
	for m, name := range moveNames {
		if s == name {
			return Move(m), nil
		}
	}
	return MoveNone, InvalidMoveError{s}
}

// ParseMoves parses a sequence of move symbols.
func ParseMoves(ss []string) ([]Move, error) {
	ms := make([]Move, len(ss))
	for i, s := range ss {
		m, err := ParseMove(s)
		if err != nil {
			return nil, err
		}
		ms[i] = m
	}
	return ms, nil
}

// FormatMoves renders a move sequence as symbols.
func FormatMoves(ms []Move) []string {
	ss := make([]string, len(ms))
	for i, m := range ms {
		ss[i] = m.String()
	}
	return ss
}

// AllMoves returns the full 18-move alphabet.
func AllMoves() []Move {
	ms := make([]Move, NumMoves)
	for i := range ms {
		ms[i] = Move(i)
	}
	return ms
}

// Generators returns the 12 quarter turns the search branches on. Half turns
// are reachable as two quarter turns and only inflate the branching factor.
func Generators() []Move {
	return []Move{
		MoveU, MoveUPrime,
		MoveD, MoveDPrime,
		MoveF, MoveFPrime,
		MoveB, MoveBPrime,
		MoveL, MoveLPrime,
		MoveR, MoveRPrime,
	}
}

// Redundant reports whether next is provably wasteful right after last: a
// turn of the same face (the pair merges into a single move) or of the
// opposite face (the two commute, so one ordering is forbidden to avoid
// exploring duplicate paths). Only the immediately preceding move is
// considered.
func Redundant(last, next Move) bool {
	if last == MoveNone {
		return false
	}
	lf, nf := last.Face(), next.Face()
	return lf == nf || opposites[lf] == nf
}
