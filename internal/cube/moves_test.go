package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoveRoundTrip(t *testing.T) {
	for _, m := range AllMoves() {
		parsed, err := ParseMove(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestParseMoveRejectsUnknownSymbols(t *testing.T) {
	for _, s := range []string{"", "X", "U3", "u", "U' ", "UU"} {
		_, err := ParseMove(s)
		var merr InvalidMoveError
		require.ErrorAs(t, err, &merr, "symbol %q", s)
		assert.Equal(t, s, merr.Symbol)
	}
}

func TestParseMovesStopsAtFirstBadSymbol(t *testing.T) {
	ms, err := ParseMoves([]string{"R", "U", "R'", "U'"})
	require.NoError(t, err)
	assert.Equal(t, []Move{MoveR, MoveU, MoveRPrime, MoveUPrime}, ms)

	_, err = ParseMoves([]string{"R", "nope"})
	assert.Error(t, err)
}

func TestInverseTable(t *testing.T) {
	for _, m := range AllMoves() {
		inv := m.Inverse()
		assert.Equal(t, m, inv.Inverse(), "inverse must be an involution")
		assert.Equal(t, m.Face(), inv.Face())
	}
	assert.Equal(t, MoveUPrime, MoveU.Inverse())
	assert.Equal(t, MoveU2, MoveU2.Inverse(), "half turns are self-inverse")
}

func TestRedundant(t *testing.T) {
	assert.False(t, Redundant(MoveNone, MoveU), "no previous move")

	for _, m := range AllMoves() {
		assert.True(t, Redundant(m, m), "same move")
		assert.True(t, Redundant(m, m.Inverse()), "same face, other direction")
	}

	tests := []struct {
		name       string
		last, next Move
		want       bool
	}{
		{"same face", MoveU, MoveU2, true},
		{"opposite face", MoveU, MoveD, true},
		{"opposite face reversed", MoveD, MoveUPrime, true},
		{"opposite face L/R", MoveL, MoveRPrime, true},
		{"opposite face F/B", MoveB2, MoveF, true},
		{"adjacent face", MoveU, MoveF, false},
		{"adjacent face 2", MoveR, MoveU, false},
		{"adjacent face 3", MoveFPrime, MoveL2, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Redundant(test.last, test.next))
		})
	}
}

func TestGenerators(t *testing.T) {
	gens := Generators()
	require.Len(t, gens, 12)
	for _, m := range gens {
		assert.True(t, m.Valid())
		assert.NotEqual(t, Move(2), m%3, "no half turns in the generator set")
	}
}

func TestOppositeFacesCommute(t *testing.T) {
	a := Solved()
	a.MustApply(MoveU)
	a.MustApply(MoveD)

	b := Solved()
	b.MustApply(MoveD)
	b.MustApply(MoveU)

	assert.Equal(t, a, b)
}
