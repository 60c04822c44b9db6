package cube

import "fmt"

// InvalidMoveError reports a move symbol outside the 18-symbol alphabet.
type InvalidMoveError struct {
	Symbol string
}

func (e InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move %q", e.Symbol)
}

// InvalidStateError reports a state serialization of the wrong length.
type InvalidStateError struct {
	Length int
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("state must be %d characters, got %d", StateLen, e.Length)
}
