package xiangqi

import "errors"

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrNotPlayersTurn    = errors.New("not player's turn")
	ErrGameOver          = errors.New("game already over")
	ErrNoMoveToUndo      = errors.New("no move to undo")
	ErrMalformedEncoding = errors.New("malformed board encoding")
	ErrOccupiedCell      = errors.New("cell already occupied")
	ErrUnknownPiece      = errors.New("piece not on board")
	ErrOutOfBounds       = errors.New("coordinate out of bounds")
)
