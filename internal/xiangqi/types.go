package xiangqi

import "fmt"

const (
	Rows = 10
	Cols = 9
)

// Color identifies a side. Red moves first and sits on rows 5..9.
type Color int8

const (
	Red Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == Red {
		return Black
	}
	return Red
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", int8(c))
	}
}

// ParseColor accepts "red"/"r"/"w" and "black"/"b".
func ParseColor(s string) (Color, bool) {
	switch s {
	case "red", "r", "w", "R", "W":
		return Red, true
	case "black", "b", "B":
		return Black, true
	}
	return Red, false
}

type PieceType int8

const (
	King PieceType = iota
	Advisor
	Bishop
	Knight
	Rook
	Cannon
	Pawn
)

var pieceTypes = [...]PieceType{King, Advisor, Bishop, Knight, Rook, Cannon, Pawn}

func (t PieceType) String() string {
	switch t {
	case King:
		return "king"
	case Advisor:
		return "advisor"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Rook:
		return "rook"
	case Cannon:
		return "cannon"
	case Pawn:
		return "pawn"
	default:
		return fmt.Sprintf("piecetype(%d)", int8(t))
	}
}

// Letter is the upper-case FEN letter of the type.
func (t PieceType) Letter() byte {
	switch t {
	case King:
		return 'K'
	case Advisor:
		return 'A'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Rook:
		return 'R'
	case Cannon:
		return 'C'
	case Pawn:
		return 'P'
	default:
		return '?'
	}
}

func pieceTypeFromLetter(ch byte) (PieceType, bool) {
	switch ch {
	case 'K', 'k':
		return King, true
	case 'A', 'a':
		return Advisor, true
	case 'B', 'b':
		return Bishop, true
	case 'N', 'n':
		return Knight, true
	case 'R', 'r':
		return Rook, true
	case 'C', 'c':
		return Cannon, true
	case 'P', 'p':
		return Pawn, true
	}
	return King, false
}

// Coord addresses a cell. Row 0 is Black's back rank, row 9 is Red's.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < Rows && c.Col >= 0 && c.Col < Cols
}

func (c Coord) add(dr, dc int) Coord { return Coord{Row: c.Row + dr, Col: c.Col + dc} }

func (c Coord) String() string {
	if !c.InBounds() {
		return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
	}
	return c.ICCS()
}

func inPalace(side Color, c Coord) bool {
	if c.Col < 3 || c.Col > 5 {
		return false
	}
	if side == Red {
		return c.Row >= 7 && c.Row <= 9
	}
	return c.Row >= 0 && c.Row <= 2
}

func onOwnSide(side Color, c Coord) bool {
	if side == Red {
		return c.Row >= 5
	}
	return c.Row <= 4
}

func forward(side Color) int {
	if side == Red {
		return -1
	}
	return 1
}
