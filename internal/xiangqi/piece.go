package xiangqi

import "fmt"

// Piece is a value; the Board owns live pieces and hands out copies.
type Piece struct {
	ID    string    `json:"id"`
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
	Pos   Coord     `json:"pos"`
}

func NewPiece(id string, t PieceType, c Color, pos Coord) Piece {
	return Piece{ID: id, Type: t, Color: c, Pos: pos}
}

// Move relocates the piece. It does not touch any board.
func (p *Piece) Move(row, col int) {
	p.Pos = Coord{Row: row, Col: col}
}

func (p Piece) Equal(o Piece) bool {
	return p.ID == o.ID && p.Type == o.Type && p.Pos == o.Pos && p.Color == o.Color
}

func (p Piece) Clone() Piece { return p }

// Letter is the FEN letter: upper case for Red, lower case for Black.
func (p Piece) Letter() byte {
	l := p.Type.Letter()
	if p.Color == Black {
		l += 'a' - 'A'
	}
	return l
}

func (p Piece) String() string {
	return fmt.Sprintf("%s@%s", p.ID, p.Pos)
}

func pieceID(c Color, t PieceType, n int) string {
	return fmt.Sprintf("%s-%s-%d", c, t, n)
}
