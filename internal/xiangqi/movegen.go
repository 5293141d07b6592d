package xiangqi

// Move is a generated or applied displacement of one piece.
type Move struct {
	PieceID string `json:"piece_id"`
	From    Coord  `json:"from"`
	To      Coord  `json:"to"`
}

func (m Move) String() string { return FormatMove(m.From, m.To) }

var (
	orthogonal = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonal   = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	knightJump = [8][2]int{{-2, -1}, {-2, 1}, {2, -1}, {2, 1}, {-1, -2}, {1, -2}, {-1, 2}, {1, 2}}
)

// PseudoMoves lists destinations reachable by p's movement rule, ignoring
// whether the move exposes its own king. Own-occupied and off-board cells are
// never included.
func PseudoMoves(b *Board, p Piece) []Coord {
	out := make([]Coord, 0, 17)
	push := func(to Coord) {
		if !to.InBounds() {
			return
		}
		if q, ok := b.At(to); ok && q.Color == p.Color {
			return
		}
		out = append(out, to)
	}

	switch p.Type {
	case King:
		for _, d := range orthogonal {
			to := p.Pos.add(d[0], d[1])
			if inPalace(p.Color, to) {
				push(to)
			}
		}
	case Advisor:
		for _, d := range diagonal {
			to := p.Pos.add(d[0], d[1])
			if inPalace(p.Color, to) {
				push(to)
			}
		}
	case Bishop:
		for _, d := range diagonal {
			eye := p.Pos.add(d[0], d[1])
			to := p.Pos.add(2*d[0], 2*d[1])
			if !to.InBounds() || !onOwnSide(p.Color, to) || b.occupied(eye) {
				continue
			}
			push(to)
		}
	case Knight:
		for _, d := range knightJump {
			to := p.Pos.add(d[0], d[1])
			if !to.InBounds() {
				continue
			}
			var leg Coord
			if d[0] == 2 || d[0] == -2 {
				leg = p.Pos.add(d[0]/2, 0)
			} else {
				leg = p.Pos.add(0, d[1]/2)
			}
			if b.occupied(leg) {
				continue
			}
			push(to)
		}
	case Rook:
		for _, d := range orthogonal {
			for to := p.Pos.add(d[0], d[1]); to.InBounds(); to = to.add(d[0], d[1]) {
				push(to)
				if b.occupied(to) {
					break
				}
			}
		}
	case Cannon:
		for _, d := range orthogonal {
			to := p.Pos.add(d[0], d[1])
			for ; to.InBounds() && !b.occupied(to); to = to.add(d[0], d[1]) {
				out = append(out, to)
			}
			// to is the screen (or off board); look for the first piece beyond it.
			for to = to.add(d[0], d[1]); to.InBounds(); to = to.add(d[0], d[1]) {
				if q, ok := b.At(to); ok {
					if q.Color != p.Color {
						out = append(out, to)
					}
					break
				}
			}
		}
	case Pawn:
		f := forward(p.Color)
		push(p.Pos.add(f, 0))
		if !onOwnSide(p.Color, p.Pos) {
			push(p.Pos.add(0, -1))
			push(p.Pos.add(0, 1))
		}
	}
	return out
}

// LegalMoves filters PseudoMoves by the rule that a move may not leave the
// mover's king attacked (facing kings included). Turn order is not checked.
func LegalMoves(b *Board, p Piece) []Coord {
	live, ok := b.Piece(p.ID)
	if !ok {
		return nil
	}
	pseudo := PseudoMoves(b, live)
	out := pseudo[:0]
	for _, to := range pseudo {
		if !exposesKing(b, live, to) {
			out = append(out, to)
		}
	}
	return out
}

func exposesKing(b *Board, p Piece, to Coord) bool {
	next := b.Clone()
	if _, _, err := next.MoveAndCapture(p.ID, to); err != nil {
		return true
	}
	return InCheck(next, p.Color)
}

// IsLegal reports whether p may move to to.
func IsLegal(b *Board, p Piece, to Coord) bool {
	for _, c := range LegalMoves(b, p) {
		if c == to {
			return true
		}
	}
	return false
}

// InCheck reports whether side's king is attacked, either by an enemy piece
// or by the opposing king across an open file. A side without a king is
// never in check.
func InCheck(b *Board, side Color) bool {
	k, ok := b.King(side)
	if !ok {
		return false
	}
	if kingsFacing(b) {
		return true
	}
	return Attacked(b, k.Pos, side.Opponent())
}

// Attacked reports whether any live piece of by can reach target.
func Attacked(b *Board, target Coord, by Color) bool {
	for _, p := range b.PiecesOf(by) {
		for _, to := range PseudoMoves(b, p) {
			if to == target {
				return true
			}
		}
	}
	return false
}

func kingsFacing(b *Board) bool {
	red, ok := b.King(Red)
	if !ok {
		return false
	}
	black, ok := b.King(Black)
	if !ok || red.Pos.Col != black.Pos.Col {
		return false
	}
	lo, hi := black.Pos.Row, red.Pos.Row
	if lo > hi {
		lo, hi = hi, lo
	}
	for r := lo + 1; r < hi; r++ {
		if b.occupied(Coord{Row: r, Col: red.Pos.Col}) {
			return false
		}
	}
	return true
}

// AllLegalMoves lists every legal move for side.
func AllLegalMoves(b *Board, side Color) []Move {
	var out []Move
	for _, p := range b.PiecesOf(side) {
		for _, to := range LegalMoves(b, p) {
			out = append(out, Move{PieceID: p.ID, From: p.Pos, To: to})
		}
	}
	return out
}

// HasLegalMove stops at the first legal move found.
func HasLegalMove(b *Board, side Color) bool {
	for _, p := range b.PiecesOf(side) {
		for _, to := range PseudoMoves(b, p) {
			if !exposesKing(b, p, to) {
				return true
			}
		}
	}
	return false
}
