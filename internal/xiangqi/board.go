package xiangqi

import "fmt"

type slot struct {
	piece Piece
	live  bool
}

// Board owns every live piece by slot. cells holds slot index + 1 (0 = empty).
// A captured piece keeps its slot, marked dead, so undo can revive it under
// the same id.
type Board struct {
	cells [Rows][Cols]int
	slots []slot
	index map[string]int
}

func NewBoard() *Board {
	return &Board{index: make(map[string]int)}
}

// At never fails; off-board coordinates report empty.
func (b *Board) At(c Coord) (Piece, bool) {
	if !c.InBounds() {
		return Piece{}, false
	}
	n := b.cells[c.Row][c.Col]
	if n == 0 {
		return Piece{}, false
	}
	return b.slots[n-1].piece, true
}

func (b *Board) occupied(c Coord) bool {
	return c.InBounds() && b.cells[c.Row][c.Col] != 0
}

// Piece looks up a live piece by id.
func (b *Board) Piece(id string) (Piece, bool) {
	i, ok := b.index[id]
	if !ok || !b.slots[i].live {
		return Piece{}, false
	}
	return b.slots[i].piece, true
}

// Pieces returns the live pieces in slot order.
func (b *Board) Pieces() []Piece {
	out := make([]Piece, 0, len(b.slots))
	for _, s := range b.slots {
		if s.live {
			out = append(out, s.piece)
		}
	}
	return out
}

func (b *Board) PiecesOf(c Color) []Piece {
	out := make([]Piece, 0, 16)
	for _, s := range b.slots {
		if s.live && s.piece.Color == c {
			out = append(out, s.piece)
		}
	}
	return out
}

func (b *Board) King(c Color) (Piece, bool) {
	for _, s := range b.slots {
		if s.live && s.piece.Color == c && s.piece.Type == King {
			return s.piece, true
		}
	}
	return Piece{}, false
}

func (b *Board) Len() int {
	n := 0
	for _, s := range b.slots {
		if s.live {
			n++
		}
	}
	return n
}

// Place inserts p at p.Pos and expects the cell to be empty.
func (b *Board) Place(p Piece) error {
	if !p.Pos.InBounds() {
		return fmt.Errorf("place %s: %w", p.ID, ErrOutOfBounds)
	}
	if b.occupied(p.Pos) {
		return fmt.Errorf("place %s at %s: %w", p.ID, p.Pos, ErrOccupiedCell)
	}
	if _, live := b.Piece(p.ID); live {
		return fmt.Errorf("place %s: id already live: %w", p.ID, ErrOccupiedCell)
	}
	b.insert(p)
	return nil
}

// Set writes p at p.Pos, displacing whatever was there. If p.ID is already
// live elsewhere it is moved.
func (b *Board) Set(p Piece) error {
	if !p.Pos.InBounds() {
		return fmt.Errorf("set %s: %w", p.ID, ErrOutOfBounds)
	}
	if old, ok := b.Piece(p.ID); ok {
		b.cells[old.Pos.Row][old.Pos.Col] = 0
		b.slots[b.index[p.ID]].live = false
	}
	if n := b.cells[p.Pos.Row][p.Pos.Col]; n != 0 {
		b.slots[n-1].live = false
		b.cells[p.Pos.Row][p.Pos.Col] = 0
	}
	b.insert(p)
	return nil
}

func (b *Board) insert(p Piece) {
	i, ok := b.index[p.ID]
	if ok {
		b.slots[i] = slot{piece: p, live: true}
	} else {
		if b.index == nil {
			b.index = make(map[string]int)
		}
		b.slots = append(b.slots, slot{piece: p, live: true})
		i = len(b.slots) - 1
		b.index[p.ID] = i
	}
	b.cells[p.Pos.Row][p.Pos.Col] = i + 1
}

// Remove takes a live piece off the board and returns its last state.
func (b *Board) Remove(id string) (Piece, bool) {
	i, ok := b.index[id]
	if !ok || !b.slots[i].live {
		return Piece{}, false
	}
	p := b.slots[i].piece
	b.slots[i].live = false
	b.cells[p.Pos.Row][p.Pos.Col] = 0
	return p, true
}

// MoveAndCapture vacates the origin, removes any occupant of to (returned as
// captured) and occupies to. Legality is not checked.
func (b *Board) MoveAndCapture(id string, to Coord) (captured Piece, ok bool, err error) {
	if !to.InBounds() {
		return Piece{}, false, fmt.Errorf("move %s to %s: %w", id, to, ErrOutOfBounds)
	}
	i, found := b.index[id]
	if !found || !b.slots[i].live {
		return Piece{}, false, fmt.Errorf("move %s: %w", id, ErrUnknownPiece)
	}
	from := b.slots[i].piece.Pos
	if from == to {
		return Piece{}, false, nil
	}
	if n := b.cells[to.Row][to.Col]; n != 0 {
		captured, ok = b.slots[n-1].piece, true
		b.slots[n-1].live = false
	}
	b.cells[from.Row][from.Col] = 0
	b.slots[i].piece.Move(to.Row, to.Col)
	b.cells[to.Row][to.Col] = i + 1
	return captured, ok, nil
}

// Clone returns a fully independent copy.
func (b *Board) Clone() *Board {
	c := &Board{
		cells: b.cells,
		slots: append([]slot(nil), b.slots...),
		index: make(map[string]int, len(b.index)),
	}
	for k, v := range b.index {
		c.index[k] = v
	}
	return c
}

// Equal compares occupancy cell by cell (type and color, ids ignored).
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			p, ok := b.At(Coord{r, c})
			q, ok2 := o.At(Coord{r, c})
			if ok != ok2 {
				return false
			}
			if ok && (p.Type != q.Type || p.Color != q.Color) {
				return false
			}
		}
	}
	return true
}

func (b *Board) String() string { return b.FEN() }
