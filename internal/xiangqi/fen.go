package xiangqi

import (
	"fmt"
	"strings"
)

// StartFEN is the standard opening layout, rank 0 (Black) first.
const StartFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR"

// FEN encodes the board: ranks row 0..9 joined by '/', runs of empty cells
// as digits.
func (b *Board) FEN() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < Cols; c++ {
			p, ok := b.At(Coord{Row: r, Col: c})
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// ParseFEN decodes a board. Piece ids are assigned in scan order per color
// and type ("red-rook-1", "red-rook-2", ...), so the same encoding always
// yields the same ids.
func ParseFEN(s string) (*Board, error) {
	s = strings.TrimSpace(s)
	ranks := strings.Split(s, "/")
	if len(ranks) != Rows {
		return nil, fmt.Errorf("%w: want %d ranks, got %d", ErrMalformedEncoding, Rows, len(ranks))
	}
	b := NewBoard()
	var seq [2][len(pieceTypes)]int
	for r, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '9' {
				col += int(ch - '0')
				if col > Cols {
					return nil, fmt.Errorf("%w: rank %d overflows", ErrMalformedEncoding, r)
				}
				continue
			}
			t, ok := pieceTypeFromLetter(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected %q in rank %d", ErrMalformedEncoding, ch, r)
			}
			if col >= Cols {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrMalformedEncoding, r)
			}
			color := Black
			if ch >= 'A' && ch <= 'Z' {
				color = Red
			}
			seq[color][t]++
			p := NewPiece(pieceID(color, t, seq[color][t]), t, color, Coord{Row: r, Col: col})
			if err := b.Place(p); err != nil {
				return nil, err
			}
			col++
		}
		if col != Cols {
			return nil, fmt.Errorf("%w: rank %d has %d columns", ErrMalformedEncoding, r, col)
		}
	}
	return b, nil
}

// ParsePosition decodes "<board> [w|b]". A missing side token means Red to
// move; trailing fields (move counters) are ignored.
func ParsePosition(s string) (*Board, Color, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, Red, fmt.Errorf("%w: empty position", ErrMalformedEncoding)
	}
	b, err := ParseFEN(fields[0])
	if err != nil {
		return nil, Red, err
	}
	side := Red
	if len(fields) > 1 {
		c, ok := ParseColor(fields[1])
		if !ok {
			return nil, Red, fmt.Errorf("%w: side %q", ErrMalformedEncoding, fields[1])
		}
		side = c
	}
	return b, side, nil
}

func sideToken(c Color) string {
	if c == Black {
		return "b"
	}
	return "w"
}
