package xiangqi

import (
	"fmt"
	"strings"
)

// ICCS renders the coordinate as file a..i (left to right from Red's seat)
// and rank 0..9 counted from Red's back rank.
func (c Coord) ICCS() string {
	return string([]byte{byte('a' + c.Col), byte('0' + (Rows - 1 - c.Row))})
}

func ParseCoord(s string) (Coord, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, ErrOutOfBounds)
	}
	c := Coord{Row: Rows - 1 - int(s[1]-'0'), Col: int(s[0] - 'a')}
	if s[1] < '0' || s[1] > '9' || !c.InBounds() {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, ErrOutOfBounds)
	}
	return c, nil
}

// ParseMove reads "h2e2" or "h2-e2".
func ParseMove(s string) (from, to Coord, err error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if len(s) != 4 {
		return Coord{}, Coord{}, fmt.Errorf("move %q: %w", s, ErrIllegalMove)
	}
	if from, err = ParseCoord(s[:2]); err != nil {
		return Coord{}, Coord{}, fmt.Errorf("move %q: %w", s, ErrIllegalMove)
	}
	if to, err = ParseCoord(s[2:]); err != nil {
		return Coord{}, Coord{}, fmt.Errorf("move %q: %w", s, ErrIllegalMove)
	}
	return from, to, nil
}

func FormatMove(from, to Coord) string { return from.ICCS() + to.ICCS() }
