package xiangqi

// DrawContext is what a DrawPolicy sees after a move. Positions holds one key
// per position reached, oldest first, the current position last.
type DrawContext struct {
	Positions         []string
	PliesSinceCapture int
}

// DrawPolicy decides whether a non-terminal position is drawn. A nil policy
// never declares a draw.
type DrawPolicy interface {
	IsDraw(DrawContext) bool
}

// RepetitionPolicy draws when the current position (board and side to move)
// has occurred Count times. Count below 2 disables it.
type RepetitionPolicy struct {
	Count int
}

func (p RepetitionPolicy) IsDraw(dc DrawContext) bool {
	if p.Count < 2 || len(dc.Positions) == 0 {
		return false
	}
	cur := dc.Positions[len(dc.Positions)-1]
	n := 0
	for _, k := range dc.Positions {
		if k == cur {
			n++
		}
	}
	return n >= p.Count
}

// MoveLimitPolicy draws after Plies consecutive plies without a capture.
type MoveLimitPolicy struct {
	Plies int
}

func (p MoveLimitPolicy) IsDraw(dc DrawContext) bool {
	return p.Plies > 0 && dc.PliesSinceCapture >= p.Plies
}

// AnyPolicy draws when any member does.
type AnyPolicy []DrawPolicy

func (a AnyPolicy) IsDraw(dc DrawContext) bool {
	for _, p := range a {
		if p != nil && p.IsDraw(dc) {
			return true
		}
	}
	return false
}
