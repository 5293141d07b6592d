package xiangqi

// Static material weights for evaluation. The rule engine itself never
// searches; these are exposed for callers that do.
const (
	KingValue    = 10000
	RookValue    = 900
	CannonValue  = 450
	KnightValue  = 400
	AdvisorValue = 200
	BishopValue  = 200
	PawnValue    = 100
)

// PieceValue is the same magnitude for both colors.
func PieceValue(t PieceType, _ Color) int {
	switch t {
	case King:
		return KingValue
	case Advisor:
		return AdvisorValue
	case Bishop:
		return BishopValue
	case Knight:
		return KnightValue
	case Rook:
		return RookValue
	case Cannon:
		return CannonValue
	case Pawn:
		return PawnValue
	}
	return 0
}

// Material is the per-side sum of live piece values, kings excluded.
type Material struct {
	Red   int `json:"red"`
	Black int `json:"black"`
}

func (m Material) Diff() int { return m.Red - m.Black }

func MaterialOf(b *Board) Material {
	var m Material
	for _, p := range b.Pieces() {
		if p.Type == King {
			continue
		}
		if p.Color == Red {
			m.Red += PieceValue(p.Type, p.Color)
		} else {
			m.Black += PieceValue(p.Type, p.Color)
		}
	}
	return m
}
