package xiangqi

import "fmt"

type Status int8

const (
	StatusInProgress Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
	StatusDraw
	// StatusForfeit ends the game by resignation or flag fall.
	StatusForfeit
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusDraw:
		return "draw"
	case StatusForfeit:
		return "forfeit"
	default:
		return fmt.Sprintf("status(%d)", int8(s))
	}
}

func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate || s == StatusDraw || s == StatusForfeit
}

type Outcome int8

const (
	NoOutcome Outcome = iota
	RedWins
	BlackWins
	Drawn
)

func (o Outcome) String() string {
	switch o {
	case RedWins:
		return "red"
	case BlackWins:
		return "black"
	case Drawn:
		return "draw"
	default:
		return ""
	}
}

func winner(c Color) Outcome {
	if c == Red {
		return RedWins
	}
	return BlackWins
}

type Method int8

const (
	NoMethod Method = iota
	MethodCheckmate
	MethodStalemate
	MethodDrawRule
	MethodResignation
	MethodTimeForfeit
)

func (m Method) String() string {
	switch m {
	case MethodCheckmate:
		return "checkmate"
	case MethodStalemate:
		return "stalemate"
	case MethodDrawRule:
		return "draw_rule"
	case MethodResignation:
		return "resignation"
	case MethodTimeForfeit:
		return "time_forfeit"
	default:
		return ""
	}
}

// HistoryEntry records one applied move. Captured is a value snapshot, never
// shared with the board.
type HistoryEntry struct {
	PieceID  string `json:"piece_id"`
	From     Coord  `json:"from"`
	To       Coord  `json:"to"`
	Captured *Piece `json:"captured,omitempty"`
}

func (h HistoryEntry) Move() Move { return Move{PieceID: h.PieceID, From: h.From, To: h.To} }

// Game is the turn/terminal-state machine. It is not safe for concurrent
// use; callers serialize ApplyMove/Undo.
type Game struct {
	board     *Board
	turn      Color
	history   []HistoryEntry
	positions []string
	status    Status
	outcome   Outcome
	method    Method
	policy    DrawPolicy
}

type Option func(*Game)

func WithDrawPolicy(p DrawPolicy) Option {
	return func(g *Game) { g.policy = p }
}

// NewGame starts from the standard layout with Red to move.
func NewGame(opts ...Option) *Game {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return newGame(b, Red, opts)
}

// NewGameFromFEN accepts "<board> [w|b]".
func NewGameFromFEN(fen string, opts ...Option) (*Game, error) {
	b, side, err := ParsePosition(fen)
	if err != nil {
		return nil, err
	}
	return newGame(b, side, opts), nil
}

func newGame(b *Board, side Color, opts []Option) *Game {
	g := &Game{board: b, turn: side}
	for _, opt := range opts {
		opt(g)
	}
	g.positions = []string{g.positionKey()}
	g.recompute()
	return g
}

// Board returns a copy; the game keeps exclusive ownership of its board.
func (g *Game) Board() *Board { return g.board.Clone() }
func (g *Game) Turn() Color { return g.turn }
func (g *Game) Status() Status { return g.status }
func (g *Game) Outcome() Outcome { return g.outcome }
func (g *Game) Method() Method { return g.method }
func (g *Game) Ply() int { return len(g.history) }

func (g *Game) FEN() string { return g.positionKey() }

func (g *Game) positionKey() string { return g.board.FEN() + " " + sideToken(g.turn) }

// History returns a deep copy of the applied moves, oldest first.
func (g *Game) History() []HistoryEntry {
	out := make([]HistoryEntry, len(g.history))
	for i, h := range g.history {
		out[i] = h
		if h.Captured != nil {
			c := *h.Captured
			out[i].Captured = &c
		}
	}
	return out
}

func (g *Game) LastMove() (HistoryEntry, bool) {
	if len(g.history) == 0 {
		return HistoryEntry{}, false
	}
	return g.history[len(g.history)-1], true
}

// LegalMoves lists destinations for a live piece regardless of turn.
func (g *Game) LegalMoves(pieceID string) ([]Coord, error) {
	p, ok := g.board.Piece(pieceID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", pieceID, ErrUnknownPiece)
	}
	return LegalMoves(g.board, p), nil
}

func (g *Game) AllLegalMoves() []Move {
	if g.status.Terminal() {
		return nil
	}
	return AllLegalMoves(g.board, g.turn)
}

// ApplyMove moves pieceID to to after checking terminal state, turn and
// legality, in that order.
func (g *Game) ApplyMove(pieceID string, to Coord) (HistoryEntry, error) {
	if g.status.Terminal() {
		return HistoryEntry{}, ErrGameOver
	}
	p, ok := g.board.Piece(pieceID)
	if !ok {
		return HistoryEntry{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, pieceID, ErrUnknownPiece)
	}
	if p.Color != g.turn {
		return HistoryEntry{}, fmt.Errorf("%w: %s moves for %s", ErrNotPlayersTurn, pieceID, p.Color)
	}
	if !IsLegal(g.board, p, to) {
		return HistoryEntry{}, fmt.Errorf("%w: %s to %s", ErrIllegalMove, pieceID, to)
	}

	captured, took, err := g.board.MoveAndCapture(pieceID, to)
	if err != nil {
		return HistoryEntry{}, err
	}
	entry := HistoryEntry{PieceID: pieceID, From: p.Pos, To: to}
	if took {
		c := captured
		entry.Captured = &c
	}
	g.history = append(g.history, entry)
	g.turn = g.turn.Opponent()
	g.positions = append(g.positions, g.positionKey())
	g.recompute()
	return entry, nil
}

// Play applies the move of whatever piece stands on from.
func (g *Game) Play(from, to Coord) (HistoryEntry, error) {
	if g.status.Terminal() {
		return HistoryEntry{}, ErrGameOver
	}
	p, ok := g.board.At(from)
	if !ok {
		return HistoryEntry{}, fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	return g.ApplyMove(p.ID, to)
}

// PlayICCS applies a move written as "h2e2".
func (g *Game) PlayICCS(s string) (HistoryEntry, error) {
	from, to, err := ParseMove(s)
	if err != nil {
		return HistoryEntry{}, err
	}
	return g.Play(from, to)
}

// Undo reverts the last move, reviving any captured piece under its id.
// A forfeited game cannot be undone.
func (g *Game) Undo() (HistoryEntry, error) {
	if g.status == StatusForfeit {
		return HistoryEntry{}, ErrGameOver
	}
	if len(g.history) == 0 {
		return HistoryEntry{}, ErrNoMoveToUndo
	}
	last := g.history[len(g.history)-1]
	if _, _, err := g.board.MoveAndCapture(last.PieceID, last.From); err != nil {
		return HistoryEntry{}, fmt.Errorf("undo %s: %w", last.PieceID, err)
	}
	if last.Captured != nil {
		if err := g.board.Place(*last.Captured); err != nil {
			return HistoryEntry{}, fmt.Errorf("undo restore %s: %w", last.Captured.ID, err)
		}
	}
	g.history = g.history[:len(g.history)-1]
	g.positions = g.positions[:len(g.positions)-1]
	g.turn = g.turn.Opponent()
	g.recompute()
	return last, nil
}

// Forfeit ends the game against loser (resignation or flag fall).
func (g *Game) Forfeit(loser Color, m Method) error {
	if g.status.Terminal() {
		return ErrGameOver
	}
	g.status = StatusForfeit
	g.outcome = winner(loser.Opponent())
	g.method = m
	return nil
}

func (g *Game) pliesSinceCapture() int {
	n := 0
	for i := len(g.history) - 1; i >= 0; i-- {
		if g.history[i].Captured != nil {
			break
		}
		n++
	}
	return n
}

// recompute derives status for the side to move. The side left without a
// legal move loses, whether or not it is in check.
func (g *Game) recompute() {
	g.outcome, g.method = NoOutcome, NoMethod
	check := InCheck(g.board, g.turn)
	if !HasLegalMove(g.board, g.turn) {
		if check {
			g.status, g.method = StatusCheckmate, MethodCheckmate
		} else {
			g.status, g.method = StatusStalemate, MethodStalemate
		}
		g.outcome = winner(g.turn.Opponent())
		return
	}
	if g.policy != nil && g.policy.IsDraw(DrawContext{Positions: g.positions, PliesSinceCapture: g.pliesSinceCapture()}) {
		g.status, g.outcome, g.method = StatusDraw, Drawn, MethodDrawRule
		return
	}
	if check {
		g.status = StatusCheck
		return
	}
	g.status = StatusInProgress
}

// Replay rebuilds a game from a starting position and a move list.
func Replay(fen string, moves []Move, opts ...Option) (*Game, error) {
	var (
		g   *Game
		err error
	)
	if fen == "" {
		g = NewGame(opts...)
	} else if g, err = NewGameFromFEN(fen, opts...); err != nil {
		return nil, err
	}
	for i, mv := range moves {
		if _, err := g.ApplyMove(mv.PieceID, mv.To); err != nil {
			return nil, fmt.Errorf("replay ply %d (%s): %w", i+1, mv, err)
		}
	}
	return g, nil
}
