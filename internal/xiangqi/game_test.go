package xiangqi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustGame(t *testing.T, fen string, opts ...Option) *Game {
	t.Helper()
	g, err := NewGameFromFEN(fen, opts...)
	require.NoError(t, err)
	return g
}

func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		_, err := g.PlayICCS(mv)
		require.NoError(t, err, "move %s", mv)
	}
}

func TestNewGame(t *testing.T) {
	g := NewGame()
	require.Equal(t, Red, g.Turn())
	require.Equal(t, StatusInProgress, g.Status())
	require.Equal(t, NoOutcome, g.Outcome())
	require.Equal(t, StartFEN+" w", g.FEN())
	require.Zero(t, g.Ply())
	_, ok := g.LastMove()
	require.False(t, ok)
}

func TestApplyMove_Errors(t *testing.T) {
	g := NewGame()

	_, err := g.ApplyMove("black-rook-1", Coord{Row: 1, Col: 0})
	require.ErrorIs(t, err, ErrNotPlayersTurn)

	_, err = g.PlayICCS("a0a5")
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = g.ApplyMove("red-dragon-1", Coord{Row: 5, Col: 0})
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = g.PlayICCS("e4e5")
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = g.PlayICCS("zz")
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = g.Undo()
	require.ErrorIs(t, err, ErrNoMoveToUndo)

	require.Equal(t, StartFEN+" w", g.FEN())
	require.Equal(t, Red, g.Turn())
}

func TestApplyMove_CaptureAndUndo(t *testing.T) {
	g := NewGame()
	entry, err := g.PlayICCS("h2h9")
	require.NoError(t, err)
	require.Equal(t, "red-cannon-2", entry.PieceID)
	require.NotNil(t, entry.Captured)
	require.Equal(t, "black-knight-2", entry.Captured.ID)
	require.Equal(t, Black, g.Turn())
	require.Equal(t, 1, g.Ply())

	b := g.Board()
	_, live := b.Piece("black-knight-2")
	require.False(t, live)

	undone, err := g.Undo()
	require.NoError(t, err)
	require.Equal(t, entry.PieceID, undone.PieceID)
	require.Equal(t, StartFEN+" w", g.FEN())
	require.Equal(t, Red, g.Turn())

	n, live := g.Board().Piece("black-knight-2")
	require.True(t, live)
	require.Equal(t, Coord{Row: 0, Col: 7}, n.Pos)
}

func TestHistory_IsCopy(t *testing.T) {
	g := NewGame()
	play(t, g, "h2h9")
	h := g.History()
	h[0].Captured.ID = "tampered"
	h[0].PieceID = "tampered"

	again := g.History()
	require.Equal(t, "black-knight-2", again[0].Captured.ID)
	require.Equal(t, "red-cannon-2", again[0].PieceID)

	// the board copy is detached as well
	b := g.Board()
	_, _, err := b.MoveAndCapture("red-king-1", Coord{Row: 8, Col: 4})
	require.NoError(t, err)
	k, _ := g.Board().King(Red)
	require.Equal(t, Coord{Row: 9, Col: 4}, k.Pos)
}

func TestCheckmate(t *testing.T) {
	g := mustGame(t, "4k4/8R/9/9/9/9/9/9/9/R2K5 w")
	require.Equal(t, StatusInProgress, g.Status())

	play(t, g, "a0a9")
	require.Equal(t, StatusCheckmate, g.Status())
	require.Equal(t, RedWins, g.Outcome())
	require.Equal(t, MethodCheckmate, g.Method())
	require.Empty(t, g.AllLegalMoves())

	_, err := g.PlayICCS("e9e8")
	require.ErrorIs(t, err, ErrGameOver)

	_, err = g.Undo()
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, g.Status())
	require.Equal(t, NoOutcome, g.Outcome())
	require.Equal(t, Red, g.Turn())
}

func TestCheck(t *testing.T) {
	g := mustGame(t, "4k4/9/9/9/9/9/9/9/9/R2K5 w")
	play(t, g, "a0a9")
	require.Equal(t, StatusCheck, g.Status())
	require.False(t, g.Status().Terminal())
	require.NotEmpty(t, g.AllLegalMoves())
}

func TestStalemateLosesForSideToMove(t *testing.T) {
	g := mustGame(t, "4k4/9/4P4/9/9/3R4R/9/9/9/4K4 w")
	play(t, g, "i4f4")
	require.False(t, InCheck(g.board, Black))
	require.Equal(t, StatusStalemate, g.Status())
	require.Equal(t, RedWins, g.Outcome())
	require.Equal(t, MethodStalemate, g.Method())
}

func TestRepetitionDraw(t *testing.T) {
	const fen = "3k5/8r/9/9/9/9/9/9/R8/5K3 w"
	shuffle := []string{"a1a2", "i8i7", "a2a1", "i7i8"}

	g := mustGame(t, fen, WithDrawPolicy(RepetitionPolicy{Count: 3}))
	play(t, g, shuffle...)
	require.Equal(t, StatusInProgress, g.Status())
	play(t, g, shuffle[:3]...)
	require.Equal(t, StatusInProgress, g.Status())
	play(t, g, shuffle[3])
	require.Equal(t, StatusDraw, g.Status())
	require.Equal(t, Drawn, g.Outcome())
	require.Equal(t, MethodDrawRule, g.Method())

	_, err := g.PlayICCS("a1a2")
	require.ErrorIs(t, err, ErrGameOver)

	// without a policy the same line never draws
	g = mustGame(t, fen)
	play(t, g, shuffle...)
	play(t, g, shuffle...)
	play(t, g, shuffle...)
	require.Equal(t, StatusInProgress, g.Status())
}

func TestMoveLimitDraw(t *testing.T) {
	g := mustGame(t, "3k5/8r/9/9/9/9/9/9/R8/5K3 w",
		WithDrawPolicy(AnyPolicy{RepetitionPolicy{Count: 0}, MoveLimitPolicy{Plies: 4}}))
	play(t, g, "a1a2", "i8i7", "a2a3")
	require.Equal(t, StatusInProgress, g.Status())
	play(t, g, "i7i6")
	require.Equal(t, StatusDraw, g.Status())

	_, err := g.Undo()
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, g.Status())
}

func TestDrawPolicies(t *testing.T) {
	positions := []string{"a", "b", "a", "c", "a"}
	require.True(t, RepetitionPolicy{Count: 3}.IsDraw(DrawContext{Positions: positions}))
	require.False(t, RepetitionPolicy{Count: 4}.IsDraw(DrawContext{Positions: positions}))
	require.False(t, RepetitionPolicy{Count: 1}.IsDraw(DrawContext{Positions: positions}))
	require.False(t, RepetitionPolicy{Count: 3}.IsDraw(DrawContext{}))

	require.True(t, MoveLimitPolicy{Plies: 120}.IsDraw(DrawContext{PliesSinceCapture: 120}))
	require.False(t, MoveLimitPolicy{Plies: 120}.IsDraw(DrawContext{PliesSinceCapture: 119}))
	require.False(t, MoveLimitPolicy{}.IsDraw(DrawContext{PliesSinceCapture: 1000}))

	require.False(t, AnyPolicy{nil}.IsDraw(DrawContext{}))
}

func TestForfeit(t *testing.T) {
	g := NewGame()
	play(t, g, "h2e2")
	require.NoError(t, g.Forfeit(Black, MethodResignation))
	require.Equal(t, StatusForfeit, g.Status())
	require.Equal(t, RedWins, g.Outcome())
	require.Equal(t, MethodResignation, g.Method())

	_, err := g.PlayICCS("h9g7")
	require.ErrorIs(t, err, ErrGameOver)
	_, err = g.Undo()
	require.ErrorIs(t, err, ErrGameOver)
	require.ErrorIs(t, g.Forfeit(Red, MethodTimeForfeit), ErrGameOver)
}

func TestReplay(t *testing.T) {
	g := NewGame()
	play(t, g, "h2e2", "h9g7", "h0g2", "i9h9", "e2e6")

	moves := make([]Move, 0, g.Ply())
	for _, h := range g.History() {
		moves = append(moves, h.Move())
	}
	again, err := Replay("", moves)
	require.NoError(t, err)
	require.Equal(t, g.FEN(), again.FEN())
	require.Equal(t, g.Turn(), again.Turn())

	bad := append(append([]Move(nil), moves...), Move{PieceID: "red-king-1", To: Coord{Row: 0, Col: 0}})
	_, err = Replay("", bad)
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = Replay("bogus", nil)
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestNewGameFromFEN_TerminalStart(t *testing.T) {
	g := mustGame(t, "R3k4/8R/9/9/9/9/9/9/9/3K5 b")
	require.Equal(t, StatusCheckmate, g.Status())
	require.Equal(t, RedWins, g.Outcome())
}
