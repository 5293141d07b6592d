package match

import (
	"sync"
	"time"

	"github.com/park285/cheese-xiangqi/internal/gameclock"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

// Snapshot is a consistent read of a session's game and clock.
type Snapshot struct {
	FEN            string
	Turn           xiangqi.Color
	Status         xiangqi.Status
	Outcome        xiangqi.Outcome
	Method         xiangqi.Method
	Ply            int
	RedRemaining   time.Duration
	BlackRemaining time.Duration
}

// Session binds one live game to its clock. Moves, takebacks, resignations
// and flag falls are serialized by the session lock.
type Session struct {
	mu       sync.Mutex
	game     *xiangqi.Game
	clock    *gameclock.MatchClock
	onFinish func(Snapshot)
	closed   bool
}

func NewSession(game *xiangqi.Game, clk *gameclock.MatchClock) *Session {
	s := &Session{game: game, clock: clk}
	// expiry is observed on a timer goroutine, possibly while a caller
	// already holds s.mu inside Play
	clk.OnExpire(func(c xiangqi.Color) { go s.flag(c) })
	return s
}

// OnFinish registers a hook for games that end on the clock, outside any
// Play/Resign call.
func (s *Session) OnFinish(fn func(Snapshot)) {
	s.mu.Lock()
	s.onFinish = fn
	s.mu.Unlock()
}

// Play applies from-to for color. A mover whose time is already gone loses
// on time instead, and ErrTimeExpired is returned with the game finished.
func (s *Session) Play(color xiangqi.Color, from, to xiangqi.Coord) (xiangqi.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.Status().Terminal() {
		return xiangqi.HistoryEntry{}, xiangqi.ErrGameOver
	}
	if s.clock.Timer(color).IsExpired() {
		_ = s.game.Forfeit(color, xiangqi.MethodTimeForfeit)
		s.clock.Stop()
		return xiangqi.HistoryEntry{}, ErrTimeExpired
	}
	if color != s.game.Turn() {
		return xiangqi.HistoryEntry{}, xiangqi.ErrNotPlayersTurn
	}
	entry, err := s.game.Play(from, to)
	if err != nil {
		return xiangqi.HistoryEntry{}, err
	}
	if s.game.Status().Terminal() {
		s.clock.Stop()
	} else {
		s.clock.Switch(color)
	}
	return entry, nil
}

// Undo takes back the last ply and hands the clock to the side to move again.
func (s *Session) Undo() (xiangqi.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.game.Undo()
	if err != nil {
		return xiangqi.HistoryEntry{}, err
	}
	s.clock.Hand(s.game.Turn())
	return entry, nil
}

func (s *Session) Resign(c xiangqi.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Forfeit(c, xiangqi.MethodResignation); err != nil {
		return err
	}
	s.clock.Stop()
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	red, black := s.clock.Remaining()
	return Snapshot{
		FEN:            s.game.FEN(),
		Turn:           s.game.Turn(),
		Status:         s.game.Status(),
		Outcome:        s.game.Outcome(),
		Method:         s.game.Method(),
		Ply:            s.game.Ply(),
		RedRemaining:   red,
		BlackRemaining: black,
	}
}

// Ply reads the move count without sampling the clock.
func (s *Session) Ply() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Ply()
}

// LegalMoves lists destinations for whatever piece stands on from.
func (s *Session) LegalMoves(from xiangqi.Coord) ([]xiangqi.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.game.Board().At(from)
	if !ok {
		return nil, xiangqi.ErrUnknownPiece
	}
	if s.game.Status().Terminal() {
		return []xiangqi.Coord{}, nil
	}
	return s.game.LegalMoves(p.ID)
}

func (s *Session) History() []xiangqi.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.History()
}

// Close stops the clock and mutes any pending flag fall.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.clock.Stop()
	s.mu.Unlock()
}

func (s *Session) flag(c xiangqi.Color) {
	s.mu.Lock()
	if s.closed || s.game.Status().Terminal() {
		s.mu.Unlock()
		return
	}
	if err := s.game.Forfeit(c, xiangqi.MethodTimeForfeit); err != nil {
		s.mu.Unlock()
		return
	}
	s.clock.Stop()
	snap := s.snapshotLocked()
	fn := s.onFinish
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
