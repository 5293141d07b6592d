package match

import (
	"time"

	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

// Status is the match lifecycle, distinct from the rule-level game status.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

// MoveRecord is one applied move as stored in Redis.
type MoveRecord struct {
	PieceID  string        `json:"piece_id"`
	From     xiangqi.Coord `json:"from"`
	To       xiangqi.Coord `json:"to"`
	Captured string        `json:"captured,omitempty"`
	Notation string        `json:"notation"`
}

func (r MoveRecord) move() xiangqi.Move {
	return xiangqi.Move{PieceID: r.PieceID, From: r.From, To: r.To}
}

// Match is the persisted state of a live or finished match, stored as JSON
// under xq:match:<id>.
type Match struct {
	ID               string       `json:"id"`
	InitialFEN       string       `json:"initial_fen"`
	FEN              string       `json:"fen"`
	Moves            []MoveRecord `json:"moves"`
	Turn             string       `json:"turn"`
	Status           Status       `json:"status"`
	GameStatus       string       `json:"game_status"`
	Outcome          string       `json:"outcome,omitempty"`
	Method           string       `json:"method,omitempty"`
	Winner           string       `json:"winner,omitempty"`
	RedID            string       `json:"red_id"`
	RedName          string       `json:"red_name"`
	BlackID          string       `json:"black_id"`
	BlackName        string       `json:"black_name"`
	Room             string       `json:"room,omitempty"`
	TimeControl      string       `json:"time_control"`
	InitialMs        int64        `json:"initial_ms"`
	IncrementMs      int64        `json:"increment_ms"`
	RedRemainingMs   int64        `json:"red_remaining_ms"`
	BlackRemainingMs int64        `json:"black_remaining_ms"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// colorFor maps a participant to the side they act for. A player on both
// sides acts for whoever is to move.
func (m *Match) colorFor(userID string) (xiangqi.Color, bool) {
	turn, _ := xiangqi.ParseColor(m.Turn)
	switch {
	case m.RedID == userID && m.BlackID == userID:
		return turn, true
	case m.RedID == userID:
		return xiangqi.Red, true
	case m.BlackID == userID:
		return xiangqi.Black, true
	}
	return xiangqi.Red, false
}

func (m *Match) playerOf(c xiangqi.Color) string {
	if c == xiangqi.Red {
		return m.RedID
	}
	return m.BlackID
}

func (m *Match) nameOf(c xiangqi.Color) string {
	if c == xiangqi.Red {
		return m.RedName
	}
	return m.BlackName
}

func (m *Match) moves() []xiangqi.Move {
	out := make([]xiangqi.Move, len(m.Moves))
	for i, r := range m.Moves {
		out[i] = r.move()
	}
	return out
}

// CreateRequest opens a match between a challenger and an opponent.
type CreateRequest struct {
	ChallengerID   string
	ChallengerName string
	OpponentID     string
	OpponentName   string
	// Color is the challenger's side: red, black or random (default).
	Color       string
	TimeControl string
	Room        string
	// FEN optionally overrides the standard start ("<board> [w|b]").
	FEN string
}

var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrNotFound         = errf("match not found")
	ErrNotParticipant   = errf("user not in match")
	ErrFinished         = errf("match already finished")
	ErrPlayerBusy       = errf("player already has an active match")
	ErrUndoNotAllowed   = errf("undo not allowed")
	ErrConcurrentUpdate = errf("concurrent update detected, retry")
	ErrTimeExpired      = errf("time expired")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }
