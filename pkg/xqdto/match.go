package xqdto

import "time"

type MoveView struct {
	Ply      int    `json:"ply"`
	Move     string `json:"move"`
	PieceID  string `json:"piece_id"`
	Captured string `json:"captured,omitempty"`
}

type ClockView struct {
	RedMs     int64  `json:"red_ms"`
	BlackMs   int64  `json:"black_ms"`
	Red       string `json:"red"`
	Black     string `json:"black"`
	Increment int64  `json:"increment_ms"`
}

// MatchView is the API representation of a match.
type MatchView struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	GameStatus  string     `json:"game_status"`
	FEN         string     `json:"fen"`
	InitialFEN  string     `json:"initial_fen"`
	Turn        string     `json:"turn"`
	Moves       []MoveView `json:"moves"`
	Outcome     string     `json:"outcome,omitempty"`
	Method      string     `json:"method,omitempty"`
	Winner      string     `json:"winner,omitempty"`
	RedID       string     `json:"red_id"`
	RedName     string     `json:"red_name,omitempty"`
	BlackID     string     `json:"black_id"`
	BlackName   string     `json:"black_name,omitempty"`
	Room        string     `json:"room,omitempty"`
	TimeControl string     `json:"time_control"`
	Clock       ClockView  `json:"clock"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type LegalMovesResponse struct {
	From  string   `json:"from"`
	Moves []string `json:"moves"`
}

type TimeControlView struct {
	Name        string `json:"name"`
	TimeControl string `json:"time_control"`
}
