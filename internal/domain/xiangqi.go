package domain

import "time"

// XiangqiGame is the persisted record of a finished match.
type XiangqiGame struct {
	ID           int64
	MatchID      string
	RedID        string
	RedName      string
	BlackID      string
	BlackName    string
	Room         string
	TimeControl  string
	Result       string // red | black | draw
	ResultMethod string
	InitialFEN   string
	FinalFEN     string
	Moves        []string // ICCS, oldest first
	Text         string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// Winner returns the winning player's id, or "" for a draw.
func (g *XiangqiGame) Winner() string {
	switch g.Result {
	case "red":
		return g.RedID
	case "black":
		return g.BlackID
	}
	return ""
}

type XiangqiProfile struct {
	PlayerID        string
	PlayerName      string
	Rating          int
	GamesPlayed     int
	Wins            int
	Losses          int
	Draws           int
	Streak          int
	StreakType      string
	LastTimeControl string
	LastPlayedAt    time.Time
	UpdatedAt       time.Time
	CreatedAt       time.Time
}
