package xqdto

import "time"

// GameRecord is a finished game as kept by the recorder.
type GameRecord struct {
	MatchID      string        `json:"match_id"`
	RedID        string        `json:"red_id"`
	RedName      string        `json:"red_name,omitempty"`
	BlackID      string        `json:"black_id"`
	BlackName    string        `json:"black_name,omitempty"`
	TimeControl  string        `json:"time_control,omitempty"`
	Result       string        `json:"result"`
	ResultMethod string        `json:"result_method,omitempty"`
	Moves        []string      `json:"moves"`
	Text         string        `json:"text,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Duration     time.Duration `json:"duration"`
}

type Profile struct {
	PlayerID        string    `json:"player_id"`
	PlayerName      string    `json:"player_name,omitempty"`
	Rating          int       `json:"rating"`
	GamesPlayed     int       `json:"games_played"`
	Wins            int       `json:"wins"`
	Losses          int       `json:"losses"`
	Draws           int       `json:"draws"`
	Streak          int       `json:"streak"`
	StreakType      string    `json:"streak_type,omitempty"`
	LastTimeControl string    `json:"last_time_control,omitempty"`
	LastPlayedAt    time.Time `json:"last_played_at"`
}
