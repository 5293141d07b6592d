package xqdto

type CreateMatchRequest struct {
	ChallengerID   string `json:"challenger_id"`
	ChallengerName string `json:"challenger_name,omitempty"`
	OpponentID     string `json:"opponent_id"`
	OpponentName   string `json:"opponent_name,omitempty"`
	// Color is the challenger's side: red, black or random.
	Color       string `json:"color,omitempty"`
	TimeControl string `json:"time_control,omitempty"`
	Room        string `json:"room,omitempty"`
	FEN         string `json:"fen,omitempty"`
}

type MoveRequest struct {
	UserID string `json:"user_id"`
	// Move is ICCS, e.g. "h2e2".
	Move string `json:"move"`
}

// UserRequest carries the acting user for undo and resign.
type UserRequest struct {
	UserID string `json:"user_id"`
}
