package xqdto

// DomainError is the JSON error body returned by the match API.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "xiangqi service error"
}

// Error codes.
const (
	CodeInvalidArgs      = "invalid_args"
	CodeNotFound         = "not_found"
	CodeNotParticipant   = "not_participant"
	CodeIllegalMove      = "illegal_move"
	CodeNotYourTurn      = "not_your_turn"
	CodeFinished         = "finished"
	CodePlayerBusy       = "player_busy"
	CodeUndoNotAllowed   = "undo_not_allowed"
	CodeConflict         = "conflict"
	CodeTimeExpired      = "time_expired"
	CodeInternal         = "internal"
	CodeMethodNotAllowed = "method_not_allowed"
)
