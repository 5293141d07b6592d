package httpapi

import (
	"time"

	"github.com/park285/cheese-xiangqi/internal/domain"
	"github.com/park285/cheese-xiangqi/internal/gameclock"
	"github.com/park285/cheese-xiangqi/internal/match"
	"github.com/park285/cheese-xiangqi/pkg/xqdto"
)

func ToView(mt *match.Match) xqdto.MatchView {
	moves := make([]xqdto.MoveView, len(mt.Moves))
	for i, r := range mt.Moves {
		moves[i] = xqdto.MoveView{Ply: i + 1, Move: r.Notation, PieceID: r.PieceID, Captured: r.Captured}
	}
	red := time.Duration(mt.RedRemainingMs) * time.Millisecond
	black := time.Duration(mt.BlackRemainingMs) * time.Millisecond
	return xqdto.MatchView{
		ID:          mt.ID,
		Status:      string(mt.Status),
		GameStatus:  mt.GameStatus,
		FEN:         mt.FEN,
		InitialFEN:  mt.InitialFEN,
		Turn:        mt.Turn,
		Moves:       moves,
		Outcome:     mt.Outcome,
		Method:      mt.Method,
		Winner:      mt.Winner,
		RedID:       mt.RedID,
		RedName:     mt.RedName,
		BlackID:     mt.BlackID,
		BlackName:   mt.BlackName,
		Room:        mt.Room,
		TimeControl: mt.TimeControl,
		Clock: xqdto.ClockView{
			RedMs:     mt.RedRemainingMs,
			BlackMs:   mt.BlackRemainingMs,
			Red:       gameclock.Format(red),
			Black:     gameclock.Format(black),
			Increment: mt.IncrementMs,
		},
		CreatedAt: mt.CreatedAt,
		UpdatedAt: mt.UpdatedAt,
	}
}

func ToRecord(g *domain.XiangqiGame) xqdto.GameRecord {
	return xqdto.GameRecord{
		MatchID:      g.MatchID,
		RedID:        g.RedID,
		RedName:      g.RedName,
		BlackID:      g.BlackID,
		BlackName:    g.BlackName,
		TimeControl:  g.TimeControl,
		Result:       g.Result,
		ResultMethod: g.ResultMethod,
		Moves:        append([]string(nil), g.Moves...),
		Text:         g.Text,
		StartedAt:    g.StartedAt,
		EndedAt:      g.EndedAt,
		Duration:     g.Duration,
	}
}

func ToProfile(p *domain.XiangqiProfile) xqdto.Profile {
	return xqdto.Profile{
		PlayerID:        p.PlayerID,
		PlayerName:      p.PlayerName,
		Rating:          p.Rating,
		GamesPlayed:     p.GamesPlayed,
		Wins:            p.Wins,
		Losses:          p.Losses,
		Draws:           p.Draws,
		Streak:          p.Streak,
		StreakType:      p.StreakType,
		LastTimeControl: p.LastTimeControl,
		LastPlayedAt:    p.LastPlayedAt,
	}
}
