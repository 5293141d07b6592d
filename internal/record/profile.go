package record

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/park285/cheese-xiangqi/internal/domain"
)

const (
	DefaultRating = 1200
	kFactor       = 32
)

// ApplyResult stores g and updates both players' profiles. Games where one
// player sits on both sides are stored without touching ratings.
func ApplyResult(ctx context.Context, r Recorder, g *domain.XiangqiGame) error {
	if g == nil {
		return ErrNilGame
	}
	if err := r.SaveResult(ctx, g); err != nil {
		return fmt.Errorf("save result %s: %w", g.MatchID, err)
	}
	redID, blackID := strings.TrimSpace(g.RedID), strings.TrimSpace(g.BlackID)
	if redID == "" || blackID == "" || redID == blackID {
		return nil
	}

	red, err := loadProfile(ctx, r, redID, g.RedName)
	if err != nil {
		return err
	}
	black, err := loadProfile(ctx, r, blackID, g.BlackName)
	if err != nil {
		return err
	}

	at := g.EndedAt
	if at.IsZero() {
		at = time.Now()
	}
	UpdateProfiles(red, black, g.Result, g.TimeControl, at)

	if err := r.UpsertProfile(ctx, red); err != nil {
		return fmt.Errorf("upsert profile %s: %w", red.PlayerID, err)
	}
	if err := r.UpsertProfile(ctx, black); err != nil {
		return fmt.Errorf("upsert profile %s: %w", black.PlayerID, err)
	}
	return nil
}

func loadProfile(ctx context.Context, r Recorder, id, name string) (*domain.XiangqiProfile, error) {
	p, err := r.Profile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	if p == nil {
		p = &domain.XiangqiProfile{PlayerID: id, Rating: DefaultRating}
	}
	if strings.TrimSpace(name) != "" {
		p.PlayerName = name
	}
	return p, nil
}

// UpdateProfiles applies one game result ("red", "black" or "draw") to both
// profiles: counters, streaks and an Elo rating step.
func UpdateProfiles(red, black *domain.XiangqiProfile, result, timeControl string, at time.Time) {
	var redScore float64
	switch result {
	case "red":
		redScore = 1
	case "black":
		redScore = 0
	case "draw":
		redScore = 0.5
	default:
		return
	}
	er := expected(red.Rating, black.Rating)
	dr := int(math.Round(kFactor * (redScore - er)))
	red.Rating += dr
	black.Rating -= dr

	tally(red, redScore, timeControl, at)
	tally(black, 1-redScore, timeControl, at)
}

func expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

func tally(p *domain.XiangqiProfile, score float64, timeControl string, at time.Time) {
	kind := "draw"
	switch score {
	case 1:
		kind = "win"
		p.Wins++
	case 0:
		kind = "loss"
		p.Losses++
	default:
		p.Draws++
	}
	p.GamesPlayed++
	if p.StreakType == kind {
		p.Streak++
	} else {
		p.StreakType, p.Streak = kind, 1
	}
	if timeControl != "" {
		p.LastTimeControl = timeControl
	}
	p.LastPlayedAt = at
}
