package record

import (
	"context"
	"errors"

	"github.com/park285/cheese-xiangqi/internal/domain"
)

var ErrNilGame = errors.New("nil xiangqi game payload")

// Recorder persists finished games and per-player profiles.
type Recorder interface {
	// SaveResult upserts by MatchID.
	SaveResult(ctx context.Context, g *domain.XiangqiGame) error
	RecentGames(ctx context.Context, playerID string, limit int) ([]*domain.XiangqiGame, error)
	// Game returns nil, nil when no record exists.
	Game(ctx context.Context, matchID string) (*domain.XiangqiGame, error)
	// Profile returns nil, nil when the player has no profile yet.
	Profile(ctx context.Context, playerID string) (*domain.XiangqiProfile, error)
	UpsertProfile(ctx context.Context, p *domain.XiangqiProfile) error
	Close() error
}

var (
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*MemoryRecorder)(nil)
)
