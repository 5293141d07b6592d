package record

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-xiangqi/internal/domain"
)

// MemoryRecorder keeps records in process. Used when no database is
// configured and in tests.
type MemoryRecorder struct {
	mu       sync.RWMutex
	nextID   int64
	games    map[string]*domain.XiangqiGame // matchID -> game
	profiles map[string]*domain.XiangqiProfile
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		games:    make(map[string]*domain.XiangqiGame),
		profiles: make(map[string]*domain.XiangqiProfile),
	}
}

func (m *MemoryRecorder) SaveResult(_ context.Context, g *domain.XiangqiGame) error {
	if g == nil {
		return ErrNilGame
	}
	key := strings.TrimSpace(g.MatchID)

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyGame(g)
	if prev, ok := m.games[key]; ok {
		cp.ID = prev.ID
	} else {
		m.nextID++
		cp.ID = m.nextID
	}
	m.games[key] = cp
	g.ID = cp.ID
	return nil
}

func (m *MemoryRecorder) RecentGames(_ context.Context, playerID string, limit int) ([]*domain.XiangqiGame, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	items := make([]*domain.XiangqiGame, 0, limit)
	for _, g := range m.games {
		if g.RedID == playerID || g.BlackID == playerID {
			items = append(items, copyGame(g))
		}
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryRecorder) Game(_ context.Context, matchID string) (*domain.XiangqiGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[strings.TrimSpace(matchID)]; ok {
		return copyGame(g), nil
	}
	return nil, nil
}

func (m *MemoryRecorder) Profile(_ context.Context, playerID string) (*domain.XiangqiProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[strings.TrimSpace(playerID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRecorder) UpsertProfile(_ context.Context, p *domain.XiangqiProfile) error {
	if p == nil {
		return nil
	}
	cp := *p
	m.mu.Lock()
	if prev, ok := m.profiles[strings.TrimSpace(p.PlayerID)]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	m.profiles[strings.TrimSpace(p.PlayerID)] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecorder) Close() error { return nil }

func copyGame(g *domain.XiangqiGame) *domain.XiangqiGame {
	cp := *g
	cp.Moves = append([]string(nil), g.Moves...)
	return &cp
}
