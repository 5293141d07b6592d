package xqbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-xiangqi/internal/config"
	"github.com/park285/cheese-xiangqi/internal/httpapi"
	"github.com/park285/cheese-xiangqi/internal/match"
	"github.com/park285/cheese-xiangqi/internal/record"
	"github.com/park285/cheese-xiangqi/internal/timecontrol"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

type Deps struct {
	Manager  *match.Manager
	Recorder record.Recorder
	Catalog  *timecontrol.Catalog
	Server   *httpapi.Server
}

// Close releases the manager's Redis client and the recorder.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var first error
	if d.Manager != nil {
		first = d.Manager.Close()
	}
	if d.Recorder != nil {
		if err := d.Recorder.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := timecontrol.New(cfg.TimeControlDir)
	if err != nil {
		return nil, fmt.Errorf("load time controls: %w", err)
	}
	if _, err := catalog.Resolve(cfg.TimeControl); err != nil {
		return nil, fmt.Errorf("TIME_CONTROL: %w", err)
	}

	rec, err := newRecorder(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	mgr, err := match.NewManager(cfg.RedisURL, match.Options{
		Recorder:           rec,
		Catalog:            catalog,
		DefaultTimeControl: cfg.TimeControl,
		DrawPolicy:         DrawPolicy(cfg.DrawRepetition, cfg.DrawMoveLimit),
		TickInterval:       time.Duration(cfg.ClockTickMs) * time.Millisecond,
		TTL:                time.Duration(cfg.MatchTTLSec) * time.Second,
		Logger:             logger,
	})
	if err != nil {
		_ = rec.Close()
		return nil, fmt.Errorf("init match manager: %w", err)
	}

	srv := httpapi.NewServer(mgr, catalog, httpapi.Config{HistoryLimit: cfg.HistoryLimit, Logger: logger})
	return &Deps{Manager: mgr, Recorder: rec, Catalog: catalog, Server: srv}, nil
}

// newRecorder uses Postgres when a URL is set and keeps records in memory
// otherwise.
func newRecorder(databaseURL string, logger *zap.Logger) (record.Recorder, error) {
	if strings.TrimSpace(databaseURL) == "" {
		logger.Warn("recorder_memory", zap.String("reason", "DATABASE_URL not set"))
		return record.NewMemoryRecorder(), nil
	}
	pg, err := record.NewPostgresRecorder(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init postgres recorder: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pg, nil
}

// DrawPolicy combines the configured draw rules; zero disables a rule and
// nil means none.
func DrawPolicy(repetition, moveLimit int) xiangqi.DrawPolicy {
	var rules xiangqi.AnyPolicy
	if repetition > 0 {
		rules = append(rules, xiangqi.RepetitionPolicy{Count: repetition})
	}
	if moveLimit > 0 {
		rules = append(rules, xiangqi.MoveLimitPolicy{Plies: moveLimit})
	}
	switch len(rules) {
	case 0:
		return nil
	case 1:
		return rules[0]
	default:
		return rules
	}
}
