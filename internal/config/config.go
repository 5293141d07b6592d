package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	TimeControl    string
	TimeControlDir string

	ClockTickMs    int
	MatchTTLSec    int
	DrawRepetition int
	DrawMoveLimit  int
	HistoryLimit   int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:       ":8080",
		TimeControl:    "10+5",
		ClockTickMs:    250,
		MatchTTLSec:    86400,
		DrawRepetition: 3,
		HistoryLimit:   10,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("TIME_CONTROL")); v != "" {
		cfg.TimeControl = v
	}
	cfg.TimeControlDir = strings.TrimSpace(os.Getenv("TIME_CONTROL_DIR"))

	if v := strings.TrimSpace(os.Getenv("CLOCK_TICK_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClockTickMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MATCH_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MatchTTLSec = n
		}
	}
	// 0 turns a draw rule off
	if v := strings.TrimSpace(os.Getenv("DRAW_REPETITION")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DrawRepetition = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DRAW_MOVE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DrawMoveLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}
