package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REDIS_URL", " redis://localhost:6379/0 ")
	for _, k := range []string{"HTTP_ADDR", "DATABASE_URL", "TIME_CONTROL", "TIME_CONTROL_DIR", "CLOCK_TICK_MS", "MATCH_TTL_SEC", "DRAW_REPETITION", "DRAW_MOVE_LIMIT", "HISTORY_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.HTTPAddr != ":8080" || cfg.TimeControl != "10+5" {
		t.Fatalf("HTTPAddr=%q TimeControl=%q", cfg.HTTPAddr, cfg.TimeControl)
	}
	if cfg.ClockTickMs != 250 || cfg.MatchTTLSec != 86400 {
		t.Fatalf("ClockTickMs=%d MatchTTLSec=%d", cfg.ClockTickMs, cfg.MatchTTLSec)
	}
	if cfg.DrawRepetition != 3 || cfg.DrawMoveLimit != 0 || cfg.HistoryLimit != 10 {
		t.Fatalf("DrawRepetition=%d DrawMoveLimit=%d HistoryLimit=%d", cfg.DrawRepetition, cfg.DrawMoveLimit, cfg.HistoryLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://r:6379/1")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TIME_CONTROL", "blitz")
	t.Setenv("CLOCK_TICK_MS", "100")
	t.Setenv("MATCH_TTL_SEC", "-5")
	t.Setenv("DRAW_REPETITION", "0")
	t.Setenv("DRAW_MOVE_LIMIT", "120")
	t.Setenv("HISTORY_LIMIT", "x")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.TimeControl != "blitz" || cfg.ClockTickMs != 100 {
		t.Fatalf("HTTPAddr=%q TimeControl=%q ClockTickMs=%d", cfg.HTTPAddr, cfg.TimeControl, cfg.ClockTickMs)
	}
	// invalid values fall back to defaults
	if cfg.MatchTTLSec != 86400 || cfg.HistoryLimit != 10 {
		t.Fatalf("MatchTTLSec=%d HistoryLimit=%d", cfg.MatchTTLSec, cfg.HistoryLimit)
	}
	if cfg.DrawRepetition != 0 || cfg.DrawMoveLimit != 120 {
		t.Fatalf("DrawRepetition=%d DrawMoveLimit=%d", cfg.DrawRepetition, cfg.DrawMoveLimit)
	}
}

func TestLoad_RequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}
