package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_CALLER", "")

	o := OptionsFromEnv()
	if o.Level != zapcore.WarnLevel {
		t.Fatalf("level = %v, want warn", o.Level)
	}
	if o.Format != "legacy" || o.Console {
		t.Fatalf("format=%q console=%v", o.Format, o.Console)
	}
	if want := filepath.Join("logs", "xiangqi.log"); o.File != want {
		t.Fatalf("file = %q, want %q", o.File, want)
	}

	t.Setenv("LOG_TO_FILE", "false")
	if f := OptionsFromEnv().File; f != "" {
		t.Fatalf("file logging disabled but file = %q", f)
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x.log")
	restore := Replace(nil)
	defer restore()

	if err := Init(Options{Level: zapcore.InfoLevel, Format: "json", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("match_create", zap.String("match_id", "m1"))
	L().Debug("hidden")
	if err := Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"match_create"`) || !strings.Contains(out, `"match_id":"m1"`) {
		t.Fatalf("missing entry:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry written at info level:\n%s", out)
	}
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	L().Info("match_move", zap.String("move", "h2e2"))
	restore()
	L().Info("dropped")

	if logs.Len() != 1 {
		t.Fatalf("observed %d entries, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "match_move" || entry.ContextMap()["move"] != "h2e2" {
		t.Fatalf("entry = %q %v", entry.Message, entry.ContextMap())
	}
}

func TestParseLevel(t *testing.T) {
	if lv := parseLevel(" DEBUG "); lv != zapcore.DebugLevel {
		t.Fatalf("parseLevel(DEBUG) = %v", lv)
	}
	if lv := parseLevel("loud"); lv != zapcore.InfoLevel {
		t.Fatalf("parseLevel(loud) = %v", lv)
	}
}
