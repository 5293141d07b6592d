package record

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-xiangqi/internal/domain"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

func sampleGame(id, result string, ended time.Time) *domain.XiangqiGame {
	return &domain.XiangqiGame{
		MatchID:      id,
		RedID:        "u-red",
		RedName:      "Alice",
		BlackID:      "u-black",
		BlackName:    "Bob",
		TimeControl:  "10+5",
		Result:       result,
		ResultMethod: "checkmate",
		InitialFEN:   xiangqi.StartFEN + " w",
		Moves:        []string{"h2e2", "h9g7", "h0g2"},
		StartedAt:    ended.Add(-10 * time.Minute),
		EndedAt:      ended,
		Duration:     10 * time.Minute,
	}
}

func TestBuildText(t *testing.T) {
	g := sampleGame("m1", "red", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))
	g.RedName = `Al"ice`
	text := BuildText(g)

	for _, want := range []string{
		"[Date \"2026.03.04\"]\n",
		"[Red \"Al'ice\"]\n",
		"[TimeControl \"10+5\"]\n",
		"[Termination \"checkmate\"]\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "[FEN") {
		t.Fatalf("start position should omit FEN tag:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n\n1. h2e2 h9g7 2. h0g2 1-0") {
		t.Fatalf("unexpected movetext:\n%s", text)
	}

	g.InitialFEN = "4k4/9/9/9/9/9/9/9/9/4K4 w"
	g.Result = ""
	text = BuildText(g)
	if !strings.Contains(text, "[FEN \"4k4/9/9/9/9/9/9/9/9/4K4 w\"]\n") {
		t.Fatalf("missing FEN tag:\n%s", text)
	}
	if !strings.HasSuffix(text, "*") {
		t.Fatalf("unfinished game should end with *:\n%s", text)
	}
}

func TestResultToken(t *testing.T) {
	cases := map[string]string{
		"red":     "1-0",
		" Black ": "0-1",
		"draw":    "1/2-1/2",
		"":        "*",
	}
	for in, want := range cases {
		if got := ResultToken(in); got != want {
			t.Fatalf("ResultToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMemoryRecorder_SaveAndRecent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRecorder()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	g1 := sampleGame("m1", "red", base)
	other := sampleGame("m3", "draw", base.Add(2*time.Hour))
	other.RedID, other.BlackID = "x", "y"
	for _, g := range []*domain.XiangqiGame{g1, sampleGame("m2", "black", base.Add(time.Hour)), other} {
		if err := r.SaveResult(ctx, g); err != nil {
			t.Fatalf("SaveResult(%s): %v", g.MatchID, err)
		}
	}

	// upsert keeps the id
	again := sampleGame("m1", "draw", base)
	if err := r.SaveResult(ctx, again); err != nil {
		t.Fatalf("SaveResult again: %v", err)
	}
	if again.ID != g1.ID {
		t.Fatalf("upsert id = %d, want %d", again.ID, g1.ID)
	}

	games, err := r.RecentGames(ctx, "u-black", 10)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("recent games = %d, want 2", len(games))
	}
	if games[0].MatchID != "m2" || games[1].Result != "draw" {
		t.Fatalf("order: %s(%s) %s(%s)", games[0].MatchID, games[0].Result, games[1].MatchID, games[1].Result)
	}

	games, err = r.RecentGames(ctx, "u-red", 1)
	if err != nil {
		t.Fatalf("RecentGames limit: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("limit 1 returned %d games", len(games))
	}

	got, err := r.Game(ctx, "m3")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.RedID != "x" {
		t.Fatalf("red id = %q", got.RedID)
	}
	got.Moves[0] = "tampered"
	got, _ = r.Game(ctx, "m3")
	if got.Moves[0] != "h2e2" {
		t.Fatalf("stored moves mutated through returned copy: %v", got.Moves)
	}

	missing, err := r.Game(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing game: %v %v", missing, err)
	}

	if err := r.SaveResult(ctx, nil); !errors.Is(err, ErrNilGame) {
		t.Fatalf("nil game: want ErrNilGame, got %v", err)
	}
}

func TestApplyResult_UpdatesProfiles(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRecorder()
	ended := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := ApplyResult(ctx, r, sampleGame("m1", "red", ended)); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	red, err := r.Profile(ctx, "u-red")
	if err != nil {
		t.Fatalf("Profile red: %v", err)
	}
	black, err := r.Profile(ctx, "u-black")
	if err != nil {
		t.Fatalf("Profile black: %v", err)
	}

	if red.PlayerName != "Alice" || red.Wins != 1 || black.Losses != 1 {
		t.Fatalf("red=%+v black=%+v", red, black)
	}
	if red.Rating != DefaultRating+16 || black.Rating != DefaultRating-16 {
		t.Fatalf("ratings: red=%d black=%d", red.Rating, black.Rating)
	}
	if red.StreakType != "win" || red.Streak != 1 {
		t.Fatalf("streak = %s %d", red.StreakType, red.Streak)
	}
	if black.LastTimeControl != "10+5" || !red.LastPlayedAt.Equal(ended) {
		t.Fatalf("last tc=%q played=%v", black.LastTimeControl, red.LastPlayedAt)
	}

	if err := ApplyResult(ctx, r, sampleGame("m2", "red", ended.Add(time.Hour))); err != nil {
		t.Fatalf("ApplyResult m2: %v", err)
	}
	if err := ApplyResult(ctx, r, sampleGame("m3", "draw", ended.Add(2*time.Hour))); err != nil {
		t.Fatalf("ApplyResult m3: %v", err)
	}
	red, _ = r.Profile(ctx, "u-red")
	black, _ = r.Profile(ctx, "u-black")
	if red.GamesPlayed != 3 || red.Wins != 2 || red.Draws != 1 {
		t.Fatalf("tally: played=%d wins=%d draws=%d", red.GamesPlayed, red.Wins, red.Draws)
	}
	if red.StreakType != "draw" || red.Streak != 1 {
		t.Fatalf("streak = %s %d", red.StreakType, red.Streak)
	}
	if red.Rating+black.Rating != 2*DefaultRating || red.Rating <= black.Rating {
		t.Fatalf("ratings: red=%d black=%d", red.Rating, black.Rating)
	}
}

func TestApplyResult_SamePlayerSkipsProfiles(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRecorder()
	g := sampleGame("m1", "black", time.Now())
	g.BlackID = g.RedID
	if err := ApplyResult(ctx, r, g); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	p, err := r.Profile(ctx, "u-red")
	if err != nil || p != nil {
		t.Fatalf("profile should not exist: %+v %v", p, err)
	}
	if saved, _ := r.Game(ctx, "m1"); saved == nil {
		t.Fatalf("game not saved")
	}
}

func TestUpdateProfiles_UnknownResult(t *testing.T) {
	red := &domain.XiangqiProfile{Rating: DefaultRating}
	black := &domain.XiangqiProfile{Rating: DefaultRating}
	UpdateProfiles(red, black, "", "", time.Now())
	if red.GamesPlayed != 0 || black.Rating != DefaultRating {
		t.Fatalf("unknown result changed profiles: red=%+v black=%+v", red, black)
	}
}

func TestNewPostgresRecorder_RequiresURL(t *testing.T) {
	if _, err := NewPostgresRecorder("  "); err == nil {
		t.Fatalf("expected error for blank url")
	}
}
