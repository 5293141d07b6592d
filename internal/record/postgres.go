package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/cheese-xiangqi/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS xiangqi_games (
	id            BIGSERIAL PRIMARY KEY,
	match_id      TEXT NOT NULL UNIQUE,
	red_id        TEXT NOT NULL,
	red_name      TEXT NOT NULL DEFAULT '',
	black_id      TEXT NOT NULL,
	black_name    TEXT NOT NULL DEFAULT '',
	room          TEXT NOT NULL DEFAULT '',
	time_control  TEXT NOT NULL DEFAULT '',
	result        TEXT NOT NULL,
	result_method TEXT NOT NULL DEFAULT '',
	initial_fen   TEXT NOT NULL DEFAULT '',
	final_fen     TEXT NOT NULL DEFAULT '',
	moves         JSONB NOT NULL DEFAULT '[]'::jsonb,
	record_text   TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS xiangqi_games_red_idx ON xiangqi_games (red_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS xiangqi_games_black_idx ON xiangqi_games (black_id, ended_at DESC);
CREATE TABLE IF NOT EXISTS xiangqi_profiles (
	player_id         TEXT PRIMARY KEY,
	player_name       TEXT NOT NULL DEFAULT '',
	rating            INT NOT NULL DEFAULT 1200,
	games_played      INT NOT NULL DEFAULT 0,
	wins              INT NOT NULL DEFAULT 0,
	losses            INT NOT NULL DEFAULT 0,
	draws             INT NOT NULL DEFAULT 0,
	streak            INT NOT NULL DEFAULT 0,
	streak_type       TEXT NOT NULL DEFAULT '',
	last_time_control TEXT NOT NULL DEFAULT '',
	last_played_at    TIMESTAMPTZ,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const gameColumns = `
	id,
	match_id,
	red_id,
	red_name,
	black_id,
	black_name,
	room,
	time_control,
	result,
	result_method,
	initial_fen,
	final_fen,
	moves,
	record_text,
	started_at,
	ended_at,
	duration_ms`

type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(databaseURL string) (*PostgresRecorder, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresRecorder{db: db}, nil
}

// EnsureSchema creates the tables when they are missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure xiangqi schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *PostgresRecorder) SaveResult(ctx context.Context, g *domain.XiangqiGame) error {
	if g == nil {
		return ErrNilGame
	}
	moves, err := json.Marshal(nonNil(g.Moves))
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}
	duration := g.Duration.Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const query = `
		INSERT INTO xiangqi_games (
			match_id, red_id, red_name, black_id, black_name,
			room, time_control, result, result_method,
			initial_fen, final_fen, moves, record_text,
			started_at, ended_at, duration_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15, $16
		) ON CONFLICT (match_id) DO UPDATE SET
			red_id = EXCLUDED.red_id,
			red_name = EXCLUDED.red_name,
			black_id = EXCLUDED.black_id,
			black_name = EXCLUDED.black_name,
			room = EXCLUDED.room,
			time_control = EXCLUDED.time_control,
			result = EXCLUDED.result,
			result_method = EXCLUDED.result_method,
			initial_fen = EXCLUDED.initial_fen,
			final_fen = EXCLUDED.final_fen,
			moves = EXCLUDED.moves,
			record_text = EXCLUDED.record_text,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			duration_ms = EXCLUDED.duration_ms
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		g.MatchID,
		g.RedID, g.RedName,
		g.BlackID, g.BlackName,
		g.Room, g.TimeControl,
		g.Result, strings.TrimSpace(g.ResultMethod),
		g.InitialFEN, g.FinalFEN, string(moves), g.Text,
		g.StartedAt, g.EndedAt, duration,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("upsert xiangqi game: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecentGames(ctx context.Context, playerID string, limit int) ([]*domain.XiangqiGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM xiangqi_games
		WHERE red_id = $1 OR black_id = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select xiangqi games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.XiangqiGame, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate xiangqi games: %w", err)
	}
	return games, nil
}

func (r *PostgresRecorder) Game(ctx context.Context, matchID string) (*domain.XiangqiGame, error) {
	query := `SELECT` + gameColumns + `
		FROM xiangqi_games
		WHERE match_id = $1`

	g, err := scanGame(r.db.QueryRowContext(ctx, query, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.XiangqiGame, error) {
	var (
		g          domain.XiangqiGame
		movesJSON  []byte
		durationMS sql.NullInt64
	)
	err := row.Scan(
		&g.ID,
		&g.MatchID,
		&g.RedID,
		&g.RedName,
		&g.BlackID,
		&g.BlackName,
		&g.Room,
		&g.TimeControl,
		&g.Result,
		&g.ResultMethod,
		&g.InitialFEN,
		&g.FinalFEN,
		&movesJSON,
		&g.Text,
		&g.StartedAt,
		&g.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan xiangqi game: %w", err)
	}
	if durationMS.Valid {
		g.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesJSON, &g.Moves); err != nil {
		return nil, fmt.Errorf("unmarshal moves: %w", err)
	}
	return &g, nil
}

func (r *PostgresRecorder) Profile(ctx context.Context, playerID string) (*domain.XiangqiProfile, error) {
	const query = `
		SELECT
			player_id,
			player_name,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_time_control,
			last_played_at,
			updated_at,
			created_at
		FROM xiangqi_profiles
		WHERE player_id = $1`

	var (
		p          domain.XiangqiProfile
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&p.PlayerID,
		&p.PlayerName,
		&p.Rating,
		&p.GamesPlayed,
		&p.Wins,
		&p.Losses,
		&p.Draws,
		&p.Streak,
		&p.StreakType,
		&p.LastTimeControl,
		&lastPlayed,
		&p.UpdatedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select xiangqi profile: %w", err)
	}
	if lastPlayed.Valid {
		p.LastPlayedAt = lastPlayed.Time
	}
	return &p, nil
}

func (r *PostgresRecorder) UpsertProfile(ctx context.Context, p *domain.XiangqiProfile) error {
	if p == nil {
		return fmt.Errorf("nil xiangqi profile payload")
	}
	const query = `
		INSERT INTO xiangqi_profiles (
			player_id,
			player_name,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_time_control,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET
			player_name = EXCLUDED.player_name,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_time_control = EXCLUDED.last_time_control,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	var lastPlayed sql.NullTime
	if !p.LastPlayedAt.IsZero() {
		lastPlayed = sql.NullTime{Time: p.LastPlayedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		p.PlayerID,
		p.PlayerName,
		p.Rating,
		p.GamesPlayed,
		p.Wins,
		p.Losses,
		p.Draws,
		p.Streak,
		p.StreakType,
		p.LastTimeControl,
		lastPlayed,
	)
	if err != nil {
		return fmt.Errorf("upsert xiangqi profile: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
