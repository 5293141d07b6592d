package match

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-xiangqi/internal/domain"
	"github.com/park285/cheese-xiangqi/internal/gameclock"
	"github.com/park285/cheese-xiangqi/internal/obslog"
	"github.com/park285/cheese-xiangqi/internal/record"
	"github.com/park285/cheese-xiangqi/internal/timecontrol"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

const defaultTimeControl = "10+5"

// Options tune a Manager. Zero values fall back to in-memory records, the
// embedded time-control presets, no draw rule and the wall clock.
type Options struct {
	Recorder           record.Recorder
	Catalog            *timecontrol.Catalog
	DefaultTimeControl string
	DrawPolicy         xiangqi.DrawPolicy
	Clock              clock.Clock
	TickInterval       time.Duration
	TTL                time.Duration
	Logger             *zap.Logger
}

// Manager owns live matches: snapshots in Redis, sessions (game + clock) in
// memory, finished games handed to the recorder.
type Manager struct {
	rdb       *redis.Client
	store     *Store
	recorder  record.Recorder
	catalog   *timecontrol.Catalog
	defaultTC string
	policy    xiangqi.DrawPolicy
	clk       clock.Clock
	tick      time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(redisURL string, opts Options) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for match manager")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts)
}

func NewManagerWithClient(rdb *redis.Client, opts Options) (*Manager, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	m := &Manager{
		rdb:       rdb,
		store:     NewStore(rdb, opts.TTL),
		recorder:  opts.Recorder,
		catalog:   opts.Catalog,
		defaultTC: strings.TrimSpace(opts.DefaultTimeControl),
		policy:    opts.DrawPolicy,
		clk:       opts.Clock,
		tick:      opts.TickInterval,
		log:       opts.Logger,
		sessions:  make(map[string]*Session),
	}
	if m.recorder == nil {
		m.recorder = record.NewMemoryRecorder()
	}
	if m.catalog == nil {
		c, err := timecontrol.New("")
		if err != nil {
			return nil, err
		}
		m.catalog = c
	}
	if m.defaultTC == "" {
		m.defaultTC = defaultTimeControl
	}
	if m.clk == nil {
		m.clk = clock.New()
	}
	if m.tick <= 0 {
		m.tick = gameclock.DefaultTickInterval
	}
	if m.log == nil {
		m.log = obslog.L()
	}
	return m, nil
}

// Close stops every live clock and closes the Redis client.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

func (m *Manager) Recorder() record.Recorder { return m.recorder }

// Create opens a match and starts the clock of the side to move.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Match, error) {
	challenger := strings.TrimSpace(req.ChallengerID)
	opponent := strings.TrimSpace(req.OpponentID)
	if challenger == "" || opponent == "" {
		return nil, fmt.Errorf("%w: participants required", ErrInvalidArgs)
	}

	tcSpec := strings.TrimSpace(req.TimeControl)
	if tcSpec == "" {
		tcSpec = m.defaultTC
	}
	tc, err := m.catalog.Resolve(tcSpec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	redID, redName := challenger, strings.TrimSpace(req.ChallengerName)
	blackID, blackName := opponent, strings.TrimSpace(req.OpponentName)
	switch strings.ToLower(strings.TrimSpace(req.Color)) {
	case "red", "r":
	case "black", "b":
		redID, redName, blackID, blackName = blackID, blackName, redID, redName
	case "", "random":
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			redID, redName, blackID, blackName = blackID, blackName, redID, redName
		}
	default:
		return nil, fmt.Errorf("%w: color %q", ErrInvalidArgs, req.Color)
	}

	game := xiangqi.NewGame(m.gameOptions()...)
	if fen := strings.TrimSpace(req.FEN); fen != "" {
		if game, err = xiangqi.NewGameFromFEN(fen, m.gameOptions()...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		if game.Status().Terminal() {
			return nil, fmt.Errorf("%w: position is already decided", ErrInvalidArgs)
		}
	}

	now := m.clk.Now()
	mt := &Match{
		ID:               uuid.NewString(),
		InitialFEN:       game.FEN(),
		Moves:            []MoveRecord{},
		Status:           StatusActive,
		RedID:            redID,
		RedName:          redName,
		BlackID:          blackID,
		BlackName:        blackName,
		Room:             strings.TrimSpace(req.Room),
		TimeControl:      tc.String(),
		InitialMs:        tc.Initial.Milliseconds(),
		IncrementMs:      tc.Increment.Milliseconds(),
		RedRemainingMs:   tc.Initial.Milliseconds(),
		BlackRemainingMs: tc.Initial.Milliseconds(),
		CreatedAt:        now,
	}
	sess := m.newSession(mt, game)
	m.applySnapshot(mt, sess.Snapshot(), now)

	if err := m.store.Create(ctx, mt); err != nil {
		sess.Close()
		return nil, err
	}
	if err := m.claim(ctx, mt); err != nil {
		sess.Close()
		_ = m.store.Delete(ctx, mt.ID)
		return nil, err
	}
	if err := m.store.Index(ctx, mt.ID, mt.RedID, mt.BlackID); err != nil {
		sess.Close()
		_ = m.store.Release(ctx, mt.ID, mt.RedID, mt.BlackID)
		_ = m.store.Delete(ctx, mt.ID)
		return nil, err
	}
	m.mu.Lock()
	m.sessions[mt.ID] = sess
	m.mu.Unlock()

	m.log.Info("match_create",
		zap.String("match_id", mt.ID),
		zap.String("red_id", mt.RedID),
		zap.String("black_id", mt.BlackID),
		zap.String("time_control", mt.TimeControl),
		zap.String("room", mt.Room),
	)
	return mt, nil
}

// Play applies an ICCS move ("h2e2") by userID in match id. When the mover
// has already run out of time the match is finished on time and the finished
// snapshot is returned along with ErrTimeExpired.
func (m *Manager) Play(ctx context.Context, id, userID, iccs string) (*Match, error) {
	cur, err := m.participantMatch(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	from, to, err := xiangqi.ParseMove(iccs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	sess, err := m.syncedSession(cur)
	if err != nil {
		return nil, err
	}

	var (
		out      *Match
		expired  bool
		mutated  bool
		notation string
	)
	err = m.store.Update(ctx, cur.ID, func(mt *Match) error {
		if mt.Status != StatusActive {
			return ErrFinished
		}
		if len(mt.Moves) != sess.Ply() {
			return ErrConcurrentUpdate
		}
		color, ok := mt.colorFor(userID)
		if !ok {
			return ErrNotParticipant
		}
		entry, perr := sess.Play(color, from, to)
		if errors.Is(perr, ErrTimeExpired) {
			expired, mutated = true, true
			m.applySnapshot(mt, sess.Snapshot(), m.clk.Now())
			out = mt
			return nil
		}
		if errors.Is(perr, xiangqi.ErrGameOver) {
			return ErrFinished
		}
		if perr != nil {
			return perr
		}
		mutated = true
		rec := MoveRecord{PieceID: entry.PieceID, From: entry.From, To: entry.To, Notation: xiangqi.FormatMove(entry.From, entry.To)}
		if entry.Captured != nil {
			rec.Captured = entry.Captured.ID
		}
		notation = rec.Notation
		mt.Moves = append(mt.Moves, rec)
		m.applySnapshot(mt, sess.Snapshot(), m.clk.Now())
		out = mt
		return nil
	})
	if err != nil {
		m.dropIfStale(cur.ID, mutated, err)
		return nil, err
	}

	if expired {
		m.log.Info("match_flag",
			zap.String("match_id", out.ID),
			zap.String("user_id", userID),
			zap.String("winner", out.Winner),
		)
		m.finishIfDone(ctx, out)
		return out, ErrTimeExpired
	}
	m.log.Info("match_move",
		zap.String("match_id", out.ID),
		zap.String("user_id", userID),
		zap.String("move", notation),
		zap.String("fen", out.FEN),
		zap.String("game_status", out.GameStatus),
	)
	m.finishIfDone(ctx, out)
	return out, nil
}

// Undo takes back the last ply of match id. Only the player who made it may
// ask, and only while the match is still running.
func (m *Manager) Undo(ctx context.Context, id, userID string) (*Match, error) {
	cur, err := m.participantMatch(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	sess, err := m.syncedSession(cur)
	if err != nil {
		return nil, err
	}

	var (
		out     *Match
		mutated bool
	)
	err = m.store.Update(ctx, cur.ID, func(mt *Match) error {
		if mt.Status != StatusActive {
			return ErrFinished
		}
		n := len(mt.Moves)
		if n == 0 {
			return fmt.Errorf("%w: no move to take back", ErrUndoNotAllowed)
		}
		turn, _ := xiangqi.ParseColor(mt.Turn)
		if mt.playerOf(turn.Opponent()) != userID {
			return fmt.Errorf("%w: only the last mover may take back", ErrUndoNotAllowed)
		}
		if n != sess.Ply() {
			return ErrConcurrentUpdate
		}
		if _, uerr := sess.Undo(); uerr != nil {
			return uerr
		}
		mutated = true
		mt.Moves = mt.Moves[:n-1]
		m.applySnapshot(mt, sess.Snapshot(), m.clk.Now())
		out = mt
		return nil
	})
	if err != nil {
		m.dropIfStale(cur.ID, mutated, err)
		return nil, err
	}
	m.log.Info("match_undo",
		zap.String("match_id", out.ID),
		zap.String("user_id", userID),
		zap.Int("ply", len(out.Moves)),
	)
	return out, nil
}

// Resign ends match id in the opponent's favour.
func (m *Manager) Resign(ctx context.Context, id, userID string) (*Match, error) {
	cur, err := m.participantMatch(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	sess, err := m.syncedSession(cur)
	if err != nil {
		return nil, err
	}

	var (
		out     *Match
		mutated bool
	)
	err = m.store.Update(ctx, cur.ID, func(mt *Match) error {
		if mt.Status != StatusActive {
			return ErrFinished
		}
		color, ok := mt.colorFor(userID)
		if !ok {
			return ErrNotParticipant
		}
		if rerr := sess.Resign(color); rerr != nil {
			if errors.Is(rerr, xiangqi.ErrGameOver) {
				return ErrFinished
			}
			return rerr
		}
		mutated = true
		m.applySnapshot(mt, sess.Snapshot(), m.clk.Now())
		out = mt
		return nil
	})
	if err != nil {
		m.dropIfStale(cur.ID, mutated, err)
		return nil, err
	}
	m.log.Info("match_resign",
		zap.String("match_id", out.ID),
		zap.String("user_id", userID),
		zap.String("winner", out.Winner),
	)
	m.finishIfDone(ctx, out)
	return out, nil
}

// Get loads a match; live matches report the clock as of now.
func (m *Manager) Get(ctx context.Context, id string) (*Match, error) {
	mt, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if mt == nil {
		return nil, ErrNotFound
	}
	if mt.Status == StatusActive {
		m.mu.Lock()
		sess := m.sessions[mt.ID]
		m.mu.Unlock()
		if sess != nil {
			snap := sess.Snapshot()
			mt.RedRemainingMs = snap.RedRemaining.Milliseconds()
			mt.BlackRemainingMs = snap.BlackRemaining.Milliseconds()
		}
	}
	return mt, nil
}

// ActiveByUser returns the user's most recently updated active match, or
// nil when there is none.
func (m *Manager) ActiveByUser(ctx context.Context, userID string) (*Match, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	ids, err := m.store.MatchIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var list []*Match
	for _, id := range ids {
		mt, lerr := m.store.Load(ctx, id)
		if lerr != nil || mt == nil {
			continue
		}
		if mt.Status == StatusActive {
			list = append(list, mt)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// LegalMoves lists ICCS destinations for the piece on square. A finished
// match has none.
func (m *Manager) LegalMoves(ctx context.Context, id, square string) ([]string, error) {
	from, err := xiangqi.ParseCoord(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	mt, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var dests []xiangqi.Coord
	if mt.Status == StatusActive {
		sess, serr := m.session(mt)
		if serr != nil {
			return nil, serr
		}
		if dests, err = sess.LegalMoves(from); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
	}
	out := make([]string, 0, len(dests))
	for _, d := range dests {
		out = append(out, d.ICCS())
	}
	sort.Strings(out)
	return out, nil
}

// participantMatch loads match id for a move, takeback or resignation by
// userID.
func (m *Manager) participantMatch(ctx context.Context, id, userID string) (*Match, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user required", ErrInvalidArgs)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: match id required", ErrInvalidArgs)
	}
	mt, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if mt == nil {
		return nil, ErrNotFound
	}
	if _, ok := mt.colorFor(userID); !ok {
		return nil, ErrNotParticipant
	}
	if mt.Status != StatusActive {
		return nil, ErrFinished
	}
	return mt, nil
}

// claim marks both players busy with mt. Claims taken before a failure are
// handed back.
func (m *Manager) claim(ctx context.Context, mt *Match) error {
	users := []string{mt.RedID}
	if mt.BlackID != mt.RedID {
		users = append(users, mt.BlackID)
	}
	for i, u := range users {
		if err := m.store.Claim(ctx, u, mt.ID, m.isLive); err != nil {
			if i > 0 {
				_ = m.store.Release(ctx, mt.ID, users[:i]...)
			}
			return err
		}
	}
	return nil
}

func (m *Manager) isLive(ctx context.Context, id string) (bool, error) {
	mt, err := m.store.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return mt != nil && mt.Status == StatusActive, nil
}

// syncedSession returns a session whose game matches the stored move list.
// Another instance sharing the store may have moved since this one built its
// session; that session is dropped and replayed.
func (m *Manager) syncedSession(mt *Match) (*Session, error) {
	sess, err := m.session(mt)
	if err != nil {
		return nil, err
	}
	if sess.Ply() == len(mt.Moves) {
		return sess, nil
	}
	m.log.Info("match_resync",
		zap.String("match_id", mt.ID),
		zap.Int("session_ply", sess.Ply()),
		zap.Int("stored_ply", len(mt.Moves)),
	)
	m.forget(mt.ID)
	return m.session(mt)
}

// dropIfStale forgets a session that may no longer match the store: one that
// was mutated by a failed commit, or one that lost a race with another writer.
func (m *Manager) dropIfStale(id string, mutated bool, err error) {
	if mutated || errors.Is(err, ErrConcurrentUpdate) {
		m.forget(id)
	}
}

func (m *Manager) gameOptions() []xiangqi.Option {
	if m.policy == nil {
		return nil
	}
	return []xiangqi.Option{xiangqi.WithDrawPolicy(m.policy)}
}

// session returns the live session for mt, rebuilding it from the stored
// initial position and move list when this process has none.
func (m *Manager) session(mt *Match) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[mt.ID]; ok {
		return s, nil
	}
	game, err := xiangqi.Replay(mt.InitialFEN, mt.moves(), m.gameOptions()...)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", mt.ID, err)
	}
	s := m.newSession(mt, game)
	m.sessions[mt.ID] = s
	return s, nil
}

// newSession builds the clock from the stored remaining times, charging the
// side to move for the time since the last write, and starts it if the match
// is live.
func (m *Manager) newSession(mt *Match, game *xiangqi.Game) *Session {
	clk := gameclock.NewMatchClock(
		time.Duration(mt.InitialMs)*time.Millisecond,
		time.Duration(mt.IncrementMs)*time.Millisecond,
		gameclock.WithClock(m.clk), gameclock.WithTickInterval(m.tick),
	)
	red := time.Duration(mt.RedRemainingMs) * time.Millisecond
	black := time.Duration(mt.BlackRemainingMs) * time.Millisecond
	turn := game.Turn()
	if !mt.UpdatedAt.IsZero() && mt.Status == StatusActive {
		if elapsed := m.clk.Now().Sub(mt.UpdatedAt); elapsed > 0 {
			if turn == xiangqi.Red {
				red -= elapsed
			} else {
				black -= elapsed
			}
		}
	}
	clk.Timer(xiangqi.Red).SetRemaining(red)
	clk.Timer(xiangqi.Black).SetRemaining(black)

	s := NewSession(game, clk)
	id := mt.ID
	s.OnFinish(func(snap Snapshot) { m.flagged(id, snap) })
	if mt.Status == StatusActive && !game.Status().Terminal() {
		clk.Begin(turn)
	}
	return s
}

// flagged commits a flag fall observed by a session's clock.
func (m *Manager) flagged(id string, snap Snapshot) {
	ctx := context.Background()
	var out *Match
	err := m.store.Update(ctx, id, func(mt *Match) error {
		if mt.Status != StatusActive {
			return ErrFinished
		}
		// the session fell behind moves committed elsewhere
		if len(mt.Moves) != snap.Ply {
			return ErrConcurrentUpdate
		}
		m.applySnapshot(mt, snap, m.clk.Now())
		out = mt
		return nil
	})
	if errors.Is(err, ErrFinished) {
		return
	}
	if err != nil {
		m.log.Warn("match_flag_commit_failed", zap.String("match_id", id), zap.Error(err))
		m.forget(id)
		return
	}
	m.log.Info("match_flag",
		zap.String("match_id", id),
		zap.String("loser", snap.Turn.String()),
		zap.String("winner", out.Winner),
	)
	m.finishIfDone(ctx, out)
}

func (m *Manager) applySnapshot(mt *Match, snap Snapshot, now time.Time) {
	mt.FEN = snap.FEN
	mt.Turn = snap.Turn.String()
	mt.GameStatus = snap.Status.String()
	mt.RedRemainingMs = snap.RedRemaining.Milliseconds()
	mt.BlackRemainingMs = snap.BlackRemaining.Milliseconds()
	mt.UpdatedAt = now
	if !snap.Status.Terminal() {
		return
	}
	mt.Status = StatusFinished
	mt.Outcome = snap.Outcome.String()
	mt.Method = snap.Method.String()
	switch snap.Outcome {
	case xiangqi.RedWins:
		mt.Winner = mt.RedID
	case xiangqi.BlackWins:
		mt.Winner = mt.BlackID
	}
}

// finishIfDone drops the live session and records a finished match.
func (m *Manager) finishIfDone(ctx context.Context, mt *Match) {
	if mt == nil || mt.Status != StatusFinished {
		return
	}
	m.forget(mt.ID)
	if err := m.store.Unindex(ctx, mt.ID, mt.RedID, mt.BlackID); err != nil {
		m.log.Warn("match_unindex_failed", zap.String("match_id", mt.ID), zap.Error(err))
	}
	if err := m.store.Release(ctx, mt.ID, mt.RedID, mt.BlackID); err != nil {
		m.log.Warn("match_release_failed", zap.String("match_id", mt.ID), zap.Error(err))
	}
	g := toRecord(mt)
	g.Text = record.BuildText(g)
	if err := record.ApplyResult(ctx, m.recorder, g); err != nil {
		m.log.Warn("match_record_failed", zap.String("match_id", mt.ID), zap.Error(err))
		return
	}
	m.log.Info("match_finish",
		zap.String("match_id", mt.ID),
		zap.String("outcome", mt.Outcome),
		zap.String("method", mt.Method),
		zap.Int("plies", len(mt.Moves)),
	)
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

func toRecord(mt *Match) *domain.XiangqiGame {
	moves := make([]string, len(mt.Moves))
	for i, r := range mt.Moves {
		moves[i] = r.Notation
	}
	return &domain.XiangqiGame{
		MatchID:      mt.ID,
		RedID:        mt.RedID,
		RedName:      mt.RedName,
		BlackID:      mt.BlackID,
		BlackName:    mt.BlackName,
		Room:         mt.Room,
		TimeControl:  mt.TimeControl,
		Result:       mt.Outcome,
		ResultMethod: mt.Method,
		InitialFEN:   mt.InitialFEN,
		FinalFEN:     mt.FEN,
		Moves:        moves,
		StartedAt:    mt.CreatedAt,
		EndedAt:      mt.UpdatedAt,
		Duration:     mt.UpdatedAt.Sub(mt.CreatedAt),
	}
}
