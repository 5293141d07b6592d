package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-xiangqi/internal/match"
	"github.com/park285/cheese-xiangqi/internal/obslog"
	"github.com/park285/cheese-xiangqi/internal/timecontrol"
	"github.com/park285/cheese-xiangqi/internal/xiangqi"
	"github.com/park285/cheese-xiangqi/pkg/xqdto"
)

const (
	maxBodyBytes   = 1 << 16
	requestTimeout = 5 * time.Second
)

// Config tunes a Server. Zero values pick defaults.
type Config struct {
	HistoryLimit int
	Logger       *zap.Logger
}

// Server exposes the match manager as a JSON API over fasthttp.
type Server struct {
	mgr          *match.Manager
	catalog      *timecontrol.Catalog
	historyLimit int
	log          *zap.Logger

	srvMu sync.Mutex
	srv   *fasthttp.Server
}

func NewServer(mgr *match.Manager, catalog *timecontrol.Catalog, cfg Config) *Server {
	s := &Server{mgr: mgr, catalog: catalog, historyLimit: cfg.HistoryLimit, log: cfg.Logger}
	if s.historyLimit <= 0 {
		s.historyLimit = 10
	}
	if s.log == nil {
		s.log = obslog.L()
	}
	return s
}

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "xiangqi",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxBodyBytes,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.log.Info("http_listen", zap.String("addr", addr))
	return srv.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.ShutdownWithContext(ctx)
}

// Handler routes requests by path segment.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json; charset=utf-8")
		parts := splitPath(string(ctx.Path()))
		method := string(ctx.Method())

		switch {
		case len(parts) == 1 && parts[0] == "healthz":
			ctx.SetContentType("text/plain; charset=utf-8")
			ctx.SetBodyString("ok")
		case len(parts) == 1 && parts[0] == "timecontrols":
			s.only(ctx, method, fasthttp.MethodGet, s.handleTimeControls)
		case len(parts) == 1 && parts[0] == "matches":
			s.only(ctx, method, fasthttp.MethodPost, s.handleCreate)
		case len(parts) == 2 && parts[0] == "matches":
			s.only(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleGet(c, parts[1]) })
		case len(parts) == 3 && parts[0] == "matches":
			id := parts[1]
			switch parts[2] {
			case "legal":
				s.only(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleLegal(c, id) })
			case "moves":
				s.only(ctx, method, fasthttp.MethodPost, func(c *fasthttp.RequestCtx) { s.handleMove(c, id) })
			case "undo":
				s.only(ctx, method, fasthttp.MethodPost, func(c *fasthttp.RequestCtx) { s.handleUndo(c, id) })
			case "resign":
				s.only(ctx, method, fasthttp.MethodPost, func(c *fasthttp.RequestCtx) { s.handleResign(c, id) })
			default:
				writeError(ctx, fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: "no such route"})
			}
		case len(parts) == 3 && parts[0] == "players":
			id := parts[1]
			switch parts[2] {
			case "games":
				s.only(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleGames(c, id) })
			case "profile":
				s.only(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleProfile(c, id) })
			case "match":
				s.only(ctx, method, fasthttp.MethodGet, func(c *fasthttp.RequestCtx) { s.handleActive(c, id) })
			default:
				writeError(ctx, fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: "no such route"})
			}
		default:
			writeError(ctx, fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: "no such route"})
		}
	}
}

func (s *Server) only(ctx *fasthttp.RequestCtx, method, want string, h fasthttp.RequestHandler) {
	if method != want {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, xqdto.DomainError{Code: xqdto.CodeMethodNotAllowed, Message: "method not allowed"})
		return
	}
	h(ctx)
}

func (s *Server) handleTimeControls(ctx *fasthttp.RequestCtx) {
	names := s.catalog.Names()
	out := make([]xqdto.TimeControlView, 0, len(names))
	for _, n := range names {
		tc, err := s.catalog.Resolve(n)
		if err != nil {
			continue
		}
		out = append(out, xqdto.TimeControlView{Name: n, TimeControl: tc.String()})
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleCreate(ctx *fasthttp.RequestCtx) {
	var body xqdto.CreateMatchRequest
	if !decode(ctx, &body) {
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.Create(c, match.CreateRequest{
		ChallengerID:   body.ChallengerID,
		ChallengerName: body.ChallengerName,
		OpponentID:     body.OpponentID,
		OpponentName:   body.OpponentName,
		Color:          body.Color,
		TimeControl:    body.TimeControl,
		Room:           body.Room,
		FEN:            body.FEN,
	})
	if err != nil {
		s.fail(ctx, "create", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, ToView(mt))
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.Get(c, id)
	if err != nil {
		s.fail(ctx, "get", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToView(mt))
}

func (s *Server) handleLegal(ctx *fasthttp.RequestCtx, id string) {
	from := strings.TrimSpace(string(ctx.QueryArgs().Peek("from")))
	if from == "" {
		writeError(ctx, fasthttp.StatusBadRequest, xqdto.DomainError{Code: xqdto.CodeInvalidArgs, Message: "from is required"})
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	moves, err := s.mgr.LegalMoves(c, id, from)
	if err != nil {
		s.fail(ctx, "legal", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, xqdto.LegalMovesResponse{From: strings.ToLower(from), Moves: moves})
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx, id string) {
	var body xqdto.MoveRequest
	if !decode(ctx, &body) {
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.Play(c, id, body.UserID, body.Move)
	if err != nil {
		s.fail(ctx, "move", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToView(mt))
}

func (s *Server) handleUndo(ctx *fasthttp.RequestCtx, id string) {
	var body xqdto.UserRequest
	if !decode(ctx, &body) {
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.Undo(c, id, body.UserID)
	if err != nil {
		s.fail(ctx, "undo", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToView(mt))
}

func (s *Server) handleResign(ctx *fasthttp.RequestCtx, id string) {
	var body xqdto.UserRequest
	if !decode(ctx, &body) {
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.Resign(c, id, body.UserID)
	if err != nil {
		s.fail(ctx, "resign", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToView(mt))
}

func (s *Server) handleGames(ctx *fasthttp.RequestCtx, playerID string) {
	limit := s.historyLimit
	if v := strings.TrimSpace(string(ctx.QueryArgs().Peek("limit"))); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(ctx, fasthttp.StatusBadRequest, xqdto.DomainError{Code: xqdto.CodeInvalidArgs, Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	games, err := s.mgr.Recorder().RecentGames(c, playerID, limit)
	if err != nil {
		s.fail(ctx, "games", err)
		return
	}
	out := make([]xqdto.GameRecord, 0, len(games))
	for _, g := range games {
		out = append(out, ToRecord(g))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleProfile(ctx *fasthttp.RequestCtx, playerID string) {
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	p, err := s.mgr.Recorder().Profile(c, playerID)
	if err != nil {
		s.fail(ctx, "profile", err)
		return
	}
	if p == nil {
		writeError(ctx, fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: "profile not found"})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToProfile(p))
}

func (s *Server) handleActive(ctx *fasthttp.RequestCtx, playerID string) {
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mt, err := s.mgr.ActiveByUser(c, playerID)
	if err != nil {
		s.fail(ctx, "active", err)
		return
	}
	if mt == nil {
		writeError(ctx, fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: "no active match"})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ToView(mt))
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, op string, err error) {
	status, body := ErrorResponse(err)
	if status >= fasthttp.StatusInternalServerError {
		s.log.Error("http_error", zap.String("op", op), zap.Error(err))
	} else {
		s.log.Debug("http_reject", zap.String("op", op), zap.String("code", body.Code), zap.Error(err))
	}
	writeError(ctx, status, body)
}

// ErrorResponse maps a service error to an HTTP status and error body.
func ErrorResponse(err error) (int, xqdto.DomainError) {
	msg := err.Error()
	switch {
	case errors.Is(err, match.ErrInvalidArgs):
		return fasthttp.StatusBadRequest, xqdto.DomainError{Code: xqdto.CodeInvalidArgs, Message: msg}
	case errors.Is(err, match.ErrNotFound):
		return fasthttp.StatusNotFound, xqdto.DomainError{Code: xqdto.CodeNotFound, Message: msg}
	case errors.Is(err, match.ErrNotParticipant):
		return fasthttp.StatusForbidden, xqdto.DomainError{Code: xqdto.CodeNotParticipant, Message: msg}
	case errors.Is(err, xiangqi.ErrIllegalMove):
		return fasthttp.StatusUnprocessableEntity, xqdto.DomainError{Code: xqdto.CodeIllegalMove, Message: msg}
	case errors.Is(err, xiangqi.ErrNotPlayersTurn):
		return fasthttp.StatusUnprocessableEntity, xqdto.DomainError{Code: xqdto.CodeNotYourTurn, Message: msg}
	case errors.Is(err, match.ErrFinished), errors.Is(err, xiangqi.ErrGameOver):
		return fasthttp.StatusConflict, xqdto.DomainError{Code: xqdto.CodeFinished, Message: msg}
	case errors.Is(err, match.ErrPlayerBusy):
		return fasthttp.StatusConflict, xqdto.DomainError{Code: xqdto.CodePlayerBusy, Message: msg}
	case errors.Is(err, match.ErrUndoNotAllowed):
		return fasthttp.StatusConflict, xqdto.DomainError{Code: xqdto.CodeUndoNotAllowed, Message: msg}
	case errors.Is(err, match.ErrConcurrentUpdate):
		return fasthttp.StatusConflict, xqdto.DomainError{Code: xqdto.CodeConflict, Message: msg, Retryable: true}
	case errors.Is(err, match.ErrTimeExpired):
		return fasthttp.StatusConflict, xqdto.DomainError{Code: xqdto.CodeTimeExpired, Message: msg}
	default:
		return fasthttp.StatusInternalServerError, xqdto.DomainError{Code: xqdto.CodeInternal, Message: "internal error", Retryable: true}
	}
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	body := ctx.PostBody()
	if len(body) > maxBodyBytes {
		writeError(ctx, fasthttp.StatusRequestEntityTooLarge, xqdto.DomainError{Code: xqdto.CodeInvalidArgs, Message: "request too large"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, xqdto.DomainError{Code: xqdto.CodeInvalidArgs, Message: "invalid json"})
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"code":"internal","message":"encode response"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func writeError(ctx *fasthttp.RequestCtx, status int, e xqdto.DomainError) {
	writeJSON(ctx, status, e)
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
