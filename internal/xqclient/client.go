package xqclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-xiangqi/pkg/xqdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client talks to the match API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, fasthttp.MethodGet, "/healthz", nil, nil, true)
}

func (c *Client) TimeControls(ctx context.Context) ([]xqdto.TimeControlView, error) {
	var out []xqdto.TimeControlView
	if err := c.do(ctx, fasthttp.MethodGet, "/timecontrols", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMatch(ctx context.Context, req xqdto.CreateMatchRequest) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	if err := c.do(ctx, fasthttp.MethodPost, "/matches", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Match(ctx context.Context, id string) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	if err := c.do(ctx, fasthttp.MethodGet, "/matches/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LegalMoves(ctx context.Context, id, from string) ([]string, error) {
	var out xqdto.LegalMovesResponse
	path := "/matches/" + url.PathEscape(id) + "/legal?from=" + url.QueryEscape(from)
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Moves, nil
}

// Play submits an ICCS move. Retryable conflicts are retried; nothing was
// applied when the server reports one.
func (c *Client) Play(ctx context.Context, id, userID, move string) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	req := xqdto.MoveRequest{UserID: userID, Move: move}
	if err := c.do(ctx, fasthttp.MethodPost, "/matches/"+url.PathEscape(id)+"/moves", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Undo(ctx context.Context, id, userID string) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	req := xqdto.UserRequest{UserID: userID}
	if err := c.do(ctx, fasthttp.MethodPost, "/matches/"+url.PathEscape(id)+"/undo", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resign(ctx context.Context, id, userID string) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	req := xqdto.UserRequest{UserID: userID}
	if err := c.do(ctx, fasthttp.MethodPost, "/matches/"+url.PathEscape(id)+"/resign", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Games(ctx context.Context, playerID string, limit int) ([]xqdto.GameRecord, error) {
	var out []xqdto.GameRecord
	path := "/players/" + url.PathEscape(playerID) + "/games"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveMatch returns the player's running match.
func (c *Client) ActiveMatch(ctx context.Context, playerID string) (*xqdto.MatchView, error) {
	var out xqdto.MatchView
	if err := c.do(ctx, fasthttp.MethodGet, "/players/"+url.PathEscape(playerID)+"/match", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, playerID string) (*xqdto.Profile, error) {
	var out xqdto.Profile
	if err := c.do(ctx, fasthttp.MethodGet, "/players/"+url.PathEscape(playerID)+"/profile", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one JSON request. Non-2xx answers come back as xqdto.DomainError.
func (c *Client) do(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			// a write may have landed before the connection broke
			if attempt == attempts || method != fasthttp.MethodGet {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			derr := decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetry(status, derr) {
				return derr
			}
			lastErr = derr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeError(status int, body []byte) xqdto.DomainError {
	var derr xqdto.DomainError
	if err := json.Unmarshal(body, &derr); err != nil || derr.Code == "" {
		return xqdto.DomainError{
			Code:      xqdto.CodeInternal,
			Message:   fmt.Sprintf("status=%d body=%s", status, truncate(string(body), 512)),
			Retryable: status >= 500,
		}
	}
	return derr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 50 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base
}

func shouldRetry(status int, derr xqdto.DomainError) bool {
	switch status {
	case 502, 503, 504:
		return true
	case 409:
		return derr.Retryable
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
