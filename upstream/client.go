// Package upstream is the HTTP adapter to the game backend, which
// owns grading truth. It fetches leaderboard snapshots, season
// metadata and the caller's own answers, and forwards answer writes.
// Nothing here interprets leaderboard payloads; parsing stays in the
// core so the adapter can hand back raw bytes untouched.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/francosolari/nba-props-board/models"
)

var (
	// ErrNotFound means the season or resource does not exist.
	ErrNotFound = errors.New("upstream resource not found")
	// ErrUnauthorized means the backend rejected the forwarded
	// credentials.
	ErrUnauthorized = errors.New("upstream rejected the caller's credentials")
	// ErrUnavailable covers transport failures and backend errors
	// that survived the retry budget.
	ErrUnavailable = errors.New("upstream unavailable")
)

// Statuses of the answer write envelope.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusError          = "error"
)

// Client is what the service layer needs from the game backend.
type Client interface {
	LeaderboardSnapshot(ctx context.Context, season string) ([]byte, error)
	Seasons(ctx context.Context) ([]models.Season, error)
	ParticipatedSeasons(ctx context.Context, authToken string) ([]models.Season, error)
	Answers(ctx context.Context, season, authToken string) ([]AnswerItem, error)
	SaveAnswers(ctx context.Context, season, authToken string, answers []AnswerItem) (SaveResult, error)
}

// AnswerItem is one submitted answer, in the backend's wire shape.
type AnswerItem struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// SaveResult round-trips the backend's write envelope. Errors, when
// present, are indexed by question id.
type SaveResult struct {
	Status     string         `json:"status"`
	SavedCount int            `json:"saved_count,omitempty"`
	Errors     map[int]string `json:"errors,omitempty"`
}

// HTTPClient talks to the backend over JSON HTTP. Reads retry with
// exponential backoff; the write path never retries. Timeouts are the
// injected http.Client's business.
type HTTPClient struct {
	base    *url.URL
	httpc   *http.Client
	log     *slog.Logger
	retries uint64
}

func NewHTTPClient(baseURL string, httpc *http.Client, log *slog.Logger) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &HTTPClient{base: base, httpc: httpc, log: log, retries: 3}, nil
}

func (c *HTTPClient) LeaderboardSnapshot(ctx context.Context, season string) ([]byte, error) {
	return c.get(ctx, "/leaderboard/"+url.PathEscape(season), "")
}

func (c *HTTPClient) Seasons(ctx context.Context) ([]models.Season, error) {
	body, err := c.get(ctx, "/seasons/", "")
	if err != nil {
		return nil, err
	}
	return parseSeasons(body)
}

func (c *HTTPClient) ParticipatedSeasons(ctx context.Context, authToken string) ([]models.Season, error) {
	body, err := c.get(ctx, "/seasons/user-participated", authToken)
	if err != nil {
		return nil, err
	}
	return parseSeasons(body)
}

func (c *HTTPClient) Answers(ctx context.Context, season, authToken string) ([]AnswerItem, error) {
	body, err := c.get(ctx, "/submissions/answers/"+url.PathEscape(season), authToken)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Answers []AnswerItem `json:"answers"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode answers payload: %w", err)
	}
	return envelope.Answers, nil
}

func (c *HTTPClient) SaveAnswers(ctx context.Context, season, authToken string, answers []AnswerItem) (SaveResult, error) {
	payload, err := json.Marshal(struct {
		Answers []AnswerItem `json:"answers"`
	}{Answers: answers})
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode answers payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/submissions/answers/"+url.PathEscape(season), bytes.NewReader(payload), authToken)
	if err != nil {
		return SaveResult{}, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	// The backend reports write problems inside the envelope, with
	// whatever status code it felt like. Prefer the envelope.
	var result SaveResult
	if err := json.Unmarshal(body, &result); err == nil && result.Status != "" {
		return result, nil
	}
	if err := statusError(resp.StatusCode); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{}, fmt.Errorf("decode save envelope: unexpected body")
}

// get fetches one resource with the retry budget applied. Responses
// that cannot improve on retry (404, auth failures, 4xx in general)
// abort immediately.
func (c *HTTPClient) get(ctx context.Context, path, authToken string) ([]byte, error) {
	var out []byte
	attempt := 0
	op := func() error {
		attempt++
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, authToken)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			c.log.Debug("upstream request failed",
				"path", path, "attempt", attempt, "error", err)
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			out = body
			return nil
		}
		if resp.StatusCode >= 500 {
			c.log.Debug("upstream returned server error",
				"path", path, "attempt", attempt, "status", resp.StatusCode)
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return backoff.Permanent(statusError(resp.StatusCode))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return out, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, authToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code >= 400:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, code)
	}
	return nil
}

// parseSeasons tolerates both the bare array and the wrapped object
// the backend has shipped over the years.
func parseSeasons(body []byte) ([]models.Season, error) {
	var list []models.Season
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Seasons []models.Season `json:"seasons"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Seasons != nil {
		return wrapped.Seasons, nil
	}
	return nil, errors.New("unrecognized seasons payload")
}
