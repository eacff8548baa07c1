// Package sessionauth validates session cookies against the external
// auth service that owns login for the cookie-session strategy.
package sessionauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSession covers every "the token is not good" outcome: non-200
	// responses, malformed bodies, and absent sessions. Callers must not
	// reveal which one occurred.
	ErrNoSession = errors.New("no valid session")
	// ErrUnavailable means the auth service could not be reached at all;
	// this maps to 503, never to 401.
	ErrUnavailable = errors.New("auth service unavailable")
)

// forwardCookie is the canonical cookie name the auth service expects on
// the validation request, whichever cookie the token arrived under.
const forwardCookie = "__Secure-authjs.session-token"

// RemoteUser is the identity returned by the auth service.
type RemoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sessionResponse struct {
	Session json.RawMessage `json:"session"`
	User    RemoteUser      `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ValidateSession forwards the session token to GET {base}/session and
// resolves it to a user. Transport failures are retried exactly once;
// local store failures never are.
func (c *Client) ValidateSession(ctx context.Context, token string) (*RemoteUser, error) {
	resp, err := c.fetch(ctx, token)
	if err != nil {
		resp, err = c.fetch(ctx, token)
	}
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("auth service unreachable")
		}
		return nil, ErrUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoSession
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, ErrNoSession
	}
	// A 200 with a null/absent session object still means "not logged in".
	if len(body.Session) == 0 || string(body.Session) == "null" || body.User.ID == "" {
		return nil, ErrNoSession
	}
	return &body.User, nil
}

func (c *Client) fetch(ctx context.Context, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session", nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: forwardCookie, Value: token})
	return c.http.Do(req)
}
