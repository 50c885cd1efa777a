// Package api is a thin client for the TaskTracker backend. The backend
// authenticates with a session cookie, so the client is only as logged in
// as the cookie jar it is given.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnauthenticated is matched by any *Error for a 401 or a redirect to
	// the login page.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden is matched by a 403 or a redirect anywhere else, which is
	// how the backend turns away a signed-in user from admin routes.
	ErrForbidden = errors.New("forbidden")
)

const (
	fallbackMessage  = "Request failed"
	forbiddenMessage = "Admin access required."
	loginPath        = "/auth/login"
)

// Error is a non-2xx response, or a 2xx one that did not report success.
// Message is the backend's "error" field, shown to the user verbatim.
type Error struct {
	Status  int
	Message string
	// Location is the redirect target of a 3xx response.
	Location string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case e.Status >= 300 && e.Status < 400:
		if redirectsToLogin(e.Location) {
			return ErrUnauthenticated
		}
		return ErrForbidden
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

func redirectsToLogin(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return strings.TrimRight(u.Path, "/") == loginPath
}

type Client struct {
	base *url.URL
	http *http.Client
}

func New(baseURL string, jar http.CookieJar) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}
	return &Client{
		base: u,
		http: &http.Client{
			Jar: jar,
			// The backend answers unauthenticated requests with a redirect to
			// its HTML login page; that is a signal, not something to follow.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`

	status int
	isJSON bool
	raw    []byte
}

// do sends body as JSON and decodes the response into out when out is
// non-nil. It returns the envelope so callers can surface "message".
func (c *Client) do(ctx context.Context, method, path string, body, out any) (envelope, error) {
	var env envelope
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return env, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return env, err
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	logger := log.WithFields(log.Fields{"method": method, "path": path, "request_id": reqID})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Warn("api request failed")
		return env, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	logger = logger.WithFields(log.Fields{"status": resp.StatusCode, "elapsed": time.Since(start)})

	isJSON := json.Valid(raw)
	if isJSON {
		// Arrays and scalars simply leave the envelope empty.
		_ = json.Unmarshal(raw, &env)
	}
	env.status, env.isJSON, env.raw = resp.StatusCode, isJSON, raw
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: env.Error, Location: resp.Header.Get("Location")}
		if apiErr.Message == "" {
			switch {
			case errors.Is(apiErr, ErrUnauthenticated):
				apiErr.Message = "Please log in"
			case errors.Is(apiErr, ErrForbidden):
				apiErr.Message = forbiddenMessage
			default:
				apiErr.Message = fallbackMessage
			}
		}
		logger.WithField("error", apiErr.Message).Info("api request rejected")
		return env, apiErr
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = fallbackMessage
		}
		logger.WithField("error", msg).Info("api request unsuccessful")
		return env, &Error{Status: resp.StatusCode, Message: msg}
	}
	logger.Debug("api request")

	if out != nil {
		if !isJSON {
			return env, fmt.Errorf("%s %s: response is not JSON", method, path)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return env, fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return env, nil
}

// submit posts a credentials form. The auth views answer a rejected
// submission with 200 and the login page re-rendered around a flash
// message, so only an explicit "success": true counts.
func (c *Client) submit(ctx context.Context, path string, body any) (string, error) {
	env, err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return "", err
	}
	if env.Success != nil && *env.Success {
		return env.Message, nil
	}
	msg := env.Error
	if msg == "" && !env.isJSON {
		msg = flashMessage(env.raw)
	}
	if msg == "" {
		msg = fallbackMessage
	}
	log.WithFields(log.Fields{"path": path, "status": env.status, "error": msg}).Info("api form rejected")
	return "", &Error{Status: env.status, Message: msg}
}
