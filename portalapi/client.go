// Package portalapi is the HTTP client for the tourism portal's
// authentication API.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tourstack/go-portal-client/session"
)

// Endpoint paths, relative to the API base URL.
const (
	loginPath    = "/api/auth/login/"
	refreshPath  = "/api/auth/token/refresh/"
	registerPath = "/api/auth/register/"
)

const defaultTimeout = 30 * time.Second

// Client talks to the portal's authentication endpoints. It implements
// session.API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ session.API = (*Client)(nil)

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing
// and for callers that need custom transports).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a portal API client for the given base URL, e.g.
// "http://localhost:8000".
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a fresh access/refresh token pair.
func (c *Client) Login(ctx context.Context, username, password string) (session.TokenPair, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.post(ctx, loginPath, body, &resp, "Login failed"); err != nil {
		return session.TokenPair{}, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return session.TokenPair{}, errors.New("[Client.Login] server response missing tokens")
	}

	return session.TokenPair{Access: resp.Access, Refresh: resp.Refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is not rotated by the server.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh": refreshToken}

	var resp struct {
		Access string `json:"access"`
	}
	if err := c.post(ctx, refreshPath, body, &resp, "Token refresh failed"); err != nil {
		return "", err
	}
	if resp.Access == "" {
		return "", errors.New("[Client.Refresh] server response missing access token")
	}

	return resp.Access, nil
}

// Register submits a new account request and returns the server's
// confirmation message. Field-level validation failures are aggregated into
// a single error message.
func (c *Client) Register(ctx context.Context, form session.Registration) (string, error) {
	body := map[string]string{
		"username":  form.Username,
		"email":     form.Email,
		"password":  form.Password,
		"password2": form.PasswordConfirm,
		"role":      string(form.Role),
	}
	if form.FirstName != "" {
		body["first_name"] = form.FirstName
	}
	if form.LastName != "" {
		body["last_name"] = form.LastName
	}
	if form.BusinessName != "" {
		body["business_name"] = form.BusinessName
	}
	if form.BusinessAddress != "" {
		body["business_address"] = form.BusinessAddress
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, registerPath, body, &resp, "Registration failed"); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Registration submitted"
	}

	return resp.Message, nil
}

// post performs a JSON POST and decodes a 2xx response into target. Non-2xx
// responses become an *APIError carrying the server's reason, or
// genericDetail when the body yields none.
func (c *Client) post(ctx context.Context, path string, body, target any, genericDetail string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "[Client.post] marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "[Client.post] create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.post] perform request")
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("portal api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, genericDetail)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrap(err, "[Client.post] decode response")
	}
	return nil
}

// errorFromResponse builds an *APIError from a non-2xx response. The portal
// backend reports either {"detail": "..."} or a field-keyed validation
// object whose values may be strings or lists of strings.
func (c *Client) errorFromResponse(resp *http.Response, genericDetail string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Detail: genericDetail}
	}

	if detail, ok := parsed["detail"].(string); ok && detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if detail := flattenFieldErrors(parsed); detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	return &APIError{StatusCode: resp.StatusCode, Detail: genericDetail}
}

// flattenFieldErrors joins a field-keyed validation object into one
// human-readable message, fields in stable order.
func flattenFieldErrors(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, fmt.Sprintf("%s: %s", k, s))
				}
			}
		}
	}
	return strings.Join(parts, "; ")
}
