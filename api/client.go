package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/session"
)

// TokenSource supplies the bearer token stamped on every request, or ""
// when no session is active.
type TokenSource func() string

// Client talks to the ordering backend over REST. Only the three calls the
// session bridge depends on live here.
type Client struct {
	log         *zap.Logger
	baseURL     string
	httpClient  *http.Client
	tokenSource TokenSource
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = source
	}
}

func NewClient(log *zap.Logger, baseURL string, opts ...Option) *Client {
	c := &Client{
		log:        log,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates a customer against POST /login. The role of a
// customer session is always RoleClient.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Credentials, error) {
	body, err := c.post(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Token string `json:"token"`
		Data  struct {
			Client json.RawMessage `json:"client"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode login response")
	}
	if resp.Token == "" {
		return nil, errors.New("login response has no token")
	}

	return &session.Credentials{
		Token:    resp.Token,
		Role:     session.RoleClient,
		Identity: resp.Data.Client,
	}, nil
}

// LoginStaff authenticates a staff member against POST /login-personnel.
// The backend decides the role; it is stored verbatim.
func (c *Client) LoginStaff(ctx context.Context, email, password string) (*session.Credentials, error) {
	body, err := c.post(ctx, "/login-personnel", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
		Data  struct {
			Personnel json.RawMessage `json:"personnel"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode staff login response")
	}
	if resp.Token == "" {
		return nil, errors.New("staff login response has no token")
	}
	if resp.Role == "" {
		return nil, errors.New("staff login response has no role")
	}

	return &session.Credentials{
		Token:    resp.Token,
		Role:     session.Role(resp.Role),
		Identity: resp.Data.Personnel,
	}, nil
}

// RegisterToken binds (identity, role, device token) on the backend via
// POST /fcm-token. The backend upserts, so re-sending an unchanged binding
// is harmless.
func (c *Client) RegisterToken(ctx context.Context, userID json.Number, role session.Role, fcmToken string) error {
	_, err := c.post(ctx, "/fcm-token", map[string]any{
		"id_user":  userID,
		"role":     role,
		"fcmToken": fcmToken,
	})
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("Request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &CredentialError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	return body, nil
}

func serverMessage(body []byte) string {
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Message
}
