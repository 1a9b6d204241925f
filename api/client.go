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

	"github.com/MrEthical07/goGate/internal/credctx"
	"github.com/MrEthical07/goGate/session"
)

const (
	pathLogin         = "/bar-management/auth/login"
	pathRegister      = "/bar-management/auth/register"
	pathResetPassword = "/bar-management/auth/reset-password"
	pathInvitations   = "/bar-management/invitations/"
	pathBars          = "/bar-management/bars"

	maxErrorBody = 64 << 10
)

// Client calls the backend REST API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a Client for baseURL (for example
// "http://localhost:3026/api/v1"). httpClient carries authentication; nil
// uses [http.DefaultClient].
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: u, http: httpClient}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Login exchanges credentials for a session. It never sends or clears the
// current session. Failures are *LoginError.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &LoginError{Reason: ReasonInvalidCredentials, Err: errors.New("email and password are required")}
	}

	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(credctx.Anonymous(ctx), http.MethodPost, pathLogin, body, &out); err != nil {
		return nil, classifyLogin(err)
	}
	if err := validateLogin(&out); err != nil {
		return nil, &LoginError{Reason: ReasonUnavailable, Err: err}
	}
	return &out, nil
}

// Register accepts an invitation and returns the new account's session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	if req.InvitationToken == "" {
		return nil, errors.New("invitation token is required")
	}
	var out LoginResult
	if err := c.do(credctx.Anonymous(ctx), http.MethodPost, pathRegister, req, &out); err != nil {
		return nil, err
	}
	if err := validateLogin(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyInvitation looks up a pending invitation by its one-time token.
func (c *Client) VerifyInvitation(ctx context.Context, token string) (*Invitation, error) {
	if token == "" {
		return nil, errors.New("invitation token is required")
	}
	var out Invitation
	if err := c.do(credctx.Anonymous(ctx), http.MethodGet, pathInvitations+url.PathEscape(token), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password using a one-time reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return errors.New("reset token is required")
	}
	body := map[string]string{"token": token, "password": password}
	return c.do(credctx.Anonymous(ctx), http.MethodPost, pathResetPassword, body, nil)
}

// ListBars returns the bars the current user can access.
func (c *Client) ListBars(ctx context.Context) ([]Bar, error) {
	var out []Bar
	if err := c.do(ctx, http.MethodGet, pathBars, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBar creates a bar owned by the current user.
func (c *Client) CreateBar(ctx context.Context, req CreateBarRequest) (*Bar, error) {
	var out Bar
	if err := c.do(ctx, http.MethodPost, pathBars, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BarStats returns activity figures for barID.
func (c *Client) BarStats(ctx context.Context, barID string) (*BarStats, error) {
	var out BarStats
	if err := c.do(ctx, http.MethodGet, pathBars+"/"+url.PathEscape(barID)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InviteUser invites email to barID with role and returns the invitation link.
func (c *Client) InviteUser(ctx context.Context, barID, email string, role session.Role) (*InviteResult, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	body := map[string]string{"email": email, "role": string(role)}
	var out InviteResult
	if err := c.do(ctx, http.MethodPost, pathBars+"/"+url.PathEscape(barID)+"/invite", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	e := &Error{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("X-Request-Id"),
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	}
	return e
}

func validateLogin(res *LoginResult) error {
	if res.Token == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidResponse)
	}
	if err := res.User.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
