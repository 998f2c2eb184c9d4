package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
)

// Client is a thin REST client for the project: the GoTrue auth endpoints
// and the PostgREST row endpoints. There is no official Go SDK, so requests
// are issued directly.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a REST client for the configured project.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	User         tokenUser `json:"user"`
}

type tokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type apiError struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Code             any    `json:"code"`
}

func (e apiError) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Error != "":
		return e.Error
	}
	return "request rejected"
}

// PasswordGrant exchanges credentials for a session.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	var res tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.cfg.AnonKey, "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(res), nil
}

// RefreshGrant exchanges a refresh token for a fresh session.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*nexus.StoreSession, error) {
	var res tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", c.cfg.AnonKey, "", map[string]string{
		"refresh_token": refreshToken,
	}, &res)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(res), nil
}

// SignUp creates the auth account. When the project requires email
// confirmation no tokens come back; the returned session then carries the
// identity only.
func (c *Client) SignUp(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	var res struct {
		tokenResponse
		ID string `json:"id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", c.cfg.AnonKey, "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}

	session := sessionFromToken(res.tokenResponse)
	if session.UserID == "" {
		session.UserID = res.ID
		session.Email = email
	}
	return session, nil
}

// Logout revokes the session server-side.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", c.cfg.AnonKey, accessToken, struct{}{}, nil)
}

// Recover asks GoTrue to send a password recovery email.
func (c *Client) Recover(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/recover", c.cfg.AnonKey, "", map[string]string{
		"email": email,
	}, nil)
}

// FetchProfile reads the profile row for the given auth identity.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*nexus.Profile, error) {
	path := "/rest/v1/profiles?select=*&limit=1&id=eq." + url.QueryEscape(userID)

	var rows []nexus.Profile
	if err := c.doJSON(ctx, http.MethodGet, path, c.cfg.rowKey(), c.cfg.rowKey(), nil, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, goerrors.New("profile row not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"user_id": userID})
	}

	return &rows[0], nil
}

// UpsertProfile inserts the profile row, merging into an existing row with
// the same identity.
func (c *Client) UpsertProfile(ctx context.Context, profile *nexus.Profile) (*nexus.Profile, error) {
	var rows []nexus.Profile
	err := c.doRows(ctx, http.MethodPost, "/rest/v1/profiles",
		"return=representation,resolution=merge-duplicates", profile, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return profile, nil
	}
	return &rows[0], nil
}

// PatchProfile applies the changed fields to the profile row.
func (c *Client) PatchProfile(ctx context.Context, userID string, patch nexus.ProfilePatch) (*nexus.Profile, error) {
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(userID)

	var rows []nexus.Profile
	if err := c.doRows(ctx, http.MethodPatch, path, "return=representation", patch, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, goerrors.New("profile row not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"user_id": userID})
	}

	return &rows[0], nil
}

// InsertOrganization creates the organization row.
func (c *Client) InsertOrganization(ctx context.Context, org *nexus.Organization) (*nexus.Organization, error) {
	var rows []nexus.Organization
	err := c.doRows(ctx, http.MethodPost, "/rest/v1/organizations", "return=representation", org, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return org, nil
	}
	return &rows[0], nil
}

func sessionFromToken(res tokenResponse) *nexus.StoreSession {
	session := &nexus.StoreSession{
		UserID:       res.User.ID,
		Email:        res.User.Email,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}

	if res.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
		session.ExpiresAt = &expiresAt
	}

	return session
}

func (c *Client) doRows(ctx context.Context, method, path, prefer string, body, out any) error {
	return c.do(ctx, method, path, c.cfg.rowKey(), c.cfg.rowKey(), prefer, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path, apiKey, bearer string, body, out any) error {
	return c.do(ctx, method, path, apiKey, bearer, "", body, out)
}

func (c *Client) do(ctx context.Context, method, path, apiKey, bearer, prefer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.baseURL()+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("apikey", apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "supabase request failed")
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response")
	}

	if res.StatusCode >= 400 {
		return c.requestError(res.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response")
	}

	return nil
}

func (c *Client) requestError(status int, payload []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(payload, &apiErr)

	category := goerrors.CategoryOperation
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = goerrors.CategoryAuth
	case status == http.StatusConflict:
		category = goerrors.CategoryConflict
	case status == http.StatusNotFound:
		category = goerrors.CategoryNotFound
	case status >= 400 && status < 500:
		category = goerrors.CategoryBadInput
	}

	return goerrors.New(fmt.Sprintf("supabase: %s", apiErr.text()), category).
		WithCode(status).
		WithMetadata(map[string]any{
			"status": status,
		})
}
