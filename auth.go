package sensorpush

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	authorizePath   = "/api/v1/oauth/authorize"
	accessTokenPath = "/api/v1/oauth/accesstoken"
)

// AuthOK reports whether both the authorization and the access token are
// recent enough to be used.
func (c *Client) AuthOK() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authOK()
}

// AuthValidFor reports whether the authorization stays usable for at least d.
// Access tokens are renewed from it without the account password.
func (c *Client) AuthValidFor(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Authorization == "" || c.session.AuthorizedAt.IsZero() {
		return false
	}
	return c.authTimeout-c.now().Sub(c.session.AuthorizedAt) >= d
}

func (c *Client) authOK() bool {
	return c.authorizationOK() && c.tokenOK()
}

func (c *Client) authorizationOK() bool {
	if c.session.Authorization == "" || c.session.AuthorizedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.session.AuthorizedAt) <= c.authTimeout
}

func (c *Client) tokenOK() bool {
	if c.session.AccessToken == "" || c.session.TokenAt.IsZero() {
		return false
	}
	return c.now().Sub(c.session.TokenAt) <= c.tokenTimeout
}

// Authorize exchanges the account email and password for an authorization
// code.
func (c *Client) Authorize(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorize(ctx)
}

func (c *Client) authorize(ctx context.Context) (string, error) {
	if c.email == "" || c.password == "" {
		return "", ErrMissingCredentials
	}

	data, err := c.postJSON(ctx, authorizePath, map[string]any{
		"email":    c.email,
		"password": c.password,
	}, "")
	if err != nil {
		return "", err
	}

	var resp struct {
		Authorization string `json:"authorization"`
		APIKey        string `json:"apikey"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Authorization == "" {
		return "", ErrNoAuthorization
	}

	c.session = Session{
		Authorization: resp.Authorization,
		APIKey:        resp.APIKey,
		AuthorizedAt:  c.now(),
	}
	c.log.Info("authorized",
		zap.String("authorization", redact(resp.Authorization)),
		zap.Time("authorized-at", c.session.AuthorizedAt),
	)
	return resp.Authorization, nil
}

// AccessToken exchanges the current authorization code for an access token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken(ctx)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.session.Authorization == "" {
		return "", ErrNoAuthorization
	}

	data, err := c.postJSON(ctx, accessTokenPath, map[string]any{
		"authorization": c.session.Authorization,
	}, "")
	if err != nil {
		return "", err
	}

	var resp struct {
		AccessToken string `json:"accesstoken"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	c.session.AccessToken = resp.AccessToken
	c.session.TokenAt = c.now()
	c.log.Info("obtained access token",
		zap.String("accesstoken", redact(resp.AccessToken)),
		zap.Time("token-at", c.session.TokenAt),
	)
	return resp.AccessToken, nil
}

// Connect makes sure the client holds a usable access token, authorizing
// again only when the authorization itself has expired.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	if c.authOK() {
		return nil
	}

	c.log.Debug("connecting to the SensorPush API", zap.String("url", c.baseURL))
	if !c.authorizationOK() {
		if _, err := c.authorize(ctx); err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
	}
	if _, err := c.accessToken(ctx); err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	return nil
}
