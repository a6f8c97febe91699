package cipapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/negneg-eq-submitter/internal/domain"
)

const tokenPath = "get-token/"

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Authenticate opens a session, reusing a cached token when one is available
func (c *Client) Authenticate(ctx context.Context) error {
	if c.auth.Username == "" || c.auth.Password == "" {
		return domain.NewConfigError("CIP-API credentials are not configured (auth.username, auth.password)", nil)
	}

	key := tokenKey(c.baseURL, c.auth.Username)
	if token, ok, err := c.tokens.Get(ctx, key); err != nil {
		c.logger.WithError(err).Warn("Token cache lookup failed, requesting a new token")
	} else if ok {
		c.token = token
		c.fromCache = true
		c.logger.WithField("user", c.auth.Username).Debug("Reusing cached CIP-API token")
		return nil
	}

	c.token = ""
	body, err := c.do(ctx, StepAuthenticate, http.MethodPost, tokenPath,
		tokenRequest{Username: c.auth.Username, Password: c.auth.Password}, c.expected.Token)
	if err != nil {
		return err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		return domain.NewError(domain.KindTransport, domain.ErrAuthentication, "CIP-API did not return a token", err)
	}

	c.token = resp.Token
	c.fromCache = false
	if err := c.tokens.Set(ctx, key, resp.Token); err != nil {
		c.logger.WithError(err).Warn("Failed to cache CIP-API token")
	}

	c.logger.WithFields(logrus.Fields{
		"user":     c.auth.Username,
		"base_url": c.baseURL,
	}).Info("Authenticated CIP-API session")
	return nil
}

// forgetToken drops a cached token the server rejected so the next run
// authenticates afresh.
func (c *Client) forgetToken(ctx context.Context) {
	if err := c.tokens.Delete(ctx, tokenKey(c.baseURL, c.auth.Username)); err != nil {
		c.logger.WithError(err).Warn("Failed to evict rejected CIP-API token")
	}
	c.fromCache = false
}
