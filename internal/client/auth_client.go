package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/models"
)

// AuthClient calls the upstream auth endpoints that must NOT go through the
// session transport: a token refresh carries its own credentials and must
// never trigger another refresh.
type AuthClient struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// NewAuthClient creates an auth client with a plain HTTP client
func NewAuthClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// refreshRequest is the refresh endpoint payload
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new token pair
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return models.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TokenPair{}, &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithField("status", resp.StatusCode).Warn("token refresh rejected")
		return models.TokenPair{}, &APIError{Kind: KindAuth, StatusCode: resp.StatusCode, Message: "refresh token rejected"}
	}

	var pair models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return models.TokenPair{}, &APIError{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode token pair: %v", err)}
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return models.TokenPair{}, &APIError{Kind: KindAuth, StatusCode: resp.StatusCode, Message: "refresh response missing tokens"}
	}

	return pair, nil
}
