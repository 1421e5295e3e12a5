// Package twitchapi contains minimal helpers around Twitch's OAuth endpoints:
// validating the IRC user token and computing expiry timestamps. The token
// refresh grant itself goes through golang.org/x/oauth2 in main.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultValidateURL = "https://id.twitch.tv/oauth2/validate"

// ValidateResult is the subset of the validate response the bot cares about.
type ValidateResult struct {
	Login     string   `json:"login"`
	UserID    string   `json:"user_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

// ValidateToken checks a user OAuth token against id.twitch.tv and reports its
// remaining lifetime, used at startup to seed the stored token row.
func ValidateToken(ctx context.Context, hc *http.Client, validateURL, token string) (*ValidateResult, error) {
	if token == "" {
		return nil, fmt.Errorf("token empty")
	}
	if validateURL == "" {
		validateURL = defaultValidateURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token)
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("twitch token validate failed: %s: %s", resp.Status, string(b))
	}
	var vr ValidateResult
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, err
	}
	return &vr, nil
}

// ComputeExpiry converts an expires_in seconds value to an absolute UTC time.
func ComputeExpiry(seconds int) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Add(time.Duration(seconds) * time.Second)
}
