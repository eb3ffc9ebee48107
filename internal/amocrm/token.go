package amocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"crmhub_backend/platform/apperr"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const (
	envAccessToken  = "AMOCRM_ACCESS_TOKEN"
	envRefreshToken = "AMOCRM_REFRESH_TOKEN"

	grantRefresh  = "refresh_token"
	grantAuthCode = "authorization_code"
)

// TokenSource holds the OAuth2 token pair and refreshes it when the access
// token expires. All access goes through a mutex: concurrent webhook handlers
// must not race a refresh against each other.
type TokenSource struct {
	mu      sync.Mutex
	access  string
	refresh string

	clientID     string
	clientSecret string
	redirectURL  string
	authCode     string
	envFile      string
	tokenURL     string

	http *http.Client
	log  *logger.Logger
}

// NewTokenSource creates a token source from configuration. tokenURL is the
// CRM's oauth2 access-token endpoint.
func NewTokenSource(cfg config.AmoConfig, tokenURL string, httpClient *http.Client, log *logger.Logger) *TokenSource {
	return &TokenSource{
		access:       cfg.GetAmoAccessToken(),
		refresh:      cfg.GetAmoRefreshToken(),
		clientID:     cfg.GetAmoClientID(),
		clientSecret: cfg.GetAmoClientSecret(),
		redirectURL:  cfg.GetAmoRedirectURL(),
		authCode:     cfg.GetAmoAuthCode(),
		envFile:      cfg.GetAmoEnvFile(),
		tokenURL:     tokenURL,
		http:         httpClient,
		log:          log,
	}
}

// Token returns a valid access token, refreshing it first when expired.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.access == "" {
		return "", apperr.Unauthorized("access token is not set; run the auth exchange first")
	}

	if !isExpired(ts.access) {
		return ts.access, nil
	}

	if err := ts.refreshLocked(ctx); err != nil {
		return "", err
	}
	return ts.access, nil
}

// Exchange performs the one-time authorization-code grant and persists the
// resulting token pair.
func (ts *TokenSource) Exchange(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.authCode == "" {
		return apperr.Validation("AMOCRM_SECRET authorization code is not set")
	}

	return ts.grant(ctx, map[string]string{
		"client_id":     ts.clientID,
		"client_secret": ts.clientSecret,
		"grant_type":    grantAuthCode,
		"code":          ts.authCode,
		"redirect_uri":  ts.redirectURL,
	})
}

func (ts *TokenSource) refreshLocked(ctx context.Context) error {
	if ts.refresh == "" {
		return apperr.Unauthorized("refresh token is not set")
	}

	return ts.grant(ctx, map[string]string{
		"client_id":     ts.clientID,
		"client_secret": ts.clientSecret,
		"grant_type":    grantRefresh,
		"refresh_token": ts.refresh,
		"redirect_uri":  ts.redirectURL,
	})
}

func (ts *TokenSource) grant(ctx context.Context, form map[string]string) error {
	body, err := json.Marshal(form)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return apperr.Unauthorized(fmt.Sprintf("token grant returned %d: %s", resp.StatusCode, string(data)))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return apperr.Wrap(apperr.KindUnauthorized, "malformed token response", err)
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return apperr.Unauthorized("token response is missing tokens")
	}

	ts.access = payload.AccessToken
	ts.refresh = payload.RefreshToken
	ts.persist()
	return nil
}

// persist writes the token pair back to the env file so a restart picks up
// the rotated refresh token. Best effort: a write failure only loses the
// rotation across restarts, not the running process.
func (ts *TokenSource) persist() {
	if ts.envFile == "" {
		return
	}

	env, err := godotenv.Read(ts.envFile)
	if err != nil {
		env = map[string]string{}
	}
	env[envAccessToken] = ts.access
	env[envRefreshToken] = ts.refresh

	if err := godotenv.Write(env, ts.envFile); err != nil {
		ts.log.Error("failed to persist rotated tokens", "file", ts.envFile, "error", err)
	}
}

// isExpired checks the access token's exp claim without verifying the
// signature; a malformed token counts as expired.
func isExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !time.Now().Before(exp.Time)
}
