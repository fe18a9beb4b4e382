package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/ctxutil"
	"github.com/skillbase/skillbase-backend/internal/envutil"
	"github.com/skillbase/skillbase-backend/internal/httpx"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

// Client talks to the identity provider's OIDC and admin endpoints. The
// service account behind ClientID must hold the manage-users and view-users
// realm-management roles for SearchUsers and CreateUser to work.
type Client interface {
	FetchDiscoveryDocument(ctx context.Context) (map[string]any, error)
	SignOut(ctx context.Context, refreshToken string) error
	FetchServiceAccountToken(ctx context.Context) (*TokenResponse, error)
	SearchUsers(ctx context.Context, email string) ([]UserRecord, error)
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*UserRecord, error)
}

type Config struct {
	Site         string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRetries   int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("KEYCLOAK_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("KEYCLOAK_MAX_RETRIES", 4)

	return Config{
		Site:         strings.TrimSpace(os.Getenv("KEYCLOAK_SITE")),
		Realm:        strings.TrimSpace(os.Getenv("KEYCLOAK_REALM")),
		ClientID:     strings.TrimSpace(os.Getenv("KEYCLOAK_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("KEYCLOAK_CLIENT_SECRET")),
		Timeout:      time.Duration(timeoutSec) * time.Second,
		MaxRetries:   maxRetries,
	}
}

func NewFromEnv(log *logger.Logger, tokens TokenCache) (Client, error) {
	return New(log, ConfigFromEnv(), tokens)
}

// New validates cfg and returns a client. tokens may be nil, in which case
// every authenticated call performs a fresh discovery fetch and
// client-credentials exchange; with a cache those round trips are skipped
// invisibly to callers.
func New(log *logger.Logger, cfg Config, tokens TokenCache) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	cfg.Site = strings.TrimRight(strings.TrimSpace(cfg.Site), "/")
	if cfg.Site == "" {
		return nil, fmt.Errorf("missing KEYCLOAK_SITE")
	}
	cfg.Realm = strings.TrimSpace(cfg.Realm)
	if cfg.Realm == "" {
		return nil, fmt.Errorf("missing KEYCLOAK_REALM")
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("missing KEYCLOAK_CLIENT_ID")
	}
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("missing KEYCLOAK_CLIENT_SECRET")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "KeycloakClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	tokens     TokenCache
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
}

type UserRecord struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

type credentialRep struct {
	Type      string `json:"type"`
	Temporary bool   `json:"temporary"`
	Value     string `json:"value"`
}

type userRep struct {
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Enabled     bool            `json:"enabled"`
	Credentials []credentialRep `json:"credentials"`
}

func (c *client) discoveryURL() string {
	return fmt.Sprintf("%s/auth/realms/%s/.well-known/openid-configuration", c.cfg.Site, c.cfg.Realm)
}

func (c *client) usersURL() string {
	return fmt.Sprintf("%s/auth/admin/realms/%s/users", c.cfg.Site, c.cfg.Realm)
}

func (c *client) FetchDiscoveryDocument(ctx context.Context) (map[string]any, error) {
	raw, _, err := c.do(ctx, http.MethodGet, c.discoveryURL(), nil, nil, c.cfg.MaxRetries, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode discovery document: %v", apperr.ErrUpstreamUnavailable, err)
	}
	return doc, nil
}

func (c *client) endpointFromDiscovery(ctx context.Context, key string) (string, error) {
	doc, err := c.FetchDiscoveryDocument(ctx)
	if err != nil {
		return "", err
	}
	endpoint, _ := doc[key].(string)
	if strings.TrimSpace(endpoint) == "" {
		return "", fmt.Errorf("%w: discovery document missing %s", apperr.ErrUpstreamUnavailable, key)
	}
	return endpoint, nil
}

func (c *client) SignOut(ctx context.Context, refreshToken string) error {
	endpoint, err := c.endpointFromDiscovery(ctx, "end_session_endpoint")
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrSignOutFailed, err)
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	// End-session invalidates server state; never retried.
	if _, _, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), headers, 0, http.StatusNoContent); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrSignOutFailed, err)
	}
	return nil
}

func (c *client) FetchServiceAccountToken(ctx context.Context) (*TokenResponse, error) {
	endpoint, err := c.endpointFromDiscovery(ctx, "token_endpoint")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTokenFetchFailed, err)
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	raw, _, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), headers, c.cfg.MaxRetries, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTokenFetchFailed, err)
	}

	var token TokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", apperr.ErrTokenFetchFailed, err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("%w: token response without access_token", apperr.ErrTokenFetchFailed)
	}
	return &token, nil
}

// bearerToken resolves an admin bearer token, consulting the cache first.
func (c *client) bearerToken(ctx context.Context) (string, error) {
	cacheKey := "keycloak:service_account:" + c.cfg.Realm + ":" + c.cfg.ClientID
	if c.tokens != nil {
		if tok, ok := c.tokens.Get(ctx, cacheKey); ok {
			return tok, nil
		}
	}

	token, err := c.FetchServiceAccountToken(ctx)
	if err != nil {
		return "", err
	}

	if c.tokens != nil && token.ExpiresIn > tokenExpirySlackSeconds {
		ttl := time.Duration(token.ExpiresIn-tokenExpirySlackSeconds) * time.Second
		c.tokens.Set(ctx, cacheKey, token.AccessToken, ttl)
	}
	return token.AccessToken, nil
}

func (c *client) SearchUsers(ctx context.Context, email string) ([]UserRecord, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSearchFailed, err)
	}

	u, err := url.Parse(c.usersURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSearchFailed, err)
	}
	q := u.Query()
	q.Set("search", email)
	u.RawQuery = q.Encode()

	headers := map[string]string{"Authorization": "Bearer " + token}
	raw, _, err := c.do(ctx, http.MethodGet, u.String(), nil, headers, c.cfg.MaxRetries, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSearchFailed, err)
	}

	var users []UserRecord
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("%w: decode user list: %v", apperr.ErrSearchFailed, err)
	}
	return users, nil
}

func (c *client) CreateUser(ctx context.Context, email, password, firstName, lastName string) (*UserRecord, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUserCreationFailed, err)
	}

	rep := userRep{
		Username:  email,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Enabled:   true,
		Credentials: []credentialRep{{
			Type:      "password",
			Temporary: false,
			Value:     password,
		}},
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUserCreationFailed, err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}
	raw, resp, err := c.do(ctx, http.MethodPost, c.usersURL(), bytes.NewReader(body), headers, 0, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUserCreationFailed, err)
	}

	out := UserRecord{
		Username:  email,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Enabled:   true,
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: decode created user: %v", apperr.ErrUserCreationFailed, err)
		}
	}
	if out.ID == "" && resp != nil {
		// 201 responses carry the new resource id only in Location.
		if loc := resp.Header.Get("Location"); loc != "" {
			out.ID = path.Base(loc)
		}
	}
	return &out, nil
}

const tokenExpirySlackSeconds = 30

// ---------- HTTP / retry helpers ----------

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "keycloak: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("keycloak http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, urlStr string, body io.Reader, headers map[string]string, maxRetries int, wantStatus int) ([]byte, *http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = io.ReadAll(body)
		if err != nil {
			return nil, nil, err
		}
	}

	backoff := 1 * time.Second
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		raw, resp, err := c.doOnce(ctx, method, urlStr, payload, headers, wantStatus)
		if err == nil {
			return raw, resp, nil
		}

		if !httpx.IsRetryableError(err) || attempt == maxRetries {
			return nil, resp, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Keycloak request retrying",
			"url", urlStr,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}
}

func (c *client) doOnce(ctx context.Context, method, urlStr string, payload []byte, headers map[string]string, wantStatus int) ([]byte, *http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, urlStr, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode != wantStatus {
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, resp, nil
}
