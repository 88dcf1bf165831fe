// Package larkapi wraps the Lark open-platform API surface the relay depends
// on: credential-based tenant token acquisition with caching, a direct JSON
// HTTP path with observer hooks, and typed document/sheet bindings.
package larkapi

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
	"sync"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkauth "github.com/larksuite/oapi-sdk-go/v3/service/auth/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ailover/larkrelay/internal/config"
)

// Environment variables consumed by NewClientFromEnv.
const (
	EnvAppID      = "LARK_APP_ID"
	EnvAppSecret  = "LARK_APP_SECRET"
	EnvBaseURL    = "LARK_BASE_URL"
	EnvAPITimeout = "LARK_API_TIMEOUT"
)

const (
	defaultBaseURL     = "https://open.larksuite.com"
	defaultHTTPTimeout = 30 * time.Second

	// tokenSafetyMargin is subtracted from the upstream-declared token
	// lifetime so a cached token is never used while it expires mid-flight.
	tokenSafetyMargin   = time.Minute
	tokenExpiryFallback = 60 * time.Minute
)

// RequestObserver is invoked before each upstream request is sent.
type RequestObserver func(method, url string)

// ResponseObserver is invoked after each upstream round trip. status is 0 and
// err non-nil when no response was received.
type ResponseObserver func(method, url string, status int, elapsed time.Duration, err error)

// Options configures a Client.
type Options struct {
	AppID     string
	AppSecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client executes HTTP calls against the Lark base endpoint and owns the
// cached tenant access token. Construct one per process and share it.
type Client struct {
	appID     string
	appSecret string
	baseURL   string

	larkClient *lark.Client
	httpClient *http.Client

	onRequest  []RequestObserver
	onResponse []ResponseObserver

	// used for mock test
	doJSONRequestFunc func(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error)
	requestTokenFunc  func(ctx context.Context) ([]byte, error)
	nowFunc           func() time.Time

	tokenMu       sync.Mutex
	tenantToken   string
	tokenExpireAt time.Time
	tokenGroup    singleflight.Group
}

// NewClient constructs a Client from explicit options. AppID and AppSecret are
// required; there are no built-in credential defaults.
func NewClient(opts Options) (*Client, error) {
	appID := strings.TrimSpace(opts.AppID)
	appSecret := strings.TrimSpace(opts.AppSecret)
	if appID == "" || appSecret == "" {
		return nil, errors.New("larkapi: app id and app secret are required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	sdkOpts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelError),
	}
	if baseURL != lark.LarkBaseUrl {
		sdkOpts = append(sdkOpts, lark.WithOpenBaseUrl(baseURL))
	}

	return &Client{
		appID:      appID,
		appSecret:  appSecret,
		baseURL:    baseURL,
		larkClient: lark.NewClient(appID, appSecret, sdkOpts...),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewClientFromEnv constructs a Client using environment variables.
//
// Required variables:
//   - LARK_APP_ID
//   - LARK_APP_SECRET
//
// Optional variables:
//   - LARK_BASE_URL (defaults to https://open.larksuite.com)
//   - LARK_API_TIMEOUT (defaults to 30s)
func NewClientFromEnv() (*Client, error) {
	appID := config.String(EnvAppID, "")
	appSecret := config.String(EnvAppSecret, "")
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("larkapi: $%s and $%s must be set in environment", EnvAppID, EnvAppSecret)
	}
	return NewClient(Options{
		AppID:     appID,
		AppSecret: appSecret,
		BaseURL:   config.String(EnvBaseURL, ""),
		Timeout:   config.Duration(EnvAPITimeout, 0),
	})
}

// AddRequestObserver registers a pre-call hook invoked before every upstream
// request. Observers run in registration order on the calling goroutine.
func (c *Client) AddRequestObserver(fn RequestObserver) {
	if fn != nil {
		c.onRequest = append(c.onRequest, fn)
	}
}

// AddResponseObserver registers a post-call hook invoked after every upstream
// round trip.
func (c *Client) AddResponseObserver(fn ResponseObserver) {
	if fn != nil {
		c.onResponse = append(c.onResponse, fn)
	}
}

func (c *Client) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now()
}

func (c *Client) apiBase() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return defaultBaseURL
}

// RedactSecret truncates an app secret for diagnostic output.
func RedactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "..."
}

// TenantAccessToken returns a valid tenant access token, reusing the cached
// one when it has not expired. Concurrent refreshes are coalesced so at most
// one acquisition request is in flight at a time.
func (c *Client) TenantAccessToken(ctx context.Context) (string, error) {
	if token, ok := c.validCachedToken(); ok {
		return token, nil
	}
	result, err, _ := c.tokenGroup.Do("tenant_access_token", func() (any, error) {
		if token, ok := c.validCachedToken(); ok {
			return token, nil
		}
		return c.refreshTenantToken(ctx)
	})
	if err != nil {
		return "", Normalize(err)
	}
	token, ok := result.(string)
	if !ok || token == "" {
		return "", InternalError("tenant access token refresh returned no token")
	}
	return token, nil
}

func (c *Client) validCachedToken() (string, bool) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.tenantToken != "" && c.now().Before(c.tokenExpireAt) {
		return c.tenantToken, true
	}
	return "", false
}

// refreshTenantToken acquires a fresh token and overwrites the cache. On any
// failure the cache is left untouched.
func (c *Client) refreshTenantToken(ctx context.Context) (string, error) {
	log.Debug().
		Str("appID", c.appID).
		Str("appSecret", RedactSecret(c.appSecret)).
		Msg("larkapi: requesting tenant access token")

	raw, err := c.requestTenantToken(ctx)
	if err != nil {
		return "", &Error{
			Kind:       KindUpstreamAuth,
			HTTPStatus: http.StatusBadGateway,
			Message:    fmt.Sprintf("request tenant access token: %v", err),
		}
	}

	var parsed struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{
			Kind:       KindUpstreamAuth,
			HTTPStatus: http.StatusBadGateway,
			Message:    fmt.Sprintf("decode tenant access token response: %v", err),
		}
	}
	if parsed.Code != 0 {
		return "", &Error{
			Kind:       KindUpstreamAuth,
			HTTPStatus: http.StatusBadGateway,
			Message:    fmt.Sprintf("tenant access token error code=%d msg=%s", parsed.Code, parsed.Msg),
		}
	}
	if parsed.TenantAccessToken == "" {
		return "", &Error{
			Kind:       KindUpstreamAuth,
			HTTPStatus: http.StatusBadGateway,
			Message:    "tenant access token missing in response",
		}
	}

	ttl := time.Duration(parsed.Expire) * time.Second
	if ttl <= 0 {
		ttl = tokenExpiryFallback
	}
	ttl -= tokenSafetyMargin
	if ttl <= 0 {
		ttl = time.Second
	}

	c.tokenMu.Lock()
	c.tenantToken = parsed.TenantAccessToken
	c.tokenExpireAt = c.now().Add(ttl)
	c.tokenMu.Unlock()

	log.Debug().Msg("larkapi: cached tenant access token")
	return parsed.TenantAccessToken, nil
}

func (c *Client) requestTenantToken(ctx context.Context) ([]byte, error) {
	if c.requestTokenFunc != nil {
		return c.requestTokenFunc(ctx)
	}
	if c.larkClient == nil {
		return nil, errors.New("larkapi: sdk client is nil")
	}

	body := larkauth.NewInternalTenantAccessTokenReqBodyBuilder().
		AppId(c.appID).
		AppSecret(c.appSecret).
		Build()
	req := larkauth.NewInternalTenantAccessTokenReqBuilder().
		Body(body).
		Build()

	resp, err := c.larkClient.Auth.V3.TenantAccessToken.Internal(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.ApiResp == nil {
		return nil, errors.New("larkapi: empty response when fetching tenant access token")
	}
	return resp.ApiResp.RawBody, nil
}

// Invoke performs a generic token-authenticated call against the open-apis
// surface and returns the upstream body verbatim. Failures are normalized.
func (c *Client) Invoke(ctx context.Context, method, endpoint string, query url.Values, body any) (json.RawMessage, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ValidationError("endpoint is required")
	}
	path := "/open-apis/" + strings.TrimLeft(endpoint, "/")
	raw, err := c.doJSON(ctx, method, path, query, body)
	if err != nil {
		return nil, Normalize(err)
	}
	return json.RawMessage(raw), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if c.doJSONRequestFunc != nil {
		return c.doJSONRequestFunc(ctx, method, path, query, payload)
	}
	return c.doJSONRequestInternal(ctx, method, path, query, payload)
}

func (c *Client) doJSONRequestInternal(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	token, err := c.TenantAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := c.apiBase() + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("larkapi: marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("larkapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	for _, fn := range c.onRequest {
		fn(method, fullURL)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		for _, fn := range c.onResponse {
			fn(method, fullURL, 0, elapsed, err)
		}
		return nil, fmt.Errorf("larkapi: execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		for _, fn := range c.onResponse {
			fn(method, fullURL, resp.StatusCode, elapsed, err)
		}
		return nil, fmt.Errorf("larkapi: read response: %w", err)
	}

	for _, fn := range c.onResponse {
		fn(method, fullURL, resp.StatusCode, elapsed, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstreamStatusError{status: resp.StatusCode, body: rawBody}
	}
	return rawBody, nil
}

// LoggingObservers returns the default zerolog request/response hooks wired by
// the operator entry points.
func LoggingObservers() (RequestObserver, ResponseObserver) {
	onRequest := func(method, url string) {
		log.Debug().Str("method", method).Str("url", url).Msg("larkapi: forwarding request")
	}
	onResponse := func(method, url string, status int, elapsed time.Duration, err error) {
		if err != nil {
			log.Error().Err(err).Str("method", method).Str("url", url).Dur("elapsed", elapsed).
				Msg("larkapi: request failed")
			return
		}
		log.Debug().Str("method", method).Str("url", url).Int("status", status).Dur("elapsed", elapsed).
			Msg("larkapi: response received")
	}
	return onRequest, onResponse
}
