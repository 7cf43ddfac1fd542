package controller

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/switchyard/pkg/buildinfo"
	"github.com/matzehuels/switchyard/pkg/cache"
	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/httputil"
	"github.com/matzehuels/switchyard/pkg/observability"
)

// DefaultBaseURL is the controller API served on the local host.
const DefaultBaseURL = "http://localhost:8080/api"

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
	maxErrorBody    = 4 << 10
)

// Options configures a Client. The zero value is usable.
type Options struct {
	Timeout    time.Duration   // per request; default 10s
	HTTPClient *http.Client    // overrides Timeout when set
	Cache      cache.Cache     // catalog cache; default none
	Keyer      cache.Keyer     // default cache.DefaultKeyer
	CacheTTL   time.Duration   // default 24h
	Refresh    bool            // skip cache reads, still write
	Retry      httputil.Policy // read policy; default httputil.DefaultPolicy
	Logger     *log.Logger
}

// Client talks to one remote controller. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	retry   httputil.Policy
	logger  *log.Logger
	headers map[string]string
}

// New creates a client for the controller API at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse controller URL")
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = httputil.DefaultPolicy
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return &Client{
		base:    u,
		http:    hc,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.CacheTTL,
		refresh: opts.Refresh,
		retry:   opts.Retry,
		logger:  opts.Logger,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "switchyard/" + buildinfo.Version,
		},
	}, nil
}

// BaseURL returns the controller API root without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

func (c *Client) endpoint(elem ...string) *url.URL {
	return c.base.JoinPath(elem...)
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, u *url.URL, body any) ([]byte, error) {
	code, data, err := c.send(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	return data, checkStatus(code, data, u.Path)
}

// send performs one request and returns the status and body whatever the
// status. A body that fails to read after a 2xx status is an error.
func (c *Client) send(ctx context.Context, method string, u *url.URL, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		c.logger.Debug("request failed", "method", method, "path", u.Path, "request_id", reqID, "err", err)
		return 0, nil, transportError(ctx, err, method, u.Path)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, elapsed)
	c.logger.Debug("request", "method", method, "path", u.Path, "status", resp.StatusCode, "duration", elapsed, "request_id", reqID)

	if readErr != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return 0, nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, readErr, "read %s", u.Path))
	}
	return resp.StatusCode, data, nil
}

func transportError(ctx context.Context, err error, method, path string) error {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s %s", method, path)
	}
	var ue *url.Error
	if stderrors.As(err, &ue) && ue.Timeout() {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeTimeout, err, "%s %s", method, path))
	}
	return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path))
}

func checkStatus(code int, body []byte, path string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: not found", path)
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d: %s", path, code, remoteMessage(code, body)))
	default:
		return errors.Verbatim(errors.ErrCodeRemote, remoteMessage(code, body))
	}
}

// bodyMessage extracts {"message"} or {"error"} from an error body.
func bodyMessage(body []byte) (string, bool) {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return "", false
	}
	if payload.Message != "" {
		return payload.Message, true
	}
	return payload.Error, payload.Error != ""
}

// remoteMessage is bodyMessage falling back to the raw text and then the
// status text.
func remoteMessage(code int, body []byte) string {
	if msg, ok := bodyMessage(body); ok {
		return msg
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "{") {
		return s
	}
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

// getJSON performs a retried GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, v any, elem ...string) error {
	raw, err := c.getRaw(ctx, elem...)
	if err != nil {
		return err
	}
	return decode(raw, v, strings.Join(elem, "/"))
}

func (c *Client) getRaw(ctx context.Context, elem ...string) ([]byte, error) {
	u := c.endpoint(elem...)
	var raw []byte
	err := c.retry.Do(ctx, func() error {
		var err error
		raw, err = c.do(ctx, http.MethodGet, u, nil)
		return err
	})
	return raw, err
}

// cached serves endpoint from the cache or fetches and stores it.
func (c *Client) cached(ctx context.Context, endpoint string, v any) error {
	key := c.keyer.CatalogKey(c.BaseURL(), endpoint)
	hooks := observability.Cache()

	if !c.refresh {
		data, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("cache read failed", "endpoint", endpoint, "err", err)
		}
		if ok && decode(data, v, endpoint) == nil {
			hooks.OnCacheHit(ctx, endpoint)
			return nil
		}
		hooks.OnCacheMiss(ctx, endpoint)
	}

	raw, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := decode(raw, v, endpoint); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "endpoint", endpoint, "err", err)
	} else {
		hooks.OnCacheSet(ctx, endpoint, len(raw))
	}
	return nil
}

func decode(raw []byte, v any, what string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", what)
	}
	return nil
}
