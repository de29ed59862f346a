package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"github.com/kochabx/phoneshop/core/metrics"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/log"
)

const (
	defaultBufferSize = 4096
	maxBufferSize     = 1024 * 1024

	// DefaultRefreshPath is the backend endpoint that rotates the auth cookies.
	DefaultRefreshPath = "/auth/refresh-token"

	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 15 * time.Second
	defaultRetryTTL       = 2 * time.Minute
	refreshKey            = "refresh"
)

// Client is an API client that carries credentials in a cookie jar and
// transparently recovers from access-token expiry.
//
// A 401 on any request other than the refresh call triggers at most one
// refresh per logical request. Concurrent 401s share a single in-flight
// refresh call and all observe its outcome.
type Client struct {
	client         *http.Client
	baseURL        *url.URL
	header         map[string]string
	requestOptPool sync.Pool
	bufferPool     sync.Pool

	refreshPath    string
	refreshTimeout time.Duration
	refresher      Refresher
	group          singleflight.Group
	generation     atomic.Uint64
	tracker        *retryTracker
	listeners      []func(error)

	metrics *metrics.Client
	logger  *log.Logger
}

// Option configures the client.
type Option func(*Client)

// WithClient sets the underlying http.Client. Its Jar is replaced with a
// cookie jar when nil.
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBaseURL sets the URL relative request paths are resolved against.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/")); err == nil {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.header["User-Agent"] = ua
		}
	}
}

// WithRefreshPath changes the refresh endpoint. Requests to it are never intercepted.
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

// WithRefresher replaces the default POST to the refresh path.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithRefreshListener registers fn to run after every refresh call settles.
func WithRefreshListener(fn func(err error)) Option {
	return func(c *Client) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client. A public-suffix aware cookie jar is installed unless
// the supplied http.Client already has one.
func New(opts ...Option) *Client {
	c := &Client{
		client:         &http.Client{Timeout: defaultTimeout},
		header:         make(map[string]string, 2),
		refreshPath:    DefaultRefreshPath,
		refreshTimeout: defaultRefreshTimeout,
		tracker:        newRetryTracker(defaultRetryTTL),
		requestOptPool: sync.Pool{
			New: func() any {
				return &RequestOption{header: make(map[string]string, 8)}
			},
		},
		bufferPool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client.Jar == nil {
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		c.client.Jar = jar
	}
	if c.logger == nil {
		c.logger = log.G
	}
	if c.refresher == nil {
		c.refresher = c.postRefresh
	}

	return c
}

// RequestOption holds options for a single request.
type RequestOption struct {
	ctx         context.Context
	header      map[string]string
	query       url.Values
	response    any
	contentType string
}

// WithContext sets the request context.
func WithContext(ctx context.Context) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.ctx = ctx
	}
}

// WithHeader merges headers into the request.
func WithHeader(header map[string]string) func(*RequestOption) {
	return func(opt *RequestOption) {
		maps.Copy(opt.header, header)
	}
}

// WithQuery sets query parameters. Empty values are dropped.
func WithQuery(q url.Values) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.query = q
	}
}

// WithResponse sets the decode target. *[]byte and *string receive the raw
// body; anything else is decoded as JSON.
func WithResponse(response any) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.response = response
	}
}

// WithContentType overrides the body content type, e.g. ContentTypeText.
func WithContentType(ct string) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.contentType = ct
	}
}

func (opt *RequestOption) reset() {
	opt.ctx = nil
	clear(opt.header)
	opt.query = nil
	opt.response = nil
	opt.contentType = ""
}

// Request sends method to rawURL, which may be absolute or relative to the
// base URL. A non-2xx response is returned as an *errors.Error built from the
// backend's {message} body; network failures are KindTransport errors.
func (cli *Client) Request(method, rawURL string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	opt := cli.getRequestOption()
	defer cli.putRequestOption(opt)

	for _, o := range opts {
		o(opt)
	}

	ctx := opt.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := cli.resolve(rawURL, opt.query)
	if err != nil {
		return nil, errors.Validation("invalid request url %q: %v", rawURL, err)
	}

	payload, contentType, err := cli.encodeBody(body, opt.contentType)
	if err != nil {
		return nil, errors.Validation("encode request body: %v", err)
	}

	id, owned := RequestIDFromContext(ctx)
	if !owned {
		id = NewRequestID()
		defer cli.tracker.forget(id)
	}

	gen := cli.generation.Load()
	resp, err := cli.send(ctx, id, method, target, payload, contentType, opt.header)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !cli.isRefreshCall(target) {
		resp, err = cli.recoverUnauthorized(ctx, id, gen, resp, func() (*http.Response, error) {
			return cli.send(ctx, id, method, target, payload, contentType, opt.header)
		})
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.FromResponse(resp)
	}

	return cli.processResponse(resp, opt.response)
}

// recoverUnauthorized handles a 401. The first 401 of a logical request marks it retried,
// joins or starts the shared refresh and reissues the request once. A second
// 401 for the same id is returned to the caller unchanged.
func (cli *Client) recoverUnauthorized(ctx context.Context, id string, gen uint64, resp *http.Response, reissue func() (*http.Response, error)) (*http.Response, error) {
	if !cli.tracker.mark(id) {
		cli.logger.Debug().Str("request_id", id).Msg("request already retried, not refreshing again")
		return resp, nil
	}
	drain(resp)

	if err := cli.refreshFrom(ctx, gen); err != nil {
		return nil, err
	}

	cli.metrics.ObserveRetry()
	return reissue()
}

// Refresh runs the refresh call, sharing a single in-flight call among all
// concurrent callers. Cancelling ctx abandons the wait but not the shared call.
func (cli *Client) Refresh(ctx context.Context) error {
	return cli.refreshFrom(ctx, cli.generation.Load())
}

// refreshFrom refreshes unless a refresh already succeeded after generation
// gen was observed; such a refresh already covers the caller.
func (cli *Client) refreshFrom(ctx context.Context, gen uint64) error {
	ch := cli.group.DoChan(refreshKey, func() (any, error) {
		if cli.generation.Load() != gen {
			return nil, nil
		}

		rctx, cancel := context.WithTimeout(context.Background(), cli.refreshTimeout)
		defer cancel()

		err := cli.refresher(rctx)
		if err == nil {
			cli.generation.Add(1)
		}
		cli.metrics.ObserveRefresh(err)
		for _, fn := range cli.listeners {
			fn(err)
		}
		return nil, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			cli.logger.Warn().Err(res.Err).Bool("shared", res.Shared).Msg("token refresh failed")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// postRefresh is the default Refresher: POST to the refresh path, relying on
// the refresh cookie in the jar.
func (cli *Client) postRefresh(ctx context.Context) error {
	target, err := cli.resolve(cli.refreshPath, nil)
	if err != nil {
		return err
	}

	resp, err := cli.send(ctx, NewRequestID(), MethodPost, target, nil, "", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.FromResponse(resp).WithKind(errors.KindSession)
	}
	drain(resp)
	return nil
}

func (cli *Client) send(ctx context.Context, id, method string, target *url.URL, payload []byte, contentType string, header map[string]string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errors.Validation("build request: %v", err)
	}

	for k, v := range cli.header {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", ContentTypeJSON)
	req.Header.Set(HeaderRequestID, id)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := cli.client.Do(req)
	if err != nil {
		cli.metrics.ObserveRequest(method, 0, time.Since(start))
		return nil, errors.Transport(err, "%s %s failed", method, target.Path)
	}
	cli.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))

	cli.logger.Debug().
		Str("method", method).
		Str("path", target.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	return resp, nil
}

// BaseURL returns the configured base URL, or "" when none is set.
func (cli *Client) BaseURL() string {
	if cli.baseURL == nil {
		return ""
	}
	return cli.baseURL.String()
}

func (cli *Client) isRefreshCall(target *url.URL) bool {
	return strings.HasSuffix(strings.TrimRight(target.Path, "/"), strings.TrimRight(cli.refreshPath, "/"))
}

func (cli *Client) resolve(rawURL string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	if !u.IsAbs() && cli.baseURL != nil {
		joined := *cli.baseURL
		joined.Path = strings.TrimRight(cli.baseURL.Path, "/") + "/" + strings.TrimLeft(u.Path, "/")
		joined.RawQuery = u.RawQuery
		u = &joined
	}

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				if v != "" {
					q.Add(k, v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// encodeBody turns body into bytes so the request can be replayed after a refresh.
func (cli *Client) encodeBody(body any, contentType string) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, contentType, nil
	case []byte:
		return v, orDefault(contentType, ContentTypeText), nil
	case string:
		return []byte(v), orDefault(contentType, ContentTypeText), nil
	case io.Reader:
		b, err := io.ReadAll(v)
		return b, orDefault(contentType, ContentTypeJSON), err
	default:
		buf := cli.getBuffer()
		defer cli.putBuffer(buf)

		if err := json.NewEncoder(buf).Encode(v); err != nil {
			return nil, "", err
		}
		return bytes.Clone(buf.Bytes()), orDefault(contentType, ContentTypeJSON), nil
	}
}

func (cli *Client) getRequestOption() *RequestOption {
	opt := cli.requestOptPool.Get().(*RequestOption)
	opt.reset()
	return opt
}

func (cli *Client) putRequestOption(opt *RequestOption) {
	cli.requestOptPool.Put(opt)
}

func (cli *Client) getBuffer() *bytes.Buffer {
	buf := cli.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (cli *Client) putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxBufferSize {
		cli.bufferPool.Put(buf)
	}
}

// processResponse decodes into dest and always closes the body.
func (cli *Client) processResponse(resp *http.Response, dest any) (*http.Response, error) {
	defer resp.Body.Close()

	switch d := dest.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
	case *[]byte:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Transport(err, "read response body")
		}
		*d = b
	case *string:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Transport(err, "read response body")
		}
		*d = string(b)
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, errors.UnknownCode, "decode response")
		}
	}

	return resp, nil
}

// Get performs a GET request
func (cli *Client) Get(url string, opts ...func(*RequestOption)) (*http.Response, error) {
	return cli.Request(MethodGet, url, nil, opts...)
}

// Post performs a POST request with JSON body
func (cli *Client) Post(url string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return cli.Request(MethodPost, url, body, opts...)
}

// Put performs a PUT request with JSON body
func (cli *Client) Put(url string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return cli.Request(MethodPut, url, body, opts...)
}

// Delete performs a DELETE request
func (cli *Client) Delete(url string, opts ...func(*RequestOption)) (*http.Response, error) {
	return cli.Request(MethodDelete, url, nil, opts...)
}

// Patch performs a PATCH request with JSON body
func (cli *Client) Patch(url string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return cli.Request(MethodPatch, url, body, opts...)
}

// ReleaseRequestID drops the retry record of a caller-owned logical request.
func (cli *Client) ReleaseRequestID(id string) {
	cli.tracker.forget(id)
}

// Retried reports whether the logical request id already spent its retry.
func (cli *Client) Retried(id string) bool {
	return cli.tracker.retriedBefore(id)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBufferSize))
	resp.Body.Close()
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
