// Package gateway wraps outbound API calls with bearer credentials read from
// the session store at send time, and transparently recovers from a single 401
// per call by refreshing the session and resubmitting the original request.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/session"
)

const (
	defaultTimeout = 30 * time.Second
	refreshPath    = "/auth/refresh"
)

// Client is an HTTP client bound to an API base URL and a session store
type Client struct {
	base             string
	hc               *http.Client
	session          *session.Store
	onSessionExpired func()
	logger           *log.Logger
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the request timeout on the underlying HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}

// WithSessionExpiredHandler sets the hook invoked after a failed refresh has
// forced a logout. The CLI uses it to steer the user back to login.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given API base URL
func New(base string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
		session: store,
		logger:  log.G,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RequestOption holds options for individual requests
type RequestOption struct {
	ctx      context.Context
	header   map[string]string
	query    url.Values
	response any
	retried  bool
}

// WithContext sets a custom context for the request
func WithContext(ctx context.Context) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.ctx = ctx
	}
}

// WithHeader sets additional headers for the request
func WithHeader(header map[string]string) func(*RequestOption) {
	return func(opt *RequestOption) {
		for k, v := range header {
			opt.header[k] = v
		}
	}
}

// WithQuery adds a query parameter to the request URL
func WithQuery(key, value string) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.query.Add(key, value)
	}
}

// WithResponse sets the destination the response body is unmarshalled into
func WithResponse(response any) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.response = response
	}
}

// FileForm describes a multipart file upload body
type FileForm struct {
	Field    string
	FileName string
	Reader   io.Reader
}

// Request sends a request to base+path. The body may be nil, an io.Reader, a
// *FileForm for multipart uploads, or any JSON-marshalable value.
func (c *Client) Request(method, path string, body any, opts ...func(*RequestOption)) error {
	opt := &RequestOption{
		header: make(map[string]string, 4),
		query:  make(url.Values),
	}
	for _, o := range opts {
		o(opt)
	}
	if opt.ctx == nil {
		opt.ctx = context.Background()
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return err
	}
	if contentType != "" {
		opt.header["Content-Type"] = contentType
	}

	return c.send(method, c.buildURL(path, opt.query), payload, opt)
}

// send performs the request, recovering once from a 401 by refreshing the
// session and resubmitting. The retried marker on the request options bounds
// the recovery to exactly one cycle per original call.
func (c *Client) send(method, fullURL string, payload []byte, opt *RequestOption) error {
	resp, err := c.do(method, fullURL, payload, opt)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return errors.Wrap(err, 503, "request failed")
	}

	// A 401 without a refresh token on hand skips recovery entirely and the
	// original failure propagates below.
	if resp.StatusCode == http.StatusUnauthorized && !opt.retried && c.session.RefreshToken() != "" {
		opt.retried = true
		drain(resp)

		if err := c.refresh(opt.ctx, c.session.RefreshToken()); err != nil {
			c.logger.Warn().Err(err).Msg("token refresh failed, forcing logout")
			c.session.Logout()
			if c.onSessionExpired != nil {
				c.onSessionExpired()
			}
			return errors.Wrap(err, 401, "session expired")
		}

		// Resubmit the original request exactly once with the new token.
		resp, err = c.do(method, fullURL, payload, opt)
		if err != nil {
			requestsTotal.WithLabelValues(method, "error").Inc()
			return errors.Wrap(err, 503, "request failed")
		}
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	return decodeResponse(resp, opt.response)
}

// do builds and executes a single HTTP request. The bearer token is read from
// the session store here, at send time, never earlier.
func (c *Client) do(method, fullURL string, payload []byte, opt *RequestOption) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(opt.ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}

	for k, v := range opt.header {
		req.Header.Set(k, v)
	}

	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.hc.Do(req)
}

// refresh exchanges the refresh token for a new access token and stores it.
// It uses a plain request on purpose so a rejected refresh cannot recurse into
// another refresh cycle.
func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", ContentTypeJSON)

	resp, err := c.hc.Do(req)
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		refreshTotal.WithLabelValues("rejected").Inc()
		return errors.Unauthorized("refresh rejected with status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return err
	}

	c.session.SetToken(out.AccessToken)
	if !c.session.Authenticated() {
		refreshTotal.WithLabelValues("rejected").Inc()
		return errors.Unauthorized("refresh returned an unusable token")
	}

	refreshTotal.WithLabelValues("ok").Inc()
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	fullURL := c.base
	if !strings.HasPrefix(path, "/") {
		fullURL += "/"
	}
	fullURL += path

	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL
}

// encodeBody turns the request body into a replayable byte slice. The bytes
// are kept so the 401 recovery can resubmit the identical request.
func encodeBody(body any) (payload []byte, contentType string, err error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		data, err := io.ReadAll(v)
		return data, "", err
	case *FileForm:
		return encodeFileForm(v)
	default:
		data, err := json.Marshal(v)
		return data, ContentTypeJSON, err
	}
}

func encodeFileForm(form *FileForm) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(form.Field, form.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, form.Reader); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func decodeResponse(resp *http.Response, dest any) error {
	defer resp.Body.Close()

	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, 500, "decode response")
	}

	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Convenience methods for common HTTP operations

// Get performs a GET request
func (c *Client) Get(path string, opts ...func(*RequestOption)) error {
	return c.Request(http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with JSON body
func (c *Client) Post(path string, body any, opts ...func(*RequestOption)) error {
	return c.Request(http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with JSON body
func (c *Client) Put(path string, body any, opts ...func(*RequestOption)) error {
	return c.Request(http.MethodPut, path, body, opts...)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string, opts ...func(*RequestOption)) error {
	return c.Request(http.MethodDelete, path, nil, opts...)
}
