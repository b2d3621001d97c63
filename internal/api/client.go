// Package api provides a client for the remote home budget HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/theirongolddev/hbudget/internal/model"
)

const (
	// DefaultBaseURL is the hosted home-budget API.
	DefaultBaseURL = "https://homebudgetapp-1.onrender.com"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "github.com/theirongolddev/hbudget/1.0"
)

var (
	// ErrUnauthorized indicates the bearer token is missing, expired or revoked.
	ErrUnauthorized = errors.New("api: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("api: rate limited")
	// ErrMalformedResponse indicates a body that does not decode as expected.
	ErrMalformedResponse = errors.New("api: malformed response")
	// ErrResponseTooLarge indicates a success body over the size cap.
	ErrResponseTooLarge = errors.New("api: response too large")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code    int
	Message string // server-reported message, may be empty
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Code)
}

// ServerMessage returns the message the server attached to a failed
// response, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// Client talks to the budget API.
type Client struct {
	baseURL    string
	http       *http.Client
	timeout    time.Duration
	legacyPath bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero disables the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLegacyUpdatePath builds update URLs without the separator before
// "budgets", the way the hosted web client does.
func WithLegacyUpdatePath(on bool) Option {
	return func(c *Client) { c.legacyPath = on }
}

// NewClient creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListBudgets returns every budget visible to token.
func (c *Client) ListBudgets(ctx context.Context, token string) ([]model.Budget, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/budgets", token, nil, "")
	if err != nil {
		return nil, err
	}

	var budgets []model.Budget
	if err := json.Unmarshal(body, &budgets); err != nil {
		return nil, fmt.Errorf("%w: parsing budgets: %v", ErrMalformedResponse, err)
	}
	return budgets, nil
}

// GetBudget fetches one budget. The endpoint is public, so no token is sent.
func (c *Client) GetBudget(ctx context.Context, id string) (*model.Budget, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/budget/"+url.PathEscape(id), "", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeBudget(body)
}

// CreateBudget creates a budget and returns it with its assigned id.
func (c *Client) CreateBudget(ctx context.Context, token string, fields model.Fields) (*model.Budget, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("api: encoding budget: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/budgets", token, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeBudget(body)
}

// UpdateBudget applies fields to budget id and returns the stored record.
func (c *Client) UpdateBudget(ctx context.Context, token, id string, fields model.Fields) (*model.Budget, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("api: encoding budget: %w", err)
	}
	body, err := c.do(ctx, http.MethodPut, c.updateURL(id), token, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeBudget(body)
}

// DeleteBudget deletes budget id.
func (c *Client) DeleteBudget(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.baseURL+"/budgets/"+url.PathEscape(id), token, nil, "")
	return err
}

// UploadResult is the upload endpoint's success body.
type UploadResult struct {
	ImageURL string `json:"image_url"`
}

// UploadImage sends r as the multipart field "image" and returns the stored
// image reference.
func (c *Client) UploadImage(ctx context.Context, token, filename string, r io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("image", path.Base(filename))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/budgets/upload", token, pr, mw.FormDataContentType())
	// Unblock the writer goroutine if the request ended before consuming the body.
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	var res UploadResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: parsing upload result: %v", ErrMalformedResponse, err)
	}
	return &res, nil
}

func (c *Client) updateURL(id string) string {
	if c.legacyPath {
		return c.baseURL + "budgets/" + url.PathEscape(id)
	}
	return c.baseURL + "/budgets/" + url.PathEscape(id)
}

// do performs a request and returns the response body. A token is attached
// as a bearer credential only when non-empty.
func (c *Client) do(ctx context.Context, method, rawURL, token string, body io.Reader, contentType string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("api: reading response: %w", err)
	}
	tooLarge := len(data) > maxBodySize
	if tooLarge {
		data = data[:maxBodySize]
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)})
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	if tooLarge {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBodySize)
	}
	return data, nil
}

func decodeBudget(body []byte) (*model.Budget, error) {
	var b model.Budget
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("%w: parsing budget: %v", ErrMalformedResponse, err)
	}
	return &b, nil
}

// errorMessage extracts the human-readable message from an error body.
// Flask views answer {"error": ...}; flask-jwt-extended answers {"msg": ...}.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	switch {
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	}
	return e.Msg
}
