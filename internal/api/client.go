package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthError indicates that the bearer credential was rejected. The app
// reacts by clearing the session and returning to the login view.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FormFile is one file part of a multipart request.
type FormFile struct {
	// Field is the multipart field name (e.g. "image", "photos").
	Field string

	// Name is the filename sent to the backend.
	Name string

	// Content is the file data.
	Content io.Reader
}

// Client is the HTTP client for the CommuniSafe backend. It attaches the
// bearer credential to every request, retries with exponential backoff on
// HTTP 429, maps 401 to AuthError, and tags mutating requests with an
// X-Request-ID so the backend can deduplicate retried submissions.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client, used by tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a backend client. The token may be empty before login;
// set it with SetToken once a session exists.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer credential after login or logout.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return unmarshalResult(body, result)
}

// Post performs an HTTP POST with a JSON body and unmarshals the response.
func (c *Client) Post(
	ctx context.Context,
	path string,
	payload interface{},
	result interface{},
) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, result)
}

// Put performs an HTTP PUT with a JSON body and unmarshals the response.
func (c *Client) Put(
	ctx context.Context,
	path string,
	payload interface{},
	result interface{},
) error {
	return c.sendJSON(ctx, http.MethodPut, path, payload, result)
}

// Delete performs an HTTP DELETE request; the response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, "", nil)
	return err
}

// GetRaw performs a GET and returns the raw response body, for endpoints
// whose envelope shape varies.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// PostForm performs a multipart POST with text fields and optional files,
// returning the raw response body.
func (c *Client) PostForm(
	ctx context.Context,
	path string,
	fields map[string]string,
	files []FormFile,
) ([]byte, error) {
	return c.sendForm(ctx, http.MethodPost, path, fields, files)
}

// PutForm performs a multipart PUT with text fields and optional files,
// returning the raw response body.
func (c *Client) PutForm(
	ctx context.Context,
	path string,
	fields map[string]string,
	files []FormFile,
) ([]byte, error) {
	return c.sendForm(ctx, http.MethodPut, path, fields, files)
}

// sendJSON marshals payload, performs the request, and unmarshals the
// response into result when non-nil.
func (c *Client) sendJSON(
	ctx context.Context,
	method string,
	path string,
	payload interface{},
	result interface{},
) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = data
	}

	respBody, err := c.do(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}
	return unmarshalResult(respBody, result)
}

// sendForm builds the multipart body and performs the request.
func (c *Client) sendForm(
	ctx context.Context,
	method string,
	path string,
	fields map[string]string,
	files []FormFile,
) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("writing form field %q: %w", field, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("creating form file %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copying form file %q: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	return c.do(ctx, method, path, w.FormDataContentType(), buf.Bytes())
}

// do is the core HTTP method: builds the request, attaches auth, retries
// on 429 honoring Retry-After, and maps error statuses.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	contentType string,
	body []byte,
) ([]byte, error) {
	url := c.baseURL + path
	requestID := ""
	if method != http.MethodGet {
		requestID = uuid.NewString()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			c.log.Warn("rate limited, backing off",
				"method", method, "path", path, "wait", waitDuration)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{
				Status:  resp.StatusCode,
				Message: serverMessage(respBody),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if msg := serverMessage(respBody); msg != "" {
				return nil, fmt.Errorf(
					"backend error (%d) on %s %s: %s",
					resp.StatusCode, method, path, msg,
				)
			}
			return nil, fmt.Errorf(
				"unexpected status %d on %s %s",
				resp.StatusCode, method, path,
			)
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// unmarshalResult decodes body into result unless result is nil or the
// body is empty (e.g. 204 responses).
func unmarshalResult(body []byte, result interface{}) error {
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}

// serverMessage extracts the backend's {"message": ...} error text.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
