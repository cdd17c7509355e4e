// Package restapi talks to the quiz backend's REST API (Django style: trailing
// slashes, session cookie, CSRF token echoed from the csrftoken cookie).
package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"quizwizz-play/internal/domain"
)

const csrfCookie = "csrftoken"

// Client is a backend client bound to one base URL and one cookie session.
type Client struct {
	http *req.Client
	jar  http.CookieJar
	base *url.URL
}

// New builds a client for baseURL (for example http://localhost:8000/api).
func New(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{jar: jar, base: base}
	c.http = req.C().
		SetBaseURL(base.String()).
		SetCookieJar(jar).
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
			if token := c.csrfToken(); token != "" {
				r.SetHeader("X-CSRFToken", token)
			}
			return nil
		})
	return c, nil
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.jar.Cookies(c.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps auth failures to domain.ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return domain.ErrUnauthorized
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	r := c.http.R().SetContext(ctx)
	if body != nil {
		r.SetBody(body)
	}
	resp, err := r.Send(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccessState() {
		raw, _ := resp.ToBytes()
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := resp.Into(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// newAPIError turns a backend error body into a message. A {"detail": ...} body gives
// its detail; field errors become "field: msg1, msg2" lines in key order.
func newAPIError(status int, raw []byte) *APIError {
	fallback := fmt.Sprintf("request failed (%d)", status)
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{Status: status, Message: fallback}
	}
	obj, ok := body.(map[string]any)
	if !ok {
		if msg := formatErrorValue(body); msg != "" {
			return &APIError{Status: status, Message: msg}
		}
		return &APIError{Status: status, Message: fallback}
	}
	if detail, ok := obj["detail"].(string); ok && len(obj) == 1 {
		return &APIError{Status: status, Message: detail}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+formatErrorValue(obj[k]))
	}
	if len(lines) == 0 {
		return &APIError{Status: status, Message: fallback}
	}
	return &APIError{Status: status, Message: strings.Join(lines, "\n")}
}

func formatErrorValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatErrorValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+formatErrorValue(val[k]))
		}
		return strings.Join(parts, "; ")
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func quizPath(quizID string, rest ...string) string {
	parts := append([]string{"/quizzes", url.PathEscape(quizID)}, rest...)
	return strings.Join(parts, "/") + "/"
}
