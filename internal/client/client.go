// Package client is a typed HTTP client for the classifieds API plus the
// client-side listing store the web UI keeps in memory.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"studykwork/internal/model"
)

type (
	User         = model.UserResponse
	Listing      = model.ListingResponse
	AuthResponse = model.AuthResponse
)

// APIError is a non-2xx reply decoded from the {error, code} body.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Logout only drops the token; the server keeps no session.
func (c *Client) Logout() {
	c.SetToken("")
}

func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, "", &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, "", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListQuery mirrors the server feed filters. Nil bounds are omitted.
type ListQuery struct {
	Search   string
	Category string
	MinPrice *int
	MaxPrice *int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	return v
}

func (c *Client) ListListings(ctx context.Context, q ListQuery) ([]Listing, error) {
	path := "/api/ads"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out []Listing
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetListing(ctx context.Context, id uint) (*Listing, error) {
	var out Listing
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/ads/%d", id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Image struct {
	Filename string
	Content  io.Reader
}

type NewListing struct {
	Title       string
	Category    string
	Price       int
	Description string
	Phone       string
	WhatsApp    string
	Telegram    string
	Images      []Image
}

func (c *Client) CreateListing(ctx context.Context, in NewListing) (*Listing, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", in.Title},
		{"category", in.Category},
		{"price", strconv.Itoa(in.Price)},
		{"description", in.Description},
		{"phone", in.Phone},
		{"whatsapp", in.WhatsApp},
		{"telegram", in.Telegram},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write form field failed: %w", err)
		}
	}
	for _, img := range in.Images {
		part, err := w.CreateFormFile("images", img.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file failed: %w", err)
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, fmt.Errorf("copy image failed: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer failed: %w", err)
	}

	var out Listing
	if err := c.do(ctx, http.MethodPost, "/api/ads", &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyListings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	if err := c.do(ctx, http.MethodGet, "/api/my/ads", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteListing(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/ads/%d", id), nil, "", nil)
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal auth payload failed: %w", err)
	}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
			Code  int    `json:"code"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			apiErr.Code = body.Code
			apiErr.Message = body.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
