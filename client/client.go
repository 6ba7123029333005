package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"product-console/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Endpoints consumed by the client
const (
	productsPath     = "/api/product/"
	featuredPath     = "/api/product/featured"
	pricePathPrefix  = "/api/product/price/"
	ratingPathPrefix = "/api/product/rating/"
	addProductPath   = "/api/product/add"
	loginPath        = "/api/user/login"
	signupPath       = "/api/user/signup"
)

// DefaultTimeout bounds each request unless overridden
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for each request; "" means logged out.
// *session.Provider implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the product backend
type Client struct {
	mu      sync.RWMutex
	baseURL string

	tokens TokenSource
	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: base,
		tokens:  tokens,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBaseURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q must be http or https", baseURL)
	}
	return strings.TrimRight(baseURL, "/"), nil
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points later requests at another backend
func (c *Client) SetBaseURL(baseURL string) error {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.baseURL = base
	c.mu.Unlock()
	c.logger.Info("Backend address changed", zap.String("base_url", base))
	return nil
}

// Query selects a server-side listing. Only one constraint is sent, chosen in
// the order featured, price, rating; an empty query lists everything.
type Query struct {
	Featured  bool
	MaxPrice  *float64
	MinRating int
}

// List fetches products using the endpoint selected by q
func (c *Client) List(ctx context.Context, q Query) ([]models.Product, error) {
	switch {
	case q.Featured:
		return c.ListFeatured(ctx)
	case q.MaxPrice != nil:
		return c.ListBelowPrice(ctx, *q.MaxPrice)
	case q.MinRating > 0:
		return c.ListMinRating(ctx, q.MinRating)
	default:
		return c.ListAll(ctx)
	}
}

// ListAll handles GET /api/product/
func (c *Client) ListAll(ctx context.Context) ([]models.Product, error) {
	return c.list(ctx, productsPath)
}

// ListFeatured handles GET /api/product/featured
func (c *Client) ListFeatured(ctx context.Context) ([]models.Product, error) {
	return c.list(ctx, featuredPath)
}

// ListBelowPrice handles GET /api/product/price/{max}
func (c *Client) ListBelowPrice(ctx context.Context, max float64) ([]models.Product, error) {
	return c.list(ctx, pricePathPrefix+strconv.FormatFloat(max, 'f', -1, 64))
}

// ListMinRating handles GET /api/product/rating/{min}
func (c *Client) ListMinRating(ctx context.Context, min int) ([]models.Product, error) {
	return c.list(ctx, ratingPathPrefix+strconv.Itoa(min))
}

func (c *Client) list(ctx context.Context, path string) ([]models.Product, error) {
	var raw []*models.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	// null entries in the response are dropped
	products := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		if p != nil {
			products = append(products, *p)
		}
	}
	return products, nil
}

// Create handles POST /api/product/add and returns the product with its server-assigned id
func (c *Client) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	var created models.Product
	if err := c.do(ctx, http.MethodPost, addProductPath, in, &created); err != nil {
		return models.Product{}, err
	}
	return created, nil
}

// Update handles PUT /api/product/{id}
func (c *Client) Update(ctx context.Context, id string, update models.ProductUpdate) (models.Product, error) {
	if id == "" {
		return models.Product{}, errors.New("product id is required")
	}
	var updated models.Product
	if err := c.do(ctx, http.MethodPut, productsPath+url.PathEscape(id), update, &updated); err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

// Delete handles DELETE /api/product/{id}
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("product id is required")
	}
	return c.do(ctx, http.MethodDelete, productsPath+url.PathEscape(id), nil, nil)
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, loginPath, req, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	if resp.Token == "" {
		return models.AuthResponse{}, errors.New("login response did not include a token")
	}
	return resp, nil
}

// Signup registers a user and returns its token
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, signupPath, req, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	if resp.Token == "" {
		return models.AuthResponse{}, errors.New("signup response did not include a token")
	}
	return resp, nil
}

// do sends one request and decodes a JSON response into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	requestID := uuid.New().String()
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("Sending request", fields...)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Request failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	fields = append(fields, zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read response", append(fields, zap.Error(err))...)
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
			RequestID:  requestID,
		}
		c.logger.Error("Request rejected", append(fields, zap.String("message", apiErr.Message))...)
		return apiErr
	}

	c.logger.Debug("Request completed", fields...)

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}
	return nil
}
