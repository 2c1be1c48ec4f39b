package odin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dose-tracker/internal/platform/httpclient"
)

var (
	ErrOdinNotConfigured = errors.New("odin client not configured")
	ErrOdinUnauthorized  = errors.New("odin unauthorized")
	ErrOdinUpstream      = errors.New("odin upstream error")
)

const verifyPath = "/v1/tokens/verify"

// Config del cliente Odin. BaseURL y APIKey vienen de config (ODIN_BASE_URL, ODIN_API_KEY).
type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key; vacío = "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http       *httpclient.Client
	configured bool
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	key := strings.TrimSpace(cfg.APIKey)
	if base == "" || key == "" {
		return &Client{}, nil
	}

	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Timeout:   timeout,
		UserAgent: "dose-tracker",
		Headers:   map[string]string{h: key},
	})
	if err != nil {
		return nil, fmt.Errorf("odin: %w", err)
	}
	return &Client{http: hc, configured: true}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.configured
}

// Identity es la respuesta de Odin para un token válido.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// VerifyToken pide a Odin los claims del token.
func (c *Client) VerifyToken(ctx context.Context, token string) (Identity, error) {
	if !c.IsConfigured() {
		return Identity{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrOdinUnauthorized
	}

	var out Identity
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath,
		map[string]string{"Authorization": "Bearer " + token},
		map[string]string{"token": token}, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Identity{}, ErrOdinUnauthorized
		default:
			return Identity{}, fmt.Errorf("%w: %v", ErrOdinUpstream, err)
		}
	}
	return out, nil
}
