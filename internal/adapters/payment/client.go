package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gedenkseiten/internal/domain"
)

// Config holds the checkout provider endpoint and credentials.
type Config struct {
	BaseURL   string
	SecretKey string
}

type checkoutHTTPClient struct {
	client *http.Client
	cfg    Config
}

// NewHTTPClient returns a CheckoutProvider that talks to the hosted checkout
// API over HTTPS with bearer authentication.
func NewHTTPClient(client *http.Client, cfg Config) domain.CheckoutProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &checkoutHTTPClient{client: client, cfg: cfg}
}

type sessionPayload struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	SuccessURL  string `json:"success_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

func (c *checkoutHTTPClient) CreateSession(ctx context.Context, req domain.CreateCheckoutRequest) (*domain.CheckoutSession, error) {
	body, err := json.Marshal(sessionPayload{
		Reference:   req.Reference,
		Description: req.Description,
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

func (c *checkoutHTTPClient) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.cfg.BaseURL, sessionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	return c.do(httpReq)
}

func (c *checkoutHTTPClient) do(req *http.Request) (*domain.CheckoutSession, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout provider returned status: %d", resp.StatusCode)
	}
	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}
	return &domain.CheckoutSession{
		ID:          payload.ID,
		RedirectURL: payload.URL,
		Paid:        payload.Status == "paid" || payload.Status == "complete",
	}, nil
}
