package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Client is the poller's view of the checkout API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type CheckoutRequest struct {
	BuyerID       string                `json:"buyer_id"`
	Lines         []domain.CheckoutLine `json:"lines"`
	Delivery      domain.DeliveryInfo   `json:"delivery"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method"`
	Phone         string                `json:"phone,omitempty"`
}

type CheckoutResponse struct {
	OrderIDs    []string `json:"order_ids"`
	TotalAmount int64    `json:"total_amount"`
	ReferenceID string   `json:"reference_id,omitempty"`
}

func (c *Client) SubmitCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit checkout: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var body CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}
	return &body, nil
}

func (c *Client) PaymentStatus(ctx context.Context, reference string) (domain.AttemptStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+reference, nil)
	if err != nil {
		return "", fmt.Errorf("create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query payment status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var body struct {
		Status domain.AttemptStatus `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return body.Status, nil
}

func (c *Client) CancelPayment(ctx context.Context, reference string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/"+reference+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("create cancel request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel payment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("checkout API returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("checkout API returned status %d: %s", resp.StatusCode, body.Error)
}
