package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Client talks to the external mobile-money processor. The processor charges
// asynchronously: Initiate returns an opaque reference and the outcome is
// discovered through PollStatus.
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

type initiateRequest struct {
	Phone    string            `json:"phone"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type initiateResponse struct {
	ReferenceID string `json:"reference_id"`
}

func (c *Client) Initiate(ctx context.Context, phone string, amount int64, metadata map[string]string) (string, error) {
	data, err := json.Marshal(initiateRequest{Phone: phone, Amount: amount, Metadata: metadata})
	if err != nil {
		return "", fmt.Errorf("marshal initiate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collections", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create initiate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiate collection: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}

	var body initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode initiate response: %w", err)
	}
	if body.ReferenceID == "" {
		return "", fmt.Errorf("payment processor returned empty reference")
	}

	return body.ReferenceID, nil
}

type statusResponse struct {
	Status domain.AttemptStatus `json:"status"`
}

func (c *Client) PollStatus(ctx context.Context, reference string) (domain.AttemptStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+reference, nil)
	if err != nil {
		return "", fmt.Errorf("create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll collection %s: %w", reference, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment processor returned status %d for %s", resp.StatusCode, reference)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}

	return body.Status, nil
}
