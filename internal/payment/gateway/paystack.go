// Package gateway implements the payment gateway verification contract
// against a Paystack-style HTTP API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Onahi7/napps-sub001/internal/payment/service"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
)

// Client verifies payment references over HTTP. Callers own the deadline;
// the embedded http.Client timeout is a backstop only.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func New(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"message"`
	Data   struct {
		Status   string            `json:"status"`
		Amount   int64             `json:"amount"`
		PaidAt   time.Time         `json:"paid_at"`
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
}

// Verify asks the gateway whether a reference was paid. A non-2xx answer or
// transport failure wraps sentinel.ErrUnavailable so the service layer can
// report it as retryable without inspecting HTTP details.
func (c *Client) Verify(ctx context.Context, reference string) (service.VerificationResult, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return service.VerificationResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return service.VerificationResult{}, fmt.Errorf("gateway verify %q: %w: %w", reference, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return service.VerificationResult{}, fmt.Errorf("read gateway response: %w: %w", sentinel.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return service.VerificationResult{}, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return service.VerificationResult{}, fmt.Errorf("decode gateway response: %w", err)
	}
	return service.VerificationResult{
		Status:   parsed.Data.Status,
		Amount:   parsed.Data.Amount,
		PaidAt:   parsed.Data.PaidAt,
		Metadata: parsed.Data.Metadata,
	}, nil
}
