package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type PaystackGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewPaystackGateway(baseURL, secretKey string) *PaystackGateway {
	return &PaystackGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Reference string `json:"reference"`
	} `json:"data"`
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (Verification, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", g.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verification{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("paystack verify failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verification{}, err
	}

	var out paystackVerifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Verification{}, fmt.Errorf("paystack verify: bad response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return Verification{}, fmt.Errorf("paystack verify failed: status %d: %s", resp.StatusCode, out.Message)
	}
	if out.Data.Reference != reference {
		return Verification{}, fmt.Errorf("paystack verify: got %q: %w", out.Data.Reference, ErrReferenceMismatch)
	}

	return Verification{
		Reference: out.Data.Reference,
		Amount:    out.Data.Amount,
		Paid:      out.Data.Status == "success",
	}, nil
}
