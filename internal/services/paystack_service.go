package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PaymentVerifier confirms a transaction reference with the payment gateway
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*GatewayVerification, error)
}

// GatewayVerification is the gateway's answer for one reference
type GatewayVerification struct {
	HTTPStatus int    `json:"-"`
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	Data       struct {
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
	Raw json.RawMessage `json:"-"`
}

// Succeeded reports a completed charge
func (v *GatewayVerification) Succeeded() bool {
	return v != nil && v.HTTPStatus == http.StatusOK && v.Status && v.Data.Status == "success"
}

type PaystackService struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewPaystackService(baseURL, secretKey string, timeout time.Duration) *PaystackService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// Verify calls GET /transaction/verify/{reference}.
// A non-nil verification is returned whenever the gateway answered, even on failure.
func (s *PaystackService) Verify(ctx context.Context, reference string) (*GatewayVerification, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", s.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	verification := &GatewayVerification{HTTPStatus: resp.StatusCode, Raw: json.RawMessage(body)}
	if resp.StatusCode != http.StatusOK {
		return verification, fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}
	if err := json.Unmarshal(body, verification); err != nil {
		verification.Raw = nil
		return verification, fmt.Errorf("%w: invalid response body: %v", ErrGatewayUnavailable, err)
	}
	if !verification.Succeeded() {
		return verification, fmt.Errorf("%w: %s", ErrGatewayRejected, verification.Message)
	}
	return verification, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// gatewayAppError maps gateway sentinels to user-facing errors
func gatewayAppError(err error) *AppError {
	switch {
	case errors.Is(err, ErrGatewayTimeout):
		return &AppError{Kind: KindGatewayTimeout, Code: "gateway_timeout", Message: "Payment provider did not respond in time. Please try again.", Err: err}
	case errors.Is(err, ErrGatewayUnavailable):
		return &AppError{Kind: KindGatewayUnavailable, Code: "gateway_unavailable", Message: "Could not reach the payment provider.", Err: err}
	default:
		return &AppError{Kind: KindPaymentFailed, Code: "payment_failed", Message: "Payment verification failed.", Err: err}
	}
}
