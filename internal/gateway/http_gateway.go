// internal/gateway/http_gateway.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"subpay-service/internal/domain/settlement"

	"go.uber.org/zap"
)

// HTTPGateway posts instructions to the platform's settlement relay.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type nativeTransferPayload struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type tokenCallPayload struct {
	Contract        string            `json:"contract"`
	Method          string            `json:"method"`
	Args            map[string]string `json:"args"`
	AttachedDeposit int64             `json:"attached_deposit"`
	GasBudget       int64             `json:"gas_budget"`
}

func (g *HTTPGateway) TransferNative(ctx context.Context, to string, amount int64) error {
	return g.post(ctx, "/v1/transfers", nativeTransferPayload{To: to, Amount: amount})
}

func (g *HTTPGateway) CallToken(ctx context.Context, tokenContract string, step settlement.TokenCallStep) error {
	return g.post(ctx, "/v1/token-calls", tokenCallPayload{
		Contract:        tokenContract,
		Method:          step.Method,
		Args:            step.Args,
		AttachedDeposit: step.AttachedDeposit,
		GasBudget:       step.GasBudget,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Warn("settlement gateway rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
