// internal/gateway/gateway.go
package gateway

import (
	"context"

	"subpay-service/internal/domain/settlement"
)

// Gateway delivers outbound value movements to the settlement host.
// Delivery is synchronous per call; the caller sequences token-call
// steps and decides what a failure means.
type Gateway interface {
	TransferNative(ctx context.Context, to string, amount int64) error
	CallToken(ctx context.Context, tokenContract string, step settlement.TokenCallStep) error
}
