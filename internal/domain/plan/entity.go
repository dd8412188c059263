// internal/domain/plan/entity.go
package plan

import (
	"strings"

	"subpay-service/internal/domain/account"
	xerrors "subpay-service/internal/pkg/errors"
)

// TokenNative is the sentinel token value for payments in the chain's
// base asset. Anything else must be a valid token contract account id.
const TokenNative = "native"

// Plan is a provider-defined billing template. Plans are never deleted;
// deactivation keeps existing subscriptions referentially valid.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int64  `json:"duration"` // nanoseconds between payments
	Amount   int64  `json:"amount"`   // gross price per period, in Token units
	Token    string `json:"token"`
	IsActive bool   `json:"is_active"`
}

// IsNativeToken reports whether t denominates the native currency.
func IsNativeToken(t string) bool {
	return strings.ToLower(t) == TokenNative
}

// ValidateToken accepts the native sentinel or a syntactically valid
// token contract account id.
func ValidateToken(t string) error {
	if IsNativeToken(t) || account.ValidateID(t) {
		return nil
	}
	return xerrors.ErrInvalidToken
}

// Validate checks the invariants a stored plan must satisfy.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "plan id is required")
	}
	if p.Duration <= 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "plan duration must be positive")
	}
	if p.Amount <= 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "plan amount must be positive")
	}
	return ValidateToken(p.Token)
}
