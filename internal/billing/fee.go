// internal/billing/fee.go
package billing

import (
	"fmt"

	xerrors "subpay-service/internal/pkg/errors"
)

// Fee rates are basis points: 10000 bps == 100.00%.
const (
	RateBase  = 10000
	MinFeeBps = 1
	MaxFeeBps = 10000
)

// ValidateFeeRate is applied once, when the rate is configured; SplitFee
// does not re-check it per call.
func ValidateFeeRate(bps int64) error {
	if bps < MinFeeBps || bps > MaxFeeBps {
		return xerrors.Wrap(xerrors.ErrInvalidInput,
			fmt.Sprintf("fee must be between %d (0.01%%) and %d (100.00%%) basis points", MinFeeBps, MaxFeeBps))
	}
	return nil
}

// SplitFee divides a gross settlement amount into provider proceeds and
// platform fee. The fee is floor(gross*bps/RateBase); the division
// remainder stays with the provider, so provider+fee == gross exactly.
func SplitFee(gross, bps int64) (provider, fee int64) {
	// gross*bps can overflow int64 for large amounts, so split the
	// product around RateBase: gross = q*RateBase + r.
	q, r := gross/RateBase, gross%RateBase
	fee = q*bps + r*bps/RateBase
	return gross - fee, fee
}
