// internal/domain/subscription/entity.go
package subscription

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Subscription binds an account to a plan's terms as they stood at
// enrollment. Duration, Amount and Token are a snapshot: later plan
// edits never change an existing subscriber's terms.
//
// Invariant: NextPayment == LastPayment + Duration at all times.
// Status only ever moves Active -> Inactive; a canceled record is kept
// and is never re-activated.
type Subscription struct {
	AccountID   string `json:"account_id"`
	PlanID      string `json:"plan_id"`
	Duration    int64  `json:"duration"` // nanoseconds, snapshot
	Amount      int64  `json:"amount"`   // snapshot
	Token       string `json:"token"`    // snapshot
	LastPayment int64  `json:"last_payment"` // unix nanoseconds
	NextPayment int64  `json:"next_payment"` // unix nanoseconds
	Status      Status `json:"status"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}
