// internal/domain/settlement/entity.go
package settlement

import "time"

type Kind string

const (
	KindNativeTransfer Kind = "native_transfer"
	KindTokenCall      Kind = "token_call"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusFailed     Status = "failed"
)

type Trigger string

const (
	TriggerEnroll Trigger = "enroll"
	TriggerPay    Trigger = "pay"
)

// TokenCallStep is one external call against a fungible-token contract.
// Steps of an instruction run strictly in order; a later step is only
// attempted after the previous one succeeded.
type TokenCallStep struct {
	Method          string            `json:"method"`
	Args            map[string]string `json:"args"`
	AttachedDeposit int64             `json:"attached_deposit"`
	GasBudget       int64             `json:"gas_budget"`
}

// TransferInstruction is a queued outbound value movement. It is
// committed after the ledger state it settles, and its delivery is
// best-effort: a failed instruction never rolls the ledger back.
type TransferInstruction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Trigger       Trigger         `json:"trigger"`
	Kind          Kind            `json:"kind"`
	To            string          `json:"to,omitempty"`     // native transfers
	Amount        int64           `json:"amount,omitempty"` // native transfers
	TokenContract string          `json:"token_contract,omitempty"`
	Steps         []TokenCallStep `json:"steps,omitempty"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	DispatchedAt  *time.Time      `json:"dispatched_at,omitempty"`
}

// Event is broadcast to the provider's settlement stream after a
// ledger commit.
type Event struct {
	Type           string    `json:"type"` // "enrolled", "payment", "canceled"
	AccountID      string    `json:"account_id"`
	PlanID         string    `json:"plan_id"`
	Token          string    `json:"token,omitempty"`
	GrossAmount    int64     `json:"gross_amount,omitempty"`
	ProviderAmount int64     `json:"provider_amount,omitempty"`
	FeeAmount      int64     `json:"fee_amount,omitempty"`
	InstructionID  string    `json:"instruction_id,omitempty"`
	At             time.Time `json:"at"`
}
