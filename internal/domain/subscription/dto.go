// internal/domain/subscription/dto.go
package subscription

// EnrollRequest starts a subscription. AttachedDeposit is the native
// currency the platform escrowed with this request: the exact plan
// amount for native-token plans, or at least the storage-registration
// deposit for fungible-token plans.
type EnrollRequest struct {
	PlanID          string `json:"plan_id" binding:"required"`
	AttachedDeposit int64  `json:"attached_deposit" binding:"gte=0"`
}

type PayRequest struct {
	AttachedDeposit int64 `json:"attached_deposit" binding:"gte=0"`
}

// Receipt reports a settled enroll/pay call: the committed record plus
// the fee split applied to the gross amount.
type Receipt struct {
	Subscription   Subscription `json:"subscription"`
	GrossAmount    int64        `json:"gross_amount"`
	ProviderAmount int64        `json:"provider_amount"`
	FeeAmount      int64        `json:"fee_amount"`
	InstructionID  string       `json:"instruction_id,omitempty"`
}
