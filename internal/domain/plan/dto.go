// internal/domain/plan/dto.go
package plan

type CreatePlanRequest struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name"`
	Duration int64  `json:"duration" binding:"required,gt=0"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Token    string `json:"token" binding:"required"`
}

// UpdatePlanRequest carries a partial update; nil fields keep their
// stored values.
type UpdatePlanRequest struct {
	Name     *string `json:"name,omitempty"`
	Duration *int64  `json:"duration,omitempty"`
	Amount   *int64  `json:"amount,omitempty"`
	Token    *string `json:"token,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r *CreatePlanRequest) ToPlan() Plan {
	return Plan{
		ID:       r.ID,
		Name:     r.Name,
		Duration: r.Duration,
		Amount:   r.Amount,
		Token:    r.Token,
		IsActive: true,
	}
}
