// internal/service/settlement/dispatcher_service.go
package settlement

import (
	"context"
	"fmt"
	"time"

	settlementdom "subpay-service/internal/domain/settlement"
	"subpay-service/internal/gateway"

	"go.uber.org/zap"
)

// Outbox is the persistence surface the dispatcher drains. Satisfied by
// the Postgres settlement outbox repository.
type Outbox interface {
	Enqueue(ctx context.Context, instr settlementdom.TransferInstruction) error
	ListPending(ctx context.Context, limit int) ([]settlementdom.TransferInstruction, error)
	List(ctx context.Context, status settlementdom.Status, limit int) ([]settlementdom.TransferInstruction, error)
	MarkDispatched(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
	ResetFailed(ctx context.Context) (int64, error)
}

// DispatcherService queues transfer instructions durably and delivers
// them to the settlement gateway in the background. It never initiates
// a settlement on its own clock: it only carries instructions the
// orchestrator already committed.
type DispatcherService struct {
	outbox   Outbox
	gateway  gateway.Gateway
	logger   *zap.Logger
	interval time.Duration
	wake     chan struct{}
}

func NewDispatcherService(outbox Outbox, gw gateway.Gateway, interval time.Duration, logger *zap.Logger) *DispatcherService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DispatcherService{
		outbox:   outbox,
		gateway:  gw,
		logger:   logger,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// Dispatch persists the instruction and nudges the delivery loop. This
// is the commit point from the orchestrator's perspective; actual
// delivery happens later and its failure is not reported back.
func (s *DispatcherService) Dispatch(ctx context.Context, instr settlementdom.TransferInstruction) error {
	if err := s.outbox.Enqueue(ctx, instr); err != nil {
		return fmt.Errorf("failed to enqueue instruction: %w", err)
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the outbox until ctx is canceled.
func (s *DispatcherService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.DeliverPending(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

// DeliverPending makes one pass over pending instructions.
func (s *DispatcherService) DeliverPending(ctx context.Context) {
	instrs, err := s.outbox.ListPending(ctx, 100)
	if err != nil {
		s.logger.Error("failed to list pending settlements", zap.Error(err))
		return
	}

	for _, instr := range instrs {
		if err := s.deliver(ctx, instr); err != nil {
			s.logger.Warn("settlement delivery failed",
				zap.String("instruction_id", instr.ID),
				zap.String("account_id", instr.AccountID),
				zap.Error(err),
			)
			if markErr := s.outbox.MarkFailed(ctx, instr.ID, err.Error()); markErr != nil {
				s.logger.Error("failed to mark instruction failed", zap.Error(markErr))
			}
			continue
		}

		if err := s.outbox.MarkDispatched(ctx, instr.ID); err != nil {
			s.logger.Error("failed to mark instruction dispatched",
				zap.String("instruction_id", instr.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("settlement delivered",
			zap.String("instruction_id", instr.ID),
			zap.String("kind", string(instr.Kind)),
		)
	}
}

// deliver executes one instruction: a single native transfer, or the
// instruction's token-call steps strictly in order. Step N+1 is only
// attempted after step N succeeded.
func (s *DispatcherService) deliver(ctx context.Context, instr settlementdom.TransferInstruction) error {
	switch instr.Kind {
	case settlementdom.KindNativeTransfer:
		return s.gateway.TransferNative(ctx, instr.To, instr.Amount)
	case settlementdom.KindTokenCall:
		for i, step := range instr.Steps {
			if err := s.gateway.CallToken(ctx, instr.TokenContract, step); err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, step.Method, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown instruction kind %q", instr.Kind)
	}
}

// Redrive flips failed instructions back to pending and wakes the loop.
// This is the reconciliation knob for the documented consistency gap:
// the ledger never rolls back, the transfer is retried instead.
func (s *DispatcherService) Redrive(ctx context.Context) (int64, error) {
	n, err := s.outbox.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	s.logger.Info("settlements re-driven", zap.Int64("count", n))
	return n, nil
}

// List exposes the outbox for the provider's reconciliation view.
func (s *DispatcherService) List(ctx context.Context, status settlementdom.Status, limit int) ([]settlementdom.TransferInstruction, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.outbox.List(ctx, status, limit)
}
