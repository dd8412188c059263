package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	settlementdom "subpay-service/internal/domain/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memOutbox struct {
	mu     sync.Mutex
	instrs map[string]*settlementdom.TransferInstruction
	order  []string
}

func newMemOutbox() *memOutbox {
	return &memOutbox{instrs: make(map[string]*settlementdom.TransferInstruction)}
}

func (o *memOutbox) Enqueue(_ context.Context, instr settlementdom.TransferInstruction) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := instr
	o.instrs[instr.ID] = &cp
	o.order = append(o.order, instr.ID)
	return nil
}

func (o *memOutbox) ListPending(_ context.Context, limit int) ([]settlementdom.TransferInstruction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []settlementdom.TransferInstruction
	for _, id := range o.order {
		if len(out) == limit {
			break
		}
		if o.instrs[id].Status == settlementdom.StatusPending {
			out = append(out, *o.instrs[id])
		}
	}
	return out, nil
}

func (o *memOutbox) List(_ context.Context, status settlementdom.Status, limit int) ([]settlementdom.TransferInstruction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []settlementdom.TransferInstruction
	for _, id := range o.order {
		if len(out) == limit {
			break
		}
		if status == "" || o.instrs[id].Status == status {
			out = append(out, *o.instrs[id])
		}
	}
	return out, nil
}

func (o *memOutbox) MarkDispatched(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	o.instrs[id].Status = settlementdom.StatusDispatched
	o.instrs[id].Attempts++
	o.instrs[id].DispatchedAt = &now
	return nil
}

func (o *memOutbox) MarkFailed(_ context.Context, id, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.instrs[id].Status = settlementdom.StatusFailed
	o.instrs[id].Attempts++
	o.instrs[id].LastError = reason
	return nil
}

func (o *memOutbox) ResetFailed(_ context.Context) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int64
	for _, instr := range o.instrs {
		if instr.Status == settlementdom.StatusFailed {
			instr.Status = settlementdom.StatusPending
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	transfers []string
	calls     []string
	failCalls bool
}

func (g *fakeGateway) TransferNative(_ context.Context, to string, _ int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers = append(g.transfers, to)
	return nil
}

func (g *fakeGateway) CallToken(_ context.Context, _ string, step settlementdom.TokenCallStep) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCalls {
		return errors.New("token contract unreachable")
	}
	g.calls = append(g.calls, step.Method)
	return nil
}

func nativeInstr(id string) settlementdom.TransferInstruction {
	return settlementdom.TransferInstruction{
		ID:        id,
		AccountID: "alice.testnet",
		Trigger:   settlementdom.TriggerPay,
		Kind:      settlementdom.KindNativeTransfer,
		To:        "provider.testnet",
		Amount:    990_000,
		Status:    settlementdom.StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestDispatcher_DeliversNative(t *testing.T) {
	ctx := context.Background()
	outbox := newMemOutbox()
	gw := &fakeGateway{}
	d := NewDispatcherService(outbox, gw, time.Minute, zap.NewNop())

	require.NoError(t, d.Dispatch(ctx, nativeInstr("01A")))
	d.DeliverPending(ctx)

	assert.Equal(t, []string{"provider.testnet"}, gw.transfers)

	dispatched, err := outbox.List(ctx, settlementdom.StatusDispatched, 10)
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, 1, dispatched[0].Attempts)
	assert.NotNil(t, dispatched[0].DispatchedAt)
}

func TestDispatcher_TokenStepsInOrder(t *testing.T) {
	ctx := context.Background()
	outbox := newMemOutbox()
	gw := &fakeGateway{}
	d := NewDispatcherService(outbox, gw, time.Minute, zap.NewNop())

	instr := settlementdom.TransferInstruction{
		ID:            "01B",
		AccountID:     "bob.testnet",
		Trigger:       settlementdom.TriggerEnroll,
		Kind:          settlementdom.KindTokenCall,
		TokenContract: "usdc.token.testnet",
		Steps: []settlementdom.TokenCallStep{
			{Method: "storage_deposit"},
			{Method: "ft_transfer_call"},
		},
		Status:    settlementdom.StatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, d.Dispatch(ctx, instr))
	d.DeliverPending(ctx)

	assert.Equal(t, []string{"storage_deposit", "ft_transfer_call"}, gw.calls)
}

func TestDispatcher_FailureMarksAndRedrives(t *testing.T) {
	ctx := context.Background()
	outbox := newMemOutbox()
	gw := &fakeGateway{failCalls: true}
	d := NewDispatcherService(outbox, gw, time.Minute, zap.NewNop())

	instr := settlementdom.TransferInstruction{
		ID:            "01C",
		AccountID:     "bob.testnet",
		Trigger:       settlementdom.TriggerPay,
		Kind:          settlementdom.KindTokenCall,
		TokenContract: "usdc.token.testnet",
		Steps:         []settlementdom.TokenCallStep{{Method: "ft_transfer_call"}},
		Status:        settlementdom.StatusPending,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, d.Dispatch(ctx, instr))
	d.DeliverPending(ctx)

	failed, err := outbox.List(ctx, settlementdom.StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].LastError, "ft_transfer_call")

	// the gateway recovers; redrive flips the row back and delivery succeeds
	gw.failCalls = false
	n, err := d.Redrive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	d.DeliverPending(ctx)
	dispatched, err := outbox.List(ctx, settlementdom.StatusDispatched, 10)
	require.NoError(t, err)
	assert.Len(t, dispatched, 1)
}
