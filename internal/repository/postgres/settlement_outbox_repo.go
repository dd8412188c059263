// internal/repository/postgres/settlement_outbox_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"subpay-service/internal/domain/settlement"
	xerrors "subpay-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettlementOutboxRepository struct {
	db *pgxpool.Pool
}

func NewSettlementOutboxRepository(db *pgxpool.Pool) *SettlementOutboxRepository {
	return &SettlementOutboxRepository{db: db}
}

// EnsureSchema creates the outbox table if it is missing. Called once
// at startup.
func (r *SettlementOutboxRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS settlement_outbox (
			id             TEXT PRIMARY KEY,
			account_id     TEXT NOT NULL,
			trigger        TEXT NOT NULL,
			kind           TEXT NOT NULL,
			to_address     TEXT NOT NULL DEFAULT '',
			amount         BIGINT NOT NULL DEFAULT 0,
			token_contract TEXT NOT NULL DEFAULT '',
			steps          JSONB,
			status         TEXT NOT NULL,
			attempts       INT NOT NULL DEFAULT 0,
			last_error     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL,
			dispatched_at  TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_settlement_outbox_status
			ON settlement_outbox (status, created_at);
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure settlement_outbox schema: %w", err)
	}
	return nil
}

// Enqueue persists a pending instruction.
func (r *SettlementOutboxRepository) Enqueue(ctx context.Context, instr settlement.TransferInstruction) error {
	query := `
		INSERT INTO settlement_outbox (
			id, account_id, trigger, kind, to_address, amount,
			token_contract, steps, status, attempts, last_error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var stepsJSON []byte
	if len(instr.Steps) > 0 {
		var err error
		stepsJSON, err = json.Marshal(instr.Steps)
		if err != nil {
			return fmt.Errorf("failed to marshal instruction steps: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, query,
		instr.ID, instr.AccountID, instr.Trigger, instr.Kind, instr.To, instr.Amount,
		instr.TokenContract, stepsJSON, instr.Status, instr.Attempts, instr.LastError, instr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue settlement instruction: %w", err)
	}
	return nil
}

// ListPending returns pending instructions oldest first.
func (r *SettlementOutboxRepository) ListPending(ctx context.Context, limit int) ([]settlement.TransferInstruction, error) {
	query := `
		SELECT id, account_id, trigger, kind, to_address, amount,
		       token_contract, steps, status, attempts, last_error, created_at, dispatched_at
		FROM settlement_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, settlement.StatusPending, limit)
}

// List returns instructions filtered by status; an empty status returns
// everything, newest first.
func (r *SettlementOutboxRepository) List(ctx context.Context, status settlement.Status, limit int) ([]settlement.TransferInstruction, error) {
	if status == "" {
		query := `
			SELECT id, account_id, trigger, kind, to_address, amount,
			       token_contract, steps, status, attempts, last_error, created_at, dispatched_at
			FROM settlement_outbox
			ORDER BY created_at DESC
			LIMIT $1
		`
		rows, err := r.db.Query(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list settlement instructions: %w", err)
		}
		defer rows.Close()
		return scanInstructions(rows)
	}

	query := `
		SELECT id, account_id, trigger, kind, to_address, amount,
		       token_contract, steps, status, attempts, last_error, created_at, dispatched_at
		FROM settlement_outbox
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, status, limit)
}

// FindByID retrieves a single instruction.
func (r *SettlementOutboxRepository) FindByID(ctx context.Context, id string) (*settlement.TransferInstruction, error) {
	query := `
		SELECT id, account_id, trigger, kind, to_address, amount,
		       token_contract, steps, status, attempts, last_error, created_at, dispatched_at
		FROM settlement_outbox
		WHERE id = $1
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find settlement instruction: %w", err)
	}
	defer rows.Close()

	instrs, err := scanInstructions(rows)
	if err != nil {
		return nil, err
	}
	if len(instrs) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return &instrs[0], nil
}

// MarkDispatched finalizes a delivered instruction.
func (r *SettlementOutboxRepository) MarkDispatched(ctx context.Context, id string) error {
	query := `
		UPDATE settlement_outbox
		SET status = $2, attempts = attempts + 1, last_error = '', dispatched_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, settlement.StatusDispatched)
	if err != nil {
		return fmt.Errorf("failed to mark instruction dispatched: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// MarkFailed records a delivery failure; the row stays re-drivable.
func (r *SettlementOutboxRepository) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE settlement_outbox
		SET status = $2, attempts = attempts + 1, last_error = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, settlement.StatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark instruction failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ResetFailed flips failed instructions back to pending so the
// dispatcher picks them up again. Returns how many rows moved.
func (r *SettlementOutboxRepository) ResetFailed(ctx context.Context) (int64, error) {
	query := `
		UPDATE settlement_outbox
		SET status = $1
		WHERE status = $2
	`
	tag, err := r.db.Exec(ctx, query, settlement.StatusPending, settlement.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed instructions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SettlementOutboxRepository) list(ctx context.Context, query string, status settlement.Status, limit int) ([]settlement.TransferInstruction, error) {
	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement instructions: %w", err)
	}
	defer rows.Close()
	return scanInstructions(rows)
}

func scanInstructions(rows pgx.Rows) ([]settlement.TransferInstruction, error) {
	var instrs []settlement.TransferInstruction
	for rows.Next() {
		var instr settlement.TransferInstruction
		var stepsJSON []byte

		err := rows.Scan(
			&instr.ID, &instr.AccountID, &instr.Trigger, &instr.Kind, &instr.To, &instr.Amount,
			&instr.TokenContract, &stepsJSON, &instr.Status, &instr.Attempts, &instr.LastError,
			&instr.CreatedAt, &instr.DispatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement instruction: %w", err)
		}

		if len(stepsJSON) > 0 {
			if err := json.Unmarshal(stepsJSON, &instr.Steps); err != nil {
				return nil, fmt.Errorf("failed to unmarshal instruction steps: %w", err)
			}
		}
		instrs = append(instrs, instr)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read settlement instructions: %w", err)
	}
	return instrs, nil
}
