package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shakhov/paycore/internal/domain"
)

// WorkUnitRepo — репозиторий для work units.
//
// Очередь остаётся источником истины для доставки; репозиторий
// хранит наблюдаемое состояние units для API и отладки.
type WorkUnitRepo struct {
	pool *pgxpool.Pool
}

// NewWorkUnitRepo создаёт новый WorkUnitRepo.
func NewWorkUnitRepo(pool *pgxpool.Pool) *WorkUnitRepo {
	return &WorkUnitRepo{pool: pool}
}

// Save создаёт или обновляет unit (upsert по id).
func (r *WorkUnitRepo) Save(ctx context.Context, unit *domain.WorkUnit) error {
	argsJSON, err := json.Marshal(unit.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	resultJSON, err := json.Marshal(unit.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO work_units (id, task_name, args, correlation_id, enqueued_at,
		                        retry_count, max_retries, status, result, last_error,
		                        started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET retry_count = EXCLUDED.retry_count,
		    status = EXCLUDED.status,
		    result = EXCLUDED.result,
		    last_error = EXCLUDED.last_error,
		    enqueued_at = EXCLUDED.enqueued_at,
		    started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at
	`
	_, err = r.pool.Exec(ctx, query,
		unit.ID,
		unit.TaskName,
		argsJSON,
		unit.CorrelationID,
		unit.EnqueuedAt,
		unit.RetryCount,
		unit.MaxRetries,
		unit.Status,
		resultJSON,
		nullString(unit.LastError),
		unit.StartedAt,
		unit.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert work unit: %w", err)
	}
	return nil
}

// GetByID возвращает unit по ID.
func (r *WorkUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkUnit, error) {
	query := `
		SELECT id, task_name, args, correlation_id, enqueued_at,
		       retry_count, max_retries, status, result, last_error,
		       started_at, finished_at
		FROM work_units
		WHERE id = $1
	`
	return scanUnit(r.pool.QueryRow(ctx, query, id))
}

// ListByStatus возвращает units в заданном статусе, новые первыми.
func (r *WorkUnitRepo) ListByStatus(ctx context.Context, status domain.UnitStatus, limit int) ([]domain.WorkUnit, error) {
	query := `
		SELECT id, task_name, args, correlation_id, enqueued_at,
		       retry_count, max_retries, status, result, last_error,
		       started_at, finished_at
		FROM work_units
		WHERE status = $1
		ORDER BY enqueued_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list work units: %w", err)
	}
	defer rows.Close()

	var units []domain.WorkUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	return units, rows.Err()
}

// CountByStatus возвращает количество units в статусе.
func (r *WorkUnitRepo) CountByStatus(ctx context.Context, status domain.UnitStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_units WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count work units: %w", err)
	}
	return count, nil
}

// --- Helpers ---

func scanUnit(row pgx.Row) (*domain.WorkUnit, error) {
	var unit domain.WorkUnit
	var argsJSON, resultJSON []byte
	var lastError *string

	err := row.Scan(
		&unit.ID,
		&unit.TaskName,
		&argsJSON,
		&unit.CorrelationID,
		&unit.EnqueuedAt,
		&unit.RetryCount,
		&unit.MaxRetries,
		&unit.Status,
		&resultJSON,
		&lastError,
		&unit.StartedAt,
		&unit.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan work unit: %w", err)
	}

	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &unit.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
	}
	if resultJSON != nil {
		if err := json.Unmarshal(resultJSON, &unit.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if lastError != nil {
		unit.LastError = *lastError
	}

	return &unit, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
