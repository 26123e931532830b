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

// DeadLetterRepo — репозиторий для dead letters.
type DeadLetterRepo struct {
	pool *pgxpool.Pool
}

// NewDeadLetterRepo создаёт новый DeadLetterRepo.
func NewDeadLetterRepo(pool *pgxpool.Pool) *DeadLetterRepo {
	return &DeadLetterRepo{pool: pool}
}

// Record сохраняет dead letter. Повторная запись того же unit
// (redelivery после сбоя) не создаёт дубликата.
func (r *DeadLetterRepo) Record(ctx context.Context, dl *domain.DeadLetter) error {
	argsJSON, err := json.Marshal(dl.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	query := `
		INSERT INTO dead_letters (id, unit_id, task_name, args, correlation_id,
		                          attempts, reason, dead_lettered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (unit_id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		dl.ID,
		dl.UnitID,
		dl.TaskName,
		argsJSON,
		dl.CorrelationID,
		dl.Attempts,
		dl.Reason,
		dl.DeadLetteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// GetByUnitID возвращает dead letter по ID исходного unit.
func (r *DeadLetterRepo) GetByUnitID(ctx context.Context, unitID uuid.UUID) (*domain.DeadLetter, error) {
	query := `
		SELECT id, unit_id, task_name, args, correlation_id,
		       attempts, reason, dead_lettered_at
		FROM dead_letters
		WHERE unit_id = $1
	`
	return scanDeadLetter(r.pool.QueryRow(ctx, query, unitID))
}

// List возвращает dead letters, новые первыми.
func (r *DeadLetterRepo) List(ctx context.Context, limit int) ([]domain.DeadLetter, error) {
	query := `
		SELECT id, unit_id, task_name, args, correlation_id,
		       attempts, reason, dead_lettered_at
		FROM dead_letters
		ORDER BY dead_lettered_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var letters []domain.DeadLetter
	for rows.Next() {
		dl, err := scanDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		letters = append(letters, *dl)
	}
	return letters, rows.Err()
}

// CountByTask возвращает количество dead letters по имени задачи.
func (r *DeadLetterRepo) CountByTask(ctx context.Context, taskName string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM dead_letters WHERE task_name = $1`, taskName,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return count, nil
}

func scanDeadLetter(row pgx.Row) (*domain.DeadLetter, error) {
	var dl domain.DeadLetter
	var argsJSON []byte

	err := row.Scan(
		&dl.ID,
		&dl.UnitID,
		&dl.TaskName,
		&argsJSON,
		&dl.CorrelationID,
		&dl.Attempts,
		&dl.Reason,
		&dl.DeadLetteredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dead letter: %w", err)
	}

	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &dl.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
	}

	return &dl, nil
}
