package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// ErrVersionConflict signals an optimistic-concurrency check failure: another
// writer updated the instance since it was read.
var ErrVersionConflict = errors.New("sla instance version conflict")

// InstanceRepository encapsulates SLA instance persistence.
type InstanceRepository interface {
	Create(ctx context.Context, instance *domain.SLAInstance) error
	// Update writes the instance only when the stored version matches the
	// in-memory one, incrementing it on success. Returns ErrVersionConflict
	// when the check fails.
	Update(ctx context.Context, instance *domain.SLAInstance) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.SLAInstance, error)
	// GetCurrentByTicket returns the authoritative instance for a ticket:
	// the most recently created one that is not COMPLETED or CANCELLED.
	GetCurrentByTicket(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error)
	// GetLatestByTicket returns the most recently created instance
	// regardless of status.
	GetLatestByTicket(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error)
	// ListOverdue returns ACTIVE instances, across all tenants, with either
	// due timestamp past `now` and the corresponding milestone unset.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.SLAInstance, error)
}

type instanceRepository struct {
	pool *pgxpool.Pool
}

// NewInstanceRepository instantiates the repository.
func NewInstanceRepository(pool *pgxpool.Pool) InstanceRepository {
	return &instanceRepository{pool: pool}
}

const instanceColumns = `id, tenant_id, policy_id, ticket_id, status, first_response_due, resolution_due,
               first_response_at, resolution_at, paused_at, paused_minutes, breach_count, escalation_level,
               notifications, version, created_at, updated_at`

func (r *instanceRepository) Create(ctx context.Context, instance *domain.SLAInstance) error {
	const query = `
        INSERT INTO sla_instances (tenant_id, policy_id, ticket_id, status, first_response_due, resolution_due,
                                   paused_minutes, breach_count, escalation_level, notifications, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
        RETURNING id, version, created_at, updated_at`

	notifications, err := json.Marshal(instance.Notifications)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		instance.TenantID,
		instance.PolicyID,
		instance.TicketID,
		instance.Status,
		instance.FirstResponseDue,
		instance.ResolutionDue,
		instance.PausedMinutes,
		instance.BreachCount,
		instance.EscalationLevel,
		notifications,
	).Scan(&instance.ID, &instance.Version, &instance.CreatedAt, &instance.UpdatedAt)
}

func (r *instanceRepository) Update(ctx context.Context, instance *domain.SLAInstance) error {
	const query = `
        UPDATE sla_instances
        SET status=$1, first_response_at=$2, resolution_at=$3, paused_at=$4, paused_minutes=$5,
            breach_count=$6, escalation_level=$7, notifications=$8, version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10`

	notifications, err := json.Marshal(instance.Notifications)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query,
		instance.Status,
		instance.FirstResponseAt,
		instance.ResolutionAt,
		instance.PausedAt,
		instance.PausedMinutes,
		instance.BreachCount,
		instance.EscalationLevel,
		notifications,
		instance.ID,
		instance.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM sla_instances WHERE id=$1)`, instance.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	instance.Version++
	return nil
}

func (r *instanceRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SLAInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM sla_instances WHERE tenant_id=$1 AND id=$2`, instanceColumns)
	return scanInstance(r.pool.QueryRow(ctx, query, tenantID, id))
}

func (r *instanceRepository) GetCurrentByTicket(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM sla_instances
        WHERE tenant_id=$1 AND ticket_id=$2 AND status NOT IN ('COMPLETED','CANCELLED')
        ORDER BY created_at DESC LIMIT 1`, instanceColumns)
	return scanInstance(r.pool.QueryRow(ctx, query, tenantID, ticketID))
}

func (r *instanceRepository) GetLatestByTicket(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM sla_instances
        WHERE tenant_id=$1 AND ticket_id=$2
        ORDER BY created_at DESC LIMIT 1`, instanceColumns)
	return scanInstance(r.pool.QueryRow(ctx, query, tenantID, ticketID))
}

func (r *instanceRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.SLAInstance, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`
        SELECT %s FROM sla_instances
        WHERE status='ACTIVE'
          AND ((first_response_due < $1 AND first_response_at IS NULL)
            OR (resolution_due < $1 AND resolution_at IS NULL))
        ORDER BY created_at ASC LIMIT %d`, instanceColumns, limit)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *instance)
	}
	return result, rows.Err()
}

func scanInstance(row pgx.Row) (*domain.SLAInstance, error) {
	var (
		instance      domain.SLAInstance
		notifications []byte
	)
	if err := row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.PolicyID,
		&instance.TicketID,
		&instance.Status,
		&instance.FirstResponseDue,
		&instance.ResolutionDue,
		&instance.FirstResponseAt,
		&instance.ResolutionAt,
		&instance.PausedAt,
		&instance.PausedMinutes,
		&instance.BreachCount,
		&instance.EscalationLevel,
		&notifications,
		&instance.Version,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &instance.Notifications); err != nil {
			return nil, err
		}
	}
	return &instance, nil
}
