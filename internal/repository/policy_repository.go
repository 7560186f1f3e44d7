package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyFilter defines query params for policy listing.
type PolicyFilter struct {
	Priority *string
	IsActive *bool
	Limit    int
	Offset   int
}

// PolicyRepository encapsulates SLA policy persistence.
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	Update(ctx context.Context, policy *domain.SLAPolicy) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.SLAPolicy, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter PolicyFilter) ([]domain.SLAPolicy, error)
	// ListActive returns the tenant's active policies ordered by creation
	// time ascending, the order the matcher depends on.
	ListActive(ctx context.Context, tenantID string) ([]domain.SLAPolicy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates the repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

const policyColumns = `id, tenant_id, name, priority, conditions, response_time_minutes, resolution_time_minutes,
               business_hours, holidays, escalation_rules, notification_settings, is_active, created_at, updated_at`

func (r *policyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (tenant_id, name, priority, conditions, response_time_minutes, resolution_time_minutes,
                                  business_hours, holidays, escalation_rules, notification_settings, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	conditions, businessHours, escalations, notifications, err := marshalPolicyDocs(policy)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		policy.TenantID,
		policy.Name,
		policy.Priority,
		conditions,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		businessHours,
		policy.Holidays,
		escalations,
		notifications,
		policy.IsActive,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *policyRepository) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        UPDATE sla_policies
        SET name=$1, priority=$2, conditions=$3, response_time_minutes=$4, resolution_time_minutes=$5,
            business_hours=$6, holidays=$7, escalation_rules=$8, notification_settings=$9, is_active=$10, updated_at=NOW()
        WHERE tenant_id=$11 AND id=$12`

	conditions, businessHours, escalations, notifications, err := marshalPolicyDocs(policy)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query,
		policy.Name,
		policy.Priority,
		conditions,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		businessHours,
		policy.Holidays,
		escalations,
		notifications,
		policy.IsActive,
		policy.TenantID,
		policy.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SLAPolicy, error) {
	query := fmt.Sprintf(`SELECT %s FROM sla_policies WHERE tenant_id=$1 AND id=$2`, policyColumns)
	row := r.pool.QueryRow(ctx, query, tenantID, id)
	return scanPolicy(row)
}

func (r *policyRepository) Delete(ctx context.Context, tenantID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sla_policies WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepository) List(ctx context.Context, tenantID string, filter PolicyFilter) ([]domain.SLAPolicy, error) {
	query := fmt.Sprintf(`SELECT %s FROM sla_policies`, policyColumns)
	args := []any{tenantID}
	clauses := []string{"tenant_id=$1"}

	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (r *policyRepository) ListActive(ctx context.Context, tenantID string) ([]domain.SLAPolicy, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM sla_policies WHERE tenant_id=$1 AND is_active=TRUE ORDER BY created_at ASC`,
		policyColumns)
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func marshalPolicyDocs(policy *domain.SLAPolicy) (conditions, businessHours, escalations, notifications []byte, err error) {
	if conditions, err = json.Marshal(policy.Conditions); err != nil {
		return nil, nil, nil, nil, err
	}
	if policy.BusinessHours != nil {
		if businessHours, err = json.Marshal(policy.BusinessHours); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if escalations, err = json.Marshal(policy.EscalationRules); err != nil {
		return nil, nil, nil, nil, err
	}
	if notifications, err = json.Marshal(policy.Notifications); err != nil {
		return nil, nil, nil, nil, err
	}
	return conditions, businessHours, escalations, notifications, nil
}

func scanPolicy(row pgx.Row) (*domain.SLAPolicy, error) {
	var (
		policy        domain.SLAPolicy
		conditions    []byte
		businessHours []byte
		escalations   []byte
		notifications []byte
	)
	if err := row.Scan(
		&policy.ID,
		&policy.TenantID,
		&policy.Name,
		&policy.Priority,
		&conditions,
		&policy.ResponseTimeMinutes,
		&policy.ResolutionTimeMinutes,
		&businessHours,
		&policy.Holidays,
		&escalations,
		&notifications,
		&policy.IsActive,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalPolicyDocs(&policy, conditions, businessHours, escalations, notifications); err != nil {
		return nil, err
	}
	return &policy, nil
}

func scanPolicies(rows pgx.Rows) ([]domain.SLAPolicy, error) {
	var result []domain.SLAPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *policy)
	}
	return result, rows.Err()
}

func unmarshalPolicyDocs(policy *domain.SLAPolicy, conditions, businessHours, escalations, notifications []byte) error {
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &policy.Conditions); err != nil {
			return err
		}
	}
	if len(businessHours) > 0 {
		policy.BusinessHours = &domain.BusinessHoursSchedule{}
		if err := json.Unmarshal(businessHours, policy.BusinessHours); err != nil {
			return err
		}
	}
	if len(escalations) > 0 {
		if err := json.Unmarshal(escalations, &policy.EscalationRules); err != nil {
			return err
		}
	}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &policy.Notifications); err != nil {
			return err
		}
	}
	return nil
}
