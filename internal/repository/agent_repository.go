package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// AgentRepository reads agent projections for routing.
type AgentRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Agent, error)
	// ListCandidates returns the tenant's active, auto-assignable agents
	// with their current open-ticket counts, ordered by creation time
	// ascending. That order is the ranking tie-break.
	ListCandidates(ctx context.Context, tenantID string) ([]domain.AgentCandidate, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Agent, error) {
	const query = `
        SELECT id, tenant_id, name, email, active_flag, auto_assign, max_concurrent_tickets,
               skills, languages, team_ids, created_at, updated_at
        FROM agents WHERE tenant_id=$1 AND id=$2`

	var agent domain.Agent
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&agent.ID,
		&agent.TenantID,
		&agent.Name,
		&agent.Email,
		&agent.Active,
		&agent.AutoAssign,
		&agent.MaxConcurrentTickets,
		&agent.Skills,
		&agent.Languages,
		&agent.TeamIDs,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) ListCandidates(ctx context.Context, tenantID string) ([]domain.AgentCandidate, error) {
	const query = `
        SELECT a.id, a.tenant_id, a.name, a.email, a.active_flag, a.auto_assign, a.max_concurrent_tickets,
               a.skills, a.languages, a.team_ids, a.created_at, a.updated_at,
               COALESCE(t.open_count, 0)
        FROM agents a
        LEFT JOIN (
            SELECT assignee_agent_id, COUNT(*) AS open_count
            FROM tickets
            WHERE tenant_id=$1 AND status NOT IN ('resolved','closed','cancelled')
            GROUP BY assignee_agent_id
        ) t ON t.assignee_agent_id = a.id
        WHERE a.tenant_id=$1 AND a.active_flag=TRUE AND a.auto_assign=TRUE
        ORDER BY a.created_at ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AgentCandidate
	for rows.Next() {
		var candidate domain.AgentCandidate
		if err := rows.Scan(
			&candidate.ID,
			&candidate.TenantID,
			&candidate.Name,
			&candidate.Email,
			&candidate.Active,
			&candidate.AutoAssign,
			&candidate.MaxConcurrentTickets,
			&candidate.Skills,
			&candidate.Languages,
			&candidate.TeamIDs,
			&candidate.CreatedAt,
			&candidate.UpdatedAt,
			&candidate.OpenTickets,
		); err != nil {
			return nil, err
		}
		result = append(result, candidate)
	}
	return result, rows.Err()
}
