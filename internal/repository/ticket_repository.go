package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketRepository reads ticket snapshots. Tickets are owned by the
// conversation service; this store is read-only here.
type TicketRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, tenant_id, subject, description, status, priority, channel_type, tags,
               customer_id, assignee_agent_id, team_id, created_at, updated_at
        FROM tickets WHERE tenant_id=$1 AND id=$2`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ChannelType,
		&ticket.Tags,
		&ticket.CustomerID,
		&ticket.AssigneeAgentID,
		&ticket.TeamID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
