package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CustomerRepository reads customer records for VIP lookup and matching.
type CustomerRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates the repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, tenant_id, email, name, vip, tags, created_at
        FROM customers WHERE tenant_id=$1 AND id=$2`

	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Email,
		&customer.Name,
		&customer.VIP,
		&customer.Tags,
		&customer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
