package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/worker"
)

type stubInstanceRepo struct {
	instances []domain.SLAInstance
}

func (s *stubInstanceRepo) Create(_ context.Context, instance *domain.SLAInstance) error {
	s.instances = append(s.instances, *instance)
	return nil
}

func (s *stubInstanceRepo) Update(_ context.Context, instance *domain.SLAInstance) error {
	for i := range s.instances {
		if s.instances[i].ID == instance.ID {
			s.instances[i] = *instance
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubInstanceRepo) GetByID(_ context.Context, _, id string) (*domain.SLAInstance, error) {
	for i := range s.instances {
		if s.instances[i].ID == id {
			clone := s.instances[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubInstanceRepo) GetCurrentByTicket(context.Context, string, string) (*domain.SLAInstance, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubInstanceRepo) GetLatestByTicket(context.Context, string, string) (*domain.SLAInstance, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubInstanceRepo) ListOverdue(_ context.Context, now time.Time, _ int) ([]domain.SLAInstance, error) {
	var overdue []domain.SLAInstance
	for i := range s.instances {
		if s.instances[i].Status != domain.InstanceStatusActive {
			continue
		}
		if len(s.instances[i].OverdueBreaches(now)) == 0 {
			continue
		}
		overdue = append(overdue, s.instances[i])
	}
	return overdue, nil
}

type stubTicketRepo struct{}

func (stubTicketRepo) GetByID(context.Context, string, string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func overdueFor(tenantID, id string, now time.Time) domain.SLAInstance {
	return domain.SLAInstance{
		ID:               id,
		TenantID:         tenantID,
		PolicyID:         "pol-1",
		TicketID:         "tick-" + id,
		Status:           domain.InstanceStatusActive,
		FirstResponseDue: now.Add(-10 * time.Minute),
		ResolutionDue:    now.Add(time.Hour),
		Version:          1,
	}
}

func TestCheckReportsOnlyCallerTenantInstances(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubInstanceRepo{instances: []domain.SLAInstance{
		overdueFor("tenant-a", "inst-a", now),
		overdueFor("tenant-b", "inst-b", now),
	}}
	scanner := worker.NewBreachScanner(worker.ScannerDependencies{
		InstanceRepo: repo,
		TicketRepo:   stubTicketRepo{},
		Clock:        func() time.Time { return now },
	})
	handler := NewSLAHandler(nil, nil, scanner)

	tokens := auth.NewTokenManager("test-secret", 60)
	token, _, err := tokens.GenerateToken("tenant-a")
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/sla/check", auth.NewTenantMiddleware(tokens).Handle, handler.Check)

	req := httptest.NewRequest("POST", "/sla/check", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.InstanceResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Data, 1)
	assert.Equal(t, "inst-a", body.Data[0].ID)
	assert.Equal(t, domain.InstanceStatusBreached, body.Data[0].Status)

	// The sweep itself stays global: the other tenant's instance still
	// transitioned, it just is not reported to this caller.
	other, err := repo.GetByID(context.Background(), "tenant-b", "inst-b")
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceStatusBreached, other.Status)
}
