package service

import (
	"context"

	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/pagination"
)

type AuditListFilter struct {
	EntityType string
	EntityID   string
	Action     string
	Limit      int
	Offset     int
}

// AuditService exposes the read side of the audit trail. Writes only ever
// happen inside the engines' transactions.
type AuditService interface {
	List(ctx context.Context, caller model.UserSummary, filter AuditListFilter) ([]model.AuditLog, int64, error)
}

type auditService struct {
	audit repository.AuditRepository
}

func NewAuditService(audit repository.AuditRepository) AuditService {
	return &auditService{audit: audit}
}

func (s *auditService) List(ctx context.Context, caller model.UserSummary, filter AuditListFilter) ([]model.AuditLog, int64, error) {
	if err := authz.Check(caller, authz.OpListAudit); err != nil {
		return nil, 0, err
	}

	params := pagination.Clamp(filter.Limit, filter.Offset)
	return s.audit.List(ctx, repository.AuditFilter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		Action:     filter.Action,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
}
