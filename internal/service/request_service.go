package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperrors"
	"backend/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type RequestItemDTO struct {
	Name           string           `json:"name" binding:"required"`
	Quantity       int              `json:"quantity" binding:"required"`
	Unit           string           `json:"unit"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
	CatalogItemID  *string          `json:"catalog_item_id"`
}

type CreateRequestDTO struct {
	ProjectID            string           `json:"project_id" binding:"required"`
	EngineerID           string           `json:"engineer_id" binding:"required"`
	Reason               string           `json:"reason"`
	ExpectedDeliveryDate *time.Time       `json:"expected_delivery_date"`
	Items                []RequestItemDTO `json:"items"`
}

type DecideRequestDTO struct {
	Decision        string `json:"decision" binding:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason"`
}

type RequestListFilter struct {
	Status       string
	ProjectID    string
	SupervisorID string
	EngineerID   string
	Limit        int
	Offset       int
}

// --- Interface ---

// RequestService is the request lifecycle engine: it validates and
// transitions material requests through their state machine.
type RequestService interface {
	Create(ctx context.Context, caller model.UserSummary, req CreateRequestDTO) (*model.MaterialRequest, error)
	Decide(ctx context.Context, caller model.UserSummary, requestID string, req DecideRequestDTO) (*model.MaterialRequest, error)
	Get(ctx context.Context, caller model.UserSummary, requestID string) (*model.MaterialRequest, error)
	List(ctx context.Context, caller model.UserSummary, filter RequestListFilter) ([]model.MaterialRequest, int64, error)
}

type requestService struct {
	txManager repository.TransactionManager
	requests  repository.RequestRepository
	projects  repository.ProjectRepository
	users     repository.UserRepository
	catalog   repository.CatalogRepository
	sequences repository.SequenceRepository
	audit     repository.AuditRepository
	hub       *websocket.Hub
}

func NewRequestService(
	txManager repository.TransactionManager,
	requests repository.RequestRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	sequences repository.SequenceRepository,
	audit repository.AuditRepository,
	hub *websocket.Hub,
) RequestService {
	return &requestService{
		txManager: txManager,
		requests:  requests,
		projects:  projects,
		users:     users,
		catalog:   catalog,
		sequences: sequences,
		audit:     audit,
		hub:       hub,
	}
}

// --- Implementation ---

// requestNumberPrefix derives the human-facing prefix for a supervisor's
// request numbers. The sequence itself is per supervisor and monotonic.
func requestNumberPrefix(supervisorID uuid.UUID) string {
	compact := strings.ReplaceAll(supervisorID.String(), "-", "")
	return "MR-" + strings.ToUpper(compact[:6]) + "-"
}

func (s *requestService) Create(ctx context.Context, caller model.UserSummary, req CreateRequestDTO) (*model.MaterialRequest, error) {
	if err := authz.Check(caller, authz.OpCreateRequest); err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, apperrors.Invalidf("request must contain at least one item")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, apperrors.Invalidf("item %d: name must not be blank", i)
		}
		if item.Quantity <= 0 {
			return nil, apperrors.Invalidf("item %d: quantity must be greater than zero", i)
		}
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid project_id: %s", req.ProjectID)
	}
	engineerID, err := uuid.Parse(req.EngineerID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid engineer_id: %s", req.EngineerID)
	}

	var request *model.MaterialRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		project, findErr := s.projects.GetByID(txCtx, projectID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("project %s not found", projectID)
		} else if findErr != nil {
			return findErr
		}

		engineer, findErr := s.users.GetByID(txCtx, engineerID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("engineer %s not found", engineerID)
		} else if findErr != nil {
			return findErr
		}
		if engineer.Role != model.RoleEngineer {
			return apperrors.Invalidf("user %s is not an engineer", engineerID)
		}

		seq, seqErr := s.sequences.Next(txCtx, model.SequenceScopeRequestPrefix+caller.ID.String())
		if seqErr != nil {
			return fmt.Errorf("failed to allocate request sequence: %w", seqErr)
		}

		items := make([]model.MaterialRequestItem, 0, len(req.Items))
		for i, item := range req.Items {
			modelItem := model.MaterialRequestItem{
				ItemIndex:      i,
				Name:           strings.TrimSpace(item.Name),
				Quantity:       item.Quantity,
				Unit:           item.Unit,
				EstimatedPrice: item.EstimatedPrice,
			}
			if item.CatalogItemID != nil && *item.CatalogItemID != "" {
				catalogID, parseErr := uuid.Parse(*item.CatalogItemID)
				if parseErr != nil {
					return apperrors.Invalidf("item %d: invalid catalog_item_id", i)
				}
				catalogItem, catErr := s.catalog.GetByID(txCtx, catalogID)
				if errors.Is(catErr, gorm.ErrRecordNotFound) {
					return apperrors.NotFoundf("catalog item %s not found", catalogID)
				} else if catErr != nil {
					return catErr
				}
				modelItem.CatalogItemID = &catalogItem.ID
				modelItem.ItemCode = catalogItem.ItemCode
			}
			items = append(items, modelItem)
		}

		request = &model.MaterialRequest{
			RequestNumber:        fmt.Sprintf("%s%d", requestNumberPrefix(caller.ID), seq),
			RequestSeq:           seq,
			SupervisorID:         caller.ID,
			SupervisorName:       caller.Name,
			EngineerID:           engineer.ID,
			EngineerName:         engineer.Username,
			ProjectID:            project.ID,
			ProjectName:          project.Name,
			Reason:               req.Reason,
			Status:               model.RequestStatusPendingEngineer,
			ExpectedDeliveryDate: req.ExpectedDeliveryDate,
			Items:                items,
		}
		if createErr := s.requests.Create(txCtx, request); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"request_number": request.RequestNumber,
			"project_id":     project.ID.String(),
			"engineer_id":    engineer.ID.String(),
			"item_count":     len(items),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityMaterialRequest,
			EntityID:    request.ID.String(),
			Action:      model.ActionCreateRequest,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "material request " + request.RequestNumber + " created",
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityMaterialRequest, request.ID.String(), model.ActionCreateRequest)
	return request, nil
}

func (s *requestService) Decide(ctx context.Context, caller model.UserSummary, requestID string, req DecideRequestDTO) (*model.MaterialRequest, error) {
	if err := authz.Check(caller, authz.OpDecideRequest); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid request id: %s", requestID)
	}
	if req.Decision != "approve" && req.Decision != "reject" {
		return nil, apperrors.Invalidf("decision must be approve or reject, got %q", req.Decision)
	}
	if req.Decision == "reject" && strings.TrimSpace(req.RejectionReason) == "" {
		return nil, apperrors.Invalidf("rejection requires a reason")
	}

	var request *model.MaterialRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.requests.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("request %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		request = found

		if request.EngineerID != caller.ID {
			return apperrors.PermissionDeniedf("only the assigned engineer may decide request %s", request.RequestNumber)
		}
		if request.Status != model.RequestStatusPendingEngineer {
			return apperrors.Invalidf("request %s is already %s", request.RequestNumber, request.Status)
		}

		fromStatus := request.Status
		action := model.ActionApproveRequest
		if req.Decision == "approve" {
			request.Status = model.RequestStatusApproved
		} else {
			request.Status = model.RequestStatusRejected
			request.RejectionReason = strings.TrimSpace(req.RejectionReason)
			action = model.ActionRejectRequest
		}

		if saveErr := s.requests.Save(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"from_status": fromStatus,
			"to_status":   request.Status,
			"reason":      request.RejectionReason,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityMaterialRequest,
			EntityID:    request.ID.String(),
			Action:      action,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "material request " + request.RequestNumber + " " + request.Status,
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	action := model.ActionApproveRequest
	if request.Status == model.RequestStatusRejected {
		action = model.ActionRejectRequest
	}
	s.hub.Notify(model.EntityMaterialRequest, request.ID.String(), action)
	return request, nil
}

func (s *requestService) Get(ctx context.Context, caller model.UserSummary, requestID string) (*model.MaterialRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid request id: %s", requestID)
	}

	request, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("request %s not found", id)
	} else if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleSupervisor:
		if request.SupervisorID != caller.ID {
			return nil, apperrors.NotFoundf("request %s not found", id)
		}
	case model.RoleEngineer:
		if request.EngineerID != caller.ID {
			return nil, apperrors.NotFoundf("request %s not found", id)
		}
	}
	return request, nil
}

// List applies the caller's role scope on top of the supplied filters.
// The scope always wins: a supervisor only ever sees their own requests
// and an engineer only requests assigned to them, whatever filter values
// the caller supplied for those fields.
func (s *requestService) List(ctx context.Context, caller model.UserSummary, filter RequestListFilter) ([]model.MaterialRequest, int64, error) {
	if err := authz.Check(caller, authz.OpListRequests); err != nil {
		return nil, 0, err
	}

	params := pagination.Clamp(filter.Limit, filter.Offset)
	repoFilter := repository.RequestFilter{
		Status: filter.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	}

	if filter.ProjectID != "" {
		projectID, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, apperrors.Invalidf("invalid project_id: %s", filter.ProjectID)
		}
		repoFilter.ProjectID = &projectID
	}

	switch caller.Role {
	case model.RoleSupervisor:
		id := caller.ID
		repoFilter.SupervisorID = &id
	case model.RoleEngineer:
		id := caller.ID
		repoFilter.EngineerID = &id
	default:
		if filter.SupervisorID != "" {
			supervisorID, err := uuid.Parse(filter.SupervisorID)
			if err != nil {
				return nil, 0, apperrors.Invalidf("invalid supervisor_id: %s", filter.SupervisorID)
			}
			repoFilter.SupervisorID = &supervisorID
		}
		if filter.EngineerID != "" {
			engineerID, err := uuid.Parse(filter.EngineerID)
			if err != nil {
				return nil, 0, apperrors.Invalidf("invalid engineer_id: %s", filter.EngineerID)
			}
			repoFilter.EngineerID = &engineerID
		}
	}

	return s.requests.List(ctx, repoFilter)
}
