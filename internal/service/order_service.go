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

type CreateOrderDTO struct {
	RequestID     string `json:"request_id" binding:"required"`
	SupplierName  string `json:"supplier_name" binding:"required"`
	SelectedItems []int  `json:"selected_items"`
	Notes         string `json:"notes"`
}

type UpdateSupplierInvoiceDTO struct {
	SupplierInvoiceNumber string `json:"supplier_invoice_number" binding:"required"`
}

type OrderListFilter struct {
	Status    string
	RequestID string
	Limit     int
	Offset    int
}

// --- Interface ---

// OrderService is the purchase-order derivation engine: it converts a
// request's items into orders, enforcing that each item index is claimed
// by at most one active order, and keeps the originating request's status
// in step with the union of its active orders.
type OrderService interface {
	Create(ctx context.Context, caller model.UserSummary, req CreateOrderDTO) (*model.PurchaseOrder, error)
	Approve(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error)
	Cancel(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error)
	UpdateSupplierInvoice(ctx context.Context, caller model.UserSummary, orderID string, req UpdateSupplierInvoiceDTO) (*model.PurchaseOrder, error)
	Get(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error)
	List(ctx context.Context, caller model.UserSummary, filter OrderListFilter) ([]model.PurchaseOrder, int64, error)
}

type orderService struct {
	txManager  repository.TransactionManager
	orders     repository.OrderRepository
	requests   repository.RequestRepository
	quotations repository.QuotationRepository
	catalog    repository.CatalogRepository
	sequences  repository.SequenceRepository
	audit      repository.AuditRepository
	hub        *websocket.Hub

	// Orders above this total require general_manager approval.
	approvalThreshold decimal.Decimal
}

func NewOrderService(
	txManager repository.TransactionManager,
	orders repository.OrderRepository,
	requests repository.RequestRepository,
	quotations repository.QuotationRepository,
	catalog repository.CatalogRepository,
	sequences repository.SequenceRepository,
	audit repository.AuditRepository,
	hub *websocket.Hub,
	approvalThreshold decimal.Decimal,
) OrderService {
	return &orderService{
		txManager:         txManager,
		orders:            orders,
		requests:          requests,
		quotations:        quotations,
		catalog:           catalog,
		sequences:         sequences,
		audit:             audit,
		hub:               hub,
		approvalThreshold: approvalThreshold,
	}
}

// --- Implementation ---

func (s *orderService) Create(ctx context.Context, caller model.UserSummary, req CreateOrderDTO) (*model.PurchaseOrder, error) {
	if err := authz.Check(caller, authz.OpCreateOrder); err != nil {
		return nil, err
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid request id: %s", req.RequestID)
	}
	if strings.TrimSpace(req.SupplierName) == "" {
		return nil, apperrors.Invalidf("supplier_name must not be blank")
	}
	if len(req.SelectedItems) == 0 {
		return nil, apperrors.Invalidf("selected_items must not be empty")
	}

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The locked read serializes concurrent order mutations for this
		// request, so the active-order set below cannot change under us.
		request, findErr := s.requests.GetByIDForUpdate(txCtx, requestID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("request %s not found", requestID)
		} else if findErr != nil {
			return findErr
		}

		if request.Status != model.RequestStatusApproved && request.Status != model.RequestStatusPartiallyOrdered {
			return apperrors.Invalidf("request %s does not permit ordering in status %s", request.RequestNumber, request.Status)
		}

		itemByIndex := make(map[int]model.MaterialRequestItem, len(request.Items))
		for _, item := range request.Items {
			itemByIndex[item.ItemIndex] = item
		}

		selected := make(map[int]bool, len(req.SelectedItems))
		for _, index := range req.SelectedItems {
			if _, ok := itemByIndex[index]; !ok {
				return apperrors.Invalidf("item index %d does not exist on request %s", index, request.RequestNumber)
			}
			if selected[index] {
				return apperrors.Invalidf("duplicate item index %d in selection", index)
			}
			selected[index] = true
		}

		activeOrders, listErr := s.orders.ListActiveByRequest(txCtx, request.ID)
		if listErr != nil {
			return listErr
		}
		for _, active := range activeOrders {
			for _, item := range active.Items {
				if selected[item.ItemIndex] {
					return apperrors.Invalidf("item index %d is already ordered on %s", item.ItemIndex, active.OrderNumber)
				}
			}
		}

		seq, seqErr := s.sequences.Next(txCtx, model.SequenceScopeOrders)
		if seqErr != nil {
			return fmt.Errorf("failed to allocate order sequence: %w", seqErr)
		}

		priceByIndex, priceErr := s.resolveUnitPrices(txCtx, request)
		if priceErr != nil {
			return priceErr
		}

		items := make([]model.PurchaseOrderItem, 0, len(req.SelectedItems))
		total := decimal.Zero
		priced := false
		for _, index := range req.SelectedItems {
			source := itemByIndex[index]
			orderItem := model.PurchaseOrderItem{
				ItemIndex:     index,
				Name:          source.Name,
				Quantity:      source.Quantity,
				Unit:          source.Unit,
				CatalogItemID: source.CatalogItemID,
				ItemCode:      source.ItemCode,
			}
			if price, ok := priceByIndex[index]; ok {
				p := price
				orderItem.UnitPrice = &p
				total = total.Add(price.Mul(decimal.NewFromInt(int64(source.Quantity))))
				priced = true
			}
			items = append(items, orderItem)
		}

		order = &model.PurchaseOrder{
			OrderNumber:   fmt.Sprintf("PO-%08d", seq),
			OrderSeq:      seq,
			RequestID:     request.ID,
			RequestNumber: request.RequestNumber,
			SupplierName:  strings.TrimSpace(req.SupplierName),
			Status:        model.OrderStatusIssued,
			Notes:         req.Notes,
			Items:         items,
			CreatedByID:   caller.ID,
			CreatedByName: caller.Name,
		}
		if priced {
			order.TotalAmount = &total
		}
		if createErr := s.orders.Create(txCtx, order); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		if statusErr := s.recomputeRequestStatus(txCtx, request); statusErr != nil {
			return statusErr
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"order_number":   order.OrderNumber,
			"request_number": request.RequestNumber,
			"supplier_name":  order.SupplierName,
			"selected_items": req.SelectedItems,
			"request_status": request.Status,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityPurchaseOrder,
			EntityID:    order.ID.String(),
			Action:      model.ActionCreateOrder,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "purchase order " + order.OrderNumber + " created from " + request.RequestNumber,
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityPurchaseOrder, order.ID.String(), model.ActionCreateOrder)
	return order, nil
}

// resolveUnitPrices builds the unit-price snapshot source for a request:
// the selected quotation offer wins, then the item's catalog link, else
// the item stays unpriced.
func (s *orderService) resolveUnitPrices(ctx context.Context, request *model.MaterialRequest) (map[int]decimal.Decimal, error) {
	prices := make(map[int]decimal.Decimal, len(request.Items))

	quotation, err := s.quotations.GetByRequestID(ctx, request.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no comparison for this request
	case err != nil:
		return nil, err
	default:
		if quotation.Status == model.QuotationStatusSelected && quotation.SelectedOfferIndex != nil {
			for _, offer := range quotation.Offers {
				if offer.OfferIndex != *quotation.SelectedOfferIndex {
					continue
				}
				for _, item := range offer.Items {
					prices[item.ItemIndex] = item.UnitPrice
				}
			}
		}
	}

	for _, item := range request.Items {
		if _, ok := prices[item.ItemIndex]; ok {
			continue
		}
		if item.CatalogItemID == nil {
			continue
		}
		catalogItem, catErr := s.catalog.GetByID(ctx, *item.CatalogItemID)
		if errors.Is(catErr, gorm.ErrRecordNotFound) {
			continue
		} else if catErr != nil {
			return nil, catErr
		}
		prices[item.ItemIndex] = catalogItem.UnitPrice
	}
	return prices, nil
}

// recomputeRequestStatus derives the request's ordering status from the
// union of all its active orders' item indices and saves the request.
// Runs inside the same transaction as the order mutation that triggered it.
func (s *orderService) recomputeRequestStatus(ctx context.Context, request *model.MaterialRequest) error {
	activeOrders, err := s.orders.ListActiveByRequest(ctx, request.ID)
	if err != nil {
		return err
	}

	covered := make(map[int]bool)
	for _, order := range activeOrders {
		for _, item := range order.Items {
			covered[item.ItemIndex] = true
		}
	}

	switch {
	case len(covered) == 0:
		request.Status = model.RequestStatusApproved
	case len(covered) == len(request.Items):
		request.Status = model.RequestStatusOrderIssued
	default:
		request.Status = model.RequestStatusPartiallyOrdered
	}

	if err := s.requests.Save(ctx, request); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return nil
}

func (s *orderService) Approve(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error) {
	if err := authz.Check(caller, authz.OpApproveOrder); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.orders.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("order %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		order = found

		if model.IsTerminalOrderStatus(order.Status) {
			return apperrors.Invalidf("order %s is already %s", order.OrderNumber, order.Status)
		}
		if order.Status != model.OrderStatusIssued {
			return apperrors.Invalidf("order %s cannot be approved from status %s", order.OrderNumber, order.Status)
		}

		// Above the threshold only the general manager may approve.
		if order.TotalAmount != nil && order.TotalAmount.GreaterThan(s.approvalThreshold) &&
			caller.Role != model.RoleGeneralManager {
			return apperrors.PermissionDeniedf("order %s exceeds the approval threshold and requires general manager approval", order.OrderNumber)
		}

		now := time.Now()
		order.Status = model.OrderStatusApproved
		order.ApprovedByID = &caller.ID
		order.ApprovedAt = &now
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to approve order: %w", saveErr)
		}

		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityPurchaseOrder,
			EntityID:    order.ID.String(),
			Action:      model.ActionApproveOrder,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "purchase order " + order.OrderNumber + " approved",
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityPurchaseOrder, order.ID.String(), model.ActionApproveOrder)
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error) {
	if err := authz.Check(caller, authz.OpCancelOrder); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.orders.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("order %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		order = found

		if model.IsTerminalOrderStatus(order.Status) {
			return apperrors.Invalidf("order %s is already %s", order.OrderNumber, order.Status)
		}

		order.Status = model.OrderStatusCancelled
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to cancel order: %w", saveErr)
		}

		// Cancelling releases the order's claim on the request's items.
		// Locked read: the recomputation below must not race a concurrent
		// order creation for the same request.
		request, findErr := s.requests.GetByIDForUpdate(txCtx, order.RequestID)
		if findErr != nil {
			return findErr
		}
		if statusErr := s.recomputeRequestStatus(txCtx, request); statusErr != nil {
			return statusErr
		}

		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityPurchaseOrder,
			EntityID:    order.ID.String(),
			Action:      model.ActionCancelOrder,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "purchase order " + order.OrderNumber + " cancelled",
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityPurchaseOrder, order.ID.String(), model.ActionCancelOrder)
	return order, nil
}

func (s *orderService) UpdateSupplierInvoice(ctx context.Context, caller model.UserSummary, orderID string, req UpdateSupplierInvoiceDTO) (*model.PurchaseOrder, error) {
	if err := authz.Check(caller, authz.OpUpdateSupplierInvoice); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}
	if strings.TrimSpace(req.SupplierInvoiceNumber) == "" {
		return nil, apperrors.Invalidf("supplier_invoice_number must not be blank")
	}

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.orders.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("order %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		order = found

		if order.Status == model.OrderStatusCancelled {
			return apperrors.Invalidf("order %s is cancelled", order.OrderNumber)
		}

		order.SupplierInvoiceNumber = strings.TrimSpace(req.SupplierInvoiceNumber)
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update supplier invoice: %w", saveErr)
		}

		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityPurchaseOrder,
			EntityID:    order.ID.String(),
			Action:      model.ActionUpdateSupplierInvoice,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "supplier invoice recorded on " + order.OrderNumber,
		})
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) Get(ctx context.Context, caller model.UserSummary, orderID string) (*model.PurchaseOrder, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}

	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("order %s not found", id)
	} else if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, caller model.UserSummary, filter OrderListFilter) ([]model.PurchaseOrder, int64, error) {
	params := pagination.Clamp(filter.Limit, filter.Offset)
	repoFilter := repository.OrderFilter{
		Status: filter.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if filter.RequestID != "" {
		requestID, err := uuid.Parse(filter.RequestID)
		if err != nil {
			return nil, 0, apperrors.Invalidf("invalid request_id: %s", filter.RequestID)
		}
		repoFilter.RequestID = &requestID
	}
	return s.orders.List(ctx, repoFilter)
}
