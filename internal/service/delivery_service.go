package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type DeliveryItemDTO struct {
	OrderItemID       string `json:"item_id" binding:"required"`
	QuantityDelivered int    `json:"quantity_delivered" binding:"required"`
}

type ConfirmReceiptDTO struct {
	SupplierReceiptNumber string            `json:"supplier_receipt_number" binding:"required"`
	Items                 []DeliveryItemDTO `json:"items"`
	Notes                 string            `json:"notes"`
}

// --- Interface ---

// DeliveryService is the delivery reconciliation engine: it records
// partial or complete receipt of ordered items, rejecting any line that
// would push an item's cumulative delivered quantity past its ordered
// quantity.
type DeliveryService interface {
	ConfirmReceipt(ctx context.Context, caller model.UserSummary, orderID string, req ConfirmReceiptDTO) (*model.PurchaseOrder, error)
	ListByOrder(ctx context.Context, caller model.UserSummary, orderID string) ([]model.DeliveryRecord, error)
}

type deliveryService struct {
	txManager  repository.TransactionManager
	deliveries repository.DeliveryRepository
	orders     repository.OrderRepository
	audit      repository.AuditRepository
	hub        *websocket.Hub
}

func NewDeliveryService(
	txManager repository.TransactionManager,
	deliveries repository.DeliveryRepository,
	orders repository.OrderRepository,
	audit repository.AuditRepository,
	hub *websocket.Hub,
) DeliveryService {
	return &deliveryService{
		txManager:  txManager,
		deliveries: deliveries,
		orders:     orders,
		audit:      audit,
		hub:        hub,
	}
}

// --- Implementation ---

func (s *deliveryService) ConfirmReceipt(ctx context.Context, caller model.UserSummary, orderID string, req ConfirmReceiptDTO) (*model.PurchaseOrder, error) {
	if err := authz.Check(caller, authz.OpConfirmReceipt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}
	if strings.TrimSpace(req.SupplierReceiptNumber) == "" {
		return nil, apperrors.Invalidf("supplier_receipt_number must not be blank")
	}
	if len(req.Items) == 0 {
		return nil, apperrors.Invalidf("delivery must contain at least one item")
	}

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The locked read serializes concurrent confirmations for this
		// order; the remaining-quantity arithmetic below relies on it.
		found, findErr := s.orders.GetByIDForUpdate(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("order %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		order = found

		if model.IsTerminalOrderStatus(order.Status) {
			return apperrors.Invalidf("order %s does not accept deliveries in status %s", order.OrderNumber, order.Status)
		}

		itemByID := make(map[uuid.UUID]*model.PurchaseOrderItem, len(order.Items))
		for i := range order.Items {
			itemByID[order.Items[i].ID] = &order.Items[i]
		}

		deliveryItems := make([]model.DeliveryItem, 0, len(req.Items))
		for i, line := range req.Items {
			itemID, parseErr := uuid.Parse(line.OrderItemID)
			if parseErr != nil {
				return apperrors.Invalidf("delivery line %d: invalid item_id", i)
			}
			orderItem, ok := itemByID[itemID]
			if !ok {
				return apperrors.Invalidf("delivery line %d: item %s does not belong to order %s", i, itemID, order.OrderNumber)
			}
			if line.QuantityDelivered <= 0 {
				return apperrors.Invalidf("delivery line %d: quantity_delivered must be greater than zero", i)
			}
			// Over-delivery is rejected outright, never clamped.
			remaining := orderItem.Quantity - orderItem.DeliveredQuantity
			if line.QuantityDelivered > remaining {
				return apperrors.Invalidf(
					"delivery line %d: quantity %d exceeds remaining %d for item %s",
					i, line.QuantityDelivered, remaining, orderItem.Name)
			}

			orderItem.DeliveredQuantity += line.QuantityDelivered
			deliveryItems = append(deliveryItems, model.DeliveryItem{
				OrderItemID:       orderItem.ID,
				QuantityDelivered: line.QuantityDelivered,
			})
		}

		record := &model.DeliveryRecord{
			OrderID:               order.ID,
			SupplierReceiptNumber: strings.TrimSpace(req.SupplierReceiptNumber),
			Notes:                 req.Notes,
			Items:                 deliveryItems,
			CreatedByID:           caller.ID,
			CreatedByName:         caller.Name,
		}
		if createErr := s.deliveries.Create(txCtx, record); createErr != nil {
			return fmt.Errorf("failed to create delivery record: %w", createErr)
		}

		fullyDelivered := true
		for i := range order.Items {
			if saveErr := s.orders.SaveItem(txCtx, &order.Items[i]); saveErr != nil {
				return fmt.Errorf("failed to update order item: %w", saveErr)
			}
			if order.Items[i].DeliveredQuantity < order.Items[i].Quantity {
				fullyDelivered = false
			}
		}

		if fullyDelivered {
			order.Status = model.OrderStatusDelivered
		} else {
			order.Status = model.OrderStatusPartiallyDelivered
		}
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order status: %w", saveErr)
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"supplier_receipt_number": record.SupplierReceiptNumber,
			"line_count":              len(deliveryItems),
			"order_status":            order.Status,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityDeliveryRecord,
			EntityID:    record.ID.String(),
			Action:      model.ActionConfirmReceipt,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "receipt confirmed for order " + order.OrderNumber,
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityPurchaseOrder, order.ID.String(), model.ActionConfirmReceipt)
	return order, nil
}

func (s *deliveryService) ListByOrder(ctx context.Context, caller model.UserSummary, orderID string) ([]model.DeliveryRecord, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid order id: %s", orderID)
	}
	return s.deliveries.ListByOrder(ctx, id)
}
