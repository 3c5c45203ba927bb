package service

import (
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// TestSplitOrderLifecycle drives a two-item request through two separate
// orders from different suppliers, then delivers the first order completely.
func TestSplitOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	request, err := env.requests.Create(ctx, env.supervisor, CreateRequestDTO{
		ProjectID:  env.project.ID.String(),
		EngineerID: env.engineer.ID.String(),
		Items: []RequestItemDTO{
			{Name: "Gravel", Quantity: 5, Unit: "ton"},
			{Name: "Sand", Quantity: 3, Unit: "ton"},
		},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := env.requests.Decide(ctx, env.engineer, request.ID.String(), DecideRequestDTO{Decision: "approve"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	first, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	got, _ := env.requests.Get(ctx, env.procurer, request.ID.String())
	if got.Status != model.RequestStatusPartiallyOrdered {
		t.Fatalf("after first order: got %s, want %s", got.Status, model.RequestStatusPartiallyOrdered)
	}

	if _, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Hoa Binh Steel",
		SelectedItems: []int{1},
	}); err != nil {
		t.Fatalf("second order: %v", err)
	}
	got, _ = env.requests.Get(ctx, env.procurer, request.ID.String())
	if got.Status != model.RequestStatusOrderIssued {
		t.Fatalf("after second order: got %s, want %s", got.Status, model.RequestStatusOrderIssued)
	}

	// Delivering the full 5 tons closes the first order.
	delivered, err := env.deliveries.ConfirmReceipt(ctx, env.tracker, first.ID.String(), ConfirmReceiptDTO{
		SupplierReceiptNumber: "GRN-5",
		Items:                 []DeliveryItemDTO{{OrderItemID: first.Items[0].ID.String(), QuantityDelivered: 5}},
	})
	if err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}
	if delivered.Status != model.OrderStatusDelivered {
		t.Fatalf("first order after delivery: got %s, want %s", delivered.Status, model.OrderStatusDelivered)
	}
}

// TestInvalidCreateLeavesNoRows verifies that a request rejected during
// validation never touches storage.
func TestInvalidCreateLeavesNoRows(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.Create(t.Context(), env.supervisor, CreateRequestDTO{
		ProjectID:  env.project.ID.String(),
		EngineerID: env.engineer.ID.String(),
		Items:      []RequestItemDTO{{Name: "Gravel", Quantity: 0}},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var count int64
	if err := env.db.Model(&model.MaterialRequest{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("rejected creation persisted %d request rows", count)
	}
}

// TestFullProcurementLifecycle walks one request from creation to full
// delivery: supervisor submits, engineer approves, procurement compares
// offers and selects one, issues an order for everything, the manager
// approves it and the tracker confirms receipt in two shipments.
func TestFullProcurementLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	request := env.twoItemRequest(t)
	if request.Status != model.RequestStatusPendingEngineer {
		t.Fatalf("new request status: %s", request.Status)
	}

	if _, err := env.requests.Decide(ctx, env.engineer, request.ID.String(), DecideRequestDTO{Decision: "approve"}); err != nil {
		t.Fatalf("engineer approve: %v", err)
	}

	quotation, err := env.quotations.SubmitOffers(ctx, env.procurer, request.ID.String(), twoSupplierOffers())
	if err != nil {
		t.Fatalf("submit offers: %v", err)
	}
	if _, err := env.quotations.SelectOffer(ctx, env.procurer, quotation.ID.String(), SelectOfferDTO{OfferIndex: 0}); err != nil {
		t.Fatalf("select offer: %v", err)
	}

	order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TotalAmount == nil || !order.TotalAmount.Equal(decimal.NewFromInt(9480)) {
		t.Fatalf("order total: got %v, want 9480", order.TotalAmount)
	}

	got, err := env.requests.Get(ctx, env.supervisor, request.ID.String())
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if got.Status != model.RequestStatusOrderIssued {
		t.Fatalf("request after full order: got %s, want %s", got.Status, model.RequestStatusOrderIssued)
	}

	if _, err := env.orders.Approve(ctx, env.procurer, order.ID.String()); err != nil {
		t.Fatalf("approve order: %v", err)
	}

	partial, err := env.deliveries.ConfirmReceipt(ctx, env.tracker, order.ID.String(), ConfirmReceiptDTO{
		SupplierReceiptNumber: "GRN-100",
		Items:                 []DeliveryItemDTO{{OrderItemID: order.Items[0].ID.String(), QuantityDelivered: 100}},
	})
	if err != nil {
		t.Fatalf("first receipt: %v", err)
	}
	if partial.Status != model.OrderStatusPartiallyDelivered {
		t.Fatalf("after first receipt: got %s", partial.Status)
	}

	final, err := env.deliveries.ConfirmReceipt(ctx, env.tracker, order.ID.String(), ConfirmReceiptDTO{
		SupplierReceiptNumber: "GRN-101",
		Items:                 []DeliveryItemDTO{{OrderItemID: order.Items[1].ID.String(), QuantityDelivered: 40}},
	})
	if err != nil {
		t.Fatalf("second receipt: %v", err)
	}
	if final.Status != model.OrderStatusDelivered {
		t.Fatalf("after second receipt: got %s", final.Status)
	}

	// Every step above left its audit row.
	logs, total, err := env.auditSvc.List(ctx, env.admin, AuditListFilter{})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if total < 7 {
		t.Fatalf("audit rows: got %d, want at least 7", total)
	}
	actions := make(map[string]bool, len(logs))
	for _, entry := range logs {
		actions[entry.Action] = true
	}
	for _, want := range []string{
		model.ActionCreateRequest,
		model.ActionApproveRequest,
		model.ActionSubmitOffers,
		model.ActionSelectOffer,
		model.ActionCreateOrder,
		model.ActionApproveOrder,
		model.ActionConfirmReceipt,
	} {
		if !actions[want] {
			t.Errorf("audit trail missing action %s", want)
		}
	}
}
