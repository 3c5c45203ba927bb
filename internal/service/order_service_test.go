package service

import (
	"errors"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// orderedRequest approves a request, submits two offers and selects the
// first one, leaving the request ready for ordering with known prices.
func (env *testEnv) orderedRequest(t *testing.T, selectIndex int) *model.MaterialRequest {
	t.Helper()
	request := env.approvedRequest(t)
	quotation, err := env.quotations.SubmitOffers(t.Context(), env.procurer, request.ID.String(), twoSupplierOffers())
	if err != nil {
		t.Fatalf("SubmitOffers: %v", err)
	}
	if _, err := env.quotations.SelectOffer(t.Context(), env.procurer, quotation.ID.String(), SelectOfferDTO{OfferIndex: selectIndex}); err != nil {
		t.Fatalf("SelectOffer: %v", err)
	}
	return request
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.approvedRequest(t)

	tests := []struct {
		name string
		dto  CreateOrderDTO
	}{
		{
			name: "blank supplier",
			dto:  CreateOrderDTO{RequestID: request.ID.String(), SupplierName: " ", SelectedItems: []int{0}},
		},
		{
			name: "empty selection",
			dto:  CreateOrderDTO{RequestID: request.ID.String(), SupplierName: "Delta Materials"},
		},
		{
			name: "unknown item index",
			dto:  CreateOrderDTO{RequestID: request.ID.String(), SupplierName: "Delta Materials", SelectedItems: []int{5}},
		},
		{
			name: "duplicate item index",
			dto:  CreateOrderDTO{RequestID: request.ID.String(), SupplierName: "Delta Materials", SelectedItems: []int{0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.Create(ctx, env.procurer, tt.dto)
			if !errors.Is(err, apperrors.InvalidRequest) {
				t.Errorf("got %v, want invalid", err)
			}
		})
	}
}

func TestCreateOrderRequiresApprovedRequest(t *testing.T) {
	env := newTestEnv(t)
	request := env.twoItemRequest(t) // pending_engineer

	_, err := env.orders.Create(t.Context(), env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0},
	})
	if !errors.Is(err, apperrors.InvalidRequest) {
		t.Errorf("order against pending request: got %v, want invalid", err)
	}
}

func TestCreateOrderPricesFromSelectedOffer(t *testing.T) {
	env := newTestEnv(t)
	request := env.orderedRequest(t, 0)

	order, err := env.orders.Create(t.Context(), env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.Status != model.OrderStatusIssued {
		t.Errorf("status: got %s, want %s", order.Status, model.OrderStatusIssued)
	}
	if !strings.HasPrefix(order.OrderNumber, "PO-") || order.OrderSeq != 1 {
		t.Errorf("order number/seq: got %q seq %d", order.OrderNumber, order.OrderSeq)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(order.Items))
	}
	if order.Items[0].UnitPrice == nil || !order.Items[0].UnitPrice.Equal(decimal.NewFromInt(90)) {
		t.Errorf("first item price from selected offer: got %v, want 90", order.Items[0].UnitPrice)
	}
	if order.TotalAmount == nil || !order.TotalAmount.Equal(decimal.NewFromInt(9480)) {
		t.Errorf("order total: got %v, want 9480", order.TotalAmount)
	}
}

func TestCreateOrderFallsBackToCatalogPrice(t *testing.T) {
	env := newTestEnv(t)
	request := env.approvedRequest(t) // no quotation at all

	order, err := env.orders.Create(t.Context(), env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Item 0 links to the catalog entry, item 1 stays unpriced.
	if order.Items[0].UnitPrice == nil || !order.Items[0].UnitPrice.Equal(env.cement.UnitPrice) {
		t.Errorf("catalog price: got %v, want %s", order.Items[0].UnitPrice, env.cement.UnitPrice)
	}
	if order.Items[1].UnitPrice != nil {
		t.Errorf("unlinked item must stay unpriced, got %s", order.Items[1].UnitPrice)
	}
	// 100 bags * 95 = 9500, only the priced item counts.
	if order.TotalAmount == nil || !order.TotalAmount.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("total: got %v, want 9500", order.TotalAmount)
	}
}

func TestEachItemIndexClaimedByOneActiveOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.orderedRequest(t, 0)

	first, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}

	// The same index cannot be ordered twice while the first order lives.
	_, err = env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Hoa Binh Steel",
		SelectedItems: []int{0, 1},
	})
	if !errors.Is(err, apperrors.InvalidRequest) {
		t.Fatalf("double order: got %v, want invalid", err)
	}

	// Cancelling releases the claim.
	if _, err := env.orders.Cancel(ctx, env.procurer, first.ID.String()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Hoa Binh Steel",
		SelectedItems: []int{0, 1},
	}); err != nil {
		t.Fatalf("re-order after cancel: %v", err)
	}
}

func TestRequestStatusTracksOrderCoverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.orderedRequest(t, 0)

	first, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}

	got, err := env.requests.Get(ctx, env.procurer, request.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.RequestStatusPartiallyOrdered {
		t.Errorf("after partial order: got %s, want %s", got.Status, model.RequestStatusPartiallyOrdered)
	}

	if _, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Hoa Binh Steel",
		SelectedItems: []int{1},
	}); err != nil {
		t.Fatalf("second order: %v", err)
	}

	got, err = env.requests.Get(ctx, env.procurer, request.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.RequestStatusOrderIssued {
		t.Errorf("after full coverage: got %s, want %s", got.Status, model.RequestStatusOrderIssued)
	}

	// Cancelling one order rolls the request back to partially ordered.
	if _, err := env.orders.Cancel(ctx, env.procurer, first.ID.String()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, err = env.requests.Get(ctx, env.procurer, request.ID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.RequestStatusPartiallyOrdered {
		t.Errorf("after cancel: got %s, want %s", got.Status, model.RequestStatusPartiallyOrdered)
	}
}

func TestApproveOrderThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	t.Run("below threshold anyone allowed may approve", func(t *testing.T) {
		request := env.orderedRequest(t, 0) // total 9480
		order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
			RequestID:     request.ID.String(),
			SupplierName:  "Delta Materials",
			SelectedItems: []int{0, 1},
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		approved, err := env.orders.Approve(ctx, env.procurer, order.ID.String())
		if err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if approved.Status != model.OrderStatusApproved {
			t.Errorf("status: got %s, want approved", approved.Status)
		}
		if approved.ApprovedByID == nil || *approved.ApprovedByID != env.procurer.ID {
			t.Errorf("approver not recorded")
		}
	})

	t.Run("above threshold needs the general manager", func(t *testing.T) {
		request := env.orderedRequest(t, 1) // total 10260
		order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
			RequestID:     request.ID.String(),
			SupplierName:  "Hoa Binh Steel",
			SelectedItems: []int{0, 1},
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		_, err = env.orders.Approve(ctx, env.procurer, order.ID.String())
		if !errors.Is(err, apperrors.PermissionDenied) {
			t.Fatalf("procurer above threshold: got %v, want permission denied", err)
		}

		approved, err := env.orders.Approve(ctx, env.manager, order.ID.String())
		if err != nil {
			t.Fatalf("general manager approve: %v", err)
		}
		if approved.Status != model.OrderStatusApproved {
			t.Errorf("status: got %s, want approved", approved.Status)
		}
	})

	t.Run("double approve", func(t *testing.T) {
		request := env.orderedRequest(t, 0)
		order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
			RequestID:     request.ID.String(),
			SupplierName:  "Delta Materials",
			SelectedItems: []int{0, 1},
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := env.orders.Approve(ctx, env.procurer, order.ID.String()); err != nil {
			t.Fatalf("first approve: %v", err)
		}
		_, err = env.orders.Approve(ctx, env.procurer, order.ID.String())
		if !errors.Is(err, apperrors.InvalidRequest) {
			t.Errorf("second approve: got %v, want invalid", err)
		}
	})
}

func TestCancelOrderTerminalStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.orderedRequest(t, 0)

	order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.orders.Cancel(ctx, env.procurer, order.ID.String()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Cancelled is terminal.
	if _, err := env.orders.Cancel(ctx, env.procurer, order.ID.String()); !errors.Is(err, apperrors.InvalidRequest) {
		t.Errorf("cancel cancelled: got %v, want invalid", err)
	}
	if _, err := env.orders.Approve(ctx, env.procurer, order.ID.String()); !errors.Is(err, apperrors.InvalidRequest) {
		t.Errorf("approve cancelled: got %v, want invalid", err)
	}
}

func TestUpdateSupplierInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.orderedRequest(t, 0)

	order, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("only the delivery tracker", func(t *testing.T) {
		_, err := env.orders.UpdateSupplierInvoice(ctx, env.procurer, order.ID.String(), UpdateSupplierInvoiceDTO{SupplierInvoiceNumber: "INV-77"})
		if !errors.Is(err, apperrors.PermissionDenied) {
			t.Errorf("procurer: got %v, want permission denied", err)
		}
	})

	t.Run("blank invoice number", func(t *testing.T) {
		_, err := env.orders.UpdateSupplierInvoice(ctx, env.tracker, order.ID.String(), UpdateSupplierInvoiceDTO{SupplierInvoiceNumber: "  "})
		if !errors.Is(err, apperrors.InvalidRequest) {
			t.Errorf("blank: got %v, want invalid", err)
		}
	})

	t.Run("records the number", func(t *testing.T) {
		got, err := env.orders.UpdateSupplierInvoice(ctx, env.tracker, order.ID.String(), UpdateSupplierInvoiceDTO{SupplierInvoiceNumber: "INV-77"})
		if err != nil {
			t.Fatalf("UpdateSupplierInvoice: %v", err)
		}
		if got.SupplierInvoiceNumber != "INV-77" {
			t.Errorf("invoice number: got %q", got.SupplierInvoiceNumber)
		}
	})
}

func TestOrderNumbersAreGloballySequential(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	firstRequest := env.orderedRequest(t, 0)
	secondRequest := env.orderedRequest(t, 0)

	first, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     firstRequest.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	second, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     secondRequest.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("second order: %v", err)
	}

	if first.OrderNumber != "PO-00000001" || second.OrderNumber != "PO-00000002" {
		t.Errorf("order numbers: got %q then %q", first.OrderNumber, second.OrderNumber)
	}
}

func TestListOrdersByRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	request := env.orderedRequest(t, 0)

	if _, err := env.orders.Create(ctx, env.procurer, CreateOrderDTO{
		RequestID:     request.ID.String(),
		SupplierName:  "Delta Materials",
		SelectedItems: []int{0},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, total, err := env.orders.List(ctx, env.procurer, OrderListFilter{RequestID: request.ID.String()})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("got %d rows (total %d), want 1", len(list), total)
	}
}
