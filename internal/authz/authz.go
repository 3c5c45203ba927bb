package authz

import (
	"backend/internal/model"
	"backend/pkg/apperrors"
)

// Operation identifies one core operation for authorization purposes.
type Operation string

const (
	OpCreateRequest Operation = "create_request"
	OpListRequests  Operation = "list_requests"
	OpDecideRequest Operation = "decide_request"

	OpSubmitOffers Operation = "submit_offers"
	OpSelectOffer  Operation = "select_offer"

	OpCreateOrder           Operation = "create_order"
	OpApproveOrder          Operation = "approve_order"
	OpCancelOrder           Operation = "cancel_order"
	OpUpdateSupplierInvoice Operation = "update_supplier_invoice"

	OpConfirmReceipt Operation = "confirm_receipt"

	OpListAudit Operation = "list_audit"
)

// table maps each operation to the roles allowed to invoke it. Identity
// constraints beyond the role (assigned engineer, own requests) are
// enforced by the engines themselves.
var table = map[Operation]map[string]bool{
	OpCreateRequest: {
		model.RoleSupervisor: true,
	},
	OpListRequests: {
		model.RoleSupervisor:         true,
		model.RoleEngineer:           true,
		model.RoleProcurementManager: true,
		model.RoleGeneralManager:     true,
		model.RoleDeliveryTracker:    true,
		model.RoleAdmin:              true,
	},
	OpDecideRequest: {
		model.RoleEngineer: true,
	},
	OpSubmitOffers: {
		model.RoleProcurementManager: true,
	},
	OpSelectOffer: {
		model.RoleProcurementManager: true,
	},
	OpCreateOrder: {
		model.RoleProcurementManager: true,
	},
	OpApproveOrder: {
		model.RoleProcurementManager: true,
		model.RoleGeneralManager:     true,
	},
	OpCancelOrder: {
		model.RoleProcurementManager: true,
		model.RoleGeneralManager:     true,
	},
	OpUpdateSupplierInvoice: {
		model.RoleDeliveryTracker: true,
	},
	OpConfirmReceipt: {
		model.RoleDeliveryTracker: true,
	},
	OpListAudit: {
		model.RoleAdmin:          true,
		model.RoleGeneralManager: true,
	},
}

// Can reports whether the role may invoke the operation.
func Can(role string, op Operation) bool {
	return table[op][role]
}

// Check returns a PermissionDenied error unless the caller's role may
// invoke the operation. Engines call this once at entry.
func Check(caller model.UserSummary, op Operation) error {
	if !Can(caller.Role, op) {
		return apperrors.PermissionDeniedf("role %s may not perform %s", caller.Role, op)
	}
	return nil
}
