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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type OfferItemDTO struct {
	ItemIndex int             `json:"item_index"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OfferDTO struct {
	SupplierName string         `json:"supplier_name" binding:"required"`
	Notes        string         `json:"notes"`
	Items        []OfferItemDTO `json:"items"`
}

type SubmitOffersDTO struct {
	Offers []OfferDTO `json:"offers"`
	Notes  string     `json:"notes"`
}

type SelectOfferDTO struct {
	OfferIndex int `json:"offer_index"`
}

// --- Interface ---

// QuotationService is the quotation comparison engine: it normalizes
// multi-supplier offers against a request's items and records the
// selected offer. Selection is advisory input to order derivation.
type QuotationService interface {
	SubmitOffers(ctx context.Context, caller model.UserSummary, requestID string, req SubmitOffersDTO) (*model.QuotationComparison, error)
	SelectOffer(ctx context.Context, caller model.UserSummary, quoteID string, req SelectOfferDTO) (*model.QuotationComparison, error)
	GetByRequest(ctx context.Context, caller model.UserSummary, requestID string) (*model.QuotationComparison, error)
}

type quotationService struct {
	txManager  repository.TransactionManager
	quotations repository.QuotationRepository
	requests   repository.RequestRepository
	audit      repository.AuditRepository
	hub        *websocket.Hub
}

func NewQuotationService(
	txManager repository.TransactionManager,
	quotations repository.QuotationRepository,
	requests repository.RequestRepository,
	audit repository.AuditRepository,
	hub *websocket.Hub,
) QuotationService {
	return &quotationService{
		txManager:  txManager,
		quotations: quotations,
		requests:   requests,
		audit:      audit,
		hub:        hub,
	}
}

// --- Implementation ---

// normalizeOffers validates the raw offers against the request's items and
// builds the stored offer rows. Totals are always recomputed here, never
// accepted from the caller.
func normalizeOffers(request *model.MaterialRequest, offers []OfferDTO) ([]model.QuotationOffer, error) {
	if len(offers) == 0 {
		return nil, apperrors.Invalidf("at least one offer is required")
	}

	itemCount := len(request.Items)
	quantityByIndex := make(map[int]int, itemCount)
	for _, item := range request.Items {
		quantityByIndex[item.ItemIndex] = item.Quantity
	}

	normalized := make([]model.QuotationOffer, 0, len(offers))
	for i, offer := range offers {
		if strings.TrimSpace(offer.SupplierName) == "" {
			return nil, apperrors.Invalidf("offer %d: supplier_name must not be blank", i)
		}
		if len(offer.Items) != itemCount {
			return nil, apperrors.Invalidf("offer %d: has %d items, request has %d", i, len(offer.Items), itemCount)
		}

		seen := make(map[int]bool, itemCount)
		total := decimal.Zero
		items := make([]model.QuotationOfferItem, 0, itemCount)
		for _, offerItem := range offer.Items {
			quantity, ok := quantityByIndex[offerItem.ItemIndex]
			if !ok {
				return nil, apperrors.Invalidf("offer %d: item index %d does not exist on the request", i, offerItem.ItemIndex)
			}
			if seen[offerItem.ItemIndex] {
				return nil, apperrors.Invalidf("offer %d: duplicate item index %d", i, offerItem.ItemIndex)
			}
			seen[offerItem.ItemIndex] = true

			if offerItem.UnitPrice.IsNegative() {
				return nil, apperrors.Invalidf("offer %d: item index %d has negative unit_price", i, offerItem.ItemIndex)
			}

			lineTotal := offerItem.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			total = total.Add(lineTotal)
			items = append(items, model.QuotationOfferItem{
				ItemIndex: offerItem.ItemIndex,
				Quantity:  quantity,
				UnitPrice: offerItem.UnitPrice,
				LineTotal: lineTotal,
			})
		}

		normalized = append(normalized, model.QuotationOffer{
			OfferIndex:   i,
			SupplierName: strings.TrimSpace(offer.SupplierName),
			TotalAmount:  total,
			Notes:        offer.Notes,
			Items:        items,
		})
	}
	return normalized, nil
}

func (s *quotationService) SubmitOffers(ctx context.Context, caller model.UserSummary, requestID string, req SubmitOffersDTO) (*model.QuotationComparison, error) {
	if err := authz.Check(caller, authz.OpSubmitOffers); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid request id: %s", requestID)
	}

	var quotation *model.QuotationComparison
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("request %s not found", id)
		} else if findErr != nil {
			return findErr
		}

		if request.Status != model.RequestStatusApproved && request.Status != model.RequestStatusPartiallyOrdered {
			return apperrors.Invalidf("request %s not ready for comparison", request.RequestNumber)
		}

		offers, normErr := normalizeOffers(request, req.Offers)
		if normErr != nil {
			return normErr
		}

		existing, findErr := s.quotations.GetByRequestID(txCtx, id)
		action := model.ActionSubmitOffers
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			quotation = &model.QuotationComparison{
				RequestID:     request.ID,
				Status:        model.QuotationStatusDraft,
				Notes:         req.Notes,
				CreatedByID:   caller.ID,
				CreatedByName: caller.Name,
				Offers:        offers,
			}
			if createErr := s.quotations.Create(txCtx, quotation); createErr != nil {
				return fmt.Errorf("failed to create quotation: %w", createErr)
			}
		case findErr != nil:
			return findErr
		default:
			// Editing the comparison invalidates any prior selection.
			action = model.ActionUpdateOffers
			existing.Status = model.QuotationStatusDraft
			existing.Notes = req.Notes
			existing.SelectedOfferIndex = nil
			existing.SelectedSupplierName = ""
			existing.SelectedTotalAmount = nil
			if saveErr := s.quotations.Save(txCtx, existing); saveErr != nil {
				return fmt.Errorf("failed to update quotation: %w", saveErr)
			}
			if replaceErr := s.quotations.ReplaceOffers(txCtx, existing.ID, offers); replaceErr != nil {
				return fmt.Errorf("failed to replace offers: %w", replaceErr)
			}
			existing.Offers = offers
			quotation = existing
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"request_number": request.RequestNumber,
			"offer_count":    len(offers),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityQuotation,
			EntityID:    quotation.ID.String(),
			Action:      action,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "offers submitted for request " + request.RequestNumber,
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityQuotation, quotation.ID.String(), model.ActionSubmitOffers)
	return quotation, nil
}

func (s *quotationService) SelectOffer(ctx context.Context, caller model.UserSummary, quoteID string, req SelectOfferDTO) (*model.QuotationComparison, error) {
	if err := authz.Check(caller, authz.OpSelectOffer); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(quoteID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid quotation id: %s", quoteID)
	}

	var quotation *model.QuotationComparison
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.quotations.GetByID(txCtx, id)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("quotation %s not found", id)
		} else if findErr != nil {
			return findErr
		}
		quotation = found

		if req.OfferIndex < 0 || req.OfferIndex >= len(quotation.Offers) {
			return apperrors.Invalidf("offer index %d out of range [0, %d)", req.OfferIndex, len(quotation.Offers))
		}

		selected := quotation.Offers[req.OfferIndex]
		offerIndex := req.OfferIndex
		total := selected.TotalAmount
		quotation.SelectedOfferIndex = &offerIndex
		quotation.SelectedSupplierName = selected.SupplierName
		quotation.SelectedTotalAmount = &total
		quotation.Status = model.QuotationStatusSelected

		if saveErr := s.quotations.Save(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to save selection: %w", saveErr)
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"offer_index":   offerIndex,
			"supplier_name": selected.SupplierName,
			"total_amount":  total.String(),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			EntityType:  model.EntityQuotation,
			EntityID:    quotation.ID.String(),
			Action:      model.ActionSelectOffer,
			UserID:      &caller.ID,
			UserName:    caller.Name,
			UserRole:    caller.Role,
			Description: "offer from " + selected.SupplierName + " selected",
			Changes:     string(changes),
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(model.EntityQuotation, quotation.ID.String(), model.ActionSelectOffer)
	return quotation, nil
}

func (s *quotationService) GetByRequest(ctx context.Context, caller model.UserSummary, requestID string) (*model.QuotationComparison, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperrors.Invalidf("invalid request id: %s", requestID)
	}

	quotation, err := s.quotations.GetByRequestID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("no quotation for request %s", id)
	} else if err != nil {
		return nil, err
	}
	return quotation, nil
}
