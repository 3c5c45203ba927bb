package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotationRepository interface {
	Create(ctx context.Context, quotation *model.QuotationComparison) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.QuotationComparison, error)
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*model.QuotationComparison, error)
	Save(ctx context.Context, quotation *model.QuotationComparison) error
	ReplaceOffers(ctx context.Context, quotationID uuid.UUID, offers []model.QuotationOffer) error
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, quotation *model.QuotationComparison) error {
	return GetDB(ctx, r.db).Create(quotation).Error
}

func (r *quotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuotationComparison, error) {
	var quotation model.QuotationComparison
	err := GetDB(ctx, r.db).
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("offer_index ASC") }).
		Preload("Offers.Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		First(&quotation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*model.QuotationComparison, error) {
	var quotation model.QuotationComparison
	err := GetDB(ctx, r.db).
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("offer_index ASC") }).
		Preload("Offers.Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		First(&quotation, "request_id = ?", requestID).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) Save(ctx context.Context, quotation *model.QuotationComparison) error {
	return GetDB(ctx, r.db).Omit("Offers").Save(quotation).Error
}

// ReplaceOffers removes the existing offer set and writes the new one in
// place, as part of the surrounding transaction.
func (r *quotationRepository) ReplaceOffers(ctx context.Context, quotationID uuid.UUID, offers []model.QuotationOffer) error {
	db := GetDB(ctx, r.db)

	var offerIDs []uuid.UUID
	if err := db.Model(&model.QuotationOffer{}).
		Where("quotation_id = ?", quotationID).
		Pluck("id", &offerIDs).Error; err != nil {
		return err
	}
	if len(offerIDs) > 0 {
		if err := db.Where("offer_id IN ?", offerIDs).
			Delete(&model.QuotationOfferItem{}).Error; err != nil {
			return err
		}
		if err := db.Where("quotation_id = ?", quotationID).
			Delete(&model.QuotationOffer{}).Error; err != nil {
			return err
		}
	}

	for i := range offers {
		offers[i].QuotationID = quotationID
		if err := db.Create(&offers[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
