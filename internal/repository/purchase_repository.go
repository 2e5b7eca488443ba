package repository

import (
	"context"

	"oncult-backend/internal/models"

	"gorm.io/gorm"
)

// PurchaseRepository defines the interface for purchase record data
// access. Records are append-only: there is no update or delete.
type PurchaseRepository interface {
	Create(ctx context.Context, record *models.PurchaseRecord) error

	FindByBuyer(ctx context.Context, buyer string) ([]*models.PurchaseRecord, error)
	FindByItem(ctx context.Context, itemID string) ([]*models.PurchaseRecord, error)
	List(ctx context.Context, page, pageSize int) ([]*models.PurchaseRecord, int64, error)
	CountByItem(ctx context.Context, itemID string) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new PurchaseRepository instance
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, record *models.PurchaseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *purchaseRepository) FindByBuyer(ctx context.Context, buyer string) ([]*models.PurchaseRecord, error) {
	var records []*models.PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("buyer_address = ?", buyer).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *purchaseRepository) FindByItem(ctx context.Context, itemID string) ([]*models.PurchaseRecord, error) {
	var records []*models.PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *purchaseRepository) List(ctx context.Context, page, pageSize int) ([]*models.PurchaseRecord, int64, error) {
	var records []*models.PurchaseRecord
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.PurchaseRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *purchaseRepository) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseRecord{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}
