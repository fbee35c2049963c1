package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/pagination"
)

// Repository manages the append-mostly sales ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SeedPending(ctx context.Context, record models.SalesRecord) error
	UpsertCompleted(ctx context.Context, record models.SalesRecord) error
	Reprice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) (int64, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SalesRecord, error)
	ListBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]models.SalesRecord, error)
	PageBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SalesRecord, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) SeedPending(ctx context.Context, record models.SalesRecord) error {
	return r.db.WithContext(ctx).Create(&record).Error
}

// UpsertCompleted writes one (order, product) ledger entry. A replayed
// confirmation hits the unique pair index and overwrites in place, so the
// ledger never double-counts a delivery.
func (r *repository) UpsertCompleted(ctx context.Context, record models.SalesRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("order_id IS NOT NULL"),
		}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_name", "quantity", "price", "total_amount",
			"customer_name", "customer_email", "order_date", "status",
		}),
	}).Create(&record).Error
}

func (r *repository) Reprice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SalesRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"price":        price,
			"total_amount": gorm.Expr("? * quantity", price),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SalesRecord, error) {
	var records []models.SalesRecord
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("order_date ASC, created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]models.SalesRecord, error) {
	var records []models.SalesRecord
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND order_date >= ?", sellerID, since).
		Order("order_date ASC, created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) PageBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SalesRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SalesRecord{}).
		Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.SalesRecord
	err := query.
		Order("order_date DESC, created_at DESC").
		Limit(params.PageSize()).
		Offset(params.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
