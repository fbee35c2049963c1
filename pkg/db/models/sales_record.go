package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/shopsync-backend/pkg/enums"
)

// SalesRecord is one ledger entry per (order, product). The unique pair index
// makes payment confirmation idempotent: redelivered confirmations upsert
// instead of double-appending.
type SalesRecord struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID       *uuid.UUID              `gorm:"column:order_id;type:uuid;uniqueIndex:idx_sales_records_order_product,priority:1"`
	ProductID     uuid.UUID               `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_sales_records_order_product,priority:2"`
	ProductName   string                  `gorm:"column:product_name;not null"`
	Quantity      int                     `gorm:"column:quantity;not null"`
	Price         decimal.Decimal         `gorm:"column:price;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal         `gorm:"column:total_amount;type:numeric(14,2);not null"`
	CustomerName  string                  `gorm:"column:customer_name;not null;default:''"`
	CustomerEmail string                  `gorm:"column:customer_email;not null;default:''"`
	OrderDate     time.Time               `gorm:"column:order_date;not null"`
	Status        enums.SalesRecordStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
