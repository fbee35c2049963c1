package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
)

// ledgerWriter is the slice of the sales ledger the catalog touches: the
// pending placeholder on listing creation, and repricing after a price change.
type ledgerWriter interface {
	SeedPending(ctx context.Context, record models.SalesRecord) error
	Reprice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) (int64, error)
}

// CreateInput describes a new listing.
type CreateInput struct {
	SellerID     uuid.UUID
	Name         string
	Image        string
	Price        decimal.Decimal
	CountInStock int
}

// Service is the catalog surface.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdatePrice(ctx context.Context, sellerID uuid.UUID, role enums.MemberRole, productID uuid.UUID, price decimal.Decimal) (*models.Product, error)
}

type service struct {
	repo   Repository
	ledger ledgerWriter
	log    *logger.Logger
	now    func() time.Time
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo Repository, ledger ledgerWriter, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger writer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, ledger: ledger, log: log, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	switch {
	case in.SellerID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sellerId is required")
	case in.Name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case in.Price.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	case in.CountInStock < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock must not be negative")
	}

	product := &models.Product{
		SellerID:     in.SellerID,
		Name:         in.Name,
		Image:        in.Image,
		Price:        in.Price,
		CountInStock: in.CountInStock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	// Pending placeholder keeps the seller visible on the dashboard before
	// any sale lands. Best effort: the listing stands either way.
	placeholder := models.SalesRecord{
		SellerID:    product.SellerID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    0,
		Price:       product.Price,
		TotalAmount: decimal.Zero,
		OrderDate:   s.now(),
		Status:      enums.SalesRecordStatusPending,
	}
	if err := s.ledger.SeedPending(ctx, placeholder); err != nil {
		s.log.Error(s.log.WithField(ctx, "product_id", product.ID.String()),
			"seed pending sales record", err)
	}

	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdatePrice(ctx context.Context, sellerID uuid.UUID, role enums.MemberRole, productID uuid.UUID, price decimal.Decimal) (*models.Product, error) {
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID && role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the product owner")
	}
	if product.Price.Equal(price) {
		return product, nil
	}

	if err := s.repo.UpdatePrice(ctx, productID, price); err != nil {
		return nil, err
	}
	product.Price = price

	// Ledger history follows the new price best effort; the catalog price is
	// already committed and a reprice failure must not unwind it.
	if _, err := s.ledger.Reprice(ctx, productID, price); err != nil {
		s.log.Error(s.log.WithField(ctx, "product_id", productID.String()),
			"reprice sales records", err)
	}

	return product, nil
}
