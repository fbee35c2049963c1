package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productCatalog is the slice of the catalog this service consumes.
type productCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	IncrementTotalSales(ctx context.Context, id uuid.UUID, delta int) error
}

// salesLedger receives the per-item completed records on payment.
type salesLedger interface {
	UpsertCompleted(ctx context.Context, record models.SalesRecord) error
}

// userDirectory resolves the customer snapshot copied onto ledger entries.
type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service is the order fulfillment surface.
type Service interface {
	Create(ctx context.Context, actor Actor, in CreateInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, actor Actor) ([]models.Order, error)
	ConfirmPayment(ctx context.Context, actor Actor, orderID uuid.UUID, payment PaymentInput) (*ConfirmResult, error)
	MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     Repository
	products productCatalog
	sales    salesLedger
	users    userDirectory
	tx       txRunner
	log      *logger.Logger
	ledger   *metrics.LedgerMetrics
	now      func() time.Time
}

// NewService builds the order service; every collaborator is required except
// metrics, which degrade to no-ops.
func NewService(
	repo Repository,
	productRepo productCatalog,
	salesRepo salesLedger,
	userRepo userDirectory,
	tx txRunner,
	log *logger.Logger,
	ledger *metrics.LedgerMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: productRepo,
		sales:    salesRepo,
		users:    userRepo,
		tx:       tx,
		log:      log,
		ledger:   ledger,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Order, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(in.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	for i, item := range in.Items {
		switch {
		case item.ProductID == uuid.Nil:
			return nil, itemError(i, "productId is required")
		case item.Name == "":
			return nil, itemError(i, "name is required")
		case item.Price.IsNegative():
			return nil, itemError(i, "price must not be negative")
		case item.Quantity <= 0:
			return nil, itemError(i, "quantity must be positive")
		}
	}
	for _, amount := range []decimal.Decimal{in.ItemsPrice, in.ShippingPrice, in.TaxPrice, in.TotalPrice} {
		if amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
	}

	sellers, err := s.resolveSellers(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          actor.ID,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		ItemsPrice:      in.ItemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TaxPrice:        in.TaxPrice,
		TotalPrice:      in.TotalPrice,
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			SellerID:  sellers[item.ProductID],
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

// resolveSellers maps every product to its seller, all or nothing: one
// unresolvable product fails the whole checkout before anything persists.
func (s *service) resolveSellers(ctx context.Context, items []ItemInput) (map[uuid.UUID]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve sellers")
	}

	sellers := make(map[uuid.UUID]uuid.UUID, len(found))
	for _, product := range found {
		sellers[product.ID] = product.SellerID
	}
	for _, id := range ids {
		if _, ok := sellers[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller could not be resolved").
				WithDetails(map[string]any{"productId": id.String()})
		}
	}
	return sellers, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, actor Actor) ([]models.Order, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// ConfirmPayment flips the paid flag once, then walks every item updating the
// catalog counter and the sales ledger. Side-effect steps are best effort:
// each failure is recorded against its item and the walk continues, so one
// missing product never blocks the rest of the order.
func (s *service) ConfirmPayment(ctx context.Context, actor Actor, orderID uuid.UUID, payment PaymentInput) (*ConfirmResult, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	if order.IsPaid {
		return &ConfirmResult{Order: order, AlreadyPaid: true}, nil
	}

	paidAt := payment.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	if err := s.repo.MarkPaid(ctx, orderID, paidAt, payment.Result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	order.IsPaid = true
	order.PaidAt = &paidAt
	if len(payment.Result) > 0 {
		order.PaymentResult = payment.Result
	}

	customerName, customerEmail := s.customerSnapshot(ctx, order.UserID)

	ctx = s.log.WithOrderID(ctx, orderID.String())
	result := &ConfirmResult{Order: order}
	var failures error
	for _, item := range order.Items {
		outcome := ItemOutcome{ProductID: item.ProductID, OK: true}

		if err := s.products.IncrementTotalSales(ctx, item.ProductID, item.Quantity); err != nil {
			outcome = ItemOutcome{ProductID: item.ProductID, Reason: "total sales update failed"}
			failures = multierr.Append(failures, fmt.Errorf("product %s: total sales: %w", item.ProductID, err))
			s.ledger.IncItemFailure("total_sales")
			result.ItemOutcomes = append(result.ItemOutcomes, outcome)
			continue
		}

		record := models.SalesRecord{
			SellerID:      item.SellerID,
			OrderID:       &order.ID,
			ProductID:     item.ProductID,
			ProductName:   item.Name,
			Quantity:      item.Quantity,
			Price:         item.UnitPrice,
			TotalAmount:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			CustomerName:  customerName,
			CustomerEmail: customerEmail,
			OrderDate:     paidAt,
			Status:        enums.SalesRecordStatusCompleted,
		}
		if err := s.sales.UpsertCompleted(ctx, record); err != nil {
			outcome = ItemOutcome{ProductID: item.ProductID, Reason: "sales record write failed"}
			failures = multierr.Append(failures, fmt.Errorf("product %s: sales record: %w", item.ProductID, err))
			s.ledger.IncItemFailure("sales_record")
		} else {
			s.ledger.IncRecordWritten()
		}

		result.ItemOutcomes = append(result.ItemOutcomes, outcome)
	}

	if failures != nil {
		s.log.Error(ctx, "payment confirmation completed with item failures", failures)
	}

	return result, nil
}

func (s *service) customerSnapshot(ctx context.Context, userID uuid.UUID) (string, string) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// the ledger still records the sale without the snapshot
		s.log.Warn(s.log.WithUserID(ctx, userID.String()), "customer snapshot unavailable")
		return "", ""
	}
	return user.Name, user.Email
}

func (s *service) MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin capability required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered {
		return order, nil
	}

	deliveredAt := s.now()
	if err := s.repo.MarkDelivered(ctx, orderID, deliveredAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
	}
	order.IsDelivered = true
	order.DeliveredAt = &deliveredAt
	return order, nil
}

func itemError(index int, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
		WithDetails(map[string]any{"index": index, "reason": reason})
}
