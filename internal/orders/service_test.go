package orders

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) WithTx(_ *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			list = append(list, *order)
		}
	}
	return list, nil
}

func (f *fakeOrderRepo) MarkPaid(_ context.Context, id uuid.UUID, paidAt time.Time, result json.RawMessage) error {
	order, ok := f.orders[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = result
	return nil
}

func (f *fakeOrderRepo) MarkDelivered(_ context.Context, id uuid.UUID, deliveredAt time.Time) error {
	order, ok := f.orders[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order.IsDelivered = true
	order.DeliveredAt = &deliveredAt
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (f *fakeProductRepo) add(sellerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.products[id] = &models.Product{ID: id, SellerID: sellerID, Name: "item",
		Image: "/img/item.jpg", Price: decimal.NewFromInt(10)}
	return id
}

func (f *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var list []models.Product
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			list = append(list, *product)
		}
	}
	return list, nil
}

func (f *fakeProductRepo) IncrementTotalSales(_ context.Context, id uuid.UUID, delta int) error {
	product, ok := f.products[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product.TotalSales += delta
	return nil
}

type fakeSalesRepo struct {
	records []models.SalesRecord
	failFor map[uuid.UUID]bool
}

func newFakeSalesRepo() *fakeSalesRepo {
	return &fakeSalesRepo{failFor: make(map[uuid.UUID]bool)}
}

func (f *fakeSalesRepo) UpsertCompleted(_ context.Context, record models.SalesRecord) error {
	if f.failFor[record.ProductID] {
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger write failed")
	}
	for i, existing := range f.records {
		if existing.OrderID != nil && record.OrderID != nil &&
			*existing.OrderID == *record.OrderID && existing.ProductID == record.ProductID {
			f.records[i] = record
			return nil
		}
	}
	f.records = append(f.records, record)
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) add(name, email string) uuid.UUID {
	id := uuid.New()
	f.users[id] = &models.User{ID: id, Name: name, Email: email, Role: enums.RoleCustomer}
	return id
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fixture struct {
	svc      Service
	orders   *fakeOrderRepo
	products *fakeProductRepo
	sales    *fakeSalesRepo
	users    *fakeUserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(),
		sales:    newFakeSalesRepo(),
		users:    newFakeUserRepo(),
	}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(f.orders, f.products, f.sales, f.users, fakeTx{}, log, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func checkoutInput(productIDs ...uuid.UUID) CreateInput {
	in := CreateInput{
		PaymentMethod: "card",
		ItemsPrice:    decimal.NewFromInt(int64(10 * len(productIDs))),
		ShippingPrice: decimal.NewFromInt(5),
		TaxPrice:      decimal.NewFromInt(2),
		TotalPrice:    decimal.NewFromInt(int64(10*len(productIDs) + 7)),
	}
	for _, id := range productIDs {
		in.Items = append(in.Items, ItemInput{
			ProductID: id,
			Name:      "item",
			Image:     "/img/item.jpg",
			Price:     decimal.NewFromInt(10),
			Quantity:  1,
		})
	}
	return in
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	f := newFixture(t)
	actor := Actor{ID: uuid.New(), Role: enums.RoleCustomer}

	_, err := f.svc.Create(context.Background(), actor, CreateInput{PaymentMethod: "card"})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateResolvesSellersAllOrNothing(t *testing.T) {
	f := newFixture(t)
	actor := Actor{ID: uuid.New(), Role: enums.RoleCustomer}
	sellerID := uuid.New()
	known := f.products.add(sellerID)
	unknown := uuid.New()

	_, err := f.svc.Create(context.Background(), actor, checkoutInput(known, unknown))
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Empty(t, f.orders.orders, "nothing persists when one seller is unresolvable")

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(known))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, sellerID, order.Items[0].SellerID)
}

func TestGetEnforcesOwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	owner := Actor{ID: uuid.New(), Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())

	order, err := f.svc.Create(context.Background(), owner, checkoutInput(productID))
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), owner, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), Actor{ID: uuid.New(), Role: enums.RoleAdmin}, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), Actor{ID: uuid.New(), Role: enums.RoleCustomer}, order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	f := newFixture(t)
	userID := f.users.add("Ada Lovelace", "ada@example.com")
	actor := Actor{ID: userID, Role: enums.RoleCustomer}
	sellerID := uuid.New()
	productID := f.products.add(sellerID)

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(productID))
	require.NoError(t, err)

	result, err := f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{
		Result: json.RawMessage(`{"id":"pay_123","status":"succeeded"}`),
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyPaid)
	assert.True(t, result.Order.IsPaid)
	require.NotNil(t, result.Order.PaidAt)
	require.Len(t, result.ItemOutcomes, 1)
	assert.True(t, result.ItemOutcomes[0].OK)

	assert.Equal(t, 1, f.products.products[productID].TotalSales)

	require.Len(t, f.sales.records, 1)
	record := f.sales.records[0]
	assert.Equal(t, sellerID, record.SellerID)
	require.NotNil(t, record.OrderID)
	assert.Equal(t, order.ID, *record.OrderID)
	assert.Equal(t, enums.SalesRecordStatusCompleted, record.Status)
	assert.Equal(t, "Ada Lovelace", record.CustomerName)
	assert.Equal(t, "ada@example.com", record.CustomerEmail)
	assert.True(t, record.TotalAmount.Equal(decimal.NewFromInt(10)))
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := f.users.add("Ada Lovelace", "ada@example.com")
	actor := Actor{ID: userID, Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(productID))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{})
	require.NoError(t, err)

	replay, err := f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{})
	require.NoError(t, err)
	assert.True(t, replay.AlreadyPaid)
	assert.Empty(t, replay.ItemOutcomes)

	// side effects ran exactly once
	assert.Equal(t, 1, f.products.products[productID].TotalSales)
	assert.Len(t, f.sales.records, 1)
}

func TestConfirmPaymentSurvivesMissingProduct(t *testing.T) {
	f := newFixture(t)
	userID := f.users.add("Ada Lovelace", "ada@example.com")
	actor := Actor{ID: userID, Role: enums.RoleCustomer}
	keep := f.products.add(uuid.New())
	doomed := f.products.add(uuid.New())

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(keep, doomed))
	require.NoError(t, err)

	// product removed between checkout and payment
	delete(f.products.products, doomed)

	result, err := f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{})
	require.NoError(t, err)
	assert.True(t, result.Order.IsPaid)

	require.Len(t, result.ItemOutcomes, 2)
	byProduct := map[uuid.UUID]ItemOutcome{}
	for _, outcome := range result.ItemOutcomes {
		byProduct[outcome.ProductID] = outcome
	}
	assert.True(t, byProduct[keep].OK)
	assert.False(t, byProduct[doomed].OK)
	assert.NotEmpty(t, byProduct[doomed].Reason)

	// surviving item's side effects still landed
	assert.Equal(t, 1, f.products.products[keep].TotalSales)
	require.Len(t, f.sales.records, 1)
	assert.Equal(t, keep, f.sales.records[0].ProductID)
}

func TestConfirmPaymentSurvivesLedgerFailure(t *testing.T) {
	f := newFixture(t)
	userID := f.users.add("Ada Lovelace", "ada@example.com")
	actor := Actor{ID: userID, Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())
	f.sales.failFor[productID] = true

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(productID))
	require.NoError(t, err)

	result, err := f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{})
	require.NoError(t, err)
	assert.True(t, result.Order.IsPaid)
	require.Len(t, result.ItemOutcomes, 1)
	assert.False(t, result.ItemOutcomes[0].OK)
	// the counter increment happened before the ledger write failed
	assert.Equal(t, 1, f.products.products[productID].TotalSales)
}

func TestConfirmPaymentSnapshotFallback(t *testing.T) {
	f := newFixture(t)
	// user missing from the profile store: snapshot left blank
	actor := Actor{ID: uuid.New(), Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())

	order, err := f.svc.Create(context.Background(), actor, checkoutInput(productID))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), actor, order.ID, PaymentInput{})
	require.NoError(t, err)
	require.Len(t, f.sales.records, 1)
	assert.Empty(t, f.sales.records[0].CustomerName)
	assert.Empty(t, f.sales.records[0].CustomerEmail)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPayment(context.Background(),
		Actor{ID: uuid.New(), Role: enums.RoleAdmin}, uuid.New(), PaymentInput{})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestMarkDeliveredRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	owner := Actor{ID: uuid.New(), Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())

	order, err := f.svc.Create(context.Background(), owner, checkoutInput(productID))
	require.NoError(t, err)

	_, err = f.svc.MarkDelivered(context.Background(), owner, order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	admin := Actor{ID: uuid.New(), Role: enums.RoleAdmin}
	delivered, err := f.svc.MarkDelivered(context.Background(), admin, order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)

	// repeated delivery is a no-op, the timestamp stands
	first := *delivered.DeliveredAt
	again, err := f.svc.MarkDelivered(context.Background(), admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *again.DeliveredAt)
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	actor := Actor{ID: uuid.New(), Role: enums.RoleCustomer}
	productID := f.products.add(uuid.New())

	_, err := f.svc.Create(context.Background(), actor, checkoutInput(productID))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(),
		Actor{ID: uuid.New(), Role: enums.RoleCustomer}, checkoutInput(productID))
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
