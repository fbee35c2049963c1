package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/internal/orders"
	"github.com/mfigueroa/shopsync-backend/internal/products"
	"github.com/mfigueroa/shopsync-backend/internal/realtime"
	"github.com/mfigueroa/shopsync-backend/internal/sales"
	pkgAuth "github.com/mfigueroa/shopsync-backend/pkg/auth"
	"github.com/mfigueroa/shopsync-backend/pkg/config"
	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type stubCart struct{}

func (stubCart) Get(context.Context, uuid.UUID) ([]cart.Line, error) { return nil, nil }
func (stubCart) Replace(_ context.Context, _ uuid.UUID, lines []cart.Line) ([]cart.Line, error) {
	return lines, nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, orders.Actor, orders.CreateInput) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) Get(context.Context, orders.Actor, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrders) ListMine(context.Context, orders.Actor) ([]models.Order, error) { return nil, nil }
func (stubOrders) ConfirmPayment(context.Context, orders.Actor, uuid.UUID, orders.PaymentInput) (*orders.ConfirmResult, error) {
	return &orders.ConfirmResult{Order: &models.Order{}}, nil
}
func (stubOrders) MarkDelivered(context.Context, orders.Actor, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubProducts struct{}

func (stubProducts) Create(context.Context, products.CreateInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) UpdatePrice(context.Context, uuid.UUID, enums.MemberRole, uuid.UUID, decimal.Decimal) (*models.Product, error) {
	return &models.Product{}, nil
}

type stubSales struct{}

func (stubSales) Dashboard(context.Context, uuid.UUID) (*sales.Dashboard, error) {
	return &sales.Dashboard{}, nil
}
func (stubSales) Series(context.Context, uuid.UUID, sales.Period) ([]sales.SeriesPoint, error) {
	return nil, nil
}
func (stubSales) History(context.Context, uuid.UUID, pagination.Params) (*sales.HistoryPage, error) {
	return &sales.HistoryPage{}, nil
}

var testJWT = config.JWTConfig{
	Secret:            "router-test-secret",
	Issuer:            "shopsync-test",
	ExpirationMinutes: 5,
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{JWT: testJWT}
	cfg.App.Env = config.AppEnvDev
	cfg.Realtime.SendBufferSize = 8

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	verifier := realtime.VerifierFunc(func(token string) (*pkgAuth.AccessTokenClaims, error) {
		return pkgAuth.ParseAccessToken(cfg.JWT, token)
	})
	hub, err := realtime.NewHub(verifier, logg, nil)
	require.NoError(t, err)

	return NewRouter(cfg, logg, nil, nil, nil, hub,
		stubCart{}, stubOrders{}, stubProducts{}, stubSales{})
}

func mintToken(t *testing.T, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.AppEnvDev, rec.Header().Get("X-ShopSync-Env"))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/sellers/dashboard"},
	}
	for _, tc := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSellerRoutesRequireSellerRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sellers/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleSeller))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthedCartFetch(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
