package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueroa/shopsync-backend/api/middleware"
	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/shopsync-backend/pkg/errors"
)

type fakeCartService struct {
	lines   []cart.Line
	err     error
	gotUser uuid.UUID
}

func (f *fakeCartService) Get(_ context.Context, userID uuid.UUID) ([]cart.Line, error) {
	f.gotUser = userID
	return f.lines, f.err
}

func (f *fakeCartService) Replace(_ context.Context, userID uuid.UUID, lines []cart.Line) ([]cart.Line, error) {
	f.gotUser = userID
	if f.err != nil {
		return nil, f.err
	}
	f.lines = lines
	return lines, nil
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.MemberRole) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, role))
}

func TestCartFetch(t *testing.T) {
	userID := uuid.New()
	svc := &fakeCartService{lines: []cart.Line{{
		ProductID: uuid.New(),
		Name:      "keyboard",
		Image:     "/img/kb.jpg",
		Price:     decimal.NewFromInt(50),
		Quantity:  1,
	}}}

	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, authedRequest(http.MethodGet, "/api/v1/cart", "", userID, enums.RoleCustomer))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.gotUser)

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.CartItems, 1)
	assert.Equal(t, "keyboard", envelope.Data.CartItems[0].Name)
}

func TestCartReplaceRejectsMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	CartReplace(&fakeCartService{}, nil)(rec,
		authedRequest(http.MethodPut, "/api/v1/cart", `{"cartItems": "nope"}`, uuid.New(), enums.RoleCustomer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRateLimitMapsTo429(t *testing.T) {
	svc := &fakeCartService{err: pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart requests")}

	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, authedRequest(http.MethodGet, "/api/v1/cart", "", uuid.New(), enums.RoleCustomer))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), envelope.Error.Code)
}

func TestCartReplaceRoundTrip(t *testing.T) {
	svc := &fakeCartService{}
	body := `{"cartItems":[{"productId":"` + uuid.NewString() + `","name":"mouse","image":"/img/m.jpg","price":"19.99","quantity":2}]}`

	rec := httptest.NewRecorder()
	CartReplace(svc, nil)(rec, authedRequest(http.MethodPut, "/api/v1/cart", body, uuid.New(), enums.RoleCustomer))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.lines, 1)
	assert.Equal(t, 2, svc.lines[0].Quantity)
}
