package controllers

import (
	"net/http"
	"strconv"

	"github.com/mfigueroa/shopsync-backend/api/middleware"
	"github.com/mfigueroa/shopsync-backend/api/responses"
	"github.com/mfigueroa/shopsync-backend/internal/sales"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/pagination"
)

// SellerDashboard returns the seller's aggregated sales overview.
func SellerDashboard(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := svc.Dashboard(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}

// SellerSales returns the period-bucketed revenue/order series. The period
// query defaults to weekly.
func SellerSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := sales.Period(r.URL.Query().Get("period"))
		if period == "" {
			period = sales.PeriodWeekly
		}

		points, err := svc.Series(r.Context(), middleware.UserIDFromContext(r.Context()), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"period": period,
			"series": points,
		})
	}
}

// SellerSalesHistory returns raw ledger entries, newest first, paged.
func SellerSalesHistory(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.Params{
			Limit: intQuery(r, "limit"),
			Page:  intQuery(r, "page"),
		}

		page, err := svc.History(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func intQuery(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}
