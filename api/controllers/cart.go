package controllers

import (
	"net/http"

	"github.com/mfigueroa/shopsync-backend/api/middleware"
	"github.com/mfigueroa/shopsync-backend/api/responses"
	"github.com/mfigueroa/shopsync-backend/api/validators"
	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
)

type cartReplaceRequest struct {
	CartItems []cart.Line `json:"cartItems" validate:"required"`
}

type cartResponse struct {
	CartItems []cart.Line `json:"cartItems"`
}

// CartFetch returns the caller's durable cart.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse{CartItems: lines})
	}
}

// CartReplace overwrites the caller's cart with the submitted snapshot.
func CartReplace(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartReplaceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Replace(r.Context(), middleware.UserIDFromContext(r.Context()), req.CartItems)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse{CartItems: lines})
	}
}
