package controllers

import (
	"net/http"

	"github.com/marchelocal/marchelocal-backend/api/responses"
	"github.com/marchelocal/marchelocal-backend/api/validators"
	"github.com/marchelocal/marchelocal-backend/internal/cart"
	"github.com/marchelocal/marchelocal-backend/internal/checkout"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
)

type checkoutSessionRequest struct {
	Items []checkout.LineInput `json:"items" validate:"required,min=1,dive"`
	Email string               `json:"email" validate:"omitempty,email"`
}

// CreateCheckoutSession opens a Stripe session for the submitted line items.
// The cart itself is untouched; it empties only once the payment settles.
func CreateCheckoutSession(sessions checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout services unavailable"))
			return
		}

		if _, err := subjectID(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := sessions.CreateSession(r.Context(), r.Header.Get("Origin"), payload.Email, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, created)
	}
}

// CheckoutSessionStatus reports where a session landed and, once the payment
// has settled, drains the buyer's cart.
func CheckoutSessionStatus(carts cart.Service, sessions checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout services unavailable"))
			return
		}

		buyerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := sessions.SessionStatus(r.Context(), r.URL.Query().Get("session_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if status.Settled() {
			if _, err := carts.Clear(r.Context(), buyerID); err != nil {
				// The payment is already captured; report the status anyway
				// and leave the cart for a later clear.
				if logg != nil {
					logg.Error(r.Context(), "checkout.cart_clear_failed", err)
				}
			}
		}

		responses.WriteSuccess(w, status)
	}
}
