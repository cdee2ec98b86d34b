package controllers

import (
	"net/http"

	"github.com/marchelocal/marchelocal-backend/api/middleware"
	"github.com/marchelocal/marchelocal-backend/api/responses"
	"github.com/marchelocal/marchelocal-backend/api/validators"
	"github.com/marchelocal/marchelocal-backend/internal/identity"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
)

// GetMe returns the authenticated account's profile for either role.
func GetMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch middleware.RoleFromContext(r.Context()) {
		case string(enums.RoleProducer):
			profile, err := svc.GetProducer(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, profile)
		case string(enums.RoleBuyer):
			profile, err := svc.GetBuyer(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, profile)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing"))
		}
	}
}

// UpdateMe applies a partial profile update for the authenticated account.
func UpdateMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch middleware.RoleFromContext(r.Context()) {
		case string(enums.RoleProducer):
			var payload identity.UpdateProducerRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			profile, err := svc.UpdateProducer(r.Context(), id, payload)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, profile)
		case string(enums.RoleBuyer):
			var payload identity.UpdateBuyerRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			profile, err := svc.UpdateBuyer(r.Context(), id, payload)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, profile)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing"))
		}
	}
}

// DeleteMe removes the authenticated account and releases its email claim.
func DeleteMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "role context missing"))
			return
		}

		if err := svc.DeleteAccount(r.Context(), role, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
