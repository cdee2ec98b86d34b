package controllers

import (
	"net/http"

	"github.com/marchelocal/marchelocal-backend/api/responses"
	"github.com/marchelocal/marchelocal-backend/api/validators"
	"github.com/marchelocal/marchelocal-backend/internal/identity"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

type partnerPage[T any] struct {
	Items []T             `json:"items"`
	Page  pagination.Page `json:"page"`
}

// ListProducers returns a paged producer directory.
func ListProducers(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, page, err := svc.ListProducers(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, partnerPage[identity.ProducerProfile]{Items: items, Page: page})
	}
}

// ListBuyers returns a paged buyer directory.
func ListBuyers(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, page, err := svc.ListBuyers(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, partnerPage[identity.BuyerProfile]{Items: items, Page: page})
	}
}

// GetProducerProfile returns one producer's public profile.
func GetProducerProfile(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := pathUUID(r, "producerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProducer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// GetBuyerProfile returns one buyer's profile.
func GetBuyerProfile(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := pathUUID(r, "buyerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetBuyer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// DeleteProducerAccount removes a producer account by id.
func DeleteProducerAccount(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return deletePartner(svc, logg, enums.RoleProducer, "producerId")
}

// DeleteBuyerAccount removes a buyer account by id.
func DeleteBuyerAccount(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return deletePartner(svc, logg, enums.RoleBuyer, "buyerId")
}

func deletePartner(svc identity.Service, logg *logger.Logger, role enums.Role, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Accounts may only delete themselves.
		subject, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if subject != id {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account belongs to another user"))
			return
		}

		if err := svc.DeleteAccount(r.Context(), role, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
