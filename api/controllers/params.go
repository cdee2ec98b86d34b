package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marchelocal/marchelocal-backend/api/middleware"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
)

// subjectID extracts the authenticated account id seeded by the auth middleware.
func subjectID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// pathUUID parses a uuid URL parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]string{"param": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").WithDetails(map[string]string{"param": name})
	}
	return id, nil
}

// subjectMatchingPath enforces that the buyerId path segment belongs to the
// caller. Carts are strictly private to their owner.
func subjectMatchingPath(r *http.Request, name string) (uuid.UUID, error) {
	subject, err := subjectID(r)
	if err != nil {
		return uuid.Nil, err
	}
	fromPath, err := pathUUID(r, name)
	if err != nil {
		return uuid.Nil, err
	}
	if subject != fromPath {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another account")
	}
	return subject, nil
}
