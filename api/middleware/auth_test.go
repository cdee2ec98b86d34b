package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/marchelocal/marchelocal-backend/pkg/auth"
	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "marchelocal-test",
	ExpirationMinutes: 15,
}

func mintTestToken(t *testing.T, role enums.Role, verified bool) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(testJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		Role:     role,
		Verified: verified,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func TestAuthSeedsContextFromToken(t *testing.T) {
	token, userID := mintTestToken(t, enums.RoleBuyer, true)

	var gotUserID, gotRole string
	var gotVerified bool
	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotVerified = VerifiedFromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUserID != userID.String() {
		t.Fatalf("unexpected user id %q", gotUserID)
	}
	if gotRole != string(enums.RoleBuyer) {
		t.Fatalf("unexpected role %q", gotRole)
	}
	if !gotVerified {
		t.Fatal("expected verified flag in context")
	}
}

func TestAuthAcceptsTokenCookieWithoutHeader(t *testing.T) {
	token, userID := mintTestToken(t, enums.RoleBuyer, true)

	var gotUserID string
	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUserID != userID.String() {
		t.Fatalf("unexpected user id %q", gotUserID)
	}
}

func TestAuthPrefersHeaderOverCookie(t *testing.T) {
	headerToken, headerUser := mintTestToken(t, enums.RoleBuyer, true)
	cookieToken, _ := mintTestToken(t, enums.RoleProducer, true)

	var gotUserID string
	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+headerToken)
	r.AddCookie(&http.Cookie{Name: "token", Value: cookieToken})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if gotUserID != headerUser.String() {
		t.Fatalf("expected header identity %s, got %q", headerUser, gotUserID)
	}
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt"} {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestAuthRejectsTokenSignedWithOtherSecret(t *testing.T) {
	otherCfg := testJWTConfig
	otherCfg.Secret = "different-secret"
	token, err := pkgauth.MintAccessToken(otherCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleBuyer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole(string(enums.RoleProducer), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithRole(r.Context(), string(enums.RoleBuyer)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithRole(r.Context(), string(enums.RoleProducer)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestRequireVerifiedBlocksUnverifiedAccounts(t *testing.T) {
	handler := RequireVerified(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithVerified(r.Context(), false))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithVerified(r.Context(), true))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}
