package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marchelocal/marchelocal-backend/internal/cart"
	"github.com/marchelocal/marchelocal-backend/internal/catalog"
	checkoutsvc "github.com/marchelocal/marchelocal-backend/internal/checkout"
	"github.com/marchelocal/marchelocal-backend/internal/identity"
	pkgauth "github.com/marchelocal/marchelocal-backend/pkg/auth"
	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubIdentityService struct{}

func (stubIdentityService) RegisterProducer(ctx context.Context, req identity.RegisterProducerRequest) (*identity.RegisterResponse, error) {
	return &identity.RegisterResponse{}, nil
}

func (stubIdentityService) RegisterBuyer(ctx context.Context, req identity.RegisterBuyerRequest) (*identity.RegisterResponse, error) {
	return &identity.RegisterResponse{}, nil
}

func (stubIdentityService) Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResponse, error) {
	return &identity.LoginResponse{}, nil
}

func (stubIdentityService) VerifyEmail(ctx context.Context, role enums.Role, token string) (*identity.AccountSummary, error) {
	return &identity.AccountSummary{}, nil
}

func (stubIdentityService) GetProducer(ctx context.Context, id uuid.UUID) (*identity.ProducerProfile, error) {
	return &identity.ProducerProfile{}, nil
}

func (stubIdentityService) GetBuyer(ctx context.Context, id uuid.UUID) (*identity.BuyerProfile, error) {
	return &identity.BuyerProfile{}, nil
}

func (stubIdentityService) UpdateProducer(ctx context.Context, id uuid.UUID, req identity.UpdateProducerRequest) (*identity.ProducerProfile, error) {
	return &identity.ProducerProfile{}, nil
}

func (stubIdentityService) UpdateBuyer(ctx context.Context, id uuid.UUID, req identity.UpdateBuyerRequest) (*identity.BuyerProfile, error) {
	return &identity.BuyerProfile{}, nil
}

func (stubIdentityService) DeleteAccount(ctx context.Context, role enums.Role, id uuid.UUID) error {
	return nil
}

func (stubIdentityService) ListProducers(ctx context.Context, p pagination.Params) ([]identity.ProducerProfile, pagination.Page, error) {
	return nil, pagination.Page{}, nil
}

func (stubIdentityService) ListBuyers(ctx context.Context, p pagination.Params) ([]identity.BuyerProfile, pagination.Page, error) {
	return nil, pagination.Page{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) Create(ctx context.Context, producerID uuid.UUID, req catalog.CreateProductRequest) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) Update(ctx context.Context, producerID, productID uuid.UUID, req catalog.UpdateProductRequest) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) Delete(ctx context.Context, producerID, productID uuid.UUID) error {
	return nil
}

func (stubCatalogService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) List(ctx context.Context, input catalog.ListInput) (*catalog.ListResult, error) {
	return &catalog.ListResult{}, nil
}

type stubCartService struct{}

func (stubCartService) CreateCart(ctx context.Context, buyerID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{BuyerID: buyerID}, nil
}

func (stubCartService) GetCart(ctx context.Context, buyerID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{BuyerID: buyerID}, nil
}

func (stubCartService) GetItem(ctx context.Context, buyerID, productID uuid.UUID) (*cart.CartItemDTO, error) {
	return &cart.CartItemDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*cart.CartDTO, error) {
	return &cart.CartDTO{BuyerID: buyerID}, nil
}

func (stubCartService) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*cart.CartDTO, error) {
	return &cart.CartDTO{BuyerID: buyerID}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{BuyerID: buyerID}, nil
}

func (stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) (bool, error) {
	return false, nil
}

func (stubCartService) GetTotal(ctx context.Context, buyerID uuid.UUID) (*cart.TotalDTO, error) {
	return &cart.TotalDTO{}, nil
}

func (stubCartService) Checkout(ctx context.Context, buyerID uuid.UUID) (*cart.CheckoutSummary, error) {
	return &cart.CheckoutSummary{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) CreateSession(ctx context.Context, origin, email string, items []checkoutsvc.LineInput) (*checkoutsvc.SessionDTO, error) {
	return &checkoutsvc.SessionDTO{}, nil
}

func (stubCheckoutService) SessionStatus(ctx context.Context, sessionID string) (*checkoutsvc.SessionStatusDTO, error) {
	return &checkoutsvc.SessionStatusDTO{}, nil
}

var routerJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "marchelocal-test",
	ExpirationMinutes: 15,
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = routerJWTConfig

	return NewRouter(RouterParams{
		Config:   cfg,
		DB:       stubPinger{},
		Identity: stubIdentityService{},
		Catalog:  stubCatalogService{},
		Cart:     stubCartService{},
		Checkout: stubCheckoutService{},
	})
}

func bearerFor(t *testing.T, role enums.Role, verified bool) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(routerJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		Role:     role,
		Verified: verified,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token, userID
}

func TestHealthAndPublicCatalogRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/v1/products", "/metrics"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestCartRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest("GET", "/api/v1/cart/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCartRoutesRejectProducerRole(t *testing.T) {
	router := newTestRouter(t)
	token, userID := bearerFor(t, enums.RoleProducer, true)

	r := httptest.NewRequest("GET", "/api/v1/cart/"+userID.String(), nil)
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCartRoutesRejectUnverifiedBuyer(t *testing.T) {
	router := newTestRouter(t)
	token, userID := bearerFor(t, enums.RoleBuyer, false)

	r := httptest.NewRequest("GET", "/api/v1/cart/"+userID.String(), nil)
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCartRoutesRejectForeignBuyerID(t *testing.T) {
	router := newTestRouter(t)
	token, _ := bearerFor(t, enums.RoleBuyer, true)

	r := httptest.NewRequest("GET", "/api/v1/cart/"+uuid.NewString(), nil)
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCartRoutesAcceptVerifiedBuyer(t *testing.T) {
	router := newTestRouter(t)
	token, userID := bearerFor(t, enums.RoleBuyer, true)

	r := httptest.NewRequest("GET", "/api/v1/cart/"+userID.String(), nil)
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAddCartItemRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	token, userID := bearerFor(t, enums.RoleBuyer, true)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	r := httptest.NewRequest("POST", "/api/v1/cart/"+userID.String()+"/product", strings.NewReader(body))
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProductMutationsRequireProducerRole(t *testing.T) {
	router := newTestRouter(t)
	token, _ := bearerFor(t, enums.RoleBuyer, true)

	r := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(`{}`))
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestStripeCheckoutSessionAcceptsItemsAndEmailBody(t *testing.T) {
	router := newTestRouter(t)
	token, _ := bearerFor(t, enums.RoleBuyer, true)

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":2}],"email":"resto@example.fr"}`
	r := httptest.NewRequest("POST", "/api/v1/cart/stripe/checkout-session", strings.NewReader(body))
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStripeCheckoutSessionRejectsEmptyItems(t *testing.T) {
	router := newTestRouter(t)
	token, _ := bearerFor(t, enums.RoleBuyer, true)

	r := httptest.NewRequest("POST", "/api/v1/cart/stripe/checkout-session", strings.NewReader(`{"items":[]}`))
	r.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStripeSessionStatusRequiresBuyer(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest("GET", "/api/v1/cart/stripe/session-status?session_id=cs_test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	token, _ := bearerFor(t, enums.RoleBuyer, true)
	r = httptest.NewRequest("GET", "/api/v1/cart/stripe/session-status?session_id=cs_test", nil)
	r.Header.Set("Authorization", token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
