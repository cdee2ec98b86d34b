package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marchelocal/marchelocal-backend/api/controllers"
	"github.com/marchelocal/marchelocal-backend/api/middleware"
	"github.com/marchelocal/marchelocal-backend/internal/cart"
	"github.com/marchelocal/marchelocal-backend/internal/catalog"
	checkoutsvc "github.com/marchelocal/marchelocal-backend/internal/checkout"
	"github.com/marchelocal/marchelocal-backend/internal/identity"
	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
	"github.com/marchelocal/marchelocal-backend/pkg/metrics"
	"github.com/marchelocal/marchelocal-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface depends on.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Identity    identity.Service
	Catalog     catalog.Service
	Cart        cart.Service
	Checkout    checkoutsvc.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.Checkout.AllowedOrigins),
	)

	loginPolicy := middleware.AuthThrottlePolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthThrottlePolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		IPLimit:    cfg.AuthRateLimit.RegisterIPLimit,
		EmailLimit: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	var cachePinger controllers.Pinger
	if p.Redis != nil {
		cachePinger = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, cachePinger, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register/producer", controllers.RegisterProducer(p.Identity, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register/buyer", controllers.RegisterBuyer(p.Identity, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.Login(p.Identity, logg))
		r.Post("/logout", controllers.Logout(logg))
		r.Get("/verify-email", controllers.VerifyEmail(p.Identity, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		// catalog reads are public
		r.Get("/", controllers.ListProducts(p.Catalog, logg))
		r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(string(enums.RoleProducer), logg))
			r.Use(middleware.RequireVerified(logg))
			r.Post("/", controllers.CreateProduct(p.Catalog, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(p.Catalog, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(p.Catalog, logg))
		})
	})

	r.Route("/api/v1/partners", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/producers", controllers.ListProducers(p.Identity, logg))
		r.Get("/producers/{producerId}", controllers.GetProducerProfile(p.Identity, logg))
		r.Delete("/producers/{producerId}", controllers.DeleteProducerAccount(p.Identity, logg))
		r.Get("/buyers", controllers.ListBuyers(p.Identity, logg))
		r.Get("/buyers/{buyerId}", controllers.GetBuyerProfile(p.Identity, logg))
		r.Delete("/buyers/{buyerId}", controllers.DeleteBuyerAccount(p.Identity, logg))
	})

	r.Route("/api/v1/account", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/me", controllers.GetMe(p.Identity, logg))
		r.Put("/me", controllers.UpdateMe(p.Identity, logg))
		r.Delete("/me", controllers.DeleteMe(p.Identity, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleBuyer), logg))
		r.Use(middleware.RequireVerified(logg))

		r.Route("/stripe", func(r chi.Router) {
			r.Post("/checkout-session", controllers.CreateCheckoutSession(p.Checkout, logg))
			r.Get("/session-status", controllers.CheckoutSessionStatus(p.Cart, p.Checkout, logg))
		})

		r.Route("/{buyerId}", func(r chi.Router) {
			r.Post("/", controllers.CreateCart(p.Cart, logg))
			r.Get("/", controllers.GetCart(p.Cart, logg))
			r.Delete("/", controllers.ClearCart(p.Cart, logg))
			r.Get("/total", controllers.GetCartTotal(p.Cart, logg))
			r.Post("/checkout", controllers.CheckoutCart(p.Cart, logg))
			r.Post("/product", controllers.AddCartItem(p.Cart, logg))
			r.Put("/product", controllers.SetCartItemQuantity(p.Cart, logg))
			r.Get("/product/{productId}", controllers.GetCartItem(p.Cart, logg))
			r.Delete("/product/{productId}", controllers.RemoveCartItem(p.Cart, logg))
		})
	})

	return r
}
