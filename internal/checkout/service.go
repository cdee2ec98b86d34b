package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/config"
	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
)

const returnPath = "/return?session_id={CHECKOUT_SESSION_ID}"

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service bridges cart contents to Stripe Checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, origin, email string, items []LineInput) (*SessionDTO, error)
	SessionStatus(ctx context.Context, sessionID string) (*SessionStatusDTO, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Sessions StripeSessionClient
	Products productLoader
	Config   config.CheckoutConfig
}

type service struct {
	sessions StripeSessionClient
	products productLoader
	cfg      config.CheckoutConfig
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		sessions: params.Sessions,
		products: params.Products,
		cfg:      params.Config,
	}, nil
}

// CreateSession opens an embedded checkout session for the given lines. The
// call is made once; a Stripe failure surfaces to the caller unretried.
func (s *service) CreateSession(ctx context.Context, origin, email string, items []LineInput) (*SessionDTO, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	origin = strings.TrimSpace(origin)
	if origin == "" || !s.cfg.OriginAllowed(origin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "origin is not allowed to start a checkout").
			WithDetails(map[string]string{"origin": origin})
	}

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items)+1)
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]string{"product_id": item.ProductID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if product.StripePriceID == nil || strings.TrimSpace(*product.StripePriceID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not enabled for online payment").
				WithDetails(map[string]string{"product_id": product.ID.String()})
		}
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(*product.StripePriceID),
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	lines = append(lines, s.deliveryLine())

	params := &stripe.CheckoutSessionParams{
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		ReturnURL: stripe.String(origin + returnPath),
		LineItems: lines,
	}
	if email = strings.TrimSpace(email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	created, err := s.sessions.New(ctx, params)
	if err != nil {
		return nil, mapStripeError(err, "create checkout session")
	}
	return &SessionDTO{SessionID: created.ID, ClientSecret: created.ClientSecret}, nil
}

// deliveryLine builds the fixed delivery fee line appended to every session.
// A configured Stripe price wins; otherwise the amount comes from config.
func (s *service) deliveryLine() *stripe.CheckoutSessionLineItemParams {
	if s.cfg.DeliveryPriceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(s.cfg.DeliveryPriceID),
			Quantity: stripe.Int64(1),
		}
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String("eur"),
			UnitAmount: stripe.Int64(int64(s.cfg.DeliveryFeeCents)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String("Livraison"),
			},
		},
		Quantity: stripe.Int64(1),
	}
}

// SessionStatus fetches the current state of a checkout session.
func (s *service) SessionStatus(ctx context.Context, sessionID string) (*SessionStatusDTO, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required")
	}

	found, err := s.sessions.Get(ctx, sessionID, nil)
	if err != nil {
		return nil, mapStripeError(err, "fetch checkout session")
	}

	dto := &SessionStatusDTO{
		SessionID:     found.ID,
		Status:        string(found.Status),
		PaymentStatus: string(found.PaymentStatus),
		AmountTotal:   decimal.New(found.AmountTotal, -2),
	}
	if found.CustomerDetails != nil {
		dto.CustomerEmail = found.CustomerDetails.Email
	}
	return dto, nil
}

// mapStripeError folds Stripe failures into the local taxonomy. A malformed
// request, including an unknown session id, is the caller's fault.
func mapStripeError(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
