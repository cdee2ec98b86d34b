package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput identifies one cart line to bill through Stripe.
type LineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// SessionDTO carries what the storefront needs to mount the embedded
// checkout form.
type SessionDTO struct {
	SessionID    string `json:"session_id"`
	ClientSecret string `json:"client_secret"`
}

// SessionStatusDTO reports where a checkout session landed.
type SessionStatusDTO struct {
	SessionID     string          `json:"session_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	AmountTotal   decimal.Decimal `json:"amount_total"`
	CustomerEmail string          `json:"customer_email,omitempty"`
}

// Settled reports whether the session finished with a captured payment.
func (d *SessionStatusDTO) Settled() bool {
	return d.Status == "complete" && d.PaymentStatus == "paid"
}
