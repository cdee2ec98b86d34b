package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/enums"
)

// RegisterProducerRequest contains the payload for producer onboarding.
type RegisterProducerRequest struct {
	FirstName         string   `json:"first_name" validate:"required"`
	LastName          string   `json:"last_name" validate:"required"`
	Commune           string   `json:"commune" validate:"required"`
	Telephone         string   `json:"telephone" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"required,min=8"`
	Description       *string  `json:"description,omitempty"`
	ProductCategories []string `json:"product_categories,omitempty"`
}

// RegisterBuyerRequest contains the payload for restaurant buyer onboarding.
type RegisterBuyerRequest struct {
	FirstName         string  `json:"first_name" validate:"required"`
	LastName          string  `json:"last_name" validate:"required"`
	City              string  `json:"city" validate:"required"`
	PostalCode        string  `json:"postal_code" validate:"required"`
	PhoneNumber       string  `json:"phone_number" validate:"required"`
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=8"`
	RestaurantName    string  `json:"restaurant_name" validate:"required"`
	RestaurantAddress string  `json:"restaurant_address" validate:"required"`
	Description       *string `json:"description,omitempty"`
}

// RegisterResponse reports the created account.
type RegisterResponse struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  enums.Role `json:"role"`
}

// LoginRequest carries credentials plus the variant to authenticate against.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Role     enums.Role `json:"role" validate:"required"`
}

// LoginResponse returns the minted token plus the account summary.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	Account     AccountSummary `json:"account"`
}

// AccountSummary is the role-independent account shape returned on login.
type AccountSummary struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Role     enums.Role `json:"role"`
	Verified bool       `json:"verified"`
}

// SummaryFromAccount renders the shared account shape.
func SummaryFromAccount(acct Account) AccountSummary {
	return AccountSummary{
		ID:       acct.AccountID(),
		Email:    acct.Email(),
		Role:     acct.Role(),
		Verified: acct.Verified(),
	}
}

// ProducerProfile is the producer shape exposed over HTTP.
type ProducerProfile struct {
	ID                uuid.UUID `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Commune           string    `json:"commune"`
	Telephone         string    `json:"telephone"`
	Email             string    `json:"email"`
	Description       *string   `json:"description,omitempty"`
	PictureRef        *string   `json:"picture_ref,omitempty"`
	ProductCategories []string  `json:"product_categories"`
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromProducer maps a producer row to its HTTP shape.
func FromProducer(record *models.Producer) ProducerProfile {
	return ProducerProfile{
		ID:                record.ID,
		FirstName:         record.FirstName,
		LastName:          record.LastName,
		Commune:           record.Commune,
		Telephone:         record.Telephone,
		Email:             record.Email,
		Description:       record.Description,
		PictureRef:        record.PictureRef,
		ProductCategories: record.ProductCategories,
		Verified:          record.Verified,
		CreatedAt:         record.CreatedAt,
	}
}

// BuyerProfile is the buyer shape exposed over HTTP.
type BuyerProfile struct {
	ID                uuid.UUID `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	City              string    `json:"city"`
	PostalCode        string    `json:"postal_code"`
	PhoneNumber       string    `json:"phone_number"`
	Email             string    `json:"email"`
	RestaurantName    string    `json:"restaurant_name"`
	RestaurantAddress string    `json:"restaurant_address"`
	Description       *string   `json:"description,omitempty"`
	PictureRef        *string   `json:"picture_ref,omitempty"`
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromBuyer maps a buyer row to its HTTP shape.
func FromBuyer(record *models.Buyer) BuyerProfile {
	return BuyerProfile{
		ID:                record.ID,
		FirstName:         record.FirstName,
		LastName:          record.LastName,
		City:              record.City,
		PostalCode:        record.PostalCode,
		PhoneNumber:       record.PhoneNumber,
		Email:             record.Email,
		RestaurantName:    record.RestaurantName,
		RestaurantAddress: record.RestaurantAddress,
		Description:       record.Description,
		PictureRef:        record.PictureRef,
		Verified:          record.Verified,
		CreatedAt:         record.CreatedAt,
	}
}

// UpdateProducerRequest carries the optional profile fields a producer may change.
type UpdateProducerRequest struct {
	FirstName         *string  `json:"first_name,omitempty"`
	LastName          *string  `json:"last_name,omitempty"`
	Commune           *string  `json:"commune,omitempty"`
	Telephone         *string  `json:"telephone,omitempty"`
	Description       *string  `json:"description,omitempty"`
	PictureRef        *string  `json:"picture_ref,omitempty"`
	ProductCategories []string `json:"product_categories,omitempty"`
}

// UpdateBuyerRequest carries the optional profile fields a buyer may change.
type UpdateBuyerRequest struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	City              *string `json:"city,omitempty"`
	PostalCode        *string `json:"postal_code,omitempty"`
	PhoneNumber       *string `json:"phone_number,omitempty"`
	RestaurantName    *string `json:"restaurant_name,omitempty"`
	RestaurantAddress *string `json:"restaurant_address,omitempty"`
	Description       *string `json:"description,omitempty"`
	PictureRef        *string `json:"picture_ref,omitempty"`
}
