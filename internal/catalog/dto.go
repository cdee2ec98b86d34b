package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

// CreateProductRequest is the payload for a new listing. Prices arrive as
// decimal euro amounts and are stored as integer cents.
type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	Category      string          `json:"category" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	Unit          string          `json:"unit" validate:"required"`
	ImageRef      *string         `json:"image_ref,omitempty"`
	StripePriceID *string         `json:"stripe_price_id,omitempty"`
}

// UpdateProductRequest carries the optional fields an owner may change.
type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	Unit          *string          `json:"unit,omitempty"`
	ImageRef      *string          `json:"image_ref,omitempty"`
	StripePriceID *string          `json:"stripe_price_id,omitempty"`
}

// ProductDTO is the catalog shape exposed over HTTP.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	ProducerID    uuid.UUID        `json:"producer_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	Category      string           `json:"category"`
	Quantity      int              `json:"quantity"`
	Unit          string           `json:"unit"`
	ImageRef      *string          `json:"image_ref,omitempty"`
	StripePriceID *string          `json:"stripe_price_id,omitempty"`
	Producer      *ProducerSummary `json:"producer,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ProducerSummary is the seller info attached to catalog reads.
type ProducerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Commune   string    `json:"commune"`
}

// FromModel maps a product row to its HTTP shape.
func FromModel(record *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            record.ID,
		ProducerID:    record.ProducerID,
		Name:          record.Name,
		Description:   record.Description,
		Price:         decimal.New(int64(record.PriceCents), -2),
		Category:      record.Category,
		Quantity:      record.Quantity,
		Unit:          record.Unit,
		ImageRef:      record.ImageRef,
		StripePriceID: record.StripePriceID,
		CreatedAt:     record.CreatedAt,
	}
	if record.Producer != nil {
		dto.Producer = &ProducerSummary{
			ID:        record.Producer.ID,
			FirstName: record.Producer.FirstName,
			LastName:  record.Producer.LastName,
			Commune:   record.Producer.Commune,
		}
	}
	return dto
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Query      string           `json:"q,omitempty"`
	Category   string           `json:"category,omitempty"`
	PriceMin   *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax   *decimal.Decimal `json:"price_max,omitempty"`
	ProducerID *uuid.UUID       `json:"producer_id,omitempty"`
	Sort       string           `json:"sort,omitempty"`
}

// ListInput captures the inputs needed to paginate and filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResult is the paged browse response.
type ListResult struct {
	Items []ProductDTO    `json:"items"`
	Page  pagination.Page `json:"page"`
}
