package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
)

// CartItemDTO is one cart line as exposed over HTTP. Amounts are decimal
// euros; storage stays integer cents.
type CartItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	ProducerID  *uuid.UUID      `json:"producer_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartDTO is the cart aggregate as exposed over HTTP.
type CartDTO struct {
	ID      uuid.UUID       `json:"id"`
	BuyerID uuid.UUID       `json:"buyer_id"`
	Items   []CartItemDTO   `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

// CheckoutSummary reports what a local checkout drained from the cart.
type CheckoutSummary struct {
	Items     []CartItemDTO   `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// TotalDTO is the stored-total read shape.
type TotalDTO struct {
	Total decimal.Decimal `json:"total"`
}

func eurosFromCents(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: eurosFromCents(item.UnitPriceCents),
		LineTotal: eurosFromCents(item.LineTotalCents),
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Name
		producerID := item.Product.ProducerID
		dto.ProducerID = &producerID
	}
	return dto
}

// FromModel maps a cart row plus its lines to the HTTP shape.
func FromModel(record *models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(record.Items))
	for i := range record.Items {
		items = append(items, itemFromModel(&record.Items[i]))
	}
	return CartDTO{
		ID:      record.ID,
		BuyerID: record.BuyerID,
		Items:   items,
		Total:   eurosFromCents(record.TotalCents),
	}
}
