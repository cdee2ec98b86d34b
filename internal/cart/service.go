package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db"
	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
)

const conflictMessage = "cart was modified concurrently, retry the operation"

// Service exposes the cart aggregate operations.
type Service interface {
	CreateCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	GetItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartItemDTO, error)
	AddItem(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*CartDTO, error)
	SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, buyerID uuid.UUID) (alreadyEmpty bool, err error)
	GetTotal(ctx context.Context, buyerID uuid.UUID) (*TotalDTO, error)
	Checkout(ctx context.Context, buyerID uuid.UUID) (*CheckoutSummary, error)
}

type cartRepository interface {
	Create(ctx context.Context, record *models.Cart) error
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	SaveSnapshot(ctx context.Context, cart *models.Cart, items []models.CartItem) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type buyerLoader interface {
	BuyerByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
}

type service struct {
	repo     cartRepository
	products productLoader
	buyers   buyerLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo cartRepository, products productLoader, buyers buyerLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	return &service{repo: repo, products: products, buyers: buyers}, nil
}

// CreateCart returns the buyer's cart, creating an empty one when none exists.
func (s *service) CreateCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	record, err := s.repo.FindByBuyer(ctx, buyerID)
	if err == nil {
		dto := FromModel(record)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	record, err = s.createForBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(record)
	return &dto, nil
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(record)
	return &dto, nil
}

func (s *service) GetItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartItemDTO, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	for i := range record.Items {
		if record.Items[i].ProductID == productID {
			dto := itemFromModel(&record.Items[i])
			return &dto, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
}

// AddItem puts quantity units of the product into the cart. An existing line
// keeps its original unit price snapshot and only grows its quantity.
func (s *service) AddItem(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	record, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		record, err = s.createForBuyer(ctx, buyerID)
		if err != nil {
			return nil, err
		}
	}

	items := record.Items
	lineIdx := -1
	for i := range items {
		if items[i].ProductID == productID {
			lineIdx = i
			break
		}
	}

	if lineIdx >= 0 {
		items[lineIdx].Quantity += quantity
	} else {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		items = append(items, models.CartItem{
			CartID:         record.ID,
			ProductID:      product.ID,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	return s.persist(ctx, record, items)
}

func (s *service) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	items := record.Items
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	return s.persist(ctx, record, items)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	items := record.Items
	kept := make([]models.CartItem, 0, len(items))
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, items[i])
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	return s.persist(ctx, record, kept)
}

// Clear drains the cart. Clearing an empty cart is a no-op and reports it.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) (bool, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return false, err
	}
	if len(record.Items) == 0 {
		return true, nil
	}
	if _, err := s.persist(ctx, record, nil); err != nil {
		return false, err
	}
	return false, nil
}

// GetTotal returns the stored aggregate without recomputing it.
func (s *service) GetTotal(ctx context.Context, buyerID uuid.UUID) (*TotalDTO, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return &TotalDTO{Total: eurosFromCents(record.TotalCents)}, nil
}

// Checkout drains the cart and reports what it contained. An already
// empty cart checks out to an empty summary without a write.
func (s *service) Checkout(ctx context.Context, buyerID uuid.UUID) (*CheckoutSummary, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return &CheckoutSummary{Items: []CartItemDTO{}, Total: eurosFromCents(0)}, nil
	}

	total := recomputeTotals(record.Items)
	summary := &CheckoutSummary{
		Items:     FromModel(record).Items,
		ItemCount: len(record.Items),
		Total:     eurosFromCents(total),
	}

	if _, err := s.persist(ctx, record, nil); err != nil {
		return nil, err
	}
	return summary, nil
}

// createForBuyer provisions an empty cart after checking the buyer exists.
// A concurrent first create loses the unique index on buyer_id, in which
// case the winner's cart is re-read and used instead.
func (s *service) createForBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if _, err := s.buyers.BuyerByID(ctx, buyerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}

	record := &models.Cart{BuyerID: buyerID}
	err := s.repo.Create(ctx, record)
	if err == nil {
		return record, nil
	}
	if db.IsUniqueViolation(err, "") {
		record, err = s.repo.FindByBuyer(ctx, buyerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		return record, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
}

func (s *service) loadCart(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	record, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return record, nil
}

// persist reconciles totals and writes the snapshot conditionally.
func (s *service) persist(ctx context.Context, record *models.Cart, items []models.CartItem) (*CartDTO, error) {
	record.TotalCents = recomputeTotals(items)
	record.Items = items

	if err := s.repo.SaveSnapshot(ctx, record, items); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, conflictMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}

	dto := FromModel(record)
	return &dto, nil
}
