package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

// Service exposes catalog operations to the HTTP layer.
type Service interface {
	Create(ctx context.Context, producerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, producerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Delete(ctx context.Context, producerID, productID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type productRepository interface {
	Create(ctx context.Context, record *models.Product) error
	Save(ctx context.Context, record *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, q listQuery) ([]models.Product, int64, error)
}

type service struct {
	repo productRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, producerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	if producerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "producer id is required")
	}
	cents, err := priceToCents(req.Price)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	record := &models.Product{
		ProducerID:    producerID,
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    cents,
		Category:      req.Category,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		ImageRef:      req.ImageRef,
		StripePriceID: req.StripePriceID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	dto := FromModel(record)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, producerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	record, err := s.ownedProduct(ctx, producerID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		record.Name = *req.Name
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.Price != nil {
		cents, err := priceToCents(*req.Price)
		if err != nil {
			return nil, err
		}
		record.PriceCents = cents
	}
	if req.Category != nil {
		record.Category = *req.Category
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		record.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		record.Unit = *req.Unit
	}
	if req.ImageRef != nil {
		record.ImageRef = req.ImageRef
	}
	if req.StripePriceID != nil {
		record.StripePriceID = req.StripePriceID
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
	}
	dto := FromModel(record)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, producerID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, producerID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(record)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	q := listQuery{
		Query:      input.Filters.Query,
		Category:   input.Filters.Category,
		ProducerID: input.Filters.ProducerID,
		Sort:       input.Filters.Sort,
		Pagination: input.Pagination,
	}
	if input.Filters.PriceMin != nil {
		cents, err := priceToCents(*input.Filters.PriceMin)
		if err != nil {
			return nil, err
		}
		q.PriceMinCents = &cents
	}
	if input.Filters.PriceMax != nil {
		cents, err := priceToCents(*input.Filters.PriceMax)
		if err != nil {
			return nil, err
		}
		q.PriceMaxCents = &cents
	}

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return &ListResult{
		Items: items,
		Page:  pagination.Describe(input.Pagination, total),
	}, nil
}

func (s *service) ownedProduct(ctx context.Context, producerID, productID uuid.UUID) (*models.Product, error) {
	record, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if record.ProducerID != producerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another producer")
	}
	return record, nil
}

// priceToCents converts a decimal euro amount into integer cents.
func priceToCents(price decimal.Decimal) (int, error) {
	if price.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	cents := price.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price precision is limited to cents")
	}
	return int(cents.IntPart()), nil
}
