package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

// listQuery is the storage-level filter shape; prices are already cents.
type listQuery struct {
	Query         string
	Category      string
	PriceMinCents *int
	PriceMaxCents *int
	ProducerID    *uuid.UUID
	Sort          string
	Pagination    pagination.Params
}

var sortClauses = map[string]string{
	"price_asc":  "price_cents ASC",
	"price_desc": "price_cents DESC",
	"name":       "name ASC",
	"newest":     "created_at DESC",
}

// Repository exposes catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, record *models.Product) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// Save persists product changes.
func (r *Repository) Save(ctx context.Context, record *models.Product) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// FindByID loads a product with its producer.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var record models.Product
	if err := r.db.WithContext(ctx).Preload("Producer").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List applies the filter set and returns one page plus the unpaged count.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Product, int64, error) {
	p := pagination.Normalize(q.Pagination)

	filtered := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&models.Product{})
		if q.Query != "" {
			tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Query)+"%")
		}
		if q.Category != "" {
			tx = tx.Where("category = ?", q.Category)
		}
		if q.PriceMinCents != nil {
			tx = tx.Where("price_cents >= ?", *q.PriceMinCents)
		}
		if q.PriceMaxCents != nil {
			tx = tx.Where("price_cents <= ?", *q.PriceMaxCents)
		}
		if q.ProducerID != nil {
			tx = tx.Where("producer_id = ?", *q.ProducerID)
		}
		return tx
	}

	var total int64
	if err := filtered(r.db.WithContext(ctx)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortClauses[q.Sort]
	if !ok {
		order = sortClauses["newest"]
	}

	var rows []models.Product
	if err := filtered(r.db.WithContext(ctx)).
		Preload("Producer").
		Order(order).
		Offset(pagination.Offset(p)).
		Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
