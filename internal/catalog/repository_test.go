package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	"github.com/marchelocal/marchelocal-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	producers := `
CREATE TABLE IF NOT EXISTS producers (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  commune TEXT NOT NULL,
  telephone TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  description TEXT,
  picture_ref TEXT,
  product_categories TEXT NOT NULL DEFAULT '{}',
  verified INTEGER NOT NULL DEFAULT 0,
  verify_token_hash TEXT,
  verify_token_expiry DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  producer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  category TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  unit TEXT NOT NULL,
  image_ref TEXT,
  stripe_price_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(producers).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func mustCreateTestProducer(t *testing.T, db *gorm.DB) *models.Producer {
	t.Helper()
	record := &models.Producer{
		ID:           uuid.New(),
		FirstName:    "Jean",
		LastName:     "Dupont",
		Commune:      "Annecy",
		Telephone:    "0450000000",
		Email:        uuid.NewString() + "@ferme.fr",
		PasswordHash: "hash",
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func mustCreateCatalogProduct(t *testing.T, repo *Repository, producerID uuid.UUID, name, category string, priceCents int) *models.Product {
	t.Helper()
	record := &models.Product{
		ProducerID:  producerID,
		Name:        name,
		Description: "desc",
		PriceCents:  priceCents,
		Category:    category,
		Quantity:    10,
		Unit:        "kg",
	}
	require.NoError(t, repo.Create(context.Background(), record))
	return record
}

func TestListFiltersByNameCaseInsensitive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)

	mustCreateCatalogProduct(t, repo, producer.ID, "Tomates anciennes", "legumes", 350)
	mustCreateCatalogProduct(t, repo, producer.ID, "Miel toutes fleurs", "epicerie", 620)

	rows, total, err := repo.List(context.Background(), listQuery{Query: "TOMATE"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tomates anciennes", rows[0].Name)
}

func TestListFiltersByCategoryAndPriceRange(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)

	mustCreateCatalogProduct(t, repo, producer.ID, "Tomates", "legumes", 350)
	mustCreateCatalogProduct(t, repo, producer.ID, "Courgettes", "legumes", 180)
	mustCreateCatalogProduct(t, repo, producer.ID, "Miel", "epicerie", 620)

	min, max := 200, 500
	rows, total, err := repo.List(context.Background(), listQuery{
		Category:      "legumes",
		PriceMinCents: &min,
		PriceMaxCents: &max,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tomates", rows[0].Name)
}

func TestListSortsByPriceAscending(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)

	mustCreateCatalogProduct(t, repo, producer.ID, "Miel", "epicerie", 620)
	mustCreateCatalogProduct(t, repo, producer.ID, "Courgettes", "legumes", 180)
	mustCreateCatalogProduct(t, repo, producer.ID, "Tomates", "legumes", 350)

	rows, _, err := repo.List(context.Background(), listQuery{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Courgettes", rows[0].Name)
	assert.Equal(t, "Miel", rows[2].Name)
}

func TestListPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)

	for i := 0; i < 5; i++ {
		mustCreateCatalogProduct(t, repo, producer.ID, uuid.NewString(), "legumes", 100+i)
	}

	rows, total, err := repo.List(context.Background(), listQuery{
		Sort:       "price_asc",
		Pagination: pagination.Params{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, rows, 2)
	assert.Equal(t, 102, rows[0].PriceCents)
}

func TestFindByIDPreloadsProducer(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)
	created := mustCreateCatalogProduct(t, repo, producer.ID, "Tomates", "legumes", 350)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Producer)
	assert.Equal(t, producer.ID, found.Producer.ID)
	assert.Equal(t, "Annecy", found.Producer.Commune)
}

func TestDeleteRemovesRow(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	producer := mustCreateTestProducer(t, db)
	created := mustCreateCatalogProduct(t, repo, producer.ID, "Tomates", "legumes", 350)

	require.NoError(t, repo.Delete(context.Background(), created.ID))

	_, err := repo.FindByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
