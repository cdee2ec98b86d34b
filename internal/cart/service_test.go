package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marchelocal/marchelocal-backend/pkg/db/models"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
)

type stubCartRepo struct {
	carts     map[uuid.UUID]*models.Cart
	saveErr   error
	createErr error
	saves     int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (s *stubCartRepo) Create(ctx context.Context, record *models.Cart) error {
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		// losing a concurrent first create leaves the winner's row visible
		s.carts[record.BuyerID] = &models.Cart{ID: uuid.New(), BuyerID: record.BuyerID}
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.carts[record.BuyerID] = record
	return nil
}

func (s *stubCartRepo) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if record, ok := s.carts[buyerID]; ok {
		copied := *record
		copied.Items = append([]models.CartItem(nil), record.Items...)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) SaveSnapshot(ctx context.Context, cart *models.Cart, items []models.CartItem) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	stored := *cart
	stored.Items = append([]models.CartItem(nil), items...)
	stored.Version = cart.Version + 1
	s.carts[cart.BuyerID] = &stored
	cart.Version++
	return nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func newStubProductLoader() *stubProductLoader {
	return &stubProductLoader{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if record, ok := s.products[id]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductLoader) add(priceCents int) *models.Product {
	record := &models.Product{
		ID:         uuid.New(),
		ProducerID: uuid.New(),
		Name:       "Produit",
		PriceCents: priceCents,
	}
	s.products[record.ID] = record
	return record
}

type stubBuyerLoader struct {
	buyers map[uuid.UUID]*models.Buyer
}

func newStubBuyerLoader() *stubBuyerLoader {
	return &stubBuyerLoader{buyers: map[uuid.UUID]*models.Buyer{}}
}

func (s *stubBuyerLoader) BuyerByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	if record, ok := s.buyers[id]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type cartTestSetup struct {
	service  Service
	repo     *stubCartRepo
	products *stubProductLoader
	buyers   *stubBuyerLoader
	buyerID  uuid.UUID
}

func newCartTestSetup(t *testing.T) *cartTestSetup {
	t.Helper()
	repo := newStubCartRepo()
	products := newStubProductLoader()
	buyers := newStubBuyerLoader()
	buyerID := uuid.New()
	buyers.buyers[buyerID] = &models.Buyer{ID: buyerID}
	svc, err := NewService(repo, products, buyers)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return &cartTestSetup{service: svc, repo: repo, products: products, buyers: buyers, buyerID: buyerID}
}

func mustEqualEuros(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s euros, got %s", want, got)
	}
}

func assertReconciled(t *testing.T, cart *CartDTO) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range cart.Items {
		want := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.LineTotal.Equal(want) {
			t.Fatalf("line total %s != qty x unit price %s", item.LineTotal, want)
		}
		sum = sum.Add(item.LineTotal)
	}
	if !cart.Total.Equal(sum) {
		t.Fatalf("cart total %s != sum of lines %s", cart.Total, sum)
	}
}

func TestAddItemIncrementsExistingLineKeepingPriceSnapshot(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	cart, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 2)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	mustEqualEuros(t, cart.Total, "20.00")

	// price change after the first add must not touch the stored snapshot
	product.PriceCents = 9999

	cart, err = setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Items[0].Quantity)
	}
	mustEqualEuros(t, cart.Items[0].UnitPrice, "10.00")
	mustEqualEuros(t, cart.Total, "50.00")
	assertReconciled(t, cart)
}

func TestSetQuantityRecomputesTotal(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 5); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := setup.service.SetQuantity(context.Background(), setup.buyerID, product.ID, 1)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	mustEqualEuros(t, cart.Total, "10.00")
	assertReconciled(t, cart)
}

func TestAddItemLazilyCreatesCartAndSnapshotsPrice(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(350)

	cart, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 4)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.BuyerID != setup.buyerID {
		t.Fatal("cart not bound to buyer")
	}
	mustEqualEuros(t, cart.Items[0].UnitPrice, "3.50")
	mustEqualEuros(t, cart.Total, "14.00")
	assertReconciled(t, cart)
}

func TestAddItemMultipleProductsSumsLines(t *testing.T) {
	setup := newCartTestSetup(t)
	tomatoes := setup.products.add(350)
	honey := setup.products.add(620)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, tomatoes.ID, 2); err != nil {
		t.Fatalf("add tomatoes: %v", err)
	}
	cart, err := setup.service.AddItem(context.Background(), setup.buyerID, honey.ID, 1)
	if err != nil {
		t.Fatalf("add honey: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Items))
	}
	mustEqualEuros(t, cart.Total, "13.20")
	assertReconciled(t, cart)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	_, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemUnknownProductIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)

	_, err := setup.service.AddItem(context.Background(), setup.buyerID, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetQuantityMissingLineIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := setup.service.SetQuantity(context.Background(), setup.buyerID, uuid.New(), 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemDropsLineAndRecomputes(t *testing.T) {
	setup := newCartTestSetup(t)
	tomatoes := setup.products.add(350)
	honey := setup.products.add(620)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, tomatoes.ID, 2); err != nil {
		t.Fatalf("add tomatoes: %v", err)
	}
	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, honey.ID, 1); err != nil {
		t.Fatalf("add honey: %v", err)
	}

	cart, err := setup.service.RemoveItem(context.Background(), setup.buyerID, honey.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	mustEqualEuros(t, cart.Total, "7.00")
	assertReconciled(t, cart)
}

func TestRemoveItemMissingLineIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := setup.service.RemoveItem(context.Background(), setup.buyerID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCartOpsWithoutCartAreNotFound(t *testing.T) {
	setup := newCartTestSetup(t)

	if _, err := setup.service.GetCart(context.Background(), setup.buyerID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := setup.service.SetQuantity(context.Background(), setup.buyerID, uuid.New(), 1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("set: expected not found, got %v", err)
	}
	if _, err := setup.service.GetTotal(context.Background(), setup.buyerID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("total: expected not found, got %v", err)
	}
}

func TestClearReportsAlreadyEmpty(t *testing.T) {
	setup := newCartTestSetup(t)

	if _, err := setup.service.CreateCart(context.Background(), setup.buyerID); err != nil {
		t.Fatalf("create cart: %v", err)
	}

	alreadyEmpty, err := setup.service.Clear(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !alreadyEmpty {
		t.Fatal("expected already-empty report")
	}
	if setup.repo.saves != 0 {
		t.Fatal("clearing an empty cart must not write")
	}
}

func TestClearDrainsItems(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	alreadyEmpty, err := setup.service.Clear(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if alreadyEmpty {
		t.Fatal("cart had items, expected a real clear")
	}

	cart, err := setup.service.GetCart(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
	mustEqualEuros(t, cart.Total, "0.00")
}

func TestGetTotalReturnsStoredAggregate(t *testing.T) {
	setup := newCartTestSetup(t)
	cartID := uuid.New()
	setup.repo.carts[setup.buyerID] = &models.Cart{
		ID:         cartID,
		BuyerID:    setup.buyerID,
		TotalCents: 4242,
	}

	total, err := setup.service.GetTotal(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("get total failed: %v", err)
	}
	mustEqualEuros(t, total.Total, "42.42")
}

func TestCheckoutDrainsCartAndReportsSummary(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	summary, err := setup.service.Checkout(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if summary.ItemCount != 1 {
		t.Fatalf("expected one line, got %d", summary.ItemCount)
	}
	mustEqualEuros(t, summary.Total, "30.00")

	cart, err := setup.service.GetCart(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatal("checkout must drain the cart")
	}
}

func TestCheckoutOnPresentEmptyCartReturnsEmptySummary(t *testing.T) {
	setup := newCartTestSetup(t)

	if _, err := setup.service.CreateCart(context.Background(), setup.buyerID); err != nil {
		t.Fatalf("create cart: %v", err)
	}

	summary, err := setup.service.Checkout(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("checkout on empty cart failed: %v", err)
	}
	if summary.ItemCount != 0 || len(summary.Items) != 0 {
		t.Fatalf("expected empty summary, got %d lines", summary.ItemCount)
	}
	mustEqualEuros(t, summary.Total, "0.00")
	if setup.repo.saves != 0 {
		t.Fatal("checking out an empty cart must not write")
	}
}

func TestCheckoutMissingCartIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)

	_, err := setup.service.Checkout(context.Background(), setup.buyerID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLostVersionRaceSurfacesAsConflict(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	if _, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 1); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}

	setup.repo.saveErr = ErrVersionConflict
	_, err := setup.service.AddItem(context.Background(), setup.buyerID, product.ID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateCartUnknownBuyerIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)

	_, err := setup.service.CreateCart(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemUnknownBuyerIsNotFound(t *testing.T) {
	setup := newCartTestSetup(t)
	product := setup.products.add(1000)

	_, err := setup.service.AddItem(context.Background(), uuid.New(), product.ID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateCartLostFirstCreateRaceUsesWinner(t *testing.T) {
	setup := newCartTestSetup(t)
	setup.repo.createErr = errors.New(`duplicate key value violates unique constraint "idx_carts_buyer_id"`)

	cart, err := setup.service.CreateCart(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("create after lost race failed: %v", err)
	}
	winner := setup.repo.carts[setup.buyerID]
	if cart.ID != winner.ID {
		t.Fatal("expected the winner's cart after a lost first create")
	}
}

func TestCreateCartIsIdempotentPerBuyer(t *testing.T) {
	setup := newCartTestSetup(t)

	first, err := setup.service.CreateCart(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := setup.service.CreateCart(context.Background(), setup.buyerID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same cart on repeat create")
	}
}
