package commerce_test

import (
	"context"
	"database/sql"
	"testing"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus/commerce"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func cartServiceFixture(t *testing.T, repo *MockRepositoryManager) *commerce.CartService {
	t.Helper()
	svc, err := commerce.NewCartService(repo, commerce.CartWithLogger(testLogger{}))
	require.NoError(t, err)
	return svc
}

func TestCartServiceRequiresRepository(t *testing.T) {
	_, err := commerce.NewCartService(nil)
	require.Error(t, err)
}

func TestCartServiceAddItemAccumulatesQuantity(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	cartID := uuid.New()

	product := &commerce.Product{
		ID:            productID,
		SKU:           "WIDGET-1",
		PriceCents:    1250,
		StockQuantity: 10,
		Active:        true,
	}
	cart := &commerce.Cart{
		ID:     cartID,
		UserID: userID,
		Items: []*commerce.CartItem{
			{CartID: cartID, ProductID: productID, Product: product, Quantity: 3},
		},
	}

	products := &MockProducts{}
	products.On("GetByID", mock.Anything, productID.String(), mock.Anything).
		Return(product, nil).Once()

	carts := &MockCarts{}
	carts.On("EnsureForUser", mock.Anything, userID).Return(cart, nil).Once()
	carts.On("SaveItem", mock.Anything, mock.MatchedBy(func(item *commerce.CartItem) bool {
		return item.CartID == cartID && item.ProductID == productID && item.Quantity == 5
	})).Return(&commerce.CartItem{}, nil).Once()
	carts.On("GetForUser", mock.Anything, userID).Return(cart, nil).Once()

	repo := &MockRepositoryManager{}
	repo.On("Products").Return(products)
	repo.On("Carts").Return(carts)

	svc := cartServiceFixture(t, repo)

	_, err := svc.AddItem(context.Background(), userID, productID, 2)
	require.NoError(t, err)
	carts.AssertExpectations(t)
}

func TestCartServiceAddItemRejectsBadQuantity(t *testing.T) {
	svc := cartServiceFixture(t, &MockRepositoryManager{})
	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 0)
	require.Error(t, err)
}

func TestCartServiceAddItemRejectsInactiveProduct(t *testing.T) {
	productID := uuid.New()
	products := &MockProducts{}
	products.On("GetByID", mock.Anything, productID.String(), mock.Anything).
		Return(&commerce.Product{ID: productID, SKU: "GONE-1", Active: false}, nil).Once()

	repo := &MockRepositoryManager{}
	repo.On("Products").Return(products)

	svc := cartServiceFixture(t, repo)
	_, err := svc.AddItem(context.Background(), uuid.New(), productID, 1)
	require.Error(t, err)
}

func TestCartServiceAddItemRejectsInsufficientStock(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	products := &MockProducts{}
	products.On("GetByID", mock.Anything, productID.String(), mock.Anything).
		Return(&commerce.Product{ID: productID, SKU: "LOW-1", Active: true, StockQuantity: 2}, nil).Once()

	carts := &MockCarts{}
	carts.On("EnsureForUser", mock.Anything, userID).
		Return(&commerce.Cart{ID: uuid.New(), UserID: userID}, nil).Once()

	repo := &MockRepositoryManager{}
	repo.On("Products").Return(products)
	repo.On("Carts").Return(carts)

	svc := cartServiceFixture(t, repo)
	_, err := svc.AddItem(context.Background(), userID, productID, 3)
	require.Error(t, err)
	carts.AssertNotCalled(t, "SaveItem", mock.Anything, mock.Anything)
}

func TestCartServiceSetQuantityZeroRemovesLine(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	cart := &commerce.Cart{ID: uuid.New(), UserID: userID}

	carts := &MockCarts{}
	carts.On("GetForUser", mock.Anything, userID).Return(cart, nil).Twice()
	carts.On("DeleteItem", mock.Anything, cart.ID, productID).Return(nil).Once()

	repo := &MockRepositoryManager{}
	repo.On("Carts").Return(carts)

	svc := cartServiceFixture(t, repo)
	_, err := svc.SetQuantity(context.Background(), userID, productID, 0)
	require.NoError(t, err)
	carts.AssertExpectations(t)
}

func TestCartServiceRemoveItemIgnoresMissingCart(t *testing.T) {
	userID := uuid.New()

	carts := &MockCarts{}
	carts.On("GetForUser", mock.Anything, userID).
		Return(nil, repository.NewRecordNotFound()).Once()

	repo := &MockRepositoryManager{}
	repo.On("Carts").Return(carts)

	svc := cartServiceFixture(t, repo)
	require.NoError(t, svc.RemoveItem(context.Background(), userID, uuid.New()))
	carts.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartServiceTotalsAppliesBulkPricing(t *testing.T) {
	bulk := &commerce.Product{
		PriceCents:      1000,
		BulkPriceCents:  800,
		BulkMinQuantity: 10,
	}
	regular := &commerce.Product{PriceCents: 500}

	cart := &commerce.Cart{
		Items: []*commerce.CartItem{
			{Product: bulk, Quantity: 12},   // bulk tier: 12 * 800
			{Product: regular, Quantity: 3}, // list price: 3 * 500
			{Product: nil, Quantity: 99},    // orphaned line is skipped
		},
	}

	svc := cartServiceFixture(t, &MockRepositoryManager{})
	totals := svc.Totals(cart)

	assert.Equal(t, 15, totals.ItemCount)
	assert.Equal(t, int64(12*800+3*500), totals.SubtotalCents)

	assert.Zero(t, svc.Totals(nil).ItemCount)
}

func TestCartServiceCheckoutRequiresUser(t *testing.T) {
	svc := cartServiceFixture(t, &MockRepositoryManager{})
	_, err := svc.Checkout(context.Background(), nil)
	assert.ErrorIs(t, err, nexus.ErrNotAuthenticated)
}

func TestCartServiceCheckoutRejectsEmptyCart(t *testing.T) {
	user := &nexus.User{ID: uuid.New(), Role: nexus.RoleCustomer}

	carts := &MockCarts{}
	carts.On("GetForUserTx", mock.Anything, mock.Anything, user.ID).
		Return(&commerce.Cart{ID: uuid.New(), UserID: user.ID}, nil).Once()

	repo := &MockRepositoryManager{}
	repo.On("Carts").Return(carts)

	var txErr error
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			txErr = fn(args.Get(0).(context.Context), tx)
		}).Once()

	svc := cartServiceFixture(t, repo)
	_, _ = svc.Checkout(context.Background(), user)

	require.Error(t, txErr)
	assert.Contains(t, txErr.Error(), "cart is empty")
}
