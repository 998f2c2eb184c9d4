package commerce_test

import (
	"context"
	"database/sql"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus/commerce"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockActivitySink implements nexus.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event nexus.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockOrders implements commerce.Orders. Unmocked repository methods panic
// through the embedded nil interface.
type MockOrders struct {
	commerce.Orders
	mock.Mock
}

func (m *MockOrders) GetWithItems(ctx context.Context, id uuid.UUID) (*commerce.Order, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*commerce.Order)
	return record, args.Error(1)
}

func (m *MockOrders) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*commerce.Order, error) {
	args := m.Called(ctx, userID, limit)
	records, _ := args.Get(0).([]*commerce.Order)
	return records, args.Error(1)
}

func (m *MockOrders) ListForOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*commerce.Order, error) {
	args := m.Called(ctx, orgID, limit)
	records, _ := args.Get(0).([]*commerce.Order)
	return records, args.Error(1)
}

func (m *MockOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status commerce.OrderStatus) (*commerce.Order, error) {
	args := m.Called(ctx, id, status)
	record, _ := args.Get(0).(*commerce.Order)
	return record, args.Error(1)
}

// MockProducts implements commerce.Products
type MockProducts struct {
	commerce.Products
	mock.Mock
}

func (m *MockProducts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*commerce.Product, error) {
	args := m.Called(ctx, id, criteria)
	record, _ := args.Get(0).(*commerce.Product)
	return record, args.Error(1)
}

func (m *MockProducts) GetBySKU(ctx context.Context, sku string) (*commerce.Product, error) {
	args := m.Called(ctx, sku)
	record, _ := args.Get(0).(*commerce.Product)
	return record, args.Error(1)
}

func (m *MockProducts) ListCatalog(ctx context.Context, filter commerce.ProductFilter) ([]*commerce.Product, int, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]*commerce.Product)
	return records, args.Int(1), args.Error(2)
}

// MockCarts implements commerce.Carts
type MockCarts struct {
	commerce.Carts
	mock.Mock
}

func (m *MockCarts) GetForUser(ctx context.Context, userID uuid.UUID) (*commerce.Cart, error) {
	args := m.Called(ctx, userID)
	record, _ := args.Get(0).(*commerce.Cart)
	return record, args.Error(1)
}

func (m *MockCarts) GetForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*commerce.Cart, error) {
	args := m.Called(ctx, tx, userID)
	record, _ := args.Get(0).(*commerce.Cart)
	return record, args.Error(1)
}

func (m *MockCarts) EnsureForUser(ctx context.Context, userID uuid.UUID) (*commerce.Cart, error) {
	args := m.Called(ctx, userID)
	record, _ := args.Get(0).(*commerce.Cart)
	return record, args.Error(1)
}

func (m *MockCarts) SaveItem(ctx context.Context, item *commerce.CartItem) (*commerce.CartItem, error) {
	args := m.Called(ctx, item)
	record, _ := args.Get(0).(*commerce.CartItem)
	return record, args.Error(1)
}

func (m *MockCarts) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	args := m.Called(ctx, cartID, productID)
	return args.Error(0)
}

func (m *MockCarts) ClearTx(ctx context.Context, tx bun.IDB, cartID uuid.UUID) error {
	args := m.Called(ctx, tx, cartID)
	return args.Error(0)
}

// MockRepositoryManager implements commerce.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Products() commerce.Products {
	args := m.Called()
	return args.Get(0).(commerce.Products)
}

func (m *MockRepositoryManager) Categories() repository.Repository[*commerce.ProductCategory] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*commerce.ProductCategory])
}

func (m *MockRepositoryManager) Orders() commerce.Orders {
	args := m.Called()
	return args.Get(0).(commerce.Orders)
}

func (m *MockRepositoryManager) Carts() commerce.Carts {
	args := m.Called()
	return args.Get(0).(commerce.Carts)
}
