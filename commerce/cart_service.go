package commerce

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
	"github.com/uptrace/bun"
)

// CartTotals summarizes a cart with effective unit prices applied.
type CartTotals struct {
	ItemCount     int   `json:"item_count"`
	SubtotalCents int64 `json:"subtotal_cents"`
}

// CartService owns cart mutation and checkout. Checkout runs in a single
// transaction: prices freeze, stock decrements, the cart empties, and the
// order appears together or not at all.
type CartService struct {
	repo   RepositoryManager
	logger nexus.Logger
	now    func() time.Time
}

type CartServiceOption func(*CartService)

func CartWithLogger(logger nexus.Logger) CartServiceOption {
	return func(s *CartService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func CartWithClock(clock func() time.Time) CartServiceOption {
	return func(s *CartService) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewCartService(repo RepositoryManager, opts ...CartServiceOption) (*CartService, error) {
	if repo == nil {
		return nil, goerrors.New("cart service requires a repository manager", goerrors.CategoryBadInput)
	}

	s := &CartService{
		repo:   repo,
		logger: nexus.NewDefaultLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// AddItem adds quantity units of the product to the user's cart, on top of
// any quantity already there.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, goerrors.New("quantity must be positive", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	product, err := s.repo.Products().GetByID(ctx, productID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "product not found")
	}

	if !product.Active {
		return nil, goerrors.New("product is not available", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"sku": product.SKU})
	}

	cart, err := s.repo.Carts().EnsureForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	target := quantity
	for _, item := range cart.Items {
		if item.ProductID == productID {
			target += item.Quantity
			break
		}
	}

	if product.StockQuantity < target {
		return nil, goerrors.New("not enough stock", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict).
			WithMetadata(map[string]any{
				"sku":       product.SKU,
				"available": product.StockQuantity,
				"requested": target,
			})
	}

	if _, err := s.repo.Carts().SaveItem(ctx, &CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  target,
	}); err != nil {
		return nil, err
	}

	return s.repo.Carts().GetForUser(ctx, userID)
}

// SetQuantity pins the line to an exact quantity. Zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, goerrors.New("quantity must not be negative", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	cart, err := s.repo.Carts().GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.repo.Carts().DeleteItem(ctx, cart.ID, productID); err != nil {
			return nil, err
		}
		return s.repo.Carts().GetForUser(ctx, userID)
	}

	if _, err := s.repo.Carts().SaveItem(ctx, &CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		return nil, err
	}

	return s.repo.Carts().GetForUser(ctx, userID)
}

// RemoveItem drops the product line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	cart, err := s.repo.Carts().GetForUser(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return err
	}
	return s.repo.Carts().DeleteItem(ctx, cart.ID, productID)
}

// Totals computes the cart summary with bulk pricing applied per line.
func (s *CartService) Totals(cart *Cart) CartTotals {
	totals := CartTotals{}
	if cart == nil {
		return totals
	}

	for _, item := range cart.Items {
		if item == nil || item.Product == nil {
			continue
		}
		totals.ItemCount += item.Quantity
		totals.SubtotalCents += int64(item.Quantity) * item.Product.UnitPriceCents(item.Quantity)
	}

	return totals
}

// Checkout turns the user's cart into an order. Business accounts start in
// pending approval; customer orders go straight to approved.
func (s *CartService) Checkout(ctx context.Context, user *nexus.User) (*Order, error) {
	if user == nil {
		return nil, nexus.ErrNotAuthenticated
	}

	var order *Order

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		cart, err := s.repo.Carts().GetForUserTx(ctx, tx, user.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryNotFound, "no cart to check out")
		}

		if len(cart.Items) == 0 {
			return goerrors.New("cart is empty", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}

		status := OrderStatusApproved
		if user.Role == nexus.RoleBusiness {
			status = OrderStatusPendingApproval
		}

		placedAt := s.now()
		order = &Order{
			ID:             uuid.New(),
			Number:         orderNumber(placedAt),
			UserID:         user.ID,
			OrganizationID: user.OrganizationID,
			Status:         status,
			PlacedAt:       &placedAt,
		}

		items := make([]*OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			if line.Product == nil {
				return goerrors.New("cart line lost its product", goerrors.CategoryInternal).
					WithMetadata(map[string]any{"product_id": line.ProductID.String()})
			}

			res, err := tx.NewUpdate().
				Model((*Product)(nil)).
				Set("stock_quantity = stock_quantity - ?", line.Quantity).
				Where("?TableAlias.id = ?", line.ProductID).
				Where("?TableAlias.stock_quantity >= ?", line.Quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			if rows, err := res.RowsAffected(); err == nil && rows == 0 {
				return goerrors.New("not enough stock", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict).
					WithMetadata(map[string]any{"sku": line.Product.SKU})
			}

			unitPrice := line.Product.UnitPriceCents(line.Quantity)
			items = append(items, &OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				UnitPriceCents: unitPrice,
			})
			order.SubtotalCents += int64(line.Quantity) * unitPrice
		}

		order.TotalCents = order.SubtotalCents + order.TaxCents

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return err
		}

		order.Items = items

		return s.repo.Carts().ClearTx(ctx, tx, cart.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "checkout transaction failed")
	}

	return order, nil
}

// orderNumber derives a readable order number from the placement time.
func orderNumber(t time.Time) string {
	return fmt.Sprintf("SO-%s-%s", t.UTC().Format("20060102"), uuid.NewString()[:8])
}
