package commerce

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Carts is the cart repository. Carts load with their items and products
// since every caller needs them for pricing.
type Carts interface {
	repository.Repository[*Cart]

	GetForUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	GetForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Cart, error)
	EnsureForUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	SaveItem(ctx context.Context, item *CartItem) (*CartItem, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearTx(ctx context.Context, tx bun.IDB, cartID uuid.UUID) error
}

type carts struct {
	repository.Repository[*Cart]
	db *bun.DB
}

var _ Carts = (*carts)(nil)

// NewCartsRepository builds the bun-backed cart repository.
func NewCartsRepository(db *bun.DB) Carts {
	repo := repository.NewRepository[*Cart](db, repository.ModelHandlers[*Cart]{
		NewRecord: func() *Cart { return &Cart{} },
		GetID: func(c *Cart) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Cart, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &carts{
		Repository: repo,
		db:         db,
	}
}

func (a *carts) GetForUser(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	return a.GetForUserTx(ctx, a.db, userID)
}

func (a *carts) GetForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Cart, error) {
	record := &Cart{}
	err := tx.NewSelect().
		Model(record).
		Relation("Items").
		Relation("Items.Product").
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *carts) EnsureForUser(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	cart, err := a.GetForUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.Repository.Create(ctx, &Cart{
		ID:     uuid.New(),
		UserID: userID,
	})
}

func (a *carts) SaveItem(ctx context.Context, item *CartItem) (*CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	_, err := a.db.NewInsert().
		Model(item).
		On("CONFLICT (cart_id, product_id) DO UPDATE").
		Set("quantity = EXCLUDED.quantity").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a *carts) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*CartItem)(nil)).
		Where("?TableAlias.cart_id = ?", cartID).
		Where("?TableAlias.product_id = ?", productID).
		Exec(ctx)
	return err
}

func (a *carts) ClearTx(ctx context.Context, tx bun.IDB, cartID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*CartItem)(nil)).
		Where("?TableAlias.cart_id = ?", cartID).
		Exec(ctx)
	return err
}
