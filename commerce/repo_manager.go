package commerce

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Products() Products
	Categories() repository.Repository[*ProductCategory]
	Orders() Orders
	Carts() Carts
}

func NewCategoriesRepository(db *bun.DB) repository.Repository[*ProductCategory] {
	handlers := repository.ModelHandlers[*ProductCategory]{
		NewRecord: func() *ProductCategory {
			return &ProductCategory{}
		},
		GetID: func(record *ProductCategory) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ProductCategory, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db         *bun.DB
	products   Products
	categories repository.Repository[*ProductCategory]
	orders     Orders
	carts      Carts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		products:   NewProductsRepository(db),
		categories: NewCategoriesRepository(db),
		orders:     NewOrdersRepository(db),
		carts:      NewCartsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.products == nil {
		return errors.New("repository products should be initialized")
	}

	if m.categories == nil {
		return errors.New("repository categories should be initialized")
	}

	if m.orders == nil {
		return errors.New("repository orders should be initialized")
	}

	if m.carts == nil {
		return errors.New("repository carts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Products() Products {
	return m.products
}

func (m mngr) Categories() repository.Repository[*ProductCategory] {
	return m.categories
}

func (m mngr) Orders() Orders {
	return m.orders
}

func (m mngr) Carts() Carts {
	return m.carts
}
