package commerce

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProductSort enumerates the catalog sort orders.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortName      ProductSort = "name"
)

// ProductFilter narrows a catalog listing. Zero values mean no constraint.
type ProductFilter struct {
	CategoryID    *uuid.UUID
	Search        string
	MinPriceCents int64
	MaxPriceCents int64
	InStockOnly   bool
	Sort          ProductSort
	Page          int
	PerPage       int
}

func (f ProductFilter) normalized() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 24
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	return f
}

// Products is the catalog repository.
type Products interface {
	repository.Repository[*Product]

	GetBySKU(ctx context.Context, sku string) (*Product, error)
	ListCatalog(ctx context.Context, filter ProductFilter) ([]*Product, int, error)
}

type products struct {
	repository.Repository[*Product]
	db *bun.DB
}

var _ Products = (*products)(nil)

// NewProductsRepository builds the bun-backed catalog repository.
func NewProductsRepository(db *bun.DB) Products {
	repo := repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "sku"
		},
	})

	return &products{
		Repository: repo,
		db:         db,
	}
}

func (a *products) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	record := &Product{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Category").
		Relation("Variants").
		Where("?TableAlias.sku = ?", strings.TrimSpace(sku)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListCatalog returns one page of active products matching the filter, plus
// the total match count for pagination.
func (a *products) ListCatalog(ctx context.Context, filter ProductFilter) ([]*Product, int, error) {
	filter = filter.normalized()

	var records []*Product
	q := a.db.NewSelect().
		Model(&records).
		Relation("Category").
		Where("?TableAlias.active = ?", true)

	if filter.CategoryID != nil {
		q = q.Where("?TableAlias.category_id = ?", *filter.CategoryID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.name) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.sku) LIKE ?", pattern)
		})
	}

	if filter.MinPriceCents > 0 {
		q = q.Where("?TableAlias.price_cents >= ?", filter.MinPriceCents)
	}
	if filter.MaxPriceCents > 0 {
		q = q.Where("?TableAlias.price_cents <= ?", filter.MaxPriceCents)
	}
	if filter.InStockOnly {
		q = q.Where("?TableAlias.stock_quantity > 0")
	}

	switch filter.Sort {
	case ProductSortPriceAsc:
		q = q.Order("price_cents ASC")
	case ProductSortPriceDesc:
		q = q.Order("price_cents DESC")
	case ProductSortName:
		q = q.Order("name ASC")
	default:
		q = q.Order("created_at DESC")
	}

	total, err := q.
		Limit(filter.PerPage).
		Offset((filter.Page - 1) * filter.PerPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
