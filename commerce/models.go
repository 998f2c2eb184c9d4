// Package commerce holds the storefront domain behind the session layer:
// the product catalog, carts, orders with a managed status lifecycle, and
// role-scoped dashboard summaries.
package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// All monetary amounts are integer cents.

// ProductCategory groups catalog entries.
type ProductCategory struct {
	bun.BaseModel `bun:"table:product_categories,alias:cat"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug,omitempty"`
	ParentID      *uuid.UUID `bun:"parent_id,nullzero,type:uuid" json:"parent_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Product is a sellable catalog entry. BulkPriceCents applies from
// BulkMinQuantity units up, for business accounts buying in volume.
type Product struct {
	bun.BaseModel   `bun:"table:products,alias:prd"`
	ID              uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SKU             string            `bun:"sku,notnull,unique" json:"sku,omitempty"`
	Name            string            `bun:"name,notnull" json:"name,omitempty"`
	Description     string            `bun:"description" json:"description,omitempty"`
	CategoryID      *uuid.UUID        `bun:"category_id,nullzero,type:uuid" json:"category_id,omitempty"`
	Category        *ProductCategory  `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	PriceCents      int64             `bun:"price_cents,notnull" json:"price_cents,omitempty"`
	BulkPriceCents  int64             `bun:"bulk_price_cents" json:"bulk_price_cents,omitempty"`
	BulkMinQuantity int               `bun:"bulk_min_quantity" json:"bulk_min_quantity,omitempty"`
	StockQuantity   int               `bun:"stock_quantity,notnull" json:"stock_quantity,omitempty"`
	Active          bool              `bun:"active,notnull" json:"active,omitempty"`
	Variants        []*ProductVariant `bun:"rel:has-many,join:id=product_id" json:"variants,omitempty"`
	CreatedAt       *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time        `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// UnitPriceCents returns the effective unit price for a quantity, applying
// the bulk tier when configured and met.
func (p *Product) UnitPriceCents(quantity int) int64 {
	if p.BulkPriceCents > 0 && p.BulkMinQuantity > 0 && quantity >= p.BulkMinQuantity {
		return p.BulkPriceCents
	}
	return p.PriceCents
}

// ProductVariant is a purchasable variation of a product, with its own SKU,
// stock, and a price adjustment relative to the base product.
type ProductVariant struct {
	bun.BaseModel   `bun:"table:product_variants,alias:pvr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProductID       uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
	SKU             string     `bun:"sku,notnull,unique" json:"sku,omitempty"`
	Name            string     `bun:"name,notnull" json:"name,omitempty"`
	PriceDeltaCents int64      `bun:"price_delta_cents" json:"price_delta_cents,omitempty"`
	StockQuantity   int        `bun:"stock_quantity,notnull" json:"stock_quantity,omitempty"`
	Active          bool       `bun:"active,notnull" json:"active,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UnitPriceCents is the variant price for a quantity, the base product tier
// price plus the variant delta.
func (v *ProductVariant) UnitPriceCents(base *Product, quantity int) int64 {
	if base == nil {
		return v.PriceDeltaCents
	}
	return base.UnitPriceCents(quantity) + v.PriceDeltaCents
}

// OrderStatus is the order lifecycle status.
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "draft"
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusOnHold          OrderStatus = "on_hold"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCanceled        OrderStatus = "canceled"
)

// Order is a placed purchase. OrganizationID is set for business accounts
// so approval flows and credit checks can apply per company.
type Order struct {
	bun.BaseModel  `bun:"table:orders,alias:ord"`
	ID             uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Number         string       `bun:"number,notnull,unique" json:"number,omitempty"`
	UserID         uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	OrganizationID *uuid.UUID   `bun:"organization_id,nullzero,type:uuid" json:"organization_id,omitempty"`
	Status         OrderStatus  `bun:"status,notnull" json:"status,omitempty"`
	SubtotalCents  int64        `bun:"subtotal_cents,notnull" json:"subtotal_cents,omitempty"`
	TaxCents       int64        `bun:"tax_cents" json:"tax_cents,omitempty"`
	TotalCents     int64        `bun:"total_cents,notnull" json:"total_cents,omitempty"`
	Items          []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	PlacedAt       *time.Time   `bun:"placed_at,nullzero" json:"placed_at,omitempty"`
	CreatedAt      *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes a missing status to draft.
func (o *Order) EnsureStatus() {
	if o.Status == "" {
		o.Status = OrderStatusDraft
	}
}

// OrderItem is a line on an order, with the unit price frozen at placement.
type OrderItem struct {
	bun.BaseModel  `bun:"table:order_items,alias:oit"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OrderID        uuid.UUID  `bun:"order_id,notnull,type:uuid" json:"order_id,omitempty"`
	ProductID      uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
	Product        *Product   `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	Quantity       int        `bun:"quantity,notnull" json:"quantity,omitempty"`
	UnitPriceCents int64      `bun:"unit_price_cents,notnull" json:"unit_price_cents,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// LineTotalCents is quantity times the frozen unit price.
func (i *OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// Cart is the open shopping cart, one per user.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:crt"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID   `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	Items         []*CartItem `bun:"rel:has-many,join:id=cart_id" json:"items,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// CartItem is a line in a cart. Prices are not frozen until checkout.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:cit"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CartID        uuid.UUID  `bun:"cart_id,notnull,type:uuid" json:"cart_id,omitempty"`
	ProductID     uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
	Product       *Product   `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
