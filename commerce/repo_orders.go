package commerce

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Orders is the order repository.
type Orders interface {
	repository.Repository[*Order]

	GetWithItems(ctx context.Context, id uuid.UUID) (*Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Order, error)
	ListForOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) (*Order, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status OrderStatus) (*Order, error)
}

type orders struct {
	repository.Repository[*Order]
	db *bun.DB
}

var _ Orders = (*orders)(nil)

// NewOrdersRepository builds the bun-backed order repository.
func NewOrdersRepository(db *bun.DB) Orders {
	repo := repository.NewRepository[*Order](db, repository.ModelHandlers[*Order]{
		NewRecord: func() *Order { return &Order{} },
		GetID: func(o *Order) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Order, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "number"
		},
	})

	return &orders{
		Repository: repo,
		db:         db,
	}
}

func (a *orders) GetWithItems(ctx context.Context, id uuid.UUID) (*Order, error) {
	record := &Order{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Items").
		Relation("Items.Product").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *orders) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Order, error) {
	return a.list(ctx, "?TableAlias.user_id = ?", userID, limit)
}

func (a *orders) ListForOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*Order, error) {
	return a.list(ctx, "?TableAlias.organization_id = ?", orgID, limit)
}

func (a *orders) list(ctx context.Context, where string, arg any, limit int) ([]*Order, error) {
	if limit < 1 {
		limit = 50
	}

	var records []*Order
	err := a.db.NewSelect().
		Model(&records).
		Where(where, arg).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *orders) UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) (*Order, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *orders) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status OrderStatus) (*Order, error) {
	record := &Order{}
	err := tx.NewUpdate().
		Model(record).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Returning("*").
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}
