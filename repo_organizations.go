package nexus

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// organizationStatusTransitions holds the legal status moves. Absent
// pairs are rejected.
var organizationStatusTransitions = map[OrganizationStatus]map[OrganizationStatus]struct{}{
	OrganizationStatusPending: {
		OrganizationStatusActive:    {},
		OrganizationStatusSuspended: {},
	},
	OrganizationStatusActive: {
		OrganizationStatusSuspended: {},
	},
	OrganizationStatusSuspended: {
		OrganizationStatusActive: {},
	},
}

// CanTransitionOrganization reports whether the status move is legal.
func CanTransitionOrganization(from, to OrganizationStatus) bool {
	if from == to {
		return true
	}
	targets, ok := organizationStatusTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Organizations is the company account repository.
type Organizations interface {
	repository.Repository[*Organization]

	Create(ctx context.Context, record *Organization, criteria ...repository.InsertCriteria) (*Organization, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Organization, criteria ...repository.InsertCriteria) (*Organization, error)

	GetByCode(ctx context.Context, code string) (*Organization, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrganizationStatus) (*Organization, error)
}

type organizations struct {
	repository.Repository[*Organization]
	db *bun.DB
}

var _ Organizations = (*organizations)(nil)

// NewOrganizationsRepository builds the bun-backed organization repository.
func NewOrganizationsRepository(db *bun.DB) Organizations {
	repo := repository.NewRepository[*Organization](db, repository.ModelHandlers[*Organization]{
		NewRecord: func() *Organization { return &Organization{} },
		GetID: func(o *Organization) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Organization, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "code"
		},
	})

	return &organizations{
		Repository: repo,
		db:         db,
	}
}

func (a *organizations) Create(ctx context.Context, record *Organization, criteria ...repository.InsertCriteria) (*Organization, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *organizations) CreateTx(ctx context.Context, tx bun.IDB, record *Organization, criteria ...repository.InsertCriteria) (*Organization, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.EnsureStatus()
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *organizations) GetByCode(ctx context.Context, code string) (*Organization, error) {
	record := &Organization{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *organizations) UpdateStatus(ctx context.Context, id uuid.UUID, status OrganizationStatus) (*Organization, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		return nil, err
	}

	if !CanTransitionOrganization(record.Status, status) {
		return nil, goerrors.New("invalid organization status transition", goerrors.CategoryBadInput).
			WithTextCode("INVALID_STATUS_TRANSITION").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{
				"from": string(record.Status),
				"to":   string(status),
			})
	}

	if record.Status == status {
		return record, nil
	}

	record.Status = status

	return a.Repository.Update(ctx, record, repository.UpdateByID(record.ID.String()))
}
