package nexus

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the profile-row repository.
type Profiles interface {
	repository.Repository[*Profile]

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Profile, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*Profile, error)

	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)
	UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)

	ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Profile, error)
	ApplyPatchTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProfilePatch) (*Profile, error)

	TrackSuccessfulLogin(ctx context.Context, profile *Profile) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

// NewProfilesRepository builds the bun-backed profile repository.
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

type identifierOption struct {
	column string
	value  string
}

// resolveProfileIdentifier maps a free-form identifier onto the columns to try.
func resolveProfileIdentifier(identifier string) []identifierOption {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	if _, err := uuid.Parse(identifier); err == nil {
		return []identifierOption{{column: "id", value: identifier}}
	}

	if _, err := mail.ParseAddress(identifier); err == nil {
		return []identifierOption{{column: "email", value: strings.ToLower(identifier)}}
	}

	return nil
}

func (a *profiles) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *profiles) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	options := resolveProfileIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &Profile{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Upsert merges the record into an existing row matched by id or email, or
// creates one. Zero fields on the incoming record leave the stored values
// alone, so a full profile insert can complete a minimal sign-up row.
func (a *profiles) Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	return a.UpsertTx(ctx, a.db, record, criteria...)
}

func (a *profiles) UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	identifier := record.Email
	if record.ID != uuid.Nil {
		identifier = record.ID.String()
	}

	existing, err := a.GetByIdentifierTx(ctx, tx, identifier)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}
		return a.CreateTx(ctx, tx, record)
	}

	mergeProfile(existing, record)

	criteria = append(criteria, repository.UpdateByID(existing.ID.String()))
	updated, err := a.Repository.UpdateTx(ctx, tx, existing, criteria...)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return existing, nil
	}
	return updated, nil
}

func (a *profiles) ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Profile, error) {
	return a.ApplyPatchTx(ctx, a.db, id, patch)
}

func (a *profiles) ApplyPatchTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProfilePatch) (*Profile, error) {
	if patch.IsEmpty() {
		return a.GetByIdentifierTx(ctx, tx, id.String())
	}

	q := tx.NewUpdate().
		Model((*Profile)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Set("updated_at = ?", time.Now())

	if patch.FirstName != nil {
		q = q.Set("first_name = ?", *patch.FirstName)
	}
	if patch.LastName != nil {
		q = q.Set("last_name = ?", *patch.LastName)
	}
	if patch.Phone != nil {
		q = q.Set("phone_number = ?", *patch.Phone)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return a.GetByIdentifierTx(ctx, tx, id.String())
}

func (a *profiles) TrackSuccessfulLogin(ctx context.Context, profile *Profile) error {
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "profiles" AS "prf"
		SET
			"loggedin_at" = ?
		WHERE
			("prf".id = ?)
			AND "prf"."deleted_at" IS NULL;
	`, loggedInAt, profile.ID).Exec(ctx)

	return err
}

var resetProfilePasswordSQL = `UPDATE "profiles" AS "prf"
SET
	"password_hash" = ?
WHERE
	"prf"."deleted_at" IS NULL
AND (
	"prf"."id" = ?
) RETURNING *;`

func (a *profiles) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *profiles) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, resetProfilePasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	record.EnsureRole()
}

func mergeProfile(dst, src *Profile) {
	if src.FirstName != "" {
		dst.FirstName = src.FirstName
	}
	if src.LastName != "" {
		dst.LastName = src.LastName
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.Email != "" {
		dst.Email = strings.ToLower(strings.TrimSpace(src.Email))
	}
	if src.OrganizationID != nil {
		dst.OrganizationID = src.OrganizationID
	}
	if src.Role != RoleUnknown {
		dst.Role = src.Role
	}
	if src.PasswordHash != "" {
		dst.PasswordHash = src.PasswordHash
	}
}
