package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/shelters"
	"straypet/internal/platform/apperr"
)

type SheltersRepo struct {
	db *DB
}

func NewSheltersRepo(db *DB) *SheltersRepo {
	return &SheltersRepo{db: db}
}

const shelterColumns = `
	id, name, description,
	email, phone, website,
	address_id, logo, cover_image,
	capacity, current_animals, founded_year,
	is_verified, is_active,
	facebook_url, instagram_url, twitter_url,
	created_by, created_at, updated_at`

type shelterRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Description    string    `db:"description"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	Website        string    `db:"website"`
	AddressID      *string   `db:"address_id"`
	Logo           string    `db:"logo"`
	CoverImage     string    `db:"cover_image"`
	Capacity       int       `db:"capacity"`
	CurrentAnimals int       `db:"current_animals"`
	FoundedYear    *int      `db:"founded_year"`
	IsVerified     bool      `db:"is_verified"`
	IsActive       bool      `db:"is_active"`
	FacebookURL    string    `db:"facebook_url"`
	InstagramURL   string    `db:"instagram_url"`
	TwitterURL     string    `db:"twitter_url"`
	CreatedBy      string    `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func toShelterRow(s shelters.Shelter) shelterRow {
	return shelterRow(s)
}

func (row shelterRow) toDomain() shelters.Shelter {
	return shelters.Shelter(row)
}

// nameConflict traduce la violación del índice único sobre lower(name).
func nameConflict(err error, name string) error {
	if pgCode(err) == codeUniqueViolation {
		return fmt.Errorf("%w: shelter %q already exists", apperr.ErrConflict, name)
	}
	return err
}

func (r *SheltersRepo) Create(ctx context.Context, s shelters.Shelter) error {
	_, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO shelters (`+shelterColumns+`) VALUES (
			:id, :name, :description,
			:email, :phone, :website,
			:address_id, :logo, :cover_image,
			:capacity, :current_animals, :founded_year,
			:is_verified, :is_active,
			:facebook_url, :instagram_url, :twitter_url,
			:created_by, :created_at, :updated_at
		)
	`, toShelterRow(s))
	return nameConflict(err, s.Name)
}

func (r *SheltersRepo) Update(ctx context.Context, s shelters.Shelter) error {
	res, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		UPDATE shelters
		SET
			name = :name,
			description = :description,
			email = :email,
			phone = :phone,
			website = :website,
			address_id = :address_id,
			logo = :logo,
			cover_image = :cover_image,
			capacity = :capacity,
			current_animals = :current_animals,
			founded_year = :founded_year,
			is_verified = :is_verified,
			is_active = :is_active,
			facebook_url = :facebook_url,
			instagram_url = :instagram_url,
			twitter_url = :twitter_url,
			updated_at = :updated_at
		WHERE id = :id
	`, toShelterRow(s))
	return mustAffect(res, nameConflict(err, s.Name))
}

func (r *SheltersRepo) GetByID(ctx context.Context, id string) (shelters.Shelter, error) {
	var row shelterRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+shelterColumns+` FROM shelters WHERE id = $1`, id)
	if err != nil {
		return shelters.Shelter{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *SheltersRepo) List(ctx context.Context, f shelters.ListFilter) ([]shelters.Shelter, error) {
	var w where
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	q := r.db.conn(ctx)
	query, args := limitOffset(`SELECT `+shelterColumns+` FROM shelters`+w.String()+` ORDER BY is_verified DESC, lower(name) ASC`, w.args, f.Limit, f.Offset)
	query = q.Rebind(query)

	var rows []shelterRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]shelters.Shelter, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
