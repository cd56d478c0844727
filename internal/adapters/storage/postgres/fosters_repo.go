package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/fosters"
)

type FostersRepo struct {
	db *DB
}

func NewFostersRepo(db *DB) *FostersRepo {
	return &FostersRepo{db: db}
}

const fosterColumns = `
	id, user_id,
	full_name, email, phone, address_id,
	pet_count, can_take_dogs, can_take_cats, can_take_rabbits, can_take_others,
	motivation, introduction, terms_agreed,
	status, reviewer_id, review_note, reviewed_at,
	created_at, updated_at`

type fosterRow struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	FullName       string     `db:"full_name"`
	Email          string     `db:"email"`
	Phone          string     `db:"phone"`
	AddressID      *string    `db:"address_id"`
	PetCount       int        `db:"pet_count"`
	CanTakeDogs    bool       `db:"can_take_dogs"`
	CanTakeCats    bool       `db:"can_take_cats"`
	CanTakeRabbits bool       `db:"can_take_rabbits"`
	CanTakeOthers  string     `db:"can_take_others"`
	Motivation     string     `db:"motivation"`
	Introduction   string     `db:"introduction"`
	TermsAgreed    bool       `db:"terms_agreed"`
	Status         string     `db:"status"`
	ReviewerID     string     `db:"reviewer_id"`
	ReviewNote     string     `db:"review_note"`
	ReviewedAt     *time.Time `db:"reviewed_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func toFosterRow(a fosters.Application) fosterRow {
	return fosterRow{
		ID:             a.ID,
		UserID:         a.UserID,
		FullName:       a.FullName,
		Email:          a.Email,
		Phone:          a.Phone,
		AddressID:      a.AddressID,
		PetCount:       a.PetCount,
		CanTakeDogs:    a.CanTakeDogs,
		CanTakeCats:    a.CanTakeCats,
		CanTakeRabbits: a.CanTakeRabbits,
		CanTakeOthers:  a.CanTakeOthers,
		Motivation:     a.Motivation,
		Introduction:   a.Introduction,
		TermsAgreed:    a.TermsAgreed,
		Status:         string(a.Status),
		ReviewerID:     a.ReviewerID,
		ReviewNote:     a.ReviewNote,
		ReviewedAt:     a.ReviewedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (row fosterRow) toDomain() fosters.Application {
	return fosters.Application{
		ID:             row.ID,
		UserID:         row.UserID,
		FullName:       row.FullName,
		Email:          row.Email,
		Phone:          row.Phone,
		AddressID:      row.AddressID,
		PetCount:       row.PetCount,
		CanTakeDogs:    row.CanTakeDogs,
		CanTakeCats:    row.CanTakeCats,
		CanTakeRabbits: row.CanTakeRabbits,
		CanTakeOthers:  row.CanTakeOthers,
		Motivation:     row.Motivation,
		Introduction:   row.Introduction,
		TermsAgreed:    row.TermsAgreed,
		Status:         fosters.Status(row.Status),
		ReviewerID:     row.ReviewerID,
		ReviewNote:     row.ReviewNote,
		ReviewedAt:     row.ReviewedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// Create: el índice único parcial sobre user_id (status = 'pending')
// garantiza una sola pendiente por usuario.
func (r *FostersRepo) Create(ctx context.Context, a fosters.Application) error {
	_, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO foster_applications (`+fosterColumns+`) VALUES (
			:id, :user_id,
			:full_name, :email, :phone, :address_id,
			:pet_count, :can_take_dogs, :can_take_cats, :can_take_rabbits, :can_take_others,
			:motivation, :introduction, :terms_agreed,
			:status, :reviewer_id, :review_note, :reviewed_at,
			:created_at, :updated_at
		)
	`, toFosterRow(a))
	if pgCode(err) == codeUniqueViolation {
		return fosters.ErrAlreadyPending
	}
	return err
}

func (r *FostersRepo) GetByID(ctx context.Context, id string) (fosters.Application, error) {
	var row fosterRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+fosterColumns+` FROM foster_applications WHERE id = $1`, id)
	if err != nil {
		return fosters.Application{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *FostersRepo) Update(ctx context.Context, a fosters.Application) error {
	res, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		UPDATE foster_applications
		SET
			full_name = :full_name,
			email = :email,
			phone = :phone,
			address_id = :address_id,
			pet_count = :pet_count,
			can_take_dogs = :can_take_dogs,
			can_take_cats = :can_take_cats,
			can_take_rabbits = :can_take_rabbits,
			can_take_others = :can_take_others,
			motivation = :motivation,
			introduction = :introduction,
			terms_agreed = :terms_agreed,
			updated_at = :updated_at
		WHERE id = :id
	`, toFosterRow(a))
	return mustAffect(res, err)
}

func (r *FostersRepo) List(ctx context.Context, f fosters.ListFilter) ([]fosters.Application, error) {
	var w where
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		w.add("status IN (?)", strs(f.Statuses))
	}
	q := r.db.conn(ctx)
	query, args := limitOffset(`SELECT `+fosterColumns+` FROM foster_applications`+w.String()+` ORDER BY created_at DESC, id`, w.args, f.Limit, f.Offset)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []fosterRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]fosters.Application, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FostersRepo) TransitionStatus(ctx context.Context, id string, from []fosters.Status, to fosters.Status, reviewerID, note string, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE foster_applications
		SET status = ?, reviewer_id = ?, review_note = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?)
	`, string(to), reviewerID, note, at, at, id, strs(from))
	if err != nil {
		return false, err
	}
	ok, err := affected(q.ExecContext(ctx, query, args...))
	if err != nil || ok {
		return ok, err
	}
	_, err = r.GetByID(ctx, id)
	return false, err
}
