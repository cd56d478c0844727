package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/adoptions"
	"straypet/internal/platform/apperr"
)

type AdoptionsRepo struct {
	db *DB
}

func NewAdoptionsRepo(db *DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

const adoptionColumns = `a.id, a.pet_id, a.applicant_id, a.message, a.status, a.created_at, a.updated_at`

type adoptionRow struct {
	ID          string    `db:"id"`
	PetID       string    `db:"pet_id"`
	ApplicantID string    `db:"applicant_id"`
	Message     string    `db:"message"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row adoptionRow) toDomain() adoptions.Adoption {
	return adoptions.Adoption{
		ID:          row.ID,
		PetID:       row.PetID,
		ApplicantID: row.ApplicantID,
		Message:     row.Message,
		Status:      adoptions.Status(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (r *AdoptionsRepo) Create(ctx context.Context, a adoptions.Adoption) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO adoptions (id, pet_id, applicant_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.PetID, a.ApplicantID, a.Message, string(a.Status), a.CreatedAt, a.UpdatedAt)
	switch pgCode(err) {
	case codeForeignKeyViolation:
		return ErrNotFound
	case codeUniqueViolation:
		// índice parcial: una sola solicitud abierta por (mascota, solicitante)
		return fmt.Errorf("%w: an open application already exists", apperr.ErrConflict)
	}
	return err
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Adoption, error) {
	var row adoptionRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+adoptionColumns+` FROM adoptions a WHERE a.id = $1`, id)
	if err != nil {
		return adoptions.Adoption{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Adoption, error) {
	return r.selectMany(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoptions a
		WHERE a.pet_id = $1
		ORDER BY a.created_at DESC, a.id
	`, petID)
}

func (r *AdoptionsRepo) ListForUser(ctx context.Context, userID string) ([]adoptions.Adoption, error) {
	return r.selectMany(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoptions a
		JOIN pets p ON p.id = a.pet_id
		WHERE a.applicant_id = $1 OR p.owner_user_id = $1
		ORDER BY a.created_at DESC, a.id
	`, userID)
}

func (r *AdoptionsRepo) CountOpen(ctx context.Context, petID, exceptID string) (int, error) {
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		SELECT count(*) FROM adoptions
		WHERE pet_id = ? AND id::text <> ? AND status IN (?)
	`, petID, exceptID, strs(adoptions.OpenStatuses))
	if err != nil {
		return 0, err
	}
	var n int
	err = sqlx.GetContext(ctx, q, &n, query, args...)
	return n, err
}

func (r *AdoptionsRepo) HasOpenByApplicant(ctx context.Context, petID, applicantID string) (bool, error) {
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		SELECT EXISTS (
			SELECT 1 FROM adoptions
			WHERE pet_id = ? AND applicant_id = ? AND status IN (?)
		)
	`, petID, applicantID, strs(adoptions.OpenStatuses))
	if err != nil {
		return false, err
	}
	var ok bool
	err = sqlx.GetContext(ctx, q, &ok, query, args...)
	return ok, err
}

func (r *AdoptionsRepo) TransitionStatus(ctx context.Context, id string, from []adoptions.Status, to adoptions.Status, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE adoptions SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?)
	`, string(to), at, id, strs(from))
	if err != nil {
		return false, err
	}
	ok, err := affected(q.ExecContext(ctx, query, args...))
	if err != nil || ok {
		return ok, err
	}
	// no aplicó: distinguir "no existe" de "estado distinto"
	_, err = r.GetByID(ctx, id)
	return false, err
}

func (r *AdoptionsRepo) CloseOpenForPet(ctx context.Context, petID, exceptID string, at time.Time) (int, error) {
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE adoptions SET status = ?, updated_at = ?
		WHERE pet_id = ? AND id::text <> ? AND status IN (?)
	`, string(adoptions.StatusClosed), at, petID, exceptID, strs(adoptions.OpenStatuses))
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *AdoptionsRepo) selectMany(ctx context.Context, query string, args ...any) ([]adoptions.Adoption, error) {
	var rows []adoptionRow
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]adoptions.Adoption, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
