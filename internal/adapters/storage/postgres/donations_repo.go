package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/donations"
	"straypet/internal/domain/pets"
)

type DonationsRepo struct {
	db *DB
}

func NewDonationsRepo(db *DB) *DonationsRepo {
	return &DonationsRepo{db: db}
}

const donationColumns = `
	id, donor_id,
	name, species, breed, sex, age_years, age_months,
	description, traits, is_stray, contact_phone,
	address_id, shelter_id,
	status, reviewer_id, review_note, created_pet_id,
	created_at, updated_at`

type donationRow struct {
	ID           string    `db:"id"`
	DonorID      string    `db:"donor_id"`
	Name         string    `db:"name"`
	Species      string    `db:"species"`
	Breed        string    `db:"breed"`
	Sex          string    `db:"sex"`
	AgeYears     int       `db:"age_years"`
	AgeMonths    int       `db:"age_months"`
	Description  string    `db:"description"`
	Traits       []byte    `db:"traits"`
	IsStray      bool      `db:"is_stray"`
	ContactPhone string    `db:"contact_phone"`
	AddressID    *string   `db:"address_id"`
	ShelterID    *string   `db:"shelter_id"`
	Status       string    `db:"status"`
	ReviewerID   string    `db:"reviewer_id"`
	ReviewNote   string    `db:"review_note"`
	CreatedPetID *string   `db:"created_pet_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row donationRow) toDomain() (donations.Donation, error) {
	d := donations.Donation{
		ID:           row.ID,
		DonorID:      row.DonorID,
		Name:         row.Name,
		Species:      row.Species,
		Breed:        row.Breed,
		Sex:          pets.Sex(row.Sex),
		AgeYears:     row.AgeYears,
		AgeMonths:    row.AgeMonths,
		Description:  row.Description,
		IsStray:      row.IsStray,
		ContactPhone: row.ContactPhone,
		AddressID:    row.AddressID,
		ShelterID:    row.ShelterID,
		Status:       donations.Status(row.Status),
		ReviewerID:   row.ReviewerID,
		ReviewNote:   row.ReviewNote,
		CreatedPetID: row.CreatedPetID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Traits) > 0 {
		if err := json.Unmarshal(row.Traits, &d.Traits); err != nil {
			return donations.Donation{}, err
		}
	}
	return d, nil
}

func (r *DonationsRepo) Create(ctx context.Context, d donations.Donation) error {
	traits, err := json.Marshal(d.Traits)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO donations (`+donationColumns+`) VALUES (
			:id, :donor_id,
			:name, :species, :breed, :sex, :age_years, :age_months,
			:description, :traits, :is_stray, :contact_phone,
			:address_id, :shelter_id,
			:status, :reviewer_id, :review_note, :created_pet_id,
			:created_at, :updated_at
		)
	`, donationRow{
		ID:           d.ID,
		DonorID:      d.DonorID,
		Name:         d.Name,
		Species:      d.Species,
		Breed:        d.Breed,
		Sex:          string(d.Sex),
		AgeYears:     d.AgeYears,
		AgeMonths:    d.AgeMonths,
		Description:  d.Description,
		Traits:       traits,
		IsStray:      d.IsStray,
		ContactPhone: d.ContactPhone,
		AddressID:    d.AddressID,
		ShelterID:    d.ShelterID,
		Status:       string(d.Status),
		ReviewerID:   d.ReviewerID,
		ReviewNote:   d.ReviewNote,
		CreatedPetID: d.CreatedPetID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	})
	return err
}

func (r *DonationsRepo) GetByID(ctx context.Context, id string) (donations.Donation, error) {
	var row donationRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	if err != nil {
		return donations.Donation{}, notFound(err)
	}
	return row.toDomain()
}

func (r *DonationsRepo) ListByDonor(ctx context.Context, donorID string) ([]donations.Donation, error) {
	return r.selectMany(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1
		ORDER BY created_at DESC, id
	`, donorID)
}

func (r *DonationsRepo) List(ctx context.Context, f donations.ListFilter) ([]donations.Donation, error) {
	var w where
	if len(f.Statuses) > 0 {
		w.add("status IN (?)", strs(f.Statuses))
	}
	q := r.db.conn(ctx)
	query, args := limitOffset(`SELECT `+donationColumns+` FROM donations`+w.String()+` ORDER BY created_at DESC, id`, w.args, f.Limit, 0)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}
	return r.selectMany(ctx, query, args...)
}

func (r *DonationsRepo) AddPhoto(ctx context.Context, p donations.Photo) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO donation_photos (id, donation_id, path, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.DonationID, p.Path, p.Position, p.CreatedAt)
	if pgCode(err) == codeForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *DonationsRepo) ListPhotos(ctx context.Context, donationID string) ([]donations.Photo, error) {
	var rows []struct {
		ID         string    `db:"id"`
		DonationID string    `db:"donation_id"`
		Path       string    `db:"path"`
		Position   int       `db:"position"`
		CreatedAt  time.Time `db:"created_at"`
	}
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `
		SELECT id, donation_id, path, position, created_at
		FROM donation_photos
		WHERE donation_id = $1
		ORDER BY position ASC, created_at ASC
	`, donationID)
	if err != nil {
		return nil, err
	}
	out := make([]donations.Photo, 0, len(rows))
	for _, row := range rows {
		out = append(out, donations.Photo{ID: row.ID, DonationID: row.DonationID, Path: row.Path, Position: row.Position, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// TransitionStatus solo aplica mientras created_pet_id siga vacío.
func (r *DonationsRepo) TransitionStatus(ctx context.Context, id string, from []donations.Status, to donations.Status, reviewerID, note string, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE donations
		SET status = ?, reviewer_id = ?,
			review_note = CASE WHEN ? = '' THEN review_note ELSE ? END,
			updated_at = ?
		WHERE id = ? AND created_pet_id IS NULL AND status IN (?)
	`, string(to), reviewerID, note, note, at, id, strs(from))
	if err != nil {
		return false, err
	}
	return r.orMissing(ctx, id)(affected(q.ExecContext(ctx, query, args...)))
}

// MarkApproved fija la mascota creada una sola vez, y solo si nadie
// rechazó o cerró la donación mientras tanto.
func (r *DonationsRepo) MarkApproved(ctx context.Context, id, petID, reviewerID, note string, at time.Time) (bool, error) {
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE donations
		SET created_pet_id = ?, status = ?, reviewer_id = ?,
			review_note = CASE WHEN ? = '' THEN review_note ELSE ? END,
			updated_at = ?
		WHERE id = ? AND created_pet_id IS NULL AND status IN (?)
	`, petID, string(donations.StatusApproved), reviewerID, note, note, at, id, strs(donations.ApprovableStatuses))
	if err != nil {
		return false, err
	}
	return r.orMissing(ctx, id)(affected(q.ExecContext(ctx, query, args...)))
}

// orMissing: un UPDATE condicional sin filas puede ser "no existe" (error)
// o "condición no cumplida" (false).
func (r *DonationsRepo) orMissing(ctx context.Context, id string) func(bool, error) (bool, error) {
	return func(ok bool, err error) (bool, error) {
		if err != nil || ok {
			return ok, err
		}
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
}

func (r *DonationsRepo) selectMany(ctx context.Context, query string, args ...any) ([]donations.Donation, error) {
	var rows []donationRow
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]donations.Donation, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
