package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/pets"
)

// PetsRepo implementa pets.Repository, PhotoRepository y FavoriteRepository.
type PetsRepo struct {
	db *DB
}

func NewPetsRepo(db *DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	p.id, p.owner_user_id,
	p.name, p.species, p.breed, p.sex,
	p.age_years, p.age_months, p.size, p.traits,
	p.description, p.contact_phone,
	p.address_id, p.shelter_id, p.cover,
	p.status, p.created_at, p.updated_at`

type petRow struct {
	ID           string    `db:"id"`
	OwnerUserID  string    `db:"owner_user_id"`
	Name         string    `db:"name"`
	Species      string    `db:"species"`
	Breed        string    `db:"breed"`
	Sex          string    `db:"sex"`
	AgeYears     int       `db:"age_years"`
	AgeMonths    int       `db:"age_months"`
	Size         string    `db:"size"`
	Traits       []byte    `db:"traits"`
	Description  string    `db:"description"`
	ContactPhone string    `db:"contact_phone"`
	AddressID    *string   `db:"address_id"`
	ShelterID    *string   `db:"shelter_id"`
	Cover        string    `db:"cover"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toPetRow(p pets.Pet) (petRow, error) {
	traits, err := json.Marshal(p.Traits)
	if err != nil {
		return petRow{}, err
	}
	return petRow{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		Sex:          string(p.Sex),
		AgeYears:     p.AgeYears,
		AgeMonths:    p.AgeMonths,
		Size:         p.Size,
		Traits:       traits,
		Description:  p.Description,
		ContactPhone: p.ContactPhone,
		AddressID:    p.AddressID,
		ShelterID:    p.ShelterID,
		Cover:        p.Cover,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func (row petRow) toDomain() (pets.Pet, error) {
	p := pets.Pet{
		ID:           row.ID,
		OwnerUserID:  row.OwnerUserID,
		Name:         row.Name,
		Species:      row.Species,
		Breed:        row.Breed,
		Sex:          pets.Sex(row.Sex),
		AgeYears:     row.AgeYears,
		AgeMonths:    row.AgeMonths,
		Size:         row.Size,
		Description:  row.Description,
		ContactPhone: row.ContactPhone,
		AddressID:    row.AddressID,
		ShelterID:    row.ShelterID,
		Cover:        row.Cover,
		Status:       pets.Status(row.Status),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Traits) > 0 {
		if err := json.Unmarshal(row.Traits, &p.Traits); err != nil {
			return pets.Pet{}, err
		}
	}
	return p, nil
}

func toPets(rows []petRow) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	row, err := toPetRow(p)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO pets (
			id, owner_user_id,
			name, species, breed, sex,
			age_years, age_months, size, traits,
			description, contact_phone,
			address_id, shelter_id, cover,
			status, created_at, updated_at
		) VALUES (
			:id, :owner_user_id,
			:name, :species, :breed, :sex,
			:age_years, :age_months, :size, :traits,
			:description, :contact_phone,
			:address_id, :shelter_id, :cover,
			:status, :created_at, :updated_at
		)
	`, row)
	return err
}

// Update no toca status ni created_at.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	row, err := toPetRow(p)
	if err != nil {
		return err
	}
	return mustAffect(sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		UPDATE pets
		SET
			name = :name,
			species = :species,
			breed = :breed,
			sex = :sex,
			age_years = :age_years,
			age_months = :age_months,
			size = :size,
			traits = :traits,
			description = :description,
			contact_phone = :contact_phone,
			address_id = :address_id,
			shelter_id = :shelter_id,
			cover = :cover,
			updated_at = :updated_at
		WHERE id = :id
	`, row))
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	var row petRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+petColumns+` FROM pets p WHERE p.id = $1`, id)
	if err != nil {
		return pets.Pet{}, notFound(err)
	}
	return row.toDomain()
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	var w where
	if f.OwnerUserID != "" {
		w.add("p.owner_user_id = ?", f.OwnerUserID)
	}
	if f.ShelterID != "" {
		w.add("p.shelter_id = ?", f.ShelterID)
	}
	if f.Species != "" {
		w.add("lower(p.species) = lower(?)", f.Species)
	}
	if len(f.Statuses) > 0 {
		w.add("p.status IN (?)", strs(f.Statuses))
	}

	q := r.db.conn(ctx)
	query, args := limitOffset(`SELECT `+petColumns+` FROM pets p`+w.String()+` ORDER BY p.created_at DESC, p.id`, w.args, f.Limit, f.Offset)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []petRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	return toPets(rows)
}

func (r *PetsRepo) FindByNameAndOwner(ctx context.Context, name, ownerUserID string) (pets.Pet, error) {
	var row petRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `
		SELECT `+petColumns+`
		FROM pets p
		WHERE p.name = $1 AND p.owner_user_id = $2
		ORDER BY p.created_at ASC
		LIMIT 1
	`, name, ownerUserID)
	if err != nil {
		return pets.Pet{}, notFound(err)
	}
	return row.toDomain()
}

// TransitionStatus bloquea la fila y actualiza en la misma sentencia.
// Sin filas = la mascota no existe.
func (r *PetsRepo) TransitionStatus(ctx context.Context, id string, from []pets.Status, to pets.Status, at time.Time) (pets.Status, bool, error) {
	if len(from) == 0 {
		return "", false, nil
	}

	q := r.db.conn(ctx)
	query, args, err := build(q, `
		WITH cur AS (
			SELECT id, status FROM pets WHERE id = ? FOR UPDATE
		), upd AS (
			UPDATE pets AS p
			SET status = ?, updated_at = ?
			FROM cur
			WHERE p.id = cur.id AND cur.status IN (?)
			RETURNING p.id
		)
		SELECT cur.status, EXISTS (SELECT 1 FROM upd) AS applied FROM cur
	`, id, string(to), at, strs(from))
	if err != nil {
		return "", false, err
	}

	var res struct {
		Status  string `db:"status"`
		Applied bool   `db:"applied"`
	}
	if err := sqlx.GetContext(ctx, q, &res, query, args...); err != nil {
		return "", false, notFound(err)
	}
	return pets.Status(res.Status), res.Applied, nil
}

func (r *PetsRepo) AddPhoto(ctx context.Context, ph pets.Photo) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO pet_photos (id, pet_id, path, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ph.ID, ph.PetID, ph.Path, ph.Order, ph.CreatedAt)
	if pgCode(err) == codeForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *PetsRepo) ListPhotos(ctx context.Context, petID string) ([]pets.Photo, error) {
	var rows []struct {
		ID        string    `db:"id"`
		PetID     string    `db:"pet_id"`
		Path      string    `db:"path"`
		Position  int       `db:"position"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `
		SELECT id, pet_id, path, position, created_at
		FROM pet_photos
		WHERE pet_id = $1
		ORDER BY position ASC, created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}

	out := make([]pets.Photo, 0, len(rows))
	for _, row := range rows {
		out = append(out, pets.Photo{ID: row.ID, PetID: row.PetID, Path: row.Path, Order: row.Position, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

func (r *PetsRepo) AddFavorite(ctx context.Context, f pets.Favorite) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO favorites (user_id, pet_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, pet_id) DO NOTHING
	`, f.UserID, f.PetID, f.CreatedAt)
	if pgCode(err) == codeForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *PetsRepo) RemoveFavorite(ctx context.Context, userID, petID string) error {
	return mustAffect(r.db.conn(ctx).ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND pet_id = $2`, userID, petID))
}

func (r *PetsRepo) ListFavorites(ctx context.Context, userID string) ([]pets.Pet, error) {
	var rows []petRow
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `
		SELECT `+petColumns+`
		FROM favorites f
		JOIN pets p ON p.id = f.pet_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return toPets(rows)
}
