package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/lost"
	"straypet/internal/domain/pets"
)

type LostRepo struct {
	db *DB
}

func NewLostRepo(db *DB) *LostRepo {
	return &LostRepo{db: db}
}

const lostColumns = `
	l.id, l.pet_id,
	l.pet_name, l.species, l.breed, l.color, l.sex, l.size,
	l.address_id, l.lost_at, l.description, l.reward, l.photo,
	l.status, l.reporter_id, l.contact_phone, l.contact_email,
	l.created_at, l.updated_at`

type lostRow struct {
	ID           string    `db:"id"`
	PetID        *string   `db:"pet_id"`
	PetName      string    `db:"pet_name"`
	Species      string    `db:"species"`
	Breed        string    `db:"breed"`
	Color        string    `db:"color"`
	Sex          string    `db:"sex"`
	Size         string    `db:"size"`
	AddressID    *string   `db:"address_id"`
	LostAt       time.Time `db:"lost_at"`
	Description  string    `db:"description"`
	Reward       *float64  `db:"reward"`
	Photo        string    `db:"photo"`
	Status       string    `db:"status"`
	ReporterID   string    `db:"reporter_id"`
	ContactPhone string    `db:"contact_phone"`
	ContactEmail string    `db:"contact_email"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row lostRow) toDomain() lost.Report {
	return lost.Report{
		ID:           row.ID,
		PetID:        row.PetID,
		PetName:      row.PetName,
		Species:      row.Species,
		Breed:        row.Breed,
		Color:        row.Color,
		Sex:          pets.Sex(row.Sex),
		Size:         row.Size,
		AddressID:    row.AddressID,
		LostAt:       row.LostAt,
		Description:  row.Description,
		Reward:       row.Reward,
		Photo:        row.Photo,
		Status:       lost.Status(row.Status),
		ReporterID:   row.ReporterID,
		ContactPhone: row.ContactPhone,
		ContactEmail: row.ContactEmail,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r *LostRepo) Create(ctx context.Context, rep lost.Report) error {
	_, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO lost_reports (
			id, pet_id,
			pet_name, species, breed, color, sex, size,
			address_id, lost_at, description, reward, photo,
			status, reporter_id, contact_phone, contact_email,
			created_at, updated_at
		) VALUES (
			:id, :pet_id,
			:pet_name, :species, :breed, :color, :sex, :size,
			:address_id, :lost_at, :description, :reward, :photo,
			:status, :reporter_id, :contact_phone, :contact_email,
			:created_at, :updated_at
		)
	`, lostRow{
		ID:           rep.ID,
		PetID:        rep.PetID,
		PetName:      rep.PetName,
		Species:      rep.Species,
		Breed:        rep.Breed,
		Color:        rep.Color,
		Sex:          string(rep.Sex),
		Size:         rep.Size,
		AddressID:    rep.AddressID,
		LostAt:       rep.LostAt,
		Description:  rep.Description,
		Reward:       rep.Reward,
		Photo:        rep.Photo,
		Status:       string(rep.Status),
		ReporterID:   rep.ReporterID,
		ContactPhone: rep.ContactPhone,
		ContactEmail: rep.ContactEmail,
		CreatedAt:    rep.CreatedAt,
		UpdatedAt:    rep.UpdatedAt,
	})
	return err
}

func (r *LostRepo) GetByID(ctx context.Context, id string) (lost.Report, error) {
	var row lostRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `SELECT `+lostColumns+` FROM lost_reports l WHERE l.id = $1`, id)
	if err != nil {
		return lost.Report{}, notFound(err)
	}
	return row.toDomain(), nil
}

func lostWhere(f lost.ListFilter) where {
	var w where
	if len(f.Statuses) > 0 {
		w.add("l.status IN (?)", strs(f.Statuses))
	}
	if f.Species != "" {
		w.add("lower(l.species) = lower(?)", f.Species)
	}
	if f.ReporterID != "" {
		w.add("l.reporter_id = ?", f.ReporterID)
	}
	return w
}

func (r *LostRepo) List(ctx context.Context, f lost.ListFilter) ([]lost.Report, error) {
	w := lostWhere(f)
	q := r.db.conn(ctx)
	query, args := limitOffset(`SELECT `+lostColumns+` FROM lost_reports l`+w.String()+` ORDER BY l.created_at DESC, l.id`, w.args, f.Limit, f.Offset)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []lostRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]lost.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListGeo hace el join con la dirección y deja fuera los reportes sin coordenadas.
func (r *LostRepo) ListGeo(ctx context.Context, f lost.ListFilter) ([]lost.GeoReport, error) {
	w := lostWhere(f)
	w.add("a.latitude IS NOT NULL AND a.longitude IS NOT NULL")

	q := r.db.conn(ctx)
	query, args := limitOffset(`
		SELECT `+lostColumns+`, a.latitude, a.longitude, COALESCE(c.name, '') AS city_name
		FROM lost_reports l
		JOIN addresses a ON a.id = l.address_id
		LEFT JOIN cities c ON c.id = a.city_id`+w.String()+`
		ORDER BY l.created_at DESC, l.id`, w.args, f.Limit, f.Offset)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		lostRow
		Latitude  float64 `db:"latitude"`
		Longitude float64 `db:"longitude"`
		CityName  string  `db:"city_name"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]lost.GeoReport, 0, len(rows))
	for _, row := range rows {
		out = append(out, lost.GeoReport{
			Report:    row.toDomain(),
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			CityName:  row.CityName,
		})
	}
	return out, nil
}

func (r *LostRepo) HasOpenForPet(ctx context.Context, petID, exceptID string) (bool, error) {
	var ok bool
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &ok, `
		SELECT EXISTS (
			SELECT 1 FROM lost_reports
			WHERE pet_id = $1 AND id::text <> $2 AND status = $3
		)
	`, petID, exceptID, string(lost.StatusOpen))
	return ok, err
}

func (r *LostRepo) TransitionStatus(ctx context.Context, id string, from []lost.Status, to lost.Status, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	q := r.db.conn(ctx)
	query, args, err := build(q, `
		UPDATE lost_reports SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?)
	`, string(to), at, id, strs(from))
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
