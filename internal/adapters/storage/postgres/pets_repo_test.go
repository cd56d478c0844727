package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straypet/internal/domain/pets"
)

func TestPetsRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM pets p WHERE p.id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewPetsRepo(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPetsRepo_GetByID_DecodesTraits(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM pets p WHERE p.id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_user_id", "name", "sex", "traits", "status", "address_id", "created_at", "updated_at"}).
			AddRow("p1", "u1", "Burek", "male", []byte(`{"vaccinated":true,"good_with_cats":true}`), "available", nil, now, now))

	p, err := NewPetsRepo(db).GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Burek", p.Name)
	assert.Equal(t, pets.StatusAvailable, p.Status)
	assert.True(t, p.Traits.Vaccinated)
	assert.True(t, p.Traits.GoodWithCats)
	assert.False(t, p.Traits.Trained)
	assert.Nil(t, p.AddressID)
}

func TestPetsRepo_TransitionStatus(t *testing.T) {
	from := []pets.Status{pets.StatusAvailable, pets.StatusPending}

	t.Run("applied", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`WITH cur AS`).
			WithArgs("p1", "adopted", sqlmock.AnyArg(), "available", "pending").
			WillReturnRows(sqlmock.NewRows([]string{"status", "applied"}).AddRow("pending", true))

		prev, ok, err := NewPetsRepo(db).TransitionStatus(context.Background(), "p1", from, pets.StatusAdopted, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, pets.StatusPending, prev)
	})

	t.Run("status does not match", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`WITH cur AS`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "applied"}).AddRow("adopted", false))

		prev, ok, err := NewPetsRepo(db).TransitionStatus(context.Background(), "p1", from, pets.StatusAdopted, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, pets.StatusAdopted, prev)
	})

	t.Run("missing pet", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`WITH cur AS`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "applied"}))

		_, _, err := NewPetsRepo(db).TransitionStatus(context.Background(), "nope", from, pets.StatusAdopted, time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPetsRepo_List_ExpandsStatusFilter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`p\.owner_user_id = \$1 AND p\.status IN \(\$2,\s*\$3\) ORDER BY p\.created_at DESC, p\.id LIMIT \$4`).
		WithArgs("u1", "available", "pending", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).
			AddRow("p2", "Mruczek", "pending").
			AddRow("p1", "Burek", "available"))

	out, err := NewPetsRepo(db).List(context.Background(), pets.ListFilter{
		OwnerUserID: "u1",
		Statuses:    []pets.Status{pets.StatusAvailable, pets.StatusPending},
		Limit:       20,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "p2", out[0].ID)
}

func TestPetsRepo_AddPhoto_UnknownPet(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO pet_photos`).
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	err := NewPetsRepo(db).AddPhoto(context.Background(), pets.Photo{ID: "ph1", PetID: "nope", Path: "pets/x.png"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPetsRepo_RemoveFavorite_Missing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM favorites`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPetsRepo(db).RemoveFavorite(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}
