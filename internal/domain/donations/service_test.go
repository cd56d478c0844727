package donations_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobfs "straypet/internal/adapters/blob/fs"
	mem "straypet/internal/adapters/storage/memory"
	"straypet/internal/app"
	"straypet/internal/domain/donations"
	"straypet/internal/domain/events"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/blob"
)

var (
	donor    = auth.Actor{UserID: "donor-1"}
	reviewer = auth.Actor{UserID: "staff-1", IsStaff: true}
)

// flakyBlobs falla la lectura de los paths que contienen `failOn`.
type flakyBlobs struct {
	blob.Store
	failOn string
}

func (f flakyBlobs) Read(ctx context.Context, p string) ([]byte, error) {
	if f.failOn != "" && strings.Contains(p, f.failOn) {
		return nil, errors.New("disk on fire")
	}
	return f.Store.Read(ctx, p)
}

func setup(t *testing.T, failOn string) (app.Services, blob.Store) {
	t.Helper()
	fs, err := blobfs.New(t.TempDir())
	require.NoError(t, err)
	blobs := flakyBlobs{Store: fs, failOn: failOn}
	return app.NewServices(app.MemoryStorage(mem.NewStore()), nil, blobs, nil), blobs
}

func threePhotos() []blob.File {
	return []blob.File{
		{Name: "front.jpg", Data: []byte("photo-1")},
		{Name: "side.jpg", Data: []byte("photo-2")},
		{Name: "sleeping.jpg", Data: []byte("photo-3")},
	}
}

func submit(t *testing.T, svcs app.Services, photos []blob.File) donations.Donation {
	t.Helper()
	d, err := svcs.Donations.Submit(context.Background(), donor, donations.SubmitInput{
		Name:    "Luna",
		Species: "Cat",
		Sex:     "female",
		Traits:  pets.Traits{Vaccinated: true},
	}, photos)
	require.NoError(t, err)
	return d
}

func TestApprove_CreatesPetWithPhotosAndCover(t *testing.T) {
	svcs, blobs := setup(t, "")
	ctx := context.Background()
	d := submit(t, svcs, threePhotos())
	assert.Equal(t, donations.StatusSubmitted, d.Status)

	p, err := svcs.Donations.Approve(ctx, reviewer, d.ID, "ok")
	require.NoError(t, err)

	assert.Equal(t, pets.StatusAvailable, p.Status)
	assert.Equal(t, donor.UserID, p.OwnerUserID)
	assert.Equal(t, "cat", p.Species)
	assert.True(t, p.Traits.Vaccinated)

	photos, err := svcs.Pets.ListPhotos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	for i, ph := range photos {
		assert.Equal(t, i, ph.Order)
		assert.True(t, strings.HasPrefix(ph.Path, "pets/photos/"+p.ID+"_"), ph.Path)
	}

	require.NotEmpty(t, p.Cover)
	assert.NotEqual(t, photos[0].Path, p.Cover, "cover is a separate copy")
	cover, err := blobs.Read(ctx, p.Cover)
	require.NoError(t, err)
	assert.Equal(t, []byte("photo-1"), cover)

	got, _, err := svcs.Donations.Get(ctx, donor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, donations.StatusApproved, got.Status)
	require.NotNil(t, got.CreatedPetID)
	assert.Equal(t, p.ID, *got.CreatedPetID)
	assert.Equal(t, "ok", got.ReviewNote)

	evs, err := svcs.Events.ListByPet(ctx, p.ID, events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeDonationApproved, evs[0].Type)
	assert.Equal(t, d.ID, evs[0].RefID)
}

func TestApprove_IsIdempotent(t *testing.T) {
	svcs, _ := setup(t, "")
	ctx := context.Background()
	d := submit(t, svcs, threePhotos())

	first, err := svcs.Donations.Approve(ctx, reviewer, d.ID, "")
	require.NoError(t, err)
	second, err := svcs.Donations.Approve(ctx, reviewer, d.ID, "again")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	mine, err := svcs.Pets.ListByOwner(ctx, donor.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	photos, err := svcs.Pets.ListPhotos(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 3)
}

func TestApprove_SkipsUnreadablePhotos(t *testing.T) {
	svcs, blobs := setup(t, "front.jpg")
	ctx := context.Background()
	d := submit(t, svcs, threePhotos())

	p, err := svcs.Donations.Approve(ctx, reviewer, d.ID, "")
	require.NoError(t, err)

	photos, err := svcs.Pets.ListPhotos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, 1, photos[0].Order)

	// la portada es la primera foto que se pudo copiar
	cover, err := blobs.Read(ctx, p.Cover)
	require.NoError(t, err)
	assert.Equal(t, []byte("photo-2"), cover)
}

func TestApprove_WithoutPhotos(t *testing.T) {
	svcs, _ := setup(t, "")
	d := submit(t, svcs, nil)

	p, err := svcs.Donations.Approve(context.Background(), reviewer, d.ID, "")
	require.NoError(t, err)
	assert.Empty(t, p.Cover)
}

func TestApprove_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("staff only", func(t *testing.T) {
		svcs, _ := setup(t, "")
		d := submit(t, svcs, nil)
		_, err := svcs.Donations.Approve(ctx, donor, d.ID, "")
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})

	t.Run("rejected donation cannot be approved", func(t *testing.T) {
		svcs, _ := setup(t, "")
		d := submit(t, svcs, nil)
		_, err := svcs.Donations.Reject(ctx, reviewer, d.ID, "no")
		require.NoError(t, err)

		_, err = svcs.Donations.Approve(ctx, reviewer, d.ID, "")
		assert.True(t, errors.Is(err, apperr.ErrBadState))
	})

	t.Run("unknown donation", func(t *testing.T) {
		svcs, _ := setup(t, "")
		_, err := svcs.Donations.Approve(ctx, reviewer, "missing", "")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}

func TestReviewFlow(t *testing.T) {
	svcs, _ := setup(t, "")
	ctx := context.Background()
	d := submit(t, svcs, nil)

	got, err := svcs.Donations.StartReview(ctx, reviewer, d.ID)
	require.NoError(t, err)
	assert.Equal(t, donations.StatusReviewing, got.Status)

	// mismo estado: no-op
	got, err = svcs.Donations.StartReview(ctx, reviewer, d.ID)
	require.NoError(t, err)
	assert.Equal(t, donations.StatusReviewing, got.Status)

	_, err = svcs.Donations.Approve(ctx, reviewer, d.ID, "")
	require.NoError(t, err)

	_, err = svcs.Donations.Reject(ctx, reviewer, d.ID, "too late")
	assert.True(t, errors.Is(err, apperr.ErrBadState))
	_, err = svcs.Donations.Close(ctx, reviewer, d.ID)
	assert.True(t, errors.Is(err, apperr.ErrBadState))
}

func TestVisibility(t *testing.T) {
	svcs, _ := setup(t, "")
	ctx := context.Background()
	d := submit(t, svcs, threePhotos())

	_, photos, err := svcs.Donations.Get(ctx, donor, d.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 3)

	_, _, err = svcs.Donations.Get(ctx, auth.Actor{UserID: "someone"}, d.ID)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svcs.Donations.List(ctx, donor, donations.ListFilter{})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	queue, err := svcs.Donations.List(ctx, reviewer, donations.ListFilter{Statuses: []donations.Status{donations.StatusSubmitted}})
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

// staleRepo devuelve una vez la donación como estaba antes del rechazo,
// igual que una lectura que perdió la carrera contra otro revisor.
type staleRepo struct {
	donations.Repository
	stale *donations.Donation
}

func (r *staleRepo) GetByID(ctx context.Context, id string) (donations.Donation, error) {
	if r.stale != nil && r.stale.ID == id {
		d := *r.stale
		r.stale = nil
		return d, nil
	}
	return r.Repository.GetByID(ctx, id)
}

func TestApprove_LosesRaceAgainstReject(t *testing.T) {
	fs, err := blobfs.New(t.TempDir())
	require.NoError(t, err)
	st := app.MemoryStorage(mem.NewStore())
	repo := &staleRepo{Repository: st.Donations}
	st.Donations = repo
	svcs := app.NewServices(st, nil, fs, nil)
	ctx := context.Background()

	d := submit(t, svcs, nil)
	_, err = svcs.Donations.Reject(ctx, reviewer, d.ID, "duplicada")
	require.NoError(t, err)

	repo.stale = &d
	_, err = svcs.Donations.Approve(ctx, reviewer, d.ID, "")
	assert.ErrorIs(t, err, apperr.ErrBadState)

	cur, err := st.Donations.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, donations.StatusRejected, cur.Status)
	assert.Nil(t, cur.CreatedPetID)

	mine, err := svcs.Pets.ListByOwner(ctx, donor.UserID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
