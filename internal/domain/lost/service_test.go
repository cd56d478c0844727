package lost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobfs "straypet/internal/adapters/blob/fs"
	mem "straypet/internal/adapters/storage/memory"
	"straypet/internal/app"
	"straypet/internal/domain/events"
	"straypet/internal/domain/geo"
	"straypet/internal/domain/geocoding"
	"straypet/internal/domain/lost"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/blob"
)

var (
	reporter = auth.Actor{UserID: "reporter-1"}
	staff    = auth.Actor{UserID: "staff-1", IsStaff: true}
)

type fixedGeocoder struct{ c geocoding.Coordinates }

func (g fixedGeocoder) Geocode(context.Context, string, geocoding.Hints) (geocoding.Coordinates, bool) {
	return g.c, true
}

func setup(t *testing.T) app.Services {
	t.Helper()
	fs, err := blobfs.New(t.TempDir())
	require.NoError(t, err)
	geocoder := fixedGeocoder{c: geocoding.Coordinates{Lon: 21.0, Lat: 52.2}}
	return app.NewServices(app.MemoryStorage(mem.NewStore()), geocoder, fs, nil)
}

func getPet(t *testing.T, svcs app.Services, id *string) pets.Pet {
	t.Helper()
	require.NotNil(t, id)
	p, err := svcs.Pets.GetByID(context.Background(), *id)
	require.NoError(t, err)
	return p
}

func TestReport_UnknownPetIsSynthesizedAndResolved(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	r, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{
		PetName:     "Reksio",
		Species:     "Dog",
		Breed:       "mieszaniec",
		Description: "brązowa obroża",
	}, &blob.File{Name: "reksio.jpg", Data: []byte("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, lost.StatusOpen, r.Status)
	assert.NotEmpty(t, r.Photo)

	p := getPet(t, svcs, r.PetID)
	assert.Equal(t, pets.StatusLost, p.Status)
	assert.Equal(t, "Reksio", p.Name)
	assert.Equal(t, "dog", p.Species)
	assert.Equal(t, reporter.UserID, p.OwnerUserID)
	assert.Equal(t, r.Photo, p.Cover)

	found, err := svcs.Lost.Resolve(ctx, reporter, r.ID, lost.StatusFound)
	require.NoError(t, err)
	assert.Equal(t, lost.StatusFound, found.Status)
	assert.Equal(t, pets.StatusAvailable, getPet(t, svcs, r.PetID).Status)

	evs, err := svcs.Events.ListByPet(ctx, p.ID, events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeReportedLost, evs[0].Type)
	assert.Equal(t, events.TypeLostResolved, evs[1].Type)
}

func TestReport_SynthesizedName(t *testing.T) {
	svcs := setup(t)

	r, err := svcs.Lost.Report(context.Background(), auth.Actor{}, lost.ReportInput{Species: "cat", Color: "rudy"}, nil)
	require.NoError(t, err)
	assert.Equal(t, auth.AnonymousUserID, r.ReporterID)

	p := getPet(t, svcs, r.PetID)
	assert.Equal(t, "cat (rudy)", p.Name)

	r, err = svcs.Lost.Report(context.Background(), auth.Actor{}, lost.ReportInput{}, nil)
	require.NoError(t, err)
	p = getPet(t, svcs, r.PetID)
	assert.Equal(t, "unknown", p.Species)
	assert.Equal(t, "unknown", p.Name)
}

func TestReport_MatchesByNameAndReporter(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	existing, err := svcs.Pets.Create(ctx, reporter, pets.CreateInput{Name: "Fafik", Species: "dog", Breed: "jamnik"})
	require.NoError(t, err)

	r, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{
		PetName: "Fafik",
		Species: "dog",
		Address: &geo.Payload{
			Country: geo.ByName("Poland"),
			Region:  geo.ByName("Mazowieckie"),
			City:    geo.ByName("Warszawa"),
			Street:  "Marszałkowska 10",
		},
	}, &blob.File{Name: "fafik.png", Data: []byte("png")})
	require.NoError(t, err)

	require.NotNil(t, r.PetID)
	assert.Equal(t, existing.ID, *r.PetID)

	p := getPet(t, svcs, r.PetID)
	assert.Equal(t, pets.StatusLost, p.Status)
	assert.Equal(t, "jamnik", p.Breed, "empty report fields do not overwrite the profile")
	assert.Equal(t, r.AddressID, p.AddressID)
	assert.Equal(t, r.Photo, p.Cover)

	all, err := svcs.Pets.ListByOwner(ctx, reporter.UserID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// aparece en el mapa con el punto [lon, lat]
	items, err := svcs.Lost.ListGeo(ctx, lost.ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 52.2, items[0].Latitude)
	assert.Equal(t, 21.0, items[0].Longitude)
	assert.Equal(t, "Warszawa", items[0].CityName)
}

func TestReport_AnonymousNeverMatchesByName(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	first, err := svcs.Lost.Report(ctx, auth.Actor{}, lost.ReportInput{PetName: "Kitek", Species: "cat"}, nil)
	require.NoError(t, err)
	second, err := svcs.Lost.Report(ctx, auth.Actor{}, lost.ReportInput{PetName: "Kitek", Species: "cat"}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, *first.PetID, *second.PetID)
}

func TestReport_ExplicitPetRequiresOwnerOrStaff(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()
	owner := auth.Actor{UserID: "owner-1"}

	p, err := svcs.Pets.Create(ctx, owner, pets.CreateInput{Name: "Saba", Species: "dog"})
	require.NoError(t, err)

	_, err = svcs.Lost.Report(ctx, reporter, lost.ReportInput{PetID: p.ID, Species: "dog"}, nil)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Equal(t, pets.StatusAvailable, getPet(t, svcs, &p.ID).Status)

	r, err := svcs.Lost.Report(ctx, staff, lost.ReportInput{PetID: p.ID, Species: "dog"}, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, *r.PetID)
	assert.Equal(t, pets.StatusLost, getPet(t, svcs, &p.ID).Status)
}

func TestResolve_OtherOpenReportKeepsPetLost(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	first, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{PetName: "Bonifacy", Species: "cat"}, nil)
	require.NoError(t, err)
	second, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{PetName: "Bonifacy", Species: "cat"}, nil)
	require.NoError(t, err)
	require.Equal(t, *first.PetID, *second.PetID)

	_, err = svcs.Lost.Resolve(ctx, reporter, first.ID, lost.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusLost, getPet(t, svcs, first.PetID).Status)

	_, err = svcs.Lost.Resolve(ctx, reporter, second.ID, lost.StatusFound)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusAvailable, getPet(t, svcs, first.PetID).Status)
}

func TestResolve_Transitions(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	r, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{Species: "dog"}, nil)
	require.NoError(t, err)

	_, err = svcs.Lost.Resolve(ctx, auth.Actor{UserID: "stranger"}, r.ID, lost.StatusFound)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = svcs.Lost.Resolve(ctx, reporter, r.ID, lost.Status("gone"))
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svcs.Lost.Resolve(ctx, reporter, r.ID, lost.StatusFound)
	require.NoError(t, err)

	// mismo estado: no-op
	same, err := svcs.Lost.Resolve(ctx, reporter, r.ID, lost.StatusFound)
	require.NoError(t, err)
	assert.Equal(t, lost.StatusFound, same.Status)

	_, err = svcs.Lost.Resolve(ctx, reporter, r.ID, lost.StatusOpen)
	assert.True(t, errors.Is(err, apperr.ErrBadState))

	_, err = svcs.Lost.Resolve(ctx, staff, r.ID, lost.StatusClosed)
	require.NoError(t, err)

	_, err = svcs.Lost.Resolve(ctx, staff, r.ID, lost.StatusFound)
	assert.True(t, errors.Is(err, apperr.ErrBadState))
}

func TestResolve_DoesNotTouchPetThatIsNoLongerLost(t *testing.T) {
	svcs := setup(t)
	ctx := context.Background()

	r, err := svcs.Lost.Report(ctx, reporter, lost.ReportInput{PetName: "Tosia", Species: "dog"}, nil)
	require.NoError(t, err)

	_, err = svcs.Pets.SetStatus(ctx, reporter, *r.PetID, pets.StatusArchived)
	require.NoError(t, err)

	_, err = svcs.Lost.Resolve(ctx, reporter, r.ID, lost.StatusFound)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusArchived, getPet(t, svcs, r.PetID).Status)
}
