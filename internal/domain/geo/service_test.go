package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"straypet/internal/domain/geocoding"
)

type fakeRepo struct {
	countries map[int64]Country
	regions   map[int64]Region
	cities    map[int64]City
	addresses map[string]Address
	seq       int64

	failCountryByName error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		countries: map[int64]Country{},
		regions:   map[int64]Region{},
		cities:    map[int64]City{},
		addresses: map[string]Address{},
	}
}

func (r *fakeRepo) next() int64 { r.seq++; return r.seq }

func (r *fakeRepo) GetCountry(_ context.Context, id int64) (Country, error) {
	c, ok := r.countries[id]
	if !ok {
		return Country{}, ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) FindCountryByCode(_ context.Context, code string) (Country, error) {
	for _, c := range r.countries {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return Country{}, ErrNotFound
}

func (r *fakeRepo) FindCountryByName(_ context.Context, name string) (Country, error) {
	if r.failCountryByName != nil {
		return Country{}, r.failCountryByName
	}
	for _, c := range r.countries {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Country{}, ErrNotFound
}

func (r *fakeRepo) GetOrCreateCountry(ctx context.Context, code, name string) (Country, error) {
	if c, err := r.FindCountryByCode(ctx, code); err == nil {
		return c, nil
	}
	c := Country{ID: r.next(), Code: code, Name: name}
	r.countries[c.ID] = c
	return c, nil
}

func (r *fakeRepo) ListCountries(context.Context) ([]Country, error) { return nil, nil }

func (r *fakeRepo) GetRegion(_ context.Context, id int64) (Region, error) {
	x, ok := r.regions[id]
	if !ok {
		return Region{}, ErrNotFound
	}
	return x, nil
}

func (r *fakeRepo) FindRegion(_ context.Context, countryID *int64, name string) (Region, error) {
	for _, x := range r.regions {
		if countryID != nil && x.CountryID != *countryID {
			continue
		}
		if strings.EqualFold(x.Name, name) {
			return x, nil
		}
	}
	return Region{}, ErrNotFound
}

func (r *fakeRepo) GetOrCreateRegion(ctx context.Context, countryID int64, name string) (Region, error) {
	if x, err := r.FindRegion(ctx, &countryID, name); err == nil {
		return x, nil
	}
	x := Region{ID: r.next(), CountryID: countryID, Name: name}
	r.regions[x.ID] = x
	return x, nil
}

func (r *fakeRepo) ListRegions(context.Context, int64) ([]Region, error) { return nil, nil }

func (r *fakeRepo) GetCity(_ context.Context, id int64) (City, error) {
	x, ok := r.cities[id]
	if !ok {
		return City{}, ErrNotFound
	}
	return x, nil
}

func (r *fakeRepo) FindCity(_ context.Context, regionID *int64, name string) (City, error) {
	for _, x := range r.cities {
		if regionID != nil && x.RegionID != *regionID {
			continue
		}
		if strings.EqualFold(x.Name, name) {
			return x, nil
		}
	}
	return City{}, ErrNotFound
}

func (r *fakeRepo) GetOrCreateCity(ctx context.Context, regionID int64, name string) (City, error) {
	if x, err := r.FindCity(ctx, &regionID, name); err == nil {
		return x, nil
	}
	x := City{ID: r.next(), RegionID: regionID, Name: name}
	r.cities[x.ID] = x
	return x, nil
}

func (r *fakeRepo) ListCities(context.Context, int64) ([]City, error) { return nil, nil }

func (r *fakeRepo) CreateAddress(_ context.Context, a Address) error {
	r.addresses[a.ID] = a
	return nil
}

func (r *fakeRepo) GetAddress(_ context.Context, id string) (Address, error) {
	a, ok := r.addresses[id]
	if !ok {
		return Address{}, ErrNotFound
	}
	return a, nil
}

type stubGeocoder struct {
	c     geocoding.Coordinates
	ok    bool
	calls int
	text  string
	hints geocoding.Hints
}

func (g *stubGeocoder) Geocode(_ context.Context, address string, h geocoding.Hints) (geocoding.Coordinates, bool) {
	g.calls++
	g.text = address
	g.hints = h
	return g.c, g.ok
}

func seedPoland(r *fakeRepo) (Country, Region, City) {
	pl := Country{ID: r.next(), Code: "PL", Name: "Polska"}
	r.countries[pl.ID] = pl
	mal := Region{ID: r.next(), CountryID: pl.ID, Name: "Małopolskie"}
	r.regions[mal.ID] = mal
	krk := City{ID: r.next(), RegionID: mal.ID, Name: "Kraków"}
	r.cities[krk.ID] = krk
	return pl, mal, krk
}

func TestResolve_GeocodesWhenCoordinatesMissing(t *testing.T) {
	repo := newFakeRepo()
	g := &stubGeocoder{c: geocoding.Coordinates{Lon: 21.0, Lat: 52.2}, ok: true}
	svc := NewService(repo, g, nil)

	a, err := svc.Resolve(context.Background(), Payload{
		Country: ByName("Poland"),
		City:    ByName("Warszawa"),
		Street:  "Marszałkowska 10",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if a.Latitude == nil || *a.Latitude != 52.2 {
		t.Fatalf("expected latitude 52.2, got %v", a.Latitude)
	}
	if a.Longitude == nil || *a.Longitude != 21.0 {
		t.Fatalf("expected longitude 21.0, got %v", a.Longitude)
	}
	if a.Location == nil || a.Location.Type != "Point" || a.Location.Coordinates != [2]float64{21.0, 52.2} {
		t.Fatalf("unexpected geometry: %+v", a.Location)
	}
	if !strings.HasPrefix(g.text, "Marszałkowska 10, Warszawa") {
		t.Fatalf("unexpected geocode text %q", g.text)
	}
	if g.hints.Country != "Poland" || g.hints.City != "Warszawa" {
		t.Fatalf("unexpected hints %+v", g.hints)
	}
	if _, err := repo.GetAddress(context.Background(), a.ID); err != nil {
		t.Fatalf("address not persisted: %v", err)
	}
}

func TestResolve_GivenCoordinatesSkipGeocoder(t *testing.T) {
	g := &stubGeocoder{ok: true}
	svc := NewService(newFakeRepo(), g, nil)

	a, err := svc.Resolve(context.Background(), Payload{
		Street:    "Długa 1",
		Latitude:  "54.35",
		Longitude: 18.65,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.calls != 0 {
		t.Fatalf("geocoder must not be called")
	}
	if a.Location.Coordinates != [2]float64{18.65, 54.35} {
		t.Fatalf("expected [lon, lat], got %v", a.Location.Coordinates)
	}
}

func TestResolve_BadCoordinatesAreDroppedAndGeocoded(t *testing.T) {
	g := &stubGeocoder{}
	svc := NewService(newFakeRepo(), g, nil)

	a, err := svc.Resolve(context.Background(), Payload{
		Street:    "Długa 1",
		Latitude:  "abc",
		Longitude: 18.65,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.calls != 1 {
		t.Fatalf("expected geocoder to be called once, got %d", g.calls)
	}
	if a.Latitude != nil || a.Longitude != nil || a.Location != nil {
		t.Fatalf("coordinates must be both absent: %+v", a)
	}
}

func TestResolve_IsIdempotentForSameNames(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	p := Payload{Country: ByName("PL"), Region: ByName("Mazowieckie"), City: ByName("Warszawa")}
	seedPoland(repo)

	a1, err := svc.Resolve(context.Background(), p)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	a2, err := svc.Resolve(context.Background(), p)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	count := 0
	for _, c := range repo.cities {
		if c.Name == "Warszawa" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Warszawa, got %d", count)
	}
	if *a1.CityID != *a2.CityID || *a1.RegionID != *a2.RegionID {
		t.Fatalf("expected same city/region ids")
	}
}

func TestResolve_CountryMatchingRules(t *testing.T) {
	repo := newFakeRepo()
	pl, _, _ := seedPoland(repo)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	a, _ := svc.Resolve(ctx, Payload{Country: ByName("pl")})
	if *a.CountryID != pl.ID {
		t.Fatalf("expected code match")
	}

	a, _ = svc.Resolve(ctx, Payload{Country: ByName("POLSKA")})
	if *a.CountryID != pl.ID {
		t.Fatalf("expected case-insensitive name match")
	}

	a, _ = svc.Resolve(ctx, Payload{Country: ByName("123")})
	c := repo.countries[*a.CountryID]
	if c.Code != "XX" || c.Name != "123" {
		t.Fatalf("expected synthesized XX country, got %+v", c)
	}

	a, _ = svc.Resolve(ctx, Payload{Country: ByName("Germany")})
	if repo.countries[*a.CountryID].Code != "GE" {
		t.Fatalf("expected guessed code GE")
	}
}

func TestResolve_BareCityBackfillsRegionAndCountry(t *testing.T) {
	repo := newFakeRepo()
	pl, mal, krk := seedPoland(repo)
	svc := NewService(repo, nil, nil)

	a, err := svc.Resolve(context.Background(), Payload{City: ByName("kraków"), Street: "Floriańska 1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.CityID == nil || *a.CityID != krk.ID {
		t.Fatalf("expected city match")
	}
	if a.RegionID == nil || *a.RegionID != mal.ID || a.CountryID == nil || *a.CountryID != pl.ID {
		t.Fatalf("expected backfilled region/country: %+v", a)
	}
}

func TestResolve_RegionFallsBackToUnscopedMatch(t *testing.T) {
	repo := newFakeRepo()
	_, mal, _ := seedPoland(repo)
	de := Country{ID: repo.next(), Code: "DE", Name: "Deutschland"}
	repo.countries[de.ID] = de
	svc := NewService(repo, nil, nil)

	a, err := svc.Resolve(context.Background(), Payload{Country: ByID(de.ID), Region: ByName("Małopolskie")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if *a.RegionID != mal.ID {
		t.Fatalf("expected unscoped region match")
	}
	if len(repo.regions) != 1 {
		t.Fatalf("no region should have been created")
	}
}

func TestResolve_UnknownCityWithoutRegionIsNotCreated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	a, err := svc.Resolve(context.Background(), Payload{City: ByName("Atlantyda"), PostalCode: "00-001"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.CityID != nil || len(repo.cities) != 0 {
		t.Fatalf("city must not be created without a region")
	}
	if a.PostalCode != "00-001" {
		t.Fatalf("postal code lost")
	}
}

func TestResolve_EmptyPayload(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Resolve(context.Background(), Payload{Street: "  ", Latitude: ""})
	if !errors.Is(err, ErrEmptyPayload) || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	_, err = svc.ResolveOrFallback(context.Background(), Payload{})
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload from fallback, got %v", err)
	}
}

func TestResolveOrFallback_StoresMinimalAddress(t *testing.T) {
	repo := newFakeRepo()
	repo.failCountryByName = errors.New("db down")
	g := &stubGeocoder{ok: true}
	svc := NewService(repo, g, nil)

	a, err := svc.ResolveOrFallback(context.Background(), Payload{
		Country:    ByName("Poland"),
		Street:     "Marszałkowska 10",
		PostalCode: "00-001",
		Latitude:   52.2,
		Longitude:  "21.0",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.CountryID != nil {
		t.Fatalf("minimal address must not carry geo links")
	}
	if a.Street != "Marszałkowska 10" || a.PostalCode != "00-001" {
		t.Fatalf("raw fields lost: %+v", a)
	}
	if a.Location == nil || a.Location.Coordinates != [2]float64{21.0, 52.2} {
		t.Fatalf("expected coordinates kept: %+v", a.Location)
	}
	if _, ok := repo.addresses[a.ID]; !ok {
		t.Fatalf("minimal address not persisted")
	}
}

func TestDescribe_ResolvesNames(t *testing.T) {
	repo := newFakeRepo()
	_, _, krk := seedPoland(repo)
	svc := NewService(repo, nil, nil)

	a, err := svc.Resolve(context.Background(), Payload{City: ByID(krk.ID)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	d, err := svc.Describe(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if d.CityName != "Kraków" || d.RegionName != "Małopolskie" || d.CountryCode != "PL" {
		t.Fatalf("unexpected details: %+v", d)
	}
}

func TestReference_UnmarshalJSON(t *testing.T) {
	var p Payload
	err := json.Unmarshal([]byte(`{"country": 3, "region": "Mazowieckie", "city": null, "latitude": "52.1"}`), &p)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if id, ok := p.Country.ID(); !ok || id != 3 {
		t.Fatalf("expected country by id 3")
	}
	if name, ok := p.Region.Name(); !ok || name != "Mazowieckie" {
		t.Fatalf("expected region by name")
	}
	if !p.City.IsZero() {
		t.Fatalf("expected zero city")
	}

	var r Reference
	if err := json.Unmarshal([]byte(`1.5`), &r); err == nil {
		t.Fatalf("expected error for non-integer id")
	}
}

func TestParseOptionalFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{nil, 0, false},
		{52.2, 52.2, true},
		{"21.0", 21.0, true},
		{"52,25", 52.25, true},
		{" ", 0, false},
		{"north", 0, false},
		{json.Number("18.5"), 18.5, true},
		{7, 7, true},
		{true, 0, false},
	}
	for _, c := range cases {
		got, ok := ParseOptionalFloat(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseOptionalFloat(%v) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
