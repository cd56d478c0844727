package geocoding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	c     Coordinates
	ok    bool
	err   error
	calls int
	last  Query
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Geocode(_ context.Context, q Query) (Coordinates, bool, error) {
	p.calls++
	p.last = q
	return p.c, p.ok, p.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
	c.ttls[key] = ttl
	return nil
}

func TestGeocode_FallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{name: "mapbox", err: errors.New("boom")}
	secondary := &stubProvider{name: "nominatim", c: Coordinates{Lon: 21.0, Lat: 52.2}, ok: true}

	svc := NewService(nil, nil, primary, secondary)
	c, ok := svc.Geocode(context.Background(), "Marszałkowska 10, Warszawa", Hints{})

	require.True(t, ok)
	assert.Equal(t, Coordinates{Lon: 21.0, Lat: 52.2}, c)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestGeocode_NoResultFromAnyProvider(t *testing.T) {
	primary := &stubProvider{name: "mapbox"}
	secondary := &stubProvider{name: "nominatim", err: errors.New("timeout")}

	svc := NewService(nil, nil, primary, secondary)
	_, ok := svc.Geocode(context.Background(), "nowhere", Hints{})
	assert.False(t, ok)
}

func TestGeocode_EmptyAddressSkipsProviders(t *testing.T) {
	p := &stubProvider{name: "mapbox", ok: true}
	svc := NewService(nil, nil, p)

	_, ok := svc.Geocode(context.Background(), "   ", Hints{City: "Warszawa"})
	assert.False(t, ok)
	assert.Zero(t, p.calls)
}

func TestGeocode_CachesSuccessfulLookup(t *testing.T) {
	cache := newMapCache()
	p := &stubProvider{name: "mapbox", c: Coordinates{Lon: 19.94, Lat: 50.06}, ok: true}
	svc := NewService(cache, nil, p)

	h := Hints{Street: "Floriańska 1", City: "Kraków"}
	first, ok1 := svc.Geocode(context.Background(), "Floriańska 1, Kraków", h)
	second, ok2 := svc.Geocode(context.Background(), "Floriańska 1, Kraków", h)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls, "second lookup must be served from cache")
	assert.Equal(t, DefaultTTL, cache.ttls[CacheKey("Floriańska 1, Kraków", h)])
}

func TestGeocode_MissIsNotCached(t *testing.T) {
	cache := newMapCache()
	p := &stubProvider{name: "mapbox"}
	svc := NewService(cache, nil, p)

	svc.Geocode(context.Background(), "x", Hints{})
	svc.Geocode(context.Background(), "x", Hints{})
	assert.Equal(t, 2, p.calls)
	assert.Empty(t, cache.data)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestGeocode_BrokenCacheStillResolves(t *testing.T) {
	p := &stubProvider{name: "mapbox", c: Coordinates{Lon: 16.93, Lat: 52.41}, ok: true}
	svc := NewService(brokenCache{}, nil, p)

	c, ok := svc.Geocode(context.Background(), "Półwiejska 2, Poznań", Hints{})
	require.True(t, ok)
	assert.Equal(t, Coordinates{Lon: 16.93, Lat: 52.41}, c)

	_, ok = svc.Geocode(context.Background(), "Półwiejska 2, Poznań", Hints{})
	require.True(t, ok)
	assert.Equal(t, 2, p.calls)
}

func TestGeocode_HintsRebuildProviderAddress(t *testing.T) {
	p := &stubProvider{name: "mapbox", ok: true}
	svc := NewService(nil, nil, p)

	svc.Geocode(context.Background(), "ignored free text", Hints{
		Street:     "12/16 Kopińska, m. 4",
		City:       "Warszawa",
		PostalCode: "02-321",
		Country:    "Polska",
	})
	assert.Equal(t, "Kopińska 12/16, Warszawa, 02-321, Polska", p.last.Address)
}

func TestCacheKey_IgnoresEmptyHintsAndIsStable(t *testing.T) {
	a := CacheKey("addr", Hints{City: "Gdańsk"})
	b := CacheKey("addr", Hints{City: "Gdańsk", Region: "  "})
	c := CacheKey("addr", Hints{City: "Gdynia"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^gc:[0-9a-f]{32}$`, a)
}

func TestNormalizeStreet(t *testing.T) {
	cases := map[string]string{
		"12/16 Kopińska":         "Kopińska 12/16",
		"Kopińska 12/16":         "Kopińska 12/16",
		"Marszałkowska 10, m. 5": "Marszałkowska 10",
		"  Długa  ":              "Długa",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeStreet(in), in)
	}
}

func TestSimplifyStreet(t *testing.T) {
	assert.Equal(t, "Kopińska 16", SimplifyStreet("12/16 Kopińska"))
	assert.Equal(t, "Długa 5", SimplifyStreet("Długa 5"))
}
