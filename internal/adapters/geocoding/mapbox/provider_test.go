package mapbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straypet/internal/domain/geocoding"
)

func TestGeocode_AcceptsRelevantAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pk.test", q.Get("access_token"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "false", q.Get("autocomplete"))
		assert.Equal(t, "address,poi", q.Get("types"))
		assert.Equal(t, "pl", q.Get("language"))
		assert.Equal(t, "pl", q.Get("country"))
		assert.True(t, strings.HasSuffix(r.URL.Path, ".json"))
		_, _ = w.Write([]byte(`{"features":[{"relevance":0.92,"place_type":["address"],"center":[21.01,52.23]}]}`))
	}))
	defer ts.Close()

	p, err := NewWithBaseURL(ts.URL, "pk.test", time.Second)
	require.NoError(t, err)

	c, ok, err := p.Geocode(context.Background(), geocoding.Query{
		Address: "Marszałkowska 10, Warszawa",
		Hints:   geocoding.Hints{CountryCode: "PL"},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, geocoding.Coordinates{Lon: 21.01, Lat: 52.23}, c)
}

func TestGeocode_LowRelevanceRetriesSimplified(t *testing.T) {
	var calls int32
	var second string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{"features":[{"relevance":0.4,"place_type":["address"],"center":[1,2]}]}`))
			return
		}
		second = r.URL.Path
		_, _ = w.Write([]byte(`{"features":[{"relevance":0.8,"place_type":["poi"],"center":[21.0,52.2]}]}`))
	}))
	defer ts.Close()

	p, err := NewWithBaseURL(ts.URL, "pk.test", time.Second)
	require.NoError(t, err)

	c, ok, err := p.Geocode(context.Background(), geocoding.Query{
		Address: "Kopińska 12/16, Warszawa",
		Hints:   geocoding.Hints{Street: "12/16 Kopińska", City: "Warszawa", PostalCode: "02-321"},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 52.2, c.Lat)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Contains(t, second, "Kopińska 16, Warszawa, 02-321")
}

func TestGeocode_RejectsNonAddressTypes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[{"relevance":1,"place_type":["place"],"center":[21.0,52.2]}]}`))
	}))
	defer ts.Close()

	p, err := NewWithBaseURL(ts.URL, "pk.test", time.Second)
	require.NoError(t, err)

	_, ok, err := p.Geocode(context.Background(), geocoding.Query{Address: "Warszawa"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeocode_TransportErrorSkipsRetry(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(100 * time.Millisecond)
	}))
	defer ts.Close()

	p, err := NewWithBaseURL(ts.URL, "pk.test", 10*time.Millisecond)
	require.NoError(t, err)

	_, ok, err := p.Geocode(context.Background(), geocoding.Query{
		Address: "x",
		Hints:   geocoding.Hints{Street: "Długa 1"},
	})
	assert.Error(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(" ", time.Second)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGeocode_RetryStaysWithinTimeout(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-time.After(180 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer ts.Close()

	const timeout = 250 * time.Millisecond
	p, err := NewWithBaseURL(ts.URL, "pk.test", timeout)
	require.NoError(t, err)

	start := time.Now()
	_, ok, _ := p.Geocode(context.Background(), geocoding.Query{
		Address: "Kopińska 12/16, Warszawa",
		Hints:   geocoding.Hints{Street: "Kopińska 12/16", City: "Warszawa"},
	})
	took := time.Since(start)

	assert.False(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Less(t, took, timeout+90*time.Millisecond)
}
