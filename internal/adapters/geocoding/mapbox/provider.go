package mapbox

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"straypet/internal/domain/geocoding"
	"straypet/internal/platform/httpclient"
)

const (
	DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	minRelevance = 0.7
)

var ErrNoToken = errors.New("mapbox: access token not configured")

// Provider consulta la API de Mapbox Places.
// Solo acepta features de tipo address/poi con relevancia >= 0.7.
// timeout acota la llamada completa, reintento incluido.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	token   string
	timeout time.Duration
}

func New(token string, timeout time.Duration) (*Provider, error) {
	return NewWithBaseURL(DefaultBaseURL, token, timeout)
}

func NewWithBaseURL(baseURL, token string, timeout time.Duration) (*Provider, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &Provider{
		client:  httpclient.New(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}, nil
}

func (p *Provider) Name() string { return "mapbox" }

func (p *Provider) Geocode(ctx context.Context, q geocoding.Query) (geocoding.Coordinates, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	c, ok, err := p.lookup(ctx, q.Address, q.Hints.CountryCode)
	if err != nil {
		// errores de transporte: no se reintenta, pasa al siguiente proveedor
		var httpErr *httpclient.HTTPError
		if !errors.As(err, &httpErr) {
			return geocoding.Coordinates{}, false, err
		}
	}
	if ok {
		return c, true, nil
	}

	street := strings.TrimSpace(q.Hints.Street)
	if street == "" {
		return geocoding.Coordinates{}, false, err
	}

	alt := []string{geocoding.SimplifyStreet(street)}
	for _, v := range []string{q.Hints.City, q.Hints.PostalCode} {
		if v = strings.TrimSpace(v); v != "" {
			alt = append(alt, v)
		}
	}
	return p.lookup(ctx, strings.Join(alt, ", "), q.Hints.CountryCode)
}

func (p *Provider) lookup(ctx context.Context, text, countryCode string) (geocoding.Coordinates, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return geocoding.Coordinates{}, false, nil
	}

	params := url.Values{}
	params.Set("access_token", p.token)
	params.Set("limit", "1")
	params.Set("autocomplete", "false")
	params.Set("types", "address,poi")
	params.Set("language", "pl")
	if cc := strings.TrimSpace(countryCode); cc != "" {
		params.Set("country", strings.ToLower(cc))
	}

	endpoint := fmt.Sprintf("%s/%s.json", p.baseURL, url.PathEscape(text))
	raw, err := p.client.GetRaw(ctx, endpoint, params, nil)
	if err != nil {
		return geocoding.Coordinates{}, false, err
	}

	feat := gjson.GetBytes(raw, "features.0")
	if !feat.Exists() {
		return geocoding.Coordinates{}, false, nil
	}
	if feat.Get("relevance").Float() < minRelevance {
		return geocoding.Coordinates{}, false, nil
	}
	if !acceptedType(feat.Get("place_type")) {
		return geocoding.Coordinates{}, false, nil
	}

	center := feat.Get("center").Array()
	if len(center) != 2 {
		return geocoding.Coordinates{}, false, nil
	}
	return geocoding.Coordinates{Lon: center[0].Float(), Lat: center[1].Float()}, true, nil
}

func acceptedType(placeType gjson.Result) bool {
	for _, t := range placeType.Array() {
		switch t.String() {
		case "address", "poi":
			return true
		}
	}
	return false
}
