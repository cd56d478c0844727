package nominatim

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"straypet/internal/domain/geocoding"
	"straypet/internal/platform/httpclient"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "straypet/1.0 (geocoder)"
)

// Provider usa la API pública de Nominatim (OSM).
// La política de uso pide máx 1 req/s y un User-Agent identificable.
// timeout acota la espera en el limiter y el GET juntos.
type Provider struct {
	client  *httpclient.Client
	limiter *rate.Limiter
	timeout time.Duration
}

type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Rate por defecto 1 req/s.
	Rate rate.Limit
}

func New(opts Options) (*Provider, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Rate <= 0 {
		opts.Rate = rate.Every(time.Second)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = httpclient.DefaultTimeout
	}

	c, err := httpclient.NewWithBaseURL(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, err
	}
	c.Headers = map[string]string{"User-Agent": opts.UserAgent}

	return &Provider{
		client:  c,
		limiter: rate.NewLimiter(opts.Rate, 1),
		timeout: opts.Timeout,
	}, nil
}

func (p *Provider) Name() string { return "nominatim" }

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (p *Provider) Geocode(ctx context.Context, q geocoding.Query) (geocoding.Coordinates, bool, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "pl")

	h := q.Hints
	if h.Street != "" || h.City != "" || h.PostalCode != "" || h.Country != "" {
		setIf(params, "street", geocoding.NormalizeStreet(h.Street))
		setIf(params, "city", h.City)
		setIf(params, "postalcode", h.PostalCode)
		setIf(params, "country", h.Country)
	} else {
		text := strings.TrimSpace(q.Address)
		if text == "" {
			return geocoding.Coordinates{}, false, nil
		}
		params.Set("q", text)
	}
	if cc := strings.TrimSpace(h.CountryCode); cc != "" {
		params.Set("countrycodes", strings.ToLower(cc))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Wait falla enseguida si el turno cae después del deadline.
	if err := p.limiter.Wait(ctx); err != nil {
		return geocoding.Coordinates{}, false, err
	}

	var out []place
	if err := p.client.GetJSON(ctx, "/search", params, nil, &out); err != nil {
		return geocoding.Coordinates{}, false, err
	}
	if len(out) == 0 {
		return geocoding.Coordinates{}, false, nil
	}

	lat, err1 := strconv.ParseFloat(out[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(out[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return geocoding.Coordinates{}, false, nil
	}
	return geocoding.Coordinates{Lon: lon, Lat: lat}, true, nil
}

func setIf(v url.Values, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		v.Set(key, val)
	}
}
