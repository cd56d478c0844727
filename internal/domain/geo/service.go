package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"straypet/internal/domain/geocoding"
	"straypet/internal/platform/apperr"
	"straypet/internal/platform/logger"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = apperr.ErrNotFound

	// ErrEmptyPayload: el caller pidió resolver una dirección sin ningún dato.
	ErrEmptyPayload = fmt.Errorf("%w: empty address payload", apperr.ErrInvalidInput)
)

// Payload es lo que llega desde la API para describir una ubicación.
type Payload struct {
	Country        Reference `json:"country" swaggertype:"string"`
	Region         Reference `json:"region" swaggertype:"string"`
	City           Reference `json:"city" swaggertype:"string"`
	Street         string    `json:"street"`
	BuildingNumber string    `json:"building_number"`
	PostalCode     string    `json:"postal_code"`
	Latitude       any       `json:"latitude" swaggertype:"number"`
	Longitude      any       `json:"longitude" swaggertype:"number"`
}

func (p Payload) IsEmpty() bool {
	return p.Country.IsZero() && p.Region.IsZero() && p.City.IsZero() &&
		strings.TrimSpace(p.Street) == "" &&
		strings.TrimSpace(p.BuildingNumber) == "" &&
		strings.TrimSpace(p.PostalCode) == "" &&
		isBlank(p.Latitude) && isBlank(p.Longitude)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// Geocoder es lo que el resolver necesita del servicio de geocoding.
type Geocoder interface {
	Geocode(ctx context.Context, address string, h geocoding.Hints) (geocoding.Coordinates, bool)
}

type Service struct {
	repo     Repository
	geocoder Geocoder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewService acepta geocoder nil: las direcciones sin coordenadas quedan así.
func NewService(repo Repository, geocoder Geocoder, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		geocoder: geocoder,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Resolve resuelve país -> región -> ciudad (creando lo que falte),
// completa coordenadas vía geocoding si no vinieron y persiste la dirección.
func (s *Service) Resolve(ctx context.Context, p Payload) (Address, error) {
	if p.IsEmpty() {
		return Address{}, ErrEmptyPayload
	}

	country, err := s.resolveCountry(ctx, p.Country)
	if err != nil {
		return Address{}, fmt.Errorf("resolve country %s: %w", p.Country, err)
	}
	region, err := s.resolveRegion(ctx, p.Region, country)
	if err != nil {
		return Address{}, fmt.Errorf("resolve region %s: %w", p.Region, err)
	}
	city, err := s.resolveCity(ctx, p.City, region)
	if err != nil {
		return Address{}, fmt.Errorf("resolve city %s: %w", p.City, err)
	}

	// ciudad encontrada sin región conocida: completar hacia arriba
	if city != nil && region == nil {
		if region, err = s.regionOrNil(ctx, city.RegionID); err != nil {
			return Address{}, err
		}
	}
	if region != nil && country == nil {
		if country, err = s.countryOrNil(ctx, region.CountryID); err != nil {
			return Address{}, err
		}
	}

	a := Address{
		ID:             s.newID(),
		Street:         strings.TrimSpace(p.Street),
		BuildingNumber: strings.TrimSpace(p.BuildingNumber),
		PostalCode:     strings.TrimSpace(p.PostalCode),
		CreatedAt:      s.now(),
	}
	if country != nil {
		a.CountryID = &country.ID
	}
	if region != nil {
		a.RegionID = &region.ID
	}
	if city != nil {
		a.CityID = &city.ID
	}

	lat, okLat := parseLatitude(p.Latitude)
	lon, okLon := parseLongitude(p.Longitude)
	switch {
	case okLat && okLon:
		a.setCoordinates(lon, lat)
	case s.geocoder != nil:
		text := geocodeText(p, country, region, city)
		if c, ok := s.geocoder.Geocode(ctx, text, geocodeHints(p, country, region, city)); ok {
			a.setCoordinates(c.Lon, c.Lat)
		}
	}

	if err := s.repo.CreateAddress(ctx, a); err != nil {
		return Address{}, err
	}
	return a, nil
}

// ResolveOrFallback nunca deja a la entidad sin dirección si hubo datos:
// si la resolución completa falla, persiste una dirección mínima con
// calle, número, código postal y coordenadas.
func (s *Service) ResolveOrFallback(ctx context.Context, p Payload) (Address, error) {
	if p.IsEmpty() {
		return Address{}, ErrEmptyPayload
	}

	a, err := s.Resolve(ctx, p)
	if err == nil {
		return a, nil
	}
	s.log.Warn("address resolution failed, storing minimal address", map[string]any{"err": err})

	m := Address{
		ID:             s.newID(),
		Street:         strings.TrimSpace(p.Street),
		BuildingNumber: strings.TrimSpace(p.BuildingNumber),
		PostalCode:     strings.TrimSpace(p.PostalCode),
		CreatedAt:      s.now(),
	}
	lat, okLat := parseLatitude(p.Latitude)
	lon, okLon := parseLongitude(p.Longitude)
	if okLat && okLon {
		m.setCoordinates(lon, lat)
	}

	if err := s.repo.CreateAddress(ctx, m); err != nil {
		return Address{}, err
	}
	return m, nil
}

// Describe devuelve la dirección con los nombres de país/región/ciudad.
func (s *Service) Describe(ctx context.Context, id string) (Details, error) {
	a, err := s.repo.GetAddress(ctx, strings.TrimSpace(id))
	if err != nil {
		return Details{}, err
	}

	d := Details{Address: a}
	if a.CountryID != nil {
		if c, err := s.countryOrNil(ctx, *a.CountryID); err == nil && c != nil {
			d.CountryName, d.CountryCode = c.Name, c.Code
		}
	}
	if a.RegionID != nil {
		if r, err := s.regionOrNil(ctx, *a.RegionID); err == nil && r != nil {
			d.RegionName = r.Name
		}
	}
	if a.CityID != nil {
		if c, err := s.repo.GetCity(ctx, *a.CityID); err == nil {
			d.CityName = c.Name
		}
	}
	return d, nil
}

func (s *Service) Countries(ctx context.Context) ([]Country, error) {
	return s.repo.ListCountries(ctx)
}

func (s *Service) Regions(ctx context.Context, countryID int64) ([]Region, error) {
	if _, err := s.repo.GetCountry(ctx, countryID); err != nil {
		return nil, err
	}
	return s.repo.ListRegions(ctx, countryID)
}

func (s *Service) Cities(ctx context.Context, regionID int64) ([]City, error) {
	if _, err := s.repo.GetRegion(ctx, regionID); err != nil {
		return nil, err
	}
	return s.repo.ListCities(ctx, regionID)
}

func (s *Service) resolveCountry(ctx context.Context, ref Reference) (*Country, error) {
	if id, ok := ref.ID(); ok {
		return s.countryOrNil(ctx, id)
	}
	name, ok := ref.Name()
	if !ok {
		return nil, nil
	}

	if utf8.RuneCountInString(name) == 2 {
		c, err := s.repo.FindCountryByCode(ctx, name)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	c, err := s.repo.FindCountryByName(ctx, name)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c, err = s.repo.GetOrCreateCountry(ctx, guessCountryCode(name), name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) resolveRegion(ctx context.Context, ref Reference, country *Country) (*Region, error) {
	if id, ok := ref.ID(); ok {
		return s.regionOrNil(ctx, id)
	}
	name, ok := ref.Name()
	if !ok {
		return nil, nil
	}

	if country != nil {
		r, err := s.repo.FindRegion(ctx, &country.ID, name)
		if err == nil {
			return &r, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	r, err := s.repo.FindRegion(ctx, nil, name)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if country == nil {
		return nil, nil
	}
	r, err = s.repo.GetOrCreateRegion(ctx, country.ID, name)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) resolveCity(ctx context.Context, ref Reference, region *Region) (*City, error) {
	if id, ok := ref.ID(); ok {
		c, err := s.repo.GetCity(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	name, ok := ref.Name()
	if !ok {
		return nil, nil
	}

	if region != nil {
		c, err := s.repo.FindCity(ctx, &region.ID, name)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	c, err := s.repo.FindCity(ctx, nil, name)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if region == nil {
		return nil, nil
	}
	c, err = s.repo.GetOrCreateCity(ctx, region.ID, name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) countryOrNil(ctx context.Context, id int64) (*Country, error) {
	c, err := s.repo.GetCountry(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) regionOrNil(ctx context.Context, id int64) (*Region, error) {
	r, err := s.repo.GetRegion(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// guessCountryCode toma las dos primeras letras del nombre ("Poland" -> "PO").
func guessCountryCode(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	if n == 0 {
		return "XX"
	}
	return b.String()
}

func streetLine(p Payload) string {
	street := strings.TrimSpace(p.Street)
	bnum := strings.TrimSpace(p.BuildingNumber)
	switch {
	case street != "" && bnum != "" && !strings.Contains(street, bnum):
		return street + " " + bnum
	case street != "":
		return street
	default:
		return bnum
	}
}

// geocodeText prefiere los nombres resueltos sobre el texto crudo.
func geocodeText(p Payload, country *Country, region *Region, city *City) string {
	parts := []string{streetLine(p)}

	cityName, _ := p.City.Name()
	if city != nil {
		cityName = city.Name
	}
	regionName, _ := p.Region.Name()
	if region != nil {
		regionName = region.Name
	}
	countryName, _ := p.Country.Name()
	if country != nil {
		countryName = country.Name
	}
	parts = append(parts, cityName, regionName, countryName, strings.TrimSpace(p.PostalCode))

	out := parts[:0]
	for _, v := range parts {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

func geocodeHints(p Payload, country *Country, region *Region, city *City) geocoding.Hints {
	h := geocoding.Hints{
		Street:     streetLine(p),
		PostalCode: strings.TrimSpace(p.PostalCode),
	}
	// sin match en la base se manda el texto crudo como pista
	h.City, _ = p.City.Name()
	if city != nil {
		h.City = city.Name
	}
	h.Region, _ = p.Region.Name()
	if region != nil {
		h.Region = region.Name
	}
	if country != nil {
		h.Country = country.Name
		// "XX" es el código sintético; no sirve como filtro
		if country.Code != "XX" {
			h.CountryCode = country.Code
		}
	}
	return h
}
