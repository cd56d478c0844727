package shelters

import "time"

type Shelter struct {
	ID          string
	Name        string
	Description string

	Email   string
	Phone   string
	Website string

	AddressID  *string
	Logo       string
	CoverImage string

	Capacity       int
	CurrentAnimals int
	FoundedYear    *int

	IsVerified bool
	IsActive   bool

	FacebookURL  string
	InstagramURL string
	TwitterURL   string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableCapacity: lugares libres; 0 si no hay capacidad declarada.
func (s Shelter) AvailableCapacity() int {
	if s.Capacity <= 0 {
		return 0
	}
	return max(0, s.Capacity-s.CurrentAnimals)
}

// OccupancyRate en porcentaje (puede pasar de 100 si está sobrepoblado).
func (s Shelter) OccupancyRate() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.CurrentAnimals) / float64(s.Capacity) * 100
}
