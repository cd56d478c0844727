package pets

import "time"

// Status del ciclo de vida de la mascota.
// @Enum draft, available, pending, adopted, archived, lost
type Status string

const (
	StatusDraft     Status = "draft"
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusAdopted   Status = "adopted"
	StatusArchived  Status = "archived"
	StatusLost      Status = "lost"
)

var AllStatuses = []Status{
	StatusDraft, StatusAvailable, StatusPending, StatusAdopted, StatusArchived, StatusLost,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Adoptable: se aceptan solicitudes solo en estos estados.
func (s Status) Adoptable() bool {
	return s == StatusAvailable || s == StatusPending
}

// StatusesExcept devuelve todos los estados menos los indicados.
func StatusesExcept(excluded ...Status) []Status {
	out := make([]Status, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		skip := false
		for _, e := range excluded {
			if s == e {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, s)
		}
	}
	return out
}

// Sex de la mascota.
// @Enum male, female
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Valid() bool { return s == SexMale || s == SexFemale }

// Traits son los atributos sí/no del perfil. Se guardan juntos (jsonb).
type Traits struct {
	Dewormed       bool `json:"dewormed"`
	Vaccinated     bool `json:"vaccinated"`
	Microchipped   bool `json:"microchipped"`
	Sterilized     bool `json:"sterilized"`
	ChildFriendly  bool `json:"child_friendly"`
	Trained        bool `json:"trained"`
	LovesPlay      bool `json:"loves_play"`
	LovesWalks     bool `json:"loves_walks"`
	GoodWithDogs   bool `json:"good_with_dogs"`
	GoodWithCats   bool `json:"good_with_cats"`
	Affectionate   bool `json:"affectionate"`
	NeedsAttention bool `json:"needs_attention"`
}

// Pet es el perfil publicado de una mascota.
type Pet struct {
	ID          string
	OwnerUserID string

	Name      string
	Species   string // dog, cat, ...
	Breed     string
	Sex       Sex
	AgeYears  int
	AgeMonths int
	Size      string // small, medium, large, xlarge
	Traits    Traits

	Description  string
	ContactPhone string

	AddressID *string
	ShelterID *string
	Cover     string // path en el blob store

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Photo struct {
	ID        string
	PetID     string
	Path      string
	Order     int
	CreatedAt time.Time
}

type Favorite struct {
	UserID    string
	PetID     string
	CreatedAt time.Time
}
