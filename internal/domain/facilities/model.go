package facilities

import "time"

// FacilityType es un set abierto; estas son las conocidas.
type FacilityType string

const (
	TypeFarm      FacilityType = "farm"
	TypeProcessor FacilityType = "processor"
	TypeRetailer  FacilityType = "retailer"
)

// Facility es una instalación custodial.
// Latitude/Longitude son opcionales: sin coordenadas, la regla de velocidad
// del motor de eventos se salta para esta instalación.
type Facility struct {
	ID string

	Name     string
	Location string
	Type     string

	Latitude  *float64
	Longitude *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
