package animals

import "time"

// Species define las especies más comunes del sistema.
// El campo es texto libre: la referencia completa vive en el módulo breeds.
type Species string

const (
	SpeciesCattle  Species = "cattle"
	SpeciesSheep   Species = "sheep"
	SpeciesGoat    Species = "goat"
	SpeciesPig     Species = "pig"
	SpeciesChicken Species = "chicken"
)

// Animal es el perfil de un animal trazado.
//
// FacilityID es la instalación custodial ACTUAL: es un cache de la proyección
// del log de eventos, escrito únicamente por el motor de eventos al aceptar
// un movimiento. Mutarlo por otro camino rompe la cadena de custodia.
type Animal struct {
	ID string

	Name    string
	Species string
	BreedID string
	TagID   string

	FacilityID string

	// OriginFacilityID es la instalación al momento del alta. Inmutable:
	// es la base desde la que el proyector reconstruye la historia.
	OriginFacilityID string

	OwnerID string

	// DateAdded: fecha de alta declarada (los eventos anteriores a esta
	// fecha se marcan como anomalía temporal).
	DateAdded time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
