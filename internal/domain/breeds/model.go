package breeds

// Breed es una entrada del catálogo de razas (datos tipo DAD-IS).
// Es un catálogo de solo lectura: se consulta para poblar formularios,
// no se edita por la API.
type Breed struct {
	ID                string `json:"id"`
	BreedName         string `json:"breed_name"`
	Specie            string `json:"specie"`
	Country           string `json:"country"`
	ISO3              string `json:"iso3"`
	Language          string `json:"language,omitempty"`
	Description       string `json:"description,omitempty"`
	TransboundaryName string `json:"transboundary_name,omitempty"`
	OtherName         string `json:"other_name,omitempty"`
}
