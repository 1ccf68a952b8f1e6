package documents

import "time"

// Tipos de documento conocidos; set abierto.
const (
	TypeHealthCertificate = "health_certificate"
	TypeVaccinationRecord = "vaccination_record"
	TypeTransportPermit   = "transport_permit"
	TypeOwnershipProof    = "ownership_proof"
	TypeLabResult         = "lab_result"
	TypeOther             = "other"
)

// Document es un archivo adjunto al historial de un animal.
// StoragePath es la ruta en disco del adaptador de archivos; no se
// expone por la API.
type Document struct {
	ID          string
	AnimalID    string
	DocType     string
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string
	UploadedBy  string
	UploadedAt  time.Time
}
