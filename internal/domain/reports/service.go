package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"farm-traceability/internal/domain/animals"
	"farm-traceability/internal/domain/events"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// EventSource es la porción del repositorio de eventos que consumen los
// reportes. A diferencia del servicio de eventos, acá no hay tope de
// paginación: un reporte de trazabilidad lleva el historial completo.
type EventSource interface {
	ListByAnimal(ctx context.Context, animalID string, f events.ListFilter) ([]events.TraceEvent, error)
	List(ctx context.Context, f events.AuditFilter) ([]events.TraceEvent, error)
	CountByValidity(ctx context.Context, since *time.Time) (total int, invalid int, err error)
}

// AnimalSource resuelve perfiles de animales.
type AnimalSource interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
}

// FacilityNames resuelve nombres de instalaciones para el PDF.
type FacilityNames interface {
	FacilityName(ctx context.Context, facilityID string) (string, error)
}

type Service struct {
	animals    AnimalSource
	events     EventSource
	facilities FacilityNames

	// baseURL arma el contenido de los códigos QR (link al perfil del
	// animal). Vacío genera un URI propio del esquema farm-trace.
	baseURL string

	now func() time.Time
}

func NewService(an AnimalSource, ev EventSource, fac FacilityNames, baseURL string) *Service {
	return &Service{
		animals:    an,
		events:     ev,
		facilities: fac,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		now:        time.Now,
	}
}

// TraceabilityPDF escribe el reporte de trazabilidad completo de un animal:
// perfil, cadena de custodia y log de eventos con veredictos.
func (s *Service) TraceabilityPDF(ctx context.Context, animalID string, w io.Writer) error {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return ErrInvalidInput
	}

	a, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		return ErrNotFound
	}

	log, err := s.events.ListByAnimal(ctx, animalID, events.ListFilter{Ascending: true})
	if err != nil {
		return err
	}

	pdf := newReportPDF("Reporte de Trazabilidad")

	sectionTitle(pdf, "Animal")
	kv(pdf, "ID", a.ID)
	kv(pdf, "Nombre", a.Name)
	kv(pdf, "Especie", a.Species)
	if a.TagID != "" {
		kv(pdf, "Caravana", a.TagID)
	}
	kv(pdf, "Alta", a.DateAdded.Format("2006-01-02"))
	if a.FacilityID != "" {
		kv(pdf, "Instalación actual", s.facilityLabel(ctx, a.FacilityID))
	}

	pdf.Ln(4)
	sectionTitle(pdf, "Cadena de custodia")
	moved := false
	for _, e := range log {
		if !e.IsValid || e.Type != events.EventTypeMovement || e.FacilityID == "" {
			continue
		}
		moved = true
		row(pdf, fmt.Sprintf("%s  ->  %s",
			e.OccurredAt.Format("2006-01-02 15:04"),
			s.facilityLabel(ctx, e.FacilityID)))
	}
	if !moved {
		row(pdf, "Sin movimientos registrados.")
	}

	pdf.Ln(4)
	sectionTitle(pdf, fmt.Sprintf("Log de eventos (%d)", len(log)))
	for _, e := range log {
		verdict := "OK"
		if !e.IsValid {
			verdict = "ANOMALIA: " + e.AnomalyReason
		}
		row(pdf, fmt.Sprintf("%s  %-12s  %s",
			e.OccurredAt.Format("2006-01-02 15:04"), e.Type, verdict))
	}
	if len(log) == 0 {
		row(pdf, "Sin eventos registrados.")
	}

	footer(pdf, s.now())
	return pdf.Output(w)
}

// CompliancePDF escribe el reporte de cumplimiento del sistema: totales,
// tasa de anomalías y el detalle de los eventos rechazados. El handler
// restringe este reporte al rol regulator.
func (s *Service) CompliancePDF(ctx context.Context, w io.Writer) error {
	total, invalid, err := s.events.CountByValidity(ctx, nil)
	if err != nil {
		return err
	}

	anomalies, err := s.events.List(ctx, events.AuditFilter{Validity: events.ValidityInvalid})
	if err != nil {
		return err
	}

	pdf := newReportPDF("Reporte de Cumplimiento")

	sectionTitle(pdf, "Resumen")
	kv(pdf, "Eventos totales", fmt.Sprintf("%d", total))
	kv(pdf, "Anomalías", fmt.Sprintf("%d", invalid))
	rate := 0.0
	if total > 0 {
		rate = float64(invalid) / float64(total) * 100
	}
	kv(pdf, "Tasa de anomalías", fmt.Sprintf("%.2f%%", rate))

	pdf.Ln(4)
	sectionTitle(pdf, "Eventos rechazados")
	for _, e := range anomalies {
		row(pdf, fmt.Sprintf("%s  animal %s  %-12s  %s",
			e.OccurredAt.Format("2006-01-02 15:04"), e.AnimalID, e.Type, e.AnomalyReason))
	}
	if len(anomalies) == 0 {
		row(pdf, "Sin anomalías registradas.")
	}

	footer(pdf, s.now())
	return pdf.Output(w)
}

// AuditPDF escribe el listado de auditoría filtrado.
func (s *Service) AuditPDF(ctx context.Context, f events.AuditFilter, w io.Writer) error {
	items, err := s.events.List(ctx, f)
	if err != nil {
		return err
	}

	pdf := newReportPDF("Log de Auditoría")

	sectionTitle(pdf, "Filtros")
	if f.EventType != "" {
		kv(pdf, "Tipo de evento", string(f.EventType))
	}
	if f.Validity != "" && f.Validity != events.ValidityAny {
		kv(pdf, "Validez", string(f.Validity))
	}
	if f.FacilityID != "" {
		kv(pdf, "Instalación", s.facilityLabel(ctx, f.FacilityID))
	}
	if f.EventType == "" && (f.Validity == "" || f.Validity == events.ValidityAny) && f.FacilityID == "" {
		row(pdf, "Sin filtros: log completo.")
	}

	pdf.Ln(4)
	sectionTitle(pdf, fmt.Sprintf("Eventos (%d)", len(items)))
	for _, e := range items {
		verdict := "OK"
		if !e.IsValid {
			verdict = "ANOMALIA"
		}
		row(pdf, fmt.Sprintf("%s  animal %s  %-12s  %s",
			e.OccurredAt.Format("2006-01-02 15:04"), e.AnimalID, e.Type, verdict))
	}
	if len(items) == 0 {
		row(pdf, "Sin eventos que matcheen los filtros.")
	}

	footer(pdf, s.now())
	return pdf.Output(w)
}

// AnimalQR genera un PNG con el QR que apunta al perfil del animal.
func (s *Service) AnimalQR(ctx context.Context, animalID string, size int) ([]byte, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.animals.GetByID(ctx, animalID); err != nil {
		return nil, ErrNotFound
	}
	if size <= 0 || size > 1024 {
		size = 256
	}

	content := "farm-trace:animal:" + animalID
	if s.baseURL != "" {
		content = s.baseURL + "/api/v1/animals/" + animalID
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

func (s *Service) facilityLabel(ctx context.Context, facilityID string) string {
	name, err := s.facilities.FacilityName(ctx, facilityID)
	if err != nil || name == "" {
		return facilityID
	}
	return name
}

// Helpers de layout. Fuente core (Helvetica): sin dependencias de fuentes
// externas, alcanza para reportes tabulares.

func newReportPDF(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)
	return pdf
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func kv(pdf *fpdf.Fpdf, key, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(45, 6, key)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}

func row(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 5, text, "", "L", false)
}

func footer(pdf *fpdf.Fpdf, now time.Time) {
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 5, "Generado el "+now.Format("2006-01-02 15:04:05 MST"))
}
