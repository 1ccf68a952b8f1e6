package reports

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"farm-traceability/internal/domain/events"
	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/animals/{animalID}/report.pdf", traceabilityReportHandler(svc))
	r.Get("/animals/{animalID}/qr.png", animalQRHandler(svc))
	r.Route("/reports", func(rr chi.Router) {
		rr.Get("/compliance.pdf", complianceReportHandler(svc))
		rr.Get("/audit.pdf", auditReportHandler(svc))
	})
}

// traceabilityReportHandler godoc
// @Summary Reporte de trazabilidad en PDF
// @Description Perfil del animal, cadena de custodia y log de eventos completo. Acepta el token por query param (?token=) para links de descarga directa.
// @Tags reports
// @Produce application/pdf
// @Param animalID path string true "ID del animal"
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/report.pdf [get]
func traceabilityReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		animalID := chi.URLParam(r, "animalID")
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="traceability-`+animalID+`.pdf"`)

		if err := svc.TraceabilityPDF(r.Context(), animalID, w); err != nil {
			// Si ya se escribió parte del PDF no hay vuelta atrás; estos
			// errores salen antes de la primera escritura.
			w.Header().Del("Content-Disposition")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "animal not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// complianceReportHandler godoc
// @Summary Reporte de cumplimiento en PDF
// @Description Solo para el rol regulator: resumen de anomalías de todo el sistema.
// @Tags reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "se requiere rol regulator"
// @Router /reports/compliance.pdf [get]
func complianceReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != "regulator" && claims.Role != "admin" {
			http.Error(w, "Access denied. Regulator role required.", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="compliance.pdf"`)

		if err := svc.CompliancePDF(r.Context(), w); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// auditReportHandler godoc
// @Summary Log de auditoría en PDF
// @Description Solo para el rol regulator. Filtros opcionales por tipo de evento, validez e instalación.
// @Tags reports
// @Produce application/pdf
// @Param event_type query string false "Filtrar por tipo de evento"
// @Param validity query string false "all, valid o anomaly"
// @Param facility_id query string false "Filtrar por instalación"
// @Param limit query int false "Máximo de eventos (default 1000)"
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "se requiere rol regulator"
// @Router /reports/audit.pdf [get]
func auditReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != "regulator" && claims.Role != "admin" {
			http.Error(w, "Access denied. Regulator role required.", http.StatusForbidden)
			return
		}

		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 || limit > 5000 {
			limit = 1000
		}

		f := events.AuditFilter{
			EventType:  events.EventType(strings.TrimSpace(q.Get("event_type"))),
			Validity:   events.Validity(strings.TrimSpace(q.Get("validity"))),
			FacilityID: strings.TrimSpace(q.Get("facility_id")),
			Limit:      limit,
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="audit.pdf"`)

		if err := svc.AuditPDF(r.Context(), f, w); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// animalQRHandler godoc
// @Summary Código QR del animal en PNG
// @Description El QR apunta al perfil del animal; sirve para caravanas impresas.
// @Tags reports
// @Produce image/png
// @Param animalID path string true "ID del animal"
// @Param size query int false "Lado del PNG en píxeles (default 256, tope 1024)"
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/qr.png [get]
func animalQRHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		png, err := svc.AnimalQR(r.Context(), chi.URLParam(r, "animalID"), size)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "animal not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
