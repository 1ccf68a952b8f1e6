package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"farm-traceability/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/documents/types", listTypesHandler(svc))
	r.Route("/animals/{animalID}/documents", func(dr chi.Router) {
		dr.Post("/", uploadDocumentHandler(svc))
		dr.Get("/", listDocumentsHandler(svc))
	})
	r.Route("/documents/{documentID}", func(dr chi.Router) {
		dr.Get("/", getDocumentHandler(svc))
		dr.Get("/download", downloadDocumentHandler(svc))
		dr.Delete("/", deleteDocumentHandler(svc))
	})
}

type documentResponse struct {
	ID          string    `json:"id"`
	AnimalID    string    `json:"animal_id"`
	DocType     string    `json:"doc_type"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// uploadDocumentHandler godoc
// @Summary Subir documento
// @Description Multipart con campo `file` y campo opcional `doc_type`. Acepta pdf, jpg, jpeg, png, doc, docx y txt hasta 10 MiB.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param file formData file true "Archivo a adjuntar"
// @Param doc_type formData string false "Tipo de documento"
// @Success 201 {object} documentResponse
// @Failure 400 {string} string "archivo faltante o no soportado"
// @Failure 401 {string} string "unauthorized"
// @Failure 413 {string} string "archivo demasiado grande"
// @Router /animals/{animalID}/documents [post]
func uploadDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
		if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
			http.Error(w, "invalid multipart body or file too large", http.StatusRequestEntityTooLarge)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		d, err := svc.Upload(r.Context(), UploadInput{
			AnimalID:    chi.URLParam(r, "animalID"),
			DocType:     r.FormValue("doc_type"),
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			UploadedBy:  claims.UserID,
			Body:        file,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrUnsupportedFile):
				http.Error(w, "unsupported file type", http.StatusBadRequest)
			case errors.Is(err, ErrTooLarge):
				http.Error(w, "file exceeds the 10 MiB limit", http.StatusRequestEntityTooLarge)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// listDocumentsHandler godoc
// @Summary Documentos de un animal
// @Tags documents
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param doc_type query string false "Filtrar por tipo de documento"
// @Success 200 {array} documentResponse
// @Failure 401 {string} string "unauthorized"
// @Router /animals/{animalID}/documents [get]
func listDocumentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "animalID"), r.URL.Query().Get("doc_type"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]documentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDocumentResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getDocumentHandler godoc
// @Summary Metadatos de un documento
// @Tags documents
// @Produce json
// @Param documentID path string true "ID del documento"
// @Success 200 {object} documentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID} [get]
func getDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.GetByID(r.Context(), chi.URLParam(r, "documentID"))
		if err != nil {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

// downloadDocumentHandler godoc
// @Summary Descargar un documento
// @Tags documents
// @Produce octet-stream
// @Param documentID path string true "ID del documento"
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID}/download [get]
func downloadDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.GetByID(r.Context(), chi.URLParam(r, "documentID"))
		if err != nil {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		if _, err := os.Stat(d.StoragePath); err != nil {
			http.Error(w, "document file is missing", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", d.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+d.FileName+`"`)
		http.ServeFile(w, r, d.StoragePath)
	}
}

// deleteDocumentHandler godoc
// @Summary Borrar documento
// @Tags documents
// @Param documentID path string true "ID del documento"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID} [delete]
func deleteDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "documentID")); err != nil {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// listTypesHandler godoc
// @Summary Tipos de documento conocidos
// @Tags documents
// @Produce json
// @Success 200 {array} string
// @Router /documents/types [get]
func listTypesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Types())
	}
}

func toDocumentResponse(d Document) documentResponse {
	return documentResponse{
		ID:          d.ID,
		AnimalID:    d.AnimalID,
		DocType:     d.DocType,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
