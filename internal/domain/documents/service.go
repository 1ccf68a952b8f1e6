package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"farm-traceability/internal/ports/files"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// MaxUploadBytes limita el tamaño de cada documento subido.
const MaxUploadBytes = 10 << 20 // 10 MiB

// allowedExtensions lista extensión -> content type aceptado. Extensión y
// MIME declarado tienen que coincidir.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

type Service struct {
	repo  Repository
	store files.Store
	now   func() time.Time
}

func NewService(repo Repository, store files.Store) *Service {
	return &Service{
		repo:  repo,
		store: store,
		now:   time.Now,
	}
}

type UploadInput struct {
	AnimalID    string
	DocType     string
	FileName    string
	ContentType string
	Size        int64
	UploadedBy  string
	Body        io.Reader
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	animalID := strings.TrimSpace(in.AnimalID)
	fileName := strings.TrimSpace(in.FileName)
	if animalID == "" || fileName == "" {
		return Document{}, ErrInvalidInput
	}
	if in.Size > MaxUploadBytes {
		return Document{}, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	wantMIME, ok := allowedExtensions[ext]
	if !ok {
		return Document{}, ErrUnsupportedFile
	}
	// Algunos clientes mandan el MIME con parámetros (charset).
	gotMIME := strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0])
	if gotMIME != "" && gotMIME != wantMIME && gotMIME != "application/octet-stream" {
		return Document{}, ErrUnsupportedFile
	}

	docType := strings.TrimSpace(in.DocType)
	if docType == "" {
		docType = TypeOther
	}

	id := uuid.NewString()

	// Prefijo con el id del documento para no chocar con subidas del
	// mismo nombre de archivo.
	path, size, err := s.store.Save(ctx, fmt.Sprintf("%s_%s", id, filepath.Base(fileName)), io.LimitReader(in.Body, MaxUploadBytes+1))
	if err != nil {
		return Document{}, err
	}
	if size > MaxUploadBytes {
		s.store.Remove(ctx, path)
		return Document{}, ErrTooLarge
	}

	d := Document{
		ID:          id,
		AnimalID:    animalID,
		DocType:     docType,
		FileName:    filepath.Base(fileName),
		ContentType: wantMIME,
		SizeBytes:   size,
		StoragePath: path,
		UploadedBy:  strings.TrimSpace(in.UploadedBy),
		UploadedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.store.Remove(ctx, path)
		return Document{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Document, error) {
	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (s *Service) ListByAnimal(ctx context.Context, animalID, docType string) ([]Document, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAnimal(ctx, animalID, strings.TrimSpace(docType))
}

// Delete borra el registro y después el archivo. El borrado del archivo
// es best-effort: un archivo huérfano en disco es preferible a un
// registro que apunta a la nada.
func (s *Service) Delete(ctx context.Context, id string) error {
	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}
	s.store.Remove(ctx, d.StoragePath)
	return nil
}

// Types devuelve los tipos de documento conocidos.
func (s *Service) Types() []string {
	return []string{
		TypeHealthCertificate,
		TypeVaccinationRecord,
		TypeTransportPermit,
		TypeOwnershipProof,
		TypeLabResult,
		TypeOther,
	}
}
