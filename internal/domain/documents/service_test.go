package documents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	fsstore "farm-traceability/internal/adapters/files/fs"
)

type memDocRepo struct {
	mu   sync.Mutex
	docs map[string]Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]Document)}
}

func (r *memDocRepo) Create(_ context.Context, d Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (r *memDocRepo) ListByAnimal(_ context.Context, animalID, docType string) ([]Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Document
	for _, d := range r.docs {
		if d.AnimalID != animalID {
			continue
		}
		if docType != "" && d.DocType != docType {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *memDocRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("fs.New: %v", err)
	}
	return NewService(newMemDocRepo(), store)
}

func TestUploadAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Upload(ctx, UploadInput{
		AnimalID:    "animal-1",
		DocType:     TypeHealthCertificate,
		FileName:    "certificado.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4 contenido"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if d.SizeBytes == 0 {
		t.Fatal("SizeBytes quedó en cero")
	}

	items, err := svc.ListByAnimal(ctx, "animal-1", TypeHealthCertificate)
	if err != nil {
		t.Fatalf("ListByAnimal: %v", err)
	}
	if len(items) != 1 || items[0].ID != d.ID {
		t.Fatalf("ListByAnimal devolvió %d documentos", len(items))
	}

	// El filtro por tipo excluye lo que no matchea.
	items, err = svc.ListByAnimal(ctx, "animal-1", TypeLabResult)
	if err != nil {
		t.Fatalf("ListByAnimal con filtro: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("filtro por tipo devolvió %d documentos, quería 0", len(items))
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{
		AnimalID:    "animal-1",
		FileName:    "script.exe",
		ContentType: "application/octet-stream",
		Body:        strings.NewReader("MZ"),
	})
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("err = %v, quería ErrUnsupportedFile", err)
	}
}

func TestUploadRejectsMismatchedMIME(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{
		AnimalID:    "animal-1",
		FileName:    "foto.png",
		ContentType: "application/pdf",
		Body:        strings.NewReader("no soy un png"),
	})
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("err = %v, quería ErrUnsupportedFile", err)
	}
}

func TestUploadRejectsOversizedDeclaredSize(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{
		AnimalID:    "animal-1",
		FileName:    "grande.pdf",
		ContentType: "application/pdf",
		Size:        MaxUploadBytes + 1,
		Body:        strings.NewReader("x"),
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, quería ErrTooLarge", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d, err := svc.Upload(ctx, UploadInput{
		AnimalID:    "animal-1",
		FileName:    "nota.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("hola"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID tras Delete = %v, quería ErrNotFound", err)
	}
}
