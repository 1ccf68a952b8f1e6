package files

import (
	"context"
	"io"
)

// Store persiste archivos adjuntos (documentos de animales).
type Store interface {
	// Save escribe el contenido bajo `name` y devuelve el path final.
	Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)

	// Remove borra el archivo. Best-effort: un archivo ya ausente no es error.
	Remove(ctx context.Context, path string) error
}
