package mail

import "context"

// Sender envía correos salientes (reset de contraseña, avisos).
// En dev se usa un adapter que solo loguea.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
