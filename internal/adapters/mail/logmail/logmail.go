package logmail

import (
	"context"

	"farm-traceability/internal/platform/logger"
)

// Sender es el adapter de correo para dev: no envía nada, solo loguea.
// En producción se reemplaza por un adapter SMTP real detrás del mismo port.
type Sender struct {
	log logger.Logger
}

func New(log logger.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("outgoing email (dev mode, not sent)", map[string]any{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
