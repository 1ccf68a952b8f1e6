package webhook

import (
	"context"
	"errors"
	"strings"

	"farm-traceability/internal/platform/httpclient"
	"farm-traceability/internal/ports/alerts"
)

// Notifier publica anomalías a un webhook HTTP configurable
// (p.ej. el sistema de alertas del regulador).
type Notifier struct {
	client *httpclient.Client
	url    string
}

func New(client *httpclient.Client, url string) (*Notifier, error) {
	if client == nil {
		return nil, errors.New("webhook: client required")
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("webhook: url required")
	}
	return &Notifier{client: client, url: strings.TrimSpace(url)}, nil
}

func (n *Notifier) NotifyAnomaly(ctx context.Context, a alerts.Anomaly) error {
	return n.client.PostJSON(ctx, n.url, a, nil)
}
