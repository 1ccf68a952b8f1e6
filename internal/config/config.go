package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config agrupa toda la configuración del servicio.
// Se carga una sola vez al arranque; si algo está mal formado, el proceso
// no debe levantar (los umbrales del motor de eventos se validan aparte).
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// DSN de Postgres. Vacío => repos in-memory (modo dev).
	DBDSN string `env:"DB_DSN"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// TTL de los tokens de reseteo de contraseña (in-memory, single-use).
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"30m"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads/documents"`

	// Base pública del servicio; arma los links de los códigos QR.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// Webhook opcional para alertar anomalías a reguladores.
	AnomalyWebhookURL string `env:"ANOMALY_WEBHOOK_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	AppName   string `env:"APP_NAME" envDefault:"farm-traceability"`

	// Umbrales del motor de plausibilidad de eventos.
	MaxSpeedKmh        float64       `env:"EVENT_MAX_SPEED_KMH" envDefault:"100"`
	DuplicateTolerance time.Duration `env:"EVENT_DUPLICATE_TOLERANCE" envDefault:"1s"`
	LookbackDays       int           `env:"EVENT_LOOKBACK_DAYS" envDefault:"90"`
	LookbackLimit      int           `env:"EVENT_LOOKBACK_LIMIT" envDefault:"500"`
}

// Load lee la configuración desde variables de entorno.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
