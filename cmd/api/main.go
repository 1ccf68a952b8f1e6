package main

import (
	"net/http"
	"os"
	"time"

	"farm-traceability/internal/adapters/alerts/webhook"
	"farm-traceability/internal/adapters/auth/jwtauth"
	fsstore "farm-traceability/internal/adapters/files/fs"
	"farm-traceability/internal/adapters/mail/logmail"
	"farm-traceability/internal/config"
	"farm-traceability/internal/platform/httpclient"
	"farm-traceability/internal/platform/logger"
	"farm-traceability/internal/ports/alerts"
	"farm-traceability/internal/router"
)

// @title Farm Traceability API
// @version 1.0
// @description Backend de trazabilidad ganadera: registro de animales, eventos de ciclo de vida con validación de plausibilidad y cadena de custodia.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	jwtProvider, err := jwtauth.New(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Error("jwt setup failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	fileStore, err := fsstore.New(cfg.UploadDir)
	if err != nil {
		log.Error("file store setup failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	var notifier alerts.Notifier
	if cfg.AnomalyWebhookURL != "" {
		n, err := webhook.New(httpclient.New(10*time.Second), cfg.AnomalyWebhookURL)
		if err != nil {
			log.Error("anomaly webhook setup failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		notifier = n
	}

	r, err := router.NewRouter(router.Options{
		Config:       cfg,
		Log:          log,
		AuthVerifier: jwtProvider,
		TokenIssuer:  jwtProvider,
		Mailer:       logmail.New(log),
		FileStore:    fileStore,
		Alerts:       notifier,
	})
	if err != nil {
		log.Error("router setup failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
