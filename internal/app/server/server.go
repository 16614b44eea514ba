package server

import (
	"net/http"

	"github.com/devkekops/paymentopt/internal/app/config"
	"github.com/devkekops/paymentopt/internal/app/handlers"
	"github.com/devkekops/paymentopt/internal/app/logger"
	"github.com/devkekops/paymentopt/internal/app/metrics"
	"github.com/devkekops/paymentopt/internal/app/storage"
)

// NewRepository picks the SQL repository when a database is configured, memory otherwise.
func NewRepository(cfg *config.Config) (storage.Repository, error) {
	if cfg.DatabaseURI == "" {
		return storage.NewMemoryRepo(), nil
	}
	return storage.NewRepoDB(cfg.DatabaseURI)
}

func Serve(cfg *config.Config) error {
	repo, err := NewRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	var baseHandler = handlers.NewBaseHandler(repo, metrics.New(), cfg.SecretKey, cfg.Workers)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: baseHandler,
	}

	logger.Logger.Info().Str("address", cfg.RunAddress).Msg("listening")
	return server.ListenAndServe()
}
