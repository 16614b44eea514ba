package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devkekops/paymentopt/internal/app/metrics"
	"github.com/devkekops/paymentopt/internal/app/storage"
)

type BaseHandler struct {
	*chi.Mux
	secretKey string
	workers   int
	repo      storage.Repository
	metrics   *metrics.Metrics
}

func NewBaseHandler(repo storage.Repository, m *metrics.Metrics, secretKey string, workers int) *BaseHandler {
	bh := &BaseHandler{
		Mux:       chi.NewMux(),
		secretKey: secretKey,
		workers:   workers,
		repo:      repo,
		metrics:   m,
	}

	bh.Use(middleware.RequestID)
	bh.Use(middleware.RealIP)
	bh.Use(middleware.Logger)
	bh.Use(middleware.Recoverer)

	bh.Use(middleware.Compress(5))
	bh.Use(decompressBody)

	bh.Handle("/metrics", m.Handler())

	bh.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(signatureHandle(bh.secretKey))
			r.Post("/optimize", bh.optimize())
			r.Post("/optimize/batch", bh.optimizeBatch())
		})
		r.Get("/runs/{runID}", bh.getRun())
	})

	return bh
}
