// Package api exposes the generator over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/processor"
)

// Generator produces a reel for one request.
type Generator interface {
	Generate(ctx context.Context, req processor.Request) (*processor.Result, error)
}

type Deps struct {
	Generator Generator
	Log       zerolog.Logger
	MaxUpload int64
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(d.Log))
	r.Use(middleware.Recoverer)

	h := NewHandler(d)

	r.Get("/health", h.Health)

	r.Post("/generate-video/", h.GenerateVideo)
	r.Post("/generate-video", h.GenerateVideo)

	return r
}
