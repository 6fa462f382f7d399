// Package api exposes score entry, conversion, feedback and analysis over
// HTTP as JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/media"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

// Options wires the server to its collaborators. Media and Samples are
// optional; their routes answer 501 when unset.
type Options struct {
	Scores    store.ScoreRepo
	Estimator *scaling.Estimator
	Media     *media.Attacher
	Samples   store.SampleRepo
	Baseline  scaling.Game

	CORSOrigins []string
	Timeout     time.Duration
	// RequestLog enables chi's request logger.
	RequestLog bool
}

// Server holds the handlers' dependencies.
type Server struct {
	opts    Options
	scores  store.ScoreRepo
	est     *scaling.Estimator
	convert *conversion.Service
	media   *media.Attacher
	samples store.SampleRepo
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Baseline == "" {
		opts.Baseline = scaling.NESTetris
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Server{
		opts:    opts,
		scores:  opts.Scores,
		est:     opts.Estimator,
		convert: conversion.NewService(opts.Estimator, opts.Scores),
		media:   opts.Media,
		samples: opts.Samples,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if s.opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	jsonBody := middleware.RequestSize(maxBodyBytes)
	upload := middleware.RequestSize(maxUploadBytes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.listGames)
		r.Get("/stats", s.stats)
		r.Get("/conversions", s.conversions)
		r.With(jsonBody).Post("/feedback", s.feedback)

		r.Route("/scores", func(r chi.Router) {
			r.Get("/", s.listScores)
			r.With(jsonBody).Post("/", s.createScore)
			r.Route("/{scoreID}", func(r chi.Router) {
				r.Get("/", s.getScore)
				r.With(jsonBody).Put("/", s.restoreScore)
				r.Delete("/", s.deleteScore)
				r.With(upload).Post("/media", s.attachMedia)
				r.Delete("/media", s.detachMedia)
			})
		})

		r.Route("/factors", func(r chi.Router) {
			r.Get("/", s.listFactors)
			r.Delete("/", s.resetFactors)
		})

		r.Route("/analyzer", func(r chi.Router) {
			r.Get("/samples", s.listSamples)
			r.With(jsonBody).Post("/samples", s.addSamples)
			r.Delete("/samples", s.clearSamples)
			r.Get("/factors", s.analyzedFactors)
			r.Get("/report", s.analyzerReport)
			r.Get("/code", s.analyzerCode)
			r.Get("/validate", s.analyzerValidate)
		})
	})
	return r
}
