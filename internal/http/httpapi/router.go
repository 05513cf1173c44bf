package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tryon/internal/http/handlers"
	"tryon/internal/infra"
	"tryon/internal/metrics"
	"tryon/internal/middleware"
)

type Options struct {
	CORSOrigins     []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	Logger          *infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*infra.OrDiscard(opts.Logger)),
		middleware.Country(opts.CountryLookup),
	)

	r.Get("/", app.Root)
	r.With(middleware.CORS(opts.CORSOrigins)).Handle("/metrics", metrics.Handler())

	// submissions hit the provider, so only they are rate limited
	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(opts.CORSOrigins))

		r.Get("/health", app.Health)
		r.Get("/outfits", app.Outfits)
		r.Get("/stats", app.LatencyStats)

		r.With(limited).Post("/generate", app.Generate)
		r.Get("/status/{job_id}", app.ImageStatus)
		r.Get("/status/{job_id}/archive", app.ImageArchive)

		r.With(limited).Post("/video", app.VideoGenerate)
		r.Get("/video/status/{job_id}", app.VideoStatus)
	})

	return r
}
