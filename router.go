package main

import (
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"net/http"
)

// newRouter builds every HTTP route served for c.
func newRouter(c *comms.Conductor) chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	// tokens are required in production, elsewhere they only identify the
	// viewer so drivers can still steer
	protect := func(r chi.Router) {
		if ENV.PRODUCTION && !ENV.DEBUG {
			r.Use(ValidateJWT)
		} else {
			r.Use(IdentifyJWT)
		}
	}
	if !ENV.PRODUCTION || ENV.DEBUG {
		logger.Warn().Msg("running in debug mode, authentication disabled")
	}

	//---
	// Build the API routes
	//---
	r.Route("/api", func(r chi.Router) {
		// login
		r.Post("/login", Login)

		r.Group(func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)
			r.Get("/refresh_token", JWTRefresh)
		})

		r.Group(func(r chi.Router) {
			protect(r)
			r.Get("/panels", PanelsHandler(c))
			r.Get("/panels/{name}.svg", PanelSVGHandler(c))
			r.Get("/calibration", CalibrationHandler(c))
			r.Get("/stats", StatsHandler(c))
		})
	})

	r.Route("/debug", func(r chi.Router) {
		protect(r)
		r.Get("/lidar", LidarChartHandler(c))
	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		protect(r)
		r.Get("/dashboard", DashboardStreamHandler(c))
		r.Get("/telemetry", TelemetryIngestHandler(c))
	})

	// add static base routes
	FileServer(r, "/", http.Dir(ENV.HTMLDIR))

	return r
}
