package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"battle-arena/internal/config"
	"battle-arena/internal/web/handlers"
)

// SetupRouter wires the session API onto a chi router.
func SetupRouter(cfg config.ServerConfig, sessions handlers.SessionStore, previews handlers.PreviewFiles) (http.Handler, error) {
	sessionHandler, err := handlers.NewSessionHandler(sessions)
	if err != nil {
		return nil, err
	}
	battleHandler, err := handlers.NewBattleHandler(sessions, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	previewHandler, err := handlers.NewPreviewHandler(sessions, previews)
	if err != nil {
		return nil, err
	}
	shareHandler, err := handlers.NewShareHandler(sessions)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sessionHandler.Health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Post("/battle", battleHandler.Start)
			r.Post("/reset", battleHandler.Reset)
			r.Get("/share", shareHandler.ServeHTTP)
			r.Get("/previews/{slot}", previewHandler.ServeHTTP)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		log.Warn().Str("path", r.URL.Path).Msg("[Web] unmatched route")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	})

	log.Info().Msg("[Web] HTTP routes configured")
	return r, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("requestID", chimiddleware.GetReqID(r.Context())).
				Msg("[Web] request")
		}()
		next.ServeHTTP(ww, r)
	})
}
