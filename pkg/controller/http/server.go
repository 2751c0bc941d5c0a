package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
	"github.com/secmon-lab/everecall/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/augment", augmentHandler(uc.Retrieval))

		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", ingestKnowledgeHandler(uc.Knowledge))
			r.Get("/", listKnowledgeHandler(uc.Knowledge))
			r.Get("/{id}", getKnowledgeHandler(uc.Knowledge))
			r.Delete("/{id}", deleteKnowledgeHandler(uc.Knowledge))
		})

		r.Route("/entities", func(r chi.Router) {
			r.Post("/", createEntityHandler(uc.Entity))
			r.Get("/", listEntitiesHandler(uc.Entity))
			r.Get("/{id}", getEntityHandler(uc.Entity))
			r.Put("/{id}", updateEntityHandler(uc.Entity))
			r.Delete("/{id}", deleteEntityHandler(uc.Entity))
			r.Get("/{id}/relations", listRelationsHandler(uc.Entity))
		})

		r.Route("/relations", func(r chi.Router) {
			r.Post("/", createRelationHandler(uc.Entity))
			r.Delete("/{id}", deleteRelationHandler(uc.Entity))
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}
