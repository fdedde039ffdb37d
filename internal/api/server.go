// Package api exposes the merchant over HTTP as a JSON API.
package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bookstore/recordstore/internal/events"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Store is where admin save and load go.
type Store interface {
	merchant.SnapshotReader
	merchant.SnapshotWriter
	Ping() error
}

// Publisher announces completed operations. *events.Publisher implements it.
type Publisher interface {
	PublishRecordAdded(ctx context.Context, id, artist, title string, quantity, onHand int) error
	PublishRecordPriced(ctx context.Context, id string, price int64) error
	PublishRecordSold(ctx context.Context, id string, quantity int, value int64) error
	PublishReservationCreated(ctx context.Context, rid int, id string, quantity int) error
	PublishReservationCancelled(ctx context.Context, rid int, id string, quantity int) error
	PublishReservationCommitted(ctx context.Context, rid int, id string, quantity int) error
}

// Server implements the HTTP handlers
type Server struct {
	merchant  *merchant.Merchant
	store     Store
	publisher Publisher
	log       *zap.Logger
	validate  *validator.Validate

	pending sync.WaitGroup
}

// NewServer creates a new HTTP API server. publisher may be nil.
func NewServer(m *merchant.Merchant, store Store, publisher Publisher, log *zap.Logger) *Server {
	return &Server{
		merchant:  m,
		store:     store,
		publisher: publisher,
		log:       log,
		validate:  newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes builds the router. extra is mounted alongside the API, for example
// a metrics handler.
func (s *Server) Routes(extra map[string]http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	for pattern, h := range extra {
		r.Handle(pattern, h)
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.handleListItems)
		r.Post("/", s.handleAddItem)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetItem)
			r.Put("/price", s.handleSetPrice)
			r.Post("/sell", s.handleSell)
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", s.handleListReservations)
		r.Post("/", s.handleReserve)
		r.Route("/{rid}", func(r chi.Router) {
			r.Get("/", s.handleGetReservation)
			r.Delete("/", s.handleCancelReservation)
			r.Post("/commit", s.handleCommitReservation)
		})
	})

	r.Get("/stats", s.handleStats)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", s.handleReset)
		r.Post("/reset-sales", s.handleResetSales)
		r.Post("/save", s.handleSave)
		r.Post("/load", s.handleLoad)
	})

	return r
}

// Wait blocks until every in-flight event publish has finished.
func (s *Server) Wait() {
	s.pending.Wait()
}

// publish runs fn in the background so event delivery never delays a
// response. Failures are logged only.
func (s *Server) publish(r *http.Request, eventType string, fn func(ctx context.Context, p Publisher) error) {
	if s.publisher == nil {
		return
	}
	corrID := middleware.GetReqID(r.Context())

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		ctx = events.WithCorrelationID(ctx, corrID)

		if err := fn(ctx, s.publisher); err != nil {
			s.log.Error("Failed to publish event",
				zap.String("event_type", eventType),
				zap.String("request_id", corrID),
				zap.Error(err),
			)
		}
	}()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.log.Error("HTTP request failed", fields...)
			return
		}
		s.log.Info("HTTP request", fields...)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			s.log.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
