// Package api exposes the HTTP surface: public snapshot and evaluation
// endpoints plus the admin flag/segment CRUD, all on a chi router.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/auth"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
	"github.com/nubster/flaps/internal/snapshot"
	"github.com/nubster/flaps/internal/store"
	"github.com/nubster/flaps/internal/telemetry"
	"github.com/nubster/flaps/internal/validation"
)

type Server struct {
	store       store.Store
	registry    *snapshot.Registry
	environment string
	adminAPIKey string
}

// NewServer wires the HTTP surface to a store and snapshot registry.
// environment is the default environment evaluations target when the request
// doesn't name one.
func NewServer(s store.Store, registry *snapshot.Registry, environment, adminKey string) *Server {
	return &Server{
		store:       s,
		registry:    registry,
		environment: environment,
		adminAPIKey: adminKey,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	// SSE change stream lives outside the timeout group: the connection is
	// long-lived by design.
	r.Get("/v1/flags/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))

		// health
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		// public: snapshot (ETag)
		r.Get("/v1/flags/snapshot", s.handleSnapshot)

		// public: evaluation
		r.Post("/v1/evaluate", s.handleEvaluate)
		r.Post("/v1/evaluate/batch", s.handleEvaluateBatch)

		// admin (protected): flag and segment CRUD
		r.Group(func(r chi.Router) {
			r.Use(s.authAdmin)
			r.Put("/v1/flags/{key}", s.handleUpsertFlag)
			r.Delete("/v1/flags/{key}", s.handleDeleteFlag)
			r.Put("/v1/segments/{id}", s.handleUpsertSegment)
			r.Delete("/v1/segments/{id}", s.handleDeleteSegment)
		})
	})

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.registry.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", snap.ETag)
	_ = json.NewEncoder(w).Encode(snap)
}

// ---- admin handlers ----

type upsertResponse struct {
	OK   bool   `json:"ok"`
	ETag string `json:"etag"`
}

func (s *Server) handleUpsertFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var flag flags.Flag
	if err := json.NewDecoder(r.Body).Decode(&flag); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if flag.Key.String() != key {
		BadRequestError(w, r, ErrCodeInvalidKey, "flag key in body must match URL")
		return
	}
	if fields := validation.ValidateFlag(flag); len(fields) > 0 {
		ValidationError(w, r, "flag failed validation", fields)
		return
	}

	if err := s.store.UpsertFlag(r.Context(), flag); err != nil {
		InternalError(w, r, "flag upsert failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ETag: s.registry.Load().ETag})
}

func (s *Server) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	key, err := flags.NewKey(chi.URLParam(r, "key"))
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidKey, err.Error())
		return
	}

	if err := s.store.DeleteFlag(r.Context(), key); err != nil {
		InternalError(w, r, "flag delete failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ETag: s.registry.Load().ETag})
}

func (s *Server) handleUpsertSegment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestError(w, r, ErrCodeBadRequest, "segment id must be a UUID")
		return
	}

	var segment segments.Segment
	if err := json.NewDecoder(r.Body).Decode(&segment); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if segment.ID != id {
		BadRequestError(w, r, ErrCodeBadRequest, "segment id in body must match URL")
		return
	}
	if fields := validation.ValidateSegment(segment); len(fields) > 0 {
		ValidationError(w, r, "segment failed validation", fields)
		return
	}

	if err := s.store.UpsertSegment(r.Context(), segment); err != nil {
		InternalError(w, r, "segment upsert failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ETag: s.registry.Load().ETag})
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestError(w, r, ErrCodeBadRequest, "segment id must be a UUID")
		return
	}

	if err := s.store.DeleteSegment(r.Context(), id); err != nil {
		InternalError(w, r, "segment delete failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{OK: true, ETag: s.registry.Load().ETag})
}

// RebuildSnapshot reloads all flags and segments from the store and swaps
// the atomic snapshot.
func (s *Server) RebuildSnapshot(ctx context.Context) error {
	flagList, err := s.store.ListFlags(ctx)
	if err != nil {
		return err
	}
	segmentList, err := s.store.ListSegments(ctx)
	if err != nil {
		return err
	}
	snap := snapshot.Build(flagList, segmentList)
	s.registry.Update(snap)
	telemetry.SnapshotFlags.Set(float64(len(snap.Flags)))
	telemetry.SnapshotSegments.Set(float64(len(snap.Segments)))
	return nil
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		if !auth.VerifyAPIKeyConstantTime(got, s.adminAPIKey) {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
