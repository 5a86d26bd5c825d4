package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rakeback-manager/internal/constants"
	"rakeback-manager/internal/domain"
	"rakeback-manager/internal/rakeback"
	"rakeback-manager/internal/service"
)

// tierPaths maps the URL segment of each tier's collection to the tier.
var tierPaths = map[string]domain.Tier{
	"players":      domain.TierPlayer,
	"agents":       domain.TierAgent,
	"super-agents": domain.TierSuperAgent,
}

type RakebackServer struct {
	clubSvc   *service.ClubService
	entitySvc *service.EntityService
	weekSvc   *service.WeekService
	db        *sql.DB
	logger    zerolog.Logger
}

func NewRakebackServer(
	clubSvc *service.ClubService,
	entitySvc *service.EntityService,
	weekSvc *service.WeekService,
	db *sql.DB,
	logger zerolog.Logger,
) *RakebackServer {
	return &RakebackServer{clubSvc: clubSvc, entitySvc: entitySvc, weekSvc: weekSvc, db: db, logger: logger}
}

// Register mounts every route on mux.
func (s *RakebackServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /api/clubs", s.listClubs)
	mux.HandleFunc("POST /api/clubs", s.createClub)
	mux.HandleFunc("GET /api/clubs/{clubId}", s.getClub)
	mux.HandleFunc("DELETE /api/clubs/{clubId}", s.deleteClub)

	for path, tier := range tierPaths {
		base := "/api/clubs/{clubId}/" + path
		mux.HandleFunc("GET "+base, s.listEntities(tier))
		mux.HandleFunc("POST "+base, s.createEntity(tier))
		mux.HandleFunc("GET "+base+"/{id}", s.getEntity(tier))
		mux.HandleFunc("PUT "+base+"/{id}", s.updateEntity(tier))
		mux.HandleFunc("DELETE "+base+"/{id}", s.deleteEntity(tier))
	}

	mux.HandleFunc("GET /api/clubs/{clubId}/weeks", s.listWeeks)
	mux.HandleFunc("POST /api/clubs/{clubId}/weeks", s.createWeek)
	mux.HandleFunc("GET /api/clubs/{clubId}/weeks/{id}", s.getWeek)
	mux.HandleFunc("PATCH /api/clubs/{clubId}/weeks/{id}", s.updateWeek)
	mux.HandleFunc("DELETE /api/clubs/{clubId}/weeks/{id}", s.deleteWeek)
	mux.HandleFunc("PUT /api/clubs/{clubId}/weeks/{id}/rows", s.uploadRows)
	mux.HandleFunc("POST /api/clubs/{clubId}/weeks/{id}/import", s.importRows)
	mux.HandleFunc("POST /api/clubs/{clubId}/weeks/{id}/process", s.processWeek)

	mux.HandleFunc("GET /api/clubs/{clubId}/week-data", s.listWeekData)
	mux.HandleFunc("GET /api/clubs/{clubId}/week-data/{id}", s.getWeekData)
	mux.HandleFunc("DELETE /api/clubs/{clubId}/week-data/{id}", s.deleteWeekData)

	mux.HandleFunc("POST /api/preview", s.preview)
}

func (s *RakebackServer) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rakeback Management API"})
}

func (s *RakebackServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	status, database := http.StatusOK, "connected"
	if err := s.db.PingContext(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("database ping failed")
		status, database = http.StatusServiceUnavailable, "disconnected"
	}
	writeJSON(w, status, map[string]string{
		"status":    http.StatusText(status),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoRows),
		errors.Is(err, rakeback.ErrInvalidConfig),
		errors.Is(err, rakeback.ErrInvalidRow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFeedDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}
