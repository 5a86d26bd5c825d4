package server

import (
	"net/http"

	"rakeback-manager/internal/domain"
	"rakeback-manager/internal/rakeback"
	"rakeback-manager/internal/service"
)

type createClubRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (s *RakebackServer) listClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := s.clubSvc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

func (s *RakebackServer) createClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	club, err := s.clubSvc.Create(r.Context(), req.Name, req.DisplayName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, club)
}

func (s *RakebackServer) getClub(w http.ResponseWriter, r *http.Request) {
	club, err := s.clubSvc.Get(r.Context(), r.PathValue("clubId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (s *RakebackServer) deleteClub(w http.ResponseWriter, r *http.Request) {
	if err := s.clubSvc.Delete(r.Context(), r.PathValue("clubId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *RakebackServer) listEntities(tier domain.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entities, err := s.entitySvc.List(r.Context(), r.PathValue("clubId"), tier)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entities)
	}
}

func (s *RakebackServer) createEntity(tier domain.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg domain.EntityConfig
		if err := decode(w, r, &cfg); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := s.entitySvc.Create(r.Context(), r.PathValue("clubId"), tier, cfg)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func (s *RakebackServer) getEntity(tier domain.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.entitySvc.Get(r.Context(), r.PathValue("clubId"), tier, r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (s *RakebackServer) updateEntity(tier domain.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg domain.EntityConfig
		if err := decode(w, r, &cfg); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := s.entitySvc.Update(r.Context(), r.PathValue("clubId"), tier, r.PathValue("id"), cfg)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (s *RakebackServer) deleteEntity(tier domain.Tier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.entitySvc.Delete(r.Context(), r.PathValue("clubId"), tier, r.PathValue("id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *RakebackServer) listWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := s.weekSvc.List(r.Context(), r.PathValue("clubId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

func (s *RakebackServer) createWeek(w http.ResponseWriter, r *http.Request) {
	var req domain.Week
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	week, err := s.weekSvc.Create(r.Context(), r.PathValue("clubId"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, week)
}

func (s *RakebackServer) getWeek(w http.ResponseWriter, r *http.Request) {
	week, err := s.weekSvc.Get(r.Context(), r.PathValue("clubId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *RakebackServer) updateWeek(w http.ResponseWriter, r *http.Request) {
	var patch service.WeekPatch
	if err := decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	week, err := s.weekSvc.Update(r.Context(), r.PathValue("clubId"), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *RakebackServer) deleteWeek(w http.ResponseWriter, r *http.Request) {
	if err := s.weekSvc.Delete(r.Context(), r.PathValue("clubId"), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *RakebackServer) uploadRows(w http.ResponseWriter, r *http.Request) {
	var upload domain.WeekUpload
	if err := decode(w, r, &upload); err != nil {
		writeError(w, r, err)
		return
	}
	week, err := s.weekSvc.Upload(r.Context(), r.PathValue("clubId"), r.PathValue("id"), upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *RakebackServer) importRows(w http.ResponseWriter, r *http.Request) {
	week, err := s.weekSvc.Import(r.Context(), r.PathValue("clubId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *RakebackServer) processWeek(w http.ResponseWriter, r *http.Request) {
	data, err := s.weekSvc.Process(r.Context(), r.PathValue("clubId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, data)
}

func (s *RakebackServer) listWeekData(w http.ResponseWriter, r *http.Request) {
	data, err := s.weekSvc.ListData(r.Context(), r.PathValue("clubId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *RakebackServer) getWeekData(w http.ResponseWriter, r *http.Request) {
	data, err := s.weekSvc.GetData(r.Context(), r.PathValue("clubId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *RakebackServer) deleteWeekData(w http.ResponseWriter, r *http.Request) {
	if err := s.weekSvc.DeleteData(r.Context(), r.PathValue("clubId"), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewRequest struct {
	Rows        []domain.RakeRow      `json:"rows"`
	Players     []domain.EntityConfig `json:"players"`
	Agents      []domain.EntityConfig `json:"agents"`
	SuperAgents []domain.EntityConfig `json:"superAgents"`
}

func (s *RakebackServer) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.weekSvc.Preview(req.Rows, rakeback.Bundle{
		Players:     req.Players,
		Agents:      req.Agents,
		SuperAgents: req.SuperAgents,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
