package http

import (
	"net/http"

	"pennywise/internal/services"
)

type goalRequest struct {
	Category string `json:"category" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	Period   string `json:"period" validate:"required,oneof=daily weekly monthly"`
}

func (req goalRequest) input() services.GoalInput {
	return services.GoalInput{
		Category: req.Category,
		Amount:   req.Amount,
		Period:   req.Period,
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	goal, err := s.goals.Create(r.Context(), identity(r).UserID, req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

// handleListGoals returns each goal together with its current spending
// progress for the goal's period.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	goal, err := s.goals.Update(r.Context(), identity(r).UserID, r.PathValue("id"), req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
