package http

import (
	"net/http"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

type expenseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Amount      string `json:"amount" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
	Date        string `json:"date" validate:"required"`
}

func (req expenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	expense, err := s.expenses.Create(r.Context(), identity(r).UserID, req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period := core.Period(r.URL.Query().Get("period"))
	expenses, err := s.expenses.List(r.Context(), identity(r).UserID, period)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.Get(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	expense, err := s.expenses.Update(r.Context(), identity(r).UserID, r.PathValue("id"), req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), identity(r).UserID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
