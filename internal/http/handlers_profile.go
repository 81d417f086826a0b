package http

import (
	"net/http"
	"time"

	"pennywise/internal/export"
	"pennywise/internal/services"
)

type profileRequest struct {
	FullName      string  `json:"full_name" validate:"max=200"`
	Email         string  `json:"email" validate:"omitempty,email"`
	MonthlySalary *string `json:"monthly_salary"`
	Currency      string  `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.Get(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := s.profiles.Update(r.Context(), identity(r).UserID, services.ProfileInput{
		FullName:      req.FullName,
		Email:         req.Email,
		MonthlySalary: req.MonthlySalary,
		Currency:      req.Currency,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Report(r.Context(), identity(r).UserID, r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.analytics.Insights(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// handlePersonalExport bundles the caller's profile, expenses, goals, and
// current report into a downloadable JSON or XLSX file.
func (s *Server) handlePersonalExport(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID

	profile, err := s.profiles.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expenses, err := s.expenses.List(r.Context(), userID, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	goals, err := s.goals.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	report, err := s.analytics.Report(r.Context(), userID, r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	data := export.PersonalData{
		GeneratedAt: time.Now().UTC(),
		Profile:     *profile,
		Expenses:    expenses,
		Goals:       goals,
		Report:      report,
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		out, err := export.PersonalJSON(data)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="pennywise-export.json"`)
		_, _ = w.Write(out)
	case "xlsx":
		f, err := export.PersonalWorkbook(data)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="pennywise-export.xlsx"`)
		_ = f.Write(w)
	default:
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown format: " + format})
	}
}
