package http

import (
	"net/http"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/services"
)

type groupRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	GoalAmount  string `json:"goal_amount" validate:"required"`
	TargetDate  string `json:"target_date"`
}

type contributionRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
	Date        string `json:"date"`
}

type invitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string `json:"comment" validate:"max=1000"`
}

type messageRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	group, err := s.groups.Create(r.Context(), identity(r).UserID, services.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.List(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	detail, err := s.groups.Get(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	contribution, err := s.groups.Contribute(r.Context(), identity(r).UserID, r.PathValue("id"), services.ContributionInput{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, contribution)
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := s.groups.Contributions(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, contributions)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	invitation, err := s.groups.Invite(r.Context(), identity(r).UserID, r.PathValue("id"), req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invitation)
}

// handleListInvitations returns invitations pending for the caller's email.
func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := s.groups.PendingInvitations(r.Context(), identity(r).Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invitations)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	member, err := s.groups.Accept(r.Context(), id.UserID, id.Email, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.Decline(r.Context(), identity(r).Email, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSubmitGroupExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	expense, err := s.groups.SubmitExpense(r.Context(), identity(r).UserID, r.PathValue("id"), services.GroupExpenseInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	status := core.ExpenseStatus(r.URL.Query().Get("status"))
	expenses, err := s.groups.Expenses(r.Context(), identity(r).UserID, r.PathValue("id"), status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleReviewGroupExpense(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	expense, err := s.groups.ReviewExpense(r.Context(), identity(r).UserID, r.PathValue("id"), r.PathValue("expenseID"), services.ReviewInput{
		Decision: req.Decision,
		Comment:  req.Comment,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	messages, err := s.groups.Messages(r.Context(), identity(r).UserID, r.PathValue("id"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, s.validate, &req); err != nil {
		respondError(w, r, err)
		return
	}

	message, err := s.groups.PostMessage(r.Context(), identity(r).UserID, r.PathValue("id"), req.Message)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// handleGroupExport renders the full group ledger as JSON or XLSX.
func (s *Server) handleGroupExport(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.groups.Ledger(r.Context(), identity(r).UserID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		out, err := export.GroupJSON(ledger, time.Now().UTC())
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="group-ledger.json"`)
		_, _ = w.Write(out)
	case "xlsx":
		f, err := export.GroupWorkbook(ledger)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="group-ledger.xlsx"`)
		_ = f.Write(w)
	default:
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown format: " + format})
	}
}
