package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"pennywise/internal/analytics"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/services"
)

// Service surfaces the handlers depend on. The concrete implementations
// live in the services package; tests swap in fakes.
type (
	ExpenseAPI interface {
		Create(ctx context.Context, userID string, in services.ExpenseInput) (*core.Expense, error)
		List(ctx context.Context, userID string, period core.Period) ([]core.Expense, error)
		Get(ctx context.Context, userID, id string) (*core.Expense, error)
		Update(ctx context.Context, userID, id string, in services.ExpenseInput) (*core.Expense, error)
		Delete(ctx context.Context, userID, id string) error
	}

	GoalAPI interface {
		Create(ctx context.Context, userID string, in services.GoalInput) (*core.BudgetGoal, error)
		List(ctx context.Context, userID string) ([]services.GoalWithProgress, error)
		Update(ctx context.Context, userID, id string, in services.GoalInput) (*core.BudgetGoal, error)
		Delete(ctx context.Context, userID, id string) error
	}

	ProfileAPI interface {
		Get(ctx context.Context, userID string) (*core.Profile, error)
		Update(ctx context.Context, userID string, in services.ProfileInput) (*core.Profile, error)
	}

	AnalyticsAPI interface {
		Report(ctx context.Context, userID, rng string) (*services.AnalyticsReport, error)
		Insights(ctx context.Context, userID string) ([]analytics.Insight, error)
	}

	GroupAPI interface {
		Create(ctx context.Context, userID string, in services.GroupInput) (*core.SavingsGroup, error)
		List(ctx context.Context, userID string) ([]core.SavingsGroup, error)
		Get(ctx context.Context, userID, groupID string) (*services.GroupDetail, error)
		Contribute(ctx context.Context, userID, groupID string, in services.ContributionInput) (*core.Contribution, error)
		Contributions(ctx context.Context, userID, groupID string) ([]core.Contribution, error)
		Invite(ctx context.Context, userID, groupID, email string) (*core.Invitation, error)
		PendingInvitations(ctx context.Context, email string) ([]core.Invitation, error)
		Accept(ctx context.Context, userID, email, invitationID string) (*core.GroupMember, error)
		Decline(ctx context.Context, email, invitationID string) error
		SubmitExpense(ctx context.Context, userID, groupID string, in services.GroupExpenseInput) (*core.GroupExpense, error)
		Expenses(ctx context.Context, userID, groupID string, status core.ExpenseStatus) ([]core.GroupExpense, error)
		ReviewExpense(ctx context.Context, reviewerID, groupID, expenseID string, in services.ReviewInput) (*core.GroupExpense, error)
		Messages(ctx context.Context, userID, groupID string, limit int) ([]core.GroupMessage, error)
		PostMessage(ctx context.Context, userID, groupID, text string) (*core.GroupMessage, error)
		Ledger(ctx context.Context, userID, groupID string) (*services.GroupLedger, error)
	}
)

type Server struct {
	http.Server

	expenses  ExpenseAPI
	goals     GoalAPI
	profiles  ProfileAPI
	analytics AnalyticsAPI
	groups    GroupAPI

	logger      *log.Logger
	validate    *validator.Validate
	jwtSecret   []byte
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

type Deps struct {
	Expenses  ExpenseAPI
	Goals     GoalAPI
	Profiles  ProfileAPI
	Analytics AnalyticsAPI
	Groups    GroupAPI
	Logger    *log.Logger
	JWTSecret string
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		expenses:    deps.Expenses,
		goals:       deps.Goals,
		profiles:    deps.Profiles,
		analytics:   deps.Analytics,
		groups:      deps.Groups,
		logger:      deps.Logger.WithComponent(log.ComponentHTTP),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		jwtSecret:   []byte(deps.JWTSecret),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/v1/profile", s.protected(s.handleGetProfile))
	mux.HandleFunc("PUT /api/v1/profile", s.protected(s.handleUpdateProfile))

	mux.HandleFunc("POST /api/v1/expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /api/v1/expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("GET /api/v1/expenses/{id}", s.protected(s.handleGetExpense))
	mux.HandleFunc("PUT /api/v1/expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", s.protected(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/v1/goals", s.protected(s.handleCreateGoal))
	mux.HandleFunc("GET /api/v1/goals", s.protected(s.handleListGoals))
	mux.HandleFunc("PUT /api/v1/goals/{id}", s.protected(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/v1/goals/{id}", s.protected(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/v1/analytics", s.protected(s.handleAnalytics))
	mux.HandleFunc("GET /api/v1/insights", s.protected(s.handleInsights))
	mux.HandleFunc("GET /api/v1/export", s.protected(s.handlePersonalExport))

	mux.HandleFunc("POST /api/v1/groups", s.protected(s.handleCreateGroup))
	mux.HandleFunc("GET /api/v1/groups", s.protected(s.handleListGroups))
	mux.HandleFunc("GET /api/v1/groups/{id}", s.protected(s.handleGetGroup))
	mux.HandleFunc("POST /api/v1/groups/{id}/contributions", s.protected(s.handleContribute))
	mux.HandleFunc("GET /api/v1/groups/{id}/contributions", s.protected(s.handleListContributions))
	mux.HandleFunc("POST /api/v1/groups/{id}/invitations", s.protected(s.handleInvite))
	mux.HandleFunc("POST /api/v1/groups/{id}/expenses", s.protected(s.handleSubmitGroupExpense))
	mux.HandleFunc("GET /api/v1/groups/{id}/expenses", s.protected(s.handleListGroupExpenses))
	mux.HandleFunc("POST /api/v1/groups/{id}/expenses/{expenseID}/review", s.protected(s.handleReviewGroupExpense))
	mux.HandleFunc("GET /api/v1/groups/{id}/messages", s.protected(s.handleListMessages))
	mux.HandleFunc("POST /api/v1/groups/{id}/messages", s.protected(s.handlePostMessage))
	mux.HandleFunc("GET /api/v1/groups/{id}/export", s.protected(s.handleGroupExport))

	mux.HandleFunc("GET /api/v1/invitations", s.protected(s.handleListInvitations))
	mux.HandleFunc("POST /api/v1/invitations/{id}/accept", s.protected(s.handleAcceptInvitation))
	mux.HandleFunc("POST /api/v1/invitations/{id}/decline", s.protected(s.handleDeclineInvitation))

	return s
}

// Shutdown stops the server and its background routines exactly once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
