package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/analytics"
	"pennywise/internal/core"
	"pennywise/internal/log"
)

type GoalRepository interface {
	CreateBudgetGoal(ctx context.Context, g core.BudgetGoal) error
	GetBudgetGoal(ctx context.Context, userID, id string) (*core.BudgetGoal, error)
	ListBudgetGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error)
	UpdateBudgetGoal(ctx context.Context, g core.BudgetGoal) error
	DeleteBudgetGoal(ctx context.Context, userID, id string) error
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
}

type GoalInput struct {
	Category string
	Amount   string
	Period   string
}

// GoalWithProgress pairs a goal with its live spending progress.
type GoalWithProgress struct {
	Goal     core.BudgetGoal        `json:"goal"`
	Progress analytics.GoalProgress `json:"progress"`
}

type GoalService struct {
	repo   GoalRepository
	logger *log.Logger
	now    func() time.Time
}

func NewGoalService(repo GoalRepository, logger *log.Logger) *GoalService {
	return &GoalService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentAnalytics),
		now:    time.Now,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*core.BudgetGoal, error) {
	goal, err := buildGoal(userID, in)
	if err != nil {
		return nil, err
	}
	goal.ID = uuid.NewString()

	if err := s.repo.CreateBudgetGoal(ctx, *goal); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Budget goal created",
		log.FieldUserID, userID,
		log.FieldGoalID, goal.ID,
		log.FieldCategory, string(goal.Category),
		log.FieldPeriod, string(goal.Period))
	return goal, nil
}

// List returns all goals with progress computed against current expenses.
func (s *GoalService) List(ctx context.Context, userID string) ([]GoalWithProgress, error) {
	goals, err := s.repo.ListBudgetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return []GoalWithProgress{}, nil
	}

	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := analytics.FromExpenses(expenses)
	now := s.now()
	out := make([]GoalWithProgress, len(goals))
	for i, g := range goals {
		out[i] = GoalWithProgress{
			Goal:     g,
			Progress: analytics.Progress(g, entries, now),
		}
	}
	return out, nil
}

func (s *GoalService) Update(ctx context.Context, userID, id string, in GoalInput) (*core.BudgetGoal, error) {
	if _, err := s.repo.GetBudgetGoal(ctx, userID, id); err != nil {
		return nil, err
	}

	goal, err := buildGoal(userID, in)
	if err != nil {
		return nil, err
	}
	goal.ID = id

	if err := s.repo.UpdateBudgetGoal(ctx, *goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteBudgetGoal(ctx, userID, id)
}

func buildGoal(userID string, in GoalInput) (*core.BudgetGoal, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	goal := &core.BudgetGoal{
		UserID:   userID,
		Category: core.Category(in.Category),
		Amount:   amount,
		Period:   core.Period(in.Period),
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	return goal, nil
}
