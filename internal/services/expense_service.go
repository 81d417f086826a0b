// Package services wires the storage layer, the pure analytics core and the
// message broker into the operations the HTTP handlers expose.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/analytics"
	"pennywise/internal/core"
	"pennywise/internal/log"
)

var (
	ErrNotMember = errors.New("not a group member")
	ErrNotAdmin  = errors.New("admin role required")
)

// ExpenseRepository is the storage surface the expense service needs.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*core.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

// ReportInvalidator drops cached analytics reports when the underlying
// expenses change.
type ReportInvalidator interface {
	DeletePrefix(prefix string) int
}

// ExpenseInput carries the raw request fields; amounts and dates arrive as
// strings and are parsed here.
type ExpenseInput struct {
	Title       string
	Amount      string
	Category    string
	Description string
	Date        string
}

type ExpenseService struct {
	repo    ExpenseRepository
	reports ReportInvalidator
	logger  *log.Logger
	now     func() time.Time
}

func NewExpenseService(repo ExpenseRepository, reports ReportInvalidator, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:    repo,
		reports: reports,
		logger:  logger.WithComponent(log.ComponentExpense),
		now:     time.Now,
	}
}

func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (*core.Expense, error) {
	expense, err := s.buildExpense(userID, in)
	if err != nil {
		return nil, err
	}
	expense.ID = uuid.NewString()
	expense.CreatedAt = s.now()
	expense.UpdatedAt = expense.CreatedAt

	if err := s.repo.CreateExpense(ctx, *expense); err != nil {
		return nil, err
	}

	s.invalidateReports(userID)
	s.logger.InfoContext(ctx, "Expense created",
		log.FieldUserID, userID,
		log.FieldExpenseID, expense.ID,
		log.FieldAmount, expense.Amount.String(),
		log.FieldCategory, string(expense.Category))
	return expense, nil
}

// List returns the user's expenses, optionally narrowed to the window of a
// display period.
func (s *ExpenseService) List(ctx context.Context, userID string, period core.Period) ([]core.Expense, error) {
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return expenses, nil
	}
	if !period.Valid() {
		return nil, core.ErrInvalidPeriod
	}

	now := s.now()
	filtered := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if analytics.InPeriod(e.Date, now, period) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, in ExpenseInput) (*core.Expense, error) {
	existing, err := s.repo.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	expense, err := s.buildExpense(userID, in)
	if err != nil {
		return nil, err
	}
	expense.ID = existing.ID
	expense.CreatedAt = existing.CreatedAt
	expense.UpdatedAt = s.now()

	if err := s.repo.UpdateExpense(ctx, *expense); err != nil {
		return nil, err
	}

	s.invalidateReports(userID)
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.invalidateReports(userID)
	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldUserID, userID,
		log.FieldExpenseID, id)
	return nil
}

func (s *ExpenseService) buildExpense(userID string, in ExpenseInput) (*core.Expense, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	expense := &core.Expense{
		UserID:      userID,
		Title:       in.Title,
		Amount:      amount,
		Category:    core.Category(in.Category),
		Description: in.Description,
		Date:        date,
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) invalidateReports(userID string) {
	if s.reports != nil {
		s.reports.DeletePrefix(userID + ":")
	}
}
