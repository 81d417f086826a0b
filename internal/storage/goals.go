package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreateBudgetGoal(ctx context.Context, g core.BudgetGoal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_goals (id, user_id, category, amount, period)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.UserID, string(g.Category), encodeAmount(g.Amount), string(g.Period))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("goal for %s/%s already exists", g.Category, g.Period)
		}
		return fmt.Errorf("create budget goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudgetGoal(ctx context.Context, userID, id string) (*core.BudgetGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, amount, period
		FROM budget_goals WHERE id = ? AND user_id = ?`, id, userID)

	g, err := scanBudgetGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListBudgetGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category, amount, period
		FROM budget_goals WHERE user_id = ?
		ORDER BY category, period`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget goals: %w", err)
	}
	defer rows.Close()

	var goals []core.BudgetGoal
	for rows.Next() {
		g, err := scanBudgetGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budget goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) UpdateBudgetGoal(ctx context.Context, g core.BudgetGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budget_goals SET category = ?, amount = ?, period = ?
		WHERE id = ? AND user_id = ?`,
		string(g.Category), encodeAmount(g.Amount), string(g.Period), g.ID, g.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("goal for %s/%s already exists", g.Category, g.Period)
		}
		return fmt.Errorf("update budget goal: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteBudgetGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budget_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget goal: %w", err)
	}
	return requireAffected(res)
}

func scanBudgetGoal(row rowScanner) (*core.BudgetGoal, error) {
	var (
		g                        core.BudgetGoal
		category, amount, period string
	)
	if err := row.Scan(&g.ID, &g.UserID, &category, &amount, &period); err != nil {
		return nil, err
	}

	var err error
	if g.Amount, err = decodeAmount(amount); err != nil {
		return nil, err
	}
	g.Category = core.Category(category)
	g.Period = core.Period(period)
	return &g, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
