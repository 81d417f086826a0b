package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, amount, category, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, encodeAmount(e.Amount), string(e.Category),
		e.Description, encodeDate(e.Date), encodeTime(e.CreatedAt), encodeTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, amount, category, description, date, created_at, updated_at
		FROM expenses WHERE id = ? AND user_id = ?`, id, userID)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns all expenses for a user, newest date first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return r.listExpenses(ctx, `
		SELECT id, user_id, title, amount, category, description, date, created_at, updated_at
		FROM expenses WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
}

// ListExpensesSince returns the user's expenses on or after the given date,
// oldest first. Analytics builds its time series from this ordering.
func (r *SQLiteRepository) ListExpensesSince(ctx context.Context, userID string, since time.Time) ([]core.Expense, error) {
	return r.listExpenses(ctx, `
		SELECT id, user_id, title, amount, category, description, date, created_at, updated_at
		FROM expenses WHERE user_id = ? AND date >= ?
		ORDER BY date ASC, created_at ASC`, userID, encodeDate(since))
}

func (r *SQLiteRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET title = ?, amount = ?, category = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Title, encodeAmount(e.Amount), string(e.Category), e.Description,
		encodeDate(e.Date), encodeTime(e.UpdatedAt), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var (
		e                          core.Expense
		amount, category           string
		date, createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &amount, &category,
		&e.Description, &date, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.Amount, err = decodeAmount(amount); err != nil {
		return nil, err
	}
	e.Category = core.Category(category)
	if e.Date, err = decodeDate(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
