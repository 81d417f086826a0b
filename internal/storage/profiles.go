package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (*core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, email, monthly_salary, currency
		FROM profiles WHERE user_id = ?`, userID)

	var (
		p      core.Profile
		salary sql.NullString
	)
	err := row.Scan(&p.UserID, &p.FullName, &p.Email, &salary, &p.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if salary.Valid {
		if p.MonthlySalary, err = decodeAmount(salary.String); err != nil {
			return nil, err
		}
		p.HasSalary = true
	}
	return &p, nil
}

// UpsertProfile inserts or replaces the user's profile row. A profile with
// HasSalary false stores NULL so budget-usage insights stay disabled.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) error {
	var salary any
	if p.HasSalary {
		salary = encodeAmount(p.MonthlySalary)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, email, monthly_salary, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			monthly_salary = excluded.monthly_salary,
			currency = excluded.currency,
			updated_at = excluded.updated_at`,
		p.UserID, p.FullName, p.Email, salary, p.Currency, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
