package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/core"
)

// CreateGroup inserts the group and its creator's admin membership in one
// transaction.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.SavingsGroup, admin core.GroupMember) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO savings_groups (id, name, description, goal_amount, current_amount, target_date, created_by, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Description, encodeAmount(g.GoalAmount), encodeAmount(g.CurrentAmount),
			encodeDate(g.TargetDate), g.CreatedBy, boolToInt(g.IsActive), encodeTime(admin.JoinedAt))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		if err := insertMember(ctx, tx, admin); err != nil {
			return err
		}
		return nil
	})
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id string) (*core.SavingsGroup, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, goal_amount, current_amount, target_date, created_by, is_active
		FROM savings_groups WHERE id = ?`, id)

	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// ListGroupsForUser returns every group the user is a member of.
func (r *SQLiteRepository) ListGroupsForUser(ctx context.Context, userID string) ([]core.SavingsGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.goal_amount, g.current_amount, g.target_date, g.created_by, g.is_active
		FROM savings_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []core.SavingsGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, groupID, userID string) (*core.GroupMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, groupID string) ([]core.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = ?
		ORDER BY joined_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// CreateContribution inserts the contribution and bumps the group's pooled
// amount in one transaction.
func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.Contribution) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contributions (id, group_id, user_id, amount, description, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.GroupID, c.UserID, encodeAmount(c.Amount), c.Description, encodeDate(c.Date))
		if err != nil {
			return fmt.Errorf("create contribution: %w", err)
		}

		group, err := getGroupForUpdate(ctx, tx, c.GroupID)
		if err != nil {
			return err
		}

		newAmount := group.CurrentAmount.Add(c.Amount)
		if _, err := tx.ExecContext(ctx,
			`UPDATE savings_groups SET current_amount = ? WHERE id = ?`,
			encodeAmount(newAmount), c.GroupID); err != nil {
			return fmt.Errorf("update group amount: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, groupID string) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, amount, description, date
		FROM contributions WHERE group_id = ?
		ORDER BY date DESC, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.Contribution
	for rows.Next() {
		var (
			c            core.Contribution
			amount, date string
		)
		if err := rows.Scan(&c.ID, &c.GroupID, &c.UserID, &amount, &c.Description, &date); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.Amount, err = decodeAmount(amount); err != nil {
			return nil, err
		}
		if c.Date, err = decodeDate(date); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return contributions, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sql.Tx, m core.GroupMember) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO group_members (id, group_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, string(m.Role), encodeTime(m.JoinedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func getGroupForUpdate(ctx context.Context, tx *sql.Tx, id string) (*core.SavingsGroup, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, name, description, goal_amount, current_amount, target_date, created_by, is_active
		FROM savings_groups WHERE id = ?`, id)

	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func scanGroup(row rowScanner) (*core.SavingsGroup, error) {
	var (
		g                                 core.SavingsGroup
		goalAmount, currentAmount, target string
		active                            int
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &goalAmount, &currentAmount,
		&target, &g.CreatedBy, &active); err != nil {
		return nil, err
	}

	var err error
	if g.GoalAmount, err = decodeAmount(goalAmount); err != nil {
		return nil, err
	}
	if g.CurrentAmount, err = decodeAmount(currentAmount); err != nil {
		return nil, err
	}
	if g.TargetDate, err = decodeDate(target); err != nil {
		return nil, err
	}
	g.IsActive = active != 0
	return &g, nil
}

func scanMember(row rowScanner) (*core.GroupMember, error) {
	var (
		m              core.GroupMember
		role, joinedAt string
	)
	if err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &joinedAt); err != nil {
		return nil, err
	}

	var err error
	if m.JoinedAt, err = decodeTime(joinedAt); err != nil {
		return nil, err
	}
	m.Role = core.MemberRole(role)
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
