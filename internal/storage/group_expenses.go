package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreateGroupExpense(ctx context.Context, e core.GroupExpense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_expenses (id, group_id, user_id, title, amount, category, description, date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.UserID, e.Title, encodeAmount(e.Amount),
		string(e.Category), e.Description, encodeDate(e.Date), string(e.Status))
	if err != nil {
		return fmt.Errorf("create group expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGroupExpense(ctx context.Context, groupID, id string) (*core.GroupExpense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, title, amount, category, description, date, status, approved_by, approved_at
		FROM group_expenses WHERE id = ? AND group_id = ?`, id, groupID)

	e, err := scanGroupExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListGroupExpenses(ctx context.Context, groupID string) ([]core.GroupExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, title, amount, category, description, date, status, approved_by, approved_at
		FROM group_expenses WHERE group_id = ?
		ORDER BY date DESC, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.GroupExpense
	for rows.Next() {
		e, err := scanGroupExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list group expenses: %w", err)
	}
	return expenses, nil
}

// ReviewGroupExpense records an admin decision. The status update only
// matches pending rows, so a second review of the same expense rolls back
// with ErrAlreadyDecided. The approval audit row and the system chat
// message land in the same transaction.
func (r *SQLiteRepository) ReviewGroupExpense(ctx context.Context, e core.GroupExpense, a core.Approval, msg core.GroupMessage) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE group_expenses SET status = ?, approved_by = ?, approved_at = ?
			WHERE id = ? AND group_id = ? AND status = ?`,
			string(e.Status), e.ApprovedBy, encodeTime(e.ApprovedAt),
			e.ID, e.GroupID, string(core.StatusPending))
		if err != nil {
			return fmt.Errorf("update group expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrAlreadyDecided
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO approvals (id, expense_id, approver_id, status, comment, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.ExpenseID, a.ApproverID, string(a.Status), a.Comment, encodeTime(a.CreatedAt)); err != nil {
			return fmt.Errorf("insert approval: %w", err)
		}

		return insertMessage(ctx, tx, msg)
	})
}

func (r *SQLiteRepository) ListApprovals(ctx context.Context, expenseID string) ([]core.Approval, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_id, approver_id, status, comment, created_at
		FROM approvals WHERE expense_id = ?
		ORDER BY created_at ASC`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []core.Approval
	for rows.Next() {
		var (
			a                 core.Approval
			status, createdAt string
		)
		if err := rows.Scan(&a.ID, &a.ExpenseID, &a.ApproverID, &status, &a.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		a.Status = core.ExpenseStatus(status)
		if a.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvals, nil
}

func (r *SQLiteRepository) CreateMessage(ctx context.Context, msg core.GroupMessage) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return insertMessage(ctx, tx, msg)
	})
}

// ListMessages returns the newest messages first, capped at limit.
func (r *SQLiteRepository) ListMessages(ctx context.Context, groupID string, limit int) ([]core.GroupMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, message, type, created_at
		FROM group_messages WHERE group_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []core.GroupMessage
	for rows.Next() {
		var (
			m                  core.GroupMessage
			msgType, createdAt string
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Message, &msgType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = core.MessageType(msgType)
		if m.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, msg core.GroupMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO group_messages (id, group_id, user_id, message, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.GroupID, msg.UserID, msg.Message, string(msg.Type), encodeTime(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func scanGroupExpense(row rowScanner) (*core.GroupExpense, error) {
	var (
		e                              core.GroupExpense
		amount, category, date, status string
		approvedBy, approvedAt         sql.NullString
	)
	if err := row.Scan(&e.ID, &e.GroupID, &e.UserID, &e.Title, &amount, &category,
		&e.Description, &date, &status, &approvedBy, &approvedAt); err != nil {
		return nil, err
	}

	var err error
	if e.Amount, err = decodeAmount(amount); err != nil {
		return nil, err
	}
	if e.Date, err = decodeDate(date); err != nil {
		return nil, err
	}
	e.Category = core.Category(category)
	e.Status = core.ExpenseStatus(status)
	if approvedBy.Valid {
		e.ApprovedBy = approvedBy.String
	}
	if approvedAt.Valid {
		if e.ApprovedAt, err = decodeTime(approvedAt.String); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
