package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/core"
)

func (r *SQLiteRepository) CreateInvitation(ctx context.Context, inv core.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, group_id, invited_by, invited_email, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.GroupID, inv.InvitedBy, inv.InvitedEmail, string(inv.Status), encodeTime(inv.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyInvited
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetInvitation(ctx context.Context, id string) (*core.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, invited_by, invited_email, status, created_at
		FROM invitations WHERE id = ?`, id)

	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// ListPendingInvitations returns the open invitations addressed to an e-mail.
func (r *SQLiteRepository) ListPendingInvitations(ctx context.Context, email string) ([]core.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, invited_by, invited_email, status, created_at
		FROM invitations WHERE invited_email = ? AND status = ?
		ORDER BY created_at DESC`, email, string(core.InvitationPending))
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []core.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// AcceptInvitation marks the invitation accepted and adds the membership in
// one transaction. Only pending invitations match the update.
func (r *SQLiteRepository) AcceptInvitation(ctx context.Context, invitationID string, member core.GroupMember) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := decideInvitation(ctx, tx, invitationID, core.InvitationAccepted); err != nil {
			return err
		}
		return insertMember(ctx, tx, member)
	})
}

// DeclineInvitation marks a pending invitation declined.
func (r *SQLiteRepository) DeclineInvitation(ctx context.Context, invitationID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return decideInvitation(ctx, tx, invitationID, core.InvitationDeclined)
	})
}

func decideInvitation(ctx context.Context, tx *sql.Tx, id string, status core.InvitationStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE invitations SET status = ?
		WHERE id = ? AND status = ?`,
		string(status), id, string(core.InvitationPending))
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvitation(row rowScanner) (*core.Invitation, error) {
	var (
		inv               core.Invitation
		status, createdAt string
	)
	if err := row.Scan(&inv.ID, &inv.GroupID, &inv.InvitedBy, &inv.InvitedEmail, &status, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if inv.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	inv.Status = core.InvitationStatus(status)
	return &inv, nil
}
