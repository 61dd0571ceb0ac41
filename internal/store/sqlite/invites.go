package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

// inviteColumns is the ordered list of columns selected in invite queries.
// Must match the scan order in scanInvite.
const inviteColumns = `id, space_id, code, created_by, expires_at, max_uses, uses, created_at`

// scanInvite scans a sql.Row (or sql.Rows via its Scan method) into a domain.Invite.
func scanInvite(scanner interface{ Scan(dest ...any) error }) (*domain.Invite, error) {
	var inv domain.Invite

	var (
		expiresAt sql.NullString
		maxUses   sql.NullInt64
		createdAt string
	)

	err := scanner.Scan(
		&inv.ID,
		&inv.SpaceID,
		&inv.Code,
		&inv.CreatedBy,
		&expiresAt,
		&maxUses,
		&inv.Uses,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ExpiresAt, err = parseNullableTime(expiresAt)
	if err != nil {
		return nil, err
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		inv.MaxUses = &n
	}
	inv.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// CreateInvite inserts a new invite into the database.
// Returns store.ErrAlreadyExists if the invite ID or code already exists.
func (s *Store) CreateInvite(ctx context.Context, invite *domain.Invite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invites (id, space_id, code, created_by, expires_at, max_uses, uses, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.SpaceID,
		invite.Code,
		invite.CreatedBy,
		nullTimeString(invite.ExpiresAt),
		nullInt(invite.MaxUses),
		invite.Uses,
		formatTime(invite.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetInviteByCode retrieves an invite by its code.
// Returns store.ErrNotFound if no invite has the code.
func (s *Store) GetInviteByCode(ctx context.Context, code string) (*domain.Invite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE code = ?`, code)

	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvites returns all invites for a space, newest first.
func (s *Store) ListInvites(ctx context.Context, spaceID string) ([]*domain.Invite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE space_id = ? ORDER BY created_at DESC`,
		spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

// RedeemInvite atomically consumes one use of an invite and inserts the
// membership, in a single transaction. The conditional UPDATE is the
// serialization point: two concurrent redemptions of an invite with one
// use left cannot both pass it.
//
// Returns the invite's space ID on success. Error cases:
//   - store.ErrNotFound: unknown code
//   - store.ErrInviteExpired / store.ErrInviteExhausted: terminal invite
//   - store.ErrAlreadyExists: user is already a member (use not consumed)
func (s *Store) RedeemInvite(ctx context.Context, code string, membership *domain.Membership) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := formatTime(time.Now())

	result, err := tx.ExecContext(ctx, `
		UPDATE invites SET uses = uses + 1
		WHERE code = ?
		  AND (expires_at IS NULL OR expires_at > ?)
		  AND (max_uses IS NULL OR uses < max_uses)`,
		code, now)
	if err != nil {
		return "", fmt.Errorf("consume invite use: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		// The invite was not redeemable; find out why.
		row := tx.QueryRowContext(ctx,
			`SELECT `+inviteColumns+` FROM invites WHERE code = ?`, code)
		inv, err := scanInvite(row)
		if err == sql.ErrNoRows {
			return "", store.ErrNotFound
		}
		if err != nil {
			return "", err
		}
		if inv.IsExpired() {
			return "", store.ErrInviteExpired
		}
		return "", store.ErrInviteExhausted
	}

	// Fetch the invite inside the transaction for its space ID.
	row := tx.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE code = ?`, code)
	inv, err := scanInvite(row)
	if err != nil {
		return "", fmt.Errorf("load invite: %w", err)
	}

	membership.SpaceID = inv.SpaceID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (id, space_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		membership.ID,
		membership.SpaceID,
		membership.UserID,
		string(membership.Role),
		formatTime(membership.CreatedAt),
	)
	if err != nil {
		// Rolling back returns the consumed use.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", store.ErrAlreadyExists
		}
		return "", fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return inv.SpaceID, nil
}
