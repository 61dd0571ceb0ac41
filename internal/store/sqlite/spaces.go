package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

// spaceColumns is the ordered list of columns selected in space queries.
// Must match the scan order in scanSpace.
const spaceColumns = `id, name, icon_path, owner_id, created_at, updated_at`

// scanSpace scans a sql.Row (or sql.Rows via its Scan method) into a domain.Space.
func scanSpace(scanner interface{ Scan(dest ...any) error }) (*domain.Space, error) {
	var sp domain.Space

	var createdAt, updatedAt string

	err := scanner.Scan(
		&sp.ID,
		&sp.Name,
		&sp.IconPath,
		&sp.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sp.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sp.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &sp, nil
}

// membershipColumns is the ordered list of columns selected in membership queries.
// Must match the scan order in scanMembership.
const membershipColumns = `id, space_id, user_id, role, created_at`

// scanMembership scans a row into a domain.Membership. Role strings are
// folded to canonical lowercase on the way out.
func scanMembership(scanner interface{ Scan(dest ...any) error }) (*domain.Membership, error) {
	var m domain.Membership

	var role, createdAt string

	err := scanner.Scan(
		&m.ID,
		&m.SpaceID,
		&m.UserID,
		&role,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	normalized, ok := domain.NormalizeRole(role)
	if !ok {
		return nil, fmt.Errorf("membership %s has unknown role %q", m.ID, role)
	}
	m.Role = normalized

	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateSpace inserts a space, its owner membership, and its default cloud
// channel in a single transaction. Concurrent readers never observe a
// partially created space.
func (s *Store) CreateSpace(ctx context.Context, space *domain.Space, ownerMembership *domain.Membership, cloudChannel *domain.Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO spaces (id, name, icon_path, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		space.ID,
		space.Name,
		space.IconPath,
		space.OwnerID,
		formatTime(space.CreatedAt),
		formatTime(space.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert space: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (id, space_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ownerMembership.ID,
		ownerMembership.SpaceID,
		ownerMembership.UserID,
		string(ownerMembership.Role),
		formatTime(ownerMembership.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO channels (id, space_id, name, type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		cloudChannel.ID,
		cloudChannel.SpaceID,
		cloudChannel.Name,
		string(cloudChannel.Type),
		formatTime(cloudChannel.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert cloud channel: %w", err)
	}

	return tx.Commit()
}

// GetSpace retrieves a space by ID.
// Returns store.ErrNotFound if the space does not exist.
func (s *Store) GetSpace(ctx context.Context, id string) (*domain.Space, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id)

	sp, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// ListSpacesForUser returns all spaces the user is a member of, ordered by
// creation time.
func (s *Store) ListSpacesForUser(ctx context.Context, userID string) ([]*domain.Space, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.icon_path, s.owner_id, s.created_at, s.updated_at
		FROM spaces s
		JOIN memberships m ON m.space_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*domain.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return spaces, nil
}

// UpdateSpace updates a space's name and icon.
// Returns store.ErrNotFound if the space does not exist.
func (s *Store) UpdateSpace(ctx context.Context, space *domain.Space) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE spaces SET name = ?, icon_path = ?, updated_at = ?
		WHERE id = ?`,
		space.Name,
		space.IconPath,
		formatTime(space.UpdatedAt),
		space.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteSpace removes a space. Memberships, invites, channels, messages,
// and vault links cascade via foreign keys.
func (s *Store) DeleteSpace(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateMembership inserts a membership row.
// Returns store.ErrAlreadyExists if the (space, user) pair already exists.
func (s *Store) CreateMembership(ctx context.Context, m *domain.Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (id, space_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID,
		m.SpaceID,
		m.UserID,
		string(m.Role),
		formatTime(m.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetMembership retrieves a membership by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetMembership(ctx context.Context, id string) (*domain.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, id)

	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMembershipByUser retrieves the membership for a (space, user) pair.
// Returns store.ErrNotFound if the user is not a member.
func (s *Store) GetMembershipByUser(ctx context.Context, spaceID, userID string) (*domain.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE space_id = ? AND user_id = ?`,
		spaceID, userID)

	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMemberships returns all memberships of a space ordered by join time.
func (s *Store) ListMemberships(ctx context.Context, spaceID string) ([]*domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE space_id = ? ORDER BY created_at ASC`,
		spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteMembership removes a membership row. The owner membership is
// protected; attempting to delete it returns store.ErrForbidden.
func (s *Store) DeleteMembership(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE id = ? AND role <> 'owner'`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing row from the protected owner row.
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM memberships WHERE id = ?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrForbidden
	}
	return nil
}

// MemberCounts returns the member count for each requested space.
// Every requested ID is present in the result; spaces with no membership
// rows (or unknown IDs) report 0.
func (s *Store) MemberCounts(ctx context.Context, spaceIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(spaceIDs))
	if len(spaceIDs) == 0 {
		return counts, nil
	}
	for _, id := range spaceIDs {
		counts[id] = 0
	}

	placeholders := strings.Repeat("?,", len(spaceIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(spaceIDs))
	for i, id := range spaceIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT space_id, COUNT(*) FROM memberships
		WHERE space_id IN (`+placeholders+`)
		GROUP BY space_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// CountOwnerMemberships returns the number of owner-role memberships in a
// space. Used as an integrity check; the expected answer is always 1.
func (s *Store) CountOwnerMemberships(ctx context.Context, spaceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE space_id = ? AND role = 'owner'`,
		spaceID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
