package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const profileColumns = `id, owner_account_id, role, name, email, track, term,
	subjects, skills, availability, created_at`

const (
	insertProfileSQL = `
		INSERT INTO profiles (
			id, owner_account_id, role, name, email, track, term,
			subjects, skills, availability, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	updateProfileSQL = `
		UPDATE profiles
		SET name = $2, email = $3, track = $4, term = $5,
			subjects = $6, skills = $7, availability = $8, updated_at = NOW()
		WHERE id = $1`

	deleteProfileSQL = `DELETE FROM profiles WHERE id = $1`

	selectProfileByIDSQL = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	selectProfilesByRoleSQL = `SELECT ` + profileColumns + `
		FROM profiles WHERE role = $1 ORDER BY created_at, id`

	selectProfileByOwnerSQL = `SELECT ` + profileColumns + `
		FROM profiles WHERE owner_account_id = $1 AND role = $2`
)

// ProfileRepository implements mentorship.ProfileStore for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// CreateProfile inserts a new profile.
func (r *ProfileRepository) CreateProfile(ctx context.Context, p *mentorship.Profile) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("profile", "Create", err)
	}

	_, err = q.Exec(ctx, insertProfileSQL,
		p.ID,
		p.OwnerAccountID,
		string(p.Role),
		p.Name,
		p.Email,
		p.Track,
		p.Term,
		p.Subjects.Encode(),
		p.Skills.Encode(),
		p.Availability,
		p.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("profile", "Create", shared.ErrValidation,
				"account already owns a profile with this role", err)
		}
		return wrapStorage("profile", "Create", err)
	}

	return nil
}

// UpdateProfile replaces the editable fields of an existing profile.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, p *mentorship.Profile) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("profile", "Update", err)
	}

	tag, err := q.Exec(ctx, updateProfileSQL,
		p.ID,
		p.Name,
		p.Email,
		p.Track,
		p.Term,
		p.Subjects.Encode(),
		p.Skills.Encode(),
		p.Availability,
	)
	if err != nil {
		return wrapStorage("profile", "Update", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}

// DeleteProfile removes a profile. Profiles referenced by pairings cannot be
// deleted; the owning account is never touched.
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("profile", "Delete", err)
	}

	tag, err := q.Exec(ctx, deleteProfileSQL, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrProfileInUse
		}
		return wrapStorage("profile", "Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}

// GetProfile returns the profile with the given ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*mentorship.Profile, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("profile", "Get", err)
	}

	p, err := scanProfile(q.QueryRow(ctx, selectProfileByIDSQL, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, wrapStorage("profile", "Get", err)
	}
	return p, nil
}

// FindProfilesByRole returns every profile of role in creation order.
func (r *ProfileRepository) FindProfilesByRole(ctx context.Context, role mentorship.Role) ([]mentorship.Profile, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("profile", "FindByRole", err)
	}

	rows, err := q.Query(ctx, selectProfilesByRoleSQL, string(role))
	if err != nil {
		return nil, wrapStorage("profile", "FindByRole", err)
	}
	defer rows.Close()

	profiles := make([]mentorship.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, wrapStorage("profile", "FindByRole", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("profile", "FindByRole", err)
	}

	return profiles, nil
}

// FindProfileByOwnerAccount returns the profile of role owned by accountID.
func (r *ProfileRepository) FindProfileByOwnerAccount(ctx context.Context, accountID string, role mentorship.Role) (*mentorship.Profile, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("profile", "FindByOwner", err)
	}

	p, err := scanProfile(q.QueryRow(ctx, selectProfileByOwnerSQL, accountID, string(role)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, wrapStorage("profile", "FindByOwner", err)
	}
	return p, nil
}

// scanProfile decodes one row; subjects and skills arrive as JSON arrays.
func scanProfile(row pgx.Row) (*mentorship.Profile, error) {
	var (
		p              mentorship.Profile
		role           string
		subjects       []byte
		skills         []byte
		ownerAccountID *string
	)

	err := row.Scan(
		&p.ID,
		&ownerAccountID,
		&role,
		&p.Name,
		&p.Email,
		&p.Track,
		&p.Term,
		&subjects,
		&skills,
		&p.Availability,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Role = mentorship.Role(role)
	p.OwnerAccountID = ownerAccountID

	if p.Subjects, err = mentorship.DecodeStringList(subjects); err != nil {
		return nil, err
	}
	if p.Skills, err = mentorship.DecodeStringList(skills); err != nil {
		return nil, err
	}

	return &p, nil
}
