package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Dates and times are rendered as fixed-width text so they round-trip
// through mentorship.Session unchanged.
const sessionColumns = `id, pairing_id,
	to_char(scheduled_date, 'YYYY-MM-DD'), to_char(scheduled_time, 'HH24:MI'),
	topic, modality, status, notes, completed_at, created_at`

const (
	insertSessionSQL = `
		INSERT INTO sessions (
			id, pairing_id, scheduled_date, scheduled_time, topic, modality,
			status, notes, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9, $10, $10)`

	transitionSessionSQL = `
		UPDATE sessions
		SET status = $2, notes = $3, completed_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`

	selectSessionByIDSQL = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	selectSessionsByPairingSQL = `SELECT ` + sessionColumns + `
		FROM sessions WHERE pairing_id = $1
		ORDER BY scheduled_date DESC, scheduled_time DESC, created_at DESC`
)

// SessionRepository implements mentorship.SessionStore for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// CreateSession inserts a new session.
func (r *SessionRepository) CreateSession(ctx context.Context, s *mentorship.Session) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("session", "Create", err)
	}

	_, err = q.Exec(ctx, insertSessionSQL,
		s.ID,
		s.PairingID,
		s.Date,
		s.Time,
		s.Topic,
		string(s.Modality),
		string(s.Status),
		s.Notes,
		s.CompletedAt,
		s.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrPairingNotFound
		}
		return wrapStorage("session", "Create", err)
	}
	return nil
}

// GetSession returns the session with the given ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*mentorship.Session, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("session", "Get", err)
	}

	s, err := scanSession(q.QueryRow(ctx, selectSessionByIDSQL, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, wrapStorage("session", "Get", err)
	}
	return s, nil
}

// ListSessionsByPairing returns the pairing's sessions, latest first.
func (r *SessionRepository) ListSessionsByPairing(ctx context.Context, pairingID string) ([]mentorship.Session, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("session", "ListByPairing", err)
	}

	rows, err := q.Query(ctx, selectSessionsByPairingSQL, pairingID)
	if err != nil {
		return nil, wrapStorage("session", "ListByPairing", err)
	}
	defer rows.Close()

	sessions := make([]mentorship.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, wrapStorage("session", "ListByPairing", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("session", "ListByPairing", err)
	}

	return sessions, nil
}

// TransitionSession writes the new state only if the stored status is still from.
func (r *SessionRepository) TransitionSession(ctx context.Context, s *mentorship.Session, from mentorship.SessionStatus) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("session", "Transition", err)
	}

	tag, err := q.Exec(ctx, transitionSessionSQL,
		s.ID, string(s.Status), s.Notes, s.CompletedAt, string(from))
	if err != nil {
		return wrapStorage("session", "Transition", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.WrapError("session", "Transition", shared.ErrConcurrentModification,
			"session status changed concurrently", nil)
	}
	return nil
}

func scanSession(row pgx.Row) (*mentorship.Session, error) {
	var (
		s                mentorship.Session
		modality, status string
	)
	err := row.Scan(
		&s.ID,
		&s.PairingID,
		&s.Date,
		&s.Time,
		&s.Topic,
		&modality,
		&status,
		&s.Notes,
		&s.CompletedAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Modality = mentorship.Modality(modality)
	s.Status = mentorship.SessionStatus(status)
	return &s, nil
}
