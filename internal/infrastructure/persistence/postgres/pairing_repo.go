package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const pairingColumns = `id, mentor_id, learner_id, status, created_at, ended_at`

const (
	lockActivePairingSQL = `
		SELECT id FROM pairings
		WHERE learner_id = $1 AND status = 'active'
		FOR UPDATE`

	insertPairingSQL = `
		INSERT INTO pairings (id, mentor_id, learner_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	endPairingSQL = `
		UPDATE pairings SET status = 'ended', ended_at = $2
		WHERE id = $1 AND status = 'active'`

	selectPairingByIDSQL = `SELECT ` + pairingColumns + ` FROM pairings WHERE id = $1`

	selectActivePairingForLearnerSQL = `SELECT ` + pairingColumns + `
		FROM pairings WHERE learner_id = $1 AND status = 'active'`

	selectActivePairingsForMentorSQL = `SELECT ` + pairingColumns + `
		FROM pairings WHERE mentor_id = $1 AND status = 'active'
		ORDER BY created_at, id`

	selectActivePairingsSQL = `SELECT ` + pairingColumns + `
		FROM pairings WHERE status = 'active'
		ORDER BY created_at, id`
)

// PairingRepository implements mentorship.PairingStore for PostgreSQL.
type PairingRepository struct {
	conn *Connection
}

// NewPairingRepository creates a new PairingRepository.
func NewPairingRepository(conn *Connection) *PairingRepository {
	return &PairingRepository{conn: conn}
}

// CreateActivePairing checks for an existing active pairing and inserts p in
// one transaction. The partial unique index on (learner_id) WHERE active
// catches the race where two transactions both see no active row.
func (r *PairingRepository) CreateActivePairing(ctx context.Context, p *mentorship.Pairing) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var existing string
		err := tx.QueryRow(ctx, lockActivePairingSQL, p.LearnerID).Scan(&existing)
		switch {
		case err == nil:
			return shared.ErrLearnerAlreadyPaired
		case !IsNoRows(err):
			return err
		}

		_, err = tx.Exec(ctx, insertPairingSQL,
			p.ID, p.MentorID, p.LearnerID, string(p.Status), p.CreatedAt)
		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrAlreadyPaired), IsUniqueViolation(err):
		return shared.ErrLearnerAlreadyPaired
	case IsForeignKeyViolation(err):
		return shared.ErrProfileNotFound
	default:
		return wrapStorage("pairing", "Create", err)
	}
}

// GetPairing returns the pairing with the given ID.
func (r *PairingRepository) GetPairing(ctx context.Context, id string) (*mentorship.Pairing, error) {
	return r.getOne(ctx, "Get", selectPairingByIDSQL, id)
}

// GetActivePairingForLearner returns the learner's active pairing.
func (r *PairingRepository) GetActivePairingForLearner(ctx context.Context, learnerID string) (*mentorship.Pairing, error) {
	return r.getOne(ctx, "GetActiveForLearner", selectActivePairingForLearnerSQL, learnerID)
}

// ListActivePairingsForMentor returns the mentor's active pairings.
func (r *PairingRepository) ListActivePairingsForMentor(ctx context.Context, mentorID string) ([]mentorship.Pairing, error) {
	return r.list(ctx, "ListActiveForMentor", selectActivePairingsForMentorSQL, mentorID)
}

// ListActivePairings returns every active pairing.
func (r *PairingRepository) ListActivePairings(ctx context.Context) ([]mentorship.Pairing, error) {
	return r.list(ctx, "ListActive", selectActivePairingsSQL)
}

// EndPairing moves an active pairing to ended.
func (r *PairingRepository) EndPairing(ctx context.Context, id string, endedAt time.Time) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return wrapStorage("pairing", "End", err)
	}

	tag, err := q.Exec(ctx, endPairingSQL, id, endedAt)
	if err != nil {
		return wrapStorage("pairing", "End", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.WrapError("pairing", "End", shared.ErrConcurrentModification,
			"pairing is not active", nil)
	}
	return nil
}

func (r *PairingRepository) getOne(ctx context.Context, op, sql string, args ...interface{}) (*mentorship.Pairing, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("pairing", op, err)
	}

	p, err := scanPairing(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPairingNotFound
		}
		return nil, wrapStorage("pairing", op, err)
	}
	return p, nil
}

func (r *PairingRepository) list(ctx context.Context, op, sql string, args ...interface{}) ([]mentorship.Pairing, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	q, err := r.conn.querier()
	if err != nil {
		return nil, wrapStorage("pairing", op, err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapStorage("pairing", op, err)
	}
	defer rows.Close()

	pairings := make([]mentorship.Pairing, 0)
	for rows.Next() {
		p, err := scanPairing(rows)
		if err != nil {
			return nil, wrapStorage("pairing", op, err)
		}
		pairings = append(pairings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("pairing", op, err)
	}

	return pairings, nil
}

func scanPairing(row pgx.Row) (*mentorship.Pairing, error) {
	var (
		p      mentorship.Pairing
		status string
	)
	if err := row.Scan(&p.ID, &p.MentorID, &p.LearnerID, &status, &p.CreatedAt, &p.EndedAt); err != nil {
		return nil, err
	}
	p.Status = mentorship.PairingStatus(status)
	return &p, nil
}
