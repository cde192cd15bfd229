package postgres

import (
	"context"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
)

// Store bundles the PostgreSQL repositories over one connection pool.
type Store struct {
	conn     *Connection
	profiles *ProfileRepository
	pairings *PairingRepository
	sessions *SessionRepository
}

// NewStore wires the repositories onto conn.
func NewStore(conn *Connection) *Store {
	return &Store{
		conn:     conn,
		profiles: NewProfileRepository(conn),
		pairings: NewPairingRepository(conn),
		sessions: NewSessionRepository(conn),
	}
}

var _ mentorship.Store = (*Store)(nil)

// Profiles implements mentorship.Store.
func (s *Store) Profiles() mentorship.ProfileStore { return s.profiles }

// Pairings implements mentorship.Store.
func (s *Store) Pairings() mentorship.PairingStore { return s.pairings }

// Sessions implements mentorship.Store.
func (s *Store) Sessions() mentorship.SessionStore { return s.sessions }

// Ping implements mentorship.Store.
func (s *Store) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

// Close implements mentorship.Store.
func (s *Store) Close() { s.conn.Close() }

// Stats returns the connection pool counters.
func (s *Store) Stats() PoolStats { return s.conn.Stats() }
