package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY,
    owner_account_id VARCHAR(100),
    role VARCHAR(20) NOT NULL,
    name VARCHAR(120) NOT NULL,
    email VARCHAR(255) NOT NULL,
    track VARCHAR(80) NOT NULL,
    term SMALLINT NOT NULL,
    -- ordered JSON arrays of strings
    subjects JSONB NOT NULL DEFAULT '[]'::jsonb,
    skills JSONB NOT NULL DEFAULT '[]'::jsonb,
    availability TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('mentor', 'learner')),
    CONSTRAINT valid_term CHECK (term BETWEEN 1 AND 12),
    CONSTRAINT subjects_is_array CHECK (jsonb_typeof(subjects) = 'array'),
    CONSTRAINT skills_is_array CHECK (jsonb_typeof(skills) = 'array')
);

CREATE INDEX IF NOT EXISTS idx_profiles_role_created ON profiles(role, created_at, id);

-- An account owns at most one profile per role.
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_owner_role
    ON profiles(owner_account_id, role) WHERE owner_account_id IS NOT NULL;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PAIRINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS pairings (
    id UUID PRIMARY KEY,
    mentor_id UUID NOT NULL REFERENCES profiles(id) ON DELETE RESTRICT,
    learner_id UUID NOT NULL REFERENCES profiles(id) ON DELETE RESTRICT,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    ended_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_pairing_status CHECK (status IN ('active', 'ended')),
    CONSTRAINT no_self_pairing CHECK (mentor_id <> learner_id),
    CONSTRAINT ended_has_timestamp CHECK (status = 'active' OR ended_at IS NOT NULL)
);

-- At most one active pairing per learner.
CREATE UNIQUE INDEX IF NOT EXISTS uq_pairings_active_learner
    ON pairings(learner_id) WHERE status = 'active';

CREATE INDEX IF NOT EXISTS idx_pairings_mentor_active
    ON pairings(mentor_id, created_at) WHERE status = 'active';
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY,
    pairing_id UUID NOT NULL REFERENCES pairings(id) ON DELETE RESTRICT,
    scheduled_date DATE NOT NULL,
    scheduled_time TIME NOT NULL,
    topic VARCHAR(200) NOT NULL,
    modality VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'requested',
    notes TEXT NOT NULL DEFAULT '',
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_session_status CHECK (status IN ('requested', 'confirmed', 'completed', 'cancelled')),
    CONSTRAINT valid_modality CHECK (modality IN ('in_person', 'virtual')),
    CONSTRAINT completed_has_timestamp CHECK (status <> 'completed' OR completed_at IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_sessions_pairing_schedule
    ON sessions(pairing_id, scheduled_date DESC, scheduled_time DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_requested
    ON sessions(pairing_id, created_at) WHERE status = 'requested';
`
