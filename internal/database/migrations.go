package database

// migrationsSQL contains all database migrations, applied in order by
// version number. Never edit a migration that has shipped; add a new one.
var migrationsSQL = map[int]string{
	1: migrationV1CycleSchema,
	2: migrationV2Reminders,
	3: migrationV3Wellness,
}

// migrationV1CycleSchema stores per-user cycle settings and symptom logs.
//
// Dates are TEXT in YYYY-MM-DD form. Phase predictions are never stored;
// they are recomputed from cycle_settings on every read.
const migrationV1CycleSchema = `
-- Migration 001: cycle settings and symptom logs

CREATE TABLE IF NOT EXISTS cycle_settings (
    -- Subject of the bearer token, or "default" in development
    user_id TEXT PRIMARY KEY,

    last_period_start TEXT NOT NULL,
    cycle_length INTEGER NOT NULL CHECK (cycle_length BETWEEN 21 AND 40),
    menses_length INTEGER NOT NULL CHECK (menses_length BETWEEN 2 AND 10),

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    CHECK (menses_length < cycle_length)
);

CREATE TABLE IF NOT EXISTS symptom_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,

    log_date TEXT NOT NULL,
    mood TEXT NOT NULL DEFAULT '',
    pain INTEGER NOT NULL DEFAULT 0 CHECK (pain BETWEEN 0 AND 10),
    energy INTEGER NOT NULL DEFAULT 5 CHECK (energy BETWEEN 0 AND 10),

    -- Phase key at the time of logging; empty when no settings existed
    phase TEXT NOT NULL DEFAULT '',

    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Newest-first listing and retention pruning
CREATE INDEX IF NOT EXISTS idx_symptom_logs_user
    ON symptom_logs(user_id, id DESC);
`

// migrationV2Reminders adds motivational reminders, streaks and the
// phase notification log used by the daily scheduler.
const migrationV2Reminders = `
-- Migration 002: reminders and notifications

CREATE TABLE IF NOT EXISTS motivational_reminders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    mood TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_motivational_reminders_user
    ON motivational_reminders(user_id, id DESC);

CREATE TABLE IF NOT EXISTS reminder_streaks (
    user_id TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    phase TEXT NOT NULL,
    message TEXT NOT NULL,
    notify_date TEXT NOT NULL,
    delivered_at TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    -- The scheduler may run more than once a day
    UNIQUE (user_id, kind, phase, notify_date)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user
    ON notifications(user_id, id DESC);
`

// migrationV3Wellness adds the daily fitness log and mental health
// check-ins.
const migrationV3Wellness = `
-- Migration 003: fitness and mental health

CREATE TABLE IF NOT EXISTS fitness_logs (
    user_id TEXT NOT NULL,
    log_date TEXT NOT NULL,

    -- NULL means "not entered", which is not the same as zero
    steps INTEGER CHECK (steps >= 0),
    water REAL CHECK (water >= 0),
    sleep REAL CHECK (sleep BETWEEN 0 AND 24),
    calories INTEGER CHECK (calories >= 0),
    mood TEXT NOT NULL DEFAULT '',

    -- JSON: {"fixed": [...], "custom": [...]}
    workouts TEXT NOT NULL DEFAULT '{"fixed":[],"custom":[]}',

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    PRIMARY KEY (user_id, log_date)
);

CREATE TABLE IF NOT EXISTS mental_health_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,

    -- Each check-in may carry any subset; empty means not given
    mood TEXT NOT NULL DEFAULT '',
    stress_level TEXT NOT NULL DEFAULT '',
    energy_level TEXT NOT NULL DEFAULT '',

    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_mental_health_logs_user
    ON mental_health_logs(user_id, id DESC);
`
