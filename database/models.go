package database

import (
	"database/sql"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one invocation of the pipeline runner
type Run struct {
	RunID     int64         `db:"run_id"`
	Execution string        `db:"execution"`
	Pipeline  string        `db:"pipeline"`
	Volume    string        `db:"volume"`
	Command   string        `db:"command"`
	Status    string        `db:"status"`
	ExitCode  sql.NullInt64 `db:"exit_code"`
	Error     string        `db:"error"`
	StartedAt time.Time     `db:"started_at"`
	EndedAt   sql.NullTime  `db:"ended_at"`
}

// Schema creates the run table if it does not exist
const Schema = `CREATE TABLE IF NOT EXISTS run (
	run_id     BIGSERIAL PRIMARY KEY,
	execution  TEXT NOT NULL,
	pipeline   TEXT NOT NULL,
	volume     TEXT NOT NULL,
	command    TEXT NOT NULL,
	status     TEXT NOT NULL,
	exit_code  INTEGER,
	error      TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ
)`
