package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
// DecisionSchema creates the decision_log table. The state store applies it
// alongside its own tables.
const DecisionSchema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	version_id   TEXT,
	action_type  TEXT NOT NULL,
	action_json  TEXT,
	role         TEXT NOT NULL,
	allowed      INTEGER NOT NULL,
	error_codes  TEXT,
	side_effects TEXT,
	reason       TEXT,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_session ON decision_log(session_id);
`

// #endregion schema

// #region log-decision
// Execer is satisfied by *sql.DB and *sql.Tx, so a decision can be written
// inside the transaction that commits its version.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// LogDecision writes a decision entry to the decision_log table.
func LogDecision(db Execer, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	allowed := 0
	if entry.Allowed {
		allowed = 1
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (session_id, version_id, action_type, action_json, role, allowed, error_codes, side_effects, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		nullIfEmpty(entry.VersionID),
		entry.ActionType,
		nullIfEmpty(entry.ActionJSON),
		entry.Role,
		allowed,
		nullIfEmpty(entry.ErrorCodes),
		nullIfEmpty(entry.SideEffects),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list-decisions
// ListDecisions returns the most recent decisions for a session, newest first.
// A limit of zero or less returns every row.
func ListDecisions(db *sql.DB, sessionID string, limit int) ([]DecisionEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT id, session_id, version_id, action_type, action_json, role, allowed, error_codes, side_effects, reason, created_at
		 FROM decision_log WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var (
			e           DecisionEntry
			versionID   sql.NullString
			actionJSON  sql.NullString
			errorCodes  sql.NullString
			sideEffects sql.NullString
			reason      sql.NullString
			allowed     int
			createdStr  string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &versionID, &e.ActionType, &actionJSON, &e.Role,
			&allowed, &errorCodes, &sideEffects, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.VersionID = versionID.String
		e.ActionJSON = actionJSON.String
		e.ErrorCodes = errorCodes.String
		e.SideEffects = sideEffects.String
		e.Reason = reason.String
		e.Allowed = allowed == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
