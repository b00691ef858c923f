package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/logging"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS session_versions (
	version_id     TEXT PRIMARY KEY,
	parent_id      TEXT,
	session_id     TEXT NOT NULL,
	session_json   TEXT NOT NULL,
	artifacts_json TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES session_versions(version_id)
);
CREATE INDEX IF NOT EXISTS idx_session_versions_session ON session_versions(session_id);

CREATE TABLE IF NOT EXISTS active_sessions (
	session_id TEXT PRIMARY KEY,
	version_id TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES session_versions(version_id)
);
`

// #endregion schema

// #region store-struct
// Store manages versioned session snapshots in SQLite.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	return NewStoreWithDB(db)
}

// NewStoreWithDB runs migrations on an already-open database.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(logging.DecisionSchema); err != nil {
		return nil, fmt.Errorf("migrate decision log: %w", err)
	}
	return &Store{db: db, locks: make(map[string]*sessionLock)}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region create-session
// CreateSession stores the first version of a new session and points the
// session's active pointer at it.
func (s *Store) CreateSession(session governance.Session, artifacts []governance.Artifact) (SessionVersion, error) {
	if session.ID == "" {
		return SessionVersion{}, fmt.Errorf("create session: empty session id")
	}
	if _, err := s.activeVersionID(session.ID); err == nil {
		return SessionVersion{}, fmt.Errorf("create session %s: %w", session.ID, ErrSessionExists)
	} else if !errors.Is(err, ErrSessionNotFound) {
		return SessionVersion{}, err
	}

	v := SessionVersion{
		VersionID: uuid.New().String(),
		SessionID: session.ID,
		Session:   session,
		Artifacts: artifacts,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CommitVersion(v); err != nil {
		return SessionVersion{}, err
	}
	return v, nil
}

// Save stores a snapshot as the next version of its session, creating the
// session if it does not exist yet.
func (s *Store) Save(session governance.Session, artifacts []governance.Artifact) (SessionVersion, error) {
	cur, err := s.GetCurrent(session.ID)
	if errors.Is(err, ErrSessionNotFound) {
		return s.CreateSession(session, artifacts)
	}
	if err != nil {
		return SessionVersion{}, err
	}
	v := SessionVersion{
		VersionID: uuid.New().String(),
		ParentID:  cur.VersionID,
		SessionID: session.ID,
		Session:   session,
		Artifacts: artifacts,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CommitVersion(v); err != nil {
		return SessionVersion{}, err
	}
	return v, nil
}

// #endregion create-session

// #region get-current
// GetCurrent reads the active version of a session.
func (s *Store) GetCurrent(sessionID string) (SessionVersion, error) {
	versionID, err := s.activeVersionID(sessionID)
	if err != nil {
		return SessionVersion{}, err
	}
	return s.GetVersion(versionID)
}

func (s *Store) activeVersionID(sessionID string) (string, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_sessions WHERE session_id = ?`, sessionID).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get active %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get active %s: %w", sessionID, err)
	}
	return versionID, nil
}

// #endregion get-current

// #region get-version
// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (SessionVersion, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, session_id, session_json, artifacts_json, created_at
		 FROM session_versions WHERE version_id = ?`, id,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionVersion{}, fmt.Errorf("get version %s: %w", id, ErrVersionNotFound)
	}
	if err != nil {
		return SessionVersion{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return v, nil
}

// #endregion get-version

// #region commit-version
// CommitVersion inserts a new version and moves the session's active pointer
// to it atomically.
func (s *Store) CommitVersion(v SessionVersion) error {
	return s.commit(&v, nil)
}

// commit inserts v (when non-nil), moves the active pointer to it and writes
// entry (when non-nil) in one transaction.
func (s *Store) commit(v *SessionVersion, entry *logging.DecisionEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if v != nil {
		if err := insertVersion(tx, *v); err != nil {
			return err
		}
	}
	if entry != nil {
		if err := logging.LogDecision(tx, *entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertVersion(tx *sql.Tx, v SessionVersion) error {
	sessionJSON, err := json.Marshal(v.Session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	artifacts := v.Artifacts
	if artifacts == nil {
		artifacts = []governance.Artifact{}
	}
	artifactsJSON, err := json.Marshal(artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO session_versions (version_id, parent_id, session_id, session_json, artifacts_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.VersionID, nullIfEmpty(v.ParentID), v.SessionID, string(sessionJSON), string(artifactsJSON),
		v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_sessions (session_id, version_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET version_id = excluded.version_id`,
		v.SessionID, v.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// #endregion commit-version

// #region rollback
// Rollback points a session's active pointer at one of its earlier versions.
func (s *Store) Rollback(sessionID, targetVersionID string) error {
	v, err := s.GetVersion(targetVersionID)
	if err != nil {
		return err
	}
	if v.SessionID != sessionID {
		return fmt.Errorf("rollback %s: version %s belongs to %s: %w", sessionID, targetVersionID, v.SessionID, ErrVersionNotFound)
	}

	res, err := s.db.Exec(`UPDATE active_sessions SET version_id = ? WHERE session_id = ?`, targetVersionID, sessionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rollback %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// #endregion rollback

// #region list
// ListVersions returns the most recent versions of a session, newest first.
func (s *Store) ListVersions(sessionID string, limit int) ([]SessionVersion, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, session_id, session_json, artifacts_json, created_at
		 FROM session_versions WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return collectVersions(rows)
}

// ListSessions returns the active version of every stored session, ordered by
// session id.
func (s *Store) ListSessions() ([]SessionVersion, error) {
	rows, err := s.db.Query(
		`SELECT v.version_id, v.parent_id, v.session_id, v.session_json, v.artifacts_json, v.created_at
		 FROM active_sessions a JOIN session_versions v ON v.version_id = a.version_id
		 ORDER BY a.session_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectVersions(rows)
}

func collectVersions(rows *sql.Rows) ([]SessionVersion, error) {
	defer rows.Close()
	var out []SessionVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// #endregion list

// #region scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (SessionVersion, error) {
	var (
		v             SessionVersion
		parentID      sql.NullString
		sessionJSON   string
		artifactsJSON string
		createdStr    string
	)
	if err := row.Scan(&v.VersionID, &parentID, &v.SessionID, &sessionJSON, &artifactsJSON, &createdStr); err != nil {
		return SessionVersion{}, err
	}
	v.ParentID = parentID.String
	if err := json.Unmarshal([]byte(sessionJSON), &v.Session); err != nil {
		return SessionVersion{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if err := json.Unmarshal([]byte(artifactsJSON), &v.Artifacts); err != nil {
		return SessionVersion{}, fmt.Errorf("unmarshal artifacts: %w", err)
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return v, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion scanning
