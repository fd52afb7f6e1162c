package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// CarePlan is the generated plan stored for a session. Data is either the AI
// text or a structured plan.
type CarePlan struct {
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// PatientNote is one free-text note a patient logged.
type PatientNote struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionData is arbitrary patient data attached to a session.
type SessionData struct {
	SessionID   string      `json:"session_id"`
	PatientData interface{} `json:"patient_data"`
	LastUpdated time.Time   `json:"last_updated"`
}

// AskRecord audits one ask-AI exchange.
type AskRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Command     string    `json:"ai_command_text"`
	ContentType string    `json:"content_type,omitempty"`
	Success     bool      `json:"success"`
	Format      string    `json:"format,omitempty"`
	Message     string    `json:"message,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps the SQL database used for persistence.
type Store struct {
	db       *sql.DB
	postgres bool
}

// Open initializes the datastore using the supplied DSN/file path and driver
// ("sqlite" or "postgres").
func Open(dsn string, driver string) (*Store, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("datastore DSN is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create datastore directory: %w", err)
		}
		conn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn)
		db, err = sql.Open("sqlite", conn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite datastore: %w", err)
		}
	case "postgres":
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres datastore: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported datastore driver: %s", driver)
	}

	s := &Store{db: db, postgres: driver == "postgres"}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	stmts := []string{`PRAGMA journal_mode=WAL;`}
	if s.postgres {
		serial = "BIGSERIAL PRIMARY KEY"
		stmts = nil
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS care_plans (
			session_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS patient_notes (
			id `+serial+`,
			session_id TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_patient_notes_session ON patient_notes(session_id);`,
		`CREATE TABLE IF NOT EXISTS session_data (
			session_id TEXT PRIMARY KEY,
			patient_data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ask_history (
			id `+serial+`,
			session_id TEXT NOT NULL,
			command TEXT NOT NULL,
			content_type TEXT,
			success BOOLEAN NOT NULL,
			format TEXT,
			message TEXT,
			status_code INTEGER DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);`,
	)
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close shuts down the datastore.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping() error {
	if s == nil || s.db == nil {
		return errors.New("datastore not configured")
	}
	return s.db.Ping()
}

// SaveCarePlan stores or replaces the care plan for a session.
func (s *Store) SaveCarePlan(sessionID string, data interface{}) (*CarePlan, error) {
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	plan := &CarePlan{SessionID: sessionID, Data: data, CreatedAt: time.Now().UTC()}
	_, err = s.db.Exec(s.rebind(`INSERT INTO care_plans (session_id, data, created_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data=excluded.data, created_at=excluded.created_at`),
		plan.SessionID, string(encoded), plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// GetCarePlan loads the care plan for a session.
func (s *Store) GetCarePlan(sessionID string) (*CarePlan, error) {
	row := s.db.QueryRow(s.rebind(`SELECT session_id, data, created_at FROM care_plans WHERE session_id=?`), sessionID)
	var (
		plan CarePlan
		data string
	)
	if err := row.Scan(&plan.SessionID, &data, &plan.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(data), &plan.Data)
	return &plan, nil
}

// SavePatientNote appends a note to a session.
func (s *Store) SavePatientNote(sessionID, text string) (*PatientNote, error) {
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	note := &PatientNote{SessionID: sessionID, Text: text, Timestamp: time.Now().UTC()}
	err := s.db.QueryRow(s.rebind(`INSERT INTO patient_notes (session_id, text, created_at) VALUES (?, ?, ?) RETURNING id`),
		note.SessionID, note.Text, note.Timestamp,
	).Scan(&note.ID)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListPatientNotes returns a session's notes oldest first.
func (s *Store) ListPatientNotes(sessionID string) ([]PatientNote, error) {
	rows, err := s.db.Query(s.rebind(`SELECT id, session_id, text, created_at FROM patient_notes WHERE session_id=? ORDER BY id ASC`), sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := []PatientNote{}
	for rows.Next() {
		var n PatientNote
		if err := rows.Scan(&n.ID, &n.SessionID, &n.Text, &n.Timestamp); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SaveSessionData stores or replaces patient data for a session.
func (s *Store) SaveSessionData(sessionID string, patientData interface{}) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	encoded, err := json.Marshal(patientData)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(s.rebind(`INSERT INTO session_data (session_id, patient_data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET patient_data=excluded.patient_data, updated_at=excluded.updated_at`),
		sessionID, string(encoded), time.Now().UTC(),
	)
	return err
}

// GetSessionData loads patient data for a session.
func (s *Store) GetSessionData(sessionID string) (*SessionData, error) {
	row := s.db.QueryRow(s.rebind(`SELECT session_id, patient_data, updated_at FROM session_data WHERE session_id=?`), sessionID)
	var (
		out  SessionData
		data string
	)
	if err := row.Scan(&out.SessionID, &data, &out.LastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(data), &out.PatientData)
	return &out, nil
}

// ListSessions returns every session id that has stored data of any kind.
func (s *Store) ListSessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT session_id FROM care_plans
		UNION SELECT session_id FROM patient_notes
		UNION SELECT session_id FROM session_data
		ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendAskHistory records an ask-AI exchange.
func (s *Store) AppendAskHistory(rec *AskRecord) error {
	rec.CreatedAt = time.Now().UTC()
	return s.db.QueryRow(s.rebind(`INSERT INTO ask_history (session_id, command, content_type, success, format, message, status_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		rec.SessionID, rec.Command, rec.ContentType, rec.Success, rec.Format, rec.Message, rec.StatusCode, rec.CreatedAt,
	).Scan(&rec.ID)
}

// ListAskHistory returns the newest ask-AI records, optionally for one session.
func (s *Store) ListAskHistory(sessionID string, limit int) ([]AskRecord, error) {
	query := `SELECT id, session_id, command, content_type, success, format, message, status_code, created_at FROM ask_history`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id=?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []AskRecord{}
	for rows.Next() {
		var (
			r                            AskRecord
			contentType, format, message sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Command, &contentType, &r.Success, &format, &message, &r.StatusCode, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ContentType, r.Format, r.Message = contentType.String, format.String, message.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// PruneAskHistoryBefore deletes ask-AI records created before the cutoff.
func (s *Store) PruneAskHistoryBefore(before time.Time) (int64, error) {
	res, err := s.db.Exec(s.rebind(`DELETE FROM ask_history WHERE created_at < ?`), before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
