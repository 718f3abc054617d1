// Package storage persists analysis records, negative-feedback events,
// and encrypted marketplace credentials in SQLite. The feedback table
// doubles as the durable backing for the in-memory cache blocklist, so
// membership survives cache TTL expiry and process restarts.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// AnalysisRow is a persisted analysis record.
type AnalysisRow struct {
	ID          string
	Fingerprint string
	Provider    string
	ProductName string
	RecordJSON  string
	Confidence  float64
	UploadRef   string
	CreatedAt   time.Time
}

// Store defines the persistence interface so tests can inject fakes.
type Store interface {
	SaveAnalysis(row *AnalysisRow) error
	GetAnalysis(id string) (*AnalysisRow, error)
	AddFeedback(fp string) error
	ClearFeedback(fp string) error
	BlockedFingerprints() ([]string, error)
	SetCredential(name, secret string) error
	GetCredential(name string) (string, error)
	Close() error
}

// SQLiteStore implements Store with encrypted credentials at rest.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath. The
// encryptionKey encrypts credential values; analyses and feedback are
// stored in the clear.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, encryptionKey: encryptionKey}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			provider TEXT NOT NULL,
			product_name TEXT NOT NULL,
			record_json TEXT NOT NULL,
			confidence REAL NOT NULL,
			upload_ref TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_fingerprint ON analyses(fingerprint);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			fingerprint TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS credentials (
			name TEXT PRIMARY KEY,
			encrypted_secret TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// SaveAnalysis stores or replaces an analysis record.
func (s *SQLiteStore) SaveAnalysis(row *AnalysisRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO analyses (id, fingerprint, provider, product_name, record_json, confidence, upload_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record_json = excluded.record_json,
			confidence = excluded.confidence
	`, row.ID, row.Fingerprint, row.Provider, row.ProductName, row.RecordJSON, row.Confidence, row.UploadRef, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves an analysis by ID. Returns nil, nil when the
// record doesn't exist.
func (s *SQLiteStore) GetAnalysis(id string) (*AnalysisRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := &AnalysisRow{ID: id}
	err := s.db.QueryRow(
		"SELECT fingerprint, provider, product_name, record_json, confidence, upload_ref, created_at FROM analyses WHERE id = ?",
		id,
	).Scan(&row.Fingerprint, &row.Provider, &row.ProductName, &row.RecordJSON, &row.Confidence, &row.UploadRef, &row.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	return row, nil
}

// AddFeedback records a negative-feedback event for a fingerprint.
// Duplicate events collapse into one row.
func (s *SQLiteStore) AddFeedback(fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO feedback (fingerprint) VALUES (?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fp)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

// ClearFeedback removes a fingerprint from the persisted blocklist.
func (s *SQLiteStore) ClearFeedback(fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM feedback WHERE fingerprint = ?", fp)
	if err != nil {
		return fmt.Errorf("failed to clear feedback: %w", err)
	}
	return nil
}

// BlockedFingerprints returns every fingerprint with a feedback row.
func (s *SQLiteStore) BlockedFingerprints() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT fingerprint FROM feedback")
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var fps []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		fps = append(fps, fp)
	}
	return fps, rows.Err()
}

// SetCredential stores an encrypted secret for a pricing source.
func (s *SQLiteStore) SetCredential(name, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt([]byte(secret), s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO credentials (name, encrypted_secret, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			encrypted_secret = excluded.encrypted_secret,
			updated_at = CURRENT_TIMESTAMP
	`, name, encrypted)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// GetCredential retrieves and decrypts a secret. Returns "" with no
// error when the credential doesn't exist.
func (s *SQLiteStore) GetCredential(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encrypted string
	err := s.db.QueryRow("SELECT encrypted_secret FROM credentials WHERE name = ?", name).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query credential: %w", err)
	}

	secret, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(secret), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
