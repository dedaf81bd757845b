// Package store persists user settings in SQLite. The generation core only
// reads these values; writes happen through the settings API.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Setting keys.
const (
	keyAPIKey         = "api_key"
	keyPreferredModel = "preferred_model"
)

type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the settings database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// setSetting upserts a key-value pair in the settings table.
func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// getSetting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) getSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// APIKey returns the stored API key, or empty when none is stored.
func (s *Store) APIKey() (string, error) {
	return s.getSetting(keyAPIKey)
}

// SetAPIKey stores the API key.
func (s *Store) SetAPIKey(key string) error {
	return s.setSetting(keyAPIKey, key)
}

// PreferredModel returns the stored preferred-model identifier, or empty
// when none is stored.
func (s *Store) PreferredModel() (string, error) {
	return s.getSetting(keyPreferredModel)
}

// SetPreferredModel stores the preferred-model identifier.
func (s *Store) SetPreferredModel(modelID string) error {
	return s.setSetting(keyPreferredModel, modelID)
}
