package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// Store keys for the persisted endpoint override.
const (
	keyHost = "endpoint.host"
	keyPort = "endpoint.port"
)

// Store is a small persisted key/value store. The bridge only keeps the
// assistant endpoint here; everything else comes from the environment.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the store at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads a value; missing keys return ("", nil).
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return value, nil
}

// Set writes a value, replacing any previous one.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Endpoint returns the persisted endpoint override. Zero values mean no
// override is stored.
func (s *Store) Endpoint() (host string, port int, err error) {
	host, err = s.Get(keyHost)
	if err != nil {
		return "", 0, err
	}
	raw, err := s.Get(keyPort)
	if err != nil {
		return "", 0, err
	}
	if raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return "", 0, fmt.Errorf("stored port %q: %w", raw, err)
		}
	}
	return host, port, nil
}

// SetEndpoint persists an endpoint override. It applies on the next
// connection attempt, not to the live connection.
func (s *Store) SetEndpoint(host string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	if err := s.Set(keyHost, host); err != nil {
		return err
	}
	return s.Set(keyPort, strconv.Itoa(port))
}
