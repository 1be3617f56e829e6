package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const defaultDBName = "history.db"

type Config struct {
	DataDir string
}

func dbPath(dataDir string) string {
	if dataDir == "" {
		dataDir = "data"
	}
	return filepath.Join(dataDir, defaultDBName)
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir(dataDir string) (string, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// Open opens the activity history database under the data directory.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureDataDir(cfg.DataDir); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", dbPath(cfg.DataDir))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Path returns the history db path for the data directory.
func Path(dataDir string) string {
	return dbPath(dataDir)
}
