// Package app wires the store, history log, and engine together for the CLI
// and server entry points.
package app

import (
	"fmt"

	"taskdock/internal/config"
	"taskdock/internal/db"
	"taskdock/internal/engine"
	"taskdock/internal/history"
	"taskdock/internal/migrate"
	"taskdock/internal/store"
)

// Options select the workspace and data directory. DataDir, when set,
// overrides config storage.data_dir.
type Options struct {
	Workspace string
	DataDir   string
}

// Setup loads the workspace config when present, opens the JSON document
// store and the history database, and returns a ready engine plus a cleanup
// that closes the database.
func Setup(opts Options) (engine.Engine, func(), error) {
	cfg, err := config.LoadOptional(opts.Workspace)
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = cfg.Storage.DataDir
	}
	st, err := store.New(dataDir)
	if err != nil {
		return engine.Engine{}, nil, err
	}
	conn, err := db.Open(db.Config{DataDir: dataDir})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate history db: %w", err)
	}
	eng := engine.New(st, history.Log{DB: conn}, cfg)
	cleanup := func() { conn.Close() }
	return eng, cleanup, nil
}
