// Package history keeps an append-only activity log in SQLite next to the
// JSON documents. Recording is best effort: a failed insert is logged and
// never fails the operation that triggered it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type Log struct {
	DB  *sql.DB
	Now func() time.Time
}

type Detail map[string]any

type Entry struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Event      string         `json:"event"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Record appends one activity entry. Errors are returned for callers that
// care; most call sites go through Log.Note instead.
func (l Log) Record(ctx context.Context, event, entityKind, entityID string, detail Detail) error {
	if l.DB == nil {
		return nil
	}
	if l.Now == nil {
		l.Now = time.Now
	}
	ts := l.Now().UTC().Format(time.RFC3339)
	if detail == nil {
		detail = Detail{}
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal history detail: %w", err)
	}
	_, err = l.DB.ExecContext(ctx, `INSERT INTO history(ts,event,entity_kind,entity_id,detail) VALUES (?,?,?,?,?)`,
		ts, event, entityKind, entityID, string(data))
	return err
}

// Note records and swallows the error, logging it instead.
func (l Log) Note(ctx context.Context, event, entityKind, entityID string, detail Detail) {
	if err := l.Record(ctx, event, entityKind, entityID, detail); err != nil {
		log.Printf("history: record %s: %v", event, err)
	}
}

// Recent returns the newest entries, most recent first.
func (l Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l.DB == nil {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, ts, event, entity_kind, entity_id, detail FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var detail string
		if err := rows.Scan(&e.ID, &e.TS, &e.Event, &e.EntityKind, &e.EntityID, &detail); err != nil {
			return nil, err
		}
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
				log.Printf("history: decode detail for entry %d: %v", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
