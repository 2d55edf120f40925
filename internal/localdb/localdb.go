// Package localdb caches session state that should survive restarts: the
// per-channel read cursors and unsent composer drafts. Server truth is never
// cached here; message history always comes from the API.
package localdb

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parcelops/hub/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS read_cursors (
	channel_id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	read_at    INTEGER NOT NULL,
	set_at     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
	channel_id TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// DB wraps the local cache database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.conn.Close()
}

// SaveCursor upserts a channel's read cursor. The guard mirrors the
// in-memory tracker: a cursor never moves backward, even across restarts.
func (d *DB) SaveCursor(channelID string, cursor types.ReadCursor) error {
	_, err := d.conn.Exec(`
		INSERT INTO read_cursors (channel_id, message_id, read_at, set_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			message_id = excluded.message_id,
			read_at = excluded.read_at,
			set_at = excluded.set_at
		WHERE excluded.read_at > read_cursors.read_at
			OR (excluded.read_at = read_cursors.read_at
				AND excluded.message_id > read_cursors.message_id)
	`, channelID, cursor.LastReadMessageID, cursor.LastReadAt.UnixMilli(), time.Now().Unix())
	return err
}

// LoadCursors returns all persisted read cursors keyed by channel id.
func (d *DB) LoadCursors() (map[string]types.ReadCursor, error) {
	rows, err := d.conn.Query(`SELECT channel_id, message_id, read_at FROM read_cursors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cursors := make(map[string]types.ReadCursor)
	for rows.Next() {
		var channelID, messageID string
		var readAt int64
		if err := rows.Scan(&channelID, &messageID, &readAt); err != nil {
			return nil, err
		}
		cursors[channelID] = types.ReadCursor{
			LastReadMessageID: messageID,
			LastReadAt:        time.UnixMilli(readAt),
		}
	}
	return cursors, rows.Err()
}

// SaveDraft stores the composer draft for a channel. An empty body deletes
// the draft.
func (d *DB) SaveDraft(channelID, body string) error {
	if body == "" {
		_, err := d.conn.Exec(`DELETE FROM drafts WHERE channel_id = ?`, channelID)
		return err
	}
	_, err := d.conn.Exec(`
		INSERT INTO drafts (channel_id, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`, channelID, body, time.Now().Unix())
	return err
}

// LoadDraft returns the stored draft for a channel, or empty.
func (d *DB) LoadDraft(channelID string) (string, error) {
	row := d.conn.QueryRow(`SELECT body FROM drafts WHERE channel_id = ?`, channelID)
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return body, nil
}
