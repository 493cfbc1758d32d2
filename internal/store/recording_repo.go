package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/anasdev1204/boilterm/internal/track"
)

// RecordingRepo persists completed recordings. It satisfies track.Store.
// Recording names are not unique; insertion order is preserved via
// created_at plus rowid ordering.
type RecordingRepo struct {
	db *sql.DB
}

func NewRecordingRepo(db *sql.DB) *RecordingRepo {
	return &RecordingRepo{db: db}
}

// Save writes one recording and its ordered commands in a transaction.
func (r *RecordingRepo) Save(ctx context.Context, rec track.Recording) error {
	if rec.ID == "" {
		id, err := NewID()
		if err != nil {
			return err
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = nowUTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start save transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO recordings (id, name, created_at) VALUES (?, ?, ?)
`, rec.ID, rec.Name, formatTimestamp(rec.CreatedAt)); err != nil {
		return fmt.Errorf("failed to insert recording %q: %w", rec.Name, err)
	}

	for i, cmd := range rec.Commands {
		cmdID, err := NewID()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO recording_commands (id, recording_id, position, command, recorded_at, accepted)
VALUES (?, ?, ?, ?, ?, ?)
`, cmdID, rec.ID, i, cmd.Command, formatTimestamp(cmd.Timestamp), boolToInt(cmd.Accepted)); err != nil {
			return fmt.Errorf("failed to insert command %d of recording %q: %w", i, rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recording %q: %w", rec.Name, err)
	}
	return nil
}

// Load returns every recording with its commands, oldest first.
func (r *RecordingRepo) Load(ctx context.Context) ([]track.Recording, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, created_at FROM recordings ORDER BY created_at ASC, rowid ASC
`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []track.Recording
	for rows.Next() {
		var rec track.Recording
		var createdAtRaw string
		if err := rows.Scan(&rec.ID, &rec.Name, &createdAtRaw); err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		rec.CreatedAt, err = parseTimestamp(createdAtRaw)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating recordings: %w", err)
	}

	for i := range recordings {
		commands, err := r.loadCommands(ctx, recordings[i].ID)
		if err != nil {
			return nil, err
		}
		recordings[i].Commands = commands
	}
	return recordings, nil
}

func (r *RecordingRepo) loadCommands(ctx context.Context, recordingID string) ([]track.CommandRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT command, recorded_at, accepted
FROM recording_commands
WHERE recording_id = ?
ORDER BY position ASC
`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands of recording %q: %w", recordingID, err)
	}
	defer rows.Close()

	commands := make([]track.CommandRecord, 0, 8)
	for rows.Next() {
		var cmd track.CommandRecord
		var recordedAtRaw string
		var accepted int
		if err := rows.Scan(&cmd.Command, &recordedAtRaw, &accepted); err != nil {
			return nil, fmt.Errorf("failed to scan recording command: %w", err)
		}
		cmd.Timestamp, err = parseTimestamp(recordedAtRaw)
		if err != nil {
			return nil, err
		}
		cmd.Accepted = accepted != 0
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating recording commands: %w", err)
	}
	return commands, nil
}

func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
