package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/anasdev1204/boilterm/internal/track"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "recordings-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordingRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordingRepo(openTestDB(t).SQL())

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := track.Recording{
		ID:        "rec-1",
		Name:      "go setup",
		CreatedAt: created,
		Commands: []track.CommandRecord{
			{Command: "go mod init demo", Timestamp: created.Add(-2 * time.Minute), Accepted: true},
			{Command: "go test ./...", Timestamp: created.Add(-time.Minute), Accepted: true},
		},
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]track.Recording{rec}, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordingLoadEmpty(t *testing.T) {
	repo := NewRecordingRepo(openTestDB(t).SQL())
	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("loaded %d recordings from an empty store", len(loaded))
	}
}

func TestRecordingSaveGeneratesIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordingRepo(openTestDB(t).SQL())

	if err := repo.Save(ctx, track.Recording{Name: "anon"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d recordings, want 1", len(loaded))
	}
	if loaded[0].ID == "" {
		t.Fatal("saved recording has no generated ID")
	}
	if loaded[0].CreatedAt.IsZero() {
		t.Fatal("saved recording has no generated CreatedAt")
	}
}

func TestRecordingDuplicateNamesRetained(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordingRepo(openTestDB(t).SQL())

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		rec := track.Recording{
			Name:      "setup",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Commands:  []track.CommandRecord{{Command: "ls", Timestamp: base, Accepted: true}},
		}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d recordings, want both duplicates", len(loaded))
	}
	if !loaded[0].CreatedAt.Before(loaded[1].CreatedAt) {
		t.Fatalf("recordings out of order: %v then %v", loaded[0].CreatedAt, loaded[1].CreatedAt)
	}
}

func TestRecordingCommandOrderPreserved(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordingRepo(openTestDB(t).SQL())

	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rec := track.Recording{
		ID:        "rec-ordered",
		Name:      "ordered",
		CreatedAt: ts,
		Commands: []track.CommandRecord{
			{Command: "third-by-time", Timestamp: ts.Add(3 * time.Minute), Accepted: true},
			{Command: "first-by-time", Timestamp: ts.Add(time.Minute), Accepted: true},
			{Command: "second-by-time", Timestamp: ts.Add(2 * time.Minute), Accepted: false},
		},
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Position wins over timestamps: the stored order is insertion order.
	want := []string{"third-by-time", "first-by-time", "second-by-time"}
	for i, cmd := range loaded[0].Commands {
		if cmd.Command != want[i] {
			t.Fatalf("command %d=%q want %q", i, cmd.Command, want[i])
		}
	}
	if loaded[0].Commands[2].Accepted {
		t.Fatal("accepted flag not preserved")
	}
}
