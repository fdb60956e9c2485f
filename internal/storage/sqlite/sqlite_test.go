package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/michaelbrown/evalbox/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{
		ID:              "abc12345-0000-0000-0000-000000000000",
		Source:          storage.SourceCLI,
		Code:            "print(1+1)",
		Output:          "2\n",
		InterpreterMode: true,
		Duration:        125 * time.Millisecond,
	}

	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	if got.Code != "print(1+1)" {
		t.Errorf("code = %q, want %q", got.Code, "print(1+1)")
	}
	if got.Output != "2\n" {
		t.Errorf("output = %q, want %q", got.Output, "2\n")
	}
	if got.Source != storage.SourceCLI {
		t.Errorf("source = %q, want %q", got.Source, storage.SourceCLI)
	}
	if !got.InterpreterMode {
		t.Error("interpreter_mode should round-trip as true")
	}
	if got.Strace {
		t.Error("strace should round-trip as false")
	}
	if got.Duration != 125*time.Millisecond {
		t.Errorf("duration = %s, want 125ms", got.Duration)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should not be zero")
	}
}

func TestGetRunByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{
		ID:     "abc12345-0000-0000-0000-000000000000",
		Source: storage.SourceAPI,
		Code:   "print(1)",
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("got ID %q, want %q", got.ID, run.ID)
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{
		"abc00000-0000-0000-0000-000000000000",
		"abc11111-0000-0000-0000-000000000000",
	} {
		run := &storage.Run{ID: id, Source: storage.SourceCLI, Code: "1"}
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	_, err := s.GetRun(ctx, "abc")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous prefix error, got: %v", err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got: %v", err)
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := []*storage.Run{
		{ID: "run-1", Source: storage.SourceCLI, Code: "1", CreatedAt: base},
		{ID: "run-2", Source: storage.SourceAPI, Code: "2", CreatedAt: base.Add(time.Minute)},
		{ID: "run-3", Source: storage.SourceCLI, Code: "3", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun(%s): %v", r.ID, err)
		}
	}

	all, err := s.ListRuns(ctx, storage.RunListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRuns = %d runs, want 3", len(all))
	}
	if all[0].ID != "run-3" {
		t.Errorf("newest first: got %q, want run-3", all[0].ID)
	}

	cli, err := s.ListRuns(ctx, storage.RunListOptions{Source: storage.SourceCLI})
	if err != nil {
		t.Fatalf("ListRuns filtered: %v", err)
	}
	if len(cli) != 2 {
		t.Errorf("filtered ListRuns = %d runs, want 2", len(cli))
	}

	limited, err := s.ListRuns(ctx, storage.RunListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns paginated: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-2" {
		t.Errorf("paginated ListRuns = %v", limited)
	}
}

func TestDeleteRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &storage.Run{ID: "del00000-0000-0000-0000-000000000000", Source: storage.SourceCLI, Code: "1"}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	// Delete by prefix
	if err := s.DeleteRun(ctx, "del00000"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(ctx, run.ID); err == nil {
		t.Fatal("run should be gone after delete")
	}

	if err := s.DeleteRun(ctx, "missing"); err == nil {
		t.Fatal("deleting a missing run should error")
	}
}
