package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestIsAnnotationFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"annotations/ep-0001.json", true},
		{"annotations/EP.JSON", true},
		{"annotations/.hidden.json", false},
		{"annotations/ep-0001.json.tmp", false},
		{"annotations/readme.txt", false},
	}
	for _, tc := range cases {
		if got := IsAnnotationFile(tc.path); got != tc.want {
			t.Errorf("IsAnnotationFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestStartEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ep-0001.json", "ep-0002.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case path := <-w.Paths():
			got = append(got, filepath.Base(path))
		case err := <-errCh:
			t.Fatalf("Start returned early: %v", err)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	sort.Strings(got)
	if got[0] != "ep-0001.json" || got[1] != "ep-0002.json" {
		t.Fatalf("unexpected paths %v", got)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestEmitSkipsSeenPaths(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx := context.Background()
	path := filepath.Join(dir, "ep-0001.json")
	w.emit(ctx, path)
	w.emit(ctx, path)

	select {
	case <-w.Paths():
	default:
		t.Fatal("expected one emitted path")
	}
	select {
	case extra := <-w.Paths():
		t.Fatalf("duplicate emission: %s", extra)
	default:
	}
}

func TestEmitAbandonsSendAfterCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody consumes Paths; once the buffer is full every further emit
	// must bail out on the canceled context instead of blocking.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(w.paths)+16; i++ {
			w.emit(ctx, filepath.Join(dir, fmt.Sprintf("ep-%04d.json", i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a full channel after cancel")
	}
}
