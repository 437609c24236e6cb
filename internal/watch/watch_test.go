package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"devplanet/internal/slogutil"
)

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	dir := t.TempDir()

	w, err := New(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	changes := make(chan string, 16)
	if err := w.Watch(dir, func(path string) { changes <- path }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	file := filepath.Join(dir, "main.go")
	if err := os.WriteFile(file, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case got := <-changes:
		if filepath.Base(got) != "main.go" {
			t.Errorf("changed path = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	changes := make(chan string, 16)
	if err := w.Watch(dir, func(path string) { changes <- path }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected event for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := New(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/p/main.go", true},
		{"/p/app.TSX", true},
		{"/p/notes.txt", false},
		{"/p/node_modules/dep/index.js", false},
		{"/p/.git/config", false},
	}
	for _, tt := range tests {
		if got := isSourceFile(tt.path); got != tt.want {
			t.Errorf("isSourceFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDebouncer_TrailingEdge(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger("file.go", func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1 (rapid triggers collapse)", got)
	}
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	d.Trigger("a.go", func() { fired.Add(1) })
	d.Trigger("b.go", func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 2 {
		t.Errorf("fired %d times, want 2 (keys debounce separately)", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger("a.go", func() { fired.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("fired %d times after Stop, want 0", got)
	}
}
