package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"adventure-editor/validation"
)

func newTestWatcher(t *testing.T, dir string, debounce time.Duration) *FileWatcher {
	t.Helper()
	fw, err := NewFileWatcher(WatcherConfig{
		Paths:        []string{dir},
		Validator:    validation.NewValidator(0),
		DebounceTime: debounce,
		AutoValidate: true,
	})
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	return fw
}

// ============================================
// Test: Lifecycle
// ============================================

func TestStartStopLifecycle(t *testing.T) {
	fw := newTestWatcher(t, t.TempDir(), 20*time.Millisecond)

	if err := fw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !fw.IsRunning() {
		t.Error("Expected watcher running after Start")
	}
	if err := fw.Start(); err == nil {
		t.Error("Expected second Start rejected")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if fw.IsRunning() {
		t.Error("Expected watcher stopped")
	}
	if err := fw.Stop(); err == nil {
		t.Error("Expected second Stop rejected")
	}

	t.Log("✅ Ciclo start/stop pulito")
}

func TestWatcherEmitsFileEvents(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t, dir, 20*time.Millisecond)

	if err := fw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer fw.Stop()

	path := filepath.Join(dir, "storia.adventure.json")
	if err := os.WriteFile(path, []byte(`{"title": "T", "start_scene": "a", "scenes": {"a": {}}}`), 0644); err != nil {
		t.Fatalf("scrittura file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		if ev.Path != path {
			t.Errorf("Expected event for %s, got %s", path, ev.Path)
		}
		t.Logf("✅ Evento ricevuto: %s", ev.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("Expected a file event within 3s")
	}
}

func TestStopWithPendingRevalidationDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t, dir, 40*time.Millisecond)

	if err := fw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Una modifica arma il timer di rivalidazione...
	path := filepath.Join(dir, "storia.adventure.json")
	if err := os.WriteFile(path, []byte(`{"title": "T"}`), 0644); err != nil {
		t.Fatalf("scrittura file: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	// ...e lo Stop arriva prima che scatti: il canale chiuso non deve
	// mai ricevere scritture dal timer
	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	time.Sleep(120 * time.Millisecond)

	// Il canale è chiuso e drenabile senza eventi postumi di validazione
	for ev := range fw.Events() {
		if ev.Type == "validation_ok" || ev.Type == "validation_error" {
			t.Errorf("Expected no validation events after Stop, got %s", ev.Type)
		}
	}

	t.Log("✅ Stop con timer pendente: nessun panic, nessun evento postumo")
}
