package validation

import (
	"sync/atomic"
	"testing"
	"time"
)

// ============================================
// Test: Debounce Scheduler
// ============================================

func TestBurstCoalescesToSingleRun(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(30*time.Millisecond, func() {
		runs.Add(1)
	})
	defer s.Stop()

	// Raffica di modifiche ravvicinate: tipo un utente che trascina una scena
	for i := 0; i < 10; i++ {
		s.Request()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("Expected exactly 1 run for the burst, got %d", got)
	}

	t.Logf("✅ 10 richieste → %d esecuzione", runs.Load())
}

func TestRequestDuringRunIsQueued(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	s := NewScheduler(10*time.Millisecond, func() {
		runs.Add(1)
		if runs.Load() == 1 {
			started <- struct{}{}
			<-release
		}
	})
	defer s.Stop()

	s.Request()
	<-started

	// La validazione è in corso: queste richieste collassano in UNA pendente
	s.Request()
	time.Sleep(20 * time.Millisecond)
	s.Request()
	time.Sleep(20 * time.Millisecond)
	close(release)

	time.Sleep(100 * time.Millisecond)

	if got := runs.Load(); got != 2 {
		t.Errorf("Expected 2 runs (current + one queued), got %d", got)
	}

	t.Log("✅ Coda di uno: le richieste intermedie collassano")
}

func TestStopPreventsFutureRuns(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(20*time.Millisecond, func() {
		runs.Add(1)
	})

	s.Request()
	s.Stop()

	time.Sleep(80 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Errorf("Expected no runs after Stop, got %d", got)
	}

	t.Log("✅ Stop cancella il timer armato")
}

func TestFlushRunsImmediately(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(time.Hour, func() {
		runs.Add(1)
	})
	defer s.Stop()

	s.Request()
	s.Flush()

	if got := runs.Load(); got != 1 {
		t.Errorf("Expected 1 run after Flush, got %d", got)
	}

	// Flush senza richieste in attesa non esegue nulla
	s.Flush()
	if got := runs.Load(); got != 1 {
		t.Errorf("Expected still 1 run, got %d", got)
	}

	t.Log("✅ Flush esegue subito la validazione in attesa")
}
