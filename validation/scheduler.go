package validation

import (
	"sync"
	"time"
)

// DefaultDebounce è il ritardo di default dello scheduler
const DefaultDebounce = 500 * time.Millisecond

// Scheduler coalizza raffiche di notifiche di modifica in una singola
// rivalidazione: ogni Request riavvia il timer, solo l'ultima della
// raffica esegue davvero. Se una validazione è in corso quando il timer
// scatta, la richiesta viene accodata (coda di uno: le intermedie si
// perdono) e rieseguita quando la corrente termina.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	running bool
	pending bool
	stopped bool
	run     func()
}

// NewScheduler crea uno scheduler che invoca run dopo il debounce
// (delay <= 0 usa il default di 500ms)
func NewScheduler(delay time.Duration, run func()) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Scheduler{delay: delay, run: run}
}

// Request notifica una modifica al grafo: cancella il timer precedente
// e ne arma uno nuovo
func (s *Scheduler) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// fire parte allo scadere del timer
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.running {
		// Validazione in corso: ricordiamo la richiesta e basta
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.run()

	s.mu.Lock()
	s.running = false
	rearm := s.pending && !s.stopped
	s.pending = false
	s.mu.Unlock()

	// La richiesta arrivata durante l'esecuzione riparte debounced
	if rearm {
		s.Request()
	}
}

// Flush esegue subito l'eventuale validazione in attesa (usato nei test
// e allo shutdown)
func (s *Scheduler) Flush() {
	s.mu.Lock()
	hasTimer := s.timer != nil && s.timer.Stop()
	s.mu.Unlock()
	if hasTimer {
		s.fire()
	}
}

// Stop cancella il timer e blocca ogni esecuzione futura
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
