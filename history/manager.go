package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"adventure-editor/model"
)

// Errori del manager
var (
	// ErrBusy : un comando è già in esecuzione (le chiamate concorrenti
	// vengono rifiutate, non accodate)
	ErrBusy = errors.New("un comando è già in esecuzione")
	// ErrNothingToUndo : il cursore è all'inizio della history
	ErrNothingToUndo = errors.New("niente da annullare")
	// ErrNothingToRedo : il cursore è già in coda
	ErrNothingToRedo = errors.New("niente da ripetere")
	// ErrCannotExecute : il predicato di guardia CanExecute ha rifiutato
	ErrCannotExecute = errors.New("il comando non è eseguibile")
	// ErrCannotUndo : il predicato di guardia CanUndo ha rifiutato
	ErrCannotUndo = errors.New("il comando non è annullabile")
)

// Valori di default del manager
const (
	DefaultHistoryLimit = 100
	DefaultGroupWindow  = 1 * time.Second
)

// Entry è la proiezione in sola lettura di un elemento della history
// (consumata dalla UI)
type Entry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Executed    bool      `json:"executed"`
	Current     bool      `json:"current"`
	Pending     bool      `json:"pending,omitempty"`
	Children    int       `json:"children,omitempty"`
}

// pendingGroup è il composito in attesa di finalizzazione: i comandi
// groupable dello stesso tipo emessi dentro la finestra temporale vi
// confluiscono invece di diventare entry separate
type pendingGroup struct {
	composite *CompositeCommand
	groupType string
	timer     *time.Timer
}

// Manager è la history lineare di undo/redo. Invariante: il cursore sta
// in [-1, len(entries)-1]; tutto ciò che segue il cursore è la coda di
// redo e viene scartato appena un nuovo comando viene eseguito.
type Manager struct {
	mu          sync.Mutex
	entries     []Command
	cursor      int
	isExecuting bool
	limit       int
	groupWindow time.Duration

	pending *pendingGroup

	// snapshotFn, se impostata, cattura uno snapshot del grafo dopo ogni
	// comando; gli snapshot legati a entry evitate/troncate vengono purgati
	snapshotFn func() *model.Adventure
	snapshots  map[string]*model.Adventure
}

// Option configura il manager
type Option func(*Manager)

// WithLimit imposta il numero massimo di entry (le più vecchie evictate)
func WithLimit(limit int) Option {
	return func(m *Manager) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// WithGroupWindow imposta la finestra temporale di merge/raggruppamento
func WithGroupWindow(window time.Duration) Option {
	return func(m *Manager) {
		if window > 0 {
			m.groupWindow = window
		}
	}
}

// WithSnapshots abilita gli snapshot per-entry del grafo
func WithSnapshots(fn func() *model.Adventure) Option {
	return func(m *Manager) { m.snapshotFn = fn }
}

// NewManager crea un manager vuoto
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cursor:      -1,
		limit:       DefaultHistoryLimit,
		groupWindow: DefaultGroupWindow,
		snapshots:   make(map[string]*model.Adventure),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ExecuteCommand esegue un comando e lo registra nella history.
// Le chiamate concorrenti vengono rifiutate con ErrBusy: niente coda.
func (m *Manager) ExecuteCommand(ctx context.Context, cmd Command) error {
	if err := m.beginExecution(); err != nil {
		return err
	}
	defer m.endExecution()

	if !cmd.CanExecute() {
		return ErrCannotExecute
	}
	if err := cmd.Execute(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLocked(cmd)
	return nil
}

// ExecuteBatch esegue più comandi come singola unità atomica: se uno
// fallisce, i precedenti vengono annullati e il grafo resta intatto
func (m *Manager) ExecuteBatch(ctx context.Context, cmds []Command, description string) error {
	return m.ExecuteCommand(ctx, NewCompositeCommand(description, cmds))
}

// Undo annulla il comando corrente e arretra il cursore
func (m *Manager) Undo(ctx context.Context) error {
	if err := m.beginExecution(); err != nil {
		return err
	}
	defer m.endExecution()

	m.mu.Lock()
	m.finalizePendingLocked()
	if m.cursor < 0 {
		m.mu.Unlock()
		return ErrNothingToUndo
	}
	cmd := m.entries[m.cursor]
	m.mu.Unlock()

	if !cmd.CanUndo() {
		return ErrCannotUndo
	}
	if err := cmd.Undo(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.cursor--
	m.mu.Unlock()
	return nil
}

// Redo riesegue il comando successivo al cursore
func (m *Manager) Redo(ctx context.Context) error {
	if err := m.beginExecution(); err != nil {
		return err
	}
	defer m.endExecution()

	m.mu.Lock()
	m.finalizePendingLocked()
	if m.cursor >= len(m.entries)-1 {
		m.mu.Unlock()
		return ErrNothingToRedo
	}
	cmd := m.entries[m.cursor+1]
	m.mu.Unlock()

	if !cmd.CanExecute() {
		return ErrCannotExecute
	}
	if err := cmd.Execute(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.cursor++
	m.mu.Unlock()
	return nil
}

// History restituisce la proiezione in sola lettura della history,
// gruppo pendente incluso
func (m *Manager) History() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.entries)+1)
	for i, cmd := range m.entries {
		entry := Entry{
			ID:          cmd.ID(),
			Description: cmd.Description(),
			Type:        cmd.Type(),
			Timestamp:   cmd.Timestamp(),
			Executed:    cmd.Executed(),
			Current:     i == m.cursor,
		}
		if comp, ok := cmd.(*CompositeCommand); ok {
			entry.Children = len(comp.Children())
		}
		out = append(out, entry)
	}
	if m.pending != nil {
		out = append(out, Entry{
			ID:          m.pending.composite.ID(),
			Description: m.pending.composite.Description(),
			Type:        m.pending.composite.Type(),
			Timestamp:   m.pending.composite.Timestamp(),
			Executed:    m.pending.composite.Executed(),
			Pending:     true,
			Children:    len(m.pending.composite.Children()),
		})
	}
	return out
}

// CanUndo indica se c'è qualcosa da annullare
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor >= 0 || m.pending != nil
}

// CanRedo indica se c'è qualcosa da ripetere
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor < len(m.entries)-1
}

// Snapshot restituisce lo snapshot del grafo associato a una entry
func (m *Manager) Snapshot(commandID string) (*model.Adventure, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[commandID]
	return snap, ok
}

// Clear svuota la history e gli snapshot associati
func (m *Manager) Clear() error {
	if err := m.beginExecution(); err != nil {
		return err
	}
	defer m.endExecution()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPendingTimerLocked()
	m.pending = nil
	m.entries = nil
	m.cursor = -1
	m.snapshots = make(map[string]*model.Adventure)
	return nil
}

// ============================================
// Internals
// ============================================

// beginExecution acquisisce il flag isExecuting: comandi, undo e redo
// non si sovrappongono mai
func (m *Manager) beginExecution() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isExecuting {
		return ErrBusy
	}
	m.isExecuting = true
	return nil
}

func (m *Manager) endExecution() {
	m.mu.Lock()
	m.isExecuting = false
	m.mu.Unlock()
}

// recordLocked registra un comando appena eseguito: tenta il merge con
// l'ultimo comando del gruppo pendente, poi il raggruppamento temporale,
// infine l'append come entry autonoma
func (m *Manager) recordLocked(cmd Command) {
	now := cmd.Timestamp()

	if m.pending != nil {
		inWindow := now.Sub(m.pending.composite.Timestamp()) <= m.groupWindow
		sameGroup := cmd.Groupable() && cmd.GroupType() == m.pending.groupType

		if sameGroup && inWindow {
			// Merge adiacente: se l'ultimo comando del gruppo assorbe il
			// nuovo, il nuovo viene scartato del tutto
			children := m.pending.composite.Children()
			last := children[len(children)-1]
			if last.Mergeable() && cmd.Mergeable() && last.MergeWith(cmd) {
				m.takeSnapshotLocked(last.ID())
				m.resetPendingTimerLocked()
				return
			}
			// Altrimenti confluisce nel composito pendente
			m.pending.composite.Append(cmd)
			m.takeSnapshotLocked(m.pending.composite.ID())
			m.resetPendingTimerLocked()
			return
		}
		// Tipo diverso (o finestra scaduta): il gruppo si chiude
		m.finalizePendingLocked()
	}

	if cmd.Groupable() {
		// Primo comando di un possibile gruppo: resta pendente finché
		// non scade la finestra o arriva un tipo diverso
		comp := NewCompositeCommand(cmd.Description(), []Command{cmd})
		m.pending = &pendingGroup{composite: comp, groupType: cmd.GroupType()}
		m.takeSnapshotLocked(comp.ID())
		m.resetPendingTimerLocked()
		return
	}

	m.appendLocked(cmd)
	m.takeSnapshotLocked(cmd.ID())
}

// finalizePendingLocked chiude il gruppo pendente e lo appende alla
// history; un gruppo con un solo figlio viene appiattito
func (m *Manager) finalizePendingLocked() {
	if m.pending == nil {
		return
	}
	m.cancelPendingTimerLocked()

	comp := m.pending.composite
	compID := comp.ID()
	m.pending = nil

	var cmd Command = comp
	if children := comp.Children(); len(children) == 1 {
		cmd = children[0]
		// Lo snapshot era legato al composito, va rimappato
		if snap, ok := m.snapshots[compID]; ok {
			delete(m.snapshots, compID)
			m.snapshots[cmd.ID()] = snap
		}
	}
	m.appendLocked(cmd)
}

// appendLocked appende una entry: tronca la coda di redo, applica il
// limite di dimensione, purga gli snapshot orfani
func (m *Manager) appendLocked(cmd Command) {
	// Il cursore non è in coda: la coda di redo viene scartata
	if m.cursor < len(m.entries)-1 {
		for _, dropped := range m.entries[m.cursor+1:] {
			delete(m.snapshots, dropped.ID())
		}
		m.entries = m.entries[:m.cursor+1]
	}

	m.entries = append(m.entries, cmd)
	m.cursor = len(m.entries) - 1

	// Limite di dimensione: le entry più vecchie escono per prime
	if len(m.entries) > m.limit {
		overflow := len(m.entries) - m.limit
		for _, evicted := range m.entries[:overflow] {
			delete(m.snapshots, evicted.ID())
		}
		m.entries = append([]Command(nil), m.entries[overflow:]...)
		m.cursor -= overflow
	}
}

// resetPendingTimerLocked (ri)arma il timeout di finalizzazione del gruppo
func (m *Manager) resetPendingTimerLocked() {
	m.cancelPendingTimerLocked()
	if m.pending == nil {
		return
	}
	comp := m.pending.composite
	m.pending.timer = time.AfterFunc(m.groupWindow, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Il gruppo potrebbe essere già stato chiuso da altro
		if m.pending != nil && m.pending.composite == comp {
			m.finalizePendingLocked()
		}
	})
}

func (m *Manager) cancelPendingTimerLocked() {
	if m.pending != nil && m.pending.timer != nil {
		m.pending.timer.Stop()
		m.pending.timer = nil
	}
}

func (m *Manager) takeSnapshotLocked(commandID string) {
	if m.snapshotFn != nil {
		m.snapshots[commandID] = m.snapshotFn()
	}
}
