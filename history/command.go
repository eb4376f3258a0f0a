package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Command è l'unità di lavoro annullabile. Il ciclo di vita è
// Created → Executed → (Undone ↔ rieseguito via redo) → scartato.
// CanExecute/CanUndo sono predicati di guardia verificati dal manager,
// non dal comando su se stesso.
type Command interface {
	ID() string
	Description() string
	Type() string
	Timestamp() time.Time
	Executed() bool

	CanExecute() bool
	CanUndo() bool
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error

	// Mergeable indica se il comando può fondersi con un adiacente
	Mergeable() bool
	// Groupable indica se il comando può confluire in un gruppo pendente
	Groupable() bool
	// GroupType etichetta il gruppo di appartenenza (es. "move", "typing")
	GroupType() string
	// MergeWith tenta di fondere other nel ricevente. Se restituisce true
	// il chiamante scarta other invece di memorizzarlo: è così che tanti
	// piccoli edit (drag, battitura) collassano in un solo passo di undo.
	MergeWith(other Command) bool
}

// BaseCommand fornisce l'implementazione comune; i comandi concreti
// lo embeddano e ridefiniscono Execute/Undo
type BaseCommand struct {
	id          string
	description string
	cmdType     string
	timestamp   time.Time
	executed    bool
	mergeable   bool
	groupable   bool
	groupType   string
}

// NewBaseCommand crea la parte comune di un comando
func NewBaseCommand(description, cmdType string) BaseCommand {
	return BaseCommand{
		id:          uuid.NewString(),
		description: description,
		cmdType:     cmdType,
		timestamp:   time.Now(),
	}
}

// ID restituisce l'identificativo univoco del comando
func (b *BaseCommand) ID() string { return b.id }

// Description restituisce la descrizione leggibile
func (b *BaseCommand) Description() string { return b.description }

// Type restituisce il tag di tipo del comando
func (b *BaseCommand) Type() string { return b.cmdType }

// Timestamp restituisce quando il comando è stato creato (o l'ultimo merge)
func (b *BaseCommand) Timestamp() time.Time { return b.timestamp }

// Executed indica se il comando risulta eseguito
func (b *BaseCommand) Executed() bool { return b.executed }

// CanExecute: un comando si può eseguire solo se non già eseguito
func (b *BaseCommand) CanExecute() bool { return !b.executed }

// CanUndo: un comando si può annullare solo se eseguito
func (b *BaseCommand) CanUndo() bool { return b.executed }

// Mergeable indica se il comando partecipa al merge adiacente
func (b *BaseCommand) Mergeable() bool { return b.mergeable }

// Groupable indica se il comando partecipa al raggruppamento temporale
func (b *BaseCommand) Groupable() bool { return b.groupable }

// GroupType restituisce l'etichetta di gruppo
func (b *BaseCommand) GroupType() string { return b.groupType }

// MergeWith di default rifiuta ogni merge; i comandi concreti che lo
// supportano (es. move) lo ridefiniscono
func (b *BaseCommand) MergeWith(other Command) bool { return false }

// markExecuted aggiorna lo stato dopo Execute/Undo
func (b *BaseCommand) markExecuted(executed bool) { b.executed = executed }

// touch aggiorna il timestamp (dopo un merge riuscito)
func (b *BaseCommand) touch() { b.timestamp = time.Now() }

// setMergeable configura il comportamento di merge/gruppo
func (b *BaseCommand) setMergeable(groupType string) {
	b.mergeable = true
	b.groupable = true
	b.groupType = groupType
}

// setGroupable configura solo il raggruppamento temporale
func (b *BaseCommand) setGroupable(groupType string) {
	b.groupable = true
	b.groupType = groupType
}
