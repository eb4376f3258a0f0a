package history

import (
	"context"
	"fmt"
	"log"
)

// CompositeCommand esegue una sequenza di comandi come unità atomica:
// se il figlio k+1 fallisce, i primi k vengono annullati in ordine
// inverso e l'errore originale viene propagato. L'undo esegue i figli
// in ordine inverso.
type CompositeCommand struct {
	BaseCommand
	children []Command
}

// NewCompositeCommand crea un composito dai comandi indicati
func NewCompositeCommand(description string, children []Command) *CompositeCommand {
	return &CompositeCommand{
		BaseCommand: NewBaseCommand(description, "composite"),
		children:    children,
	}
}

// Children restituisce i comandi figli (sola lettura)
func (c *CompositeCommand) Children() []Command {
	return c.children
}

// Append aggiunge un figlio già eseguito (usato dal raggruppamento
// temporale del manager)
func (c *CompositeCommand) Append(cmd Command) {
	c.children = append(c.children, cmd)
	c.touch()
}

// Executed è vero solo se tutti i figli risultano eseguiti
func (c *CompositeCommand) Executed() bool {
	if len(c.children) == 0 {
		return false
	}
	for _, child := range c.children {
		if !child.Executed() {
			return false
		}
	}
	return true
}

// CanExecute: eseguibile se nessun figlio risulta già eseguito
func (c *CompositeCommand) CanExecute() bool {
	for _, child := range c.children {
		if child.Executed() {
			return false
		}
	}
	return len(c.children) > 0
}

// CanUndo: annullabile se tutti i figli risultano eseguiti
func (c *CompositeCommand) CanUndo() bool {
	return c.Executed()
}

// Execute esegue i figli in ordine. Al primo fallimento annulla i già
// eseguiti in ordine inverso e restituisce l'errore originale; gli
// errori di rollback vengono loggati ma mai sostituiti all'originale.
func (c *CompositeCommand) Execute(ctx context.Context) error {
	for i, child := range c.children {
		if err := child.Execute(ctx); err != nil {
			c.rollback(ctx, i-1)
			return fmt.Errorf("comando %d/%d '%s': %w", i+1, len(c.children), child.Description(), err)
		}
	}
	return nil
}

// Undo annulla i figli in ordine inverso
func (c *CompositeCommand) Undo(ctx context.Context) error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(ctx); err != nil {
			return fmt.Errorf("undo di '%s': %w", c.children[i].Description(), err)
		}
	}
	return nil
}

// rollback annulla i figli da upTo a 0, best-effort
func (c *CompositeCommand) rollback(ctx context.Context, upTo int) {
	for i := upTo; i >= 0; i-- {
		if err := c.children[i].Undo(ctx); err != nil {
			log.Printf("⚠️  Rollback di '%s' fallito: %v", c.children[i].Description(), err)
		}
	}
}
