package history

import (
	"context"
	"fmt"
	"log"

	"adventure-editor/model"
)

// ProgressFunc riceve l'avanzamento di un'operazione bulk (fatti, totale)
type ProgressFunc func(done, total int)

// BulkDeleteScenesCommand espande una lista di id in N comandi di
// cancellazione concreti e li esegue come unità atomica: se la
// cancellazione k+1 fallisce, le prime k vengono ripristinate e il grafo
// torna esattamente com'era prima dell'operazione.
type BulkDeleteScenesCommand struct {
	CompositeCommand
	onProgress ProgressFunc
}

// NewBulkDeleteScenesCommand costruisce il comando bulk: gli id che non
// risolvono a una scena vengono saltati (non devono far fallire il resto)
func NewBulkDeleteScenesCommand(hooks model.EditorHooks, adv *model.Adventure, sceneIDs []string, onProgress ProgressFunc) *BulkDeleteScenesCommand {
	children := make([]Command, 0, len(sceneIDs))
	for _, id := range sceneIDs {
		if scene, exists := adv.Scenes[id]; exists {
			children = append(children, NewDeleteSceneCommand(hooks, scene))
		}
	}
	cmd := &BulkDeleteScenesCommand{
		CompositeCommand: *NewCompositeCommand(
			fmt.Sprintf("Elimina %d scene", len(children)), children),
		onProgress: onProgress,
	}
	return cmd
}

// Execute ridefinisce il composito per riportare l'avanzamento
// incrementale; il rollback resta quello atomico della base
func (c *BulkDeleteScenesCommand) Execute(ctx context.Context) error {
	total := len(c.children)
	for i, child := range c.children {
		if err := child.Execute(ctx); err != nil {
			log.Printf("❌ Bulk delete interrotto a %d/%d: %v", i+1, total, err)
			c.rollback(ctx, i-1)
			return fmt.Errorf("eliminazione %d/%d '%s': %w", i+1, total, child.Description(), err)
		}
		if c.onProgress != nil {
			c.onProgress(i+1, total)
		}
	}
	return nil
}
