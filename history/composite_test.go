package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"adventure-editor/model"
)

// stepCommand registra su un log condiviso l'ordine di execute/undo
type stepCommand struct {
	BaseCommand
	name string
	log  *[]string
	fail bool
}

func newStepCommand(name string, log *[]string, fail bool) *stepCommand {
	return &stepCommand{
		BaseCommand: NewBaseCommand(name, "test:step"),
		name:        name,
		log:         log,
		fail:        fail,
	}
}

func (c *stepCommand) Execute(ctx context.Context) error {
	if c.fail {
		return errors.New("passo fallito")
	}
	*c.log = append(*c.log, "exec:"+c.name)
	c.markExecuted(true)
	return nil
}

func (c *stepCommand) Undo(ctx context.Context) error {
	*c.log = append(*c.log, "undo:"+c.name)
	c.markExecuted(false)
	return nil
}

// ============================================
// Test: CompositeCommand
// ============================================

func TestCompositeUndoesInReverseOrder(t *testing.T) {
	var log []string
	comp := NewCompositeCommand("tre passi", []Command{
		newStepCommand("1", &log, false),
		newStepCommand("2", &log, false),
		newStepCommand("3", &log, false),
	})
	ctx := context.Background()

	if err := comp.Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := comp.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	want := []string{"exec:1", "exec:2", "exec:3", "undo:3", "undo:2", "undo:1"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, log)
		}
	}

	t.Log("✅ Undo del composito in ordine inverso")
}

func TestCompositeRollsBackOnFailure(t *testing.T) {
	var log []string
	comp := NewCompositeCommand("con fallimento", []Command{
		newStepCommand("1", &log, false),
		newStepCommand("2", &log, false),
		newStepCommand("3", &log, true),
	})

	err := comp.Execute(context.Background())
	if err == nil {
		t.Fatal("Expected the composite to fail")
	}

	want := []string{"exec:1", "exec:2", "undo:2", "undo:1"}
	if fmt.Sprint(log) != fmt.Sprint(want) {
		t.Errorf("Expected rollback %v, got %v", want, log)
	}
	if comp.Executed() {
		t.Error("Expected composite not executed after rollback")
	}

	t.Logf("✅ Rollback in ordine inverso, errore propagato: %v", err)
}

func TestBatchFailureLeavesHistoryUntouched(t *testing.T) {
	ws := newTestWorkspace(t, "a", "b")
	m := NewManager()
	ctx := context.Background()

	cmds := []Command{
		NewDeleteSceneCommand(ws, ws.Adventure().Scenes["a"]),
		// Scena inesistente: la cancellazione fallirà a metà batch
		NewDeleteSceneCommand(ws, &model.Scene{ID: "ghost"}),
		NewDeleteSceneCommand(ws, ws.Adventure().Scenes["b"]),
	}

	err := m.ExecuteBatch(ctx, cmds, "Elimina 3 scene")
	if err == nil {
		t.Fatal("Expected the batch to fail")
	}

	// Il grafo è esattamente com'era prima
	if _, exists := ws.Adventure().Scenes["a"]; !exists {
		t.Error("Expected 'a' restored by the rollback")
	}
	if _, exists := ws.Adventure().Scenes["b"]; !exists {
		t.Error("Expected 'b' untouched")
	}
	// E la history non ha registrato nulla
	if len(m.History()) != 0 {
		t.Errorf("Expected empty history, got %+v", m.History())
	}
	if m.CanUndo() {
		t.Error("Expected nothing to undo after a failed batch")
	}

	t.Log("✅ Batch fallito: grafo intatto, history intatta")
}

func TestBatchUndoneAsSingleUnit(t *testing.T) {
	ws := newTestWorkspace(t, "a", "b")
	m := NewManager()
	ctx := context.Background()

	cmds := []Command{
		NewDeleteSceneCommand(ws, ws.Adventure().Scenes["a"]),
		NewDeleteSceneCommand(ws, ws.Adventure().Scenes["b"]),
	}
	if err := m.ExecuteBatch(ctx, cmds, "Elimina 2 scene"); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(ws.Adventure().Scenes) != 0 {
		t.Fatal("Expected both scenes deleted")
	}

	hist := m.History()
	if len(hist) != 1 || hist[0].Children != 2 {
		t.Fatalf("Expected one composite entry with 2 children, got %+v", hist)
	}

	if err := m.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(ws.Adventure().Scenes) != 2 {
		t.Errorf("Expected both scenes back after a single undo, got %d", len(ws.Adventure().Scenes))
	}

	t.Log("✅ Batch = una entry, un undo")
}

// ============================================
// Test: Bulk delete
// ============================================

// failingDeleteHooks fa fallire la cancellazione di una scena specifica
type failingDeleteHooks struct {
	*model.Workspace
	failOn string
}

func (h *failingDeleteHooks) OnSceneDelete(sceneID string) error {
	if sceneID == h.failOn {
		return fmt.Errorf("cancellazione di '%s' negata", sceneID)
	}
	return h.Workspace.OnSceneDelete(sceneID)
}

func TestBulkDeleteSkipsUnknownIDs(t *testing.T) {
	ws := newTestWorkspace(t, "a", "b")
	m := NewManager()
	ctx := context.Background()

	cmd := NewBulkDeleteScenesCommand(ws, ws.Adventure(), []string{"a", "ghost", "b"}, nil)
	if got := len(cmd.Children()); got != 2 {
		t.Fatalf("Expected 2 children (ghost skipped), got %d", got)
	}

	if err := m.ExecuteCommand(ctx, cmd); err != nil {
		t.Fatalf("ExecuteCommand: %v", err)
	}
	if len(ws.Adventure().Scenes) != 0 {
		t.Errorf("Expected all scenes deleted, got %d", len(ws.Adventure().Scenes))
	}

	t.Log("✅ Id sconosciuti saltati senza far fallire il bulk")
}

func TestBulkDeleteReportsProgress(t *testing.T) {
	ws := newTestWorkspace(t, "a", "b", "c")

	var progress []int
	cmd := NewBulkDeleteScenesCommand(ws, ws.Adventure(), []string{"a", "b", "c"}, func(done, total int) {
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
		progress = append(progress, done)
	})

	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fmt.Sprint(progress) != fmt.Sprint([]int{1, 2, 3}) {
		t.Errorf("Expected progress [1 2 3], got %v", progress)
	}

	t.Log("✅ Avanzamento incrementale riportato")
}

func TestBulkDeleteRollsBackAtomically(t *testing.T) {
	ws := newTestWorkspace(t, "a", "b", "c")
	hooks := &failingDeleteHooks{Workspace: ws, failOn: "c"}
	m := NewManager()
	ctx := context.Background()

	var progress []int
	cmd := NewBulkDeleteScenesCommand(hooks, ws.Adventure(), []string{"a", "b", "c"}, func(done, total int) {
		progress = append(progress, done)
	})

	err := m.ExecuteCommand(ctx, cmd)
	if err == nil {
		t.Fatal("Expected the bulk delete to fail on 'c'")
	}

	// a e b sono state cancellate e poi ripristinate dal rollback
	for _, id := range []string{"a", "b", "c"} {
		if _, exists := ws.Adventure().Scenes[id]; !exists {
			t.Errorf("Expected scene '%s' restored after rollback", id)
		}
	}
	if len(m.History()) != 0 {
		t.Errorf("Expected empty history after the failed bulk, got %+v", m.History())
	}
	// Il progresso si è fermato prima del passo fallito
	if fmt.Sprint(progress) != fmt.Sprint([]int{1, 2}) {
		t.Errorf("Expected progress [1 2], got %v", progress)
	}

	t.Log("✅ Bulk fallito a metà: grafo esattamente com'era")
}
