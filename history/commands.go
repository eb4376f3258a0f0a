package history

import (
	"context"
	"fmt"

	"adventure-editor/model"
)

// Tag di tipo dei comandi concreti
const (
	TypeSceneCreate      = "scene:create"
	TypeSceneDelete      = "scene:delete"
	TypeSceneMove        = "scene:move"
	TypeSceneUpdate      = "scene:update"
	TypeChoiceAdd        = "choice:add"
	TypeChoiceDelete     = "choice:delete"
	TypeChoiceUpdate     = "choice:update"
	TypeConnectionCreate = "connection:create"
	TypeConnectionDelete = "connection:delete"
	TypeStatAdd          = "stat:add"
	TypeStatUpdate       = "stat:update"
	TypeStatDelete       = "stat:delete"
	TypeAdventureImport  = "adventure:import"
	TypeAdventureClear   = "adventure:clear"
)

// ============================================
// Scene
// ============================================

// CreateSceneCommand aggiunge una scena al grafo
type CreateSceneCommand struct {
	BaseCommand
	hooks model.EditorHooks
	scene *model.Scene
}

// NewCreateSceneCommand crea il comando di creazione scena
func NewCreateSceneCommand(hooks model.EditorHooks, scene *model.Scene) *CreateSceneCommand {
	return &CreateSceneCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Crea scena '%s'", scene.ID), TypeSceneCreate),
		hooks:       hooks,
		scene:       scene.Clone(),
	}
}

// Execute aggiunge la scena tramite gli hook dell'editor
func (c *CreateSceneCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnSceneCreate(c.scene.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo rimuove la scena creata
func (c *CreateSceneCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnSceneDelete(c.scene.ID); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// DeleteSceneCommand rimuove una scena, conservandone lo snapshot per l'undo
type DeleteSceneCommand struct {
	BaseCommand
	hooks    model.EditorHooks
	snapshot *model.Scene
}

// NewDeleteSceneCommand crea il comando di cancellazione: scene è lo
// stato corrente della scena, clonato come snapshot
func NewDeleteSceneCommand(hooks model.EditorHooks, scene *model.Scene) *DeleteSceneCommand {
	cmd := &DeleteSceneCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Elimina scena '%s'", scene.ID), TypeSceneDelete),
		hooks:       hooks,
		snapshot:    scene.Clone(),
	}
	cmd.setGroupable("delete")
	return cmd
}

// Execute rimuove la scena
func (c *DeleteSceneCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnSceneDelete(c.snapshot.ID); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la scena dallo snapshot
func (c *DeleteSceneCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnSceneCreate(c.snapshot.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// MoveSceneCommand sposta una scena nell'editor. È mergeable: una
// sequenza di drag sulla stessa scena collassa in un solo passo di undo.
type MoveSceneCommand struct {
	BaseCommand
	hooks   model.EditorHooks
	sceneID string
	from    model.Position
	to      model.Position
}

// NewMoveSceneCommand crea il comando di spostamento
func NewMoveSceneCommand(hooks model.EditorHooks, sceneID string, from, to model.Position) *MoveSceneCommand {
	cmd := &MoveSceneCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Sposta scena '%s'", sceneID), TypeSceneMove),
		hooks:       hooks,
		sceneID:     sceneID,
		from:        from,
		to:          to,
	}
	cmd.setMergeable("move")
	return cmd
}

// Execute applica la nuova posizione
func (c *MoveSceneCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnSceneMove(c.sceneID, c.to); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la posizione precedente
func (c *MoveSceneCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnSceneMove(c.sceneID, c.from); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// MergeWith fonde un altro move sulla stessa scena: il ricevente adotta
// la posizione finale dell'altro, la partenza resta quella originale
func (c *MoveSceneCommand) MergeWith(other Command) bool {
	o, ok := other.(*MoveSceneCommand)
	if !ok || !o.Mergeable() || o.sceneID != c.sceneID || o.GroupType() != c.GroupType() {
		return false
	}
	c.to = o.to
	c.touch()
	return true
}

// Target restituisce la posizione finale registrata (per test e UI)
func (c *MoveSceneCommand) Target() model.Position { return c.to }

// UpdateSceneCommand aggiorna titolo e contenuto. Mergeable: la
// battitura continua sulla stessa scena collassa in un solo undo.
type UpdateSceneCommand struct {
	BaseCommand
	hooks      model.EditorHooks
	sceneID    string
	oldTitle   string
	oldContent string
	newTitle   string
	newContent string
}

// NewUpdateSceneCommand crea il comando di aggiornamento scena
func NewUpdateSceneCommand(hooks model.EditorHooks, scene *model.Scene, title, content string) *UpdateSceneCommand {
	cmd := &UpdateSceneCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Modifica scena '%s'", scene.ID), TypeSceneUpdate),
		hooks:       hooks,
		sceneID:     scene.ID,
		oldTitle:    scene.Title,
		oldContent:  scene.Content,
		newTitle:    title,
		newContent:  content,
	}
	cmd.setMergeable("typing")
	return cmd
}

// Execute applica il nuovo testo
func (c *UpdateSceneCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnSceneUpdate(c.sceneID, c.newTitle, c.newContent); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina il testo precedente
func (c *UpdateSceneCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnSceneUpdate(c.sceneID, c.oldTitle, c.oldContent); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// MergeWith fonde un altro update sulla stessa scena
func (c *UpdateSceneCommand) MergeWith(other Command) bool {
	o, ok := other.(*UpdateSceneCommand)
	if !ok || !o.Mergeable() || o.sceneID != c.sceneID || o.GroupType() != c.GroupType() {
		return false
	}
	c.newTitle = o.newTitle
	c.newContent = o.newContent
	c.touch()
	return true
}

// ============================================
// Choice
// ============================================

// AddChoiceCommand aggiunge una scelta a una scena
type AddChoiceCommand struct {
	BaseCommand
	hooks   model.EditorHooks
	sceneID string
	choice  *model.Choice
}

// NewAddChoiceCommand crea il comando di aggiunta scelta
func NewAddChoiceCommand(hooks model.EditorHooks, sceneID string, choice *model.Choice) *AddChoiceCommand {
	return &AddChoiceCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Aggiungi scelta '%s' a '%s'", choice.ID, sceneID), TypeChoiceAdd),
		hooks:       hooks,
		sceneID:     sceneID,
		choice:      choice.Clone(),
	}
}

// Execute aggiunge la scelta
func (c *AddChoiceCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnChoiceAdd(c.sceneID, c.choice.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo rimuove la scelta aggiunta
func (c *AddChoiceCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnChoiceDelete(c.sceneID, c.choice.ID); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// DeleteChoiceCommand rimuove una scelta conservandone lo snapshot
type DeleteChoiceCommand struct {
	BaseCommand
	hooks    model.EditorHooks
	sceneID  string
	snapshot *model.Choice
}

// NewDeleteChoiceCommand crea il comando di cancellazione scelta
func NewDeleteChoiceCommand(hooks model.EditorHooks, sceneID string, choice *model.Choice) *DeleteChoiceCommand {
	return &DeleteChoiceCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Elimina scelta '%s' da '%s'", choice.ID, sceneID), TypeChoiceDelete),
		hooks:       hooks,
		sceneID:     sceneID,
		snapshot:    choice.Clone(),
	}
}

// Execute rimuove la scelta
func (c *DeleteChoiceCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnChoiceDelete(c.sceneID, c.snapshot.ID); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la scelta dallo snapshot
func (c *DeleteChoiceCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnChoiceAdd(c.sceneID, c.snapshot.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// UpdateChoiceCommand sostituisce una scelta conservando la precedente
type UpdateChoiceCommand struct {
	BaseCommand
	hooks     model.EditorHooks
	sceneID   string
	oldChoice *model.Choice
	newChoice *model.Choice
}

// NewUpdateChoiceCommand crea il comando di aggiornamento scelta
func NewUpdateChoiceCommand(hooks model.EditorHooks, sceneID string, oldChoice, newChoice *model.Choice) *UpdateChoiceCommand {
	return &UpdateChoiceCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Modifica scelta '%s' in '%s'", newChoice.ID, sceneID), TypeChoiceUpdate),
		hooks:       hooks,
		sceneID:     sceneID,
		oldChoice:   oldChoice.Clone(),
		newChoice:   newChoice.Clone(),
	}
}

// Execute applica la nuova versione della scelta
func (c *UpdateChoiceCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnChoiceUpdate(c.sceneID, c.newChoice.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la versione precedente
func (c *UpdateChoiceCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnChoiceUpdate(c.sceneID, c.oldChoice.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// ============================================
// Connection
// ============================================

// CreateConnectionCommand imposta il target di una scelta
type CreateConnectionCommand struct {
	BaseCommand
	hooks     model.EditorHooks
	sceneID   string
	choiceID  string
	oldTarget string
	newTarget string
}

// NewCreateConnectionCommand crea il comando di collegamento
func NewCreateConnectionCommand(hooks model.EditorHooks, sceneID, choiceID, oldTarget, newTarget string) *CreateConnectionCommand {
	return &CreateConnectionCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Collega '%s' → '%s'", sceneID, newTarget), TypeConnectionCreate),
		hooks:       hooks,
		sceneID:     sceneID,
		choiceID:    choiceID,
		oldTarget:   oldTarget,
		newTarget:   newTarget,
	}
}

// Execute crea la connessione
func (c *CreateConnectionCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnConnectionCreate(c.sceneID, c.choiceID, c.newTarget); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina il target precedente (anche vuoto)
func (c *CreateConnectionCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnConnectionCreate(c.sceneID, c.choiceID, c.oldTarget); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// DeleteConnectionCommand scollega una scelta dal suo target
type DeleteConnectionCommand struct {
	BaseCommand
	hooks     model.EditorHooks
	sceneID   string
	choiceID  string
	oldTarget string
}

// NewDeleteConnectionCommand crea il comando di scollegamento
func NewDeleteConnectionCommand(hooks model.EditorHooks, sceneID, choiceID, oldTarget string) *DeleteConnectionCommand {
	return &DeleteConnectionCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Scollega la scelta '%s' di '%s'", choiceID, sceneID), TypeConnectionDelete),
		hooks:       hooks,
		sceneID:     sceneID,
		choiceID:    choiceID,
		oldTarget:   oldTarget,
	}
}

// Execute rimuove la connessione
func (c *DeleteConnectionCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnConnectionDelete(c.sceneID, c.choiceID); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la connessione
func (c *DeleteConnectionCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnConnectionCreate(c.sceneID, c.choiceID, c.oldTarget); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// ============================================
// Stat
// ============================================

// AddStatCommand definisce un nuovo stat
type AddStatCommand struct {
	BaseCommand
	hooks model.EditorHooks
	stat  *model.Stat
}

// NewAddStatCommand crea il comando di aggiunta stat
func NewAddStatCommand(hooks model.EditorHooks, stat *model.Stat) *AddStatCommand {
	return &AddStatCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Aggiungi stat '%s'", stat.ID), TypeStatAdd),
		hooks:       hooks,
		stat:        stat.Clone(),
	}
}

// Execute definisce lo stat
func (c *AddStatCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnStatAdd(c.stat.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo rimuove lo stat definito
func (c *AddStatCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnStatDelete(c.stat.ID); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// UpdateStatCommand sostituisce la definizione di uno stat
type UpdateStatCommand struct {
	BaseCommand
	hooks   model.EditorHooks
	oldStat *model.Stat
	newStat *model.Stat
}

// NewUpdateStatCommand crea il comando di aggiornamento stat
func NewUpdateStatCommand(hooks model.EditorHooks, oldStat, newStat *model.Stat) *UpdateStatCommand {
	return &UpdateStatCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Modifica stat '%s'", newStat.ID), TypeStatUpdate),
		hooks:       hooks,
		oldStat:     oldStat.Clone(),
		newStat:     newStat.Clone(),
	}
}

// Execute applica la nuova definizione
func (c *UpdateStatCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnStatUpdate(c.newStat.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina la definizione precedente
func (c *UpdateStatCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnStatUpdate(c.oldStat.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// DeleteStatCommand rimuove uno stat conservandone lo snapshot
type DeleteStatCommand struct {
	BaseCommand
	hooks    model.EditorHooks
	snapshot *model.Stat
}

// NewDeleteStatCommand crea il comando di cancellazione stat
func NewDeleteStatCommand(hooks model.EditorHooks, stat *model.Stat) *DeleteStatCommand {
	return &DeleteStatCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Elimina stat '%s'", stat.ID), TypeStatDelete),
		hooks:       hooks,
		snapshot:    stat.Clone(),
	}
}

// Execute rimuove lo stat
func (c *DeleteStatCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnStatDelete(c.snapshot.ID); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina lo stat
func (c *DeleteStatCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnStatAdd(c.snapshot.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// ============================================
// Adventure
// ============================================

// ImportAdventureCommand sostituisce l'intera avventura conservando la
// precedente per l'undo
type ImportAdventureCommand struct {
	BaseCommand
	hooks model.EditorHooks
	prev  *model.Adventure
	next  *model.Adventure
}

// NewImportAdventureCommand crea il comando di import: prev è lo stato
// corrente del workspace, next l'avventura importata
func NewImportAdventureCommand(hooks model.EditorHooks, prev, next *model.Adventure) *ImportAdventureCommand {
	return &ImportAdventureCommand{
		BaseCommand: NewBaseCommand(fmt.Sprintf("Importa avventura '%s'", next.Title), TypeAdventureImport),
		hooks:       hooks,
		prev:        prev.Clone(),
		next:        next.Clone(),
	}
}

// Execute importa la nuova avventura
func (c *ImportAdventureCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnAdventureImport(c.next.Clone()); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina l'avventura precedente
func (c *ImportAdventureCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnAdventureImport(c.prev.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}

// ClearAdventureCommand svuota il workspace conservando lo stato per l'undo
type ClearAdventureCommand struct {
	BaseCommand
	hooks model.EditorHooks
	prev  *model.Adventure
}

// NewClearAdventureCommand crea il comando di clear
func NewClearAdventureCommand(hooks model.EditorHooks, prev *model.Adventure) *ClearAdventureCommand {
	return &ClearAdventureCommand{
		BaseCommand: NewBaseCommand("Svuota avventura", TypeAdventureClear),
		hooks:       hooks,
		prev:        prev.Clone(),
	}
}

// Execute svuota l'avventura
func (c *ClearAdventureCommand) Execute(ctx context.Context) error {
	if err := c.hooks.OnAdventureClear(); err != nil {
		return err
	}
	c.markExecuted(true)
	return nil
}

// Undo ripristina l'avventura precedente
func (c *ClearAdventureCommand) Undo(ctx context.Context) error {
	if err := c.hooks.OnAdventureImport(c.prev.Clone()); err != nil {
		return err
	}
	c.markExecuted(false)
	return nil
}
