package model

import "fmt"

// Workspace è l'implementazione in-memory di EditorHooks usata dal server
// (e dai test). Mantiene l'avventura corrente e applica le mutazioni
// richieste dai comandi. Non è thread-safe: il manager della history
// garantisce che i comandi non si sovrappongano.
type Workspace struct {
	adventure *Adventure
}

// NewWorkspace crea un workspace con un'avventura vuota
func NewWorkspace() *Workspace {
	return &Workspace{adventure: NewAdventure("Untitled")}
}

// Adventure restituisce l'avventura corrente
func (w *Workspace) Adventure() *Adventure {
	return w.adventure
}

// OnSceneCreate aggiunge una scena al grafo
func (w *Workspace) OnSceneCreate(scene *Scene) error {
	if scene == nil || scene.ID == "" {
		return fmt.Errorf("scena senza id")
	}
	if _, exists := w.adventure.Scenes[scene.ID]; exists {
		return fmt.Errorf("scena '%s' già esistente", scene.ID)
	}
	w.adventure.Scenes[scene.ID] = scene
	w.adventure.Touch()
	return nil
}

// OnSceneDelete rimuove una scena. Le scelte che la puntavano restano
// dangling: è la validazione a segnalarle, non il workspace a romperle.
func (w *Workspace) OnSceneDelete(sceneID string) error {
	if _, exists := w.adventure.Scenes[sceneID]; !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	delete(w.adventure.Scenes, sceneID)
	w.adventure.Touch()
	return nil
}

// OnSceneMove sposta una scena nell'editor
func (w *Workspace) OnSceneMove(sceneID string, pos Position) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	scene.Position = pos
	w.adventure.Touch()
	return nil
}

// OnSceneUpdate aggiorna titolo e contenuto di una scena
func (w *Workspace) OnSceneUpdate(sceneID, title, content string) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	scene.Title = title
	scene.Content = content
	w.adventure.Touch()
	return nil
}

// OnChoiceAdd aggiunge una scelta a una scena
func (w *Workspace) OnChoiceAdd(sceneID string, choice *Choice) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	if choice == nil || choice.ID == "" {
		return fmt.Errorf("scelta senza id")
	}
	if scene.FindChoice(choice.ID) != nil {
		return fmt.Errorf("scelta '%s' già esistente in '%s'", choice.ID, sceneID)
	}
	scene.Choices = append(scene.Choices, choice)
	w.adventure.Touch()
	return nil
}

// OnChoiceDelete rimuove una scelta da una scena
func (w *Workspace) OnChoiceDelete(sceneID, choiceID string) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	for i, ch := range scene.Choices {
		if ch.ID == choiceID {
			scene.Choices = append(scene.Choices[:i], scene.Choices[i+1:]...)
			w.adventure.Touch()
			return nil
		}
	}
	return fmt.Errorf("scelta '%s' non trovata in '%s'", choiceID, sceneID)
}

// OnChoiceUpdate sostituisce una scelta esistente preservandone la posizione
func (w *Workspace) OnChoiceUpdate(sceneID string, choice *Choice) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	for i, ch := range scene.Choices {
		if ch.ID == choice.ID {
			scene.Choices[i] = choice
			w.adventure.Touch()
			return nil
		}
	}
	return fmt.Errorf("scelta '%s' non trovata in '%s'", choice.ID, sceneID)
}

// OnConnectionCreate imposta il target di una scelta esistente
func (w *Workspace) OnConnectionCreate(sceneID, choiceID, targetID string) error {
	return w.setChoiceTarget(sceneID, choiceID, targetID)
}

// OnConnectionDelete scollega una scelta dal suo target
func (w *Workspace) OnConnectionDelete(sceneID, choiceID string) error {
	return w.setChoiceTarget(sceneID, choiceID, "")
}

func (w *Workspace) setChoiceTarget(sceneID, choiceID, targetID string) error {
	scene, exists := w.adventure.Scenes[sceneID]
	if !exists {
		return fmt.Errorf("scena '%s' non trovata", sceneID)
	}
	choice := scene.FindChoice(choiceID)
	if choice == nil {
		return fmt.Errorf("scelta '%s' non trovata in '%s'", choiceID, sceneID)
	}
	choice.Target = targetID
	w.adventure.Touch()
	return nil
}

// OnStatAdd definisce un nuovo stat
func (w *Workspace) OnStatAdd(stat *Stat) error {
	if stat == nil || stat.ID == "" {
		return fmt.Errorf("stat senza id")
	}
	if _, exists := w.adventure.Stats[stat.ID]; exists {
		return fmt.Errorf("stat '%s' già esistente", stat.ID)
	}
	w.adventure.Stats[stat.ID] = stat
	w.adventure.Touch()
	return nil
}

// OnStatUpdate sostituisce la definizione di uno stat
func (w *Workspace) OnStatUpdate(stat *Stat) error {
	if _, exists := w.adventure.Stats[stat.ID]; !exists {
		return fmt.Errorf("stat '%s' non trovato", stat.ID)
	}
	w.adventure.Stats[stat.ID] = stat
	w.adventure.Touch()
	return nil
}

// OnStatDelete rimuove uno stat. I riferimenti residui in condizioni e
// azioni restano: diventeranno errori di validazione.
func (w *Workspace) OnStatDelete(statID string) error {
	if _, exists := w.adventure.Stats[statID]; !exists {
		return fmt.Errorf("stat '%s' non trovato", statID)
	}
	delete(w.adventure.Stats, statID)
	w.adventure.Touch()
	return nil
}

// OnAdventureImport sostituisce l'intera avventura
func (w *Workspace) OnAdventureImport(adv *Adventure) error {
	if adv == nil {
		return fmt.Errorf("avventura nulla")
	}
	w.adventure = adv
	w.adventure.Touch()
	return nil
}

// OnAdventureClear svuota il workspace
func (w *Workspace) OnAdventureClear() error {
	w.adventure = NewAdventure("Untitled")
	return nil
}
