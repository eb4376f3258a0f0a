package simulator

import (
	"fmt"
	"reflect"

	"adventure-editor/model"
)

// PathSimulator simula un percorso attraverso l'avventura applicando
// azioni e condizioni agli stat
type PathSimulator struct {
	adventure *model.Adventure
}

// StatChange rappresenta il cambiamento di uno stat in uno step
type StatChange struct {
	Stat     string      `json:"stat"`
	Previous interface{} `json:"previous"`
	Current  interface{} `json:"current"`
	Delta    interface{} `json:"delta,omitempty"` // Solo per numeri
}

// StepResult risultato di un singolo step
type StepResult struct {
	SceneID        string                `json:"scene_id"`
	SceneIndex     int                   `json:"scene_index"`
	ChoiceTaken    string                `json:"choice_taken,omitempty"`
	Changes        map[string]StatChange `json:"changes"`
	Warnings       []string              `json:"warnings,omitempty"`
	AvailableLinks []string              `json:"available_links"`
}

// SimulationResult risultato completo della simulazione
type SimulationResult struct {
	Success       bool            `json:"success"`
	Path          []string        `json:"path"`
	Steps         []StepResult    `json:"steps"`
	FinalState    model.StatState `json:"final_state"`
	Errors        []string        `json:"errors,omitempty"`
	TotalWarnings int             `json:"total_warnings"`
}

// NewPathSimulator crea un nuovo simulatore
func NewPathSimulator(adv *model.Adventure) *PathSimulator {
	return &PathSimulator{adventure: adv}
}

// ValidatePath verifica che il percorso sia valido: le scene esistono,
// ogni passo segue una scelta reale e le condizioni della scelta sono
// soddisfatte dallo stato simulato fino a quel punto
func (ps *PathSimulator) ValidatePath(path []string) []string {
	errors := []string{}

	// Verifica che tutte le scene esistano
	for i, sceneID := range path {
		if _, exists := ps.adventure.Scenes[sceneID]; !exists {
			errors = append(errors, fmt.Sprintf("Step %d: la scena '%s' non esiste", i+1, sceneID))
		}
	}

	// Verifica i collegamenti e le condizioni, simulando lo stato
	state := ps.adventure.InitialState()
	for i := 0; i < len(path)-1; i++ {
		currentID := path[i]
		nextID := path[i+1]

		scene, exists := ps.adventure.Scenes[currentID]
		if !exists {
			continue // Già segnalato sopra
		}
		applyActions(scene.OnEnter, state)

		choice := findChoiceTo(scene, nextID)
		if choice == nil {
			errors = append(errors, fmt.Sprintf(
				"Step %d→%d: '%s' non ha una scelta verso '%s'. Target disponibili: %v",
				i+1, i+2, currentID, nextID, sceneTargets(scene),
			))
			continue
		}
		if !conditionsMet(choice, state) {
			errors = append(errors, fmt.Sprintf(
				"Step %d→%d: le condizioni della scelta '%s' non sono soddisfatte",
				i+1, i+2, choice.ID,
			))
		}
		applyActions(choice.Actions, state)
		applyActions(scene.OnExit, state)
	}

	return errors
}

// SimulatePath simula l'esecuzione di un percorso step per step
func (ps *PathSimulator) SimulatePath(path []string) *SimulationResult {
	result := &SimulationResult{
		Success:    true,
		Path:       path,
		Steps:      []StepResult{},
		FinalState: model.StatState{},
		Errors:     []string{},
	}

	// Valida il percorso prima di simulare
	validationErrors := ps.ValidatePath(path)
	if len(validationErrors) > 0 {
		result.Success = false
		result.Errors = validationErrors
		return result
	}

	state := ps.adventure.InitialState()

	for i, sceneID := range path {
		scene, exists := ps.adventure.Scenes[sceneID]
		if !exists {
			// Non dovrebbe mai succedere dopo la validazione
			continue
		}

		before := cloneState(state)
		step := StepResult{
			SceneID:        sceneID,
			SceneIndex:     i + 1,
			Changes:        make(map[string]StatChange),
			Warnings:       []string{},
			AvailableLinks: sceneTargets(scene),
		}

		applyActions(scene.OnEnter, state)

		// Applica le azioni della scelta presa per arrivare allo step dopo
		if i < len(path)-1 {
			if choice := findChoiceTo(scene, path[i+1]); choice != nil {
				step.ChoiceTaken = choice.ID
				applyActions(choice.Actions, state)
			}
		}
		applyActions(scene.OnExit, state)

		step.Changes = diffStates(before, state)
		step.Warnings = ps.rangeWarnings(step.Changes)
		result.TotalWarnings += len(step.Warnings)
		result.Steps = append(result.Steps, step)
	}

	result.FinalState = state
	return result
}

// GetSuggestedPaths suggerisce percorsi validi dato un punto di partenza
// (BFS, al massimo 10 percorsi)
func (ps *PathSimulator) GetSuggestedPaths(startScene string, maxDepth int) [][]string {
	paths := [][]string{}
	queue := [][]string{{startScene}}

	for len(queue) > 0 && len(paths) < 10 {
		currentPath := queue[0]
		queue = queue[1:]

		if len(currentPath) >= maxDepth {
			paths = append(paths, currentPath)
			continue
		}

		lastID := currentPath[len(currentPath)-1]
		scene, exists := ps.adventure.Scenes[lastID]
		if !exists {
			continue
		}

		targets := sceneTargets(scene)
		if len(targets) == 0 {
			// Fine del percorso
			paths = append(paths, currentPath)
			continue
		}
		for _, target := range targets {
			if _, known := ps.adventure.Scenes[target]; !known {
				continue // Target dangling: non espanso
			}
			newPath := make([]string, len(currentPath), len(currentPath)+1)
			copy(newPath, currentPath)
			newPath = append(newPath, target)
			queue = append(queue, newPath)
		}
	}

	return paths
}

// rangeWarnings genera warning per stat fuori dai limiti dichiarati
func (ps *PathSimulator) rangeWarnings(changes map[string]StatChange) []string {
	warnings := []string{}
	for statID, change := range changes {
		stat, defined := ps.adventure.Stats[statID]
		if !defined {
			warnings = append(warnings, fmt.Sprintf("⚠️ lo stat '%s' non è definito", statID))
			continue
		}
		val, isNum := model.ToNumber(change.Current)
		if !isNum {
			continue
		}
		if stat.Min != nil && val < *stat.Min {
			warnings = append(warnings, fmt.Sprintf("⚠️ '%s' sotto il minimo (%v < %v)", statID, val, *stat.Min))
		}
		if stat.Max != nil && val > *stat.Max {
			warnings = append(warnings, fmt.Sprintf("⚠️ '%s' sopra il massimo (%v > %v)", statID, val, *stat.Max))
		}
	}
	return warnings
}

// ============================================
// Helpers
// ============================================

func applyActions(actions []model.Action, state model.StatState) {
	for i := range actions {
		model.ApplyAction(&actions[i], state)
	}
}

func conditionsMet(choice *model.Choice, state model.StatState) bool {
	for i := range choice.Conditions {
		if !model.EvaluateCondition(&choice.Conditions[i], state) {
			return false
		}
	}
	return true
}

func findChoiceTo(scene *model.Scene, targetID string) *model.Choice {
	for _, choice := range scene.Choices {
		if choice.Target == targetID {
			return choice
		}
	}
	return nil
}

func sceneTargets(scene *model.Scene) []string {
	targets := []string{}
	for _, choice := range scene.Choices {
		if choice.Target != "" {
			targets = append(targets, choice.Target)
		}
	}
	return targets
}

func cloneState(state model.StatState) model.StatState {
	clone := make(model.StatState, len(state))
	for k, v := range state {
		clone[k] = v
	}
	return clone
}

func diffStates(before, after model.StatState) map[string]StatChange {
	changes := make(map[string]StatChange)
	for stat, current := range after {
		previous, existed := before[stat]
		if existed && sameValue(previous, current) {
			continue
		}
		change := StatChange{Stat: stat, Previous: previous, Current: current}
		if existed {
			prevNum, prevIsNum := model.ToNumber(previous)
			currNum, currIsNum := model.ToNumber(current)
			if prevIsNum && currIsNum {
				change.Delta = currNum - prevNum
			}
		}
		changes[stat] = change
	}
	return changes
}

// sameValue confronta due valori di stat: numeri in modo uniforme, tutto
// il resto strutturalmente. Il JSON può portare slice e map come valori,
// e l'uguaglianza diretta su interface{} farebbe panic.
func sameValue(a, b interface{}) bool {
	an, aNum := model.ToNumber(a)
	bn, bNum := model.ToNumber(b)
	if aNum && bNum {
		return an == bn
	}
	return reflect.DeepEqual(a, b)
}
