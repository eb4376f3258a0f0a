package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"adventure-editor/model"
)

// RuleFunc è il contratto di una regola: legge avventura e contesto,
// appende i finding al risultato. Non deve mutare il contesto.
type RuleFunc func(adv *model.Adventure, ctx *Context, res *Result) error

// Rule rappresenta una regola registrata
type Rule struct {
	Name     string   `json:"name"`
	Level    Level    `json:"level"`
	Category string   `json:"category"`
	Custom   bool     `json:"custom"`
	Evaluate RuleFunc `json:"-"`
}

// RuleRegistry mantiene le regole registrate in ordine di registrazione.
// Le built-in girano sempre prima delle custom.
type RuleRegistry struct {
	mu       sync.RWMutex
	builtin  []*Rule
	custom   []*Rule
	names    map[string]bool
	onChange func() // invalida la cache del validatore
}

// NewRuleRegistry crea un registro con le regole built-in già caricate
func NewRuleRegistry() *RuleRegistry {
	reg := &RuleRegistry{names: make(map[string]bool)}
	for _, rule := range builtinRules() {
		reg.builtin = append(reg.builtin, rule)
		reg.names[rule.Name] = true
	}
	return reg
}

// AddRule registra una regola custom con livello e categoria espliciti
func (reg *RuleRegistry) AddRule(name string, level Level, category string, evaluate RuleFunc) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if name == "" || evaluate == nil {
		return fmt.Errorf("regola senza nome o senza funzione")
	}
	if reg.names[name] {
		return fmt.Errorf("regola '%s' già registrata", name)
	}
	reg.custom = append(reg.custom, &Rule{
		Name:     name,
		Level:    level,
		Category: "custom:" + category,
		Custom:   true,
		Evaluate: evaluate,
	})
	reg.names[name] = true
	reg.notifyChange()
	return nil
}

// AddCustomRule registra una regola custom con livello warning e
// categoria generica
func (reg *RuleRegistry) AddCustomRule(name string, evaluate RuleFunc) error {
	return reg.AddRule(name, LevelWarning, "general", evaluate)
}

// RemoveRule rimuove una regola (built-in o custom) per nome
func (reg *RuleRegistry) RemoveRule(name string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if !reg.names[name] {
		return fmt.Errorf("regola '%s' non registrata", name)
	}
	reg.builtin = removeByName(reg.builtin, name)
	reg.custom = removeByName(reg.custom, name)
	delete(reg.names, name)
	reg.notifyChange()
	return nil
}

func removeByName(rules []*Rule, name string) []*Rule {
	for i, rule := range rules {
		if rule.Name == name {
			return append(rules[:i], rules[i+1:]...)
		}
	}
	return rules
}

// Rules restituisce lo snapshot ordinato delle regole: built-in prima,
// custom dopo, ciascun gruppo in ordine di registrazione
func (reg *RuleRegistry) Rules() []*Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]*Rule, 0, len(reg.builtin)+len(reg.custom))
	out = append(out, reg.builtin...)
	out = append(out, reg.custom...)
	return out
}

// notifyChange va chiamato con il lock già preso
func (reg *RuleRegistry) notifyChange() {
	if reg.onChange != nil {
		reg.onChange()
	}
}

// runRules esegue tutte le regole in ordine. Una regola che fallisce
// (errore o panic) viene degradata a warning "rule X failed" e non blocca
// le successive: una regola custom rotta non deve fermare la validazione.
func runRules(rules []*Rule, adv *model.Adventure, ctx *Context, res *Result) {
	for _, rule := range rules {
		runRule(rule, adv, ctx, res)
	}
}

func runRule(rule *Rule, adv *model.Adventure, ctx *Context, res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res.AddWarning(rule.Name, fmt.Sprintf("rule %s failed: %v", rule.Name, r))
		}
	}()
	if err := rule.Evaluate(adv, ctx, res); err != nil {
		res.AddWarning(rule.Name, fmt.Sprintf("rule %s failed: %v", rule.Name, err))
	}
}

// ============================================
// Regole built-in
// ============================================

func builtinRules() []*Rule {
	return []*Rule{
		{Name: "missing-start", Level: LevelError, Category: "structure", Evaluate: ruleMissingStart},
		{Name: "choice-target", Level: LevelError, Category: "structure", Evaluate: ruleChoiceTarget},
		{Name: "self-reference", Level: LevelWarning, Category: "structure", Evaluate: ruleSelfReference},
		{Name: "orphaned-scene", Level: LevelWarning, Category: "reachability", Evaluate: ruleOrphanedScenes},
		{Name: "circular-reference", Level: LevelWarning, Category: "reachability", Evaluate: ruleCircularReferences},
		{Name: "dead-end", Level: LevelWarning, Category: "structure", Evaluate: ruleDeadEnds},
		{Name: "undefined-stat", Level: LevelError, Category: "stats", Evaluate: ruleUndefinedStats},
		{Name: "unused-stat", Level: LevelInfo, Category: "stats", Evaluate: ruleUnusedStats},
		{Name: "high-complexity", Level: LevelWarning, Category: "complexity", Evaluate: ruleHighComplexity},
	}
}

// ruleMissingStart: scena di partenza assente o dangling = errore bloccante
func ruleMissingStart(adv *model.Adventure, ctx *Context, res *Result) error {
	if adv.StartScene == "" {
		res.AddError("missing-start", "nessuna scena di partenza dichiarata",
			WithSuggestion("imposta start_scene su una scena esistente"))
		return nil
	}
	if _, exists := adv.Scenes[adv.StartScene]; !exists {
		res.AddError("missing-start",
			fmt.Sprintf("la scena di partenza '%s' non esiste", adv.StartScene),
			WithSuggestion("imposta start_scene su una scena esistente"))
	}
	return nil
}

// ruleChoiceTarget: target dangling = errore bloccante (rompe la giocabilità)
func ruleChoiceTarget(adv *model.Adventure, ctx *Context, res *Result) error {
	for _, id := range ctx.SceneIDs {
		scene := ctx.Scene(id)
		for _, choice := range scene.Choices {
			if choice.Target == "" {
				continue
			}
			if _, exists := adv.Scenes[choice.Target]; !exists {
				res.AddError("choice-target",
					fmt.Sprintf("la scelta '%s' in '%s' punta alla scena inesistente '%s'", choice.ID, id, choice.Target),
					AtChoice(id, choice.ID),
					WithSuggestion("collega la scelta a una scena esistente o rimuovila"))
			}
		}
	}
	return nil
}

// ruleSelfReference: una scelta che punta alla propria scena è un warning,
// non un errore (i self-loop a volte sono voluti)
func ruleSelfReference(adv *model.Adventure, ctx *Context, res *Result) error {
	for _, id := range ctx.SceneIDs {
		scene := ctx.Scene(id)
		for _, choice := range scene.Choices {
			if choice.Target == id {
				res.AddWarning("self-reference",
					fmt.Sprintf("la scelta '%s' in '%s' punta alla scena stessa", choice.ID, id),
					AtChoice(id, choice.ID))
			}
		}
	}
	return nil
}

// ruleOrphanedScenes: scene non raggiungibili dalla partenza
func ruleOrphanedScenes(adv *model.Adventure, ctx *Context, res *Result) error {
	for _, id := range ctx.Orphans {
		res.AddWarning("orphaned-scene",
			fmt.Sprintf("la scena '%s' non è raggiungibile dalla partenza", id),
			AtScene(id),
			WithSuggestion("collega la scena al grafo o eliminala"))
	}
	return nil
}

// ruleCircularReferences: un finding per ogni ciclo canonico rilevato
func ruleCircularReferences(adv *model.Adventure, ctx *Context, res *Result) error {
	for _, cycle := range ctx.Cycles {
		res.AddWarning("circular-reference",
			fmt.Sprintf("riferimento circolare: %s", strings.Join(cycle, " → ")),
			AtScene(cycle[0]),
			WithDetails(map[string]interface{}{"cycle": cycle}))
	}
	return nil
}

// ruleDeadEnds: scene senza scelte in uscita
func ruleDeadEnds(adv *model.Adventure, ctx *Context, res *Result) error {
	for _, id := range ctx.DeadEnds {
		res.AddWarning("dead-end",
			fmt.Sprintf("la scena '%s' non ha scelte in uscita", id),
			AtScene(id),
			WithSuggestion("aggiungi almeno una scelta o marca la scena come finale"))
	}
	return nil
}

// ruleUndefinedStats: stat usato ma mai definito = errore bloccante
func ruleUndefinedStats(adv *model.Adventure, ctx *Context, res *Result) error {
	stats := make([]string, 0, len(ctx.UsedStats))
	for stat := range ctx.UsedStats {
		stats = append(stats, stat)
	}
	sort.Strings(stats)

	for _, stat := range stats {
		if _, defined := adv.Stats[stat]; !defined {
			res.AddError("undefined-stat",
				fmt.Sprintf("lo stat '%s' è usato in %v ma non è definito", stat, ctx.UsedStats[stat]),
				WithSuggestion(fmt.Sprintf("definisci lo stat '%s' oppure rimuovi i riferimenti", stat)))
		}
	}
	return nil
}

// ruleUnusedStats: stat definito ma mai usato = solo informativo
func ruleUnusedStats(adv *model.Adventure, ctx *Context, res *Result) error {
	stats := make([]string, 0, len(adv.Stats))
	for stat := range adv.Stats {
		stats = append(stats, stat)
	}
	sort.Strings(stats)

	for _, stat := range stats {
		if _, used := ctx.UsedStats[stat]; !used {
			res.AddInfo("unused-stat", fmt.Sprintf("lo stat '%s' è definito ma mai usato", stat))
		}
	}
	return nil
}

// complexityThreshold è la soglia oltre cui una scena è considerata
// troppo complessa
const complexityThreshold = 10.0

// ruleHighComplexity: un unico warning aggregato con tutte le scene oltre soglia
func ruleHighComplexity(adv *model.Adventure, ctx *Context, res *Result) error {
	offenders := []string{}
	for _, id := range ctx.SceneIDs {
		if ctx.Complexity[id] > complexityThreshold {
			offenders = append(offenders, id)
		}
	}
	if len(offenders) > 0 {
		res.AddWarning("high-complexity",
			fmt.Sprintf("%d scene oltre la soglia di complessità (%.0f): %s",
				len(offenders), complexityThreshold, strings.Join(offenders, ", ")),
			WithDetails(map[string]interface{}{"scenes": offenders, "threshold": complexityThreshold}))
	}
	return nil
}
