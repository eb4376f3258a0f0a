package validation

import (
	"sort"
	"strings"

	"adventure-editor/model"
)

// Stati di visita per la DFS di rilevamento cicli
const (
	white = 0 // mai visitato
	gray  = 1 // sullo stack di ricorsione corrente
	black = 2 // completamente esplorato
)

// analyzeReachability esegue una DFS dalla scena di partenza seguendo i
// target delle scelte. Target sconosciuti non vengono seguiti (non fanno
// crashare la visita, li segnala la regola sui target). Le scene mai
// visitate finiscono tra le orfane.
func analyzeReachability(ctx *Context) {
	start, exists := ctx.scenes[ctx.StartScene]
	if ctx.StartScene == "" || !exists {
		// Start mancante o dangling: insieme raggiungibile vuoto,
		// sarà la regola missing-start a produrre l'errore. Niente
		// orfane in questo caso: sarebbero tutte, puro rumore.
		return
	}

	stack := []string{start.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ctx.Reachable[id] {
			continue
		}
		ctx.Reachable[id] = true

		scene := ctx.scenes[id]
		if scene == nil {
			continue
		}
		for _, choice := range scene.Choices {
			if choice.Target == "" {
				continue
			}
			if _, known := ctx.scenes[choice.Target]; !known {
				continue // dangling: non seguito
			}
			if !ctx.Reachable[choice.Target] {
				stack = append(stack, choice.Target)
			}
		}
	}

	for _, id := range ctx.SceneIDs {
		if !ctx.Reachable[id] && id != ctx.StartScene {
			ctx.Orphans = append(ctx.Orphans, id)
		}
	}
}

// detectCycles rileva i cicli con una DFS a tre colori e stack di percorso
// esplicito: quando un vicino è ancora gray, la fetta di percorso dalla sua
// prima occorrenza fino al nodo corrente è un ciclo.
//
// Politica di deduplica: ogni ciclo viene canonicalizzato alla sua rotazione
// lessicograficamente minima prima del confronto, quindi più percorsi che
// raggiungono lo stesso anello producono un solo finding.
func detectCycles(ctx *Context) {
	state := make(map[string]int, len(ctx.SceneIDs))
	path := make([]string, 0, len(ctx.SceneIDs))
	seen := make(map[string]struct{})

	var visit func(id string)
	visit = func(id string) {
		state[id] = gray
		path = append(path, id)

		scene := ctx.scenes[id]
		if scene != nil {
			for _, choice := range scene.Choices {
				target := choice.Target
				if target == "" {
					continue
				}
				if _, known := ctx.scenes[target]; !known {
					continue
				}
				switch state[target] {
				case white:
					visit(target)
				case gray:
					recordCycle(target, path, seen, ctx)
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = black
	}

	for _, id := range ctx.SceneIDs {
		if state[id] == white {
			visit(id)
		}
	}

	// Output deterministico
	sort.Slice(ctx.Cycles, func(i, j int) bool {
		return strings.Join(ctx.Cycles[i], ",") < strings.Join(ctx.Cycles[j], ",")
	})
}

// recordCycle estrae il ciclo che si chiude su 'start' dallo stack di
// percorso, lo canonicalizza e lo registra se non è già noto
func recordCycle(start string, path []string, seen map[string]struct{}, ctx *Context) {
	idx := -1
	for i, id := range path {
		if id == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	base := append([]string(nil), path[idx:]...)
	canon := minimalRotation(base)
	sig := strings.Join(canon, ",")
	if _, exists := seen[sig]; exists {
		return
	}
	seen[sig] = struct{}{}

	// Ciclo chiuso: [v0, v1, ..., v0]
	closed := append(append([]string(nil), canon...), canon[0])
	ctx.Cycles = append(ctx.Cycles, closed)
}

// minimalRotation restituisce la rotazione lessicograficamente minima
// della sequenza (gli archi sono diretti, il verso non si inverte)
func minimalRotation(seq []string) []string {
	if len(seq) == 0 {
		return seq
	}
	best := 0
	for i := 1; i < len(seq); i++ {
		for k := 0; k < len(seq); k++ {
			a := seq[(i+k)%len(seq)]
			b := seq[(best+k)%len(seq)]
			if a == b {
				continue
			}
			if a < b {
				best = i
			}
			break
		}
	}
	out := make([]string, 0, len(seq))
	out = append(out, seq[best:]...)
	out = append(out, seq[:best]...)
	return out
}

// findDeadEnds raccoglie le scene senza scelte in uscita
func findDeadEnds(ctx *Context) {
	for _, id := range ctx.SceneIDs {
		if scene := ctx.scenes[id]; scene != nil && len(scene.Choices) == 0 {
			ctx.DeadEnds = append(ctx.DeadEnds, id)
		}
	}
}

// scanStatUsage raccoglie gli stat referenziati da azioni onEnter/onExit
// e da condizioni/azioni delle scelte, annotando dove compaiono
func scanStatUsage(adv *model.Adventure, ctx *Context) {
	for _, id := range ctx.SceneIDs {
		scene := ctx.scenes[id]
		if scene == nil {
			continue
		}
		refs := make(map[string]bool)
		collectActionRefs(scene.OnEnter, refs)
		collectActionRefs(scene.OnExit, refs)
		for _, choice := range scene.Choices {
			for i := range choice.Conditions {
				choice.Conditions[i].CollectStatRefs(refs)
			}
			collectActionRefs(choice.Actions, refs)
		}
		for stat := range refs {
			ctx.UsedStats[stat] = append(ctx.UsedStats[stat], id)
		}
	}
	for stat := range ctx.UsedStats {
		sort.Strings(ctx.UsedStats[stat])
	}
}

func collectActionRefs(actions []model.Action, into map[string]bool) {
	for _, a := range actions {
		if a.Stat != "" {
			into[a.Stat] = true
		}
	}
}

// scoreComplexity calcola il punteggio di complessità per scena:
// condizioni pesate (i gruppi annidati valgono 1.2x la somma delle figlie),
// un punto per scelta, mezzo punto per azione
func scoreComplexity(ctx *Context) {
	for _, id := range ctx.SceneIDs {
		scene := ctx.scenes[id]
		if scene == nil {
			continue
		}
		score := 0.0
		score += 0.5 * float64(len(scene.OnEnter)+len(scene.OnExit))
		for _, choice := range scene.Choices {
			score += 1.0
			score += 0.5 * float64(len(choice.Actions))
			for i := range choice.Conditions {
				score += conditionWeight(&choice.Conditions[i])
			}
		}
		ctx.Complexity[id] = score
	}
}

// conditionWeight pesa una condizione: le foglie valgono 1, i gruppi
// moltiplicano la somma delle figlie per 1.2
func conditionWeight(c *model.Condition) float64 {
	if !c.IsGroup() {
		return 1.0
	}
	sum := 0.0
	for i := range c.All {
		sum += conditionWeight(&c.All[i])
	}
	for i := range c.Any {
		sum += conditionWeight(&c.Any[i])
	}
	return 1.2 * sum
}
