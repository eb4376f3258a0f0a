package validation

import (
	"sort"

	"adventure-editor/model"
)

// Edge rappresenta un arco del grafo: una scelta che punta a una scena
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ChoiceID string `json:"choice_id"`
}

// Context è lo snapshot derivato dell'avventura su cui lavorano le regole.
// Viene costruito all'inizio di ogni validate() e scartato alla fine: le
// regole lo leggono soltanto, i finding finiscono nel Result.
type Context struct {
	StartScene string              `json:"start_scene"`
	SceneIDs   []string            `json:"scene_ids"`
	Edges      []Edge              `json:"edges"`
	Reachable  map[string]bool     `json:"reachable"`
	Orphans    []string            `json:"orphans"`
	DeadEnds   []string            `json:"dead_ends"`
	Cycles     [][]string          `json:"cycles"`
	UsedStats  map[string][]string `json:"used_stats"`    // stat -> scene che lo usano
	Complexity map[string]float64  `json:"complexity"`    // scena -> punteggio
	scenes     map[string]*model.Scene
}

// Scene restituisce la scena indicizzata nello snapshot (nil se assente)
func (ctx *Context) Scene(id string) *model.Scene {
	return ctx.scenes[id]
}

// BuildContext costruisce gli indici e lancia gli analizzatori.
// Non va mai in errore: uno start mancante o target dangling lasciano
// semplicemente vuoti gli insiemi derivati, saranno le regole a segnalarli.
func BuildContext(adv *model.Adventure) *Context {
	ctx := &Context{
		StartScene: adv.StartScene,
		SceneIDs:   make([]string, 0, len(adv.Scenes)),
		Edges:      []Edge{},
		Reachable:  make(map[string]bool),
		Orphans:    []string{},
		DeadEnds:   []string{},
		Cycles:     [][]string{},
		UsedStats:  make(map[string][]string),
		Complexity: make(map[string]float64),
		scenes:     make(map[string]*model.Scene, len(adv.Scenes)),
	}

	// Passata lineare: indici nodo/arco
	for id, scene := range adv.Scenes {
		ctx.scenes[id] = scene
		ctx.SceneIDs = append(ctx.SceneIDs, id)
		for _, choice := range scene.Choices {
			if choice.Target == "" {
				continue
			}
			ctx.Edges = append(ctx.Edges, Edge{
				From:     id,
				To:       choice.Target,
				ChoiceID: choice.ID,
			})
		}
	}
	// Ordine deterministico, l'iterazione sulle map non lo è
	sort.Strings(ctx.SceneIDs)
	sort.Slice(ctx.Edges, func(i, j int) bool {
		if ctx.Edges[i].From != ctx.Edges[j].From {
			return ctx.Edges[i].From < ctx.Edges[j].From
		}
		return ctx.Edges[i].ChoiceID < ctx.Edges[j].ChoiceID
	})

	analyzeReachability(ctx)
	detectCycles(ctx)
	findDeadEnds(ctx)
	scanStatUsage(adv, ctx)
	scoreComplexity(ctx)

	return ctx
}

// Clone crea una copia profonda del contesto (per i risultati in cache)
func (ctx *Context) Clone() *Context {
	clone := &Context{
		StartScene: ctx.StartScene,
		SceneIDs:   append([]string(nil), ctx.SceneIDs...),
		Edges:      append([]Edge(nil), ctx.Edges...),
		Reachable:  make(map[string]bool, len(ctx.Reachable)),
		Orphans:    append([]string(nil), ctx.Orphans...),
		DeadEnds:   append([]string(nil), ctx.DeadEnds...),
		Cycles:     make([][]string, 0, len(ctx.Cycles)),
		UsedStats:  make(map[string][]string, len(ctx.UsedStats)),
		Complexity: make(map[string]float64, len(ctx.Complexity)),
		scenes:     ctx.scenes,
	}
	for id, ok := range ctx.Reachable {
		clone.Reachable[id] = ok
	}
	for _, cycle := range ctx.Cycles {
		clone.Cycles = append(clone.Cycles, append([]string(nil), cycle...))
	}
	for stat, where := range ctx.UsedStats {
		clone.UsedStats[stat] = append([]string(nil), where...)
	}
	for id, score := range ctx.Complexity {
		clone.Complexity[id] = score
	}
	return clone
}
