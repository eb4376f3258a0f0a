package model

import "time"

// Position rappresenta la posizione di una scena nell'editor
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Condition rappresenta una condizione su uno stat, oppure un gruppo annidato.
// Una foglia usa Stat/Op/Value; un gruppo usa All (AND) oppure Any (OR).
type Condition struct {
	Stat  string      `json:"stat,omitempty"`
	Op    string      `json:"op,omitempty"` // "eq", "ne", "gt", "gte", "lt", "lte"
	Value interface{} `json:"value,omitempty"`
	All   []Condition `json:"all,omitempty"`
	Any   []Condition `json:"any,omitempty"`
}

// IsGroup verifica se la condizione è un gruppo annidato
func (c *Condition) IsGroup() bool {
	return len(c.All) > 0 || len(c.Any) > 0
}

// Action rappresenta un'azione su uno stat
type Action struct {
	Type  string      `json:"type"` // "set", "add", "toggle"
	Stat  string      `json:"stat"`
	Value interface{} `json:"value,omitempty"`
}

// Choice rappresenta una scelta: un arco diretto verso un'altra scena.
// Target può essere vuoto o puntare a una scena inesistente (dangling):
// il modello lo tollera, è la validazione a segnalarlo.
type Choice struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	Target     string      `json:"target"`
	Conditions []Condition `json:"conditions,omitempty"`
	Actions    []Action    `json:"actions,omitempty"`
}

// Scene rappresenta una singola scena della storia
type Scene struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Position Position  `json:"position"`
	Choices  []*Choice `json:"choices"`
	OnEnter  []Action  `json:"on_enter,omitempty"`
	OnExit   []Action  `json:"on_exit,omitempty"`
}

// FindChoice cerca una scelta per id
func (s *Scene) FindChoice(choiceID string) *Choice {
	for _, ch := range s.Choices {
		if ch.ID == choiceID {
			return ch
		}
	}
	return nil
}

// Stat rappresenta una statistica/flag dell'avventura
type Stat struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"` // "number", "string", "boolean"
	Default interface{} `json:"default"`
	Min     *float64    `json:"min,omitempty"`
	Max     *float64    `json:"max,omitempty"`
}

// Adventure rappresenta l'intera avventura
type Adventure struct {
	Title      string            `json:"title"`
	StartScene string            `json:"start_scene"`
	Scenes     map[string]*Scene `json:"scenes"`
	Stats      map[string]*Stat  `json:"stats"`
	ModifiedAt time.Time         `json:"modified_at"`
}

// NewAdventure crea un'avventura vuota
func NewAdventure(title string) *Adventure {
	return &Adventure{
		Title:      title,
		Scenes:     make(map[string]*Scene),
		Stats:      make(map[string]*Stat),
		ModifiedAt: time.Now(),
	}
}

// Touch aggiorna il marcatore di ultima modifica
func (a *Adventure) Touch() {
	a.ModifiedAt = time.Now()
}

// Clone crea una copia profonda dell'avventura
func (a *Adventure) Clone() *Adventure {
	if a == nil {
		return nil
	}
	clone := &Adventure{
		Title:      a.Title,
		StartScene: a.StartScene,
		Scenes:     make(map[string]*Scene, len(a.Scenes)),
		Stats:      make(map[string]*Stat, len(a.Stats)),
		ModifiedAt: a.ModifiedAt,
	}
	for id, scene := range a.Scenes {
		clone.Scenes[id] = scene.Clone()
	}
	for id, stat := range a.Stats {
		clone.Stats[id] = stat.Clone()
	}
	return clone
}

// Clone crea una copia profonda della scena
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	clone := &Scene{
		ID:       s.ID,
		Title:    s.Title,
		Content:  s.Content,
		Position: s.Position,
		Choices:  make([]*Choice, 0, len(s.Choices)),
		OnEnter:  cloneActions(s.OnEnter),
		OnExit:   cloneActions(s.OnExit),
	}
	for _, ch := range s.Choices {
		clone.Choices = append(clone.Choices, ch.Clone())
	}
	return clone
}

// Clone crea una copia profonda della scelta
func (c *Choice) Clone() *Choice {
	if c == nil {
		return nil
	}
	return &Choice{
		ID:         c.ID,
		Text:       c.Text,
		Target:     c.Target,
		Conditions: cloneConditions(c.Conditions),
		Actions:    cloneActions(c.Actions),
	}
}

// Clone crea una copia dello stat
func (st *Stat) Clone() *Stat {
	if st == nil {
		return nil
	}
	clone := *st
	if st.Min != nil {
		minCopy := *st.Min
		clone.Min = &minCopy
	}
	if st.Max != nil {
		maxCopy := *st.Max
		clone.Max = &maxCopy
	}
	return &clone
}

func cloneConditions(conds []Condition) []Condition {
	if conds == nil {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = Condition{
			Stat:  c.Stat,
			Op:    c.Op,
			Value: c.Value,
			All:   cloneConditions(c.All),
			Any:   cloneConditions(c.Any),
		}
	}
	return out
}

func cloneActions(actions []Action) []Action {
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// CollectStatRefs raccoglie gli id degli stat referenziati dalla condizione
// (ricorsivo sui gruppi annidati)
func (c *Condition) CollectStatRefs(into map[string]bool) {
	if c.Stat != "" {
		into[c.Stat] = true
	}
	for i := range c.All {
		c.All[i].CollectStatRefs(into)
	}
	for i := range c.Any {
		c.Any[i].CollectStatRefs(into)
	}
}
