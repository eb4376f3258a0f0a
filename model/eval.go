package model

import "fmt"

// StatState rappresenta lo stato corrente degli stat durante una simulazione
type StatState map[string]interface{}

// InitialState costruisce lo stato iniziale dai default degli stat definiti
func (a *Adventure) InitialState() StatState {
	state := make(StatState, len(a.Stats))
	for id, stat := range a.Stats {
		state[id] = stat.Default
	}
	return state
}

// EvaluateCondition valuta una condizione contro lo stato corrente.
// Un gruppo All è vero se tutte le figlie sono vere, un gruppo Any se almeno una.
// Una foglia con operatore sconosciuto o stat mancante valuta a false.
func EvaluateCondition(c *Condition, state StatState) bool {
	if len(c.All) > 0 {
		for i := range c.All {
			if !EvaluateCondition(&c.All[i], state) {
				return false
			}
		}
		return true
	}
	if len(c.Any) > 0 {
		for i := range c.Any {
			if EvaluateCondition(&c.Any[i], state) {
				return true
			}
		}
		return false
	}

	current, exists := state[c.Stat]
	if !exists {
		return false
	}

	switch c.Op {
	case "eq":
		return equalValues(current, c.Value)
	case "ne":
		return !equalValues(current, c.Value)
	case "gt", "gte", "lt", "lte":
		a, aOK := ToNumber(current)
		b, bOK := ToNumber(c.Value)
		if !aOK || !bOK {
			return false
		}
		switch c.Op {
		case "gt":
			return a > b
		case "gte":
			return a >= b
		case "lt":
			return a < b
		default:
			return a <= b
		}
	}
	return false
}

// ApplyAction applica un'azione allo stato, restituendo il nuovo valore.
// Azioni su stat sconosciuti o di tipo sbagliato vengono ignorate (la
// validazione le segnala, la simulazione non deve mai esplodere).
func ApplyAction(action *Action, state StatState) {
	switch action.Type {
	case "set":
		state[action.Stat] = action.Value
	case "add":
		current, _ := ToNumber(state[action.Stat])
		delta, ok := ToNumber(action.Value)
		if !ok {
			return
		}
		state[action.Stat] = current + delta
	case "toggle":
		if b, ok := state[action.Stat].(bool); ok {
			state[action.Stat] = !b
		}
	}
}

// equalValues confronta due valori, trattando i numeri in modo uniforme
// (il decoding JSON produce sempre float64)
func equalValues(a, b interface{}) bool {
	an, aNum := ToNumber(a)
	bn, bNum := ToNumber(b)
	if aNum && bNum {
		return an == bn
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// ToNumber converte un valore in numero se possibile
func ToNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		var num float64
		_, err := fmt.Sscanf(v, "%f", &num)
		return num, err == nil
	}
	return 0, false
}
