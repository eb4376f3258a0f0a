package validation

import "time"

// Level indica la gravità di un finding
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Finding rappresenta un singolo esito della validazione
type Finding struct {
	Level      Level                  `json:"level"`
	Rule       string                 `json:"rule"`
	Message    string                 `json:"message"`
	SceneID    string                 `json:"scene_id,omitempty"`
	ChoiceID   string                 `json:"choice_id,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Result rappresenta il risultato completo di una validazione
type Result struct {
	Valid       bool      `json:"valid"`
	Errors      []Finding `json:"errors"`
	Warnings    []Finding `json:"warnings"`
	Infos       []Finding `json:"infos"`
	GeneratedAt time.Time `json:"generated_at"`
	FromCache   bool      `json:"from_cache"`

	// Context è incluso solo con l'opzione IncludeContext
	Context *Context `json:"context,omitempty"`
}

// NewResult crea un risultato vuoto (valido finché non compaiono errori)
func NewResult() *Result {
	return &Result{
		Valid:       true,
		Errors:      []Finding{},
		Warnings:    []Finding{},
		Infos:       []Finding{},
		GeneratedAt: time.Now(),
	}
}

// Add appende un finding nel bucket corrispondente al suo livello
func (r *Result) Add(f Finding) {
	switch f.Level {
	case LevelError:
		r.Errors = append(r.Errors, f)
		r.Valid = false
	case LevelWarning:
		r.Warnings = append(r.Warnings, f)
	default:
		r.Infos = append(r.Infos, f)
	}
}

// AddError appende un errore bloccante
func (r *Result) AddError(rule, message string, opts ...func(*Finding)) {
	r.add(LevelError, rule, message, opts)
}

// AddWarning appende un warning non bloccante
func (r *Result) AddWarning(rule, message string, opts ...func(*Finding)) {
	r.add(LevelWarning, rule, message, opts)
}

// AddInfo appende un finding informativo
func (r *Result) AddInfo(rule, message string, opts ...func(*Finding)) {
	r.add(LevelInfo, rule, message, opts)
}

func (r *Result) add(level Level, rule, message string, opts []func(*Finding)) {
	f := Finding{Level: level, Rule: rule, Message: message}
	for _, opt := range opts {
		opt(&f)
	}
	r.Add(f)
}

// AtScene localizza il finding su una scena
func AtScene(sceneID string) func(*Finding) {
	return func(f *Finding) { f.SceneID = sceneID }
}

// AtChoice localizza il finding su una scelta
func AtChoice(sceneID, choiceID string) func(*Finding) {
	return func(f *Finding) {
		f.SceneID = sceneID
		f.ChoiceID = choiceID
	}
}

// WithSuggestion aggiunge un suggerimento di fix
func WithSuggestion(s string) func(*Finding) {
	return func(f *Finding) { f.Suggestion = s }
}

// WithDetails aggiunge dettagli strutturati
func WithDetails(details map[string]interface{}) func(*Finding) {
	return func(f *Finding) { f.Details = details }
}

// Severity restituisce il livello più grave presente nel risultato
func (r *Result) Severity() Level {
	if len(r.Errors) > 0 {
		return LevelError
	}
	if len(r.Warnings) > 0 {
		return LevelWarning
	}
	return LevelInfo
}

// Clone crea una copia profonda del risultato. La cache restituisce sempre
// cloni, mai il risultato memorizzato: il chiamante può mutare ciò che
// riceve senza corrompere la cache.
func (r *Result) Clone() *Result {
	clone := &Result{
		Valid:       r.Valid,
		Errors:      cloneFindings(r.Errors),
		Warnings:    cloneFindings(r.Warnings),
		Infos:       cloneFindings(r.Infos),
		GeneratedAt: r.GeneratedAt,
		FromCache:   r.FromCache,
	}
	if r.Context != nil {
		clone.Context = r.Context.Clone()
	}
	return clone
}

func cloneFindings(in []Finding) []Finding {
	out := make([]Finding, len(in))
	for i, f := range in {
		out[i] = f
		if f.Details != nil {
			details := make(map[string]interface{}, len(f.Details))
			for k, v := range f.Details {
				details[k] = v
			}
			out[i].Details = details
		}
	}
	return out
}
