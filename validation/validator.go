package validation

import (
	"time"

	"adventure-editor/model"
)

// Options controlla una singola chiamata a Validate
type Options struct {
	// SkipCache forza la rivalidazione ignorando la cache
	SkipCache bool `json:"skip_cache"`
	// IncludeContext allega lo snapshot derivato al risultato
	IncludeContext bool `json:"include_context"`
}

// Validator è il motore di validazione: registro regole + cache risultati.
// Va costruito esplicitamente e passato nel contesto di sessione
// dell'editor, mai condiviso come singleton di processo.
type Validator struct {
	rules *RuleRegistry
	cache *ResultCache
}

// NewValidator crea un validatore con le regole built-in e una cache
// con il TTL indicato (0 = default 30s)
func NewValidator(cacheTTL time.Duration) *Validator {
	v := &Validator{
		rules: NewRuleRegistry(),
		cache: NewResultCache(cacheTTL),
	}
	// Aggiungere o rimuovere regole invalida subito la cache
	v.rules.onChange = v.cache.Purge
	return v
}

// Rules espone il registro per la registrazione di regole custom
func (v *Validator) Rules() *RuleRegistry {
	return v.rules
}

// AddRule registra una regola custom (vedi RuleRegistry.AddRule)
func (v *Validator) AddRule(name string, level Level, category string, evaluate RuleFunc) error {
	return v.rules.AddRule(name, level, category, evaluate)
}

// AddCustomRule registra una regola custom con i default
func (v *Validator) AddCustomRule(name string, evaluate RuleFunc) error {
	return v.rules.AddCustomRule(name, evaluate)
}

// RemoveRule rimuove una regola per nome
func (v *Validator) RemoveRule(name string) error {
	return v.rules.RemoveRule(name)
}

// InvalidateCache svuota esplicitamente la cache dei risultati
func (v *Validator) InvalidateCache() {
	v.cache.Purge()
}

// Validate esegue la pipeline completa: cache check, snapshot del grafo,
// analizzatori, regole. Lo snapshot viene preso subito, quindi il
// risultato riflette lo stato del grafo al momento della chiamata.
func (v *Validator) Validate(adv *model.Adventure, opts Options) *Result {
	key := Fingerprint(adv, opts)
	if !opts.SkipCache {
		if cached, ok := v.cache.Get(key); ok {
			return cached
		}
	}

	ctx := BuildContext(adv)
	res := NewResult()
	runRules(v.rules.Rules(), adv, ctx, res)

	if opts.IncludeContext {
		res.Context = ctx
	}

	v.cache.Put(key, res)
	return res
}
