package validation

import (
	"errors"
	"testing"
	"time"

	"adventure-editor/model"
)

// ============================================
// Test: Tassonomia errori/warning/info
// ============================================

func TestOrphanIsWarningNotError(t *testing.T) {
	// Esempio dalla documentazione: A(start)→B, B→C, D isolata
	adv := buildAdventure("A", map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {},
		"D": {},
	})

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	if len(res.Errors) != 0 {
		t.Errorf("Expected zero blocking errors, got %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Rule == "orphaned-scene" && w.SceneID == "D" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected orphaned-scene warning for D, got %v", res.Warnings)
	}

	t.Logf("✅ D orfana segnalata come warning (%d warning totali)", len(res.Warnings))
}

func TestCircularReferenceWarning(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	found := false
	for _, w := range res.Warnings {
		if w.Rule == "circular-reference" {
			found = true
			if w.Details == nil {
				t.Error("Expected structured cycle details")
			}
		}
	}
	if !found {
		t.Fatalf("Expected a circular-reference finding, got %v", res.Warnings)
	}

	t.Log("✅ Riferimento circolare A↔B segnalato")
}

func TestDanglingTargetIsBlockingError(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{
		"A": {"nowhere"},
	})

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	if res.Valid {
		t.Fatal("Expected invalid result for dangling choice target")
	}
	if res.Errors[0].Rule != "choice-target" && res.Errors[len(res.Errors)-1].Rule != "choice-target" {
		t.Errorf("Expected choice-target error, got %v", res.Errors)
	}

	t.Log("✅ Target dangling = errore bloccante")
}

func TestSelfReferenceIsWarningNotError(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{
		"A": {"A"},
	})

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	for _, e := range res.Errors {
		if e.Rule == "self-reference" {
			t.Error("Self-reference must not be a blocking error")
		}
	}
	found := false
	for _, w := range res.Warnings {
		if w.Rule == "self-reference" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected self-reference warning, got %v", res.Warnings)
	}

	t.Log("✅ Self-loop = warning (a volte è voluto)")
}

func TestMissingStartIsBlockingError(t *testing.T) {
	adv := buildAdventure("", map[string][]string{"A": {}})

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	if res.Valid {
		t.Fatal("Expected invalid result without a start scene")
	}
	if res.Severity() != LevelError {
		t.Errorf("Expected severity error, got %s", res.Severity())
	}

	t.Log("✅ Start mancante = errore bloccante")
}

func TestUndefinedStatErrorAndUnusedStatInfo(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {"B"}, "B": {}})
	adv.Scenes["A"].OnEnter = []model.Action{{Type: "set", Stat: "fantasma", Value: 1.0}}
	adv.Stats["inutile"] = &model.Stat{ID: "inutile", Name: "Inutile", Type: "number", Default: 0.0}

	v := NewValidator(0)
	res := v.Validate(adv, Options{})

	hasUndefined := false
	for _, e := range res.Errors {
		if e.Rule == "undefined-stat" {
			hasUndefined = true
		}
	}
	if !hasUndefined {
		t.Errorf("Expected undefined-stat error for 'fantasma', got %v", res.Errors)
	}

	hasUnused := false
	for _, i := range res.Infos {
		if i.Rule == "unused-stat" {
			hasUnused = true
		}
	}
	if !hasUnused {
		t.Errorf("Expected unused-stat info for 'inutile', got %v", res.Infos)
	}

	t.Log("✅ Stat non definito = errore, stat non usato = info")
}

// ============================================
// Test: Rule Engine
// ============================================

func TestFailingRuleDegradesToWarning(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(0)
	if err := v.AddCustomRule("esplosiva", func(adv *model.Adventure, ctx *Context, res *Result) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("AddCustomRule: %v", err)
	}

	res := v.Validate(adv, Options{})

	found := false
	for _, w := range res.Warnings {
		if w.Rule == "esplosiva" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'rule esplosiva failed' warning, got %v", res.Warnings)
	}

	t.Log("✅ Regola fallita degradata a warning, validazione completata")
}

func TestPanickingRuleDoesNotAbortPipeline(t *testing.T) {
	// D orfana: la regola orphaned-scene gira DOPO quella che panica
	adv := buildAdventure("A", map[string][]string{"A": {}, "D": {}})

	v := NewValidator(0)
	if err := v.AddCustomRule("aaa-panico", func(adv *model.Adventure, ctx *Context, res *Result) error {
		panic("kaputt")
	}); err != nil {
		t.Fatalf("AddCustomRule: %v", err)
	}

	res := v.Validate(adv, Options{})

	hasPanic, hasOrphan := false, false
	for _, w := range res.Warnings {
		if w.Rule == "aaa-panico" {
			hasPanic = true
		}
		if w.Rule == "orphaned-scene" {
			hasOrphan = true
		}
	}
	if !hasPanic {
		t.Error("Expected panic degraded to warning")
	}
	if !hasOrphan {
		t.Error("Expected the remaining rules to still run")
	}

	t.Log("✅ Panic isolato alla singola regola")
}

func TestCustomRulesRunAfterBuiltin(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(0)
	sawDeadEnd := false
	if err := v.AddCustomRule("controllo-ordine", func(adv *model.Adventure, ctx *Context, res *Result) error {
		// Le built-in sono già passate: il warning dead-end c'è già
		for _, w := range res.Warnings {
			if w.Rule == "dead-end" {
				sawDeadEnd = true
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("AddCustomRule: %v", err)
	}

	v.Validate(adv, Options{})

	if !sawDeadEnd {
		t.Error("Expected builtin findings to be visible to custom rules")
	}

	t.Log("✅ Built-in prima delle custom")
}

func TestDuplicateRuleNameRejected(t *testing.T) {
	v := NewValidator(0)
	if err := v.AddCustomRule("doppia", func(adv *model.Adventure, ctx *Context, res *Result) error { return nil }); err != nil {
		t.Fatalf("AddCustomRule: %v", err)
	}
	if err := v.AddCustomRule("doppia", func(adv *model.Adventure, ctx *Context, res *Result) error { return nil }); err == nil {
		t.Error("Expected duplicate rule name to be rejected")
	}

	t.Log("✅ Nome regola duplicato rifiutato")
}

// ============================================
// Test: Result Cache
// ============================================

func TestCacheHitReturnsDeepCopy(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(time.Minute)
	first := v.Validate(adv, Options{})
	if first.FromCache {
		t.Fatal("First validation must not come from cache")
	}

	second := v.Validate(adv, Options{})
	if !second.FromCache {
		t.Fatal("Second validation expected from cache")
	}

	// Mutare il risultato ricevuto non deve sporcare la cache
	second.Warnings[0].Message = "corrotto"
	third := v.Validate(adv, Options{})
	if third.Warnings[0].Message == "corrotto" {
		t.Error("Cache returned a shared reference instead of a deep copy")
	}

	t.Log("✅ Hit di cache = copia profonda")
}

func TestSkipCacheOption(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(time.Minute)
	v.Validate(adv, Options{})
	res := v.Validate(adv, Options{SkipCache: true})

	if res.FromCache {
		t.Error("SkipCache must force a fresh validation")
	}

	t.Log("✅ SkipCache ignora la cache")
}

func TestModificationInvalidatesFingerprint(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(time.Minute)
	v.Validate(adv, Options{})

	// Il marcatore di modifica cambia la fingerprint
	adv.ModifiedAt = adv.ModifiedAt.Add(time.Second)
	res := v.Validate(adv, Options{})

	if res.FromCache {
		t.Error("Expected fresh validation after the adventure changed")
	}

	t.Log("✅ Fingerprint sensibile al marcatore di modifica")
}

func TestRuleChangeInvalidatesCache(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {}})

	v := NewValidator(time.Minute)
	v.Validate(adv, Options{})

	if err := v.AddCustomRule("nuova", func(adv *model.Adventure, ctx *Context, res *Result) error {
		res.AddInfo("nuova", "presente")
		return nil
	}); err != nil {
		t.Fatalf("AddCustomRule: %v", err)
	}

	res := v.Validate(adv, Options{})
	if res.FromCache {
		t.Error("Adding a rule must purge the cache")
	}
	found := false
	for _, i := range res.Infos {
		if i.Rule == "nuova" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the new rule to run after cache purge")
	}

	// Anche la rimozione invalida
	if err := v.RemoveRule("nuova"); err != nil {
		t.Fatalf("RemoveRule: %v", err)
	}
	res = v.Validate(adv, Options{})
	if res.FromCache {
		t.Error("Removing a rule must purge the cache")
	}

	t.Log("✅ Add/Remove regola = cache invalidata")
}

func TestFingerprintIsDeterministic(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {"B"}, "B": {}})

	fp1 := Fingerprint(adv, Options{})
	fp2 := Fingerprint(adv, Options{})
	if fp1 != fp2 {
		t.Errorf("Fingerprint not deterministic: %s != %s", fp1, fp2)
	}

	fp3 := Fingerprint(adv, Options{IncludeContext: true})
	if fp1 == fp3 {
		t.Error("Options must be part of the fingerprint")
	}

	t.Logf("✅ Fingerprint deterministica: %s", fp1[:12])
}

// ============================================
// Test: IncludeContext
// ============================================

func TestIncludeContextOption(t *testing.T) {
	adv := buildAdventure("A", map[string][]string{"A": {"B"}, "B": {}})

	v := NewValidator(0)
	res := v.Validate(adv, Options{IncludeContext: true})
	if res.Context == nil {
		t.Fatal("Expected context attached to the result")
	}
	if len(res.Context.Edges) != 1 {
		t.Errorf("Expected 1 edge in context, got %d", len(res.Context.Edges))
	}

	res = v.Validate(adv, Options{SkipCache: true})
	if res.Context != nil {
		t.Error("Context must be omitted without the option")
	}

	t.Log("✅ IncludeContext allega lo snapshot")
}
