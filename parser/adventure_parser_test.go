package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"adventure-editor/validation"
)

func writeTempAdventure(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.adventure.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("scrittura file di test: %v", err)
	}
	return path
}

// ============================================
// Test: Parsing
// ============================================

func TestParseCompleteAdventure(t *testing.T) {
	path := writeTempAdventure(t, `{
		"title": "Il Dungeon",
		"start_scene": "ingresso",
		"scenes": {
			"ingresso": {
				"title": "Ingresso",
				"content": "Una porta cigolante.",
				"choices": [
					{"id": "avanti", "text": "Entra", "target": "sala"}
				]
			},
			"sala": {"title": "Sala"}
		},
		"stats": {
			"vita": {"name": "Vita", "type": "number", "default": 100}
		}
	}`)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if adv.Title != "Il Dungeon" {
		t.Errorf("Expected title 'Il Dungeon', got %q", adv.Title)
	}
	if adv.StartScene != "ingresso" {
		t.Errorf("Expected start 'ingresso', got %q", adv.StartScene)
	}
	if len(adv.Scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d", len(adv.Scenes))
	}
	if got := adv.Scenes["ingresso"].Choices[0].Target; got != "sala" {
		t.Errorf("Expected choice target 'sala', got %q", got)
	}
	if adv.Stats["vita"].Default != 100.0 {
		t.Errorf("Expected vita default 100, got %v", adv.Stats["vita"].Default)
	}

	t.Logf("✅ Avventura caricata: %s (%d scene)", adv.Title, len(adv.Scenes))
}

func TestParseBackfillsIDsFromMapKeys(t *testing.T) {
	// Gli id dentro gli oggetti sono opzionali: la chiave della map basta
	path := writeTempAdventure(t, `{
		"title": "Minimal",
		"scenes": {"a": {"title": "A"}},
		"stats": {"vita": {"type": "number", "default": 10}}
	}`)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if adv.Scenes["a"].ID != "a" {
		t.Errorf("Expected scene id backfilled to 'a', got %q", adv.Scenes["a"].ID)
	}
	if adv.Stats["vita"].ID != "vita" {
		t.Errorf("Expected stat id backfilled to 'vita', got %q", adv.Stats["vita"].ID)
	}
	if adv.Scenes["a"].Choices == nil {
		t.Error("Expected choices normalized to an empty slice")
	}

	t.Log("✅ Id riallineati alle chiavi delle map")
}

func TestParseToleratesDanglingReferences(t *testing.T) {
	// Start inesistente e target dangling: non sono errori di parsing
	path := writeTempAdventure(t, `{
		"title": "Rotta",
		"start_scene": "fantasma",
		"scenes": {
			"a": {"choices": [{"id": "c", "text": "via", "target": "nowhere"}]}
		}
	}`)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Expected tolerant parse, got %v", err)
	}
	if adv.Stats == nil {
		t.Error("Expected stats map normalized")
	}

	t.Log("✅ Riferimenti rotti tollerati: li segnala la validazione")
}

func TestParseDropsNullEntries(t *testing.T) {
	path := writeTempAdventure(t, `{
		"title": "Con buchi",
		"scenes": {"a": {"title": "A"}, "b": null},
		"stats": {"vita": null}
	}`)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(adv.Scenes) != 1 {
		t.Errorf("Expected null scene dropped, got %d scenes", len(adv.Scenes))
	}
	if len(adv.Stats) != 0 {
		t.Errorf("Expected null stat dropped, got %d stats", len(adv.Stats))
	}

	t.Log("✅ Entry nulle scartate")
}

func TestParseStampsModificationMarker(t *testing.T) {
	path := writeTempAdventure(t, `{"title": "T", "scenes": {"a": {}}}`)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if adv.ModifiedAt.IsZero() {
		t.Error("Expected the modification marker stamped from the file mtime")
	}

	t.Logf("✅ Marcatore di modifica: %v", adv.ModifiedAt)
}

func TestReparsedFileIsNotServedFromCache(t *testing.T) {
	path := writeTempAdventure(t, `{
		"title": "V",
		"start_scene": "a",
		"scenes": {"a": {}}
	}`)

	v := validation.NewValidator(time.Minute)

	adv, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first := v.Validate(adv, validation.Options{})
	if !first.Valid {
		t.Fatalf("Expected the first version valid, got %v", first.Errors)
	}

	// Stesso file, stessa struttura a livello di conteggi, ma rotto
	broken := `{
		"title": "V",
		"start_scene": "a",
		"scenes": {"a": {"choices": [{"id": "c", "text": "via", "target": "ghost"}]}}
	}`
	if err := os.WriteFile(path, []byte(broken), 0644); err != nil {
		t.Fatalf("riscrittura file: %v", err)
	}
	// mtime esplicito: la riscrittura potrebbe cadere nello stesso istante
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	adv2, err := NewAdventureParser(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second := v.Validate(adv2, validation.Options{})
	if second.FromCache {
		t.Fatal("Expected the edited file revalidated, not served from cache")
	}
	if second.Valid {
		t.Errorf("Expected the dangling target reported, got %v", second.Errors)
	}

	t.Log("✅ File modificato = fingerprint nuova, niente risultato stantio")
}

func TestParseInvalidJSON(t *testing.T) {
	path := writeTempAdventure(t, `{"title": "spezzato"`)

	if _, err := NewAdventureParser(path).Parse(); err == nil {
		t.Error("Expected an error for malformed JSON")
	}

	t.Log("✅ JSON malformato segnalato")
}

func TestParseMissingFile(t *testing.T) {
	if _, err := NewAdventureParser("/non/esiste.adventure.json").Parse(); err == nil {
		t.Error("Expected an error for a missing file")
	}

	t.Log("✅ File mancante segnalato")
}
