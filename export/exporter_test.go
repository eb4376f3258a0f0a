package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adventure-editor/model"
	"adventure-editor/validation"
)

func validAdventure() *model.Adventure {
	adv := model.NewAdventure("Il Dungeon")
	adv.StartScene = "ingresso"
	adv.Scenes["ingresso"] = &model.Scene{
		ID:      "ingresso",
		Content: "Una porta cigolante.",
		Choices: []*model.Choice{
			{ID: "avanti", Text: "Entra", Target: "sala",
				Actions: []model.Action{{Type: "add", Stat: "coraggio", Value: 1.0}}},
		},
	}
	adv.Scenes["sala"] = &model.Scene{ID: "sala", Content: "Fine."}
	adv.Stats["coraggio"] = &model.Stat{ID: "coraggio", Name: "Coraggio", Type: "number", Default: 0.0}
	return adv
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	ex, err := NewExporter(validation.NewValidator(0), t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	return ex
}

// ============================================
// Test: Export JSON
// ============================================

func TestExportJSONRoundTrips(t *testing.T) {
	ex := newTestExporter(t)

	result, err := ex.Export(validAdventure(), &Options{Format: "json"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}

	data, err := os.ReadFile(result.OutputFile)
	if err != nil {
		t.Fatalf("lettura output: %v", err)
	}
	var decoded model.Adventure
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON output: %v", err)
	}
	if decoded.Title != "Il Dungeon" || len(decoded.Scenes) != 2 {
		t.Errorf("Expected the full adventure in the output, got %+v", decoded)
	}

	t.Logf("✅ Export JSON in %s", result.OutputFile)
}

func TestExportRefusedWithBlockingErrors(t *testing.T) {
	ex := newTestExporter(t)

	adv := validAdventure()
	adv.Scenes["ingresso"].Choices[0].Target = "nowhere"

	result, err := ex.Export(adv, &Options{Format: "json"})
	if err == nil {
		t.Fatal("Expected export refused for a dangling target")
	}
	if result.Success {
		t.Error("Expected failed result")
	}
	if result.ErrorMessage == "" {
		t.Error("Expected an error message in the result")
	}

	t.Logf("✅ Export rifiutato: %v", err)
}

func TestExportCarriesWarnings(t *testing.T) {
	ex := newTestExporter(t)

	adv := validAdventure()
	// Scena orfana: warning, non blocca l'export
	adv.Scenes["isolata"] = &model.Scene{ID: "isolata", Content: "Nessuno arriva qui."}

	result, err := ex.Export(adv, &Options{Format: "json"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !result.Success {
		t.Fatal("Expected warnings not to block the export")
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected the orphan warning reported in the result")
	}

	t.Log("✅ Warning riportati senza bloccare")
}

func TestExportUnknownFormat(t *testing.T) {
	ex := newTestExporter(t)

	if _, err := ex.Export(validAdventure(), &Options{Format: "epub"}); err == nil {
		t.Error("Expected an error for an unsupported format")
	}

	t.Log("✅ Formato sconosciuto rifiutato")
}

func TestExportCustomOutputName(t *testing.T) {
	ex := newTestExporter(t)

	result, err := ex.Export(validAdventure(), &Options{Format: "json", Output: "mio.json"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(result.OutputFile) != "mio.json" {
		t.Errorf("Expected custom output name, got %s", result.OutputFile)
	}

	t.Log("✅ Nome di output personalizzato rispettato")
}

// ============================================
// Test: ChoiceScript
// ============================================

func TestRenderChoiceScript(t *testing.T) {
	script := RenderChoiceScript(validAdventure())

	if !strings.HasPrefix(script, "*title Il Dungeon") {
		t.Errorf("Expected *title header, got %q", script[:40])
	}
	if !strings.Contains(script, "*create coraggio 0") {
		t.Error("Expected stat declaration")
	}
	if !strings.Contains(script, "#Entra") {
		t.Error("Expected choice text as #option")
	}
	if !strings.Contains(script, "*goto sala") {
		t.Error("Expected *goto for the linked choice")
	}
	if !strings.Contains(script, "*set coraggio +1") {
		t.Error("Expected the add action rendered as *set +")
	}
	if !strings.Contains(script, "*finish") {
		t.Error("Expected *finish for the dead-end scene")
	}

	// La scena di partenza viene resa per prima
	ingressoIdx := strings.Index(script, "*label ingresso")
	salaIdx := strings.Index(script, "*label sala")
	if ingressoIdx < 0 || salaIdx < 0 || ingressoIdx > salaIdx {
		t.Errorf("Expected start scene rendered first (ingresso@%d, sala@%d)", ingressoIdx, salaIdx)
	}

	t.Log("✅ ChoiceScript renderizzato")
}

func TestChoiceScriptIsDeterministic(t *testing.T) {
	adv := validAdventure()
	for i := 0; i < 3; i++ {
		adv.Stats["stat"+string(rune('a'+i))] = &model.Stat{Type: "number", Default: 0.0}
	}

	first := RenderChoiceScript(adv)
	for i := 0; i < 5; i++ {
		if RenderChoiceScript(adv) != first {
			t.Fatal("Expected deterministic output across renders")
		}
	}

	t.Log("✅ Output stabile tra render successivi")
}
