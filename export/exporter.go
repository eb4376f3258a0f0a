package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"adventure-editor/model"
	"adventure-editor/validation"
)

// Exporter produce gli output dell'avventura (JSON, ChoiceScript).
// Un'avventura con errori bloccanti non viene mai esportata.
type Exporter struct {
	validator *validation.Validator
	outputDir string
}

// Options opzioni per l'export
type Options struct {
	Format string // "json" oppure "choicescript"
	Output string // File output (default dipende dal formato)
}

// Result risultato dell'export
type Result struct {
	Success      bool     `json:"success"`
	OutputFile   string   `json:"output_file,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// NewExporter crea un exporter. Se outputDir non esiste viene creata.
func NewExporter(validator *validation.Validator, outputDir string) (*Exporter, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("impossibile creare la directory di output: %w", err)
		}
	}
	return &Exporter{validator: validator, outputDir: outputDir}, nil
}

// Export valida l'avventura e, se non ci sono errori bloccanti, scrive
// il file nel formato richiesto. I warning non bloccano ma vengono
// riportati nel risultato.
func (ex *Exporter) Export(adv *model.Adventure, options *Options) (*Result, error) {
	result := &Result{Success: false}

	if options == nil {
		options = &Options{Format: "json"}
	}
	if options.Format == "" {
		options.Format = "json"
	}

	// Validazione pre-export: gli errori bloccanti fermano tutto
	vres := ex.validator.Validate(adv, validation.Options{})
	for _, w := range vres.Warnings {
		result.Warnings = append(result.Warnings, w.Message)
	}
	if !vres.Valid {
		result.ErrorMessage = fmt.Sprintf("l'avventura ha %d errori bloccanti", len(vres.Errors))
		return result, fmt.Errorf("export rifiutato: %s", result.ErrorMessage)
	}

	var data []byte
	var defaultName string
	var err error

	switch options.Format {
	case "json":
		data, err = json.MarshalIndent(adv, "", "  ")
		defaultName = "adventure.json"
	case "choicescript":
		data = []byte(RenderChoiceScript(adv))
		defaultName = "startup.txt"
	default:
		return result, fmt.Errorf("formato '%s' non supportato", options.Format)
	}
	if err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("errore serializzazione: %w", err)
	}

	outputPath := options.Output
	if outputPath == "" {
		outputPath = defaultName
	}
	if !filepath.IsAbs(outputPath) && ex.outputDir != "" {
		outputPath = filepath.Join(ex.outputDir, outputPath)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("errore scrittura output: %w", err)
	}

	result.Success = true
	result.OutputFile = outputPath
	return result, nil
}

// RenderChoiceScript rende l'avventura in testo ChoiceScript: le scene
// diventano label, le scelte blocchi *choice con *goto
func RenderChoiceScript(adv *model.Adventure) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("*title %s\n\n", adv.Title))

	// Dichiarazioni degli stat, in ordine deterministico
	statIDs := make([]string, 0, len(adv.Stats))
	for id := range adv.Stats {
		statIDs = append(statIDs, id)
	}
	sort.Strings(statIDs)
	for _, id := range statIDs {
		b.WriteString(fmt.Sprintf("*create %s %v\n", id, adv.Stats[id].Default))
	}
	if len(statIDs) > 0 {
		b.WriteString("\n")
	}

	// La scena di partenza va resa per prima
	sceneIDs := make([]string, 0, len(adv.Scenes))
	for id := range adv.Scenes {
		if id != adv.StartScene {
			sceneIDs = append(sceneIDs, id)
		}
	}
	sort.Strings(sceneIDs)
	if _, exists := adv.Scenes[adv.StartScene]; exists {
		sceneIDs = append([]string{adv.StartScene}, sceneIDs...)
	}

	for _, id := range sceneIDs {
		scene := adv.Scenes[id]
		b.WriteString(fmt.Sprintf("*label %s\n", id))
		if scene.Content != "" {
			b.WriteString(scene.Content)
			b.WriteString("\n")
		}
		if len(scene.Choices) == 0 {
			b.WriteString("*finish\n\n")
			continue
		}
		b.WriteString("*choice\n")
		for _, choice := range scene.Choices {
			b.WriteString(fmt.Sprintf("    #%s\n", choice.Text))
			for _, action := range choice.Actions {
				b.WriteString(renderAction(&action))
			}
			if choice.Target != "" {
				b.WriteString(fmt.Sprintf("        *goto %s\n", choice.Target))
			} else {
				b.WriteString("        *finish\n")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderAction(action *model.Action) string {
	switch action.Type {
	case "set":
		return fmt.Sprintf("        *set %s %v\n", action.Stat, action.Value)
	case "add":
		return fmt.Sprintf("        *set %s +%v\n", action.Stat, action.Value)
	case "toggle":
		return fmt.Sprintf("        *set %s not(%s)\n", action.Stat, action.Stat)
	}
	return ""
}
