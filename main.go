package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"adventure-editor/api"
	"adventure-editor/config"
	"adventure-editor/parser"
	"adventure-editor/validation"
)

func main() {
	configPath := flag.String("config", "", "Path del file di configurazione YAML")
	port := flag.Int("port", 0, "Porta del server (sovrascrive la config)")
	debug := flag.Bool("debug", false, "Abilita la modalità debug")
	validateFile := flag.String("validate", "", "Valida un file .adventure.json ed esci")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Errore caricamento config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.Debug = true
	}

	// Modalità one-shot: valida e stampa, senza avviare il server
	if *validateFile != "" {
		runValidate(*validateFile, cfg)
		return
	}

	fmt.Println("Adventure Editor Backend v0.1.0")
	fmt.Println("================================")

	server, err := api.NewServer(api.ServerConfig{
		Port:        cfg.Port,
		EnableCORS:  cfg.EnableCORS,
		Debug:       cfg.Debug,
		OutputDir:   cfg.OutputDir,
		Debounce:    cfg.Debounce(),
		CacheTTL:    cfg.CacheTTL(),
		HistoryMax:  cfg.HistoryLimit,
		GroupWindow: cfg.GroupWindow(),
	})
	if err != nil {
		log.Fatalf("❌ Errore inizializzazione server: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("❌ Errore server: %v", err)
	}
}

// runValidate valida un singolo file e stampa il report
func runValidate(path string, cfg *config.Config) {
	adventureParser := parser.NewAdventureParser(path)
	adv, err := adventureParser.Parse()
	if err != nil {
		log.Fatalf("❌ Errore nel parsing: %v", err)
	}

	validator := validation.NewValidator(cfg.CacheTTL())
	result := validator.Validate(adv, validation.Options{SkipCache: true})

	fmt.Printf("📖 %s — %d scene, %d stat\n\n", adv.Title, len(adv.Scenes), len(adv.Stats))

	for _, e := range result.Errors {
		fmt.Printf("❌ [%s] %s\n", e.Rule, e.Message)
	}
	for _, w := range result.Warnings {
		fmt.Printf("⚠️  [%s] %s\n", w.Rule, w.Message)
	}
	for _, i := range result.Infos {
		fmt.Printf("ℹ️  [%s] %s\n", i.Rule, i.Message)
	}

	if result.Valid {
		fmt.Println("\n✅ Avventura valida!")
		return
	}
	fmt.Printf("\n❌ Validazione fallita: %d errori\n", len(result.Errors))
	os.Exit(1)
}
