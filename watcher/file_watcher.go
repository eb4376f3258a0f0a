package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"adventure-editor/parser"
	"adventure-editor/validation"
)

// FileWatcher monitora cambiamenti ai file .adventure.json e rivalida
// automaticamente dopo il debounce
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	watchedPaths []string
	validator    *validation.Validator
	debounceTime time.Duration
	eventChan    chan WatchEvent
	stopChan     chan bool

	// mu protegge debounce, isRunning e stopped: i timer scattano su
	// goroutine proprie mentre il loop eventi scrive la map
	mu        sync.Mutex
	debounce  map[string]*time.Timer
	isRunning bool
	stopped   bool
}

// WatchEvent rappresenta un evento del watcher
type WatchEvent struct {
	Type      string    `json:"type"` // "created", "modified", "deleted", "renamed", "validation_ok", "validation_error"
	Path      string    `json:"path"`
	Errors    int       `json:"errors,omitempty"`
	Warnings  int       `json:"warnings,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WatcherConfig configurazione per il watcher
type WatcherConfig struct {
	Paths        []string              // Path da monitorare
	Validator    *validation.Validator // Validatore da usare
	DebounceTime time.Duration         // Tempo di debounce (default: 500ms)
	AutoValidate bool                  // Valida automaticamente (default: true)
}

// NewFileWatcher crea un nuovo file watcher
func NewFileWatcher(config WatcherConfig) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("errore creazione watcher: %w", err)
	}

	// Default debounce time
	if config.DebounceTime == 0 {
		config.DebounceTime = 500 * time.Millisecond
	}

	fw := &FileWatcher{
		watcher:      watcher,
		watchedPaths: config.Paths,
		validator:    config.Validator,
		debounceTime: config.DebounceTime,
		eventChan:    make(chan WatchEvent, 100),
		stopChan:     make(chan bool),
		debounce:     make(map[string]*time.Timer),
	}
	if !config.AutoValidate {
		fw.validator = nil
	}

	// Aggiungi i path da monitorare
	for _, path := range config.Paths {
		if err := watcher.Add(path); err != nil {
			return nil, fmt.Errorf("errore aggiunta path %s: %w", path, err)
		}
		log.Printf("👀 Watching: %s", path)
	}

	return fw, nil
}

// Start avvia il file watcher
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.isRunning {
		fw.mu.Unlock()
		return fmt.Errorf("watcher già in esecuzione")
	}
	fw.isRunning = true
	fw.mu.Unlock()

	log.Println("🚀 File watcher avviato!")

	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}

				// Ignora file che non sono avventure
				if !strings.HasSuffix(event.Name, ".adventure.json") {
					continue
				}

				// Determina tipo evento
				var eventType string
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					eventType = "created"
				case event.Op&fsnotify.Write == fsnotify.Write:
					eventType = "modified"
				case event.Op&fsnotify.Remove == fsnotify.Remove:
					eventType = "deleted"
				case event.Op&fsnotify.Rename == fsnotify.Rename:
					eventType = "renamed"
				default:
					continue
				}

				log.Printf("📝 File %s: %s", eventType, filepath.Base(event.Name))

				fw.emit(WatchEvent{
					Type:      eventType,
					Path:      event.Name,
					Timestamp: time.Now(),
				})

				fw.scheduleRevalidate(event.Name, eventType)

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("❌ Errore watcher: %v", err)

			case <-fw.stopChan:
				log.Println("🛑 File watcher fermato")
				return
			}
		}
	}()

	return nil
}

// Stop ferma il file watcher: cancella i timer pendenti PRIMA di chiudere
// il canale eventi, così nessuna rivalidazione in coda scrive su un
// canale chiuso
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.isRunning {
		fw.mu.Unlock()
		return fmt.Errorf("watcher non in esecuzione")
	}
	fw.isRunning = false
	fw.stopped = true
	for path, timer := range fw.debounce {
		timer.Stop()
		delete(fw.debounce, path)
	}
	fw.mu.Unlock()

	fw.stopChan <- true

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("errore chiusura watcher: %w", err)
	}

	// Con stopped=true nessun emit può più entrare: chiudere è sicuro
	fw.mu.Lock()
	close(fw.eventChan)
	fw.mu.Unlock()
	return nil
}

// Events restituisce il canale degli eventi
func (fw *FileWatcher) Events() <-chan WatchEvent {
	return fw.eventChan
}

// IsRunning verifica se il watcher è attivo
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.isRunning
}

// AddPath aggiunge un path da monitorare
func (fw *FileWatcher) AddPath(path string) error {
	if err := fw.watcher.Add(path); err != nil {
		return fmt.Errorf("errore aggiunta path: %w", err)
	}
	fw.watchedPaths = append(fw.watchedPaths, path)
	log.Printf("👀 Watching: %s", path)
	return nil
}

// RemovePath rimuove un path dal monitoraggio
func (fw *FileWatcher) RemovePath(path string) error {
	if err := fw.watcher.Remove(path); err != nil {
		return fmt.Errorf("errore rimozione path: %w", err)
	}

	for i, p := range fw.watchedPaths {
		if p == path {
			fw.watchedPaths = append(fw.watchedPaths[:i], fw.watchedPaths[i+1:]...)
			break
		}
	}

	log.Printf("👁️  Stopped watching: %s", path)
	return nil
}

// emit pubblica un evento se il watcher non è stato fermato. A canale
// pieno l'evento viene scartato: mai bloccare il loop o un timer.
func (fw *FileWatcher) emit(ev WatchEvent) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return
	}
	select {
	case fw.eventChan <- ev:
	default:
	}
}

// scheduleRevalidate (ri)arma il timer di debounce per il singolo file
func (fw *FileWatcher) scheduleRevalidate(path, eventType string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return
	}
	if timer, exists := fw.debounce[path]; exists {
		timer.Stop()
	}
	fw.debounce[path] = time.AfterFunc(fw.debounceTime, func() {
		fw.mu.Lock()
		delete(fw.debounce, path)
		stopped := fw.stopped
		fw.mu.Unlock()
		if stopped {
			return
		}
		if (eventType == "modified" || eventType == "created") && fw.validator != nil {
			fw.revalidate(path)
		}
	})
}

// revalidate ricarica e rivalida il file quando viene modificato
func (fw *FileWatcher) revalidate(filePath string) {
	log.Printf("🔄 Rivalidazione: %s", filepath.Base(filePath))

	adventureParser := parser.NewAdventureParser(filePath)
	adv, err := adventureParser.Parse()
	if err != nil {
		log.Printf("❌ Parsing fallito per %s: %v", filepath.Base(filePath), err)
		fw.emit(WatchEvent{
			Type:      "validation_error",
			Path:      filePath,
			Errors:    1,
			Timestamp: time.Now(),
		})
		return
	}

	start := time.Now()
	result := fw.validator.Validate(adv, validation.Options{SkipCache: true})
	elapsed := time.Since(start)

	if !result.Valid {
		log.Printf("❌ Validazione fallita per %s (%v):", filepath.Base(filePath), elapsed)
		for _, e := range result.Errors {
			log.Printf("   - %s", e.Message)
		}
		fw.emit(WatchEvent{
			Type:      "validation_error",
			Path:      filePath,
			Errors:    len(result.Errors),
			Warnings:  len(result.Warnings),
			Timestamp: time.Now(),
		})
		return
	}

	log.Printf("✅ Avventura valida in %v", elapsed)
	if len(result.Warnings) > 0 {
		log.Printf("⚠️  %d warning(s)", len(result.Warnings))
	}
	fw.emit(WatchEvent{
		Type:      "validation_ok",
		Path:      filePath,
		Warnings:  len(result.Warnings),
		Timestamp: time.Now(),
	})
}
