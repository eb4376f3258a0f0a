package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"adventure-editor/model"
)

// AdventureParser gestisce il caricamento dei file .adventure.json
type AdventureParser struct {
	filepath string
}

// NewAdventureParser crea un nuovo parser
func NewAdventureParser(filepath string) *AdventureParser {
	return &AdventureParser{filepath: filepath}
}

// Parse legge e decodifica il file. Il parser è volutamente tollerante:
// target dangling, start mancante o stat non definiti non sono errori di
// parsing, è la validazione a segnalarli.
func (ap *AdventureParser) Parse() (*model.Adventure, error) {
	data, err := os.ReadFile(ap.filepath)
	if err != nil {
		return nil, fmt.Errorf("errore apertura file: %w", err)
	}

	adv := &model.Adventure{}
	if err := json.Unmarshal(data, adv); err != nil {
		return nil, fmt.Errorf("errore decodifica JSON: %w", err)
	}

	// Il marcatore di modifica viene dal filesystem: senza, due versioni
	// dello stesso file con pari conteggi collassano sulla stessa
	// fingerprint di cache e la rivalidazione servirebbe risultati stantii
	if info, err := os.Stat(ap.filepath); err == nil {
		adv.ModifiedAt = info.ModTime()
	} else {
		adv.ModifiedAt = time.Now()
	}

	// Normalizza le map nulle e riallinea gli id alle chiavi
	if adv.Scenes == nil {
		adv.Scenes = make(map[string]*model.Scene)
	}
	if adv.Stats == nil {
		adv.Stats = make(map[string]*model.Stat)
	}
	for id, scene := range adv.Scenes {
		if scene == nil {
			delete(adv.Scenes, id)
			continue
		}
		if scene.ID == "" {
			scene.ID = id
		}
		if scene.Choices == nil {
			scene.Choices = []*model.Choice{}
		}
	}
	for id, stat := range adv.Stats {
		if stat == nil {
			delete(adv.Stats, id)
			continue
		}
		if stat.ID == "" {
			stat.ID = id
		}
	}

	return adv, nil
}
