package model

// EditorHooks è il contratto che il core richiede all'editor che lo ospita.
// Ogni comando della history invoca questi hook per mutare il grafo: sono
// iniettati alla costruzione dei comandi, mai cablati a istanze globali.
// Ogni hook può restituire errore; il comando lo propaga al manager.
type EditorHooks interface {
	// Scene
	OnSceneCreate(scene *Scene) error
	OnSceneDelete(sceneID string) error
	OnSceneMove(sceneID string, pos Position) error
	OnSceneUpdate(sceneID, title, content string) error

	// Choice
	OnChoiceAdd(sceneID string, choice *Choice) error
	OnChoiceDelete(sceneID, choiceID string) error
	OnChoiceUpdate(sceneID string, choice *Choice) error

	// Connection (il target di una scelta esistente)
	OnConnectionCreate(sceneID, choiceID, targetID string) error
	OnConnectionDelete(sceneID, choiceID string) error

	// Stat
	OnStatAdd(stat *Stat) error
	OnStatUpdate(stat *Stat) error
	OnStatDelete(statID string) error

	// Adventure
	OnAdventureImport(adv *Adventure) error
	OnAdventureClear() error
}
