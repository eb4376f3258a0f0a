package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"adventure-editor/export"
	"adventure-editor/history"
	"adventure-editor/model"
	"adventure-editor/parser"
	"adventure-editor/simulator"
	"adventure-editor/validation"
	"adventure-editor/watcher"
)

// Server rappresenta il server API. Ogni server è una sessione editor a
// sé: workspace, validatore e history sono istanze esplicite, mai
// singleton di processo.
type Server struct {
	router       *gin.Engine
	workspace    *model.Workspace
	validator    *validation.Validator
	manager      *history.Manager
	scheduler    *validation.Scheduler
	exporter     *export.Exporter
	watcher      *watcher.FileWatcher
	watcherMutex sync.Mutex
	wsClients    map[*websocket.Conn]bool
	wsMutex      sync.Mutex
	wsUpgrader   websocket.Upgrader
	port         int
}

// ServerConfig configurazione del server
type ServerConfig struct {
	Port        int
	EnableCORS  bool
	Debug       bool
	OutputDir   string
	Debounce    time.Duration
	CacheTTL    time.Duration
	HistoryMax  int
	GroupWindow time.Duration
}

// NewServer crea un nuovo server API con la sua sessione editor
func NewServer(config ServerConfig) (*Server, error) {
	// Imposta modalità Gin
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS se abilitato
	if config.EnableCORS {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	workspace := model.NewWorkspace()
	validator := validation.NewValidator(config.CacheTTL)

	managerOpts := []history.Option{
		history.WithSnapshots(func() *model.Adventure {
			return workspace.Adventure().Clone()
		}),
	}
	if config.HistoryMax > 0 {
		managerOpts = append(managerOpts, history.WithLimit(config.HistoryMax))
	}
	if config.GroupWindow > 0 {
		managerOpts = append(managerOpts, history.WithGroupWindow(config.GroupWindow))
	}

	exporter, err := export.NewExporter(validator, config.OutputDir)
	if err != nil {
		return nil, err
	}

	server := &Server{
		router:    router,
		workspace: workspace,
		validator: validator,
		manager:   history.NewManager(managerOpts...),
		exporter:  exporter,
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		port: config.Port,
	}

	// Lo scheduler coalizza le modifiche e spinge il risultato ai client
	server.scheduler = validation.NewScheduler(config.Debounce, func() {
		result := validator.Validate(workspace.Adventure(), validation.Options{})
		server.broadcast(gin.H{
			"type":     "validation",
			"valid":    result.Valid,
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
			"result":   result,
		})
	})

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// setupRoutes configura tutti gli endpoint
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		// Health check
		api.GET("/health", s.healthCheck)

		// Adventure endpoints
		api.GET("/adventure", s.getAdventure)
		api.POST("/adventure/import", s.importAdventure)
		api.POST("/adventure/clear", s.clearAdventure)
		api.POST("/adventure/validate", s.validateAdventure)
		api.POST("/adventure/export", s.exportAdventure)

		// Validazione stateless di un file
		api.POST("/validate", s.validateFile)

		// Scene endpoints
		api.POST("/scene", s.createScene)
		api.PUT("/scene/:id", s.updateScene)
		api.POST("/scene/:id/move", s.moveScene)
		api.DELETE("/scene/:id", s.deleteScene)
		api.POST("/scenes/delete", s.bulkDeleteScenes)

		// Choice endpoints
		api.POST("/scene/:id/choice", s.addChoice)
		api.PUT("/scene/:id/choice/:choiceId", s.updateChoice)
		api.DELETE("/scene/:id/choice/:choiceId", s.deleteChoice)

		// Connection endpoints
		api.POST("/connection", s.createConnection)
		api.DELETE("/connection", s.deleteConnection)

		// Stat endpoints
		api.POST("/stat", s.addStat)
		api.PUT("/stat/:id", s.updateStat)
		api.DELETE("/stat/:id", s.deleteStat)

		// History endpoints
		api.GET("/history", s.getHistory)
		api.POST("/history/undo", s.undo)
		api.POST("/history/redo", s.redo)
		api.POST("/history/clear", s.clearHistory)

		// Rule endpoints
		api.GET("/rules", s.getRules)
		api.POST("/rules", s.addRule)
		api.DELETE("/rules/:name", s.removeRule)

		// Path Simulator endpoints
		api.POST("/simulator/validate", s.validatePath)
		api.POST("/simulator/simulate", s.simulatePath)
		api.POST("/simulator/suggest", s.suggestPaths)

		// Watcher endpoints
		api.POST("/watch/start", s.startWatcher)
		api.POST("/watch/stop", s.stopWatcher)
		api.GET("/watch/status", s.getWatcherStatus)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// Start avvia il server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🚀 Server avviato su http://localhost%s", addr)
	log.Printf("📚 API disponibile su http://localhost%s/api", addr)
	log.Printf("🔌 WebSocket su ws://localhost%s/ws", addr)
	return s.router.Run(addr)
}

// Validator espone il validatore della sessione (per registrare regole
// custom dal codice ospite)
func (s *Server) Validator() *validation.Validator {
	return s.validator
}

// execute fa passare un comando dal manager e, se riesce, pianifica la
// rivalidazione debounced
func (s *Server) execute(c *gin.Context, cmd history.Command) bool {
	if err := s.manager.ExecuteCommand(context.Background(), cmd); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return false
	}
	s.scheduler.Request()
	return true
}

// ============================================
// Handlers
// ============================================

// healthCheck verifica lo stato del server
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": "0.1.0",
	})
}

// getAdventure restituisce l'avventura corrente del workspace
func (s *Server) getAdventure(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"adventure": s.workspace.Adventure(),
	})
}

// ImportAdventureRequest richiesta di import
type ImportAdventureRequest struct {
	FilePath string `json:"file_path" binding:"required"`
}

// importAdventure carica un file .adventure.json nel workspace
// (annullabile: l'avventura precedente resta nello snapshot del comando)
func (s *Server) importAdventure(c *gin.Context) {
	var req ImportAdventureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adventureParser := parser.NewAdventureParser(req.FilePath)
	adv, err := adventureParser.Parse()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cmd := history.NewImportAdventureCommand(s.workspace, s.workspace.Adventure(), adv)
	if !s.execute(c, cmd) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"title":   adv.Title,
		"scenes":  len(adv.Scenes),
	})
}

// clearAdventure svuota il workspace (annullabile)
func (s *Server) clearAdventure(c *gin.Context) {
	cmd := history.NewClearAdventureCommand(s.workspace, s.workspace.Adventure())
	if !s.execute(c, cmd) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// validateAdventure valida l'avventura corrente del workspace
func (s *Server) validateAdventure(c *gin.Context) {
	var opts validation.Options
	if err := c.ShouldBindJSON(&opts); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.validator.Validate(s.workspace.Adventure(), opts)
	c.JSON(http.StatusOK, result)
}

// ExportAdventureRequest richiesta di export
type ExportAdventureRequest struct {
	Format string `json:"format"`
	Output string `json:"output"`
}

// exportAdventure esporta l'avventura corrente (rifiutato con errori bloccanti)
func (s *Server) exportAdventure(c *gin.Context) {
	var req ExportAdventureRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.exporter.Export(s.workspace.Adventure(), &export.Options{
		Format: req.Format,
		Output: req.Output,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"error":    err.Error(),
			"warnings": result.Warnings,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     result.Success,
		"output_file": result.OutputFile,
		"warnings":    result.Warnings,
	})
}

// ValidateFileRequest richiesta di validazione file
type ValidateFileRequest struct {
	FilePath       string `json:"file_path" binding:"required"`
	SkipCache      bool   `json:"skip_cache"`
	IncludeContext bool   `json:"include_context"`
}

// validateFile valida un file .adventure.json senza toccare il workspace
func (s *Server) validateFile(c *gin.Context) {
	var req ValidateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adventureParser := parser.NewAdventureParser(req.FilePath)
	adv, err := adventureParser.Parse()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := s.validator.Validate(adv, validation.Options{
		SkipCache:      req.SkipCache,
		IncludeContext: req.IncludeContext,
	})
	c.JSON(http.StatusOK, result)
}

// ============================================
// Scene Handlers
// ============================================

// CreateSceneRequest richiesta di creazione scena
type CreateSceneRequest struct {
	ID      string `json:"id" binding:"required"`
	Title   string `json:"title"`
	Content string `json:"content"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// createScene crea una nuova scena
func (s *Server) createScene(c *gin.Context) {
	var req CreateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scene := &model.Scene{
		ID:       req.ID,
		Title:    req.Title,
		Content:  req.Content,
		Position: model.Position{X: req.X, Y: req.Y},
		Choices:  []*model.Choice{},
	}
	if !s.execute(c, history.NewCreateSceneCommand(s.workspace, scene)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scene": scene})
}

// UpdateSceneRequest richiesta di aggiornamento scena
type UpdateSceneRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updateScene aggiorna titolo e contenuto di una scena
func (s *Server) updateScene(c *gin.Context) {
	sceneID := c.Param("id")
	scene, exists := s.workspace.Adventure().Scenes[sceneID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scena non trovata"})
		return
	}

	var req UpdateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.execute(c, history.NewUpdateSceneCommand(s.workspace, scene, req.Title, req.Content)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MoveSceneRequest richiesta di spostamento scena
type MoveSceneRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// moveScene sposta una scena (i drag ravvicinati collassano in un undo)
func (s *Server) moveScene(c *gin.Context) {
	sceneID := c.Param("id")
	scene, exists := s.workspace.Adventure().Scenes[sceneID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scena non trovata"})
		return
	}

	var req MoveSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := history.NewMoveSceneCommand(s.workspace, sceneID, scene.Position,
		model.Position{X: req.X, Y: req.Y})
	if !s.execute(c, cmd) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteScene elimina una scena
func (s *Server) deleteScene(c *gin.Context) {
	sceneID := c.Param("id")
	scene, exists := s.workspace.Adventure().Scenes[sceneID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scena non trovata"})
		return
	}

	if !s.execute(c, history.NewDeleteSceneCommand(s.workspace, scene)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BulkDeleteRequest richiesta di cancellazione multipla
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// bulkDeleteScenes elimina N scene come unità atomica: se una
// cancellazione fallisce il grafo torna esattamente com'era
func (s *Server) bulkDeleteScenes(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := history.NewBulkDeleteScenesCommand(s.workspace, s.workspace.Adventure(), req.IDs,
		func(done, total int) {
			s.broadcast(gin.H{"type": "bulk_progress", "done": done, "total": total})
		})
	if !s.execute(c, cmd) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": len(req.IDs)})
}

// ============================================
// Choice / Connection Handlers
// ============================================

// addChoice aggiunge una scelta a una scena
func (s *Server) addChoice(c *gin.Context) {
	sceneID := c.Param("id")

	var choice model.Choice
	if err := c.ShouldBindJSON(&choice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if choice.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La scelta richiede un id"})
		return
	}

	if !s.execute(c, history.NewAddChoiceCommand(s.workspace, sceneID, &choice)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// updateChoice sostituisce una scelta esistente
func (s *Server) updateChoice(c *gin.Context) {
	sceneID := c.Param("id")
	choiceID := c.Param("choiceId")

	scene, exists := s.workspace.Adventure().Scenes[sceneID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scena non trovata"})
		return
	}
	oldChoice := scene.FindChoice(choiceID)
	if oldChoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scelta non trovata"})
		return
	}

	var choice model.Choice
	if err := c.ShouldBindJSON(&choice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	choice.ID = choiceID

	if !s.execute(c, history.NewUpdateChoiceCommand(s.workspace, sceneID, oldChoice, &choice)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteChoice elimina una scelta
func (s *Server) deleteChoice(c *gin.Context) {
	sceneID := c.Param("id")
	choiceID := c.Param("choiceId")

	scene, exists := s.workspace.Adventure().Scenes[sceneID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scena non trovata"})
		return
	}
	choice := scene.FindChoice(choiceID)
	if choice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scelta non trovata"})
		return
	}

	if !s.execute(c, history.NewDeleteChoiceCommand(s.workspace, sceneID, choice)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConnectionRequest richiesta di creazione/cancellazione connessione
type ConnectionRequest struct {
	SceneID  string `json:"scene_id" binding:"required"`
	ChoiceID string `json:"choice_id" binding:"required"`
	Target   string `json:"target"`
}

// createConnection collega una scelta a una scena target
func (s *Server) createConnection(c *gin.Context) {
	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldTarget := s.currentTarget(req.SceneID, req.ChoiceID)
	cmd := history.NewCreateConnectionCommand(s.workspace, req.SceneID, req.ChoiceID, oldTarget, req.Target)
	if !s.execute(c, cmd) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteConnection scollega una scelta
func (s *Server) deleteConnection(c *gin.Context) {
	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldTarget := s.currentTarget(req.SceneID, req.ChoiceID)
	cmd := history.NewDeleteConnectionCommand(s.workspace, req.SceneID, req.ChoiceID, oldTarget)
	if !s.execute(c, cmd) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) currentTarget(sceneID, choiceID string) string {
	if scene, exists := s.workspace.Adventure().Scenes[sceneID]; exists {
		if choice := scene.FindChoice(choiceID); choice != nil {
			return choice.Target
		}
	}
	return ""
}

// ============================================
// Stat Handlers
// ============================================

// addStat definisce un nuovo stat
func (s *Server) addStat(c *gin.Context) {
	var stat model.Stat
	if err := c.ShouldBindJSON(&stat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if stat.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lo stat richiede un id"})
		return
	}

	if !s.execute(c, history.NewAddStatCommand(s.workspace, &stat)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// updateStat sostituisce la definizione di uno stat
func (s *Server) updateStat(c *gin.Context) {
	statID := c.Param("id")
	oldStat, exists := s.workspace.Adventure().Stats[statID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stat non trovato"})
		return
	}

	var stat model.Stat
	if err := c.ShouldBindJSON(&stat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stat.ID = statID

	if !s.execute(c, history.NewUpdateStatCommand(s.workspace, oldStat, &stat)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteStat rimuove uno stat
func (s *Server) deleteStat(c *gin.Context) {
	statID := c.Param("id")
	stat, exists := s.workspace.Adventure().Stats[statID]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stat non trovato"})
		return
	}

	if !s.execute(c, history.NewDeleteStatCommand(s.workspace, stat)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ============================================
// History Handlers
// ============================================

// getHistory restituisce la proiezione della history per la UI
func (s *Server) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entries":  s.manager.History(),
		"can_undo": s.manager.CanUndo(),
		"can_redo": s.manager.CanRedo(),
	})
}

// undo annulla l'ultimo comando
func (s *Server) undo(c *gin.Context) {
	if err := s.manager.Undo(context.Background()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, history.ErrBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.scheduler.Request()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// redo ripete l'ultimo comando annullato
func (s *Server) redo(c *gin.Context) {
	if err := s.manager.Redo(context.Background()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, history.ErrBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.scheduler.Request()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// clearHistory svuota la history
func (s *Server) clearHistory(c *gin.Context) {
	if err := s.manager.Clear(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ============================================
// Rule Handlers
// ============================================

// getRules elenca le regole registrate
func (s *Server) getRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rules":   s.validator.Rules().Rules(),
	})
}

// AddRuleRequest richiesta di registrazione regola dichiarativa.
// Le regole via API sono parametriche: i client non possono spedire
// codice, scelgono un kind e i suoi parametri.
type AddRuleRequest struct {
	Name      string  `json:"name" binding:"required"`
	Kind      string  `json:"kind" binding:"required"` // "max-choices", "require-content"
	Level     string  `json:"level"`                   // default: warning
	Threshold float64 `json:"threshold"`               // solo per max-choices
}

// addRule registra una regola custom dichiarativa (invalida la cache)
func (s *Server) addRule(c *gin.Context) {
	var req AddRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	level := validation.LevelWarning
	switch req.Level {
	case "error":
		level = validation.LevelError
	case "info":
		level = validation.LevelInfo
	}

	var evaluate validation.RuleFunc
	switch req.Kind {
	case "max-choices":
		threshold := int(req.Threshold)
		if threshold <= 0 {
			threshold = 5
		}
		name := req.Name
		evaluate = func(adv *model.Adventure, ctx *validation.Context, res *validation.Result) error {
			for _, id := range ctx.SceneIDs {
				scene := ctx.Scene(id)
				if len(scene.Choices) > threshold {
					res.Add(validation.Finding{
						Level:   level,
						Rule:    name,
						Message: fmt.Sprintf("la scena '%s' ha %d scelte (massimo %d)", id, len(scene.Choices), threshold),
						SceneID: id,
					})
				}
			}
			return nil
		}
	case "require-content":
		name := req.Name
		evaluate = func(adv *model.Adventure, ctx *validation.Context, res *validation.Result) error {
			for _, id := range ctx.SceneIDs {
				if ctx.Scene(id).Content == "" {
					res.Add(validation.Finding{
						Level:   level,
						Rule:    name,
						Message: fmt.Sprintf("la scena '%s' non ha contenuto", id),
						SceneID: id,
					})
				}
			}
			return nil
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("kind '%s' non supportato", req.Kind)})
		return
	}

	if err := s.validator.AddRule(req.Name, level, req.Kind, evaluate); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.scheduler.Request()
	c.JSON(http.StatusOK, gin.H{"success": true, "name": req.Name})
}

// removeRule rimuove una regola per nome (invalida la cache)
func (s *Server) removeRule(c *gin.Context) {
	name := c.Param("name")
	if err := s.validator.RemoveRule(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.scheduler.Request()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ============================================
// Path Simulator Handlers
// ============================================

// PathRequest richiesta per il simulatore
type PathRequest struct {
	Path []string `json:"path" binding:"required"`
}

// validatePath valida un percorso sull'avventura corrente
func (s *Server) validatePath(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim := simulator.NewPathSimulator(s.workspace.Adventure())
	errors := sim.ValidatePath(req.Path)

	c.JSON(http.StatusOK, gin.H{
		"valid":  len(errors) == 0,
		"path":   req.Path,
		"errors": errors,
	})
}

// simulatePath simula l'esecuzione di un percorso
func (s *Server) simulatePath(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim := simulator.NewPathSimulator(s.workspace.Adventure())
	result := sim.SimulatePath(req.Path)

	c.JSON(http.StatusOK, result)
}

// SuggestPathsRequest richiesta di suggerimento percorsi
type SuggestPathsRequest struct {
	StartScene string `json:"start_scene" binding:"required"`
	MaxDepth   int    `json:"max_depth"`
}

// suggestPaths suggerisce percorsi validi
func (s *Server) suggestPaths(c *gin.Context) {
	var req SuggestPathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Default max depth
	if req.MaxDepth == 0 || req.MaxDepth > 10 {
		req.MaxDepth = 5
	}

	sim := simulator.NewPathSimulator(s.workspace.Adventure())
	paths := sim.GetSuggestedPaths(req.StartScene, req.MaxDepth)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"start_scene": req.StartScene,
		"max_depth":   req.MaxDepth,
		"paths":       paths,
		"count":       len(paths),
	})
}

// ============================================
// Watcher Handlers
// ============================================

// StartWatcherRequest richiesta avvio watcher
type StartWatcherRequest struct {
	Paths        []string `json:"paths" binding:"required"`
	AutoValidate bool     `json:"auto_validate"`
}

// startWatcher avvia il file watcher
func (s *Server) startWatcher(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	if s.watcher != nil && s.watcher.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Watcher già in esecuzione"})
		return
	}

	var req StartWatcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fw, err := watcher.NewFileWatcher(watcher.WatcherConfig{
		Paths:        req.Paths,
		Validator:    s.validator,
		AutoValidate: req.AutoValidate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := fw.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.watcher = fw

	// Invia eventi ai client WebSocket
	go s.broadcastWatcherEvents(fw)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Watcher avviato",
		"paths":   req.Paths,
	})
}

// stopWatcher ferma il file watcher
func (s *Server) stopWatcher(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	if s.watcher == nil || !s.watcher.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Watcher non in esecuzione"})
		return
	}

	if err := s.watcher.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.watcher = nil

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Watcher fermato",
	})
}

// getWatcherStatus ottiene lo stato del watcher
func (s *Server) getWatcherStatus(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	isRunning := s.watcher != nil && s.watcher.IsRunning()

	c.JSON(http.StatusOK, gin.H{
		"running": isRunning,
	})
}

// ============================================
// WebSocket
// ============================================

// handleWebSocket gestisce connessioni WebSocket
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Errore upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	total := len(s.wsClients)
	s.wsMutex.Unlock()
	log.Printf("🔌 Client WebSocket connesso (totale: %d)", total)

	// Mantieni la connessione aperta
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			s.wsMutex.Lock()
			delete(s.wsClients, conn)
			total = len(s.wsClients)
			s.wsMutex.Unlock()
			log.Printf("🔌 Client WebSocket disconnesso (totale: %d)", total)
			break
		}
	}
}

// broadcast invia un messaggio a tutti i client connessi
func (s *Server) broadcast(message gin.H) {
	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for client := range s.wsClients {
		if err := client.WriteJSON(message); err != nil {
			log.Printf("Errore invio WebSocket: %v", err)
			client.Close()
			delete(s.wsClients, client)
		}
	}
}

// broadcastWatcherEvents invia gli eventi del watcher ai client WebSocket
func (s *Server) broadcastWatcherEvents(fw *watcher.FileWatcher) {
	for event := range fw.Events() {
		s.broadcast(gin.H{
			"type":      event.Type,
			"path":      filepath.Base(event.Path),
			"full_path": event.Path,
			"errors":    event.Errors,
			"warnings":  event.Warnings,
			"timestamp": event.Timestamp,
		})
	}
}
