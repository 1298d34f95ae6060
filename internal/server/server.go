package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/adjeilabs/gavel/internal/config"
	"github.com/adjeilabs/gavel/internal/core"
	"github.com/adjeilabs/gavel/internal/core/adjudication"
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/llm"
	"github.com/adjeilabs/gavel/internal/store"
)

type Server struct {
	Engine *core.Engine
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using built-in defaults", cfgPath, err)
		cfg = config.Default()
	}

	// Env vars win over the file.
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		cfg.Store.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		cfg.Store.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}

	ctx := context.Background()

	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		log.Println("Using in-memory store")
		st = store.NewMemoryStore()
	default:
		mg, err := store.NewMemgraphStore(cfg.Store.URI, cfg.Store.User, cfg.Store.Password)
		if err != nil {
			log.Fatalf("Failed to connect to Memgraph: %v", err)
		}
		if err := mg.BuildIndices(ctx); err != nil {
			log.Printf("Warning: failed to build indices: %v", err)
		}
		st = mg
	}

	if err := store.SeedScenarios(ctx, st); err != nil {
		log.Printf("Warning: failed to seed scenarios: %v", err)
	}

	llmClient, transcriber, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	return &Server{
		Engine: core.NewEngine(st, llmClient, transcriber, cfg),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/scenarios", s.ListScenarios)
	r.GET("/scenarios/:id", s.GetScenario)
	r.POST("/scenarios/:id/cases", s.CreateCase)

	r.GET("/cases/:id", s.GetCase)
	r.POST("/cases/:id/join", s.JoinCase)
	r.POST("/cases/:id/submissions", s.SubmitTranscript)
	r.POST("/cases/:id/audio", s.SubmitAudio)
	r.POST("/cases/:id/advance", s.AdvanceStage)
	r.POST("/cases/:id/verdict", s.TriggerVerdict)
	r.GET("/cases/:id/verdict", s.GetVerdict)

	r.GET("/leaderboard", s.Leaderboard)

	return r
}

// statusFor maps engine error classes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, core.ErrNotParticipant):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, core.ErrCaseClosed):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation), errors.Is(err, adjudication.ErrNotReady):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	log.Printf("Request failed: %v", err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) ListScenarios(c *gin.Context) {
	scenarios, err := s.Engine.Scenarios(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios})
}

func (s *Server) GetScenario(c *gin.Context) {
	scenario, err := s.Engine.Scenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

type CreateCaseRequest struct {
	UserID       string `json:"user_id"`
	Side         string `json:"side"`
	OpponentType string `json:"opponent_type"`
}

func (s *Server) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	created, err := s.Engine.CreateCase(c.Request.Context(), c.Param("id"), req.UserID,
		model.Side(req.Side), model.OpponentType(req.OpponentType))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": created.UUID, "current_stage": created.CurrentStage})
}

func (s *Server) GetCase(c *gin.Context) {
	state, err := s.Engine.CaseState(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	participants := make([]gin.H, 0, len(state.Participants))
	for _, p := range state.Participants {
		participants = append(participants, gin.H{"user_id": p.UserID, "side": p.Side})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               state.Case.UUID,
		"title":            state.Case.Title,
		"summary":          state.Case.Summary,
		"case_type":        state.Case.CaseType,
		"opponent_type":    state.Case.OpponentType,
		"current_stage":    state.Case.CurrentStage,
		"status":           state.Case.Status,
		"participants":     participants,
		"side_a_submitted": state.SideASubmitted,
		"side_b_submitted": state.SideBSubmitted,
		"turn":             state.Turn,
	})
}

type JoinCaseRequest struct {
	UserID string `json:"user_id"`
	Side   string `json:"side"`
}

func (s *Server) JoinCase(c *gin.Context) {
	var req JoinCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, err := s.Engine.JoinCase(c.Request.Context(), c.Param("id"), req.UserID, model.Side(req.Side))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_id": p.CaseUUID, "side": p.Side})
}

type SubmitTranscriptRequest struct {
	UserID     string `json:"user_id"`
	Transcript string `json:"transcript"`
}

func (s *Server) SubmitTranscript(c *gin.Context) {
	var req SubmitTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sub, err := s.Engine.SubmitTranscript(c.Request.Context(), c.Param("id"),
		model.HumanSubmitter(req.UserID), req.Transcript, "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sub.UUID, "stage": sub.Stage, "side": sub.Side})
}

func (s *Server) SubmitAudio(c *gin.Context) {
	userID := c.PostForm("user_id")
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})
		return
	}
	defer file.Close()

	sub, err := s.Engine.SubmitAudio(c.Request.Context(), c.Param("id"),
		model.HumanSubmitter(userID), header.Filename, file)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sub.UUID, "stage": sub.Stage, "side": sub.Side, "transcript": sub.Transcript})
}

func (s *Server) AdvanceStage(c *gin.Context) {
	next, err := s.Engine.AdvanceStage(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "next_stage": next})
}

func (s *Server) TriggerVerdict(c *gin.Context) {
	v, err := s.Engine.Adjudicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": v.Result})
}

func (s *Server) GetVerdict(c *gin.Context) {
	v, err := s.Engine.Verdict(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_id": v.CaseUUID, "result": v.Result, "created_at": v.CreatedAt})
}

func (s *Server) Leaderboard(c *gin.Context) {
	entries, err := s.Engine.Leaderboard(c.Request.Context(), 50)
	if err != nil {
		fail(c, err)
		return
	}
	rows := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, gin.H{
			"lawyer_id":   e.UserID,
			"lawyer_name": e.Name,
			"score":       e.Score,
			"wins":        e.Wins,
			"losses":      e.Losses,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}
