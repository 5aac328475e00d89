// Package api exposes the transcription engine over a local HTTP interface.
package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/engine"
	"github.com/betterfasterwhisper/whisper-core/internal/moduleinfo"
	"github.com/betterfasterwhisper/whisper-core/internal/store"
)

const maxUploadBytes = 25 * 1024 * 1024

// Server wires the engine service, history store and HTTP routes together.
type Server struct {
	svc     *engine.Service
	history *store.Store
	cfg     config.Config
	log     *slog.Logger
	uploads string
}

// ServerOptions configures a Server. History may be nil; transcriptions then
// succeed without being recorded.
type ServerOptions struct {
	Service   *engine.Service
	History   *store.Store
	Config    config.Config
	Logger    *slog.Logger
	UploadDir string
}

// NewServer builds a Server. Panics if Service is nil.
func NewServer(opts ServerOptions) *Server {
	if opts.Service == nil {
		panic("api: Service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	uploads := opts.UploadDir
	if uploads == "" {
		uploads = os.TempDir()
	}
	return &Server{
		svc:     opts.Service,
		history: opts.History,
		cfg:     opts.Config,
		log:     opts.Logger.With("component", "api"),
		uploads: uploads,
	}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())

	r.GET("/health", s.health)

	v1 := r.Group("/v1")
	{
		v1.GET("/version", s.version)
		v1.POST("/engine/initialize", s.initialize)
		v1.POST("/engine/shutdown", s.shutdown)
		v1.GET("/engine/status", s.status)
		v1.POST("/transcriptions", s.transcribe)
		v1.GET("/transcriptions", s.listHistory)
		v1.GET("/transcriptions/:id", s.getHistory)
		v1.DELETE("/transcriptions/:id", s.deleteHistory)
	}
	return r
}

// requestID tags every request so log lines can be correlated.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	success(c, gin.H{
		"status":  "ok",
		"service": moduleinfo.Info.Slug,
	})
}

func (s *Server) version(c *gin.Context) {
	success(c, gin.H{
		"name":    moduleinfo.Info.Name,
		"version": moduleinfo.Info.Version,
	})
}

// InitializeRequest carries optional overrides on top of the daemon config.
type InitializeRequest struct {
	ModelPath string `json:"model_path"`
	ModelSize string `json:"model_size"`
	Language  string `json:"language"`
	Translate *bool  `json:"translate"`
	Threads   *int   `json:"threads"`
	UseGPU    *bool  `json:"use_gpu"`
	Backend   string `json:"backend"`
}

func (s *Server) initialize(c *gin.Context) {
	var req InitializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	cfg := s.cfg
	if req.ModelPath != "" {
		cfg.ModelPath = req.ModelPath
	}
	if req.ModelSize != "" {
		cfg.ModelSize = req.ModelSize
	}
	if req.Language != "" {
		cfg.Language = req.Language
	}
	if req.Backend != "" {
		cfg.Backend = req.Backend
	}
	if req.Translate != nil {
		cfg.Translate = *req.Translate
	}
	if req.Threads != nil {
		cfg.Threads = *req.Threads
	}
	if req.UseGPU != nil {
		cfg.UseGPU = *req.UseGPU
	}

	if err := s.svc.Initialize(c.Request.Context(), cfg); err != nil {
		s.log.Error("initialize failed", "error", err, "request_id", c.GetString("request_id"))
		fail(c, statusFor(err), err.Error())
		return
	}
	success(c, gin.H{
		"status":     "initialized",
		"backend":    cfg.Backend,
		"model_size": cfg.ModelSize,
	})
}

func (s *Server) shutdown(c *gin.Context) {
	s.svc.Shutdown()
	success(c, gin.H{"status": "shutdown"})
}

func (s *Server) status(c *gin.Context) {
	data := gin.H{"initialized": s.svc.IsInitialized()}
	if cfg, ok := s.svc.Config(); ok {
		data["backend"] = cfg.Backend
		data["model_size"] = cfg.ModelSize
		data["language"] = cfg.Language
	}
	success(c, data)
}

func (s *Server) transcribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		if file, err = c.FormFile("file"); err != nil {
			fail(c, http.StatusBadRequest, "audio file is required")
			return
		}
	}
	if file.Size > maxUploadBytes {
		fail(c, http.StatusBadRequest, "file size exceeds 25MB limit")
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".wav" {
		fail(c, http.StatusBadRequest, "unsupported audio format, expected wav")
		return
	}

	dst := filepath.Join(s.uploads, uuid.NewString()+".wav")
	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.log.Error("upload save failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to save upload")
		return
	}
	defer os.Remove(dst)

	result, err := s.svc.TranscribeFile(c.Request.Context(), dst)
	if err != nil {
		s.log.Error("transcription failed", "error", err, "file", file.Filename,
			"request_id", c.GetString("request_id"))
		fail(c, statusFor(err), err.Error())
		return
	}

	rec := store.Record{
		Source:           file.Filename,
		Text:             result.Text,
		Language:         result.Language,
		SegmentCount:     len(result.Segments),
		AudioDurationMS:  result.AudioDurationMS,
		ProcessingTimeMS: result.ProcessingTimeMS,
	}
	if cfg, ok := s.svc.Config(); ok {
		rec.Backend = cfg.Backend
		rec.ModelSize = cfg.ModelSize
	}
	if s.history != nil {
		stored, err := s.history.Insert(rec)
		if err != nil {
			s.log.Warn("history insert failed", "error", err)
		} else {
			rec = stored
		}
	}

	success(c, gin.H{
		"id":                 rec.ID,
		"text":               result.Text,
		"language":           result.Language,
		"segments":           result.Segments,
		"audio_duration_ms":  result.AudioDurationMS,
		"processing_time_ms": result.ProcessingTimeMS,
	})
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		fail(c, http.StatusNotFound, "history is disabled")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	records, err := s.history.Recent(limit)
	if err != nil {
		s.log.Error("history list failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to retrieve history")
		return
	}
	success(c, gin.H{
		"items": records,
		"count": len(records),
		"limit": limit,
	})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.history == nil {
		fail(c, http.StatusNotFound, "history is disabled")
		return
	}
	rec, err := s.history.Get(c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		fail(c, http.StatusNotFound, "transcription not found")
		return
	}
	if err != nil {
		s.log.Error("history get failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to retrieve transcription")
		return
	}
	success(c, gin.H{"item": rec})
}

func (s *Server) deleteHistory(c *gin.Context) {
	if s.history == nil {
		fail(c, http.StatusNotFound, "history is disabled")
		return
	}
	id := c.Param("id")
	if _, err := s.history.Get(id); errors.Is(err, sql.ErrNoRows) {
		fail(c, http.StatusNotFound, "transcription not found")
		return
	}
	if err := s.history.Delete(id); err != nil {
		s.log.Error("history delete failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to delete transcription")
		return
	}
	success(c, gin.H{"id": id, "status": "deleted"})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, engine.ErrModelNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
