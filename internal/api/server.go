// Package api exposes the aggregated job collection over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/pipeline"
)

// Runner triggers an aggregation cycle on demand.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Server serves the read API plus the on-demand run and cover letter endpoints.
type Server struct {
	store    model.Store
	runner   Runner
	provider ai.LLMProvider         // optional, enables cover letters
	docs     model.DocumentProvider // optional, resolves the template doc
	coverDoc string
	logger   *slog.Logger
	engine   *gin.Engine
}

// NewServer wires the routes. runner, provider, and docs may be nil; the
// corresponding endpoints then report 503.
func NewServer(store model.Store, runner Runner, provider ai.LLMProvider, docs model.DocumentProvider, coverDoc string, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:    store,
		runner:   runner,
		provider: provider,
		docs:     docs,
		coverDoc: coverDoc,
		logger:   logger,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)
	api := s.engine.Group("/api")
	{
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/top", s.topJobs)
		api.GET("/jobs/:id", s.getJob)
		api.GET("/status", s.status)
		api.POST("/run", s.triggerRun)
		api.POST("/jobs/:id/cover-letter", s.coverLetter)
	}
	return s
}

// Handler returns the underlying HTTP handler, for embedding in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("api server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listJobs(c *gin.Context) {
	jobs, err := s.store.LoadJobs()
	if err != nil {
		s.logger.Error("load jobs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}

	limit := len(jobs)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		if n < limit {
			limit = n
		}
	}

	c.JSON(http.StatusOK, gin.H{"count": len(jobs), "jobs": jobs[:limit]})
}

// topJobs returns the shortlisted jobs in shortlist order.
func (s *Server) topJobs(c *gin.Context) {
	shortlist, err := s.store.LoadShortlist()
	if err != nil {
		s.logger.Error("load shortlist failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shortlist"})
		return
	}

	jobs, err := s.store.LoadJobs()
	if err != nil {
		s.logger.Error("load jobs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}

	byID := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}

	top := make([]model.Job, 0, len(shortlist))
	for _, id := range shortlist {
		if j, ok := byID[id]; ok {
			top = append(top, j)
		}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": top})
}

func (s *Server) getJob(c *gin.Context) {
	job, ok, err := s.findJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) status(c *gin.Context) {
	status, err := s.store.Status()
	if err != nil {
		s.logger.Error("load status failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) triggerRun(c *gin.Context) {
	if s.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "runner not configured"})
		return
	}

	if err := s.runner.RunOnce(c.Request.Context()); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "run already in progress"})
			return
		}
		s.logger.Error("triggered run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (s *Server) coverLetter(c *gin.Context) {
	if s.provider == nil || s.docs == nil || s.coverDoc == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cover letter generation not configured"})
		return
	}

	job, ok, err := s.findJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	template, err := s.docs.FetchText(c.Request.Context(), s.coverDoc)
	if err != nil {
		s.logger.Error("fetch cover template failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch cover letter template"})
		return
	}

	letter, err := ai.GenerateCoverLetter(c.Request.Context(), s.provider, job, template)
	if err != nil {
		s.logger.Error("cover letter generation failed", "job_id", job.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "cover letter generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": job.ID, "cover_letter": letter})
}

func (s *Server) findJob(id string) (model.Job, bool, error) {
	jobs, err := s.store.LoadJobs()
	if err != nil {
		s.logger.Error("load jobs failed", "error", err)
		return model.Job{}, false, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, true, nil
		}
	}
	return model.Job{}, false, nil
}
