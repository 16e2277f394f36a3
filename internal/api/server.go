// Package api serves interactive phase scrubbing over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/semaphore"

	"orbitviz/adapters/jsondata"
	"orbitviz/app"
	"orbitviz/domain/core"
	"orbitviz/domain/dataset"
	"orbitviz/internal"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// Server owns the router, the live sessions and the render budget
type Server struct {
	router   *gin.Engine
	service  *app.DiagnosticsService
	sessions *sessionStore
	renders  *semaphore.Weighted
	hub      *SSEHub
	logger   *internal.Logger
}

// NewServer creates a server allowing maxRenders concurrent figure renders
func NewServer(service *app.DiagnosticsService, maxRenders int64, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   gin.New(),
		service:  service,
		sessions: newSessionStore(),
		renders:  semaphore.NewWeighted(maxRenders),
		hub:      NewSSEHub(logger),
		logger:   logger.With("api"),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	api.GET("/health", s.health)

	sessions := api.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id/curves", s.getCurves)
	sessions.GET("/:id/overlay", s.getOverlay)
	sessions.GET("/:id/markers", s.getMarkers)
	sessions.POST("/:id/phase", s.setPhase)
	sessions.GET("/:id/figure/:file", s.getFigure)
	sessions.GET("/:id/events", s.streamEvents)
	sessions.DELETE("/:id", s.deleteSession)

	runs := api.Group("/runs")
	runs.GET("", s.listRuns)
	runs.GET("/:id/corner", s.getCorner)
}

// Handler exposes the router
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("orbitviz API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.len()})
}

// createSession expects {"params": {...}, "data": {...}}; data is optional
func (s *Server) createSession(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, errors.InvalidInput("failed to read request body"))
		return
	}
	if !gjson.ValidBytes(body) {
		s.fail(c, errors.InvalidInput("request body is not valid JSON"))
		return
	}

	params, err := jsondata.ParseParams([]byte(gjson.GetBytes(body, "params").Raw))
	if err != nil {
		s.fail(c, err)
		return
	}
	var ds *dataset.DataSet
	if data := gjson.GetBytes(body, "data"); data.Exists() {
		if ds, err = jsondata.ParseDataSet([]byte(data.Raw), params.PhaseOf); err != nil {
			s.fail(c, err)
			return
		}
	}

	scene, err := s.service.BuildScene(params, ds)
	if err != nil {
		s.fail(c, err)
		return
	}
	sess := newSession(params, scene)
	s.sessions.put(sess)
	s.logger.Info("created session %s", sess.ID)

	c.JSON(http.StatusCreated, gin.H{
		"id":         sess.ID,
		"created_at": sess.CreatedAt,
		"kinds":      ds.Kinds(),
	})
}

func (s *Server) session(c *gin.Context) (*session, bool) {
	sess, err := s.sessions.get(core.SessionID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getCurves(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rv":    sess.Scene.Curves,
		"orbit": sess.Scene.Orbit,
	})
}

func (s *Server) getOverlay(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rv":  sess.Scene.RV,
		"sky": sess.Scene.Sky,
	})
}

func (s *Server) getMarkers(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	pos, placed := sess.Markers.Positions()
	resp := gin.H{"handles": sess.markerState()}
	if placed {
		resp["positions"] = pos
	}
	c.JSON(http.StatusOK, resp)
}

type phaseRequest struct {
	Phase *float64 `json:"phase" binding:"required"`
}

func (s *Server) setPhase(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req phaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.InvalidInput("body must be {\"phase\": <number>}"))
		return
	}

	// Broadcast inside the update so listeners see phases in update order.
	pos, err := sess.Markers.UpdateThen(sess.Scene.Model, *req.Phase, func(pos diagnostics.MarkerPositions) {
		s.hub.Broadcast(MarkerEvent{
			SessionID: sess.ID.String(),
			EventType: "markers",
			Positions: pos,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": pos, "handles": sess.markerState()})
}

// getFigure serves rv.png or sky.png; ?phase= overrides the session's
// current marker phase.
func (s *Server) getFigure(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	kind, found := strings.CutSuffix(c.Param("file"), ".png")
	if !found || (kind != string(ports.FigureRV) && kind != string(ports.FigureSky)) {
		s.fail(c, errors.NotFound("figure "+c.Param("file")))
		return
	}

	var phase *float64
	if raw := c.Query("phase"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.fail(c, errors.InvalidInput("phase must be a number"))
			return
		}
		phase = &v
	} else if pos, placed := sess.Markers.Positions(); placed {
		phase = &pos.Phase
	}

	phaseKey := "none"
	if phase != nil {
		phaseKey = strconv.FormatFloat(*phase, 'g', -1, 64)
	}
	etag := core.HashParts(sess.ID.String(), kind, phaseKey).ETag()
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ctx := c.Request.Context()
	if err := s.renders.Acquire(ctx, 1); err != nil {
		s.fail(c, errors.WithCode(errors.CodeInternalError, err))
		return
	}
	defer s.renders.Release(1)

	img, err := s.service.RenderFigure(ctx, sess.Scene, ports.FigureKind(kind), "png", phase)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) streamEvents(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.hub.stream(c, sess.ID.String())
}

func (s *Server) deleteSession(c *gin.Context) {
	id := core.SessionID(c.Param("id"))
	if err := s.sessions.remove(id); err != nil {
		s.fail(c, err)
		return
	}
	s.hub.Disconnect(id.String())
	s.logger.Info("deleted session %s", id)
	c.Status(http.StatusNoContent)
}

func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		s.fail(c, errors.InvalidInput("limit must be an integer"))
		return
	}
	runs, err := s.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// getCorner renders the corner diagram of a stored run as PNG
func (s *Server) getCorner(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := s.service.LoadRun(ctx, core.RunID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := s.renders.Acquire(ctx, 1); err != nil {
		s.fail(c, errors.WithCode(errors.CodeInternalError, err))
		return
	}
	defer s.renders.Release(1)

	out, err := s.service.Corner(ctx, res)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", out.PNG)
}

// fail maps an error code onto an HTTP status
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch code {
	case errors.CodeConfigInvalid, errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeDomainComputation:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
