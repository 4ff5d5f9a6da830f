package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"murphy/internal/parser"
	"murphy/internal/session"
	"murphy/internal/store"
	"murphy/internal/timeline"
)

// #region request-bodies

type profileRequest struct {
	Username string `json:"username" binding:"required"`
	About    string `json:"about"`
}

type inputRequest struct {
	About     string `json:"about"`
	Goal      string `json:"goal"`
	Plan      string `json:"plan"`
	Concerns  string `json:"concerns"`
	Pessimism string `json:"pessimism"`
}

type mazeAnswerRequest struct {
	Answer string `json:"answer"`
}

type refineRequest struct {
	Feedback  string `json:"feedback"`
	Pessimism string `json:"pessimism"`
}

type feedbackRequest struct {
	Version  int    `json:"version"`
	Category string `json:"category"`
	Field    string `json:"field"`
	Item     int    `json:"item"`
	Value    bool   `json:"value"`
}

type selectVersionRequest struct {
	Index int `json:"index"`
}

type loadRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// #endregion request-bodies

// #region helpers

// run resolves the session id path param. Writes the 404 itself so callers
// can bail on ok=false.
func (s *Server) run(c *gin.Context) (*session.Run, bool) {
	r, ok := s.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil, false
	}
	return r, true
}

// writeError maps the session error taxonomy onto HTTP statuses. Bad input
// is the client's fault, sequencing violations are a conflict, and anything
// the model service mangled surfaces as a bad gateway.
func writeError(c *gin.Context, err error) {
	var (
		verr *session.ValidationError
		perr *session.PreconditionError
		serr *session.PersistenceError
		uerr *parser.UpstreamError
		terr *parser.StructureError
		ferr *parser.FormatError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &perr):
		c.JSON(http.StatusConflict, gin.H{"error": perr.Error()})
	case errors.As(err, &uerr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "timeline communication lost"})
	case errors.As(err, &terr), errors.As(err, &ferr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &serr):
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown plan"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": serr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func stateBody(r *session.Run) gin.H {
	return gin.H{
		"session_id":    r.ID(),
		"plan_id":       r.PlanID(),
		"state":         r.State(),
		"profile":       r.Profile(),
		"input":         r.Input(),
		"maze_answers":  r.MazeAnswers(),
		"versions":      r.Versions(),
		"current_index": r.CurrentIndex(),
	}
}

// #endregion helpers

// #region handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "persistence": s.store != nil})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	r := s.manager.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": r.ID(), "state": r.State()})
}

func (s *Server) handleGetSession(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateBody(r))
}

func (s *Server) handleReset(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	r.Reset()
	c.JSON(http.StatusOK, gin.H{"state": r.State(), "profile": r.Profile()})
}

func (s *Server) handleProfile(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.SetProfile(req.Username, req.About)
	c.JSON(http.StatusOK, gin.H{"profile": r.Profile()})
}

func (s *Server) handleInput(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input := timeline.UserInput{
		About:     req.About,
		Goal:      req.Goal,
		Plan:      req.Plan,
		Concerns:  req.Concerns,
		Pessimism: timeline.ParsePessimism(req.Pessimism),
	}
	if err := r.SubmitInput(c.Request.Context(), input); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     r.State(),
		"problems":  r.Problems(),
		"scenarios": len(r.Scenarios()),
	})
}

func (s *Server) handleMazeNode(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	node, more, err := r.CurrentMazeNode()
	if err != nil {
		writeError(c, err)
		return
	}
	if !more {
		c.JSON(http.StatusOK, gin.H{"complete": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": false, "scenario": node})
}

func (s *Server) handleMazeAnswer(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req mazeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.SubmitMazeAnswer(req.Answer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": r.MazeComplete()})
}

func (s *Server) handleFinalize(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	if err := r.Finalize(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	v, _ := r.CurrentVersion()
	c.JSON(http.StatusOK, gin.H{"state": r.State(), "plan_id": r.PlanID(), "version": v})
}

func (s *Server) handleRefine(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var pess *timeline.Pessimism
	if req.Pessimism != "" {
		p := timeline.ParsePessimism(req.Pessimism)
		pess = &p
	}
	if err := r.Refine(c.Request.Context(), req.Feedback, pess); err != nil {
		writeError(c, err)
		return
	}
	v, _ := r.CurrentVersion()
	c.JSON(http.StatusOK, gin.H{
		"state":         r.State(),
		"version":       v,
		"current_index": r.CurrentIndex(),
	})
}

func (s *Server) handleFeedback(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.SetBinaryFeedback(req.Version, req.Category, req.Field, req.Item, req.Value); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleVersions(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"versions":      r.Versions(),
		"current_index": r.CurrentIndex(),
	})
}

func (s *Server) handleSelectVersion(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req selectVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.SetCurrentVersion(req.Index); err != nil {
		writeError(c, err)
		return
	}
	v, _ := r.CurrentVersion()
	c.JSON(http.StatusOK, gin.H{"current_index": r.CurrentIndex(), "version": v})
}

func (s *Server) handleFollowup(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	plan, err := r.EnsureFollowup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": r.State(), "followup": plan})
}

func (s *Server) handleLoad(c *gin.Context) {
	r, ok := s.run(c)
	if !ok {
		return
	}
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.LoadRun(req.PlanID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateBody(r))
}

func (s *Server) handleListUsers(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	users, err := s.store.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	runs, err := s.store.ListRunsForUser(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// #endregion handlers
