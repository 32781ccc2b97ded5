package server

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loykin/curlproxy/internal/auth/jwtauth"
	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/loykin/curlproxy/internal/util"
)

var smidPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Smid string `json:"smid" binding:"required"`
	Env  string `json:"env" binding:"required"`
}

// RawRequest is the body of POST /execute-raw. Parameters may be empty but must be present.
type RawRequest struct {
	URL        string  `json:"url" binding:"required"`
	Parameters *string `json:"parameters" binding:"required"`
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.logger), cors(s.cfg.CORSOrigin))

	base := engine.Group(s.cfg.BasePath)
	base.GET("/health", s.health)

	api := base.Group("")
	if s.cfg.JWT.Enabled() {
		api.Use(jwtauth.Middleware(s.cfg.JWT))
	}
	api.POST("/execute", s.execute)
	api.POST("/execute-raw", s.executeRaw)
	api.POST("/get", s.get)
	api.POST("/post", s.post)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
	return engine
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, constants.HealthMessage)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// run executes spec and answers 200 when the command succeeded, 400 otherwise.
func (s *Server) run(c *gin.Context, spec command.Spec) {
	resp, err := s.svc.Execute(c.Request.Context(), spec)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

func (s *Server) execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	smid := strings.TrimSpace(req.Smid)
	env := util.TrimAndLower(req.Env)
	if !smidPattern.MatchString(smid) {
		badRequest(c, "smid must match "+smidPattern.String())
		return
	}
	baseURL, ok := s.cfg.Environments[env]
	if !ok {
		badRequest(c, "invalid environment: "+req.Env)
		return
	}
	vars := map[string]string{"smid": smid, "env": env}
	s.logger.Info("execute request", "smid", smid, "env", env)
	s.run(c, command.Spec{
		TargetURL:     baseURL + util.Substitute(s.cfg.ExecutePath, vars),
		RawParameters: util.Substitute(s.cfg.ExecuteParameters, vars),
	})
}

func (s *Server) executeRaw(c *gin.Context) {
	var req RawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	url, ok := util.TrimEmptyCheck(req.URL)
	if !ok {
		badRequest(c, "url is required")
		return
	}
	s.run(c, command.Spec{TargetURL: url, RawParameters: *req.Parameters})
}

// param reads a request parameter from the query string or a form body.
func param(c *gin.Context, name string) string {
	if v, ok := c.GetQuery(name); ok {
		return v
	}
	return c.PostForm(name)
}

func (s *Server) get(c *gin.Context) {
	url, ok := util.TrimEmptyCheck(param(c, "url"))
	if !ok {
		badRequest(c, "url is required")
		return
	}
	params := "-X GET"
	if h := param(c, "headers"); h != "" {
		params += " " + h
	}
	s.run(c, command.Spec{TargetURL: url, RawParameters: params})
}

func (s *Server) post(c *gin.Context) {
	url, ok := util.TrimEmptyCheck(param(c, "url"))
	if !ok {
		badRequest(c, "url is required")
		return
	}
	var b strings.Builder
	b.WriteString("-X POST")
	if data := param(c, "data"); data != "" {
		b.WriteString(` -d "` + data + `"`)
	}
	if h := param(c, "headers"); h != "" {
		b.WriteString(" " + h)
	}
	s.run(c, command.Spec{TargetURL: url, RawParameters: b.String()})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution history is disabled"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution history is disabled"})
		return
	}
	run, err := s.runs.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, run)
	}
}

var _ RunStore = (*store.Store)(nil)
var _ proxy.Recorder = (*store.Recorder)(nil)
