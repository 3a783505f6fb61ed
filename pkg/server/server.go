package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yurifrl/bankrec/pkg/config"
	"github.com/yurifrl/bankrec/pkg/csv"
	"github.com/yurifrl/bankrec/pkg/importer"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/matcher"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/parser"
	"github.com/yurifrl/bankrec/pkg/reconcile"
)

// OperationSource provides the index entries served and matched against.
// Both *index.FileSource and *store.Storage implement it.
type OperationSource interface {
	ListOperations(filter index.Filter) ([]models.IndexEntry, error)
}

// Server exposes the index, the matcher and the parser over HTTP.
type Server struct {
	config     *config.Config
	logger     *log.Logger
	router     *gin.Engine
	parser     *parser.Parser
	importer   *importer.Importer
	matcher    *matcher.Matcher
	operations OperationSource
}

// New creates a new HTTP server
func New(cfg *config.Config, logger *log.Logger, operations OperationSource) *Server {
	s := &Server{
		config:     cfg,
		logger:     logger,
		router:     gin.New(),
		parser:     parser.New(logger, parser.WithDefaultCurrency(cfg.Parser.DefaultCurrency)),
		importer:   importer.New(logger),
		matcher:    matcher.NewMatcher(cfg.MatcherConfig()),
		operations: operations,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	s.logger.Info("starting api server", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.Use(s.withLogging())
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error("panic recovered", "panic", rec, "method", c.Request.Method, "path", c.Request.URL.Path)
		s.respondError(c, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
	}))
	if len(s.config.Server.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:  s.config.Server.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	api := s.router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
		api.GET("/operations", s.handleOperations)
		api.POST("/match", s.handleMatch)
		api.POST("/parse", s.handleParse)
	}
}

func queryFilter(c *gin.Context) (index.Filter, error) {
	return index.ParseFilter(
		c.Query("start"),
		c.Query("end"),
		c.Query("min"),
		c.Query("max"),
		c.Query("counterparty"),
	)
}

func (s *Server) handleOperations(c *gin.Context) {
	filter, err := queryFilter(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid filter", err)
		return
	}
	entries, err := s.operations.ListOperations(filter)
	if err != nil {
		s.respondError(c, http.StatusServiceUnavailable, "operations index unavailable", err)
		return
	}

	if c.Query("format") == "csv" {
		records := make([]*models.IndexEntry, len(entries))
		for i := range entries {
			records[i] = &entries[i]
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", csv.Create(records, nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(entries),
		"operations": entries,
	})
}

// handleMatch reconciles the posted invoices against the index. The query
// accepts the same filters as /api/operations to narrow the candidates.
func (s *Server) handleMatch(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "failed to read body", err)
		return
	}
	format := importer.FormatJSON
	if strings.Contains(c.ContentType(), "yaml") {
		format = importer.FormatYAML
	}
	invoices, err := s.importer.Decode(data, format)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid invoices", err)
		return
	}

	filter, err := queryFilter(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid filter", err)
		return
	}
	entries, err := s.operations.ListOperations(filter)
	if err != nil {
		s.respondError(c, http.StatusServiceUnavailable, "operations index unavailable", err)
		return
	}

	report, err := reconcile.Build(c.Request.Context(), s.matcher, invoices, entries)
	if err != nil {
		s.respondError(c, http.StatusServiceUnavailable, "match interrupted", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type parseRequest struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines" binding:"required"`
}

func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if req.Name == "" {
		req.Name = "request"
	}

	st, err := s.parser.ParseLines(req.Name, req.Lines)
	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		s.respondError(c, http.StatusUnprocessableEntity, perr.Reason, err)
		return
	case err != nil:
		s.respondError(c, http.StatusInternalServerError, "failed to parse statement", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", c.Request.Method, "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"status": "error",
		"error":  message,
	})
}

// withLogging logs request start and end.
func (s *Server) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.logger.Debug("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "remote", c.ClientIP())
		c.Next()
		s.logger.Debug("http response",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
