// Package fakeapi is an in-memory implementation of the home budget HTTP
// API, used for local development and by tests.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/hbudget/internal/model"
)

var allowedImageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

type errorBody struct {
	Error string `json:"error"`
}

// Server holds the fake API state.
type Server struct {
	token string

	mu       sync.Mutex
	budgets  []model.Budget
	nextID   int
	images   map[string][]byte
	failures map[string]failure
	requests map[string]int
	// BaseURL prefixes returned image URLs; set it once the listener is known.
	BaseURL string
}

type failure struct {
	status int
	msg    string
}

// New returns an empty server that accepts token on authenticated routes.
func New(token string) *Server {
	return &Server{
		token:    token,
		nextID:   1,
		images:   make(map[string][]byte),
		failures: make(map[string]failure),
		requests: make(map[string]int),
	}
}

// Handler builds the gin engine serving the API.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestid.New(), gin.Recovery(), s.count, s.injectFailure)

	r.GET("/budget/:id", s.getBudget)
	r.GET("/uploads/:name", s.getImage)

	authed := r.Group("/", s.requireToken)
	authed.GET("/budgets", s.listBudgets)
	authed.POST("/budgets", s.createBudget)
	authed.POST("/budgets/upload", s.uploadImage)
	authed.PUT("/budgets/:id", s.updateBudget)
	authed.DELETE("/budgets/:id", s.deleteBudget)

	return r
}

// Seed inserts budgets directly and returns them with their ids.
func (s *Server) Seed(rows ...model.Fields) []model.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Budget, 0, len(rows))
	for _, f := range rows {
		b := s.insertLocked(f)
		out = append(out, b.Clone())
	}
	return out
}

// Budgets returns a snapshot of the stored budgets.
func (s *Server) Budgets() []model.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Budget, len(s.budgets))
	for i, b := range s.budgets {
		out[i] = b.Clone()
	}
	return out
}

// Fail makes every request matching "METHOD /route/pattern" answer with
// status and an {"error": msg} body until cleared with status 0.
func (s *Server) Fail(route string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, msg: msg}
}

// Requests returns how many requests hit "METHOD /route/pattern".
// An empty route returns the total.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if route != "" {
		return s.requests[route]
	}
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

// Image returns an uploaded file's bytes.
func (s *Server) Image(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.images[name]
	return b, ok
}

func routeKey(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.requests[routeKey(c)]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[routeKey(c)]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(f.status, errorBody{Error: f.msg})
		return
	}
	c.Next()
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing Authorization Header"})
		return
	}
	if strings.TrimPrefix(header, "Bearer ") != s.token {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"msg": "Signature verification failed"})
		return
	}
	c.Next()
}

func (s *Server) listBudgets(c *gin.Context) {
	c.JSON(http.StatusOK, s.Budgets())
}

func (s *Server) getBudget(c *gin.Context) {
	s.mu.Lock()
	idx := model.IndexOf(s.budgets, c.Param("id"))
	var b model.Budget
	if idx >= 0 {
		b = s.budgets[idx].Clone()
	}
	s.mu.Unlock()

	if idx < 0 {
		c.JSON(http.StatusNotFound, errorBody{Error: "Budget not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) createBudget(c *gin.Context) {
	fields, err := decodeFields(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}
	if _, ok := fields[model.FieldName]; !ok {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields"})
		return
	}
	if _, ok := fields[model.FieldAmount]; !ok {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields"})
		return
	}

	s.mu.Lock()
	b := s.insertLocked(fields).Clone()
	s.mu.Unlock()

	log.Debug().Str("request_id", requestid.Get(c)).Str("id", b.ID).Msg("fakeapi: budget created")
	c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBudget(c *gin.Context) {
	fields, err := decodeFields(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	idx := model.IndexOf(s.budgets, c.Param("id"))
	var b model.Budget
	if idx >= 0 {
		for k, v := range fields {
			if k == "id" {
				continue
			}
			s.budgets[idx].Fields[k] = v
		}
		b = s.budgets[idx].Clone()
	}
	s.mu.Unlock()

	if idx < 0 {
		c.JSON(http.StatusNotFound, errorBody{Error: "Budget not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBudget(c *gin.Context) {
	s.mu.Lock()
	idx := model.IndexOf(s.budgets, c.Param("id"))
	if idx >= 0 {
		s.budgets = append(s.budgets[:idx], s.budgets[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		c.JSON(http.StatusNotFound, errorBody{Error: "Budget not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

func (s *Server) uploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "No image file provided"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid file type"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Could not read upload"})
		return
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Could not read upload"})
		return
	}

	name := uuid.NewString() + ext
	s.mu.Lock()
	s.images[name] = buf.Bytes()
	base := s.BaseURL
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"image_url": base + "/uploads/" + name})
}

func (s *Server) getImage(c *gin.Context) {
	data, ok := s.Image(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody{Error: "Image not found"})
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func (s *Server) insertLocked(f model.Fields) model.Budget {
	b := model.NewNumbered(int64(s.nextID), make(map[string]any, len(f)))
	s.nextID++
	for k, v := range f {
		if k == "id" {
			continue
		}
		b.Fields[k] = v
	}
	s.budgets = append(s.budgets, b)
	return b
}

func decodeFields(r io.Reader) (model.Fields, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var f model.Fields
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("fakeapi: empty body")
	}
	return f, nil
}
