package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/kinematics-lab/internal/problem"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize caps /api/check bodies (1MB).
const maxRequestBodySize = 1 << 20

// Error messages returned by /api/check.
const (
	msgMissingJSON      = "Missing JSON"
	msgInvalidNumber    = "Invalid number"
	msgInvalidQuestion  = "Invalid question"
	msgInvalidTolerance = "Invalid tolerance"
	msgInternal         = "Internal error"
)

// ProblemHandler serves problem generation and answer checking.
type ProblemHandler struct {
	engine     *problem.Engine
	allowDebug bool
	checkMW    []func(http.Handler) http.Handler
}

// NewProblemHandler creates a handler. When allowDebug is false the debug
// query parameter is ignored and answers are never sent.
func NewProblemHandler(engine *problem.Engine, allowDebug bool) *ProblemHandler {
	return &ProblemHandler{engine: engine, allowDebug: allowDebug}
}

// WithCheckMiddleware adds middleware applied only to POST /api/check.
func (h *ProblemHandler) WithCheckMiddleware(mw ...func(http.Handler) http.Handler) *ProblemHandler {
	h.checkMW = append(h.checkMW, mw...)
	return h
}

// RegisterRoutes registers problem routes.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/problem", h.GetProblem)
		r.With(h.checkMW...).Post("/check", h.Check)
		r.Get("/config", h.GetConfig)
	})
}

// checkResponse is the success envelope for /api/check.
type checkResponse struct {
	OK bool `json:"ok"`
	*problem.CheckResult
}

// GetProblem generates a new problem.
func (h *ProblemHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	debug := h.allowDebug && strings.EqualFold(r.URL.Query().Get("debug"), "true")

	p, err := h.engine.NewProblem(r.Context())
	if err != nil {
		slog.Error("Failed to generate problem", "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	slog.Debug("Problem generated", "problem_id", p.ID, "debug", debug)
	JSON(w, http.StatusOK, p.Public(debug))
}

// Check grades a submitted answer.
func (h *ProblemHandler) Check(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckRequest(r)
	if err != nil {
		slog.Debug("Rejected check request", "error", err)
		Error(w, http.StatusBadRequest, msgMissingJSON)
		return
	}

	result, err := h.engine.CheckAnswer(r.Context(), req)
	if err != nil {
		status, msg := checkError(err)
		if status == http.StatusInternalServerError {
			slog.Error("Check failed", "error", err)
		} else {
			slog.Debug("Check rejected", "error", err)
		}
		Error(w, status, msg)
		return
	}

	JSON(w, http.StatusOK, checkResponse{OK: true, CheckResult: result})
}

// GetConfig returns settings the frontend needs.
func (h *ProblemHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"mode":              h.engine.Mode(),
		"debug_answers":     h.allowDebug,
		"default_tolerance": h.engine.DefaultTolerance(),
	})
}

// decodeCheckRequest reads a JSON object body. Empty, malformed and
// non-object bodies are rejected.
func decodeCheckRequest(r *http.Request) (problem.CheckRequest, error) {
	var req problem.CheckRequest
	if r.Body == nil {
		return req, problem.ErrInvalidRequest
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return req, err
	}
	if len(body) > maxRequestBodySize {
		return req, errors.New("request body too large")
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return req, problem.ErrInvalidRequest
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

// checkError maps engine errors to the fixed client messages. Unknown ids
// share the "Missing JSON" message with malformed requests.
func checkError(err error) (int, string) {
	switch {
	case errors.Is(err, problem.ErrInvalidRequest), errors.Is(err, problem.ErrNotFound):
		return http.StatusBadRequest, msgMissingJSON
	case errors.Is(err, problem.ErrInvalidNumber):
		return http.StatusBadRequest, msgInvalidNumber
	case errors.Is(err, problem.ErrInvalidQuestionType):
		return http.StatusBadRequest, msgInvalidQuestion
	case errors.Is(err, problem.ErrInvalidTolerance):
		return http.StatusBadRequest, msgInvalidTolerance
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
