// Package practice runs interactive practice sessions over WebSocket.
package practice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
	"github.com/ashureev/kinematics-lab/internal/problem"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Message types exchanged on a practice connection.
const (
	TypeProblem = "problem"
	TypeAnswer  = "answer"
	TypeResult  = "result"
	TypeNext    = "next"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeError   = "error"
)

const writeTimeout = 5 * time.Second

// clientMessage is a message sent by the browser.
type clientMessage struct {
	Type         string          `json:"type"`
	Value        json.RawMessage `json:"value,omitempty"`
	Tolerance    json.RawMessage `json:"tolerance,omitempty"`
	QuestionType json.RawMessage `json:"question_type,omitempty"`
}

// Score is the running tally for one connection.
type Score struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// Result is a graded answer plus the connection's score.
type Result struct {
	*problem.CheckResult
	Score Score `json:"score"`
}

// serverMessage is a message sent to the browser.
type serverMessage struct {
	Type    string          `json:"type"`
	Problem *domain.Problem `json:"problem,omitempty"`
	Result  *Result         `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Handler upgrades requests to practice sessions.
type Handler struct {
	engine         *problem.Engine
	allowedOrigins []string
	isDev          bool
	allowDebug     bool
}

// NewHandler creates a practice handler. Origins are checked against
// allowedOrigins unless isDev is set or "*" is allowed.
// Answers are included in problems only when allowDebug is set and the
// connection was opened with ?debug=true.
func NewHandler(engine *problem.Engine, allowedOrigins []string, isDev, allowDebug bool) *Handler {
	return &Handler{
		engine:         engine,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		allowDebug:     allowDebug,
	}
}

// session is the state of one connection.
type session struct {
	ws      *websocket.Conn
	debug   bool
	current *domain.Problem
	score   Score
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx := r.Context()
	s := &session{
		ws:    ws,
		debug: h.allowDebug && strings.EqualFold(r.URL.Query().Get("debug"), "true"),
	}
	slog.Info("Practice session started", "ip", r.RemoteAddr)

	if err := h.sendNext(ctx, s); err != nil {
		slog.Warn("Failed to send first problem", "error", err)
		return
	}

	h.readLoop(ctx, s)
	slog.Info("Practice session ended", "attempted", s.score.Attempted, "correct", s.score.Correct)
}

func (h *Handler) readLoop(ctx context.Context, s *session) {
	for {
		_, data, err := s.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client")
			} else {
				slog.Debug("WebSocket read error", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.write(ctx, s, serverMessage{Type: TypeError, Error: "Missing JSON"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case TypeAnswer:
			err = h.answer(ctx, s, msg)
		case TypeNext:
			err = h.sendNext(ctx, s)
		case TypePing:
			err = h.write(ctx, s, serverMessage{Type: TypePong})
		default:
			err = h.write(ctx, s, serverMessage{Type: TypeError, Error: "Unknown message type"})
		}
		if err != nil {
			slog.Debug("Practice session write failed", "error", err)
			return
		}
	}
}

// answer grades msg against the problem last sent on this connection and
// then sends the next one.
func (h *Handler) answer(ctx context.Context, s *session, msg clientMessage) error {
	if s.current == nil {
		return h.sendNext(ctx, s)
	}
	questionType := msg.QuestionType
	if len(questionType) == 0 {
		questionType = json.RawMessage(`"` + problem.QuestionDisplacement + `"`)
	}
	req := problem.CheckRequest{
		Type:      questionType,
		Value:     msg.Value,
		Tolerance: msg.Tolerance,
	}

	result, err := h.engine.Grade(s.current, req)
	if err != nil {
		return h.write(ctx, s, serverMessage{Type: TypeError, Error: errorMessage(err)})
	}

	s.score.Attempted++
	if result.IsCorrect {
		s.score.Correct++
	}
	if err := h.write(ctx, s, serverMessage{
		Type:   TypeResult,
		Result: &Result{CheckResult: result, Score: s.score},
	}); err != nil {
		return err
	}
	return h.sendNext(ctx, s)
}

func (h *Handler) sendNext(ctx context.Context, s *session) error {
	p, err := h.engine.NewProblem(ctx)
	if err != nil {
		slog.Error("Failed to generate problem", "error", err)
		return h.write(ctx, s, serverMessage{Type: TypeError, Error: "Internal error"})
	}
	s.current = p
	return h.write(ctx, s, serverMessage{Type: TypeProblem, Problem: p.Public(s.debug)})
}

func (h *Handler) write(ctx context.Context, s *session, msg serverMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.ws, msg)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, problem.ErrInvalidNumber):
		return "Invalid number"
	case errors.Is(err, problem.ErrInvalidQuestionType):
		return "Invalid question"
	case errors.Is(err, problem.ErrInvalidTolerance):
		return "Invalid tolerance"
	default:
		return "Missing JSON"
	}
}
