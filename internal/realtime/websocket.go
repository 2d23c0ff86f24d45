// Package realtime serves the quiz UI channel over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/quizzical/internal/identity"
	"github.com/ashureev/quizzical/internal/quiz"
	"github.com/ashureev/quizzical/internal/session"
	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Client message types.
const (
	msgStart        = "start"
	msgPlayAgain    = "play_again"
	msgSelect       = "select"
	msgCheck        = "check"
	msgDismissError = "dismiss_error"
	msgPing         = "ping"
)

// clientMessage is a UI event sent by the browser.
type clientMessage struct {
	Type     string `json:"type"`
	Question int    `json:"question"`
	Answer   int    `json:"answer"`
}

// serverMessage is pushed to the browser.
type serverMessage struct {
	Type  string     `json:"type"`
	View  *quiz.View `json:"view,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Handler upgrades requests to a quiz WebSocket.
type Handler struct {
	sessions      *session.Manager
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new WebSocket handler.
func NewHandler(sessions *session.Manager, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		sessions:      sessions,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	logger := slog.With("user_id", userID, "session_id", sessionID)

	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ctrl, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		logger.Error("Failed to open quiz session", "error", err)
		http.Error(w, "failed to open quiz session", http.StatusInternalServerError)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	logger.Info("Quiz WebSocket connected", "ip", identity.IPFromRequest(r))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	conn := &conn{ws: ws, logger: logger}
	if err := conn.sendView(ctx, ctrl.State()); err != nil {
		return
	}

	go func() {
		defer cancel()
		for {
			select {
			case s, ok := <-updates:
				if !ok {
					// Session was reaped.
					return
				}
				if err := conn.sendView(ctx, s); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	h.readLoop(ctx, conn, ctrl)
	logger.Info("Quiz WebSocket closed")
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, c *conn, ctrl *quiz.Controller) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				c.logger.Debug("WebSocket closed", "error", err)
			} else {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.send(ctx, serverMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case msgStart, msgPlayAgain:
			// Start blocks on the question bank; run it aside so the
			// user can still dismiss errors or re-trigger start.
			go func() {
				if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					c.logger.Debug("Quiz start failed", "error", err)
				}
			}()
		case msgSelect:
			ctrl.Select(msg.Question, msg.Answer)
		case msgCheck:
			ctrl.Check()
		case msgDismissError:
			ctrl.DismissError()
		case msgPing:
			if err := c.send(ctx, serverMessage{Type: "pong"}); err != nil {
				return
			}
		default:
			_ = c.send(ctx, serverMessage{Type: "error", Error: "unknown message type"})
		}
	}
}
