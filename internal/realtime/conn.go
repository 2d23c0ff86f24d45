package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ashureev/quizzical/internal/quiz"
	"github.com/coder/websocket"
)

// conn serializes writes to one WebSocket.
type conn struct {
	ws     *websocket.Conn
	logger *slog.Logger
	mu     sync.Mutex
}

func (c *conn) sendView(ctx context.Context, s quiz.State) error {
	v := quiz.Render(s)
	return c.send(ctx, serverMessage{Type: "view", View: &v})
}

func (c *conn) send(ctx context.Context, msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		if ctx.Err() == nil {
			c.logger.Debug("WebSocket write error", "error", err)
		}
		return err
	}
	return nil
}
