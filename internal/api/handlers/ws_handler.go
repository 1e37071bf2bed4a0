package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	mongorepo "github.com/hireflow/interviewer/internal/repositories/mongo"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingEvery    = 25 * time.Second
)

// WSHandler streams analysis events of one interview to the browser.
type WSHandler struct {
	sessions mongorepo.InterviewRepository
	redis    *redis.Client
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from any origin listed in origins; an empty
// list allows all.
func NewWSHandler(sessions mongorepo.InterviewRepository, rdb *redis.Client, origins []string) *WSHandler {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // ping
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(messageType, b)
}

func (w *wsConn) writeEvent(ev services.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	const op = "WSHandler.InterviewWS"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	interviewID := c.Param("id")
	sess, err := h.sessions.Get(c.Request.Context(), interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			writeError(c, utils.E(utils.CodeNotFound, op, "interview not found", err))
			return
		}
		writeError(c, utils.E(utils.CodeInternal, op, "failed to load interview", err))
		return
	}
	if sess.CandidateID != userID && !isAdmin(c) {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, services.StatusChannel(interviewID), services.ResponseChannel(interviewID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return
	}

	_ = wc.writeEvent(services.Event{
		Type:    services.EventStatus,
		Status:  string(sess.Status),
		Message: "subscribed",
	})

	// reader: keeps the connection alive and answers pings
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "ping" {
				_ = wc.writeEvent(services.Event{Type: "error", Message: "only ping messages are accepted"})
				continue
			}
			_ = wc.writeEvent(services.Event{Type: "pong"})
		}
	}()

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()
	events := pubsub.Channel()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-events:
			if !ok {
				return
			}
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
