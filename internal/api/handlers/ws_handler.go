package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/floorscreen/internal/services"
	"github.com/yoockh/floorscreen/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// EventSubscriber opens the pub/sub subscription of one session's events.
type EventSubscriber interface {
	Subscribe(ctx context.Context, sessionID string) *redis.PubSub
}

// WSHandler streams live interview events to the dashboard.
type WSHandler struct {
	interviews services.InterviewService
	events     EventSubscriber
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler accepts any origin when allowedOrigins is empty.
func NewWSHandler(interviews services.InterviewService, events EventSubscriber, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		interviews: interviews,
		events:     events,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser client
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

type wsServerMsg struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(messageType, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

// SessionEvents sends a snapshot of the session, then forwards every event
// published for it until either side goes away.
func (h *WSHandler) SessionEvents(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionEvents", "missing session_id", nil))
		return
	}

	snapshot, err := h.interviews.Resume(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	log := h.log.WithField("session_id", sessionID)
	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.events.Subscribe(ctx, sessionID)
	defer pubsub.Close()
	// wait for the subscription so no event after the snapshot is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		log.WithError(err).Warn("event subscription failed")
		return
	}

	if err := wc.writeJSON(wsServerMsg{Type: "snapshot", Data: snapshot}); err != nil {
		return
	}

	// reader: only keeps the connection alive and notices close
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	events := pubsub.Channel()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
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
			// payload is already a JSON event
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		}
	}
}
