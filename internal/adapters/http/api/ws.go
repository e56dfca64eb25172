package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/pkg/logger"
	"github.com/okian/snnvision/pkg/metrics"
)

const (
	writeWait     = 10 * time.Second
	streamBacklog = 8
)

// streamMessage is one frame on /ws.
type streamMessage struct {
	Type string        `json:"type"`
	Data stateResponse `json:"data"`
}

// StreamHandler pushes session snapshots to WebSocket clients.
type StreamHandler struct {
	deps         Dependencies
	cookies      *session.Cookies
	pingInterval time.Duration
	stop         <-chan struct{}
	logger       logger.Logger
	upgrader     websocket.Upgrader
	clients      atomic.Int64
}

func newStreamHandler(deps Dependencies, cookies *session.Cookies, ping time.Duration, stop <-chan struct{}, l logger.Logger) *StreamHandler {
	return &StreamHandler{
		deps:         deps,
		cookies:      cookies,
		pingInterval: ping,
		stop:         stop,
		logger:       l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// HandleStream handles GET /ws. The current snapshot is sent on connect
// and after every state change until the client leaves. Frames never go
// backwards: a snapshot whose revision was already sent is dropped.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ck := h.cookies.Resolve(r)

	// Subscribe before reading the first snapshot so no transition falls
	// between the two. Both run before the upgrade so failures still get a
	// JSON body.
	updates := make(chan pipeline.Snapshot, streamBacklog)
	unsubscribe, err := h.deps.Subscribe(r.Context(), id, func(s pipeline.Snapshot) {
		offer(updates, s)
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	defer unsubscribe()
	first, err := h.deps.Snapshot(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	var header http.Header
	if ck != nil {
		header = http.Header{"Set-Cookie": []string{ck.String()}}
	}
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.UpdateWebSocketClients(int(h.clients.Add(1)))
	defer func() {
		metrics.UpdateWebSocketClients(int(h.clients.Add(-1)))
	}()

	if err := h.send(conn, first); err != nil {
		return
	}
	sent := first.Revision

	readWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	// Reads are only needed to notice disconnects and process pongs.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug(r.Context(), "websocket read failed", logger.String("session", id), logger.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap := <-updates:
			if snap.Revision <= sent {
				continue
			}
			if err := h.send(conn, snap); err != nil {
				return
			}
			sent = snap.Revision
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		case <-h.stop:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, s pipeline.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(streamMessage{Type: "state", Data: newStateResponse(s)})
}

// offer queues s without blocking the notifier. When the backlog is full
// the oldest pending snapshot is dropped; later snapshots supersede it.
func offer(ch chan pipeline.Snapshot, s pipeline.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
