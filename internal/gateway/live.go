// ABOUTME: Websocket live bus: join directives, message fan-out and keepalive pings
// ABOUTME: One reader goroutine handles directives; one writer owns all socket writes

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/jardin-gateway/internal/auth"
	"github.com/2389/jardin-gateway/internal/conversation"
	"github.com/2389/jardin-gateway/internal/store"
)

const (
	// writeWait is the time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// maxDirectiveSize bounds inbound frames; clients only send joins.
	maxDirectiveSize = 4096
	// outboundBuffer is the per-connection queue of events awaiting write.
	outboundBuffer = 64
)

// Live event kinds.
const (
	tipoJoin    = "join"
	tipoMensaje = "mensaje"
	tipoError   = "error"
)

// liveDirective is a frame sent by a client.
type liveDirective struct {
	Tipo                string `json:"tipo"`
	ConversationID      int64  `json:"conversacionId"`
	ConversationIDSnake int64  `json:"conversacion_id"`
}

func (d liveDirective) conversationID() int64 {
	if d.ConversationID != 0 {
		return d.ConversationID
	}
	return d.ConversationIDSnake
}

// liveEvent is a frame sent to a client.
type liveEvent struct {
	Tipo    string           `json:"tipo"`
	Mensaje *MessageResponse `json:"mensaje,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// liveSession serves one websocket connection.
type liveSession struct {
	gw     *Gateway
	conn   *websocket.Conn
	userID int64
	logger *slog.Logger

	out        chan liveEvent
	done       chan struct{}
	writerDone chan struct{}

	// subscription state, touched only by the reader goroutine
	joined    int64
	unsubFunc context.CancelFunc
	forwardWG sync.WaitGroup
}

// handleLive handles GET /ws.
func (g *Gateway) handleLive(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if authCtx == nil {
		g.sendJSONError(w, http.StatusUnauthorized, "missing session")
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		g.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	if !g.trackLive(conn) {
		_ = conn.Close()
		return
	}
	defer g.untrackLive(conn)

	logger := g.logger.With("user_id", authCtx.UserID, "remote_addr", r.RemoteAddr)
	s := &liveSession{
		gw:         g,
		conn:       conn,
		userID:     authCtx.UserID,
		logger:     logger,
		out:        make(chan liveEvent, outboundBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	s.run(context.WithoutCancel(r.Context()))
}

func (g *Gateway) trackLive(conn *websocket.Conn) bool {
	g.liveMu.Lock()
	defer g.liveMu.Unlock()
	if g.liveConns == nil {
		return false
	}
	g.liveConns[conn] = struct{}{}
	return true
}

func (g *Gateway) untrackLive(conn *websocket.Conn) {
	g.liveMu.Lock()
	defer g.liveMu.Unlock()
	delete(g.liveConns, conn)
}

// closeLiveConns closes every open websocket and refuses new ones.
func (g *Gateway) closeLiveConns() {
	g.liveMu.Lock()
	conns := g.liveConns
	g.liveConns = nil
	g.liveMu.Unlock()

	for conn := range conns {
		_ = conn.Close()
	}
}

// LiveConnections returns the number of open websocket connections.
func (g *Gateway) LiveConnections() int {
	g.liveMu.Lock()
	defer g.liveMu.Unlock()
	return len(g.liveConns)
}

func (s *liveSession) run(ctx context.Context) {
	s.logger.Debug("live connection opened")

	go func() {
		defer close(s.writerDone)
		s.writePump()
	}()

	s.readPump(ctx)

	close(s.done)
	s.leave()
	s.forwardWG.Wait()
	<-s.writerDone
	_ = s.conn.Close()

	s.logger.Debug("live connection closed")
}

// readPump handles directives until the peer goes away.
func (s *liveSession) readPump(ctx context.Context) {
	pongWait := s.gw.config.Live.PongWait

	s.conn.SetReadLimit(maxDirectiveSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("live connection lost", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handleDirective(ctx, data)
	}
}

func (s *liveSession) handleDirective(ctx context.Context, data []byte) {
	var d liveDirective
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError("mensaje inválido")
		return
	}

	switch d.Tipo {
	case tipoJoin:
		s.join(ctx, d.conversationID())
	default:
		s.sendError("tipo desconocido: " + d.Tipo)
	}
}

// join switches the subscription to conversationID after a participant check.
func (s *liveSession) join(ctx context.Context, conversationID int64) {
	if conversationID <= 0 {
		s.sendError("conversacionId requerido")
		return
	}

	_, err := s.gw.conversation.Authorize(ctx, s.userID, conversationID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.sendError("conversación no encontrada")
		return
	case errors.Is(err, conversation.ErrForbidden):
		s.sendError("no autorizado")
		return
	case err != nil:
		s.logger.Error("authorizing join failed", "conversation_id", conversationID, "error", err)
		s.sendError("error interno")
		return
	}

	if s.joined == conversationID {
		return
	}
	s.leave()

	subCtx, cancel := context.WithCancel(ctx)
	ch, subID := s.gw.broadcaster.Subscribe(subCtx, conversationID)
	s.joined = conversationID
	s.unsubFunc = cancel

	s.logger.Debug("joined conversation", "conversation_id", conversationID, "sub_id", subID)

	s.forwardWG.Add(1)
	go func() {
		defer s.forwardWG.Done()
		for msg := range ch {
			resp := toMessageResponse(msg)
			if !s.enqueue(liveEvent{Tipo: tipoMensaje, Mensaje: &resp}) {
				cancel()
				for range ch {
				}
				return
			}
		}
	}()
}

// leave drops the current subscription, if any.
func (s *liveSession) leave() {
	if s.unsubFunc != nil {
		s.unsubFunc()
		s.unsubFunc = nil
	}
	s.joined = 0
}

func (s *liveSession) sendError(msg string) {
	s.enqueue(liveEvent{Tipo: tipoError, Error: msg})
}

// enqueue hands an event to the writer. Returns false once the session or
// its writer ended.
func (s *liveSession) enqueue(ev liveEvent) bool {
	select {
	case s.out <- ev:
		return true
	case <-s.done:
		return false
	case <-s.writerDone:
		return false
	}
}

// writePump owns every write on the socket.
func (s *liveSession) writePump() {
	ticker := time.NewTicker(s.gw.config.Live.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				s.logger.Debug("live write failed", "error", err)
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("live ping failed", "error", err)
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}
