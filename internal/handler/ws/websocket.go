package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/consult"

	chatHandler "github.com/zhouzirui/medassist/backend/internal/handler/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// SessionStore is the read side of the chat service used by the socket.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error)
}

// Handler serves the chat over a WebSocket connection.
type Handler struct {
	chatSvc    SessionStore
	consultSvc *consult.Service
	upgrader   websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc SessionStore, consultSvc *consult.Service, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		chatSvc:    chatSvc,
		consultSvc: consultSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage carries a symptom description.
type TextMessage struct {
	Text string `json:"text"`
}

// CityMessage carries a manually typed city.
type CityMessage struct {
	City string `json:"city"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Result is the data of a "result" frame.
type Result struct {
	Kind     string         `json:"kind"`
	Session  *chat.Session  `json:"session,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
	Triage   any            `json:"triage,omitempty"`
}

// Failure is the data of an "error" frame.
type Failure struct {
	Message  string         `json:"message"`
	Status   int            `json:"status"`
	Messages []chat.Message `json:"messages,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), chatHandler.StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	transcript, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		log.Printf("[websocket] load transcript failed for session %s: %v", sessionID, err)
		h.sendError(conn, Failure{Message: err.Error(), Status: chatHandler.StatusFor(err)})
		return
	}
	h.sendResult(conn, sessionID, Result{Kind: "connected", Session: &session, Messages: transcript})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, Failure{Message: "session mismatch", Status: http.StatusBadRequest})
			continue
		}

		h.handleMessage(ctx, conn, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(conn, Failure{Message: "invalid text payload", Status: http.StatusBadRequest})
			return
		}
		h.sendResult(conn, sessionID, Result{Kind: "typing"})
		reply, err := h.consultSvc.Submit(ctx, sessionID, text.Text)
		if err != nil {
			h.sendError(conn, Failure{Message: err.Error(), Status: chatHandler.StatusFor(err)})
			return
		}
		messages := append([]chat.Message{reply.User}, reply.Messages...)
		h.sendResult(conn, sessionID, Result{Kind: "consultation", Session: &reply.Session, Messages: messages, Triage: reply.Result})
	case "detect":
		var detect chatHandler.DetectRequest
		if err := json.Unmarshal(msg.Data, &detect); err != nil {
			h.sendError(conn, Failure{Message: "invalid detect payload", Status: http.StatusBadRequest})
			return
		}
		report, ok := detect.Report()
		if !ok {
			h.sendError(conn, Failure{Message: "valid latitude and longitude or an error code are required", Status: http.StatusBadRequest})
			return
		}
		update, err := h.consultSvc.DetectLocation(ctx, sessionID, report)
		h.sendLocation(conn, sessionID, update, err)
	case "city":
		var city CityMessage
		if err := json.Unmarshal(msg.Data, &city); err != nil {
			h.sendError(conn, Failure{Message: "invalid city payload", Status: http.StatusBadRequest})
			return
		}
		update, err := h.consultSvc.SetCity(ctx, sessionID, city.City)
		h.sendLocation(conn, sessionID, update, err)
	case "reset":
		update, err := h.consultSvc.ResetLocation(ctx, sessionID)
		h.sendLocation(conn, sessionID, update, err)
	default:
		h.sendError(conn, Failure{Message: "unsupported message type: " + msg.Type, Status: http.StatusBadRequest})
	}
}

func (h *Handler) sendLocation(conn *websocket.Conn, sessionID string, update consult.LocationUpdate, err error) {
	if err != nil {
		h.sendError(conn, Failure{Message: err.Error(), Status: chatHandler.StatusFor(err), Messages: update.Messages})
		return
	}
	h.sendResult(conn, sessionID, Result{Kind: "location", Session: &update.Session, Messages: update.Messages})
}

func (h *Handler) sendResult(conn *websocket.Conn, sessionID string, data Result) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write result failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, failure Failure) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      failure,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
