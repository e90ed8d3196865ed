package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/pkg/utils"

	chatHandler "github.com/zhouzirui/medassist/backend/internal/handler/chat"
	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

// Handler streams consultation replies via Server-Sent Events.
type Handler struct {
	chatSvc    *chatService.Service
	consultSvc *consult.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, consultSvc *consult.Service) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		consultSvc: consultSvc,
	}
}

// RegisterRoutes mounts the stream endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamEvent is the payload of every SSE frame.
type StreamEvent struct {
	SessionID string        `json:"sessionId"`
	Message   *chat.Message `json:"message,omitempty"`
	Result    any           `json:"result,omitempty"`
	Typing    bool          `json:"typing,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	text := strings.TrimSpace(r.URL.Query().Get("message"))
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.precheck(r, sessionID); err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	send := func(event string, payload StreamEvent) bool {
		payload.SessionID = sessionID
		if err := utils.SendSSEEvent(w, flusher, event, payload); err != nil {
			log.Printf("[sse] session=%s: %v", sessionID, err)
			return false
		}
		return true
	}

	if !send("typing", StreamEvent{Typing: true}) {
		return
	}

	reply, err := h.consultSvc.Submit(r.Context(), sessionID, text)
	if err != nil {
		log.Printf("[sse] submit failed session=%s: %v", sessionID, err)
		send("error", StreamEvent{Error: err.Error()})
		return
	}

	user := reply.User
	if !send("user", StreamEvent{Message: &user}) {
		return
	}
	for i := range reply.Messages {
		if !send("message", StreamEvent{Message: &reply.Messages[i]}) {
			return
		}
	}
	if !send("result", StreamEvent{Result: reply.Result}) {
		return
	}
	send("end", StreamEvent{Finished: true})

	log.Printf("[sse] completed response for session=%s tier=%s", sessionID, reply.Result.Tier)
}

// precheck rejects requests that cannot be streamed before any SSE header is written.
func (h *Handler) precheck(r *http.Request, sessionID string) error {
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		return err
	}
	if session.Location == nil || session.State != chat.StateAwaitingSymptoms {
		return chatService.ErrLocationRequired
	}
	if session.Request == chat.RequestPending {
		return chatService.ErrRequestPending
	}
	return nil
}
