package chat

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/internal/service/location"
	"github.com/zhouzirui/medassist/backend/pkg/utils"

	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

// Handler 聊天与分诊的HTTP处理器
type Handler struct {
	chatSvc    *chatService.Service
	consultSvc *consult.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, consultSvc *consult.Service) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		consultSvc: consultSvc,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(s chi.Router) {
		s.Get("/", h.handleGetSession)
		s.Get("/messages", h.handleTranscript)
		s.Post("/messages", h.handleSubmit)
		s.Post("/location/detect", h.handleDetectLocation)
		s.Post("/location/manual", h.handleManualLocation)
		s.Delete("/location", h.handleResetLocation)
	})
}

type sessionResponse struct {
	Session  chat.Session   `json:"session"`
	Messages []chat.Message `json:"messages"`
}

type failureResponse struct {
	Error    string         `json:"error"`
	Session  *chat.Session  `json:"session,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, messages, err := h.consultSvc.Start(r.Context())
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session, Messages: messages})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.consultSvc.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// DetectRequest carries either device coordinates or the device error code.
type DetectRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
}

// Report validates the request and converts it to a consult.DeviceReport.
func (d DetectRequest) Report() (consult.DeviceReport, bool) {
	if d.Error != "" {
		return consult.DeviceReport{Error: location.ParseDeviceErrorCode(d.Error)}, true
	}
	if d.Latitude == nil || d.Longitude == nil {
		return consult.DeviceReport{}, false
	}
	lat, lon := *d.Latitude, *d.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return consult.DeviceReport{}, false
	}
	return consult.DeviceReport{Latitude: lat, Longitude: lon}, true
}

func (h *Handler) handleDetectLocation(w http.ResponseWriter, r *http.Request) {
	var payload DetectRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, ok := payload.Report()
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "valid latitude and longitude or an error code are required")
		return
	}

	update, err := h.consultSvc.DetectLocation(r.Context(), chi.URLParam(r, "sessionID"), report)
	h.respondLocation(w, update, err)
}

func (h *Handler) handleManualLocation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		City string `json:"city"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	update, err := h.consultSvc.SetCity(r.Context(), chi.URLParam(r, "sessionID"), payload.City)
	h.respondLocation(w, update, err)
}

func (h *Handler) handleResetLocation(w http.ResponseWriter, r *http.Request) {
	update, err := h.consultSvc.ResetLocation(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondLocation(w, update, err)
}

func (h *Handler) respondLocation(w http.ResponseWriter, update consult.LocationUpdate, err error) {
	if err == nil {
		utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: update.Session, Messages: update.Messages})
		return
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[chat] location update failed: %v", err)
	}

	resp := failureResponse{Error: err.Error(), Messages: update.Messages}
	if update.Session.ID != "" {
		session := update.Session
		resp.Session = &session
	}
	utils.RespondJSON(w, status, resp)
}
