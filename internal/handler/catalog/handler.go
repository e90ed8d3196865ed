package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medassist/backend/internal/analysis/triage"
	"github.com/zhouzirui/medassist/backend/pkg/utils"
)

// Handler exposes the static triage tables to clients.
type Handler struct{}

// New 创建目录处理器
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/specializations", h.handleListSpecializations)
	r.Get("/severe-keywords", h.handleListSevereKeywords)
}

func (h *Handler) handleListSpecializations(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, triage.Rules())
}

func (h *Handler) handleListSevereKeywords(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, triage.SevereKeywords())
}
