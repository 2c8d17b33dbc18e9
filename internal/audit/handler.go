package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-bm/meridian-bm/internal/platform/httpx"
	"github.com/meridian-bm/meridian-bm/internal/rbac"
	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// Handler serves the audit timeline, admin-only.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	rbac   rbac.Middleware
}

// NewHandler constructs an audit handler.
func NewHandler(logger *slog.Logger, repo Repository, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, rbac: rbac}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireRole(shared.RoleAdmin))
	r.Get("/", h.handleList)
}

type listResponse struct {
	Items      []Entry           `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filter := Filter{
		Entity:  q.Get("entity"),
		Action:  q.Get("action"),
		Page:    page,
		PerPage: perPage,
	}
	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.Validationf("invalid actor_id"))
			return
		}
		filter.ActorID = id
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.RespondError(w, shared.Validationf("from must be RFC3339"))
			return
		}
		filter.From = ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.RespondError(w, shared.Validationf("to must be RFC3339"))
			return
		}
		filter.To = ts
	}

	items, paging, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: paging})
}
