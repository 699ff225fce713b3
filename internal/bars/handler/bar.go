package handler

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barhop/internal/bars/service"
	apperrors "barhop/pkg/errors"
	httputil "barhop/pkg/http"
	"barhop/pkg/logger"
	"barhop/pkg/middleware"
	"barhop/pkg/model"
)

// RoutePrefixes are the mount points of the bar resource.
var RoutePrefixes = []string{"/api/bars", "/bars"}

const searchSegment = "search"

type BarHandler struct {
	service service.BarService
	log     *logger.Logger
}

func NewBarHandler(service service.BarService, log *logger.Logger) *BarHandler {
	return &BarHandler{
		service: service,
		log:     log,
	}
}

func (h *BarHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bars, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, bars); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BarHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bar, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, bar); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BarHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// An empty body creates a bar with every field defaulted.
	var in model.BarInput
	if err := httputil.DecodeJSON(r, &in); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		h.writeError(w, "Create", bodyError(err))
		return
	}

	bar, err := h.service.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, bar); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BarHandler) Replace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.BarInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(w, "Replace", bodyError(err))
		return
	}

	bar, err := h.service.Replace(r.Context(), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := httputil.WriteSuccess(w, bar); err != nil {
		h.log.Error("failed to write success response", "handler", "Replace", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BarHandler) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ops, err := httputil.ReadBody(r)
	if err != nil {
		h.writeError(w, "Patch", bodyError(err))
		return
	}

	bar, err := h.service.Patch(r.Context(), ps.ByName("id"), ops)
	if err != nil {
		h.writeError(w, "Patch", err)
		return
	}

	if err := httputil.WriteSuccess(w, bar); err != nil {
		h.log.Error("failed to write success response", "handler", "Patch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BarHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// ToggleVisitor answers 201 when the check-in created the bar and 200 otherwise.
func (h *BarHandler) ToggleVisitor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.ToggleVisitor(r.Context(), ps.ByName("id"), ps.ByName("userId"))
	if err != nil {
		h.writeError(w, "ToggleVisitor", err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	if err := httputil.WriteJSON(w, status, result.Bar); err != nil {
		h.log.Error("failed to write JSON response", "handler", "ToggleVisitor", "operation", "WriteJSON", "error", err)
	}
}

// Search merges provider venues with stored visitors. The term defaults to the
// configured one; the current user, when authenticated, gets an isCheckedIn flag.
func (h *BarHandler) Search(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") != searchSegment {
		h.writeError(w, "Search", apperrors.New(apperrors.CodeNotFound, "Route not found", http.StatusNotFound))
		return
	}

	var userID string
	if user := middleware.UserFromContext(r.Context()); user != nil {
		userID = user.ID
	}

	venues, err := h.service.Search(r.Context(), r.URL.Query().Get("term"), ps.ByName("location"), userID)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, venues); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BarHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// bodyError classifies an unreadable or undecodable body as a validation failure.
func bodyError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Validation("Invalid request body", map[string]any{"error": err.Error()})
}

// RegisterRoutes mounts the resource under every prefix. httprouter cannot mix a static
// segment with a wildcard at the same depth, so "search" shares the :id slot.
func (h *BarHandler) RegisterRoutes(router *httprouter.Router) {
	for _, prefix := range RoutePrefixes {
		router.GET(prefix, h.List)
		router.POST(prefix, h.Create)
		router.GET(prefix+"/:id", h.Get)
		router.PUT(prefix+"/:id", h.Replace)
		router.PATCH(prefix+"/:id", h.Patch)
		router.DELETE(prefix+"/:id", h.Delete)
		router.GET(prefix+"/:id/:location", h.Search)
		router.PUT(prefix+"/:id/visit/:userId", h.ToggleVisitor)
	}
}
