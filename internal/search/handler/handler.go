// Package handler exposes the search endpoints. Handlers stay thin: decode,
// pull the authenticated actor, delegate, write.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"steeple/internal/search"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/httputil"
	authmw "steeple/pkg/platform/middleware/auth"
	"steeple/pkg/requestcontext"
)

// Service defines the search operations the handler delegates to.
type Service interface {
	SearchByPhone(ctx context.Context, actor domain.Actor, rawPhone string) ([]search.FamilyResult, error)
	SearchByName(ctx context.Context, actor domain.Actor, rawName string) ([]search.FamilyResult, error)
	SearchByCode(ctx context.Context, actor domain.Actor, rawCode string) (*search.CodeResult, error)
	Search(ctx context.Context, actor domain.Actor, query string) (*search.DispatchResult, error)
}

// Handler handles identity search endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a search Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the search routes with the chi router. The caller is
// expected to have mounted the auth middleware already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/search", h.handleSearch)
	r.Post("/search/phone", h.handleSearchPhone)
	r.Post("/search/name", h.handleSearchName)
	r.Post("/search/code", h.handleSearchCode)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type familiesResponse struct {
	Families []search.FamilyResult `json:"families"`
}

type codeResponse struct {
	Found  bool               `json:"found"`
	Result *search.CodeResult `json:"result,omitempty"`
}

func (h *Handler) handleSearchPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[phoneRequest](w, r, h.logger)
	if !ok {
		return
	}
	families, err := h.service.SearchByPhone(ctx, authmw.GetActor(ctx), req.Phone)
	if err != nil {
		h.writeServiceError(ctx, w, "phone search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, familiesResponse{Families: emptyIfNil(families)})
}

func (h *Handler) handleSearchName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[nameRequest](w, r, h.logger)
	if !ok {
		return
	}
	families, err := h.service.SearchByName(ctx, authmw.GetActor(ctx), req.Name)
	if err != nil {
		h.writeServiceError(ctx, w, "name search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, familiesResponse{Families: emptyIfNil(families)})
}

func (h *Handler) handleSearchCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[codeRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.SearchByCode(ctx, authmw.GetActor(ctx), req.Code)
	if err != nil {
		h.writeServiceError(ctx, w, "code search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, codeResponse{Found: result != nil, Result: result})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[queryRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.Search(ctx, authmw.GetActor(ctx), req.Query)
	if err != nil {
		h.writeServiceError(ctx, w, "search failed", err)
		return
	}
	if result.Families == nil && result.Code == nil {
		result.Families = []search.FamilyResult{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func emptyIfNil(families []search.FamilyResult) []search.FamilyResult {
	if families == nil {
		return []search.FamilyResult{}
	}
	return families
}
