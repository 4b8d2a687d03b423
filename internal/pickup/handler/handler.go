// Package handler exposes the pickup verification and recording endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"steeple/internal/checkin/models"
	"steeple/internal/pickup"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/httputil"
	authmw "steeple/pkg/platform/middleware/auth"
	"steeple/pkg/requestcontext"
)

// Service defines the pickup operations the handler delegates to.
type Service interface {
	VerifyPickup(ctx context.Context, actor domain.Actor, attendanceID domain.AttendanceID, securityCode string, candidate pickup.Candidate) (*pickup.Verdict, error)
	RecordPickup(ctx context.Context, actor domain.Actor, req pickup.RecordRequest) (*models.PickupLogEntry, error)
	AutoPopulateFamilyMembers(ctx context.Context, actor domain.Actor, childID domain.PersonID) (int, error)
}

// Handler handles pickup endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a pickup Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the pickup routes with the chi router. The caller is
// expected to have mounted the auth middleware already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/pickup/verify", h.handleVerify)
	r.Post("/pickup/record", h.handleRecord)
	r.Post("/pickup/auto-populate", h.handleAutoPopulate)
}

type verifyRequest struct {
	AttendanceID   string `json:"attendance_id"`
	SecurityCode   string `json:"security_code"`
	PickupPersonID string `json:"pickup_person_id,omitempty"`
	PickupName     string `json:"pickup_name,omitempty"`
}

type recordRequest struct {
	AttendanceID       string `json:"attendance_id"`
	PickupPersonID     string `json:"pickup_person_id,omitempty"`
	PickupName         string `json:"pickup_name,omitempty"`
	WasAuthorized      bool   `json:"was_authorized"`
	SupervisorOverride bool   `json:"supervisor_override"`
	SupervisorID       string `json:"supervisor_id,omitempty"`
	EntryID            string `json:"entry_id,omitempty"`
}

type autoPopulateRequest struct {
	ChildID string `json:"child_id"`
}

type autoPopulateResponse struct {
	Added int `json:"added"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[verifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	attendanceID, err := domain.ParseAttendanceID(req.AttendanceID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid attendance id"))
		return
	}
	candidate, err := parseCandidate(req.PickupPersonID, req.PickupName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verdict, err := h.service.VerifyPickup(ctx, authmw.GetActor(ctx), attendanceID, req.SecurityCode, candidate)
	if err != nil {
		h.writeServiceError(ctx, w, "pickup verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[recordRequest](w, r, h.logger)
	if !ok {
		return
	}

	attendanceID, err := domain.ParseAttendanceID(req.AttendanceID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid attendance id"))
		return
	}
	candidate, err := parseCandidate(req.PickupPersonID, req.PickupName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	svcReq := pickup.RecordRequest{
		AttendanceID:       attendanceID,
		Candidate:          candidate,
		WasAuthorized:      req.WasAuthorized,
		SupervisorOverride: req.SupervisorOverride,
	}
	if req.SupervisorID != "" {
		supervisorID, err := domain.ParseActorID(req.SupervisorID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid supervisor id"))
			return
		}
		svcReq.SupervisorID = &supervisorID
	}
	if req.EntryID != "" {
		entryID, err := domain.ParsePickupEntryID(req.EntryID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid entry id"))
			return
		}
		svcReq.EntryID = &entryID
	}

	logged, err := h.service.RecordPickup(ctx, authmw.GetActor(ctx), svcReq)
	if err != nil {
		h.writeServiceError(ctx, w, "pickup recording failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, logged)
}

func (h *Handler) handleAutoPopulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[autoPopulateRequest](w, r, h.logger)
	if !ok {
		return
	}

	childID, err := domain.ParsePersonID(req.ChildID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid child id"))
		return
	}

	added, err := h.service.AutoPopulateFamilyMembers(ctx, authmw.GetActor(ctx), childID)
	if err != nil {
		h.writeServiceError(ctx, w, "auto-populate failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, autoPopulateResponse{Added: added})
}

func parseCandidate(personID, name string) (pickup.Candidate, error) {
	c := pickup.Candidate{Name: name}
	if personID != "" {
		id, err := domain.ParsePersonID(personID)
		if err != nil {
			return pickup.Candidate{}, dErrors.New(dErrors.CodeValidation, "invalid pickup person id")
		}
		c.PersonID = &id
	}
	return c, nil
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
