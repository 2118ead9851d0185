package attendance

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/auth"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger  apt.Logger
	tlm     *telemetry.HTTP
	service *Service
}

func NewHandler(service *Service, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/clock-in", h.ClockIn)
		r.Post("/clock-out", h.ClockOut)
		r.Get("/", h.ListDay)
	})
}

type ClockRequest struct {
	BranchID uuid.UUID `json:"branch_id"`
	PIN      string    `json:"pin"`
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClockIn")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeClockPayload(w, r, log)
	if !ok {
		return
	}

	rec, err := h.service.ClockIn(ctx, req.BranchID, req.PIN)
	if err != nil {
		h.respondClockError(w, log, err, "Could not clock in")
		return
	}

	links := apt.RESTfulLinksFor(rec)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, rec, links...)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClockOut")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeClockPayload(w, r, log)
	if !ok {
		return
	}

	rec, err := h.service.ClockOut(ctx, req.BranchID, req.PIN)
	if err != nil {
		h.respondClockError(w, log, err, "Could not clock out")
		return
	}

	links := apt.RESTfulLinksFor(rec)
	apt.RespondSuccess(w, rec, links...)
}

func (h *Handler) ListDay(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListDay")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchIDStr := r.URL.Query().Get("branch_id")
	branchID, err := uuid.Parse(branchIDStr)
	if err != nil {
		log.Debug("invalid branch_id parameter", "branch_id", branchIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid branch_id parameter")
		return
	}

	records, err := h.service.ListDay(ctx, branchID, r.URL.Query().Get("date"))
	if err != nil {
		log.Error("error retrieving attendance records", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve attendance records")
		return
	}

	apt.RespondCollection(w, records, "attendance-record")
}

func (h *Handler) respondClockError(w http.ResponseWriter, log apt.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrAuthorizationDenied):
		log.Info("attendance PIN rejected")
		apt.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyClockedIn), errors.Is(err, ErrNotClockedIn):
		log.Debug("attendance state conflict", "error", err)
		apt.RespondError(w, http.StatusConflict, err.Error())
	default:
		log.Error(fallback, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) decodeClockPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ClockRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return ClockRequest{}, false
	}

	var req ClockRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return ClockRequest{}, false
	}

	if req.BranchID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return ClockRequest{}, false
	}
	if req.PIN == "" {
		apt.RespondError(w, http.StatusBadRequest, "pin is required")
		return ClockRequest{}, false
	}

	return req, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
