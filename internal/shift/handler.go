package shift

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger apt.Logger
	tlm    *telemetry.HTTP
	ledger *Ledger
}

func NewHandler(ledger *Ledger, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger: logger,
		tlm:    telemetry.NewHTTP(),
		ledger: ledger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shifts", func(r chi.Router) {
		r.Post("/", h.OpenShift)
		r.Get("/active", h.GetActiveShift)
		r.Post("/close", h.CloseShift)
		r.Get("/summaries", h.ListSummaries)
		r.Post("/expenses", h.AddExpense)
		r.Get("/expenses", h.ListExpenses)
	})
}

type ShiftOpenRequest struct {
	BranchID  uuid.UUID `json:"branch_id"`
	StartCash int64     `json:"start_cash"`
	OpenedBy  string    `json:"opened_by,omitempty"`
}

type ShiftCloseRequest struct {
	BranchID    uuid.UUID `json:"branch_id"`
	ClosingCash int64     `json:"closing_cash"`
}

type ExpenseCreateRequest struct {
	BranchID    uuid.UUID `json:"branch_id"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
}

func (h *Handler) OpenShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenShift")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req ShiftOpenRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.BranchID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}
	if req.StartCash < 0 {
		apt.RespondError(w, http.StatusBadRequest, "start_cash cannot be negative")
		return
	}

	s, err := h.ledger.Open(ctx, req.BranchID, req.StartCash, req.OpenedBy)
	if err != nil {
		if errors.Is(err, ErrShiftAlreadyOpen) {
			log.Debug("shift already open", "branch_id", req.BranchID.String())
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot open shift", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not open shift")
		return
	}

	links := apt.RESTfulLinksFor(s)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, s, links...)
}

func (h *Handler) GetActiveShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetActiveShift")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchID, ok := h.parseBranchParam(w, r, log)
	if !ok {
		return
	}

	s, err := h.ledger.Active(ctx, branchID)
	if err != nil {
		if errors.Is(err, ErrNoActiveShift) {
			apt.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Error("cannot load active shift", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load active shift")
		return
	}

	links := apt.RESTfulLinksFor(s)
	apt.RespondSuccess(w, s, links...)
}

func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseShift")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req ShiftCloseRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.BranchID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}

	summary, err := h.ledger.Close(ctx, req.BranchID, req.ClosingCash)
	if err != nil {
		if errors.Is(err, ErrNoActiveShift) {
			log.Debug("no shift to close", "branch_id", req.BranchID.String())
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot close shift", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not close shift")
		return
	}

	log.Info("shift closed",
		"branch_id", req.BranchID.String(),
		"shift_id", summary.ShiftID.String(),
		"cash_difference", summary.CashDifference,
	)
	links := apt.RESTfulLinksFor(summary)
	apt.RespondSuccess(w, summary, links...)
}

func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListSummaries")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchID, ok := h.parseBranchParam(w, r, log)
	if !ok {
		return
	}

	summaries, err := h.ledger.Summaries(ctx, branchID)
	if err != nil {
		log.Error("error retrieving shift summaries", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve shift summaries")
		return
	}

	apt.RespondCollection(w, summaries, "shift-summary")
}

func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddExpense")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req ExpenseCreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.BranchID == uuid.Nil {
		apt.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}
	if req.Amount <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	e, err := h.ledger.AddExpense(ctx, req.BranchID, req.Description, req.Amount)
	if err != nil {
		if errors.Is(err, ErrNoActiveShift) {
			log.Debug("expense without open shift", "branch_id", req.BranchID.String())
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot record expense", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not record expense")
		return
	}

	links := apt.RESTfulLinksFor(e)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, e, links...)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListExpenses")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchID, ok := h.parseBranchParam(w, r, log)
	if !ok {
		return
	}

	expenses, err := h.ledger.Expenses(ctx, branchID)
	if err != nil {
		if errors.Is(err, ErrNoActiveShift) {
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("error retrieving expenses", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve expenses")
		return
	}

	apt.RespondCollection(w, expenses, "expense")
}

func (h *Handler) parseBranchParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	branchIDStr := r.URL.Query().Get("branch_id")
	if branchIDStr == "" {
		log.Debug("missing branch_id parameter")
		apt.RespondError(w, http.StatusBadRequest, "branch_id parameter is required")
		return uuid.Nil, false
	}

	branchID, err := uuid.Parse(branchIDStr)
	if err != nil {
		log.Debug("invalid branch_id parameter", "branch_id", branchIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid branch_id parameter")
		return uuid.Nil, false
	}

	return branchID, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger, target interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
