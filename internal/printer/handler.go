package printer

import (
	"context"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/order"
	"github.com/warungclub/warung/internal/shift"
)

// Handler serves rendered receipts and shift reports. GET returns the
// document as plain text for preview; POST .../print submits it to the spool.
type Handler struct {
	logger    apt.Logger
	tlm       *telemetry.HTTP
	printer   *Printer
	orders    order.OrderRepo
	summaries shift.SummaryRepo
	profiles  catalog.ProfileRepo
}

func NewHandler(printer *Printer, orders order.OrderRepo, summaries shift.SummaryRepo, profiles catalog.ProfileRepo, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
		printer:   printer,
		orders:    orders,
		summaries: summaries,
		profiles:  profiles,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/receipts", func(r chi.Router) {
		r.Get("/orders/{id}", h.OrderReceipt)
		r.Post("/orders/{id}/print", h.PrintOrderReceipt)
		r.Get("/shifts/{id}", h.ShiftReport)
		r.Post("/shifts/{id}/print", h.PrintShiftReport)
	})
}

func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OrderReceipt")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	o, ok := h.loadOrder(w, r, log)
	if !ok {
		return
	}

	h.respondDocument(w, Receipt(o, h.profileFor(ctx, o.BranchID, log)))
}

func (h *Handler) PrintOrderReceipt(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PrintOrderReceipt")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	o, ok := h.loadOrder(w, r, log)
	if !ok {
		return
	}

	if err := h.printer.PrintReceipt(o, h.profileFor(ctx, o.BranchID, log)); err != nil {
		log.Error("cannot print receipt", "error", err, "order_id", o.ID.String())
		apt.RespondError(w, http.StatusBadGateway, "Could not submit print job")
		return
	}

	log.Info("receipt printed", "order_id", o.ID.String())
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) ShiftReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShiftReport")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	s, ok := h.loadSummary(w, r, log)
	if !ok {
		return
	}

	h.respondDocument(w, ShiftReport(s, h.profileFor(ctx, s.BranchID, log)))
}

func (h *Handler) PrintShiftReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PrintShiftReport")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	s, ok := h.loadSummary(w, r, log)
	if !ok {
		return
	}

	if err := h.printer.PrintShiftReport(s, h.profileFor(ctx, s.BranchID, log)); err != nil {
		log.Error("cannot print shift report", "error", err, "shift_id", s.ShiftID.String())
		apt.RespondError(w, http.StatusBadGateway, "Could not submit print job")
		return
	}

	log.Info("shift report printed", "shift_id", s.ShiftID.String())
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request, log apt.Logger) (*order.Order, bool) {
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return nil, false
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return nil, false
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return nil, false
	}

	return o, true
}

func (h *Handler) loadSummary(w http.ResponseWriter, r *http.Request, log apt.Logger) (*shift.Summary, bool) {
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return nil, false
	}

	s, err := h.summaries.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading shift summary", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Shift summary not found")
		return nil, false
	}
	if s == nil {
		apt.RespondError(w, http.StatusNotFound, "Shift summary not found")
		return nil, false
	}

	return s, true
}

// profileFor loads the branch profile for document headers. The profile only
// decorates the output, so a missing one renders a bare document instead of
// failing the request.
func (h *Handler) profileFor(ctx context.Context, branchID uuid.UUID, log apt.Logger) *catalog.Profile {
	p, err := h.profiles.Get(ctx, branchID)
	if err != nil {
		log.Debug("cannot load branch profile", "error", err, "branch_id", branchID.String())
		return nil
	}
	return p
}

func (h *Handler) respondDocument(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
