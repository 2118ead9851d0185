package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/auth"
	"github.com/warungclub/warung/internal/pricing"
	"github.com/warungclub/warung/internal/qr"
	"github.com/warungclub/warung/internal/shift"
	"github.com/warungclub/warung/internal/stock"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger  apt.Logger
	tlm     *telemetry.HTTP
	service *Service
	orders  OrderRepo
}

func NewHandler(service *Service, orders OrderRepo, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
		service: service,
		orders:  orders,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/items", h.UpdateOrderItems)
		r.Patch("/{id}/serving", h.MarkOrderServing)
		r.Patch("/{id}/complete", h.CompleteOrder)
		r.Patch("/{id}/pay", h.PayOrder)
		r.Patch("/{id}/void", h.VoidOrder)
		r.Post("/{id}/split", h.SplitOrder)
	})
}

// Payload types

type OrderCreateRequest struct {
	BranchID     uuid.UUID            `json:"branch_id"`
	Items        []CartItem           `json:"items"`
	DiscountType pricing.DiscountType `json:"discount_type,omitempty"`
	DiscountVal  float64              `json:"discount_value,omitempty"`
	CustomerName string               `json:"customer_name,omitempty"`
	TableNumber  string               `json:"table_number,omitempty"`
	OrderType    string               `json:"order_type,omitempty"`
	Source       string               `json:"source,omitempty"`
	// TableCode is the scanned sticker payload from the self-order page; it
	// supplies branch_id and table_number when present.
	TableCode string `json:"table_code,omitempty"`
}

type OrderItemsUpdateRequest struct {
	Items []CartItem `json:"items"`
}

type OrderPayRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type OrderVoidRequest struct {
	PIN string `json:"pin"`
}

type OrderSplitRequest struct {
	Items        []SplitItem `json:"items"`
	CustomerName string      `json:"customer_name,omitempty"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if req.TableCode != "" {
		tc, err := qr.Decode(req.TableCode)
		if err != nil {
			log.Debug("invalid table code in create order request")
			apt.RespondError(w, http.StatusBadRequest, "Invalid table_code")
			return
		}
		req.BranchID = tc.BranchID
		req.TableNumber = tc.TableNumber
	}

	if req.BranchID == uuid.Nil {
		log.Debug("missing branch id in create order request")
		apt.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}

	o, err := h.service.Create(ctx, CreateInput{
		BranchID:     req.BranchID,
		Items:        req.Items,
		Discount:     pricing.Discount{Type: req.DiscountType, Value: req.DiscountVal},
		CustomerName: req.CustomerName,
		TableNumber:  req.TableNumber,
		OrderType:    req.OrderType,
		Source:       req.Source,
	})
	if err != nil {
		h.respondDomainError(w, log, err, "Could not create order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	o, err := h.orders.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchIDStr := r.URL.Query().Get("branch_id")
	if branchIDStr == "" {
		log.Debug("missing branch_id parameter")
		apt.RespondError(w, http.StatusBadRequest, "branch_id parameter is required")
		return
	}
	branchID, err := uuid.Parse(branchIDStr)
	if err != nil {
		log.Debug("invalid branch_id parameter", "branch_id", branchIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid branch_id parameter")
		return
	}

	var orders []*Order
	if shiftIDStr := r.URL.Query().Get("shift_id"); shiftIDStr != "" {
		shiftID, parseErr := uuid.Parse(shiftIDStr)
		if parseErr != nil {
			log.Debug("invalid shift_id parameter", "shift_id", shiftIDStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid shift_id parameter")
			return
		}
		orders, err = h.orders.ListByShift(ctx, shiftID)
	} else if status := r.URL.Query().Get("status"); status != "" {
		orders, err = h.orders.ListByStatus(ctx, branchID, Status(status))
	} else {
		orders, err = h.orders.ListByBranch(ctx, branchID)
	}

	if err != nil {
		log.Error("error retrieving orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) UpdateOrderItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderItemsUpdateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	o, err := h.service.UpdateItems(ctx, id, req.Items)
	if err != nil {
		h.respondDomainError(w, log, err, "Could not update order items")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) MarkOrderServing(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkOrderServing")
	defer finish()

	h.applyTransition(w, r, "Could not mark order as serving", h.service.MarkServing)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CompleteOrder")
	defer finish()

	h.applyTransition(w, r, "Could not complete order", h.service.Complete)
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PayOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderPayRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.PaymentMethod == "" {
		apt.RespondError(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	o, err := h.service.Pay(ctx, id, req.PaymentMethod)
	if err != nil {
		h.respondDomainError(w, log, err, "Could not record payment")
		return
	}

	log.Info("order paid", "order_id", id.String(), "payment_method", req.PaymentMethod)
	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.VoidOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderVoidRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	o, err := h.service.Void(ctx, id, req.PIN)
	if err != nil {
		h.respondDomainError(w, log, err, "Could not void order")
		return
	}

	log.Info("order voided", "order_id", id.String())
	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) SplitOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SplitOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderSplitRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	o, err := h.service.Split(ctx, id, req.Items, req.CustomerName)
	if err != nil {
		h.respondDomainError(w, log, err, "Could not split order")
		return
	}

	log.Info("order split", "source_order_id", id.String(), "new_order_id", o.ID.String())
	links := apt.RESTfulLinksFor(o)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, failureMsg string, apply func(ctx context.Context, id uuid.UUID) (*Order, error)) {
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	o, err := apply(ctx, id)
	if err != nil {
		h.respondDomainError(w, log, err, failureMsg)
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

// respondDomainError maps service errors onto HTTP statuses: validation
// problems and illegal transitions are the client's fault, missing shifts
// and stock shortages are reported as conflicts, everything else is a 500.
func (h *Handler) respondDomainError(w http.ResponseWriter, log apt.Logger, err error, fallback string) {
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		log.Debug("invalid order request", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		log.Debug("illegal order transition", "error", err)
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shift.ErrNoActiveShift):
		log.Info("order rejected: no active shift")
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		log.Info("order rejected: insufficient stock")
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrAuthorizationDenied):
		log.Info("elevated action denied")
		apt.RespondError(w, http.StatusForbidden, err.Error())
	default:
		log.Error(fallback, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
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
