package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gocart/payments/internal/payments/app"
	"github.com/gocart/payments/internal/payments/ports"
	"github.com/gocart/payments/internal/razorpay"
)

// Payloads beyond this size cannot be legitimate processor notifications.
const maxWebhookBody = 1 << 20

// Delivery log outcomes.
const (
	outcomeReconciled   = "reconciled"
	outcomeInvalidAppID = "invalid_app_id"
	outcomeRejected     = "rejected"
	outcomeUnhandled    = "unhandled"
)

// Handler exposes the webhook endpoint and the order read API.
type Handler struct {
	service *app.Service
	secret  string
	appID   string
}

// NewHandler constructs a Handler. The webhook secret and expected app id
// are injected here rather than read from the environment so tests can
// drive the handler deterministically.
func NewHandler(service *app.Service, secret, appID string) *Handler {
	return &Handler{
		service: service,
		secret:  secret,
		appID:   appID,
	}
}

// Register binds the handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/webhooks/razorpay", h.handleWebhook)
	mux.HandleFunc("/v1/orders", h.listOrders)
	mux.HandleFunc("/v1/orders/", h.getOrder)
}

// handleWebhook authenticates a payment-processor notification and applies
// the order-state transition it implies. The raw body is read before any
// decoding because the signature covers the exact bytes on the wire.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.secret == "" {
		slog.ErrorContext(ctx, "webhook secret is not configured")
		writeError(w, http.StatusInternalServerError, "server misconfigured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	signature := r.Header.Get(razorpay.SignatureHeader)
	if signature == "" {
		slog.WarnContext(ctx, "webhook delivery missing signature header")
		writeError(w, http.StatusBadRequest, "missing signature")
		return
	}

	if !razorpay.VerifySignature(h.secret, body, signature) {
		slog.WarnContext(ctx, "webhook signature mismatch")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	// A legitimate sender never signs malformed JSON, so a parse failure
	// after verification is a server-side surprise, not a caller error.
	env, err := razorpay.ParseEnvelope(body)
	if err != nil {
		slog.ErrorContext(ctx, "signed webhook body failed to parse", "error", err)
		writeError(w, http.StatusInternalServerError, "malformed payload")
		return
	}

	switch env.Event {
	case razorpay.EventPaymentCaptured:
		h.reconcileCaptured(w, r, env, body)
	case razorpay.EventPaymentFailed:
		h.reconcileFailed(w, r, env, body)
	default:
		slog.InfoContext(ctx, "ignoring unhandled webhook event", "event_type", env.Event)
		h.service.RecordDelivery(ctx, env.Event, body, outcomeUnhandled)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Unhandled event"})
	}
}

func (h *Handler) reconcileCaptured(w http.ResponseWriter, r *http.Request, env *razorpay.Envelope, body []byte) {
	ctx := r.Context()

	notes, err := env.Notes()
	if err != nil {
		slog.WarnContext(ctx, "signed capture event carries unusable notes",
			"error", err,
			"body_excerpt", excerpt(body),
		)
		h.service.RecordDelivery(ctx, env.Event, body, outcomeRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if notes.AppID != h.appID {
		// 200 on purpose: the event is real, it just belongs to another
		// deployment, and an error status would make the processor retry.
		slog.WarnContext(ctx, "webhook event for unexpected app id", "app_id", notes.AppID)
		h.service.RecordDelivery(ctx, env.Event, body, outcomeInvalidAppID)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Invalid app id"})
		return
	}

	input := app.ReconcileCaptureInput{
		OrderIDs: notes.OrderIDList(),
		UserID:   notes.UserID,
	}

	if err := h.service.ReconcileCapture(ctx, input); err != nil {
		h.service.RecordDelivery(ctx, env.Event, body, outcomeRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.service.RecordDelivery(ctx, env.Event, body, outcomeReconciled)
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) reconcileFailed(w http.ResponseWriter, r *http.Request, env *razorpay.Envelope, body []byte) {
	ctx := r.Context()

	notes, err := env.Notes()
	if err != nil {
		slog.WarnContext(ctx, "signed failure event carries unusable notes",
			"error", err,
			"body_excerpt", excerpt(body),
		)
		h.service.RecordDelivery(ctx, env.Event, body, outcomeRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if notes.AppID != h.appID {
		slog.WarnContext(ctx, "webhook event for unexpected app id", "app_id", notes.AppID)
		h.service.RecordDelivery(ctx, env.Event, body, outcomeInvalidAppID)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Invalid app id"})
		return
	}

	if err := h.service.ReconcileFailure(ctx, notes.OrderIDList()); err != nil {
		h.service.RecordDelivery(ctx, env.Event, body, outcomeRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.service.RecordDelivery(ctx, env.Event, body, outcomeReconciled)
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := ports.ListFilter{}
	if paidParam := r.URL.Query().Get("paid"); paidParam != "" {
		paid, err := strconv.ParseBool(paidParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid paid filter")
			return
		}
		filter.Paid = &paid
	}

	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			filter.Page = page
		}
	}

	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			filter.PageSize = pageSize
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/orders/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func excerpt(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max])
}
