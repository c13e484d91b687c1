package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type OperatorAuthenticator interface {
	Operator(token string) (domain.Operator, error)
}

type Handler struct {
	Configs    service.ConfigAdminServiceInterface
	Checkout   service.CheckoutServiceInterface
	Settlement service.SettlementServiceInterface
	Auth       OperatorAuthenticator
	Logger     *zap.Logger
}

func NewHandler(
	configs service.ConfigAdminServiceInterface,
	checkout service.CheckoutServiceInterface,
	settlement service.SettlementServiceInterface,
	auth OperatorAuthenticator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Configs:    configs,
		Checkout:   checkout,
		Settlement: settlement,
		Auth:       auth,
		Logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router, webhookLimit func(http.Handler) http.Handler) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.requireOperator)
	admin.HandleFunc("/payment-config", h.getPaymentConfig).Methods("GET")
	admin.HandleFunc("/payment-config", h.savePaymentConfig).Methods("POST")
	admin.HandleFunc("/orders/{orderId}/reject", h.rejectOrder).Methods("POST")

	r.HandleFunc("/api/payment/create-preference", h.createPreference).Methods("POST")
	r.HandleFunc("/api/payment/order-status/{orderId}", h.getOrderStatus).Methods("GET")

	var webhook http.Handler = http.HandlerFunc(h.mercadoPagoWebhook)
	if webhookLimit != nil {
		webhook = webhookLimit(webhook)
	}
	r.Handle(service.WebhookPath, webhook).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "payment-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) getPaymentConfig(w http.ResponseWriter, r *http.Request) {
	op := operatorFrom(r.Context())
	req := service.ReadConfigRequest{Level: r.URL.Query().Get("level")}
	if branchID := r.URL.Query().Get("branchId"); branchID != "" {
		req.BranchID = &branchID
	}

	view, err := h.Configs.Read(r.Context(), op, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) savePaymentConfig(w http.ResponseWriter, r *http.Request) {
	op := operatorFrom(r.Context())
	var req service.WriteConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body: "+err.Error()))
		return
	}

	result, err := h.Configs.Write(r.Context(), op, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type initiateResponse struct {
	Success bool `json:"success"`
	*service.InitiateResult
}

func (h *Handler) createPreference(w http.ResponseWriter, r *http.Request) {
	var req service.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body: "+err.Error()))
		return
	}

	result, err := h.Checkout.Initiate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, initiateResponse{Success: true, InitiateResult: result})
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid order id"))
		return
	}

	view, err := h.Checkout.GetOrderStatus(r.Context(), orderID, r.URL.Query().Get("token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) rejectOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid order id"))
		return
	}

	if err := h.Checkout.RejectOrder(r.Context(), operatorFrom(r.Context()), orderID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  domain.StatusPaymentRejected,
	})
}

// mercadoPagoWebhook answers 200, 401 or 500 only: the provider retries on
// anything else it does not understand.
func (h *Handler) mercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("read body: "+err.Error()))
		return
	}
	if len(body) > maxWebhookBody {
		writeJSON(w, http.StatusInternalServerError, errorBody("notification body too large"))
		return
	}

	query := r.URL.Query()
	n := service.Notification{
		Headers:      r.Header,
		Body:         body,
		Query:        query,
		RestaurantID: query.Get("restaurantId"),
	}
	if branchID := query.Get("branchId"); branchID != "" {
		n.BranchID = &branchID
	}

	if _, err := h.Settlement.Handle(r.Context(), n); err != nil {
		status := http.StatusInternalServerError
		if domain.KindOf(err) == domain.KindUnauthorized {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, errorBody(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindProvider:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
