package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/middleware"
	"github.com/Flickmart/flickmart-sub000/internal/provider/paystack"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

// SignatureVerifier checks a webhook payload against its signature header.
type SignatureVerifier interface {
	ValidSignature(payload []byte, signature string) bool
}

type GatewayHandler struct {
	gateway  *usecase.GatewayUsecase
	verifier SignatureVerifier
	logger   *zap.Logger
}

func NewGatewayHandler(gateway *usecase.GatewayUsecase, verifier SignatureVerifier, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{gateway: gateway, verifier: verifier, logger: logger}
}

func (h *GatewayHandler) HandleInitializeDeposit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	intent, err := h.gateway.InitializeDeposit(r.Context(), userID, req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, intent)
}

func (h *GatewayHandler) HandleVerifyDeposit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	reference := chi.URLParam(r, "reference")

	status, err := h.gateway.VerifyDeposit(r.Context(), userID, reference)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, status)
}

func (h *GatewayHandler) HandleCancelDeposit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	reference := chi.URLParam(r, "reference")

	if err := h.gateway.CancelPendingDeposit(r.Context(), userID, reference); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *GatewayHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req usecase.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.gateway.Withdraw(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// HandleWebhook receives gateway events. The signature is verified over the
// raw body before any parsing; unsigned or mis-signed posts get a 401.
func (h *GatewayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeBadRequest(w, "unreadable body")
		return
	}
	if !h.verifier.ValidSignature(payload, r.Header.Get("x-paystack-signature")) {
		h.logger.Warn("webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
		response.Error(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeBadRequest(w, "invalid event payload")
		return
	}

	switch event.Event {
	case "charge.success":
		if err := h.gateway.HandleChargeSuccess(r.Context(), &event); err != nil {
			writeError(w, h.logger, err)
			return
		}
	default:
		h.logger.Info("webhook event ignored", zap.String("event", event.Event))
	}

	w.WriteHeader(http.StatusOK)
}
