package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/middleware"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

type OrderHandler struct {
	orders *usecase.OrderUsecase
	logger *zap.Logger
}

func NewOrderHandler(orders *usecase.OrderUsecase, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	detail, err := h.orders.Get(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) HandleConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	status, err := h.orders.ConfirmCompletion(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *OrderHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	if err := h.orders.Refund(r.Context(), userID, orderID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}
