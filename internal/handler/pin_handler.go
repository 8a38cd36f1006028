package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/middleware"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

type PINHandler struct {
	pins   *usecase.PINUsecase
	logger *zap.Logger
}

func NewPINHandler(pins *usecase.PINUsecase, logger *zap.Logger) *PINHandler {
	return &PINHandler{pins: pins, logger: logger}
}

func (h *PINHandler) HandleCheckPIN(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	status, err := h.pins.Check(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, status)
}

func (h *PINHandler) HandleCreatePIN(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		PIN          string `json:"pin"`
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.pins.Create(r.Context(), userID, req.PIN, req.Confirmation); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]string{"message": "PIN created"})
}

func (h *PINHandler) HandleVerifyPIN(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.pins.Verify(r.Context(), userID, req.PIN); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"valid": true})
}
