package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/middleware"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

type TransferHandler struct {
	transfers *usecase.TransferUsecase
	sessions  *usecase.SessionUsecase
	logger    *zap.Logger
}

func NewTransferHandler(transfers *usecase.TransferUsecase, sessions *usecase.SessionUsecase, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, sessions: sessions, logger: logger}
}

func (h *TransferHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req usecase.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.transfers.Transfer(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *TransferHandler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	session, err := h.sessions.Start(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, session)
}

func (h *TransferHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, session)
}

func (h *TransferHandler) HandleAdvanceSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Step   domain.TransferStep    `json:"step"`
		Update *usecase.SessionUpdate `json:"update,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	session, err := h.sessions.Advance(r.Context(), userID, sessionID, req.Step, req.Update)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, session)
}

func (h *TransferHandler) HandleSessionBack(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Back(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, session)
}

func (h *TransferHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.End(r.Context(), userID, sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}
