package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/middleware"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

type BankHandler struct {
	banks  *usecase.BankUsecase
	logger *zap.Logger
}

func NewBankHandler(banks *usecase.BankUsecase, logger *zap.Logger) *BankHandler {
	return &BankHandler{banks: banks, logger: logger}
}

func (h *BankHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.banks.ListBanks(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, banks)
}

func (h *BankHandler) HandleResolveAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber := r.URL.Query().Get("account_number")
	bankCode := r.URL.Query().Get("bank_code")
	if accountNumber == "" || bankCode == "" {
		writeBadRequest(w, "account_number and bank_code are required")
		return
	}

	resolved, err := h.banks.ResolveAccount(r.Context(), accountNumber, bankCode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, resolved)
}

func (h *BankHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	accounts, err := h.banks.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *BankHandler) HandleAddAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req usecase.AddAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	account, err := h.banks.AddAccount(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, account)
}

func (h *BankHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	accountID := chi.URLParam(r, "accountID")

	if err := h.banks.DeleteAccount(r.Context(), userID, accountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
