package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lending-engine/internal/api/handler/dto"
	mw "lending-engine/internal/api/middleware"
	"lending-engine/internal/domain/card"
	"lending-engine/internal/pkg/apperrors"
)

type CardHandler struct {
	service card.CardService
	logger  *slog.Logger
}

func NewCardHandler(s card.CardService, l *slog.Logger) *CardHandler {
	return &CardHandler{
		service: s,
		logger:  l.With("component", "CardHandler"),
	}
}

func getCardIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "cardID")
	if idStr == "" {
		return 0, fmt.Errorf("cardID not found in URL path")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// CreateCard issues a new debit card for the authenticated customer.
//
// @Summary Issue a debit card
// @Description Issues a new debit card with a generated number and a four-year expiration for the authenticated customer.
// @Tags DebitCards
// @Accept json
// @Produce json
// @Param request body dto.CreateCardRequest true "Card creation request payload"
// @Success 201 {object} dto.CardResponse "Card successfully issued"
// @Failure 400 {object} dto.ErrorResponse "Malformed request payload"
// @Failure 422 {object} dto.ErrorResponse "Validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-cards [post]
// @Security BearerAuth
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	dc, err := h.service.CreateCard(r.Context(), customerID, req.Type)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCardResponse(dc))
}

// ListCards lists the authenticated customer's debit cards.
//
// @Summary List debit cards
// @Tags DebitCards
// @Produce json
// @Success 200 {array} dto.CardResponse "Cards successfully retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-cards [get]
// @Security BearerAuth
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	customerID := mw.CustomerIDFromContext(r.Context())

	cards, err := h.service.ListCards(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.CardResponse, len(cards))
	for i, dc := range cards {
		resp[i] = dto.NewCardResponse(dc)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetCard retrieves one of the authenticated customer's debit cards.
//
// @Summary Retrieve a debit card
// @Tags DebitCards
// @Produce json
// @Param cardID path int true "Card ID"
// @Success 200 {object} dto.CardResponse "Card successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid card ID"
// @Failure 403 {object} dto.ErrorResponse "Card belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Card not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-cards/{cardID} [get]
// @Security BearerAuth
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := getCardIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	dc, err := h.service.GetCard(r.Context(), customerID, cardID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCardResponse(dc))
}

// SetCardActive enables or disables a debit card.
//
// @Summary Enable or disable a debit card
// @Description Disabling stamps the card with a disabled-at timestamp; enabling clears it.
// @Tags DebitCards
// @Accept json
// @Produce json
// @Param cardID path int true "Card ID"
// @Param request body dto.SetCardActiveRequest true "Desired active state"
// @Success 200 {object} dto.CardResponse "Card state successfully updated"
// @Failure 400 {object} dto.ErrorResponse "Malformed request payload"
// @Failure 403 {object} dto.ErrorResponse "Card belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Card not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-cards/{cardID}/active [put]
// @Security BearerAuth
func (h *CardHandler) SetCardActive(w http.ResponseWriter, r *http.Request) {
	cardID, err := getCardIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.SetCardActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	dc, err := h.service.SetCardActive(r.Context(), customerID, cardID, req.Active)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCardResponse(dc))
}

// DeleteCard removes a debit card that has no transactions.
//
// @Summary Delete a debit card
// @Description Deletes a card. Cards with recorded transactions cannot be deleted.
// @Tags DebitCards
// @Param cardID path int true "Card ID"
// @Success 204 "Card successfully deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid card ID"
// @Failure 403 {object} dto.ErrorResponse "Card belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Card not found"
// @Failure 409 {object} dto.ErrorResponse "Card has recorded transactions"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-cards/{cardID} [delete]
// @Security BearerAuth
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := getCardIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	if err := h.service.DeleteCard(r.Context(), customerID, cardID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateTransaction records a purchase against an active debit card.
//
// @Summary Record a debit card transaction
// @Tags DebitCardTransactions
// @Accept json
// @Produce json
// @Param request body dto.CreateCardTransactionRequest true "Transaction request payload"
// @Success 201 {object} dto.CardTransactionResponse "Transaction successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Malformed request payload"
// @Failure 403 {object} dto.ErrorResponse "Card belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Card not found"
// @Failure 422 {object} dto.ErrorResponse "Validation error or disabled card"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-card-transactions [post]
// @Security BearerAuth
func (h *CardHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	txn, err := h.service.CreateTransaction(r.Context(), customerID, req.DebitCardID, req.Amount, req.CurrencyCode)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCardTransactionResponse(txn))
}

// ListTransactions lists the transactions recorded on one of the customer's cards.
//
// @Summary List debit card transactions
// @Tags DebitCardTransactions
// @Produce json
// @Param cardId query int true "Card ID"
// @Success 200 {array} dto.CardTransactionResponse "Transactions successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid cardId"
// @Failure 403 {object} dto.ErrorResponse "Card belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Card not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-card-transactions [get]
// @Security BearerAuth
func (h *CardHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	cardID, err := strconv.ParseInt(r.URL.Query().Get("cardId"), 10, 64)
	if err != nil {
		respondError(w, fmt.Errorf("%w: cardId query parameter is required", apperrors.ErrInvalidArgument))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	txns, err := h.service.ListTransactions(r.Context(), customerID, cardID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.CardTransactionResponse, len(txns))
	for i, txn := range txns {
		resp[i] = dto.NewCardTransactionResponse(txn)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTransaction retrieves a single debit card transaction.
//
// @Summary Retrieve a debit card transaction
// @Tags DebitCardTransactions
// @Produce json
// @Param transactionID path int true "Transaction ID"
// @Success 200 {object} dto.CardTransactionResponse "Transaction successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid transaction ID"
// @Failure 403 {object} dto.ErrorResponse "Transaction belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Transaction not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /debit-card-transactions/{transactionID} [get]
// @Security BearerAuth
func (h *CardHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "transactionID")
	transactionID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid transaction ID", apperrors.ErrInvalidArgument))
		return
	}

	customerID := mw.CustomerIDFromContext(r.Context())
	txn, err := h.service.GetTransaction(r.Context(), customerID, transactionID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCardTransactionResponse(txn))
}
