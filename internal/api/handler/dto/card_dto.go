package dto

import (
	"fmt"
	"strconv"
	"time"

	"lending-engine/internal/domain/card"
	"lending-engine/internal/pkg/currency"
)

type CreateCardRequest struct {
	Type string `json:"type"`
}

func (r *CreateCardRequest) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("type cannot be empty")
	}
	return nil
}

type SetCardActiveRequest struct {
	Active bool `json:"active"`
}

type CreateCardTransactionRequest struct {
	DebitCardID  int64  `json:"debitCardId"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func (r *CreateCardTransactionRequest) Validate() error {
	if r.DebitCardID <= 0 {
		return fmt.Errorf("debitCardId must be a positive identifier")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if !currency.IsValidCode(r.CurrencyCode) {
		return fmt.Errorf("currencyCode must be a three-letter uppercase code")
	}
	return nil
}

type CardResponse struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customerId"`
	Type       string     `json:"type"`
	Number     string     `json:"number"`
	Expiration string     `json:"expiration"`
	Active     bool       `json:"active"`
	DisabledAt *time.Time `json:"disabledAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func NewCardResponse(dc *card.DebitCard) CardResponse {
	if dc == nil {
		return CardResponse{}
	}

	return CardResponse{
		ID:         strconv.FormatInt(dc.ID, 10),
		CustomerID: strconv.FormatInt(dc.CustomerID, 10),
		Type:       dc.Type,
		Number:     dc.Number,
		Expiration: dc.Expiration.Format(dateLayout),
		Active:     dc.IsActive(),
		DisabledAt: dc.DisabledAt,
		CreatedAt:  dc.CreatedAt,
		UpdatedAt:  dc.UpdatedAt,
	}
}

type CardTransactionResponse struct {
	ID            string    `json:"id"`
	DebitCardID   string    `json:"debitCardId"`
	Amount        int64     `json:"amount"`
	AmountDecimal string    `json:"amountDecimal"`
	CurrencyCode  string    `json:"currencyCode"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewCardTransactionResponse(txn *card.Transaction) CardTransactionResponse {
	if txn == nil {
		return CardTransactionResponse{}
	}

	return CardTransactionResponse{
		ID:            strconv.FormatInt(txn.ID, 10),
		DebitCardID:   strconv.FormatInt(txn.DebitCardID, 10),
		Amount:        txn.Amount,
		AmountDecimal: FormatMinorUnits(txn.Amount, txn.CurrencyCode),
		CurrencyCode:  txn.CurrencyCode,
		CreatedAt:     txn.CreatedAt,
	}
}
