package card

import (
	"crypto/rand"
	"time"
)

type DebitCard struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customerId"`
	Type       string     `json:"type"`
	Number     string     `json:"number"`
	Expiration time.Time  `json:"expirationDate"`
	DisabledAt *time.Time `json:"disabledAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Transaction is an immutable spend record on a debit card.
type Transaction struct {
	ID           int64     `json:"id"`
	DebitCardID  int64     `json:"debitCardId"`
	Amount       int64     `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewDebitCard(customerID int64, cardType string) *DebitCard {
	now := time.Now()
	return &DebitCard{
		CustomerID: customerID,
		Type:       cardType,
		Number:     generateCardNumber(),
		Expiration: now.AddDate(4, 0, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive reports whether the card is usable. A card is active iff it has
// no disabled-at timestamp.
func (c *DebitCard) IsActive() bool {
	return c.DisabledAt == nil
}

func (c *DebitCard) Disable() {
	if c.DisabledAt == nil {
		now := time.Now()
		c.DisabledAt = &now
		c.UpdatedAt = now
	}
}

func (c *DebitCard) Enable() {
	if c.DisabledAt != nil {
		c.DisabledAt = nil
		c.UpdatedAt = time.Now()
	}
}

func generateCardNumber() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	digits := make([]byte, 16)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits)
}
