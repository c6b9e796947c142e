package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/currency"
)

const dateLayout = "2006-01-02"

type CreateLoanRequest struct {
	CustomerID   int64  `json:"customerId"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Terms        int    `json:"terms"`
	ProcessedAt  string `json:"processedAt,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customerId must be a positive identifier")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if !currency.IsValidCode(r.CurrencyCode) {
		return fmt.Errorf("currencyCode must be a three-letter uppercase code")
	}
	if r.Terms <= 0 {
		return fmt.Errorf("terms must be positive")
	}
	if r.ProcessedAt != "" {
		if _, err := time.Parse(dateLayout, r.ProcessedAt); err != nil {
			return fmt.Errorf("invalid processedAt format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// ProcessedAtTime returns the parsed processing date, or the zero time when
// the field was omitted. Validate must have accepted the request first.
func (r *CreateLoanRequest) ProcessedAtTime() time.Time {
	if r.ProcessedAt == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, r.ProcessedAt)
	return t
}

type RepayLoanRequest struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	ReceivedAt   string `json:"receivedAt,omitempty"`
}

func (r *RepayLoanRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if !currency.IsValidCode(r.CurrencyCode) {
		return fmt.Errorf("currencyCode must be a three-letter uppercase code")
	}
	if r.ReceivedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.ReceivedAt); err != nil {
			return fmt.Errorf("invalid receivedAt format (use RFC 3339): %w", err)
		}
	}
	return nil
}

func (r *RepayLoanRequest) ReceivedAtTime() time.Time {
	if r.ReceivedAt == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, r.ReceivedAt)
	return t
}

type LoanResponse struct {
	ID                 string                  `json:"id"`
	CustomerID         string                  `json:"customerId"`
	Amount             int64                   `json:"amount"`
	AmountDecimal      string                  `json:"amountDecimal"`
	Outstanding        int64                   `json:"outstanding"`
	OutstandingDecimal string                  `json:"outstandingDecimal"`
	CurrencyCode       string                  `json:"currencyCode"`
	Terms              int                     `json:"terms"`
	ProcessedAt        string                  `json:"processedAt"`
	Status             string                  `json:"status"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
	Schedule           []ScheduleEntryResponse `json:"schedule,omitempty"`
}

type ScheduleEntryResponse struct {
	ID                 string `json:"id"`
	TermNumber         int    `json:"termNumber"`
	DueDate            string `json:"dueDate"`
	Amount             int64  `json:"amount"`
	AmountDecimal      string `json:"amountDecimal"`
	Outstanding        int64  `json:"outstanding"`
	OutstandingDecimal string `json:"outstandingDecimal"`
	CurrencyCode       string `json:"currencyCode"`
	Status             string `json:"status"`
}

type OutstandingResponse struct {
	LoanID             string `json:"loanId"`
	Outstanding        int64  `json:"outstanding"`
	OutstandingDecimal string `json:"outstandingDecimal"`
}

type RepaymentResponse struct {
	ID                   string `json:"id"`
	LoanID               string `json:"loanId"`
	ScheduledRepaymentID string `json:"scheduledRepaymentId,omitempty"`
	Reference            string `json:"reference"`
	Amount               int64  `json:"amount"`
	AmountDecimal        string `json:"amountDecimal"`
	CurrencyCode         string `json:"currencyCode"`
	ReceivedAt           time.Time `json:"receivedAt"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// FormatMinorUnits renders an amount held in minor units as a decimal string
// using the currency's exponent, e.g. 100050 EUR -> "1000.50".
func FormatMinorUnits(amount int64, currencyCode string) string {
	exp := currency.Exponent(currencyCode)
	return decimal.New(amount, -int32(exp)).StringFixed(int32(exp))
}

func NewLoanResponse(domainLoan *loan.Loan, includeSchedule bool) LoanResponse {
	resp := LoanResponse{
		ID:                 strconv.FormatInt(domainLoan.ID, 10),
		CustomerID:         strconv.FormatInt(domainLoan.CustomerID, 10),
		Amount:             domainLoan.Amount,
		AmountDecimal:      FormatMinorUnits(domainLoan.Amount, domainLoan.CurrencyCode),
		Outstanding:        domainLoan.OutstandingAmount,
		OutstandingDecimal: FormatMinorUnits(domainLoan.OutstandingAmount, domainLoan.CurrencyCode),
		CurrencyCode:       domainLoan.CurrencyCode,
		Terms:              domainLoan.Terms,
		ProcessedAt:        domainLoan.ProcessedAt.Format(dateLayout),
		Status:             string(domainLoan.Status),
		CreatedAt:          domainLoan.CreatedAt,
		UpdatedAt:          domainLoan.UpdatedAt,
	}

	if includeSchedule && domainLoan.Schedule != nil {
		resp.Schedule = make([]ScheduleEntryResponse, len(domainLoan.Schedule))
		for i, entry := range domainLoan.Schedule {
			resp.Schedule[i] = NewScheduleEntryResponse(&entry)
		}
	}

	return resp
}

func NewScheduleEntryResponse(entry *loan.ScheduledRepayment) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		ID:                 strconv.FormatInt(entry.ID, 10),
		TermNumber:         entry.TermNumber,
		DueDate:            entry.DueDate.Format(dateLayout),
		Amount:             entry.Amount,
		AmountDecimal:      FormatMinorUnits(entry.Amount, entry.CurrencyCode),
		Outstanding:        entry.OutstandingAmount,
		OutstandingDecimal: FormatMinorUnits(entry.OutstandingAmount, entry.CurrencyCode),
		CurrencyCode:       entry.CurrencyCode,
		Status:             string(entry.Status),
	}
}

func NewRepaymentResponse(received *loan.ReceivedRepayment) RepaymentResponse {
	resp := RepaymentResponse{
		ID:            strconv.FormatInt(received.ID, 10),
		LoanID:        strconv.FormatInt(received.LoanID, 10),
		Reference:     received.Reference,
		Amount:        received.Amount,
		AmountDecimal: FormatMinorUnits(received.Amount, received.CurrencyCode),
		CurrencyCode:  received.CurrencyCode,
		ReceivedAt:    received.ReceivedAt,
	}
	if received.ScheduledRepaymentID != nil {
		resp.ScheduledRepaymentID = strconv.FormatInt(*received.ScheduledRepaymentID, 10)
	}
	return resp
}

type TokenRequest struct {
	CustomerID int64 `json:"customerId"`
}
