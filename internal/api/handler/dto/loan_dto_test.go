package dto

import (
	"lending-engine/internal/domain/loan"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLoanResponse(t *testing.T) {
	scheduledID := int64(11)
	mockLoan := &loan.Loan{
		ID:                1,
		CustomerID:        7,
		Amount:            100000,
		OutstandingAmount: 66700,
		CurrencyCode:      "EUR",
		Terms:             3,
		ProcessedAt:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:            loan.StatusPartial,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
		Schedule: []loan.ScheduledRepayment{
			{
				ID:                scheduledID,
				LoanID:            1,
				TermNumber:        1,
				DueDate:           time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				Amount:            33300,
				OutstandingAmount: 0,
				CurrencyCode:      "EUR",
				Status:            loan.RepaymentStatusRepaid,
			},
		},
	}

	t.Run("Test without schedule", func(t *testing.T) {
		response := NewLoanResponse(mockLoan, false)

		assert.Equal(t, "1", response.ID)
		assert.Equal(t, "7", response.CustomerID)
		assert.Equal(t, int64(100000), response.Amount)
		assert.Equal(t, "1000.00", response.AmountDecimal)
		assert.Equal(t, int64(66700), response.Outstanding)
		assert.Equal(t, "667.00", response.OutstandingDecimal)
		assert.Equal(t, "EUR", response.CurrencyCode)
		assert.Equal(t, 3, response.Terms)
		assert.Equal(t, "2023-01-01", response.ProcessedAt)
		assert.Equal(t, string(loan.StatusPartial), response.Status)
		assert.Equal(t, mockLoan.CreatedAt, response.CreatedAt)
		assert.Equal(t, mockLoan.UpdatedAt, response.UpdatedAt)
		assert.Nil(t, response.Schedule)
	})

	t.Run("Test with schedule", func(t *testing.T) {
		response := NewLoanResponse(mockLoan, true)

		assert.NotNil(t, response.Schedule)
		assert.Len(t, response.Schedule, 1)

		scheduleEntry := response.Schedule[0]
		assert.Equal(t, "11", scheduleEntry.ID)
		assert.Equal(t, 1, scheduleEntry.TermNumber)
		assert.Equal(t, "2023-02-01", scheduleEntry.DueDate)
		assert.Equal(t, "333.00", scheduleEntry.AmountDecimal)
		assert.Equal(t, int64(0), scheduleEntry.Outstanding)
		assert.Equal(t, "0.00", scheduleEntry.OutstandingDecimal)
		assert.Equal(t, string(loan.RepaymentStatusRepaid), scheduleEntry.Status)
	})
}

func TestNewRepaymentResponse(t *testing.T) {
	scheduledID := int64(11)
	received := &loan.ReceivedRepayment{
		ID:                   5,
		LoanID:               1,
		ScheduledRepaymentID: &scheduledID,
		Reference:            "a3f9c2d1",
		Amount:               33300,
		CurrencyCode:         "EUR",
		ReceivedAt:           time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	response := NewRepaymentResponse(received)

	assert.Equal(t, "5", response.ID)
	assert.Equal(t, "1", response.LoanID)
	assert.Equal(t, "11", response.ScheduledRepaymentID)
	assert.Equal(t, "a3f9c2d1", response.Reference)
	assert.Equal(t, "333.00", response.AmountDecimal)
	assert.Equal(t, received.ReceivedAt, response.ReceivedAt)
}

func TestFormatMinorUnits(t *testing.T) {
	testCases := []struct {
		name     string
		amount   int64
		currency string
		expected string
	}{
		{"two decimal currency", 100050, "EUR", "1000.50"},
		{"zero decimal currency", 5000, "JPY", "5000"},
		{"three decimal currency", 12345, "KWD", "12.345"},
		{"zero amount", 0, "USD", "0.00"},
		{"single minor unit", 1, "USD", "0.01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatMinorUnits(tc.amount, tc.currency))
		})
	}
}

func TestCreateLoanRequestValidate(t *testing.T) {
	valid := CreateLoanRequest{CustomerID: 1, Amount: 100000, CurrencyCode: "EUR", Terms: 3, ProcessedAt: "2023-01-01"}
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(r *CreateLoanRequest)
	}{
		{"missing customer", func(r *CreateLoanRequest) { r.CustomerID = 0 }},
		{"non-positive amount", func(r *CreateLoanRequest) { r.Amount = 0 }},
		{"lowercase currency", func(r *CreateLoanRequest) { r.CurrencyCode = "eur" }},
		{"zero terms", func(r *CreateLoanRequest) { r.Terms = 0 }},
		{"bad date", func(r *CreateLoanRequest) { r.ProcessedAt = "01/01/2023" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestRepayLoanRequestValidate(t *testing.T) {
	valid := RepayLoanRequest{Amount: 33300, CurrencyCode: "EUR", ReceivedAt: "2023-02-01T12:00:00Z"}
	assert.NoError(t, valid.Validate())

	invalid := RepayLoanRequest{Amount: -1, CurrencyCode: "EUR"}
	assert.Error(t, invalid.Validate())

	badTimestamp := RepayLoanRequest{Amount: 100, CurrencyCode: "EUR", ReceivedAt: "2023-02-01"}
	assert.Error(t, badTimestamp.Validate())
}
