package loan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"lending-engine/internal/pkg/apperrors"
	"lending-engine/internal/pkg/currency"
)

// Money is an amount expressed in minor currency units (cents, satang, ...).
type Money = int64

type LoanStatus string

const (
	StatusDue     LoanStatus = "due"
	StatusPartial LoanStatus = "partial"
	StatusRepaid  LoanStatus = "repaid"
)

type RepaymentStatus string

const (
	RepaymentStatusDue     RepaymentStatus = "due"
	RepaymentStatusPartial RepaymentStatus = "partial"
	RepaymentStatusRepaid  RepaymentStatus = "repaid"
)

type Loan struct {
	ID                int64
	CustomerID        int64
	Amount            Money
	OutstandingAmount Money
	CurrencyCode      string
	Terms             int
	ProcessedAt       time.Time
	Status            LoanStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Schedule          []ScheduledRepayment
}

type ScheduledRepayment struct {
	ID                int64
	LoanID            int64
	TermNumber        int
	DueDate           time.Time
	Amount            Money
	OutstandingAmount Money
	CurrencyCode      string
	Status            RepaymentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReceivedRepayment is an immutable ledger entry. It is never updated or
// deleted once written.
type ReceivedRepayment struct {
	ID                   int64
	LoanID               int64
	ScheduledRepaymentID *int64
	Reference            string
	Amount               Money
	CurrencyCode         string
	ReceivedAt           time.Time
	CreatedAt            time.Time
}

func NewLoan(customerID int64, amount Money, currencyCode string, terms int, processedAt time.Time) (*Loan, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount", "principal must be greater than zero")
	}
	if terms < 1 {
		return nil, apperrors.NewValidationError("terms", "term count must be at least 1")
	}
	if !currency.IsValidCode(currencyCode) {
		return nil, apperrors.NewValidationError("currencyCode", "must be a 3-letter ISO-4217 code")
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC().Truncate(24 * time.Hour)
	}

	return &Loan{
		CustomerID:        customerID,
		Amount:            amount,
		OutstandingAmount: amount,
		CurrencyCode:      currencyCode,
		Terms:             terms,
		ProcessedAt:       processedAt,
		Status:            StatusDue,
	}, nil
}

// GenerateSchedule produces one ScheduledRepayment per term. Installments
// 1..terms-1 carry the floored per-term amount; the final installment absorbs
// the division remainder so the amounts sum to the principal exactly.
func (l *Loan) GenerateSchedule() ([]ScheduledRepayment, error) {
	if l.Terms < 1 {
		return nil, apperrors.NewValidationError("terms", "term count must be at least 1")
	}
	if l.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount", "principal must be greater than zero")
	}

	base := l.Amount / Money(l.Terms)
	schedule := make([]ScheduledRepayment, 0, l.Terms)

	for term := 1; term <= l.Terms; term++ {
		amount := base
		if term == l.Terms {
			amount = l.Amount - base*Money(l.Terms-1)
		}

		schedule = append(schedule, ScheduledRepayment{
			LoanID:            l.ID,
			TermNumber:        term,
			DueDate:           addMonths(l.ProcessedAt, term),
			Amount:            amount,
			OutstandingAmount: amount,
			CurrencyCode:      l.CurrencyCode,
			Status:            RepaymentStatusDue,
		})
	}

	var total Money
	for _, entry := range schedule {
		total += entry.Amount
	}
	if total != l.Amount {
		return nil, fmt.Errorf("%w: schedule amounts sum to %d, expected %d",
			apperrors.ErrInternalServer, total, l.Amount)
	}

	return schedule, nil
}

// ApplyRepayment allocates a payment against the oldest installment that
// still has an outstanding amount and returns the resulting ledger entry
// together with the installment it settled against. A single call settles at
// most one installment; any excess over that installment's outstanding amount
// is not carried forward to the next one.
func (l *Loan) ApplyRepayment(amount Money, currencyCode string, receivedAt time.Time) (*ReceivedRepayment, *ScheduledRepayment, error) {
	if amount <= 0 {
		return nil, nil, apperrors.NewValidationError("amount", "repayment amount must be greater than zero")
	}
	if !currency.IsValidCode(currencyCode) {
		return nil, nil, apperrors.NewValidationError("currencyCode", "must be a 3-letter ISO-4217 code")
	}
	if currencyCode != l.CurrencyCode {
		return nil, nil, fmt.Errorf("%w: got %s, loan is in %s",
			apperrors.ErrCurrencyMismatch, currencyCode, l.CurrencyCode)
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	target := l.oldestUnsettled()
	if target == nil {
		return nil, nil, fmt.Errorf("%w: loan %d", apperrors.ErrAlreadySettled, l.ID)
	}

	target.OutstandingAmount -= amount
	if target.OutstandingAmount < 0 {
		target.OutstandingAmount = 0
	}
	target.Status = repaymentStatusFor(target.Amount, target.OutstandingAmount)
	target.UpdatedAt = receivedAt

	l.OutstandingAmount = l.OutstandingTotal()
	l.Status = l.DeriveStatus()
	l.UpdatedAt = receivedAt

	received := &ReceivedRepayment{
		LoanID:               l.ID,
		ScheduledRepaymentID: &target.ID,
		Reference:            uuid.NewString(),
		Amount:               amount,
		CurrencyCode:         currencyCode,
		ReceivedAt:           receivedAt,
	}

	return received, target, nil
}

// oldestUnsettled returns the installment with the earliest due date among
// those with outstanding > 0, or nil when every installment is settled.
func (l *Loan) oldestUnsettled() *ScheduledRepayment {
	var target *ScheduledRepayment
	for i := range l.Schedule {
		entry := &l.Schedule[i]
		if entry.OutstandingAmount <= 0 {
			continue
		}
		if target == nil || entry.DueDate.Before(target.DueDate) {
			target = entry
		}
	}
	return target
}

// DeriveStatus computes the loan's aggregate status purely from installment
// state. Installment state is the single source of truth; the loan never
// tracks its own balance independently.
func (l *Loan) DeriveStatus() LoanStatus {
	if len(l.Schedule) == 0 {
		return StatusDue
	}

	settled := 0
	touched := false
	for _, entry := range l.Schedule {
		if entry.OutstandingAmount == 0 {
			settled++
		}
		if entry.OutstandingAmount < entry.Amount {
			touched = true
		}
	}

	switch {
	case settled == len(l.Schedule):
		return StatusRepaid
	case touched:
		return StatusPartial
	default:
		return StatusDue
	}
}

// OutstandingTotal sums the outstanding amounts of every installment.
func (l *Loan) OutstandingTotal() Money {
	var total Money
	for _, entry := range l.Schedule {
		total += entry.OutstandingAmount
	}
	return total
}

func repaymentStatusFor(amount, outstanding Money) RepaymentStatus {
	switch {
	case outstanding == 0:
		return RepaymentStatusRepaid
	case outstanding < amount:
		return RepaymentStatusPartial
	default:
		return RepaymentStatusDue
	}
}

// addMonths advances t by the given number of calendar months, clamping the
// day of month to the target month's length. time.AddDate normalizes overflow
// (Jan 31 + 1 month = Mar 2/3), which is not what a due date wants.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
