package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/pkg/apperrors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewLoan(t *testing.T) {
	t.Run("should reject non-positive principal", func(t *testing.T) {
		_, err := NewLoan(1, 0, "EUR", 3, date(2024, time.January, 15))
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = NewLoan(1, -500, "EUR", 3, date(2024, time.January, 15))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("should reject non-positive terms", func(t *testing.T) {
		_, err := NewLoan(1, 1000, "EUR", 0, date(2024, time.January, 15))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("should reject malformed currency codes", func(t *testing.T) {
		for _, code := range []string{"", "EU", "EURO", "eur", "E1R"} {
			_, err := NewLoan(1, 1000, code, 3, date(2024, time.January, 15))
			assert.ErrorIs(t, err, apperrors.ErrValidation, "code %q", code)
		}
	})

	t.Run("should create a due loan with outstanding equal to principal", func(t *testing.T) {
		l, err := NewLoan(42, 1000, "EUR", 3, date(2024, time.January, 15))
		require.NoError(t, err)
		assert.Equal(t, int64(42), l.CustomerID)
		assert.Equal(t, Money(1000), l.Amount)
		assert.Equal(t, Money(1000), l.OutstandingAmount)
		assert.Equal(t, StatusDue, l.Status)
	})
}

func TestGenerateSchedule(t *testing.T) {
	t.Run("should split 1000 over 3 terms as 333, 333, 334", func(t *testing.T) {
		l, err := NewLoan(1, 1000, "EUR", 3, date(2024, time.January, 15))
		require.NoError(t, err)

		schedule, err := l.GenerateSchedule()
		require.NoError(t, err)
		require.Len(t, schedule, 3)

		assert.Equal(t, Money(333), schedule[0].Amount)
		assert.Equal(t, Money(333), schedule[1].Amount)
		assert.Equal(t, Money(334), schedule[2].Amount)

		assert.Equal(t, date(2024, time.February, 15), schedule[0].DueDate)
		assert.Equal(t, date(2024, time.March, 15), schedule[1].DueDate)
		assert.Equal(t, date(2024, time.April, 15), schedule[2].DueDate)

		for i, entry := range schedule {
			assert.Equal(t, i+1, entry.TermNumber)
			assert.Equal(t, RepaymentStatusDue, entry.Status)
			assert.Equal(t, entry.Amount, entry.OutstandingAmount)
			assert.Equal(t, "EUR", entry.CurrencyCode)
		}
	})

	t.Run("amounts always sum to principal exactly", func(t *testing.T) {
		cases := []struct {
			principal Money
			terms     int
		}{
			{1000, 3},
			{1, 1},
			{999, 1},
			{1000, 1000},
			{7, 3},
			{5000000, 52},
			{982451653, 17},
		}
		for _, tc := range cases {
			l, err := NewLoan(1, tc.principal, "THB", tc.terms, date(2024, time.June, 1))
			require.NoError(t, err)

			schedule, err := l.GenerateSchedule()
			require.NoError(t, err)
			require.Len(t, schedule, tc.terms)

			var total Money
			for _, entry := range schedule {
				total += entry.Amount
			}
			assert.Equal(t, tc.principal, total, "principal %d over %d terms", tc.principal, tc.terms)
		}
	})

	t.Run("due dates advance one calendar month per term", func(t *testing.T) {
		l, err := NewLoan(1, 12000, "IDR", 12, date(2024, time.March, 10))
		require.NoError(t, err)

		schedule, err := l.GenerateSchedule()
		require.NoError(t, err)

		prev := l.ProcessedAt
		for _, entry := range schedule {
			assert.True(t, entry.DueDate.After(prev), "due dates must be strictly increasing")
			prev = entry.DueDate
		}
		assert.Equal(t, date(2025, time.March, 10), schedule[11].DueDate)
	})

	t.Run("clamps day of month when the target month is shorter", func(t *testing.T) {
		l, err := NewLoan(1, 400, "EUR", 4, date(2024, time.January, 31))
		require.NoError(t, err)

		schedule, err := l.GenerateSchedule()
		require.NoError(t, err)

		// 2024 is a leap year.
		assert.Equal(t, date(2024, time.February, 29), schedule[0].DueDate)
		assert.Equal(t, date(2024, time.March, 31), schedule[1].DueDate)
		assert.Equal(t, date(2024, time.April, 30), schedule[2].DueDate)
		assert.Equal(t, date(2024, time.May, 31), schedule[3].DueDate)
	})

	t.Run("is a pure function of its inputs", func(t *testing.T) {
		l, err := NewLoan(1, 777, "USD", 5, date(2023, time.November, 30))
		require.NoError(t, err)

		first, err := l.GenerateSchedule()
		require.NoError(t, err)
		second, err := l.GenerateSchedule()
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func loanWithSchedule(t *testing.T) *Loan {
	t.Helper()
	l, err := NewLoan(1, 1000, "EUR", 3, date(2024, time.January, 15))
	require.NoError(t, err)
	schedule, err := l.GenerateSchedule()
	require.NoError(t, err)
	l.Schedule = schedule
	return l
}

func TestApplyRepayment(t *testing.T) {
	received := date(2024, time.February, 20)

	t.Run("settles the oldest installment and derives partial loan status", func(t *testing.T) {
		l := loanWithSchedule(t)

		entry, settled, err := l.ApplyRepayment(333, "EUR", received)
		require.NoError(t, err)

		assert.Equal(t, Money(333), entry.Amount)
		assert.Equal(t, "EUR", entry.CurrencyCode)
		assert.NotEmpty(t, entry.Reference)
		assert.Equal(t, received, entry.ReceivedAt)

		assert.Equal(t, 1, settled.TermNumber)
		assert.Equal(t, RepaymentStatusRepaid, settled.Status)
		assert.Equal(t, Money(0), settled.OutstandingAmount)

		assert.Equal(t, StatusPartial, l.Status)
		assert.Equal(t, Money(667), l.OutstandingAmount)
	})

	t.Run("partial payment leaves the installment partial", func(t *testing.T) {
		l := loanWithSchedule(t)

		_, settled, err := l.ApplyRepayment(100, "EUR", received)
		require.NoError(t, err)

		assert.Equal(t, RepaymentStatusPartial, settled.Status)
		assert.Equal(t, Money(233), settled.OutstandingAmount)
		assert.Equal(t, StatusPartial, l.Status)
		assert.Equal(t, Money(900), l.OutstandingAmount)
	})

	t.Run("full sequence of payments repays the loan", func(t *testing.T) {
		l := loanWithSchedule(t)

		for _, amount := range []Money{333, 333, 334} {
			_, _, err := l.ApplyRepayment(amount, "EUR", received)
			require.NoError(t, err)
		}

		assert.Equal(t, StatusRepaid, l.Status)
		assert.Equal(t, Money(0), l.OutstandingAmount)
	})

	t.Run("excess over the target installment is not carried forward", func(t *testing.T) {
		l := loanWithSchedule(t)

		_, settled, err := l.ApplyRepayment(500, "EUR", received)
		require.NoError(t, err)

		assert.Equal(t, Money(0), settled.OutstandingAmount)
		assert.Equal(t, RepaymentStatusRepaid, settled.Status)

		// The second installment is untouched: a single call settles at most
		// one installment.
		assert.Equal(t, Money(333), l.Schedule[1].OutstandingAmount)
		assert.Equal(t, RepaymentStatusDue, l.Schedule[1].Status)
		assert.Equal(t, Money(667), l.OutstandingAmount)
	})

	t.Run("allocates against the earliest due date among unsettled installments", func(t *testing.T) {
		l := loanWithSchedule(t)

		// Settle the first installment, then pay again: the second one must
		// be picked, not the first or the last.
		_, _, err := l.ApplyRepayment(333, "EUR", received)
		require.NoError(t, err)

		_, settled, err := l.ApplyRepayment(50, "EUR", received)
		require.NoError(t, err)
		assert.Equal(t, 2, settled.TermNumber)
	})

	t.Run("currency mismatch rejects without mutating any state", func(t *testing.T) {
		l := loanWithSchedule(t)

		_, _, err := l.ApplyRepayment(333, "USD", received)
		assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

		assert.Equal(t, StatusDue, l.Status)
		assert.Equal(t, Money(1000), l.OutstandingAmount)
		for _, entry := range l.Schedule {
			assert.Equal(t, entry.Amount, entry.OutstandingAmount)
			assert.Equal(t, RepaymentStatusDue, entry.Status)
		}
	})

	t.Run("non-positive amount is a validation error", func(t *testing.T) {
		l := loanWithSchedule(t)

		_, _, err := l.ApplyRepayment(0, "EUR", received)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, _, err = l.ApplyRepayment(-10, "EUR", received)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("payment against a fully repaid loan is rejected", func(t *testing.T) {
		l := loanWithSchedule(t)
		for _, amount := range []Money{333, 333, 334} {
			_, _, err := l.ApplyRepayment(amount, "EUR", received)
			require.NoError(t, err)
		}

		_, _, err := l.ApplyRepayment(100, "EUR", received)
		assert.ErrorIs(t, err, apperrors.ErrAlreadySettled)
		assert.Equal(t, Money(0), l.OutstandingAmount)
	})

	t.Run("omitted received date defaults to now", func(t *testing.T) {
		l := loanWithSchedule(t)

		before := time.Now().UTC()
		entry, settled, err := l.ApplyRepayment(333, "EUR", time.Time{})
		require.NoError(t, err)
		after := time.Now().UTC()

		assert.False(t, entry.ReceivedAt.IsZero())
		assert.True(t, !entry.ReceivedAt.Before(before) && !entry.ReceivedAt.After(after))
		assert.False(t, settled.UpdatedAt.IsZero())
		assert.False(t, l.UpdatedAt.IsZero())
	})

	t.Run("outstanding equals principal minus applied payments", func(t *testing.T) {
		l := loanWithSchedule(t)

		payments := []Money{100, 233, 333, 50}
		var paid Money
		for _, amount := range payments {
			_, _, err := l.ApplyRepayment(amount, "EUR", received)
			require.NoError(t, err)
			paid += amount
			assert.Equal(t, l.Amount-paid, l.OutstandingAmount)
		}
	})
}

func TestDeriveStatus(t *testing.T) {
	t.Run("empty schedule derives due", func(t *testing.T) {
		l := &Loan{}
		assert.Equal(t, StatusDue, l.DeriveStatus())
	})

	t.Run("untouched schedule derives due", func(t *testing.T) {
		l := loanWithSchedule(t)
		assert.Equal(t, StatusDue, l.DeriveStatus())
	})
}

func TestValidationErrorsCarryFields(t *testing.T) {
	_, err := NewLoan(1, -1, "EUR", 3, date(2024, time.January, 1))
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount", ve.Field)
}
