package loan

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoan(ctx context.Context, newLoan *Loan, schedule []ScheduledRepayment) (createdLoan *Loan, err error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	GetScheduleByLoanID(ctx context.Context, loanID int64) ([]ScheduledRepayment, error)

	GetRepaymentsByLoanID(ctx context.Context, loanID int64) ([]ReceivedRepayment, error)

	GetTotalOutstandingAmount(ctx context.Context, loanID int64) (Money, string, error)

	GetOverdueSchedules(ctx context.Context, asOf time.Time) ([]ScheduledRepayment, error)

	GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error)

	GetScheduleForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) ([]ScheduledRepayment, error)

	UpdateScheduledRepaymentInTx(ctx context.Context, tx pgx.Tx, entry *ScheduledRepayment) error

	UpdateLoanInTx(ctx context.Context, tx pgx.Tx, updated *Loan) error

	InsertReceivedRepaymentInTx(ctx context.Context, tx pgx.Tx, received *ReceivedRepayment) (*ReceivedRepayment, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
