package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type LoanService interface {
	CreateLoan(ctx context.Context, customerID int64, amount Money, currencyCode string, terms int, processedAt time.Time) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	GetSchedule(ctx context.Context, loanID int64) ([]ScheduledRepayment, error)

	GetOutstanding(ctx context.Context, loanID int64) (Money, string, error)

	RepayLoan(ctx context.Context, loanID int64, amount Money, currencyCode string, receivedAt time.Time) (*ReceivedRepayment, error)

	ListRepayments(ctx context.Context, loanID int64) ([]ReceivedRepayment, error)
}

// Cache is a read cache for loan details. Implementations may be backed by
// Redis; a nil Cache disables caching entirely.
type Cache interface {
	GetLoan(ctx context.Context, loanID int64) (*Loan, bool)
	SetLoan(ctx context.Context, l *Loan)
	InvalidateLoan(ctx context.Context, loanID int64)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	publisher       event.Publisher
	cache           Cache
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, pub event.Publisher, cache Cache, logger *slog.Logger) LoanService {
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		publisher:       pub,
		cache:           cache,
		logger:          logger.With("component", "LoanService"),
	}
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, customerID int64, amount Money, currencyCode string, terms int, processedAt time.Time) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "customerID", customerID, "amount", amount, "terms", terms)

	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", "customerID", customerID)
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrValidation, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to verify customer", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}
	if !cust.Active {
		s.logger.WarnContext(ctx, "Attempted to create loan for inactive customer", "customerID", customerID)
		return nil, fmt.Errorf("%w: customer %d is not active", apperrors.ErrValidation, customerID)
	}

	newLoan, err := NewLoan(customerID, amount, currencyCode, terms, processedAt)
	if err != nil {
		return nil, err
	}

	schedule, err := newLoan.GenerateSchedule()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate repayment schedule", "error", err)
		return nil, err
	}

	createdLoan, err := s.repo.CreateLoan(ctx, newLoan, schedule)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan and schedule", "error", err)
		return nil, fmt.Errorf("%w: failed to save loan and schedule: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanCreated(createdLoan.CurrencyCode)
	s.publishLoanCreated(ctx, createdLoan)
	s.logger.InfoContext(ctx, "Loan created", "loanID", createdLoan.ID, "customerID", customerID)

	return createdLoan, nil
}

// RepayLoan applies a single incoming payment against the loan's schedule.
// The read of loan and installments, the mutation, and the ledger insert form
// one transaction; on any error nothing is persisted and the caller may
// simply reissue the whole call.
func (s *loanServiceImpl) RepayLoan(ctx context.Context, loanID int64, amount Money, currencyCode string, receivedAt time.Time) (received *ReceivedRepayment, err error) {
	s.logger.InfoContext(ctx, "Applying repayment", "loanID", loanID, "amount", amount, "currency", currencyCode)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		}
		if err != nil {
			monitoring.RecordRepayment(repaymentOutcome(err))
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	ln, err := s.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: could not load loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	schedule, err := s.repo.GetScheduleForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not load schedule for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	ln.Schedule = schedule

	entry, settled, err := ln.ApplyRepayment(amount, currencyCode, receivedAt)
	if err != nil {
		s.logger.WarnContext(ctx, "Repayment rejected", "loanID", loanID, "error", err)
		return nil, err
	}

	if err = s.repo.UpdateScheduledRepaymentInTx(ctx, tx, settled); err != nil {
		return nil, fmt.Errorf("%w: could not update installment: %v", apperrors.ErrInternalServer, err)
	}
	if err = s.repo.UpdateLoanInTx(ctx, tx, ln); err != nil {
		return nil, fmt.Errorf("%w: could not update loan: %v", apperrors.ErrInternalServer, err)
	}

	received, err = s.repo.InsertReceivedRepaymentInTx(ctx, tx, entry)
	if err != nil {
		return nil, fmt.Errorf("%w: could not record received repayment: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordRepayment("success")
	if s.cache != nil {
		s.cache.InvalidateLoan(ctx, loanID)
	}
	s.publishRepaymentReceived(ctx, ln, received)

	s.logger.InfoContext(ctx, "Repayment applied",
		"loanID", loanID, "amount", amount, "loanStatus", ln.Status, "outstanding", ln.OutstandingAmount)
	return received, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetLoan(ctx, loanID); ok {
			return cached, nil
		}
	}

	ln, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	schedule, err := s.repo.GetScheduleByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get schedule for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	ln.Schedule = schedule

	if s.cache != nil {
		s.cache.SetLoan(ctx, ln)
	}
	return ln, nil
}

func (s *loanServiceImpl) GetSchedule(ctx context.Context, loanID int64) ([]ScheduledRepayment, error) {
	schedule, err := s.repo.GetScheduleByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get schedule for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if len(schedule) == 0 {
		if _, err := s.repo.GetLoanByID(ctx, loanID); errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
	}
	return schedule, nil
}

func (s *loanServiceImpl) GetOutstanding(ctx context.Context, loanID int64) (Money, string, error) {
	outstanding, currencyCode, err := s.repo.GetTotalOutstandingAmount(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, "", fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return 0, "", fmt.Errorf("%w: failed to get outstanding amount for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return outstanding, currencyCode, nil
}

func (s *loanServiceImpl) ListRepayments(ctx context.Context, loanID int64) ([]ReceivedRepayment, error) {
	repayments, err := s.repo.GetRepaymentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list repayments for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if len(repayments) == 0 {
		if _, err := s.repo.GetLoanByID(ctx, loanID); errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
	}
	return repayments, nil
}

func (s *loanServiceImpl) publishLoanCreated(ctx context.Context, l *Loan) {
	if s.publisher == nil {
		return
	}
	evt := event.LoanCreatedEvent{
		LoanID:       l.ID,
		CustomerID:   l.CustomerID,
		Amount:       l.Amount,
		CurrencyCode: l.CurrencyCode,
		Terms:        l.Terms,
		ProcessedAt:  l.ProcessedAt,
		Timestamp:    time.Now(),
	}
	if err := s.publisher.PublishLoanCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan created event", "loanID", l.ID, "error", err)
	}
}

func (s *loanServiceImpl) publishRepaymentReceived(ctx context.Context, l *Loan, received *ReceivedRepayment) {
	if s.publisher == nil {
		return
	}
	evt := event.RepaymentReceivedEvent{
		LoanID:       l.ID,
		Reference:    received.Reference,
		Amount:       received.Amount,
		CurrencyCode: received.CurrencyCode,
		ReceivedAt:   received.ReceivedAt,
		LoanStatus:   string(l.Status),
		Outstanding:  l.OutstandingAmount,
		Timestamp:    time.Now(),
	}
	if err := s.publisher.PublishRepaymentReceived(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish repayment received event", "loanID", l.ID, "error", err)
	}
	if l.Status == StatusRepaid {
		repaid := event.LoanRepaidEvent{LoanID: l.ID, CustomerID: l.CustomerID, Timestamp: time.Now()}
		if err := s.publisher.PublishLoanRepaid(ctx, repaid); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish loan repaid event", "loanID", l.ID, "error", err)
		}
	}
}

func repaymentOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "failure_validation"
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		return "failure_currency"
	case errors.Is(err, apperrors.ErrAlreadySettled):
		return "failure_settled"
	case errors.Is(err, apperrors.ErrNotFound):
		return "failure_not_found"
	default:
		return "failure_internal"
	}
}
