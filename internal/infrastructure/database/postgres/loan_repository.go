package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan, schedule []loan.ScheduledRepayment) (*loan.Loan, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	loanSQL := `
        INSERT INTO loans (customer_id, amount, outstanding_amount, currency_code, terms, processed_at, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, customer_id, amount, outstanding_amount, currency_code, terms, processed_at, status, created_at, updated_at`

	var created loan.Loan
	err = tx.QueryRow(ctx, loanSQL,
		newLoan.CustomerID, newLoan.Amount, newLoan.OutstandingAmount, newLoan.CurrencyCode,
		newLoan.Terms, newLoan.ProcessedAt, newLoan.Status,
	).Scan(
		&created.ID, &created.CustomerID, &created.Amount, &created.OutstandingAmount,
		&created.CurrencyCode, &created.Terms, &created.ProcessedAt, &created.Status,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	scheduleSQL := `
        INSERT INTO scheduled_repayments (loan_id, term_number, due_date, amount, outstanding_amount, currency_code, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	batch := &pgx.Batch{}
	for _, entry := range schedule {
		batch.Queue(scheduleSQL, created.ID, entry.TermNumber, entry.DueDate, entry.Amount,
			entry.OutstandingAmount, entry.CurrencyCode, entry.Status)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(schedule); i++ {
		if _, err = results.Exec(); err != nil {
			results.Close()
			r.logger.ErrorContext(ctx, "Failed executing schedule batch insert", "error", err, "entry_index", i, "loan_id", created.ID)
			return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}
	if err = results.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed closing schedule batch results", "error", err, "loan_id", created.ID)
		return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
	}

	if err := r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Loan and schedule created in DB", "loan_id", created.ID, "num_installments", len(schedule))
	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `
        SELECT id, customer_id, amount, outstanding_amount, currency_code, terms, processed_at, status, created_at, updated_at
        FROM loans
        WHERE id = $1`
	status := "success"
	startTime := time.Now()

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&l.ID, &l.CustomerID, &l.Amount, &l.OutstandingAmount, &l.CurrencyCode,
		&l.Terms, &l.ProcessedAt, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) GetScheduleByLoanID(ctx context.Context, loanID int64) ([]loan.ScheduledRepayment, error) {
	query := `
        SELECT id, loan_id, term_number, due_date, amount, outstanding_amount, currency_code, status, created_at, updated_at
        FROM scheduled_repayments
        WHERE loan_id = $1
        ORDER BY term_number ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query schedule", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanSchedule(ctx, rows, loanID)
}

func (r *LoanRepository) GetRepaymentsByLoanID(ctx context.Context, loanID int64) ([]loan.ReceivedRepayment, error) {
	query := `
        SELECT id, loan_id, scheduled_repayment_id, reference, amount, currency_code, received_at, created_at
        FROM received_repayments
        WHERE loan_id = $1
        ORDER BY received_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query received repayments", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	repayments := make([]loan.ReceivedRepayment, 0)
	for rows.Next() {
		var rr loan.ReceivedRepayment
		err := rows.Scan(
			&rr.ID, &rr.LoanID, &rr.ScheduledRepaymentID, &rr.Reference,
			&rr.Amount, &rr.CurrencyCode, &rr.ReceivedAt, &rr.CreatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan received repayment row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		repayments = append(repayments, rr)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating received repayment rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return repayments, nil
}

func (r *LoanRepository) GetTotalOutstandingAmount(ctx context.Context, loanID int64) (loan.Money, string, error) {
	var currencyCode string
	if err := r.db.QueryRow(ctx, `SELECT currency_code FROM loans WHERE id = $1`, loanID).Scan(&currencyCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to check loan existence", "loan_id", loanID, "error", err)
		return 0, "", fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	var totalOutstanding loan.Money
	query := `
        SELECT COALESCE(SUM(outstanding_amount), 0)
        FROM scheduled_repayments
        WHERE loan_id = $1`

	if err := r.db.QueryRow(ctx, query, loanID).Scan(&totalOutstanding); err != nil {
		r.logger.ErrorContext(ctx, "Failed to calculate total outstanding amount", "loan_id", loanID, "error", err)
		return 0, "", fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return totalOutstanding, currencyCode, nil
}

func (r *LoanRepository) GetOverdueSchedules(ctx context.Context, asOf time.Time) ([]loan.ScheduledRepayment, error) {
	query := `
        SELECT id, loan_id, term_number, due_date, amount, outstanding_amount, currency_code, status, created_at, updated_at
        FROM scheduled_repayments
        WHERE outstanding_amount > 0 AND due_date < $1
        ORDER BY due_date ASC`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query overdue installments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanSchedule(ctx, rows, 0)
}

// GetLoanForUpdate locks the loan row for the duration of the allocation
// transaction so concurrent payments against the same loan serialize.
func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Loan, error) {
	query := `
        SELECT id, customer_id, amount, outstanding_amount, currency_code, terms, processed_at, status, created_at, updated_at
        FROM loans
        WHERE id = $1
        FOR UPDATE`

	var l loan.Loan
	err := tx.QueryRow(ctx, query, loanID).Scan(
		&l.ID, &l.CustomerID, &l.Amount, &l.OutstandingAmount, &l.CurrencyCode,
		&l.Terms, &l.ProcessedAt, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found for update", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan for update", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) GetScheduleForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) ([]loan.ScheduledRepayment, error) {
	query := `
        SELECT id, loan_id, term_number, due_date, amount, outstanding_amount, currency_code, status, created_at, updated_at
        FROM scheduled_repayments
        WHERE loan_id = $1
        ORDER BY term_number ASC
        FOR UPDATE`

	rows, err := tx.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to lock schedule for update", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanSchedule(ctx, rows, loanID)
}

func (r *LoanRepository) UpdateScheduledRepaymentInTx(ctx context.Context, tx pgx.Tx, entry *loan.ScheduledRepayment) error {
	sql := `
        UPDATE scheduled_repayments
        SET outstanding_amount = $1, status = $2, updated_at = NOW()
        WHERE id = $3 AND loan_id = $4`

	cmdTag, err := tx.Exec(ctx, sql, entry.OutstandingAmount, entry.Status, entry.ID, entry.LoanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update installment", "entry_id", entry.ID, "loan_id", entry.LoanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Installment update affected zero rows", "entry_id", entry.ID, "loan_id", entry.LoanID)
		return fmt.Errorf("%w: installment update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *LoanRepository) UpdateLoanInTx(ctx context.Context, tx pgx.Tx, updated *loan.Loan) error {
	sql := `UPDATE loans SET outstanding_amount = $1, status = $2, updated_at = NOW() WHERE id = $3`
	cmdTag, err := tx.Exec(ctx, sql, updated.OutstandingAmount, updated.Status, updated.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", updated.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan update affected zero rows", "loan_id", updated.ID)
		return fmt.Errorf("%w: loan update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *LoanRepository) InsertReceivedRepaymentInTx(ctx context.Context, tx pgx.Tx, received *loan.ReceivedRepayment) (*loan.ReceivedRepayment, error) {
	sql := `
        INSERT INTO received_repayments (loan_id, scheduled_repayment_id, reference, amount, currency_code, received_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, loan_id, scheduled_repayment_id, reference, amount, currency_code, received_at, created_at`

	var created loan.ReceivedRepayment
	err := tx.QueryRow(ctx, sql,
		received.LoanID, received.ScheduledRepaymentID, received.Reference,
		received.Amount, received.CurrencyCode, received.ReceivedAt,
	).Scan(
		&created.ID, &created.LoanID, &created.ScheduledRepaymentID, &created.Reference,
		&created.Amount, &created.CurrencyCode, &created.ReceivedAt, &created.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert received repayment", "loan_id", received.LoanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &created, nil
}

func (r *LoanRepository) scanSchedule(ctx context.Context, rows pgx.Rows, loanID int64) ([]loan.ScheduledRepayment, error) {
	schedule := make([]loan.ScheduledRepayment, 0)
	for rows.Next() {
		var entry loan.ScheduledRepayment
		err := rows.Scan(
			&entry.ID, &entry.LoanID, &entry.TermNumber, &entry.DueDate,
			&entry.Amount, &entry.OutstandingAmount, &entry.CurrencyCode,
			&entry.Status, &entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		schedule = append(schedule, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating installment rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return schedule, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}
		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
