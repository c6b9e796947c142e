package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
)

// OverdueReportJob scans the schedule for installments whose due date has
// passed while money is still owed, publishes one overdue event per affected
// loan, and refreshes the overdue gauge.
type OverdueReportJob struct {
	loanRepo  loan.Repository
	publisher event.Publisher
	logger    *slog.Logger
}

func NewOverdueReportJob(loanRepo loan.Repository, publisher event.Publisher, logger *slog.Logger) *OverdueReportJob {
	if loanRepo == nil || logger == nil {
		panic("OverdueReportJob dependencies cannot be nil")
	}
	return &OverdueReportJob{
		loanRepo:  loanRepo,
		publisher: publisher,
		logger:    logger.With("job", "OverdueReport"),
	}
}

func (j *OverdueReportJob) Run(ctx context.Context) error {
	startTime := time.Now()
	asOf := startTime.UTC()
	j.logger.InfoContext(ctx, "Starting overdue installment report job.", slog.Time("asOf", asOf))

	overdue, err := j.loanRepo.GetOverdueSchedules(ctx, asOf)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to fetch overdue installments, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to fetch overdue installments: %w", err)
	}

	monitoring.RecordOverdueInstallments(len(overdue))

	if len(overdue) == 0 {
		j.logger.InfoContext(ctx, "No overdue installments found.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	byLoan := make(map[int64][]loan.ScheduledRepayment)
	for _, entry := range overdue {
		byLoan[entry.LoanID] = append(byLoan[entry.LoanID], entry)
	}

	publishErrors := 0
	for loanID, entries := range byLoan {
		var outstanding loan.Money
		for _, entry := range entries {
			outstanding += entry.OutstandingAmount
		}

		j.logger.WarnContext(ctx, "Loan has overdue installments",
			slog.Int64("loanID", loanID),
			slog.Int("installments", len(entries)),
			slog.Int64("outstanding", int64(outstanding)))

		if j.publisher == nil {
			continue
		}
		for _, entry := range entries {
			evt := event.LoanOverdueEvent{
				LoanID:      loanID,
				TermNumber:  entry.TermNumber,
				DueDate:     entry.DueDate,
				Outstanding: int64(entry.OutstandingAmount),
				Timestamp:   time.Now(),
			}
			if err := j.publisher.PublishLoanOverdue(ctx, evt); err != nil {
				j.logger.ErrorContext(ctx, "Failed to publish loan overdue event",
					slog.Int64("loanID", loanID),
					slog.Int("termNumber", entry.TermNumber),
					slog.Any("error", err))
				publishErrors++
			}
		}
	}

	j.logger.InfoContext(ctx, "Overdue installment report job finished.",
		slog.Int("overdueInstallments", len(overdue)),
		slog.Int("affectedLoans", len(byLoan)),
		slog.Int("publishErrors", publishErrors),
		slog.Duration("duration", time.Since(startTime)))

	if publishErrors > 0 {
		return fmt.Errorf("overdue report finished with %d publish errors", publishErrors)
	}
	return nil
}
