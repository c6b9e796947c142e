package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/card"
	"lending-engine/internal/pkg/apperrors"
)

type CardRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ card.CardRepository = (*CardRepository)(nil)

func NewCardRepository(db DBPool, logger *slog.Logger) *CardRepository {
	return &CardRepository{db: db, logger: logger.With("component", "CardRepository")}
}

func (r *CardRepository) SaveCard(ctx context.Context, dc *card.DebitCard) error {
	if dc == nil {
		return fmt.Errorf("%w: card cannot be nil", apperrors.ErrInvalidArgument)
	}
	if dc.ID == 0 {
		return r.createCard(ctx, dc)
	}
	return r.updateCard(ctx, dc)
}

func (r *CardRepository) createCard(ctx context.Context, dc *card.DebitCard) error {
	query := `
        INSERT INTO debit_cards (customer_id, type, number, expiration_date, disabled_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		dc.CustomerID, dc.Type, dc.Number, dc.Expiration, dc.DisabledAt,
	).Scan(&dc.ID, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert debit card", slog.Any("error", err), slog.Int64("customerID", dc.CustomerID))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Debit card inserted successfully", slog.Int64("cardID", dc.ID))
	return nil
}

func (r *CardRepository) updateCard(ctx context.Context, dc *card.DebitCard) error {
	query := `
        UPDATE debit_cards
        SET type = $1, disabled_at = $2, updated_at = NOW()
        WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, dc.Type, dc.DisabledAt, dc.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update debit card", slog.Any("error", err), slog.Int64("cardID", dc.ID))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, debit card likely not found", slog.Int64("cardID", dc.ID))
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CardRepository) FindCardByID(ctx context.Context, cardID int64) (*card.DebitCard, error) {
	query := `
        SELECT id, customer_id, type, number, expiration_date, disabled_at, created_at, updated_at
        FROM debit_cards
        WHERE id = $1`

	var dc card.DebitCard
	err := r.db.QueryRow(ctx, query, cardID).Scan(
		&dc.ID, &dc.CustomerID, &dc.Type, &dc.Number,
		&dc.Expiration, &dc.DisabledAt, &dc.CreatedAt, &dc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Debit card not found", slog.Int64("cardID", cardID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan debit card", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &dc, nil
}

func (r *CardRepository) FindCardsByCustomer(ctx context.Context, customerID int64) ([]*card.DebitCard, error) {
	query := `
        SELECT id, customer_id, type, number, expiration_date, disabled_at, created_at, updated_at
        FROM debit_cards
        WHERE customer_id = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query debit cards", slog.Any("error", err), slog.Int64("customerID", customerID))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	cards := make([]*card.DebitCard, 0)
	for rows.Next() {
		var dc card.DebitCard
		err := rows.Scan(
			&dc.ID, &dc.CustomerID, &dc.Type, &dc.Number,
			&dc.Expiration, &dc.DisabledAt, &dc.CreatedAt, &dc.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan debit card row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		cards = append(cards, &dc)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating debit card rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cards, nil
}

func (r *CardRepository) DeleteCard(ctx context.Context, cardID int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM debit_cards WHERE id = $1`, cardID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete debit card", slog.Any("error", err), slog.Int64("cardID", cardID))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, debit card likely not found", slog.Int64("cardID", cardID))
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Debit card deleted", slog.Int64("cardID", cardID))
	return nil
}

func (r *CardRepository) CountTransactions(ctx context.Context, cardID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM debit_card_transactions WHERE debit_card_id = $1`
	if err := r.db.QueryRow(ctx, query, cardID).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count debit card transactions", slog.Any("error", err), slog.Int64("cardID", cardID))
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return count, nil
}

func (r *CardRepository) SaveTransaction(ctx context.Context, txn *card.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO debit_card_transactions (debit_card_id, amount, currency_code, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, txn.DebitCardID, txn.Amount, txn.CurrencyCode).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert debit card transaction", slog.Any("error", err), slog.Int64("cardID", txn.DebitCardID))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *CardRepository) FindTransactionByID(ctx context.Context, txnID int64) (*card.Transaction, error) {
	query := `
        SELECT id, debit_card_id, amount, currency_code, created_at
        FROM debit_card_transactions
        WHERE id = $1`

	var txn card.Transaction
	err := r.db.QueryRow(ctx, query, txnID).Scan(
		&txn.ID, &txn.DebitCardID, &txn.Amount, &txn.CurrencyCode, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan debit card transaction", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &txn, nil
}

func (r *CardRepository) FindTransactionsByCard(ctx context.Context, cardID int64) ([]*card.Transaction, error) {
	query := `
        SELECT id, debit_card_id, amount, currency_code, created_at
        FROM debit_card_transactions
        WHERE debit_card_id = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, cardID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query debit card transactions", slog.Any("error", err), slog.Int64("cardID", cardID))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	txns := make([]*card.Transaction, 0)
	for rows.Next() {
		var txn card.Transaction
		if err := rows.Scan(&txn.ID, &txn.DebitCardID, &txn.Amount, &txn.CurrencyCode, &txn.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan debit card transaction row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		txns = append(txns, &txn)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating debit card transaction rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return txns, nil
}
