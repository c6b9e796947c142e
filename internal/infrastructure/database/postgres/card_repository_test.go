package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/card"
	"lending-engine/internal/pkg/apperrors"
)

var cardQueryColumns = []string{
	"id", "customer_id", "type", "number", "expiration_date", "disabled_at", "created_at", "updated_at",
}

func setupCardRepo(t *testing.T) (context.Context, *CardRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewCardRepository(mockPool, logger), mockPool
}

func cardFixture() *card.DebitCard {
	now := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	return &card.DebitCard{
		ID:         3,
		CustomerID: 1,
		Type:       "virtual",
		Number:     "4539148803436467",
		Expiration: now.AddDate(4, 0, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSaveNewCardInserts(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	dc := cardFixture()
	dc.ID = 0

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO debit_cards")).WithArgs(
		dc.CustomerID, dc.Type, dc.Number, dc.Expiration, dc.DisabledAt,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(3), dc.CreatedAt, dc.UpdatedAt))

	err := repo.SaveCard(ctx, dc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dc.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCardUpdates(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	dc := cardFixture()
	disabledAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	dc.DisabledAt = &disabledAt

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE debit_cards")).
		WithArgs(dc.Type, dc.DisabledAt, dc.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SaveCard(ctx, dc)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCardByIDReturnNone(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM debit_cards")).WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)

	dc, err := repo.FindCardByID(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, dc)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCardsByCustomer(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	dc := cardFixture()
	rows := pgxmock.NewRows(cardQueryColumns).
		AddRow(dc.ID, dc.CustomerID, dc.Type, dc.Number, dc.Expiration, dc.DisabledAt, dc.CreatedAt, dc.UpdatedAt)

	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE customer_id = $1")).WithArgs(dc.CustomerID).WillReturnRows(rows)

	cards, err := repo.FindCardsByCustomer(ctx, dc.CustomerID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, dc.Number, cards[0].Number)
	assert.True(t, cards[0].IsActive())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCardWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM debit_cards")).WithArgs(int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteCard(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCountTransactions(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM debit_card_transactions")).WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveTransactionInserts(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	txn := &card.Transaction{DebitCardID: 3, Amount: 2599, CurrencyCode: "EUR"}
	createdAt := time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO debit_card_transactions")).
		WithArgs(txn.DebitCardID, txn.Amount, txn.CurrencyCode).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(21), createdAt))

	err := repo.SaveTransaction(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(21), txn.ID)
	assert.Equal(t, createdAt, txn.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindTransactionsByCard(t *testing.T) {
	ctx, repo, mockPool := setupCardRepo(t)
	defer mockPool.Close()

	createdAt := time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "debit_card_id", "amount", "currency_code", "created_at"}).
		AddRow(int64(21), int64(3), int64(2599), "EUR", createdAt).
		AddRow(int64(22), int64(3), int64(1099), "EUR", createdAt)

	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE debit_card_id = $1")).WithArgs(int64(3)).WillReturnRows(rows)

	txns, err := repo.FindTransactionsByCard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(2599), txns[0].Amount)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
