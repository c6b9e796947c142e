package postgres

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/pkg/apperrors"
)

const pgxmockExpectationsNotMetMsg = "pgxmock expectations not met"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var customerTest = &customer.Customer{
	CustomerID: 1,
	Name:       "John Doe",
	Email:      "john.doe@example.com",
	Active:     true,
	CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	UpdatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCustomerRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestCreateCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        INSERT INTO customers (name, email, active, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(
		customerTest.Name,
		customerTest.Email,
		customerTest.Active,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(customerTest.CustomerID, customerTest.CreatedAt, customerTest.UpdatedAt))

	err := repo.createCustomer(ctx, customerTest)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveExistingCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        UPDATE customers
        SET name = $1,
            email = $2,
            active = $3,
            updated_at = NOW()
        WHERE id = $4`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		customerTest.Name,
		customerTest.Email,
		customerTest.Active,
		customerTest.CustomerID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Save(ctx, customerTest)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveNonExistingCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	fresh := &customer.Customer{Name: "Jane Roe", Email: "jane.roe@example.com", Active: true}

	query := `
        INSERT INTO customers (name, email, active, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(
		fresh.Name,
		fresh.Email,
		fresh.Active,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(42), customerTest.CreatedAt, customerTest.UpdatedAt))

	err := repo.Save(ctx, fresh)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), fresh.CustomerID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDReturnOne(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        SELECT id, name, email, active, created_at, updated_at
        FROM customers
        WHERE id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(customerTest.CustomerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "active", "created_at", "updated_at"}).
			AddRow(customerTest.CustomerID, customerTest.Name, customerTest.Email, customerTest.Active, customerTest.CreatedAt, customerTest.UpdatedAt))

	customerResult, err := repo.FindByID(ctx, customerTest.CustomerID)
	assert.NoError(t, err)
	assert.Equal(t, customerTest.CustomerID, customerResult.CustomerID)
	assert.Equal(t, customerTest.Email, customerResult.Email)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDReturnNone(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        SELECT id, name, email, active, created_at, updated_at
        FROM customers
        WHERE id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(customerTest.CustomerID).WillReturnError(pgx.ErrNoRows)

	customerResult, err := repo.FindByID(ctx, customerTest.CustomerID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, customerResult)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAllThenGetAllCustomer(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        SELECT id, name, email, active, created_at, updated_at
        FROM customers WHERE active = $1 ORDER BY id ASC`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "active", "created_at", "updated_at"}).
			AddRow(customerTest.CustomerID, customerTest.Name, customerTest.Email, customerTest.Active, customerTest.CreatedAt, customerTest.UpdatedAt))

	customerResult, err := repo.FindAll(ctx, true)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(customerResult))
	assert.Equal(t, customerTest.CustomerID, customerResult[0].CustomerID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetActiveStatusWhenCustomerMissing(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `UPDATE customers SET active = $1, updated_at = NOW() WHERE id = $2`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(false, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetActiveStatus(ctx, 99, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
