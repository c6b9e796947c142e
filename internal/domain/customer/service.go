package customer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lending-engine/internal/pkg/apperrors"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, name, email string) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	ListCustomers(ctx context.Context, activeOnly bool) ([]*Customer, error)

	DeactivateCustomer(ctx context.Context, customerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	return &customerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "CustomerService")),
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "customer name cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "a valid email address is required")
	}

	cust := NewCustomer(name, email)
	if err := s.repo.Save(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save new customer", "error", err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Customer created", "customerID", cust.CustomerID)
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	if customerID <= 0 {
		return nil, apperrors.NewValidationError("customerID", "must be a positive identifier")
	}

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context, activeOnly bool) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customers", "error", err)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) DeactivateCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return apperrors.NewValidationError("customerID", "must be a positive identifier")
	}
	if err := s.repo.SetActiveStatus(ctx, customerID, false); err != nil {
		s.logger.ErrorContext(ctx, "Failed to deactivate customer", "customerID", customerID, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Customer deactivated", "customerID", customerID)
	return nil
}
