package customer

import (
	"context"
)

type CustomerRepository interface {
	Save(ctx context.Context, cust *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Customer, error)

	SetActiveStatus(ctx context.Context, customerID int64, isActive bool) error
}
