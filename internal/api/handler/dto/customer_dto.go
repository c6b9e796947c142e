package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lending-engine/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("email must contain an @")
	}
	return nil
}

type CustomerResponse struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID: strconv.FormatInt(cust.CustomerID, 10),
		Name:       cust.Name,
		Email:      cust.Email,
		Active:     cust.Active,
		CreatedAt:  cust.CreatedAt,
		UpdatedAt:  cust.UpdatedAt,
	}
}
