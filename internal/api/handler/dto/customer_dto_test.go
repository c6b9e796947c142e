package dto

import (
	"lending-engine/internal/domain/customer"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCustomerResponse(t *testing.T) {
	mockCustomer := &customer.Customer{
		CustomerID: 42,
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Active:     true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	response := NewCustomerResponse(mockCustomer)

	assert.Equal(t, "42", response.CustomerID)
	assert.Equal(t, "Ada Lovelace", response.Name)
	assert.Equal(t, "ada@example.com", response.Email)
	assert.True(t, response.Active)
	assert.Equal(t, mockCustomer.CreatedAt, response.CreatedAt)
	assert.Equal(t, mockCustomer.UpdatedAt, response.UpdatedAt)
}

func TestCreateCustomerRequestValidate(t *testing.T) {
	valid := CreateCustomerRequest{Name: "Ada Lovelace", Email: "ada@example.com"}
	assert.NoError(t, valid.Validate())

	missingName := CreateCustomerRequest{Email: "ada@example.com"}
	assert.Error(t, missingName.Validate())

	badEmail := CreateCustomerRequest{Name: "Ada Lovelace", Email: "not-an-email"}
	assert.Error(t, badEmail.Validate())
}
