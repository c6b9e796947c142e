package customer

import "time"

type Customer struct {
	CustomerID int64     `json:"customerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewCustomer(name, email string) *Customer {
	now := time.Now()
	return &Customer{
		Name:      name,
		Email:     email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Customer) Deactivate() {
	if c.Active {
		c.Active = false
		c.UpdatedAt = time.Now()
	}
}

func (c *Customer) Reactivate() {
	if !c.Active {
		c.Active = true
		c.UpdatedAt = time.Now()
	}
}
