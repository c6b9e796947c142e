package event

import "time"

type LoanCreatedEvent struct {
	LoanID       int64     `json:"loanId"`
	CustomerID   int64     `json:"customerId"`
	Amount       int64     `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	Terms        int       `json:"terms"`
	ProcessedAt  time.Time `json:"processedAt"`
	Timestamp    time.Time `json:"timestamp"`
}

type RepaymentReceivedEvent struct {
	LoanID       int64     `json:"loanId"`
	Reference    string    `json:"reference"`
	Amount       int64     `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	ReceivedAt   time.Time `json:"receivedAt"`
	LoanStatus   string    `json:"loanStatus"`
	Outstanding  int64     `json:"outstandingAmount"`
	Timestamp    time.Time `json:"timestamp"`
}

type LoanRepaidEvent struct {
	LoanID     int64     `json:"loanId"`
	CustomerID int64     `json:"customerId"`
	Timestamp  time.Time `json:"timestamp"`
}

type LoanOverdueEvent struct {
	LoanID      int64     `json:"loanId"`
	TermNumber  int       `json:"termNumber"`
	DueDate     time.Time `json:"dueDate"`
	Outstanding int64     `json:"outstandingAmount"`
	Timestamp   time.Time `json:"timestamp"`
}

type CardCreatedEvent struct {
	CardID     int64     `json:"cardId"`
	CustomerID int64     `json:"customerId"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}
