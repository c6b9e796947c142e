package card

import "context"

type CardRepository interface {
	SaveCard(ctx context.Context, c *DebitCard) error

	FindCardByID(ctx context.Context, cardID int64) (*DebitCard, error)

	FindCardsByCustomer(ctx context.Context, customerID int64) ([]*DebitCard, error)

	DeleteCard(ctx context.Context, cardID int64) error

	CountTransactions(ctx context.Context, cardID int64) (int, error)

	SaveTransaction(ctx context.Context, tx *Transaction) error

	FindTransactionByID(ctx context.Context, transactionID int64) (*Transaction, error)

	FindTransactionsByCard(ctx context.Context, cardID int64) ([]*Transaction, error)
}
