package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lending-engine/internal/event"
	"lending-engine/internal/pkg/apperrors"
	"lending-engine/internal/pkg/currency"
)

type CardService interface {
	CreateCard(ctx context.Context, customerID int64, cardType string) (*DebitCard, error)

	ListCards(ctx context.Context, customerID int64) ([]*DebitCard, error)

	GetCard(ctx context.Context, customerID, cardID int64) (*DebitCard, error)

	SetCardActive(ctx context.Context, customerID, cardID int64, active bool) (*DebitCard, error)

	DeleteCard(ctx context.Context, customerID, cardID int64) error

	CreateTransaction(ctx context.Context, customerID, cardID, amount int64, currencyCode string) (*Transaction, error)

	ListTransactions(ctx context.Context, customerID, cardID int64) ([]*Transaction, error)

	GetTransaction(ctx context.Context, customerID, transactionID int64) (*Transaction, error)
}

type cardService struct {
	repo      CardRepository
	publisher event.Publisher
	logger    *slog.Logger
}

func NewCardService(repo CardRepository, pub event.Publisher, logger *slog.Logger) CardService {
	if repo == nil {
		panic("card repository cannot be nil")
	}
	return &cardService{
		repo:      repo,
		publisher: pub,
		logger:    logger.With("component", "CardService"),
	}
}

func (s *cardService) CreateCard(ctx context.Context, customerID int64, cardType string) (*DebitCard, error) {
	cardType = strings.ToUpper(strings.TrimSpace(cardType))
	if cardType == "" {
		return nil, apperrors.NewValidationError("type", "card type cannot be empty")
	}

	c := NewDebitCard(customerID, cardType)
	if err := s.repo.SaveCard(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save debit card", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("failed to save debit card: %w", err)
	}

	if s.publisher != nil {
		evt := event.CardCreatedEvent{CardID: c.ID, CustomerID: customerID, Type: cardType, Timestamp: time.Now()}
		if err := s.publisher.PublishCardCreated(ctx, evt); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish card created event", "cardID", c.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Debit card created", "cardID", c.ID, "customerID", customerID)
	return c, nil
}

func (s *cardService) ListCards(ctx context.Context, customerID int64) ([]*DebitCard, error) {
	cards, err := s.repo.FindCardsByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list debit cards", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("failed to list debit cards: %w", err)
	}
	return cards, nil
}

// GetCard loads a card and enforces that it belongs to the requesting
// customer. Another customer's card is a forbidden access, not a missing one.
func (s *cardService) GetCard(ctx context.Context, customerID, cardID int64) (*DebitCard, error) {
	c, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.CustomerID != customerID {
		s.logger.WarnContext(ctx, "Customer attempted to access another customer's card",
			"customerID", customerID, "cardID", cardID)
		return nil, fmt.Errorf("%w: card %d does not belong to customer %d", apperrors.ErrForbidden, cardID, customerID)
	}
	return c, nil
}

func (s *cardService) SetCardActive(ctx context.Context, customerID, cardID int64, active bool) (*DebitCard, error) {
	c, err := s.GetCard(ctx, customerID, cardID)
	if err != nil {
		return nil, err
	}

	if active {
		c.Enable()
	} else {
		c.Disable()
	}

	if err := s.repo.SaveCard(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update debit card", "cardID", cardID, "error", err)
		return nil, fmt.Errorf("failed to update debit card: %w", err)
	}
	s.logger.InfoContext(ctx, "Debit card status changed", "cardID", cardID, "active", active)
	return c, nil
}

func (s *cardService) DeleteCard(ctx context.Context, customerID, cardID int64) error {
	if _, err := s.GetCard(ctx, customerID, cardID); err != nil {
		return err
	}

	count, err := s.repo.CountTransactions(ctx, cardID)
	if err != nil {
		return fmt.Errorf("failed to count card transactions: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: card %d has transactions and cannot be deleted", apperrors.ErrConflict, cardID)
	}

	if err := s.repo.DeleteCard(ctx, cardID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete debit card", "cardID", cardID, "error", err)
		return fmt.Errorf("failed to delete debit card: %w", err)
	}
	s.logger.InfoContext(ctx, "Debit card deleted", "cardID", cardID)
	return nil
}

func (s *cardService) CreateTransaction(ctx context.Context, customerID, cardID, amount int64, currencyCode string) (*Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount", "transaction amount must be greater than zero")
	}
	if !currency.IsValidCode(currencyCode) {
		return nil, apperrors.NewValidationError("currencyCode", "must be a 3-letter ISO-4217 code")
	}

	c, err := s.GetCard(ctx, customerID, cardID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("%w: card %d is disabled", apperrors.ErrConflict, cardID)
	}

	tx := &Transaction{
		DebitCardID:  cardID,
		Amount:       amount,
		CurrencyCode: currencyCode,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save card transaction", "cardID", cardID, "error", err)
		return nil, fmt.Errorf("failed to save card transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Card transaction recorded", "cardID", cardID, "transactionID", tx.ID)
	return tx, nil
}

func (s *cardService) ListTransactions(ctx context.Context, customerID, cardID int64) ([]*Transaction, error) {
	if _, err := s.GetCard(ctx, customerID, cardID); err != nil {
		return nil, err
	}

	transactions, err := s.repo.FindTransactionsByCard(ctx, cardID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list card transactions", "cardID", cardID, "error", err)
		return nil, fmt.Errorf("failed to list card transactions: %w", err)
	}
	return transactions, nil
}

func (s *cardService) GetTransaction(ctx context.Context, customerID, transactionID int64) (*Transaction, error) {
	tx, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCard(ctx, customerID, tx.DebitCardID); err != nil {
		return nil, err
	}
	return tx, nil
}
