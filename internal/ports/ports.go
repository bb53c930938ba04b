package ports

import (
	"context"

	"darma/internal/chains"
	"darma/internal/domain"
)

// TransactionSource fetches an address's normalized transaction history.
// Implementations degrade to an empty slice rather than failing; the only
// errors surfaced are context cancellations.
type TransactionSource interface {
	FetchTransactionHistory(ctx context.Context, address string, chain chains.Config) ([]domain.Transaction, error)
}

// Pinner persists JSON documents to content-addressed storage.
type Pinner interface {
	Enabled() bool
	PinJSON(ctx context.Context, name string, content any) (domain.PinReceipt, error)
}
