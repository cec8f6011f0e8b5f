package repository

import (
	"context"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
)

// StateStore issues and consumes single-use anti-CSRF login states.
type StateStore interface {
	// Issue registers a new pending login and returns its public identifier
	// and private secret.
	Issue(ctx context.Context) (stateID, secret string, err error)
	// Consume validates and removes a pending login in one step. The entry
	// is removed even when the secret does not match, so a given state can
	// never be probed twice.
	Consume(ctx context.Context, stateID, secret string) error
}

// TokenRepository persists token records from successful exchanges.
type TokenRepository interface {
	Save(ctx context.Context, record *oauth.TokenRecord) error
	List(ctx context.Context) ([]oauth.TokenRecord, error)
	Get(ctx context.Context, id string) (*oauth.TokenRecord, error)
}
