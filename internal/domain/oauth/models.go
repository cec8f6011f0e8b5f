package oauth

import "time"

// PendingState is one in-flight login attempt awaiting its callback. The
// secret is compared against the value the provider echoes back; the entry
// is removed on first use regardless of the comparison outcome.
type PendingState struct {
	Secret    string
	CreatedAt time.Time
}

// TokenRecord wraps one successful code exchange. Records are immutable:
// every exchange produces a new record under a new ID, nothing is ever
// overwritten.
type TokenRecord struct {
	ID          string         `json:"id"`
	AccessToken string         `json:"access_token"`
	Raw         map[string]any `json:"raw"`
	RetrievedAt time.Time      `json:"retrieved_at"`
}
