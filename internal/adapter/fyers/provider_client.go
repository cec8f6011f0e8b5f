package fyers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
)

// Exchanger encapsulates the outbound code-for-token call to Fyers.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, checksum string) (*oauth.TokenRecord, error)
}

// HTTPExchanger is the default HTTP implementation against the Fyers v3
// validate-authcode endpoint.
type HTTPExchanger struct {
	tokenURL   string
	httpClient *http.Client
}

var _ Exchanger = (*HTTPExchanger)(nil)

// NewHTTPExchanger constructs the default Exchanger. A nil client gets a
// bounded timeout: the provider is external and can hang.
func NewHTTPExchanger(tokenURL string, client *http.Client) *HTTPExchanger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPExchanger{tokenURL: tokenURL, httpClient: client}
}

// ComputeChecksum derives the appIdHash Fyers requires in place of a raw
// client-secret transmission: hex SHA-256 of "{client_id}:{client_secret}".
func ComputeChecksum(clientID, clientSecret string) string {
	sum := sha256.Sum256([]byte(clientID + ":" + clientSecret))
	return hex.EncodeToString(sum[:])
}

// BuildAuthURL constructs the browser redirect target for the authorization
// endpoint. The composite state is "{state_id}:{secret}".
func BuildAuthURL(authURL, clientID, redirectURI, compositeState string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}
	params := u.Query()
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("state", compositeState)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// tokenResponse is the subset of the Fyers response the flow interprets; the
// full body is retained raw on the record for diagnostics.
type tokenResponse struct {
	Status      string `json:"s"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// ExchangeCode performs the one-shot code exchange. It is never retried:
// authorization codes are single-use and provider-invalidated on first
// presentation, so a caller wanting resilience must restart the login flow.
func (c *HTTPExchanger) ExchangeCode(ctx context.Context, code, checksum string) (*oauth.TokenRecord, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type": "authorization_code",
		"appIdHash":  checksum,
		"code":       code,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &oauth.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &oauth.NetworkError{Err: err}
	}

	var parsed tokenResponse
	var raw map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		_ = json.Unmarshal(body, &raw)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "ok" {
		message := parsed.Message
		if message == "" {
			message = "authentication failed, please try again"
		}
		return nil, &oauth.RejectedError{StatusCode: resp.StatusCode, Message: message}
	}
	if parsed.AccessToken == "" {
		return nil, oauth.ErrMalformedResponse
	}

	return &oauth.TokenRecord{
		AccessToken: parsed.AccessToken,
		Raw:         raw,
		RetrievedAt: time.Now(),
	}, nil
}
