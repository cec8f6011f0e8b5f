package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/adapter/fyers"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/config"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/repository"
)

// OAuthService orchestrates the login redirect, callback validation, code
// exchange, and token persistence.
type OAuthService interface {
	StartLogin(ctx context.Context) (*LoginRedirect, error)
	HandleCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error)
	ListTokens(ctx context.Context) ([]oauth.TokenRecord, error)
	GetToken(ctx context.Context, id string) (*oauth.TokenRecord, error)
}

// LoginRedirect carries the provider authorization URL for one login attempt.
type LoginRedirect struct {
	AuthorizationURL string
	StateID          string
}

// CallbackInput captures the callback query parameters. AuthCode and Code
// are both accepted from the provider, AuthCode taking precedence.
type CallbackInput struct {
	Code             string
	AuthCode         string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// CallbackResult is a successful exchange. Persistence is best-effort: when
// the write fails the record is still returned, with PersistErr set, since
// losing the token display would be worse than losing the file.
type CallbackResult struct {
	Record     *oauth.TokenRecord
	Persisted  bool
	PersistErr error
}

type oauthService struct {
	states    repository.StateStore
	exchanger fyers.Exchanger
	tokens    repository.TokenRepository
	cfg       config.Config
	checksum  string
	logger    *zap.Logger
}

// NewOAuthService wires the service implementation. The appIdHash checksum
// is derived once from the configured credentials.
func NewOAuthService(
	states repository.StateStore,
	exchanger fyers.Exchanger,
	tokens repository.TokenRepository,
	cfg config.Config,
	logger *zap.Logger,
) OAuthService {
	return &oauthService{
		states:    states,
		exchanger: exchanger,
		tokens:    tokens,
		cfg:       cfg,
		checksum:  fyers.ComputeChecksum(cfg.AppID, cfg.SecretKey),
		logger:    logger,
	}
}

// StartLogin issues a fresh state pair and builds the authorization URL the
// browser is redirected to.
func (s *oauthService) StartLogin(ctx context.Context) (*LoginRedirect, error) {
	stateID, secret, err := s.states.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue state: %w", err)
	}

	authURL, err := fyers.BuildAuthURL(s.cfg.AuthURL, s.cfg.AppID, s.cfg.RedirectURI, stateID+":"+secret)
	if err != nil {
		return nil, fmt.Errorf("build auth url: %w", err)
	}

	s.log().Info("generated authorization url", zap.String("state_id", stateID))
	return &LoginRedirect{AuthorizationURL: authURL, StateID: stateID}, nil
}

// HandleCallback validates the echoed state, selects the authorization code,
// exchanges it, and persists the resulting record. State validation failures
// short-circuit before any exchange call.
func (s *oauthService) HandleCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	if strings.TrimSpace(in.ErrorCode) != "" {
		s.log().Error("provider reported authentication error",
			zap.String("error", in.ErrorCode),
			zap.String("description", in.ErrorDescription))
		return nil, &oauth.ProviderError{Code: in.ErrorCode, Description: in.ErrorDescription}
	}

	stateID, secret, err := splitState(in.State)
	if err != nil {
		s.log().Warn("malformed callback state")
		return nil, err
	}
	if err := s.states.Consume(ctx, stateID, secret); err != nil {
		s.log().Warn("state validation failed", zap.String("state_id", stateID), zap.Error(err))
		return nil, err
	}

	// auth_code is the provider's newer field name; code is kept as a
	// permanently supported fallback.
	code := strings.TrimSpace(in.AuthCode)
	if code == "" {
		code = strings.TrimSpace(in.Code)
	}
	if code == "" {
		return nil, oauth.ErrMissingCode
	}

	record, err := s.exchanger.ExchangeCode(ctx, code, s.checksum)
	if err != nil {
		s.log().Error("code exchange failed", zap.String("state_id", stateID), zap.Error(err))
		return nil, err
	}

	result := &CallbackResult{Record: record, Persisted: true}
	if err := s.tokens.Save(ctx, record); err != nil {
		s.log().Error("failed to persist token record", zap.Error(err))
		result.Persisted = false
		result.PersistErr = err
	} else {
		s.log().Info("access token saved", zap.String("record_id", record.ID))
	}
	return result, nil
}

// ListTokens returns the saved records, newest first.
func (s *oauthService) ListTokens(ctx context.Context) ([]oauth.TokenRecord, error) {
	records, err := s.tokens.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return records, nil
}

// GetToken loads one saved record by its key.
func (s *oauthService) GetToken(ctx context.Context, id string) (*oauth.TokenRecord, error) {
	record, err := s.tokens.Get(ctx, id)
	if err != nil {
		if errors.Is(err, oauth.ErrTokenNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return record, nil
}

func (s *oauthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

// splitState parses the composite "{state_id}:{secret}" value the provider
// echoes back.
func splitState(state string) (string, string, error) {
	trimmed := strings.TrimSpace(state)
	if trimmed == "" {
		return "", "", oauth.ErrMalformedState
	}
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", oauth.ErrMalformedState
	}
	return parts[0], parts[1], nil
}
