package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
	authsvc "github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/service/auth"
)

// AuthHandler renders the login flow and token pages.
type AuthHandler struct {
	OAuth  authsvc.OAuthService
	logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(oauth authsvc.OAuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{OAuth: oauth, logger: logger}
}

type basePage struct {
	Title   string
	Error   string
	Success string
	Year    int
}

func newBasePage(title string) basePage {
	return basePage{Title: title, Year: time.Now().Year()}
}

type indexPage struct {
	basePage
}

type errorPage struct {
	basePage
	Heading   string
	Message   string
	Detail    string
	BackURL   string
	BackLabel string
}

type tokenSuccessPage struct {
	basePage
	AccessToken string
	DetailsJSON string
	RecordID    string
	Persisted   bool
}

type tokenItem struct {
	ID      string
	Created string
	Preview string
}

type tokensPage struct {
	basePage
	Tokens []tokenItem
}

type tokenDetailPage struct {
	basePage
	RecordID    string
	AccessToken string
	DetailsJSON string
}

// Index renders the homepage with the login button.
func (h *AuthHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", indexPage{newBasePage("Home")})
}

// Login redirects the browser to the Fyers authorization page with a fresh
// state pair embedded.
func (h *AuthHandler) Login(c *gin.Context) {
	out, err := h.OAuth.StartLogin(c.Request.Context())
	if err != nil {
		h.log().Error("failed to start login", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, errorPage{
			basePage:  withAlert("Error", "Failed to generate login URL"),
			Heading:   "Error",
			Message:   "An error occurred while redirecting to Fyers login.",
			BackURL:   "/",
			BackLabel: "Back to Home",
		})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, out.AuthorizationURL)
}

// Callback handles the provider redirect: state validation, code exchange,
// and the success or error page. State failures of any kind render one
// indistinguishable security message; the logs carry the real cause.
func (h *AuthHandler) Callback(c *gin.Context) {
	input := authsvc.CallbackInput{
		Code:             c.Query("code"),
		AuthCode:         c.Query("auth_code"),
		State:            c.Query("state"),
		ErrorCode:        c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}

	result, err := h.OAuth.HandleCallback(c.Request.Context(), input)
	if err != nil {
		h.renderCallbackError(c, err)
		return
	}

	details := "{}"
	if data, err := json.MarshalIndent(result.Record.Raw, "", "    "); err == nil {
		details = string(data)
	}

	page := tokenSuccessPage{
		basePage:    newBasePage("Authentication Successful"),
		AccessToken: result.Record.AccessToken,
		DetailsJSON: details,
		RecordID:    result.Record.ID,
		Persisted:   result.Persisted,
	}
	page.Success = "Authentication successful!"
	if !result.Persisted {
		page.Error = "Failed to save the token to disk; it is only displayed on this page."
	}
	c.HTML(http.StatusOK, "token_success", page)
}

func (h *AuthHandler) renderCallbackError(c *gin.Context, err error) {
	var provErr *oauth.ProviderError
	var rejErr *oauth.RejectedError
	var netErr *oauth.NetworkError

	switch {
	case errors.As(err, &provErr):
		h.renderError(c, http.StatusBadRequest, errorPage{
			basePage:  withAlert("Authentication Error", "Fyers error: "+provErr.Code),
			Heading:   "Authentication Error",
			Message:   "Fyers returned an error:",
			Detail:    provErr.Code + ": " + provErr.Description,
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	case errors.Is(err, oauth.ErrStateNotFound),
		errors.Is(err, oauth.ErrStateMismatch),
		errors.Is(err, oauth.ErrMalformedState):
		// Deliberately one message for all three: nothing here should help
		// an attacker probe the validation logic.
		h.renderError(c, http.StatusBadRequest, errorPage{
			basePage:  withAlert("Security Error", "Security validation failed"),
			Heading:   "Security Error",
			Message:   "Invalid state parameter. This could be a CSRF attempt.",
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	case errors.Is(err, oauth.ErrMissingCode):
		h.renderError(c, http.StatusBadRequest, errorPage{
			basePage:  withAlert("Error", "Missing authorization code"),
			Heading:   "Error",
			Message:   "The callback did not include an authorization code.",
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	case errors.As(err, &rejErr):
		h.renderError(c, http.StatusBadGateway, errorPage{
			basePage:  withAlert("API Error", "API error: "+rejErr.Message),
			Heading:   "API Error",
			Message:   "Failed to retrieve access token:",
			Detail:    rejErr.Message,
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	case errors.Is(err, oauth.ErrMalformedResponse):
		h.renderError(c, http.StatusBadGateway, errorPage{
			basePage:  withAlert("API Error", "Failed to generate access token"),
			Heading:   "API Error",
			Message:   "Authentication succeeded but no access token was returned.",
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	case errors.As(err, &netErr):
		h.renderError(c, http.StatusBadGateway, errorPage{
			basePage:  withAlert("Error", "Failed to generate access token"),
			Heading:   "Error",
			Message:   "Could not reach Fyers to exchange the authorization code.",
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	default:
		h.log().Error("unexpected callback failure", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, errorPage{
			basePage:  withAlert("Error", "Failed to generate access token"),
			Heading:   "Error",
			Message:   "An error occurred while processing your authentication.",
			BackURL:   "/",
			BackLabel: "Try Again",
		})
	}
}

// ListTokens renders the saved-token listing, newest first.
func (h *AuthHandler) ListTokens(c *gin.Context) {
	records, err := h.OAuth.ListTokens(c.Request.Context())
	if err != nil {
		h.log().Error("failed to list tokens", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, errorPage{
			basePage:  withAlert("Error", "Failed to list tokens"),
			Heading:   "Error",
			Message:   "An error occurred while listing tokens.",
			BackURL:   "/",
			BackLabel: "Back to Home",
		})
		return
	}

	page := tokensPage{basePage: newBasePage("Saved Tokens")}
	for _, record := range records {
		created := "Unknown"
		if !record.RetrievedAt.IsZero() {
			created = record.RetrievedAt.Format("2006-01-02 15:04:05")
		}
		page.Tokens = append(page.Tokens, tokenItem{
			ID:      record.ID,
			Created: created,
			Preview: tokenPreview(record.AccessToken),
		})
	}
	c.HTML(http.StatusOK, "tokens", page)
}

// ViewToken renders the full detail page for one record.
func (h *AuthHandler) ViewToken(c *gin.Context) {
	id := c.Param("id")
	record, err := h.OAuth.GetToken(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, oauth.ErrTokenNotFound) {
			h.renderError(c, http.StatusNotFound, errorPage{
				basePage:  withAlert("Token Not Found", "Token not found"),
				Heading:   "Token Not Found",
				Message:   "The requested token does not exist.",
				BackURL:   "/tokens",
				BackLabel: "View All Tokens",
			})
			return
		}
		h.log().Error("failed to load token", zap.String("record_id", id), zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, errorPage{
			basePage:  withAlert("Error", "Failed to view token details"),
			Heading:   "Error",
			Message:   "An error occurred while viewing token details.",
			BackURL:   "/tokens",
			BackLabel: "Back to Token List",
		})
		return
	}

	details := "{}"
	if data, err := json.MarshalIndent(record.Raw, "", "    "); err == nil {
		details = string(data)
	}
	c.HTML(http.StatusOK, "token_detail", tokenDetailPage{
		basePage:    newBasePage("Token: " + record.ID),
		RecordID:    record.ID,
		AccessToken: record.AccessToken,
		DetailsJSON: details,
	})
}

// NotFound renders the 404 page for unrouted paths.
func (h *AuthHandler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, errorPage{
		basePage:  withAlert("Page Not Found", "Page not found"),
		Heading:   "Page Not Found",
		Message:   "The requested page does not exist.",
		BackURL:   "/",
		BackLabel: "Back to Home",
	})
}

// Recovered renders the 500 page for panicking handlers.
func (h *AuthHandler) Recovered(c *gin.Context, err any) {
	h.log().Error("panic recovered", zap.Any("panic", err))
	h.renderError(c, http.StatusInternalServerError, errorPage{
		basePage:  withAlert("Server Error", "Server error"),
		Heading:   "Server Error",
		Message:   "An unexpected error occurred on the server.",
		BackURL:   "/",
		BackLabel: "Back to Home",
	})
}

func (h *AuthHandler) renderError(c *gin.Context, status int, page errorPage) {
	c.HTML(status, "error", page)
}

func (h *AuthHandler) log() *zap.Logger {
	if h != nil && h.logger != nil {
		return h.logger
	}
	return zap.L()
}

func withAlert(title, alert string) basePage {
	page := newBasePage(title)
	page.Error = alert
	return page
}

func tokenPreview(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}
