package fyers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
)

func TestComputeChecksum(t *testing.T) {
	first := ComputeChecksum("app-id", "secret")
	second := ComputeChecksum("app-id", "secret")
	require.Equal(t, first, second)
	require.Len(t, first, 64)

	require.NotEqual(t, first, ComputeChecksum("app-id2", "secret"))
	require.NotEqual(t, first, ComputeChecksum("app-id", "secret2"))
}

func TestBuildAuthURL(t *testing.T) {
	raw, err := BuildAuthURL("https://api-t1.fyers.in/api/v3/generate-authcode", "app-id", "http://127.0.0.1:5000/fyers/callback", "abc:xyz")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	query := parsed.Query()
	require.Equal(t, "app-id", query.Get("client_id"))
	require.Equal(t, "http://127.0.0.1:5000/fyers/callback", query.Get("redirect_uri"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "abc:xyz", query.Get("state"))
}

func TestHTTPExchanger_Success(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"ok","code":200,"access_token":"TOK1","refresh_token":"REF1"}`))
	}))
	defer srv.Close()

	exchanger := NewHTTPExchanger(srv.URL, srv.Client())
	record, err := exchanger.ExchangeCode(context.Background(), "AUTH1", "checksum123")
	require.NoError(t, err)
	require.Equal(t, "TOK1", record.AccessToken)
	require.Equal(t, "ok", record.Raw["s"])
	require.Equal(t, "REF1", record.Raw["refresh_token"])
	require.False(t, record.RetrievedAt.IsZero())

	require.Equal(t, "authorization_code", gotBody["grant_type"])
	require.Equal(t, "checksum123", gotBody["appIdHash"])
	require.Equal(t, "AUTH1", gotBody["code"])
}

func TestHTTPExchanger_RejectedWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"error","message":"invalid code"}`))
	}))
	defer srv.Close()

	exchanger := NewHTTPExchanger(srv.URL, srv.Client())
	_, err := exchanger.ExchangeCode(context.Background(), "AUTH1", "checksum")

	var rejErr *oauth.RejectedError
	require.ErrorAs(t, err, &rejErr)
	require.Equal(t, http.StatusOK, rejErr.StatusCode)
	require.Equal(t, "invalid code", rejErr.Message)
}

func TestHTTPExchanger_RejectedStatusFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"s":"error"}`))
	}))
	defer srv.Close()

	exchanger := NewHTTPExchanger(srv.URL, srv.Client())
	_, err := exchanger.ExchangeCode(context.Background(), "AUTH1", "checksum")

	var rejErr *oauth.RejectedError
	require.ErrorAs(t, err, &rejErr)
	require.Equal(t, http.StatusUnauthorized, rejErr.StatusCode)
	require.NotEmpty(t, rejErr.Message)
}

func TestHTTPExchanger_MalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"ok"}`))
	}))
	defer srv.Close()

	exchanger := NewHTTPExchanger(srv.URL, srv.Client())
	_, err := exchanger.ExchangeCode(context.Background(), "AUTH1", "checksum")
	require.ErrorIs(t, err, oauth.ErrMalformedResponse)
}

func TestHTTPExchanger_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	exchanger := NewHTTPExchanger(srv.URL, nil)
	_, err := exchanger.ExchangeCode(context.Background(), "AUTH1", "checksum")

	var netErr *oauth.NetworkError
	require.ErrorAs(t, err, &netErr)
}
