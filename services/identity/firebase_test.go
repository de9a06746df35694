package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrack/models"
	"mediatrack/services/identity"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *identity.FirebaseProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := resty.New().SetBaseURL(server.URL)
	return identity.NewFirebaseProvider(client, "test-key")
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func TestSignInReturnsSession(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])
		assert.Equal(t, true, body["returnSecureToken"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":     "uid-1",
			"email":       "user@example.com",
			"displayName": "User One",
			"idToken":     "issued-token",
		})
	})

	sess, err := provider.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", sess.UID)
	assert.Equal(t, "User One", sess.DisplayName)
	assert.Equal(t, "issued-token", sess.IDToken)
}

func TestSignInBadCredentials(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_PASSWORD")
	})

	_, err := provider.SignIn(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrReauthenticationRequired)
	assert.Contains(t, err.Error(), "INVALID_PASSWORD")
}

func TestStaleCredentialMapsToReauthentication(t *testing.T) {
	cases := []string{
		"CREDENTIAL_TOO_OLD_LOGIN_AGAIN",
		"TOKEN_EXPIRED",
		"CREDENTIAL_TOO_OLD_LOGIN_AGAIN : Please sign in again.",
	}
	for _, message := range cases {
		t.Run(message, func(t *testing.T) {
			provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, http.StatusBadRequest, message)
			})
			err := provider.DeleteIdentity(context.Background(), "stale-token")
			require.ErrorIs(t, err, models.ErrReauthenticationRequired)
		})
	}
}

func TestUpdatePasswordReturnsReissuedToken(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:update", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"idToken": "reissued"})
	})

	token, err := provider.UpdatePassword(context.Background(), "fresh", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "reissued", token)
}

func TestLinkedProviders(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:lookup", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{
				"providerUserInfo": []map[string]any{
					{"providerId": "password", "email": "user@example.com"},
					{"providerId": "google.com", "displayName": "User One"},
				},
			}},
		})
	})

	infos, err := provider.LinkedProviders(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "password", infos[0].ProviderID)
	assert.Equal(t, "google.com", infos[1].ProviderID)
}

func TestUnlinkSendsDeleteProvider(t *testing.T) {
	var got map[string]any
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	require.NoError(t, provider.Unlink(context.Background(), "token", "google.com"))
	assert.Equal(t, []any{"google.com"}, got["deleteProvider"])
}
