package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"mediatrack/models"
)

const identityBaseURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider talks to the Firebase Identity Toolkit REST API.
type FirebaseProvider struct {
	http   *resty.Client
	apiKey string
}

var _ Provider = (*FirebaseProvider)(nil)

// NewFirebaseProvider wraps the resty client. The client's base URL is left
// alone when already set, which is how tests point it at a local server.
func NewFirebaseProvider(client *resty.Client, apiKey string) *FirebaseProvider {
	if client.BaseURL == "" {
		client.SetBaseURL(identityBaseURL)
	}
	return &FirebaseProvider{
		http:   client,
		apiKey: apiKey,
	}
}

type apiError struct {
	Detail struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("identity provider error %d: %s", e.Detail.Code, e.Detail.Message)
}

// mapError converts Identity Toolkit error codes that demand a fresh
// credential proof into the shared sentinel. Everything else surfaces as-is.
func mapError(e *apiError) error {
	code := e.Detail.Message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	switch code {
	case "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", "TOKEN_EXPIRED", "REQUIRES_RECENT_LOGIN":
		return fmt.Errorf("%w: %s", models.ErrReauthenticationRequired, e.Detail.Message)
	}
	return e
}

func (p *FirebaseProvider) post(ctx context.Context, endpoint string, body, result any) error {
	apiErr := &apiError{}
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post(endpoint)
	if err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("identity request failed")
		return err
	}
	if resp.IsError() {
		return mapError(apiErr)
	}
	return nil
}

type sessionResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	result := &sessionResponse{}
	err := p.post(ctx, "/accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, result)
	if err != nil {
		return nil, err
	}
	return &Session{
		UID:         result.LocalID,
		Email:       result.Email,
		DisplayName: result.DisplayName,
		IDToken:     result.IDToken,
	}, nil
}

func (p *FirebaseProvider) UpdateDisplayName(ctx context.Context, idToken, displayName string) error {
	return p.post(ctx, "/accounts:update", map[string]any{
		"idToken":     idToken,
		"displayName": displayName,
	}, &sessionResponse{})
}

func (p *FirebaseProvider) UpdatePassword(ctx context.Context, idToken, newPassword string) (string, error) {
	result := &sessionResponse{}
	err := p.post(ctx, "/accounts:update", map[string]any{
		"idToken":           idToken,
		"password":          newPassword,
		"returnSecureToken": true,
	}, result)
	if err != nil {
		return "", err
	}
	return result.IDToken, nil
}

func (p *FirebaseProvider) DeleteIdentity(ctx context.Context, idToken string) error {
	return p.post(ctx, "/accounts:delete", map[string]any{
		"idToken": idToken,
	}, &struct{}{})
}

type lookupResponse struct {
	Users []struct {
		ProviderUserInfo []struct {
			ProviderID  string `json:"providerId"`
			DisplayName string `json:"displayName"`
			Email       string `json:"email"`
		} `json:"providerUserInfo"`
	} `json:"users"`
}

func (p *FirebaseProvider) LinkedProviders(ctx context.Context, idToken string) ([]ProviderInfo, error) {
	result := &lookupResponse{}
	err := p.post(ctx, "/accounts:lookup", map[string]any{
		"idToken": idToken,
	}, result)
	if err != nil {
		return nil, err
	}
	if len(result.Users) == 0 {
		return nil, nil
	}
	infos := make([]ProviderInfo, 0, len(result.Users[0].ProviderUserInfo))
	for _, info := range result.Users[0].ProviderUserInfo {
		infos = append(infos, ProviderInfo{
			ProviderID:  info.ProviderID,
			DisplayName: info.DisplayName,
			Email:       info.Email,
		})
	}
	return infos, nil
}

func (p *FirebaseProvider) Link(ctx context.Context, idToken, providerID, providerToken string) error {
	return p.post(ctx, "/accounts:signInWithIdp", map[string]any{
		"idToken":             idToken,
		"requestUri":          "http://localhost",
		"postBody":            fmt.Sprintf("id_token=%s&providerId=%s", providerToken, providerID),
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &sessionResponse{})
}

func (p *FirebaseProvider) Unlink(ctx context.Context, idToken, providerID string) error {
	return p.post(ctx, "/accounts:update", map[string]any{
		"idToken":        idToken,
		"deleteProvider": []string{providerID},
	}, &sessionResponse{})
}
