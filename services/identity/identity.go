package identity

import "context"

// Session is the proof of an authenticated identity. IDToken accompanies
// every identity-destructive call; the provider decides whether it is still
// fresh enough.
type Session struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

// ProviderInfo describes one federated credential linked to an identity.
type ProviderInfo struct {
	ProviderID  string
	DisplayName string
	Email       string
}

// Provider is the authentication backend. Operations that Firebase considers
// sensitive return models.ErrReauthenticationRequired when the session's last
// sign-in is too old; callers should re-verify with SignIn and retry.
type Provider interface {
	// SignIn verifies an email/password credential and returns a fresh session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	UpdateDisplayName(ctx context.Context, idToken, displayName string) error

	// UpdatePassword changes the password and returns the re-issued id token.
	UpdatePassword(ctx context.Context, idToken, newPassword string) (string, error)

	// DeleteIdentity permanently removes the authentication identity.
	DeleteIdentity(ctx context.Context, idToken string) error

	// LinkedProviders enumerates the federated credentials on the identity.
	LinkedProviders(ctx context.Context, idToken string) ([]ProviderInfo, error)

	// Link attaches a federated credential, identified by the provider id and
	// the OAuth id token issued by that provider.
	Link(ctx context.Context, idToken, providerID, providerToken string) error

	// Unlink detaches a federated credential.
	Unlink(ctx context.Context, idToken, providerID string) error
}
