package account

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"mediatrack/clients/storage"
	"mediatrack/models"
	"mediatrack/services/identity"
)

// Service orchestrates the profile document lifecycle around authentication:
// merge-upsert on every sign-in, the profile-management operations, and the
// ordered delete-everything cascade on account removal.
type Service interface {
	// SyncProfile mirrors the identity into the users collection with merge
	// semantics. Idempotent across repeated sign-ins.
	SyncProfile(ctx context.Context, sess identity.Session) error

	Profile(ctx context.Context, uid string) (*models.UserProfile, error)

	UpdateDisplayName(ctx context.Context, sess identity.Session, displayName string) error

	// ChangePassword re-verifies the current password when one is supplied,
	// then updates it. Returns the re-issued id token.
	ChangePassword(ctx context.Context, sess identity.Session, currentPassword, newPassword string) (string, error)

	LinkedProviders(ctx context.Context, sess identity.Session) ([]identity.ProviderInfo, error)
	LinkProvider(ctx context.Context, sess identity.Session, providerID, providerToken string) error
	UnlinkProvider(ctx context.Context, sess identity.Session, providerID string) error

	// DeleteAccount runs the removal cascade: profile document, then every
	// owned media record one by one, then the authentication identity. A
	// failure aborts the remaining steps and reports how far the cascade got;
	// it is never auto-resumed.
	DeleteAccount(ctx context.Context, sess identity.Session) error
}

const (
	usersCollection = "users"
	mediaCollection = "media"
)

type service struct {
	db       storage.DocumentStore
	identity identity.Provider
}

var _ Service = (*service)(nil)

func NewService(db storage.DocumentStore, provider identity.Provider) Service {
	return &service{
		db:       db,
		identity: provider,
	}
}

func (s *service) SyncProfile(ctx context.Context, sess identity.Session) error {
	if sess.UID == "" {
		return &models.ValidationError{Field: "uid", Reason: "required"}
	}
	err := s.db.Set(ctx, usersCollection, sess.UID, map[string]any{
		"uid":         sess.UID,
		"email":       sess.Email,
		"displayName": sess.DisplayName,
	})
	if err != nil {
		return &models.WriteError{Op: "sync user profile", Err: err}
	}
	return nil
}

func (s *service) Profile(ctx context.Context, uid string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	if err := s.db.Get(ctx, usersCollection, uid, profile); err != nil {
		return nil, &models.FetchError{Op: "load user profile", Err: err}
	}
	return profile, nil
}

func (s *service) UpdateDisplayName(ctx context.Context, sess identity.Session, displayName string) error {
	if err := s.identity.UpdateDisplayName(ctx, sess.IDToken, displayName); err != nil {
		return err
	}
	// Keep the mirrored profile in step instead of waiting for the next
	// sign-in to merge it.
	err := s.db.Set(ctx, usersCollection, sess.UID, map[string]any{
		"displayName": displayName,
	})
	if err != nil {
		return &models.WriteError{Op: "sync display name", Err: err}
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, sess identity.Session, currentPassword, newPassword string) (string, error) {
	if newPassword == "" {
		return "", &models.ValidationError{Field: "newPassword", Reason: "required"}
	}
	token := sess.IDToken
	if currentPassword != "" {
		fresh, err := s.identity.SignIn(ctx, sess.Email, currentPassword)
		if err != nil {
			return "", err
		}
		token = fresh.IDToken
	}
	return s.identity.UpdatePassword(ctx, token, newPassword)
}

func (s *service) LinkedProviders(ctx context.Context, sess identity.Session) ([]identity.ProviderInfo, error) {
	return s.identity.LinkedProviders(ctx, sess.IDToken)
}

func (s *service) LinkProvider(ctx context.Context, sess identity.Session, providerID, providerToken string) error {
	return s.identity.Link(ctx, sess.IDToken, providerID, providerToken)
}

func (s *service) UnlinkProvider(ctx context.Context, sess identity.Session, providerID string) error {
	return s.identity.Unlink(ctx, sess.IDToken, providerID)
}

func (s *service) DeleteAccount(ctx context.Context, sess identity.Session) error {
	log.Info().Str("uid", sess.UID).Msg("starting account removal cascade")

	// Profile first. The identity stays intact until the very end so the user
	// can re-authenticate and retry if a later step fails.
	if err := s.db.Delete(ctx, usersCollection, sess.UID); err != nil {
		return &models.CascadeError{Step: "profile", Err: err}
	}

	var records []models.MediaRecord
	if err := s.db.Query(ctx, mediaCollection, "ownerId", sess.UID, &records); err != nil {
		return &models.CascadeError{Step: "media query", Err: err}
	}
	for i, record := range records {
		if err := s.db.Delete(ctx, mediaCollection, record.ID); err != nil {
			return &models.CascadeError{Step: "media", Deleted: i, Total: len(records), Err: err}
		}
	}

	if err := s.identity.DeleteIdentity(ctx, sess.IDToken); err != nil {
		if errors.Is(err, models.ErrReauthenticationRequired) {
			// Data is gone but the identity survives; the caller prompts for
			// credentials and retries, which re-runs two idempotent deletes.
			return err
		}
		return &models.CascadeError{Step: "identity", Deleted: len(records), Total: len(records), Err: err}
	}

	log.Info().Str("uid", sess.UID).Int("mediaDeleted", len(records)).Msg("account removed")
	return nil
}
