package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/auth"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/metadata"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

// Metadata keys used by the client.
const (
	KeyAPICredential        = "api_key"
	KeyAPICredentialCleared = "api_key_cleared"
	KeySessionToken         = "session_token"
	KeyLegacyWords          = "legacy_words"
)

// SettingsService manages persisted user settings.
//
// The AI credential resolves in this order: a stored key; nothing if the
// user explicitly cleared it; otherwise the configured default.
type SettingsService interface {
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error

	// SignIn stores the session token and returns the owner id it carries.
	SignIn(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context) error
	OwnerID(ctx context.Context) (string, error)
}

type settingsService struct {
	db         *sql.DB
	defaultKey string
	jwtSecret  []byte
}

func NewSettingsService(db *sql.DB, defaultKey string, jwtSecret []byte) SettingsService {
	return &settingsService{db: db, defaultKey: defaultKey, jwtSecret: jwtSecret}
}

func (s *settingsService) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

func (s *settingsService) APIKey(ctx context.Context) (string, error) {
	repo := s.repo()

	stored, err := repo.Get(ctx, KeyAPICredential)
	if err != nil {
		return "", err
	}
	if len(stored) > 0 {
		return string(stored), nil
	}

	cleared, err := repo.Exists(ctx, KeyAPICredentialCleared)
	if err != nil {
		return "", err
	}
	if cleared || s.defaultKey == "" {
		return "", ErrNoCredential
	}
	return s.defaultKey, nil
}

func (s *settingsService) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.ClearAPIKey(ctx)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyAPICredential, []byte(key)); err != nil {
			return err
		}
		return repo.Delete(ctx, KeyAPICredentialCleared)
	})
}

func (s *settingsService) ClearAPIKey(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, KeyAPICredential); err != nil {
			return err
		}
		return repo.Set(ctx, KeyAPICredentialCleared, []byte("1"))
	})
}

func (s *settingsService) SignIn(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	owner, err := auth.OwnerFromToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}
	if err := s.repo().Set(ctx, KeySessionToken, []byte(token)); err != nil {
		return "", err
	}
	return owner, nil
}

func (s *settingsService) SignOut(ctx context.Context) error {
	return s.repo().Delete(ctx, KeySessionToken)
}

func (s *settingsService) OwnerID(ctx context.Context) (string, error) {
	token, err := s.repo().Get(ctx, KeySessionToken)
	if err != nil {
		return "", err
	}
	if len(token) == 0 {
		return "", ErrNotSignedIn
	}
	return auth.OwnerFromToken(string(token), s.jwtSecret)
}
