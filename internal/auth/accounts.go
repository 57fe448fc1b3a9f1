package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/database"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
	"github.com/google/uuid"
)

// AccountStore resolves provider identities to local accounts. Accounts are
// persisted so repositories keep their owner across restarts.
type AccountStore struct {
	db database.DB
}

// NewAccountStore wraps the shared database handle.
func NewAccountStore(db database.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Resolve finds or creates the account for (provider, providerUserID) and
// refreshes its username, email and access token from the latest sign-in.
func (s *AccountStore) Resolve(ctx context.Context, provider string, id *Identity, accessToken string) (*models.Account, error) {
	var acct models.Account
	err := s.db.Get(ctx, &acct,
		`SELECT id, provider, provider_user_id, username, email, access_token, created_at
		 FROM accounts WHERE provider = ? AND provider_user_id = ?`,
		provider, id.ProviderUserID)

	switch {
	case err == nil:
		acct.Username = id.Username
		acct.Email = id.Email
		acct.AccessToken = accessToken
		if err := s.db.Update(ctx, "accounts", &acct, "id = ?", acct.ID); err != nil {
			return nil, fmt.Errorf("refreshing account: %w", err)
		}
		return &acct, nil

	case errors.Is(err, sql.ErrNoRows):
		acct = models.Account{
			ID:             uuid.New().String(),
			Provider:       provider,
			ProviderUserID: id.ProviderUserID,
			Username:       id.Username,
			Email:          id.Email,
			AccessToken:    accessToken,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.db.Insert(ctx, "accounts", &acct); err != nil {
			return nil, fmt.Errorf("creating account: %w", err)
		}
		return &acct, nil

	default:
		return nil, fmt.Errorf("looking up account: %w", err)
	}
}

// Get returns one account by id.
func (s *AccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var acct models.Account
	err := s.db.Get(ctx, &acct,
		`SELECT id, provider, provider_user_id, username, email, access_token, created_at
		 FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}
