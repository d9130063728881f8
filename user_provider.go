package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// UserProvider adapts a user store into an IdentityProvider
type UserProvider struct {
	store UserTracker
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{store: store}
}

func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (CredentialIdentity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err)
	}

	if err := validateUser(user); err != nil {
		return nil, err
	}

	return credentialIdentity{UserIdentity: UserIdentity{user: user}}, nil
}

func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}

	if err := validateUser(user); err != nil {
		return nil, err
	}

	return UserIdentity{user: user}, nil
}

func (u *UserProvider) TrackSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrIdentityNotFound
	}
	return u.store.TrackSuccessfulLogin(ctx, uid, at)
}

func lookupError(err error) error {
	if IsIdentityNotFound(err) {
		return ErrIdentityNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
}

func validateUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}
	if !user.Role.IsValid() {
		return ErrInvalidRole.Clone().
			WithMetadata(map[string]any{"role": string(user.Role), "user_id": user.ID.String()})
	}
	return nil
}

type credentialIdentity struct {
	UserIdentity
}

func (c credentialIdentity) PasswordHash() string {
	if c.user == nil {
		return ""
	}
	return c.user.PasswordHash
}
