package auth

import "time"

// UserIdentity adapts a User into the Identity interface.
type UserIdentity struct {
	user *User
}

var _ Identity = UserIdentity{}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Username returns the user's username.
func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.Username
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role.
func (u UserIdentity) Role() UserRole {
	if u.user == nil {
		return ""
	}
	return u.user.Role
}

func (u UserIdentity) Active() bool {
	return u.user != nil && u.user.IsActive
}

func (u UserIdentity) Verified() bool {
	return u.user != nil && u.user.EmailValidated
}

func (u UserIdentity) LastLoginAt() *time.Time {
	if u.user == nil {
		return nil
	}
	return u.user.LoggedInAt
}

// IdentityView is a detached, credential free snapshot of an Identity.
type IdentityView struct {
	IdentityID    string     `json:"id"`
	IdentityName  string     `json:"username"`
	IdentityEmail string     `json:"email"`
	IdentityRole  UserRole   `json:"role"`
	IsActive      bool       `json:"active"`
	IsVerified    bool       `json:"verified"`
	LastLogin     *time.Time `json:"last_login_at,omitempty"`
}

var _ Identity = (*IdentityView)(nil)

// NewIdentityView copies the public attributes of identity.
func NewIdentityView(identity Identity) *IdentityView {
	if identity == nil {
		return nil
	}

	var lastLogin *time.Time
	if at := identity.LastLoginAt(); at != nil {
		t := *at
		lastLogin = &t
	}

	return &IdentityView{
		IdentityID:    identity.ID(),
		IdentityName:  identity.Username(),
		IdentityEmail: identity.Email(),
		IdentityRole:  identity.Role(),
		IsActive:      identity.Active(),
		IsVerified:    identity.Verified(),
		LastLogin:     lastLogin,
	}
}

func (v *IdentityView) ID() string              { return v.IdentityID }
func (v *IdentityView) Username() string        { return v.IdentityName }
func (v *IdentityView) Email() string           { return v.IdentityEmail }
func (v *IdentityView) Role() UserRole          { return v.IdentityRole }
func (v *IdentityView) Active() bool            { return v.IsActive }
func (v *IdentityView) Verified() bool          { return v.IsVerified }
func (v *IdentityView) LastLoginAt() *time.Time { return v.LastLogin }
