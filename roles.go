package auth

import "strings"

// UserRole is the user's role. The set of roles is closed, use ParseRole
// to turn stored strings into a UserRole.
type UserRole string

const (
	// RoleAdministrator can author and edit any resource
	RoleAdministrator UserRole = "admin"
	// RoleContributor can author resources and edit the ones they own
	RoleContributor UserRole = "writer"
	// RoleStandard is a regular member (i.e. read only)
	RoleStandard UserRole = "user"
)

// RoleHolder is the minimum an authorization check needs to know.
type RoleHolder interface {
	ID() string
	Role() UserRole
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleContributor, RoleStandard:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles, most privileged first
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdministrator,
		RoleContributor,
		RoleStandard,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// HasRole reports whether the identity holds any of the given roles.
// Unknown roles never match.
func HasRole(identity RoleHolder, roles ...UserRole) bool {
	if identity == nil {
		return false
	}

	current := identity.Role()
	if !current.IsValid() {
		return false
	}

	for _, role := range roles {
		if role == current {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the identity is an administrator.
func IsAdministrator(identity RoleHolder) bool {
	return HasRole(identity, RoleAdministrator)
}

// CanAuthor reports whether the identity may create content.
func CanAuthor(identity RoleHolder) bool {
	return HasRole(identity, RoleAdministrator, RoleContributor)
}

// CanEdit reports whether the identity may edit a resource owned by
// ownerID. Administrators may edit anything, contributors only their own
// resources, everybody else nothing.
func CanEdit(identity RoleHolder, ownerID string) bool {
	if identity == nil {
		return false
	}

	switch identity.Role() {
	case RoleAdministrator:
		return true
	case RoleContributor:
		return ownerID != "" && identity.ID() == ownerID
	case RoleStandard:
		return false
	default:
		return false
	}
}
