package models

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleReferee UserRole = "referee"
	RoleMember  UserRole = "member"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleReferee, RoleMember:
		return true
	}
	return false
}
