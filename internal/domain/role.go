package domain

// Role identifies the account kind carried by a persisted credential.
type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RoleStation Role = "STATION"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is one of the known account kinds.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleStation, RoleAdmin:
		return true
	}
	return false
}
