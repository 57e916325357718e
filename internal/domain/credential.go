package domain

import "time"

// Credential is the persisted authentication record: the triple set together
// at login and cleared together at logout, expiry or denial. The token is
// opaque; its presence denotes that a login occurred. Partial presence of
// the triple is treated as absence (fail closed).
type Credential struct {
	Token    string
	Role     Role
	IssuedAt time.Time
}

// Age returns how long ago the credential was issued.
func (c Credential) Age(now time.Time) time.Duration {
	return now.Sub(c.IssuedAt)
}

// Complete reports whether all three fields are set and well-formed.
func (c Credential) Complete() bool {
	return c.Token != "" && c.Role != "" && !c.IssuedAt.IsZero()
}
