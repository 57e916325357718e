package session

import (
	"context"
	"strconv"
	"time"

	"github.com/firewatch/incident-service/internal/domain"
)

// Persisted field names shared by every store backend. All three are read
// and written as a unit; absence of any one is treated as absence of all.
const (
	FieldToken     = "authToken"
	FieldRole      = "userType"
	FieldLoginTime = "loginTime"
)

// Store is the credential store contract. It is always injected explicitly
// so guards can be exercised against an in-memory fake.
//
// Read returns present=false unless all three fields are set and
// well-formed. Clear is idempotent and safe to call concurrently; a clear
// that removed a token is signalled to sibling browsing contexts through
// the revocation channel, never back to the clearing context itself.
type Store interface {
	Read(ctx context.Context) (domain.Credential, bool, error)
	Write(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// encodeLoginTime renders the issue timestamp in its persisted form,
// string-encoded integer milliseconds since epoch.
func encodeLoginTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// decodeCredential assembles a Credential from raw persisted fields,
// failing closed on anything partial or malformed.
func decodeCredential(fields map[string]string) (domain.Credential, bool) {
	token := fields[FieldToken]
	role := fields[FieldRole]
	loginTime := fields[FieldLoginTime]
	if token == "" || role == "" || loginTime == "" {
		return domain.Credential{}, false
	}

	millis, err := strconv.ParseInt(loginTime, 10, 64)
	if err != nil {
		return domain.Credential{}, false
	}

	return domain.Credential{
		Token:    token,
		Role:     domain.Role(role),
		IssuedAt: time.UnixMilli(millis),
	}, true
}
