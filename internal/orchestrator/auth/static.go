package auth

import (
	"os"
	"strings"
)

// StaticAuthenticator satisfies handler.Authenticator against a handful of
// principals configured by environment variable, standing in for the
// external identity system spec §6 puts out of scope — the same
// minimal-stub posture as the teacher's own UserLogin handler, just made to
// actually authenticate rather than silently accept anything.
type StaticAuthenticator struct {
	principals map[string]staticPrincipal
}

type staticPrincipal struct {
	kind     string
	password string
}

// NewStaticAuthenticator parses FLEETOPS_STATIC_PRINCIPALS, formatted as
// comma-separated "id:kind:password" triples.
func NewStaticAuthenticator() *StaticAuthenticator {
	a := &StaticAuthenticator{principals: map[string]staticPrincipal{}}
	raw := os.Getenv("FLEETOPS_STATIC_PRINCIPALS")
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		a.principals[parts[0]] = staticPrincipal{kind: parts[1], password: parts[2]}
	}
	return a
}

// Authenticate implements handler.Authenticator.
func (a *StaticAuthenticator) Authenticate(principalID, password string) (string, bool, error) {
	p, ok := a.principals[principalID]
	if !ok || p.password != password {
		return "", false, nil
	}
	return p.kind, true, nil
}
