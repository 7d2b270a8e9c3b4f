package token

// Scope restricts a token to one purpose. The string values are the wire form of the "scope" claim.
type Scope string

const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
	ScopeEmail   Scope = "email_token"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeAccess, ScopeRefresh, ScopeEmail:
		return true
	}
	return false
}

func (s Scope) String() string { return string(s) }
