package model

// Session is the authenticated identity handed over by the external
// identity provider. It is immutable from this system's perspective; its
// lifecycle is bound to the provider's token lifecycle.
type Session struct {
	// ID identifies the underlying token, not the subject. Role derivation
	// is memoized on it; a refreshed token gets a new ID and a fresh
	// derivation.
	ID            string
	Authenticated bool
	Subject       string
	Claims        map[string]interface{}
}

// RoleContext is the derived view of a Session consumed by the route guard
// and the dashboards. It is recomputed whenever the session changes, never
// stored.
type RoleContext struct {
	Roles         []string
	Permissions   []string
	Authenticated bool
	IsDoctor      bool
	IsPatient     bool
}

// HasRole reports membership in the derived role set.
func (rc RoleContext) HasRole(role string) bool {
	for _, r := range rc.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports membership in the derived permission set.
func (rc RoleContext) HasPermission(permission string) bool {
	for _, p := range rc.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)
