package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/patientlink/web/internal/model"
)

const (
	rolesClaimSuffix       = "roles"
	permissionsClaimSuffix = "permissions"
)

// Resolver derives roles and permissions from the namespaced claims of an
// identity-provider session. Derivation is pure; results are memoized per
// session identity so a token refresh always produces a fresh derivation.
type Resolver struct {
	namespace string
	memo      *gocache.Cache
}

func NewResolver(namespace string, memoTTL time.Duration) *Resolver {
	return &Resolver{
		namespace: namespace,
		memo:      gocache.New(memoTTL, 2*memoTTL),
	}
}

// Resolve computes the RoleContext for a session. Unauthenticated or
// claim-less sessions resolve to empty sets, never an error.
func (r *Resolver) Resolve(s model.Session) model.RoleContext {
	if !s.Authenticated || s.Claims == nil {
		return model.RoleContext{}
	}

	if s.ID != "" {
		if cached, ok := r.memo.Get(s.ID); ok {
			return cached.(model.RoleContext)
		}
	}

	roles := claimStrings(s.Claims, r.namespace+rolesClaimSuffix)
	permissions := claimStrings(s.Claims, r.namespace+permissionsClaimSuffix)

	rc := model.RoleContext{
		Roles:         roles,
		Permissions:   permissions,
		Authenticated: true,
	}
	rc.IsDoctor = rc.HasRole(model.RoleDoctor)
	rc.IsPatient = rc.HasRole(model.RolePatient)

	if s.ID != "" {
		r.memo.SetDefault(s.ID, rc)
	}
	return rc
}

// DecodeToken turns a compact identity token into a Session. The signature
// is not verified here; that is the identity provider's responsibility.
func (r *Resolver) DecodeToken(raw string) (model.Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return model.Session{}, fmt.Errorf("failed to decode identity token: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return model.Session{}, fmt.Errorf("identity token has no subject")
	}

	sum := sha256.Sum256([]byte(raw))
	return model.Session{
		ID:            hex.EncodeToString(sum[:]),
		Authenticated: true,
		Subject:       subject,
		Claims:        claims,
	}, nil
}

// claimStrings reads a list-of-strings claim, failing closed on any shape
// mismatch: a missing key or a non-list value yields nil, non-string
// elements are dropped.
func claimStrings(claims map[string]interface{}, key string) []string {
	raw, ok := claims[key]
	if !ok {
		return nil
	}

	var out []string
	switch vals := raw.(type) {
	case []string:
		out = append(out, vals...)
	case []interface{}:
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	default:
		return nil
	}
	return out
}
