package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientlink/web/internal/model"
)

const testNamespace = "https://patientlink.example.com/"

func newResolver() *Resolver {
	return NewResolver(testNamespace, time.Minute)
}

func TestResolveUnauthenticated(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{Authenticated: false})

	assert.False(t, rc.Authenticated)
	assert.Empty(t, rc.Roles)
	assert.Empty(t, rc.Permissions)
	assert.False(t, rc.IsDoctor)
	assert.False(t, rc.IsPatient)
}

func TestResolveRolesAndPermissions(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{
		Authenticated: true,
		Subject:       "auth0|d1",
		Claims: map[string]interface{}{
			testNamespace + "roles":       []interface{}{"doctor"},
			testNamespace + "permissions": []interface{}{"read:patients", "write:patients"},
		},
	})

	assert.True(t, rc.Authenticated)
	assert.Equal(t, []string{"doctor"}, rc.Roles)
	assert.Equal(t, []string{"read:patients", "write:patients"}, rc.Permissions)
	assert.True(t, rc.IsDoctor)
	assert.False(t, rc.IsPatient)
}

func TestResolveBothRoles(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{
		Authenticated: true,
		Claims: map[string]interface{}{
			testNamespace + "roles": []interface{}{"doctor", "patient"},
		},
	})

	// No mutual exclusion at this layer.
	assert.True(t, rc.IsDoctor)
	assert.True(t, rc.IsPatient)
}

func TestResolveMissingNamespacedKey(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{
		Authenticated: true,
		Claims: map[string]interface{}{
			"roles": []interface{}{"doctor"}, // un-namespaced, must be ignored
		},
	})

	assert.Empty(t, rc.Roles)
	assert.False(t, rc.IsDoctor)
}

func TestResolveShapeMismatchFailsClosed(t *testing.T) {
	r := newResolver()

	for name, claim := range map[string]interface{}{
		"string":  "doctor",
		"number":  42,
		"mapping": map[string]interface{}{"role": "doctor"},
	} {
		rc := r.Resolve(model.Session{
			Authenticated: true,
			Claims: map[string]interface{}{
				testNamespace + "roles": claim,
			},
		})
		assert.Empty(t, rc.Roles, "claim shape %s must fail closed", name)
	}
}

func TestResolveDropsNonStringElements(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{
		Authenticated: true,
		Claims: map[string]interface{}{
			testNamespace + "roles": []interface{}{"patient", 7, nil},
		},
	})

	assert.Equal(t, []string{"patient"}, rc.Roles)
}

func TestResolveIsPure(t *testing.T) {
	r := newResolver()
	sess := model.Session{
		ID:            "tok-1",
		Authenticated: true,
		Claims: map[string]interface{}{
			testNamespace + "roles": []interface{}{"patient"},
		},
	}

	first := r.Resolve(sess)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Resolve(sess))
	}
}

func TestResolveRecomputesForNewToken(t *testing.T) {
	r := newResolver()

	rc := r.Resolve(model.Session{
		ID:            "tok-1",
		Authenticated: true,
		Claims: map[string]interface{}{
			testNamespace + "roles": []interface{}{"patient"},
		},
	})
	assert.True(t, rc.IsPatient)

	// A refreshed token carries a new ID; the memo must not leak the old
	// derivation onto it.
	rc = r.Resolve(model.Session{
		ID:            "tok-2",
		Authenticated: true,
		Claims: map[string]interface{}{
			testNamespace + "roles": []interface{}{"doctor"},
		},
	})
	assert.True(t, rc.IsDoctor)
	assert.False(t, rc.IsPatient)
}

func TestDecodeToken(t *testing.T) {
	r := newResolver()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                    "auth0|d1",
		testNamespace + "roles":  []string{"doctor"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	sess, err := r.DecodeToken(raw)
	require.NoError(t, err)

	assert.True(t, sess.Authenticated)
	assert.Equal(t, "auth0|d1", sess.Subject)
	assert.NotEmpty(t, sess.ID)

	rc := r.Resolve(sess)
	assert.True(t, rc.IsDoctor)
}

func TestDecodeTokenGarbage(t *testing.T) {
	r := newResolver()

	_, err := r.DecodeToken("not.a.token")
	assert.Error(t, err)
}

func TestDecodeTokenMissingSubject(t *testing.T) {
	r := newResolver()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "d1@example.com",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = r.DecodeToken(raw)
	assert.Error(t, err)
}
