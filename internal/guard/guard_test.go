package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patientlink/web/internal/model"
)

func doctorContext() model.RoleContext {
	return model.RoleContext{
		Roles:         []string{"doctor"},
		Authenticated: true,
		IsDoctor:      true,
	}
}

func TestCheckUnauthenticatedRedirectsHome(t *testing.T) {
	for _, role := range []string{"", "doctor", "patient", "admin"} {
		d := Check(model.RoleContext{}, role)
		assert.False(t, d.Allowed)
		assert.Equal(t, HomePath, d.Redirect, "requiredRole=%q", role)
	}
}

func TestCheckMissingRoleRedirectsToDashboard(t *testing.T) {
	d := Check(doctorContext(), "patient")

	assert.False(t, d.Allowed)
	assert.Equal(t, DashboardPath, d.Redirect)
}

func TestCheckMatchingRoleAllows(t *testing.T) {
	d := Check(doctorContext(), "doctor")

	assert.True(t, d.Allowed)
	assert.Empty(t, d.Redirect)
}

func TestCheckNoRequiredRoleAllowsAnyAuthenticated(t *testing.T) {
	d := Check(model.RoleContext{Authenticated: true}, "")

	assert.True(t, d.Allowed)
}

func TestCheckIsIdempotent(t *testing.T) {
	rc := doctorContext()
	first := Check(rc, "doctor")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Check(rc, "doctor"))
	}
}

func TestFanoutDoctor(t *testing.T) {
	path, ok := Fanout(doctorContext())

	assert.True(t, ok)
	assert.Equal(t, DoctorDashboardPath, path)
}

func TestFanoutPatient(t *testing.T) {
	path, ok := Fanout(model.RoleContext{
		Roles:         []string{"patient"},
		Authenticated: true,
		IsPatient:     true,
	})

	assert.True(t, ok)
	assert.Equal(t, PatientDashboardPath, path)
}

func TestFanoutDoctorWinsOverPatient(t *testing.T) {
	path, ok := Fanout(model.RoleContext{
		Roles:         []string{"doctor", "patient"},
		Authenticated: true,
		IsDoctor:      true,
		IsPatient:     true,
	})

	assert.True(t, ok)
	assert.Equal(t, DoctorDashboardPath, path)
}

func TestFanoutNoRoleStays(t *testing.T) {
	_, ok := Fanout(model.RoleContext{Authenticated: true})
	assert.False(t, ok)
}

func TestFanoutUnauthenticated(t *testing.T) {
	_, ok := Fanout(model.RoleContext{})
	assert.False(t, ok)
}
