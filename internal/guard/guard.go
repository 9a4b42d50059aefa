package guard

import (
	"github.com/patientlink/web/internal/model"
)

// Redirect targets. The landing route performs its own role fan-out.
const (
	HomePath             = "/"
	DashboardPath        = "/dashboard"
	DoctorDashboardPath  = "/dashboard/doctor"
	PatientDashboardPath = "/dashboard/patient"
)

// Decision is the outcome of guarding a navigation target.
type Decision struct {
	Allowed  bool
	Redirect string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Check gates a navigation target against the current role context.
// Unauthenticated sessions go back to the home page; authenticated sessions
// missing the required role go to the dashboard landing. Pure and
// idempotent: it is evaluated on every request so a refreshed token takes
// effect immediately.
func Check(rc model.RoleContext, requiredRole string) Decision {
	if !rc.Authenticated {
		return RedirectTo(HomePath)
	}
	if requiredRole != "" && !rc.HasRole(requiredRole) {
		return RedirectTo(DashboardPath)
	}
	return Allow()
}

// Fanout resolves the dashboard landing for an authenticated session.
// Doctor wins over patient when a subject holds both roles; a subject with
// neither role stays on the landing page (ok == false).
func Fanout(rc model.RoleContext) (path string, ok bool) {
	if !rc.Authenticated {
		return "", false
	}
	switch {
	case rc.IsDoctor:
		return DoctorDashboardPath, true
	case rc.IsPatient:
		return PatientDashboardPath, true
	}
	return "", false
}
