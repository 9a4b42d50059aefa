package dashboard

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/patientlink/web/internal/dashboard/doctor"
	"github.com/patientlink/web/internal/dashboard/patient"
)

// Machines holds the per-session view-state machines. A machine mounts on
// first access for a session and is closed when its session entry expires
// or is dropped, which cancels any in-flight fetches. View state is never
// persisted across sessions.
type Machines struct {
	doctors    *gocache.Cache
	patients   *gocache.Cache
	newDoctor  func(token, doctorID string) *doctor.Machine
	newPatient func(token, subject string) *patient.Machine
}

func NewMachines(ttl time.Duration, newDoctor func(token, doctorID string) *doctor.Machine, newPatient func(token, subject string) *patient.Machine) *Machines {
	doctors := gocache.New(ttl, ttl)
	doctors.OnEvicted(func(_ string, v interface{}) {
		v.(*doctor.Machine).Close()
	})

	patients := gocache.New(ttl, ttl)
	patients.OnEvicted(func(_ string, v interface{}) {
		v.(*patient.Machine).Close()
	})

	return &Machines{
		doctors:    doctors,
		patients:   patients,
		newDoctor:  newDoctor,
		newPatient: newPatient,
	}
}

// Doctor returns the session's doctor machine, mounting one on first use.
func (m *Machines) Doctor(sessionKey, token, doctorID string) *doctor.Machine {
	if cached, ok := m.doctors.Get(sessionKey); ok {
		return cached.(*doctor.Machine)
	}
	machine := m.newDoctor(token, doctorID)
	m.doctors.SetDefault(sessionKey, machine)
	return machine
}

// Patient returns the session's patient machine, mounting one on first use.
func (m *Machines) Patient(sessionKey, token, subject string) *patient.Machine {
	if cached, ok := m.patients.Get(sessionKey); ok {
		return cached.(*patient.Machine)
	}
	machine := m.newPatient(token, subject)
	m.patients.SetDefault(sessionKey, machine)
	return machine
}

// Drop closes and removes the session's machines, e.g. on logout.
func (m *Machines) Drop(sessionKey string) {
	m.doctors.Delete(sessionKey)
	m.patients.Delete(sessionKey)
}
