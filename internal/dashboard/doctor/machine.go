package doctor

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/model"
	"github.com/patientlink/web/internal/verify"
)

// View is the doctor dashboard's current in-page view. Detail and edit
// variants carry their patient by construction, so neither can be rendered
// without a selection.
type View interface {
	viewName() string
}

type Overview struct{}
type Patients struct{}
type AddPatient struct{}
type PatientDetails struct{ Patient model.VerifiedPatient }
type EditPatient struct{ Patient model.VerifiedPatient }

func (Overview) viewName() string       { return "overview" }
func (Patients) viewName() string       { return "patients" }
func (AddPatient) viewName() string     { return "addPatient" }
func (PatientDetails) viewName() string { return "patientDetails" }
func (EditPatient) viewName() string    { return "editPatient" }

// Name exposes the view tag for rendering.
func Name(v View) string { return v.viewName() }

// Machine is the doctor dashboard view-state machine. One machine lives per
// session; transitions are user-triggered and synchronous, list fetches are
// fire-and-forget goroutines that report back under the lock. Stale
// responses are discarded by generation, so an overlapping re-fetch cannot
// clobber a newer result.
type Machine struct {
	mu sync.Mutex
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	registry gateway.Registry
	verifier *verify.Service
	log      zerolog.Logger

	token    string
	doctorID string

	view     View
	patients []model.VerifiedPatient
	listGen  uint64
	loading  bool
}

// NewMachine mounts the dashboard: the view resets to Overview and, once
// the doctor identity is known, the patient list is fetched exactly once
// before any user interaction.
func NewMachine(registry gateway.Registry, verifier *verify.Service, token, doctorID string, log zerolog.Logger) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		ctx:      ctx,
		cancel:   cancel,
		registry: registry,
		verifier: verifier,
		log:      log.With().Str("component", "doctor_dashboard").Str("doctor", doctorID).Logger(),
		token:    token,
		doctorID: doctorID,
		view:     Overview{},
	}

	if doctorID != "" {
		m.mu.Lock()
		m.fetchPatientsLocked()
		m.mu.Unlock()
	}
	return m
}

// Close releases the machine; in-flight fetches are cancelled and their
// results dropped.
func (m *Machine) Close() {
	m.cancel()
}

// View returns the current view variant.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Patients returns a snapshot of the fetched patient list.
func (m *Machine) Patients() []model.VerifiedPatient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.VerifiedPatient, len(m.patients))
	copy(out, m.patients)
	return out
}

// Loading reports whether a list fetch is in flight.
func (m *Machine) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Machine) ShowOverview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = Overview{}
}

// ShowPatients enters the patient list. Every entry re-fetches.
func (m *Machine) ShowPatients() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showPatientsLocked()
}

func (m *Machine) showPatientsLocked() {
	m.view = Patients{}
	m.fetchPatientsLocked()
}

func (m *Machine) ShowAddPatient() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = AddPatient{}
}

// SelectPatient moves to the detail view for a patient from the fetched
// list. An unknown identity key leaves the view unchanged: the detail view
// is unrenderable without a selection.
func (m *Machine) SelectPatient(auth0ID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	patient, ok := m.findLocked(auth0ID)
	if !ok {
		return false
	}
	m.view = PatientDetails{Patient: patient}
	return true
}

// StartEdit moves to the edit view for a patient from the fetched list.
func (m *Machine) StartEdit(auth0ID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	patient, ok := m.findLocked(auth0ID)
	if !ok {
		return false
	}
	m.view = EditPatient{Patient: patient}
	return true
}

func (m *Machine) findLocked(auth0ID string) (model.VerifiedPatient, bool) {
	for _, p := range m.patients {
		if p.Auth0UserID == auth0ID {
			return p, true
		}
	}
	return model.VerifiedPatient{}, false
}

// SubmitNewPatient runs the verification flow and, on success, assigns the
// verified patient and returns to the list with a fresh fetch. Any failure
// leaves the view unchanged so the form can surface the error inline;
// add-patient is never called when verification rejects.
func (m *Machine) SubmitNewPatient(ctx context.Context, req model.PatientVerificationRequest) (*model.VerifiedPatient, error) {
	verified, err := m.verifier.VerifyPatient(ctx, m.token, req)
	if err != nil {
		return nil, err
	}

	added, err := m.registry.AddPatient(ctx, m.token, verified.Auth0UserID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.showPatientsLocked()
	m.mu.Unlock()

	m.log.Info().Str("patient", added.Auth0UserID).Msg("patient assigned")
	return added, nil
}

// SaveEdit persists the edit form and returns to the list. A failed save
// keeps the edit view so the form state survives.
func (m *Machine) SaveEdit(ctx context.Context, req model.UpdatePatientRequest) error {
	m.mu.Lock()
	editing, ok := m.view.(EditPatient)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if _, err := m.registry.UpdatePatient(ctx, m.token, editing.Patient.Auth0UserID, req); err != nil {
		return err
	}

	m.mu.Lock()
	m.showPatientsLocked()
	m.mu.Unlock()
	return nil
}

// CancelEdit abandons the edit without any backend mutation.
func (m *Machine) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.view.(EditPatient); !ok {
		return
	}
	m.showPatientsLocked()
}

// fetchPatientsLocked kicks off a list fetch. The caller holds the lock.
// A response is applied only when its generation is still current; a fetch
// failure degrades to an empty list and a log line, never a view change.
func (m *Machine) fetchPatientsLocked() {
	m.listGen++
	gen := m.listGen
	m.loading = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		patients, err := m.registry.ListPatients(m.ctx, m.token)

		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.listGen {
			return
		}
		m.loading = false
		if err != nil {
			m.log.Error().Err(err).Msg("failed to fetch patient list")
			m.patients = nil
			return
		}
		m.patients = patients
	}()
}
