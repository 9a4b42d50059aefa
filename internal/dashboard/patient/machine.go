package patient

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/model"
)

// View is the patient dashboard's current in-page view. Loading and empty
// document lists are render states, not views.
type View interface {
	viewName() string
}

type Overview struct{}
type Profile struct{}

func (Overview) viewName() string { return "overview" }
func (Profile) viewName() string  { return "profile" }

// Name exposes the view tag for rendering.
func Name(v View) string { return v.viewName() }

// Machine is the patient dashboard view-state machine. Mount speculatively
// pre-fetches both the document list and the profile; re-entering the
// overview always re-fetches documents while the profile is served from
// cache once loaded.
type Machine struct {
	mu sync.Mutex
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	registry  gateway.Registry
	documents gateway.Documents
	profiles  *gocache.Cache
	log       zerolog.Logger

	token   string
	subject string

	view           View
	docs           []model.Document
	docsGen        uint64
	loadingDocs    bool
	loadingProfile bool
}

// NewMachine mounts the dashboard for the authenticated patient and kicks
// off both pre-fetches once the subject identity is known.
func NewMachine(registry gateway.Registry, documents gateway.Documents, profiles *gocache.Cache, token, subject string, log zerolog.Logger) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		ctx:       ctx,
		cancel:    cancel,
		registry:  registry,
		documents: documents,
		profiles:  profiles,
		log:       log.With().Str("component", "patient_dashboard").Str("subject", subject).Logger(),
		token:     token,
		subject:   subject,
		view:      Overview{},
	}

	if subject != "" {
		m.mu.Lock()
		m.fetchDocumentsLocked()
		m.fetchProfileLocked()
		m.mu.Unlock()
	}
	return m
}

func (m *Machine) Close() {
	m.cancel()
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Documents returns a snapshot of the fetched document list.
func (m *Machine) Documents() []model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Profile returns the cached profile, nil while not yet loaded.
func (m *Machine) Profile() *model.VerifiedPatient {
	if cached, ok := m.profiles.Get(m.subject); ok {
		p := cached.(model.VerifiedPatient)
		return &p
	}
	return nil
}

// LoadingDocuments reports whether a document fetch is in flight.
func (m *Machine) LoadingDocuments() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadingDocs
}

// LoadingProfile reports whether a profile fetch is in flight.
func (m *Machine) LoadingProfile() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadingProfile
}

// ShowOverview enters the overview. Every entry re-fetches documents.
func (m *Machine) ShowOverview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = Overview{}
	m.fetchDocumentsLocked()
}

// ShowProfile enters the profile view. The profile is fetched only when
// not already cached; there is no forced refresh.
func (m *Machine) ShowProfile() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = Profile{}
	if _, ok := m.profiles.Get(m.subject); !ok {
		m.fetchProfileLocked()
	}
}

func (m *Machine) fetchDocumentsLocked() {
	m.docsGen++
	gen := m.docsGen
	m.loadingDocs = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		docs, err := m.documents.PatientDocuments(m.ctx, m.token)

		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.docsGen {
			return
		}
		m.loadingDocs = false
		if err != nil {
			m.log.Error().Err(err).Msg("failed to fetch documents")
			m.docs = nil
			return
		}
		m.docs = docs
	}()
}

func (m *Machine) fetchProfileLocked() {
	if m.loadingProfile {
		return
	}
	m.loadingProfile = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		profile, err := m.registry.Profile(m.ctx, m.token)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.loadingProfile = false
		if err != nil || profile == nil {
			m.log.Error().Err(err).Msg("failed to fetch profile")
			return
		}
		m.profiles.SetDefault(m.subject, *profile)
	}()
}
