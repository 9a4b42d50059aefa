package verify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/model"
	apperrors "github.com/patientlink/web/pkg/errors"
)

// Rejection messages surfaced inline in the add-patient form.
const (
	MsgNotFound        = "Patient not found. Please ensure the patient has created an account and verify all details are correct."
	MsgNotPatient      = "This user is not registered as a patient."
	MsgAlreadyAssigned = "This patient is already assigned to another doctor."
)

// Service runs the server-side patient verification flow. The decision
// order is a contract: not-found, then role, then assignment. The role
// check must precede the assignment check because both conditions can hold
// at once.
type Service struct {
	registry gateway.Registry
	log      zerolog.Logger
}

func NewService(registry gateway.Registry, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		log:      log.With().Str("component", "verify").Logger(),
	}
}

// VerifyPatient checks the candidate against the registry and returns the
// verified record ready for assignment. Domain rejections come back as
// VerificationRejected errors and never escape the form boundary; transport
// failures pass through unchanged.
func (s *Service) VerifyPatient(ctx context.Context, token string, req model.PatientVerificationRequest) (*model.VerifiedPatient, error) {
	patient, err := s.registry.VerifyPatient(ctx, token, req)
	if err != nil {
		return nil, err
	}

	if patient == nil {
		return nil, apperrors.NewVerificationRejected(MsgNotFound)
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.NewVerificationRejected(MsgNotPatient)
	}
	if patient.Assigned() {
		return nil, apperrors.NewVerificationRejected(MsgAlreadyAssigned)
	}

	s.log.Debug().Str("patient", patient.Auth0UserID).Msg("patient verified")
	return patient, nil
}
