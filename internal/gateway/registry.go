package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/patientlink/web/internal/model"
)

// Registry is the patient-registry contract consumed by the dashboards and
// the verification flow.
type Registry interface {
	VerifyPatient(ctx context.Context, token string, req model.PatientVerificationRequest) (*model.VerifiedPatient, error)
	ListPatients(ctx context.Context, token string) ([]model.VerifiedPatient, error)
	AddPatient(ctx context.Context, token, patientAuth0ID string) (*model.VerifiedPatient, error)
	UpdatePatient(ctx context.Context, token, patientAuth0ID string, req model.UpdatePatientRequest) (*model.VerifiedPatient, error)
	Profile(ctx context.Context, token string) (*model.VerifiedPatient, error)
}

// RegistryClient talks to the external patient registry.
type RegistryClient struct {
	*Client
}

func NewRegistryClient(c *Client) *RegistryClient {
	return &RegistryClient{Client: c}
}

// VerifyPatient submits candidate fields to the verify endpoint. A 404 is
// the registry's not-found sentinel and resolves to a nil patient, not an
// error; the verification flow turns it into a domain rejection.
func (c *RegistryClient) VerifyPatient(ctx context.Context, token string, req model.PatientVerificationRequest) (*model.VerifiedPatient, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/patients/verify-details", token, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}

	var patient model.VerifiedPatient
	if err := decode(resp.Body, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (c *RegistryClient) ListPatients(ctx context.Context, token string) ([]model.VerifiedPatient, error) {
	var patients []model.VerifiedPatient
	if err := c.getJSON(ctx, "/api/doctors/patients", token, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// AddPatient assigns a verified patient to the bearer's doctor identity.
// The backend takes the identity key as a form field.
func (c *RegistryClient) AddPatient(ctx context.Context, token, patientAuth0ID string) (*model.VerifiedPatient, error) {
	form := url.Values{}
	form.Set("patient_auth0_id", patientAuth0ID)

	resp, err := c.do(ctx, http.MethodPost, "/api/doctors/add-patient", token, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}

	var patient model.VerifiedPatient
	if err := decode(resp.Body, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (c *RegistryClient) UpdatePatient(ctx context.Context, token, patientAuth0ID string, req model.UpdatePatientRequest) (*model.VerifiedPatient, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPut, "/api/doctors/patients/"+url.PathEscape(patientAuth0ID), token, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}

	var patient model.VerifiedPatient
	if err := decode(resp.Body, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

// Profile fetches the bearer's own registry record.
func (c *RegistryClient) Profile(ctx context.Context, token string) (*model.VerifiedPatient, error) {
	var patient model.VerifiedPatient
	if err := c.getJSON(ctx, "/api/patients/profile", token, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}
