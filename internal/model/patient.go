package model

import (
	"strings"
	"time"
)

// VerifiedPatient is the registry's record for a patient or doctor. The
// registry owns it; this client only holds read/update copies keyed by
// Auth0UserID. A patient has at most one assigned doctor.
type VerifiedPatient struct {
	Auth0UserID string `json:"auth0_user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Role        string `json:"role"`
	DoctorID    string `json:"doctor_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Assigned reports whether the patient already has a doctor.
func (p VerifiedPatient) Assigned() bool {
	return p.DoctorID != ""
}

// FullName returns the display name, falling back when both parts are empty.
func (p VerifiedPatient) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unknown User"
	}
	return name
}

// Age computes completed years from the date of birth, -1 when unparseable.
func (p VerifiedPatient) Age() int {
	dob, err := time.Parse("2006-01-02", p.DateOfBirth)
	if err != nil {
		return -1
	}
	now := time.Now()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// PatientVerificationRequest carries the candidate fields submitted to the
// registry's verify endpoint.
type PatientVerificationRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required,min=2,max=50"`
	LastName    string `json:"last_name" binding:"required,min=2,max=50"`
	Phone       string `json:"phone" binding:"required,min=10,max=15"`
	DateOfBirth string `json:"date_of_birth" binding:"required,dateofbirth"`
}

// UpdatePatientRequest carries the edit-patient form fields, keyed by the
// path parameter, not the body.
type UpdatePatientRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required,min=2,max=50"`
	LastName    string `json:"last_name" binding:"required,min=2,max=50"`
	Phone       string `json:"phone" binding:"omitempty,min=10,max=15"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,dateofbirth"`
}
