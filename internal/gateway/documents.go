package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/patientlink/web/internal/model"
)

// Documents is the document-store contract. Storage and transport of file
// content stay in the external store; the client only moves metadata and
// opens short-lived signed URLs.
type Documents interface {
	PatientDocuments(ctx context.Context, token string) ([]model.Document, error)
	DoctorPatientDocuments(ctx context.Context, token, patientID string) ([]model.Document, error)
	Upload(ctx context.Context, token, patientID string, files []File, description string) ([]model.Document, error)
	DoctorPreviewURL(ctx context.Context, token, patientID string, documentID int64) (string, error)
	DoctorDownloadURL(ctx context.Context, token, patientID string, documentID int64) (string, error)
	PatientPreviewURL(ctx context.Context, token string, documentID int64) (string, error)
	PatientDownloadURL(ctx context.Context, token string, documentID int64) (string, error)
	Delete(ctx context.Context, token, patientID string, documentID int64) error
}

// File is one upload candidate.
type File struct {
	Name    string
	Content []byte
}

// DocumentClient talks to the external document store.
type DocumentClient struct {
	*Client
}

func NewDocumentClient(c *Client) *DocumentClient {
	return &DocumentClient{Client: c}
}

// documentPayload is the wire shape of document list entries; the store
// names the key document_id.
type documentPayload struct {
	DocumentID  int64  `json:"document_id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
	UploadedBy  string `json:"uploaded_by_id"`
	CreatedAt   string `json:"created_at"`
}

func (p documentPayload) toDocument(patientID string) model.Document {
	return model.Document{
		ID:          p.DocumentID,
		Filename:    p.Filename,
		Description: p.Description,
		PatientID:   patientID,
		UploadedBy:  p.UploadedBy,
		CreatedAt:   p.CreatedAt,
	}
}

func (c *DocumentClient) PatientDocuments(ctx context.Context, token string) ([]model.Document, error) {
	return c.listDocuments(ctx, token, "/api/patients/documents", "")
}

func (c *DocumentClient) DoctorPatientDocuments(ctx context.Context, token, patientID string) ([]model.Document, error) {
	path := fmt.Sprintf("/api/doctors/patients/%s/documents", url.PathEscape(patientID))
	return c.listDocuments(ctx, token, path, patientID)
}

func (c *DocumentClient) listDocuments(ctx context.Context, token, path, patientID string) ([]model.Document, error) {
	var payload []documentPayload
	if err := c.getJSON(ctx, path, token, &payload); err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(payload))
	for _, p := range payload {
		docs = append(docs, p.toDocument(patientID))
	}
	return docs, nil
}

// Upload sends files strictly one per request; the store accepts a single
// file per call. A failure aborts the batch and returns what was uploaded
// so far alongside the error.
func (c *DocumentClient) Upload(ctx context.Context, token, patientID string, files []File, description string) ([]model.Document, error) {
	path := fmt.Sprintf("/api/doctors/patients/%s/documents/upload", url.PathEscape(patientID))

	uploaded := make([]model.Document, 0, len(files))
	for _, f := range files {
		doc, err := c.uploadOne(ctx, token, path, patientID, f, description)
		if err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, doc)
	}
	return uploaded, nil
}

func (c *DocumentClient) uploadOne(ctx context.Context, token, path, patientID string, f File, description string) (model.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return model.Document{}, err
	}
	if _, err := part.Write(f.Content); err != nil {
		return model.Document{}, err
	}
	if err := mw.WriteField("description", description); err != nil {
		return model.Document{}, err
	}
	if err := mw.Close(); err != nil {
		return model.Document{}, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, token, &body, mw.FormDataContentType())
	if err != nil {
		return model.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Document{}, c.apiError(resp)
	}

	var payload documentPayload
	if err := decode(resp.Body, &payload); err != nil {
		return model.Document{}, err
	}
	return payload.toDocument(patientID), nil
}

func (c *DocumentClient) DoctorPreviewURL(ctx context.Context, token, patientID string, documentID int64) (string, error) {
	path := fmt.Sprintf("/api/doctors/patients/%s/documents/%d/preview", url.PathEscape(patientID), documentID)
	return c.signedURL(ctx, token, path)
}

func (c *DocumentClient) DoctorDownloadURL(ctx context.Context, token, patientID string, documentID int64) (string, error) {
	path := fmt.Sprintf("/api/doctors/patients/%s/documents/%d/download", url.PathEscape(patientID), documentID)
	return c.signedURL(ctx, token, path)
}

func (c *DocumentClient) PatientPreviewURL(ctx context.Context, token string, documentID int64) (string, error) {
	return c.signedURL(ctx, token, fmt.Sprintf("/api/patients/documents/%d/preview", documentID))
}

func (c *DocumentClient) PatientDownloadURL(ctx context.Context, token string, documentID int64) (string, error) {
	return c.signedURL(ctx, token, fmt.Sprintf("/api/patients/documents/%d/download", documentID))
}

func (c *DocumentClient) signedURL(ctx context.Context, token, path string) (string, error) {
	var signed model.SignedURL
	if err := c.getJSON(ctx, path, token, &signed); err != nil {
		return "", err
	}
	return signed.URL, nil
}

func (c *DocumentClient) Delete(ctx context.Context, token, patientID string, documentID int64) error {
	path := fmt.Sprintf("/api/doctors/patients/%s/documents/%d", url.PathEscape(patientID), documentID)

	resp, err := c.do(ctx, http.MethodDelete, path, token, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return c.apiError(resp)
	}
	return nil
}
