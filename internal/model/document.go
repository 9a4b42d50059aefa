package model

// Document is the document store's metadata record for an uploaded file.
// The client never persists documents, only metadata and transient signed
// URLs.
type Document struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
	PatientID   string `json:"patient_id,omitempty"`
	UploadedBy  string `json:"uploaded_by_id"`
	CreatedAt   string `json:"created_at"`
}

// SignedURL is the short-lived URL payload returned by the preview and
// download endpoints, opened directly by the browser.
type SignedURL struct {
	URL string `json:"url"`
}
