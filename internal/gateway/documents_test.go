package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocuments(t *testing.T, h http.HandlerFunc) *DocumentClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewDocumentClient(NewClient(srv.URL, 5*time.Second, zerolog.Nop()))
}

func TestListDocumentsMapsDocumentID(t *testing.T) {
	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/doctors/patients/auth0%7Cp1/documents", r.URL.EscapedPath())
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"document_id":    17,
				"filename":       "scan.pdf",
				"description":    "MRI scan",
				"uploaded_by_id": "auth0|d1",
				"created_at":     "2024-05-01T10:00:00Z",
			},
		})
	})

	docs, err := c.DoctorPatientDocuments(context.Background(), "tok", "auth0|p1")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, int64(17), docs[0].ID)
	assert.Equal(t, "scan.pdf", docs[0].Filename)
	assert.Equal(t, "auth0|p1", docs[0].PatientID)
	assert.Equal(t, "auth0|d1", docs[0].UploadedBy)
}

func TestPatientDocuments(t *testing.T) {
	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/patients/documents", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"document_id": 1, "filename": "a.pdf"},
			{"document_id": 2, "filename": "b.pdf"},
		})
	})

	docs, err := c.PatientDocuments(context.Background(), "tok")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

// The store takes one file per request: a batch of three files must arrive
// as three separate uploads, in order.
func TestUploadSendsOneFilePerRequest(t *testing.T) {
	var mu sync.Mutex
	var filenames []string

	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		mu.Lock()
		files := r.MultipartForm.File["file"]
		require.Len(t, files, 1, "each request must carry exactly one file")
		filenames = append(filenames, files[0].Filename)
		n := len(filenames)
		mu.Unlock()

		assert.Equal(t, "batch notes", r.FormValue("description"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"document_id": n,
			"filename":    files[0].Filename,
		})
	})

	files := []File{
		{Name: "one.pdf", Content: []byte("1")},
		{Name: "two.pdf", Content: []byte("2")},
		{Name: "three.pdf", Content: []byte("3")},
	}
	uploaded, err := c.Upload(context.Background(), "tok", "auth0|p1", files, "batch notes")
	require.NoError(t, err)

	assert.Equal(t, []string{"one.pdf", "two.pdf", "three.pdf"}, filenames)
	require.Len(t, uploaded, 3)
	assert.Equal(t, int64(1), uploaded[0].ID)
	assert.Equal(t, "auth0|p1", uploaded[0].PatientID)
}

func TestUploadAbortsBatchOnFailure(t *testing.T) {
	var calls int

	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"document_id": calls, "filename": "f"})
	})

	files := []File{
		{Name: "one.pdf", Content: []byte("1")},
		{Name: "two.pdf", Content: []byte("2")},
		{Name: "three.pdf", Content: []byte("3")},
	}
	uploaded, err := c.Upload(context.Background(), "tok", "auth0|p1", files, "")

	require.Error(t, err)
	assert.Equal(t, 2, calls, "batch must stop at the failing file")
	assert.Len(t, uploaded, 1)
}

func TestSignedURLs(t *testing.T) {
	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "https://store.example.com/signed/" + r.URL.Path})
	})

	url, err := c.DoctorPreviewURL(context.Background(), "tok", "auth0|p1", 17)
	require.NoError(t, err)
	assert.Contains(t, url, "/documents/17/preview")

	url, err = c.PatientDownloadURL(context.Background(), "tok", 9)
	require.NoError(t, err)
	assert.Contains(t, url, "/api/patients/documents/9/download")
}

func TestDeleteDocument(t *testing.T) {
	var gotMethod, gotPath string

	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Delete(context.Background(), "tok", "auth0|p1", 17)
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/doctors/patients/auth0%7Cp1/documents/17", gotPath)
}

func TestDeleteDocumentFailure(t *testing.T) {
	c := newTestDocuments(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not your patient"})
	})

	err := c.Delete(context.Background(), "tok", "auth0|p1", 17)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not your patient")
}
