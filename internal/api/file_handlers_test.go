package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/domain"
)

// multipartUpload performs a multipart file upload against the chi router.
func (ts *testServer) multipartUpload(t *testing.T, token, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createVaultViaAPI(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/vaults",
		"Authorization: Bearer "+token,
		map[string]any{"name": name},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Create vault failed: %s", resp.Body.String())

	var envelope testEnvelope[*domain.Vault]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.ID
}

func TestUploadSpaceFile_Roundtrip(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.setupRoot(t)
	spaceID := ts.createSpaceViaAPI(t, token, "Files")

	content := []byte("hello, haven")
	rec := ts.multipartUpload(t, token, "/api/v1/spaces/"+spaceID+"/files", "note.txt", content)
	require.Equal(t, http.StatusCreated, rec.Code, "Upload failed: %s", rec.Body.String())

	var uploadEnvelope struct {
		Success bool         `json:"success"`
		Data    *domain.File `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadEnvelope))
	require.True(t, uploadEnvelope.Success)
	assert.Equal(t, "note.txt", uploadEnvelope.Data.Name)
	assert.Equal(t, int64(len(content)), uploadEnvelope.Data.Size)

	// Download it back.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploadEnvelope.Data.ID+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	downloadRec := httptest.NewRecorder()
	ts.router.ServeHTTP(downloadRec, req)

	require.Equal(t, http.StatusOK, downloadRec.Code)
	body, err := io.ReadAll(downloadRec.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Contains(t, downloadRec.Header().Get("Content-Disposition"), "note.txt")
}

func TestUploadSpaceFile_TooLarge(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.setupRoot(t)
	spaceID := ts.createSpaceViaAPI(t, token, "Strict")

	oversized := bytes.Repeat([]byte("x"), 11<<20)
	rec := ts.multipartUpload(t, token, "/api/v1/spaces/"+spaceID+"/files", "big.bin", oversized)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing should be listed after the rejection.
	resp := ts.api.Get("/api/v1/spaces/"+spaceID+"/files", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[[]*domain.File]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data)
}

// countingReader tracks how many bytes the handler pulls from the body.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestUploadSpaceFile_OversizedBodyNotFullyRead(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.setupRoot(t)
	spaceID := ts.createSpaceViaAPI(t, token, "Capped")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "huge.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 32<<20))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	body := &countingReader{r: &buf}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spaces/"+spaceID+"/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The handler must stop reading at its cap rather than buffering
	// the whole 32 MB body before rejecting it.
	assert.Less(t, body.n, int64(12<<20), "read %d bytes of an oversized body", body.n)
}

func TestUploadSpaceFile_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := ts.setupRoot(t)
	spaceID := ts.createSpaceViaAPI(t, ownerToken, "Gated")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "sneaky.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/spaces/"+spaceID+"/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadVaultFile_SharedVaultPermissions(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := ts.setupRoot(t)
	vaultID := ts.createVaultViaAPI(t, ownerToken, "Papers")

	granteeToken, granteeID := ts.registerAndLogin(t, "grantee@test.com")

	// Read-only share: grantee can list but not upload.
	shareResp := ts.api.Post("/api/v1/vaults/"+vaultID+"/shares",
		"Authorization: Bearer "+ownerToken,
		map[string]any{"user_id": granteeID, "perms": []string{"read"}},
	)
	require.Equal(t, http.StatusOK, shareResp.Code, "Share failed: %s", shareResp.Body.String())

	rec := ts.multipartUpload(t, granteeToken, "/api/v1/vaults/"+vaultID+"/files", "doc.txt", []byte("contents"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	listResp := ts.api.Get("/api/v1/vaults/"+vaultID+"/files", "Authorization: Bearer "+granteeToken)
	assert.Equal(t, http.StatusOK, listResp.Code)

	// The owner uploads fine.
	rec = ts.multipartUpload(t, ownerToken, "/api/v1/vaults/"+vaultID+"/files", "doc.txt", []byte("contents"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteFile_UploaderAllowed(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.setupRoot(t)
	spaceID := ts.createSpaceViaAPI(t, token, "Tidy")

	rec := ts.multipartUpload(t, token, "/api/v1/spaces/"+spaceID+"/files", "temp.txt", []byte("short-lived"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var uploadEnvelope struct {
		Data *domain.File `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadEnvelope))

	resp := ts.api.Delete("/api/v1/files/"+uploadEnvelope.Data.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	getResp := ts.api.Get("/api/v1/files/"+uploadEnvelope.Data.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, getResp.Code)
}
