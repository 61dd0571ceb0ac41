package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInstance_SetupRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[InstanceResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.SetupRequired)
	assert.Equal(t, "Test Server", envelope.Data.Name)

	ts.setupRoot(t)

	resp = ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.SetupRequired)
}

func TestUpdateInstance_RootOnly(t *testing.T) {
	ts := newTestServer(t)
	ts.setupRoot(t)

	userToken, _ := ts.registerAndLogin(t, "regular@test.com")

	resp := ts.api.Patch("/api/v1/instance",
		"Authorization: Bearer "+userToken,
		map[string]any{"name": "Renamed"},
	)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestUpdateInstance_RenameByRoot(t *testing.T) {
	ts := newTestServer(t)
	rootToken, _ := ts.setupRoot(t)

	resp := ts.api.Patch("/api/v1/instance",
		"Authorization: Bearer "+rootToken,
		map[string]any{"name": "Haven Home"},
	)
	require.Equal(t, http.StatusOK, resp.Code, "Update failed: %s", resp.Body.String())

	var envelope testEnvelope[InstanceResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Haven Home", envelope.Data.Name)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
}
