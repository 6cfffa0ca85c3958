package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/sciskills/pkg/skills"
)

func newTestServer(t *testing.T, skillsDir string) *Server {
	t.Helper()

	s, err := New(&Config{Host: "localhost", Port: 8080}, skills.NewRegistry(skillsDir))
	require.NoError(t, err)
	return s
}

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, skills.SkillFileName), []byte(content), 0o644))
}

func postMCP(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{Host: "localhost", Port: 8080}).Validate())
	assert.Error(t, (&Config{Host: "", Port: 8080}).Validate())
	assert.Error(t, (&Config{Host: "localhost", Port: 0}).Validate())
	assert.Error(t, (&Config{Host: "localhost", Port: 70000}).Validate())
}

func TestHealthEmptyRegistry(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 0, health.ToolsCount)
	assert.Equal(t, "scientific-skills-mcp", health.Server)
}

func TestHealthCountsSkills(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "alpha", "---\nname: alpha\ndescription: d\n---\nbody\n")
	s := newTestServer(t, tmpDir)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, 1, health.ToolsCount)
}

func TestMCPEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	content := "---\nname: Alpha\ndescription: does alpha\n---\n# Alpha\n"
	writeSkill(t, tmpDir, "alpha", content)
	s := newTestServer(t, tmpDir)

	rec := postMCP(t, s, `{"id": "1", "method": "tools/list"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		ID     string `json:"id"`
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, "1", listResp.ID)
	assert.Empty(t, listResp.Error)
	require.Len(t, listResp.Result.Tools, 1)
	assert.Equal(t, "Alpha", listResp.Result.Tools[0].Name)

	rec = postMCP(t, s, `{"id": 2, "method": "tools/call", "params": {"name": "Alpha"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var callResp struct {
		ID     int `json:"id"`
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &callResp))
	assert.Equal(t, 2, callResp.ID)
	require.Len(t, callResp.Result.Content, 1)
	assert.Equal(t, content, callResp.Result.Content[0].Text)
}

func TestMCPUnknownToolStaysHTTP200(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	rec := postMCP(t, s, `{"id": "x", "method": "tools/call", "params": {"name": "ghost"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "x", resp.ID)
	assert.Contains(t, resp.Error, "ghost")
}

func TestMCPMalformedBody(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	rec := postMCP(t, s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMCPRejectsGet(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(&Config{Host: "", Port: 8080}, skills.NewRegistry(t.TempDir()))
	assert.Error(t, err)
}
