package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlint/internal/analyzer"
)

const pythonLoop = `def sync(ids, table):
    for item_id in ids:
        item = table.get_item(Key={"id": item_id})
`

func newTestServer(maxBodyKB int) *Server {
	return New(NewService(analyzer.NewEngine(), nil), maxBodyKB, nil)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestScanEndpoint(t *testing.T) {
	h := newTestServer(0).Handler()
	body, err := json.Marshal(ScanRequest{Code: pythonLoop, Language: "python"})
	require.NoError(t, err)

	rec, payload := doRequest(t, h, http.MethodPost, "/scan", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, true, payload["success"])

	result := payload["result"].(map[string]any)
	assert.Equal(t, "python", result["language"])
	findings := result["findings"].([]any)
	require.Len(t, findings, 1)
	assert.Equal(t, "PY001", findings[0].(map[string]any)["rule_id"])

	summary := payload["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["findings_count"])
	assert.InDelta(t, 6.0, summary["total_monthly_cost"], 1e-9)
}

func TestScanEndpointAutoLanguage(t *testing.T) {
	h := newTestServer(0).Handler()
	rec, payload := doRequest(t, h, http.MethodPost, "/scan",
		`{"code": "for (const id of ids) {\n  await fetch(url + id);\n}\n", "language": "auto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := payload["result"].(map[string]any)
	assert.Equal(t, "javascript", result["language"])
}

func TestScanEndpointUndetectable(t *testing.T) {
	h := newTestServer(0).Handler()
	rec, payload := doRequest(t, h, http.MethodPost, "/scan", `{"code": "hello world"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := payload["result"].(map[string]any)
	assert.Equal(t, "detection_failure", result["error_kind"])
	assert.Empty(t, result["findings"])
}

func TestScanEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "No data provided"},
		{"not json", "{code", "Invalid JSON body"},
		{"blank code", `{"code": "   "}`, "No code provided"},
		{"missing code", `{"language": "python"}`, "No code provided"},
	}
	h := newTestServer(0).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := doRequest(t, h, http.MethodPost, "/scan", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, payload["error"])
			assert.Equal(t, false, payload["success"])
		})
	}
}

func TestScanEndpointMethodNotAllowed(t *testing.T) {
	rec, payload := doRequest(t, newTestServer(0).Handler(), http.MethodGet, "/scan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.Equal(t, "Method not allowed", payload["error"])
}

func TestScanEndpointBodyLimit(t *testing.T) {
	big := `{"code": "` + strings.Repeat("x", 2048) + `"}`
	rec, payload := doRequest(t, newTestServer(1).Handler(), http.MethodPost, "/scan", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", payload["error"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(0).Handler()
	rec, payload := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, analyzer.ToolVersion, payload["version"])

	rec, _ = doRequest(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	srv := newTestServer(0)
	assert.Empty(t, srv.Addr())
	require.NoError(t, srv.Start("127.0.0.1:0"))

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
