package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/store"
)

const testTraceJSON = `{
  "threads": [
    {"id": "worker-0", "tasks": [
      {"start": 0, "end": 10, "args": "load"},
      {"start": 5, "end": 15, "args": "decode"}
    ]},
    {"id": "worker-1", "tasks": [
      {"start": 2, "end": 8, "args": "fetch"}
    ]}
  ]
}`

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	s := New(runner, store.NewMemoryStore(), logger)
	return s, s.Router()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	_, h := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestProcessEndpoint(t *testing.T) {
	_, h := testServer(t)

	w := postJSON(t, h, "/api/process", map[string]any{
		"trace_data": []byte(testTraceJSON),
		"formats":    []string{"svg", "json"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		TraceHash  string            `json:"trace_hash"`
		LayoutHash string            `json:"layout_hash"`
		TotalRows  int               `json:"total_rows"`
		LaneCount  int               `json:"lane_count"`
		Artifacts  map[string][]byte `json:"artifacts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.LaneCount != 2 || resp.TotalRows != 3 {
		t.Errorf("lanes = %d rows = %d, want 2 and 3", resp.LaneCount, resp.TotalRows)
	}
	if resp.TraceHash == "" || resp.LayoutHash == "" {
		t.Error("hashes should be populated")
	}
	if !strings.HasPrefix(string(resp.Artifacts["svg"]), "<svg") {
		t.Errorf("svg artifact malformed: %.40s", resp.Artifacts["svg"])
	}
}

func TestProcessEndpointRejectsMissingData(t *testing.T) {
	_, h := testServer(t)

	w := postJSON(t, h, "/api/process", map[string]any{"formats": []string{"svg"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", resp.Code)
	}
}

func TestProcessEndpointRejectsMalformedTrace(t *testing.T) {
	_, h := testServer(t)

	w := postJSON(t, h, "/api/process", map[string]any{
		"trace_data": []byte("definitely not json"),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestProcessEndpointIgnoresServerPaths(t *testing.T) {
	_, h := testServer(t)

	// trace_path must not read files on the server host.
	w := postJSON(t, h, "/api/process", map[string]any{"trace_path": "/etc/passwd"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTraceHistoryRoundTrip(t *testing.T) {
	_, h := testServer(t)

	w := postJSON(t, h, "/api/traces", map[string]any{
		"name":       "nightly run",
		"trace_data": []byte(testTraceJSON),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		ID        string `json:"id"`
		TotalRows int    `json:"total_rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.TotalRows != 3 {
		t.Fatalf("created = %+v", created)
	}

	// List shows the saved trace with denormalized counts.
	req := httptest.NewRequest(http.MethodGet, "/api/traces/", nil)
	lw := httptest.NewRecorder()
	h.ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d", lw.Code)
	}
	var summaries []store.Summary
	if err := json.Unmarshal(lw.Body.Bytes(), &summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].Name != "nightly run" || summaries[0].TaskCount != 3 {
		t.Fatalf("summaries = %+v", summaries)
	}

	// Get returns the full stored trace with its layout.
	gw := httptest.NewRecorder()
	h.ServeHTTP(gw, httptest.NewRequest(http.MethodGet, "/api/traces/"+created.ID, nil))
	if gw.Code != http.StatusOK {
		t.Fatalf("get status = %d", gw.Code)
	}
	var st store.StoredTrace
	if err := json.Unmarshal(gw.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Layout == nil || st.Layout.TotalRows != 3 {
		t.Errorf("stored layout = %+v", st.Layout)
	}

	// Delete, then the id is gone.
	dw := httptest.NewRecorder()
	h.ServeHTTP(dw, httptest.NewRequest(http.MethodDelete, "/api/traces/"+created.ID, nil))
	if dw.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", dw.Code)
	}

	nw := httptest.NewRecorder()
	h.ServeHTTP(nw, httptest.NewRequest(http.MethodGet, "/api/traces/"+created.ID, nil))
	if nw.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", nw.Code)
	}
}

func TestListEmptyHistory(t *testing.T) {
	_, h := testServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/traces/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", w.Body.String())
	}
}
