package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdoc-rag/internal/config"
	"techdoc-rag/internal/rag"
	"techdoc-rag/internal/store"
)

type stubEmbedder struct{ vec []float32 }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, nil
}

type stubGenerator struct{ answer string }

func (s *stubGenerator) Generate(ctx context.Context, contextBlock, query string) (string, error) {
	return s.answer, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.RAGConfig{
		ChunkSize:           500,
		ChunkOverlap:        100,
		TopK:                5,
		SimilarityThreshold: 0.30,
		RecencyWindowMins:   10,
		MaxContextChars:     8000,
		Boosts:              config.BoostConfig{Technical: 0.10, Wiring: 0.15, Safety: 0.10, PartNumber: 0.05, Recency: 0.05},
	}
	st := store.New(store.Options{
		Threshold:     cfg.SimilarityThreshold,
		RecencyWindow: cfg.RecencyWindow(),
		Boosts:        cfg.Boosts,
	})
	engine := rag.NewEngine(st, &stubEmbedder{vec: []float32{1, 0}}, &stubGenerator{answer: "stub answer"}, cfg)
	s := New(engine)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func ingestText(t *testing.T, ts *httptest.Server, fileName, content, system string) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/ingest-json", map[string]any{
		"content":  content,
		"fileName": fileName,
		"system":   system,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAsk_MissingQuery(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/ask", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Missing query", body["error"])
}

func TestAsk_EmptyIndex(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/ask", map[string]any{"query": "anything"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "Index is empty")
}

func TestIngestJSONThenAsk(t *testing.T) {
	_, ts := newTestServer(t)

	ingestText(t, ts, "doors.txt", "The door actuator needs a 24V supply. Inspect the door seal weekly.", "Doors")

	resp := postJSON(t, ts.URL+"/ask", map[string]any{"query": "door actuator supply", "k": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "stub answer", body["result"])
	assert.NotEmpty(t, body["sources"])
	assert.Equal(t, float64(1), body["totalIndexed"])
}

func TestAsk_FilterMismatchReturnsNoMatches(t *testing.T) {
	_, ts := newTestServer(t)
	ingestText(t, ts, "doors.txt", "The door actuator needs a 24V supply.", "Doors")

	resp := postJSON(t, ts.URL+"/ask", map[string]any{"query": "door", "system": "HVAC"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["result"], "No relevant documents")
	assert.Empty(t, body["sources"])
}

func TestIngest_Multipart(t *testing.T) {
	_, ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("system", "Braking"))
	require.NoError(t, mw.WriteField("subsystem", "Calipers"))
	fw, err := mw.CreateFormFile("files", "brakes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Brake calipers must be inspected weekly. Replace worn pads."))
	require.NoError(t, err)
	fw, err = mw.CreateFormFile("files", "image.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/ingest", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	assert.Equal(t, true, body["ok"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	assert.Equal(t, "ok", first["status"])
	assert.Equal(t, "error", second["status"], "unsupported format reported per file, batch continues")
	assert.Greater(t, body["added"], float64(0))
}

func TestIngest_NoFiles(t *testing.T) {
	_, ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("system", "Doors"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/ingest", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestClearResetsIndex(t *testing.T) {
	_, ts := newTestServer(t)
	ingestText(t, ts, "doc.txt", "Some sentence about brakes.", "Braking")

	resp, err := http.Post(ts.URL+"/clear", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["total"])

	resp = postJSON(t, ts.URL+"/ask", map[string]any{"query": "brakes"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestStats(t *testing.T) {
	_, ts := newTestServer(t)
	ingestText(t, ts, "brakes.txt", "Brake pads wear out over time.", "Braking")
	ingestText(t, ts, "doors.txt", "Door sensors report closure state.", "Doors")

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["documents"])
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ask")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}

func TestRequestIDHeader(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
