package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/offerstruct/internal/config"
	"github.com/dgallion1/offerstruct/internal/extract"
	"github.com/dgallion1/offerstruct/internal/pipeline"
)

const testKey = "secret"

const offerText = `243. A. HEAT DISTRIBUTION

243. A. 1. Piping

DN 80 steel pipe, 120 m
`

const offerReply = `Here is the structure:
{"groups": [{"name": "243. A. HEAT DISTRIBUTION", "sub_groups": [{"name": "243. A. 1. Piping",
  "items": [{"name": "DN 80 steel pipe", "quantity": 120, "unit": "m"}]}]}]}`

func testConfig() config.Config {
	return config.Config{
		APIKey:         testKey,
		ChunkSize:      4000,
		OverlapSize:    400,
		BoundaryWindow: 150,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		ModelTimeout:   time.Second,
	}
}

func newTestServer(t *testing.T, start bool, stats *extract.LLMStats) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	completer := extract.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return offerReply, nil
	})
	orch := pipeline.NewOrchestrator(cfg, completer, log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	return NewServer(orch, stats, "test-model", log, cfg)
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authedGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "ok" || body["queue_depth"] != float64(0) {
		t.Errorf("unexpected body %v", body)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, false, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	s := newTestServer(t, true, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "../../offer.txt", offerText, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode(t, rec)
	jobID, _ := accepted["job_id"].(string)
	if jobID == "" {
		t.Fatalf("missing job id in %v", accepted)
	}

	deadline := time.Now().Add(5 * time.Second)
	var status map[string]any
	for {
		rec = httptest.NewRecorder()
		s.ServeHTTP(rec, authedGet("/api/extract/"+jobID+"/status"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		status = decode(t, rec)
		if status["status"] == "completed" || status["status"] == "failed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish: %v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status["status"] != "completed" || status["filename"] != "offer.txt" {
		t.Fatalf("unexpected status %v", status)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authedGet("/api/extract/"+jobID+"/result"))
	if rec.Code != http.StatusOK {
		t.Fatalf("result: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"1.1.1"`) {
		t.Errorf("expected item id 1.1.1 in %s", rec.Body.String())
	}
}

func TestExtract_Rejections(t *testing.T) {
	s := newTestServer(t, false, nil)

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
		want     string
	}{
		{"unsupported type", "offer.xlsx", nil, "unsupported file type"},
		{"overlap too large", "offer.txt", map[string]string{"chunk_size": "500", "overlap_size": "500"}, "overlap_size"},
		{"not a number", "offer.txt", map[string]string{"boundary_window": "wide"}, "must be an integer"},
		{"negative window", "offer.txt", map[string]string{"boundary_window": "-1"}, "boundary_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, uploadRequest(t, tt.filename, offerText, tt.fields))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg, _ := decode(t, rec)["error"].(string); !strings.Contains(msg, tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, msg)
			}
		})
	}
}

func TestExtract_GeometryOverride(t *testing.T) {
	s := newTestServer(t, false, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "offer.txt", offerText, map[string]string{"chunk_size": "1000", "overlap_size": "100"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	job := s.orchestrator.GetJob(decode(t, rec)["job_id"].(string))
	cfg := job.ChunkConfig()
	if cfg.ChunkSize != 1000 || cfg.OverlapSize != 100 || cfg.BoundaryWindow != 150 {
		t.Errorf("unexpected geometry %+v", cfg)
	}
}

func TestExtractResult_NotReady(t *testing.T) {
	s := newTestServer(t, false, nil)
	job := pipeline.NewJob("offer.txt", []byte(offerText), testConfig().Chunker())
	if err := s.orchestrator.Submit(job); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authedGet("/api/extract/"+job.ID+"/result"))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	for _, path := range []string{"/api/extract/missing/status", "/api/extract/missing/result"} {
		rec = httptest.NewRecorder()
		s.ServeHTTP(rec, authedGet(path))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestLLMStats(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, false, nil).ServeHTTP(rec, authedGet("/api/stats/llm"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without stats, got %d", rec.Code)
	}

	stats := extract.NewLLMStats(time.Hour)
	stats.Record(extract.Call{Duration: 120 * time.Millisecond})
	rec = httptest.NewRecorder()
	newTestServer(t, false, stats).ServeHTTP(rec, authedGet("/api/stats/llm"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["model"] != "test-model" || body["stats"] == nil {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"offer.pdf":          "offer.pdf",
		"../../etc/offer.md": "offer.md",
		"":                   "unnamed",
		"a..b.txt":           "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
