package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"media-grabber/internal/database"
	"media-grabber/internal/engine"
	"media-grabber/internal/jobs"
)

// mockFetcher implements MetadataFetcher.
type mockFetcher struct {
	meta *engine.Metadata
	err  error
	urls []string
}

func (m *mockFetcher) FetchMetadata(_ context.Context, url string) (*engine.Metadata, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		return nil, m.err
	}
	return m.meta, nil
}

// mockCoordinator implements Coordinator.
type mockCoordinator struct {
	id        string
	starts    int
	lastURL   string
	lastKind  engine.FormatKind
	lastQual  string
	cancelOK  bool
	cancelled []string
}

func (m *mockCoordinator) Start(url string, kind engine.FormatKind, quality string) string {
	m.starts++
	m.lastURL = url
	m.lastKind = kind
	m.lastQual = quality
	return m.id
}

func (m *mockCoordinator) Cancel(id string) bool {
	m.cancelled = append(m.cancelled, id)
	return m.cancelOK
}

// mockStore implements JobStore.
type mockStore struct {
	views   map[string]jobs.View
	active  int
	tracked int
}

func (m *mockStore) Get(id string) (jobs.View, bool) {
	v, ok := m.views[id]
	return v, ok
}

func (m *mockStore) Active() int  { return m.active }
func (m *mockStore) Tracked() int { return m.tracked }

// mockHistory implements HistoryStore.
type mockHistory struct {
	records []database.DownloadRecord
	err     error
}

func (m *mockHistory) History(_ context.Context, _ int) ([]database.DownloadRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// mockPinger implements Pinger.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestHandlers(t *testing.T) (*Handlers, *mockFetcher, *mockCoordinator, *mockStore, *mockHistory) {
	t.Helper()

	fetcher := &mockFetcher{meta: &engine.Metadata{Title: "clip", Formats: []engine.Format{}}}
	coord := &mockCoordinator{id: "dl_1_abcd1234", cancelOK: true}
	store := &mockStore{views: map[string]jobs.View{}}
	history := &mockHistory{records: []database.DownloadRecord{}}

	h := New(fetcher, coord, store, history, &mockPinger{}, t.TempDir())
	return h, fetcher, coord, store, history
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return body
}

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// muxRequest routes the request through a router so mux.Vars resolves.
func muxRequest(h http.HandlerFunc, pattern string, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router := mux.NewRouter()
	router.HandleFunc(pattern, h)
	router.ServeHTTP(rec, r)
	return rec
}

func TestVideoInfoMissingURL(t *testing.T) {
	h, fetcher, _, _, _ := newTestHandlers(t)

	for _, body := range []string{"", "{}", "not json", `{"url":""}`} {
		rec := httptest.NewRecorder()
		h.VideoInfo(rec, postJSON("/api/video_info", body))

		if rec.Code != http.StatusOK {
			t.Errorf("body %q: status = %d, want 200", body, rec.Code)
		}
		resp := decodeBody(t, rec)
		if resp["success"] != false || resp["error"] != "No URL provided" {
			t.Errorf("body %q: got %v, want the uniform validation error", body, resp)
		}
	}
	if len(fetcher.urls) != 0 {
		t.Errorf("engine was called %d times for invalid requests", len(fetcher.urls))
	}
}

func TestVideoInfoSuccess(t *testing.T) {
	h, fetcher, _, _, _ := newTestHandlers(t)
	fetcher.meta = &engine.Metadata{
		Title:     "A Clip",
		Duration:  93.5,
		Uploader:  "someone",
		ViewCount: 42,
		Thumbnail: "https://example.com/t.jpg",
		Formats:   []engine.Format{{FormatID: "22", Ext: "mp4", Resolution: "720p"}},
	}

	rec := httptest.NewRecorder()
	h.VideoInfo(rec, postJSON("/api/video_info", `{"url":"https://example.com/v"}`))

	resp := decodeBody(t, rec)
	if resp["success"] != true {
		t.Fatalf("success = %v, want true", resp["success"])
	}
	if resp["title"] != "A Clip" || resp["uploader"] != "someone" {
		t.Errorf("title/uploader = (%v, %v)", resp["title"], resp["uploader"])
	}
	if resp["duration"] != 93.5 || resp["view_count"] != float64(42) {
		t.Errorf("duration/view_count = (%v, %v)", resp["duration"], resp["view_count"])
	}
	formats, ok := resp["formats"].([]interface{})
	if !ok || len(formats) != 1 {
		t.Errorf("formats = %v, want one entry", resp["formats"])
	}
}

func TestVideoInfoEngineError(t *testing.T) {
	h, fetcher, _, _, _ := newTestHandlers(t)
	fetcher.err = &engine.ExtractionError{Err: errors.New("Unsupported URL: ftp://x")}

	rec := httptest.NewRecorder()
	h.VideoInfo(rec, postJSON("/api/video_info", `{"url":"ftp://x"}`))

	if rec.Code != http.StatusOK {
		t.Errorf("engine errors stay HTTP 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["success"] != false || resp["error"] != "Unsupported URL: ftp://x" {
		t.Errorf("got %v, want the engine message surfaced verbatim", resp)
	}
}

func TestStartDownloadMissingURL(t *testing.T) {
	h, _, coord, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.StartDownload(rec, postJSON("/api/download", `{"format":"mp3"}`))

	resp := decodeBody(t, rec)
	if resp["success"] != false || resp["error"] != "No URL provided" {
		t.Errorf("got %v, want validation error", resp)
	}
	if coord.starts != 0 {
		t.Error("no worker must be started for an invalid request")
	}
}

func TestStartDownloadDefaults(t *testing.T) {
	h, _, coord, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.StartDownload(rec, postJSON("/api/download", `{"url":"https://example.com/v"}`))

	resp := decodeBody(t, rec)
	if resp["success"] != true {
		t.Fatalf("success = %v, want true", resp["success"])
	}
	if resp["download_id"] != "dl_1_abcd1234" {
		t.Errorf("download_id = %v", resp["download_id"])
	}
	if resp["message"] != "Download started" {
		t.Errorf("message = %v", resp["message"])
	}
	if coord.lastKind != engine.KindVideo || coord.lastQual != "720" {
		t.Errorf("defaults = (%s, %s), want (mp4, 720)", coord.lastKind, coord.lastQual)
	}
}

func TestStartDownloadExplicitFormat(t *testing.T) {
	h, _, coord, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.StartDownload(rec, postJSON("/api/download", `{"url":"https://example.com/v","format":"mp3","quality":"192"}`))

	if decodeBody(t, rec)["success"] != true {
		t.Fatal("expected success")
	}
	if coord.lastKind != engine.KindAudio || coord.lastQual != "192" {
		t.Errorf("got (%s, %s), want (mp3, 192)", coord.lastKind, coord.lastQual)
	}
	if coord.lastURL != "https://example.com/v" {
		t.Errorf("url = %q", coord.lastURL)
	}
}

func TestGetProgressUnknown(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	r := httptest.NewRequest(http.MethodGet, "/api/progress/dl_nope", nil)
	rec := muxRequest(h.GetProgress, "/api/progress/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["success"] != false || resp["error"] != "Download not found" {
		t.Errorf("got %v, want not-found shape", resp)
	}
}

func TestGetProgressRunning(t *testing.T) {
	h, _, _, store, _ := newTestHandlers(t)
	store.views["dl_1"] = jobs.View{
		ID:       "dl_1",
		Status:   jobs.StatusDownloading,
		Progress: "41.5%",
		Speed:    "1.2MB/s",
		Eta:      "00:30",
	}

	r := httptest.NewRequest(http.MethodGet, "/api/progress/dl_1", nil)
	rec := muxRequest(h.GetProgress, "/api/progress/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["success"] != true || resp["complete"] != false {
		t.Fatalf("got %v, want running shape", resp)
	}
	if resp["progress"] != "41.5%" || resp["speed"] != "1.2MB/s" || resp["eta"] != "00:30" {
		t.Errorf("progress fields = (%v, %v, %v)", resp["progress"], resp["speed"], resp["eta"])
	}
	if _, hasResult := resp["result"]; hasResult {
		t.Error("a running job must never expose a result key")
	}
}

func TestGetProgressComplete(t *testing.T) {
	h, _, _, store, _ := newTestHandlers(t)
	store.views["dl_1"] = jobs.View{
		ID:     "dl_1",
		Status: jobs.StatusCompleted,
		Result: &jobs.Result{
			Success:  true,
			Filename: "v.mp3",
			Title:    "v",
			Duration: 12,
			Filesize: 2048,
		},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/progress/dl_1", nil)
	rec := muxRequest(h.GetProgress, "/api/progress/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["success"] != true || resp["complete"] != true {
		t.Fatalf("got %v, want complete shape", resp)
	}
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("result = %v, want an object", resp["result"])
	}
	if result["success"] != true || result["filename"] != "v.mp3" || result["filesize"] != float64(2048) {
		t.Errorf("result payload = %v", result)
	}
}

func TestGetProgressFailed(t *testing.T) {
	h, _, _, store, _ := newTestHandlers(t)
	store.views["dl_1"] = jobs.View{
		ID:     "dl_1",
		Status: jobs.StatusFailed,
		Result: &jobs.Result{Success: false, Error: "network unreachable"},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/progress/dl_1", nil)
	rec := muxRequest(h.GetProgress, "/api/progress/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["complete"] != true {
		t.Fatal("failed jobs are complete")
	}
	result := resp["result"].(map[string]interface{})
	if result["success"] != false || result["error"] != "network unreachable" {
		t.Errorf("result = %v", result)
	}
}

func TestCancelDownload(t *testing.T) {
	h, _, coord, _, _ := newTestHandlers(t)

	r := httptest.NewRequest(http.MethodPost, "/api/cancel/dl_1", nil)
	rec := muxRequest(h.CancelDownload, "/api/cancel/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["success"] != true || resp["message"] != "Download cancelled" {
		t.Errorf("got %v", resp)
	}
	if len(coord.cancelled) != 1 || coord.cancelled[0] != "dl_1" {
		t.Errorf("cancelled = %v", coord.cancelled)
	}
}

func TestCancelUnknownDownload(t *testing.T) {
	h, _, coord, _, _ := newTestHandlers(t)
	coord.cancelOK = false

	r := httptest.NewRequest(http.MethodPost, "/api/cancel/dl_nope", nil)
	rec := muxRequest(h.CancelDownload, "/api/cancel/{download_id}", r)

	resp := decodeBody(t, rec)
	if resp["success"] != false || resp["error"] != "Download not found" {
		t.Errorf("got %v, want not-found shape", resp)
	}
}

func TestDownloadFile(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)
	if err := os.WriteFile(filepath.Join(h.downloadDir, "clip.mp4"), []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/download_file/clip.mp4", nil)
	rec := muxRequest(h.DownloadFile, "/api/download_file/{filename}", r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "video bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="clip.mp4"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDownloadFileNotFound(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	r := httptest.NewRequest(http.MethodGet, "/api/download_file/nope.mp4", nil)
	rec := muxRequest(h.DownloadFile, "/api/download_file/{filename}", r)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["success"] != false || resp["error"] != "File not found" {
		t.Errorf("got %v, want not-found shape", resp)
	}
}

func TestDownloadFileTraversalRejected(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	// Plant a file outside the download dir that traversal would reach.
	outside := filepath.Join(filepath.Dir(h.downloadDir), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"..%2Fsecret.txt", "..", "a%2Fb.mp4"} {
		rec := httptest.NewRecorder()
		router := mux.NewRouter()
		router.HandleFunc("/api/download_file/{filename}", h.DownloadFile)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download_file/"+name, nil))

		if strings.Contains(rec.Body.String(), "secret") {
			t.Errorf("traversal via %q leaked file contents", name)
		}
	}
}

func TestGetHistory(t *testing.T) {
	h, _, _, _, history := newTestHandlers(t)
	history.records = []database.DownloadRecord{
		{DownloadID: "dl_2", Filename: "b.mp4"},
		{DownloadID: "dl_1", Filename: "a.mp3"},
	}

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	resp := decodeBody(t, rec)
	entries, ok := resp["history"].([]interface{})
	if !ok || len(entries) != 2 {
		t.Fatalf("history = %v, want 2 entries", resp["history"])
	}
}

func TestGetHistoryEmpty(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	resp := decodeBody(t, rec)
	entries, ok := resp["history"].([]interface{})
	if !ok {
		t.Fatalf("history = %v, want an array", resp["history"])
	}
	if len(entries) != 0 {
		t.Errorf("history has %d entries, want 0", len(entries))
	}
}

func TestGetHistoryError(t *testing.T) {
	h, _, _, _, history := newTestHandlers(t)
	history.err = errors.New("database locked")

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	resp := decodeBody(t, rec)
	if resp["error"] != "Failed to load history" {
		t.Errorf("got %v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	h, _, _, store, _ := newTestHandlers(t)
	store.active = 2
	store.tracked = 5

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != statusHealthy {
		t.Errorf("status = %q, want %q", resp.Status, statusHealthy)
	}
	if resp.ActiveDownloads != 2 || resp.TrackedJobs != 5 {
		t.Errorf("job counts = (%d, %d), want (2, 5)", resp.ActiveDownloads, resp.TrackedJobs)
	}
	if !resp.DatabaseOK {
		t.Error("database should report healthy")
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	fetcher := &mockFetcher{}
	coord := &mockCoordinator{}
	store := &mockStore{views: map[string]jobs.View{}}
	h := New(fetcher, coord, store, &mockHistory{}, &mockPinger{err: errors.New("disk io error")}, t.TempDir())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != statusDegraded || resp.DatabaseOK {
		t.Errorf("status/dbOk = (%q, %v), want degraded", resp.Status, resp.DatabaseOK)
	}
	if resp.DatabaseError != "disk io error" {
		t.Errorf("DatabaseError = %q", resp.DatabaseError)
	}
}

func TestLivenessCheck(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if decodeBody(t, rec)["status"] != "alive" {
		t.Error("expected alive status")
	}

	// HEAD request gets headers only.
	rec = httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response must have no body, got %q", rec.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	bad := New(&mockFetcher{}, &mockCoordinator{}, &mockStore{}, &mockHistory{}, &mockPinger{err: errors.New("down")}, t.TempDir())
	rec = httptest.NewRecorder()
	bad.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	resp := decodeBody(t, rec)
	if resp["version"] == "" {
		t.Error("version should be populated")
	}
	if resp["goVersion"] == "" {
		t.Error("goVersion should be populated")
	}
}
