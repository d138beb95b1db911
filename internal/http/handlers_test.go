package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediarr/internal/config"
	"mediarr/internal/extract"
	"mediarr/internal/llm"
	"mediarr/internal/qbittorrent"
	"mediarr/internal/radarr"
	"mediarr/internal/sonarr"
)

// stubLLM replays a canned chat reply or error and records calls.
type stubLLM struct {
	reply     string
	chatErr   error
	listErr   error
	chatCalls int
}

func (s *stubLLM) Chat(context.Context, []llm.Message, float64) (string, error) {
	s.chatCalls++
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.reply, nil
}

func (s *stubLLM) ListModels(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []string{"deepseek-r1"}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8000
	cfg.Ollama.Host = "http://192.168.0.162:11434"
	cfg.Ollama.Model = "deepseek-r1"
	return cfg
}

func newTestServer(cfg *config.Config, stub *stubLLM, deps Deps) *Server {
	deps.LLM = stub
	deps.Extractor = extract.NewService(stub)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, deps, logger)
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(testConfig(), &stubLLM{}, Deps{})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || !strings.Contains(body["message"], "running") {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestExtractSuccess(t *testing.T) {
	stub := &stubLLM{reply: `"Inception (2010)"`}
	s := newTestServer(testConfig(), stub, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/extract?q=Inception.2010.2160p.UHD.BluRay.REMUX", nil)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)

	var body ExtractionResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.OriginalInput != "Inception.2010.2160p.UHD.BluRay.REMUX" {
		t.Fatalf("expected original_input to echo q, got %q", body.OriginalInput)
	}
	if body.ExtractedName != "Inception" {
		t.Fatalf("expected cleaned name 'Inception', got %q", body.ExtractedName)
	}

	// Reserved fields serialize as null, not empty strings.
	if !strings.Contains(string(raw), `"year":null`) || !strings.Contains(string(raw), `"media_type":null`) {
		t.Fatalf("expected null year/media_type, got: %s", raw)
	}
}

func TestExtractCleansFencedAndYearReplies(t *testing.T) {
	cases := []struct {
		reply string
		want  string
	}{
		{"```The Matrix```", "The Matrix"},
		{"Breaking Bad 2008", "Breaking Bad"},
	}

	for _, tc := range cases {
		stub := &stubLLM{reply: tc.reply}
		s := newTestServer(testConfig(), stub, Deps{})

		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/extract?q=whatever", nil), -1)
		if err != nil {
			t.Fatalf("app.Test error: %v", err)
		}

		var body ExtractionResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.ExtractedName != tc.want {
			t.Fatalf("reply %q: expected %q, got %q", tc.reply, tc.want, body.ExtractedName)
		}
	}
}

func TestExtractRequiresQ(t *testing.T) {
	for _, target := range []string{"/extract", "/extract?q=", "/extract?q=%20%20"} {
		stub := &stubLLM{reply: "never used"}
		s := newTestServer(testConfig(), stub, Deps{})

		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
		if err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
		if stub.chatCalls != 0 {
			t.Fatalf("%s: expected no inference call for invalid input", target)
		}
	}
}

func TestExtractInferenceFailure(t *testing.T) {
	stub := &stubLLM{chatErr: errors.New("dial tcp: connection refused")}
	s := newTestServer(testConfig(), stub, Deps{})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/extract?q=anything", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Detail, "Error communicating with Ollama") {
		t.Fatalf("expected communication error prefix, got %q", body.Detail)
	}
	if !strings.Contains(body.Detail, "connection refused") {
		t.Fatalf("expected underlying error text, got %q", body.Detail)
	}
}

func TestHealthHealthy(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(cfg, &stubLLM{}, Deps{})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("expected healthy status, got %v", body)
	}
	if body["ollama_host"] != cfg.Ollama.Host || body["model"] != cfg.Ollama.Model {
		t.Fatalf("expected configured host/model in payload, got %v", body)
	}
}

func TestHealthBackendDown(t *testing.T) {
	stub := &stubLLM{listErr: errors.New("no route to host")}
	s := newTestServer(testConfig(), stub, Deps{})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Detail, "Ollama connection failed") || !strings.Contains(body.Detail, "no route to host") {
		t.Fatalf("unexpected detail: %q", body.Detail)
	}
}

func TestCORSAllowsAnyOriginWithCredentials(t *testing.T) {
	s := newTestServer(testConfig(), &stubLLM{}, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected origin echoed back, got %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials allowed")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(testConfig(), &stubLLM{}, Deps{})

	// Drive one request through so the middleware records something.
	if _, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1); err != nil {
		t.Fatalf("app.Test error: %v", err)
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "mediarr_http_requests_total") {
		t.Fatalf("expected request counters in metrics output, got:\n%s", raw)
	}
}

// fakeQB stands in for a qBittorrent instance.
func fakeQB(t *testing.T, addedCategory *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/auth/login":
			w.Write([]byte("Ok."))
		case "/api/v2/torrents/createCategory":
			w.WriteHeader(http.StatusOK)
		case "/api/v2/torrents/add":
			r.ParseForm()
			if addedCategory != nil {
				*addedCategory = r.PostFormValue("category")
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func fakeRadarr(t *testing.T, lookupTerm *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v3/movie/lookup":
			if lookupTerm != nil {
				*lookupTerm = r.URL.Query().Get("term")
			}
			json.NewEncoder(w).Encode([]radarr.SearchResult{
				{Title: "Inception", TitleSlug: "inception", Year: 2010, TMDBID: 27205},
			})
		case r.URL.Path == "/api/v3/rootfolder":
			json.NewEncoder(w).Encode([]radarr.RootFolder{{ID: 1, Path: "/movies"}})
		case r.URL.Path == "/api/v3/qualityprofile":
			json.NewEncoder(w).Encode([]radarr.QualityProfile{{ID: 1, Name: "Any"}})
		case r.URL.Path == "/api/v3/movie" && r.Method == http.MethodPost:
			var m radarr.Movie
			json.NewDecoder(r.Body).Decode(&m)
			m.ID = 42
			json.NewEncoder(w).Encode(m)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func fakeSonarr(t *testing.T, lookupTerm *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v3/series/lookup":
			if lookupTerm != nil {
				*lookupTerm = r.URL.Query().Get("term")
			}
			json.NewEncoder(w).Encode([]sonarr.SearchResult{
				{Title: "Breaking Bad", TitleSlug: "breaking-bad", Year: 2008, TVDBID: 81189},
			})
		case r.URL.Path == "/api/v3/rootfolder":
			json.NewEncoder(w).Encode([]sonarr.RootFolder{{ID: 1, Path: "/tv"}})
		case r.URL.Path == "/api/v3/qualityprofile":
			json.NewEncoder(w).Encode([]sonarr.QualityProfile{{ID: 1, Name: "Any"}})
		case r.URL.Path == "/api/v3/series" && r.Method == http.MethodPost:
			var sr sonarr.Series
			json.NewDecoder(r.Body).Decode(&sr)
			sr.ID = 7
			json.NewEncoder(w).Encode(sr)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func postJSON(t *testing.T, s *Server, target, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func TestAddTorrentMovieFlow(t *testing.T) {
	var category, term string
	qbSrv := fakeQB(t, &category)
	defer qbSrv.Close()
	radarrSrv := fakeRadarr(t, &term)
	defer radarrSrv.Close()

	stub := &stubLLM{reply: "Inception"}
	s := newTestServer(testConfig(), stub, Deps{
		Torrents: qbittorrent.NewClient(qbSrv.URL, "admin", "secret"),
		Radarr:   radarr.NewClient(radarrSrv.URL, "key"),
	})

	resp := postJSON(t, s, "/api/torrent",
		`{"magnet_link":"magnet:?xt=urn:btih:abc&dn=Inception.2010.1080p.BluRay.x264-SPARKS"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AddTorrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || !body.AddedToLibrary {
		t.Fatalf("unexpected response: %+v", body)
	}
	if body.Category != "radarr" || category != "radarr" {
		t.Fatalf("expected radarr category, got response=%q qb=%q", body.Category, category)
	}
	if body.MediaTitle != "Inception" {
		t.Fatalf("unexpected media title: %q", body.MediaTitle)
	}
	if term != "Inception" {
		t.Fatalf("expected lookup by extracted title, got %q", term)
	}
	if !strings.Contains(body.Message, "Radarr") {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestAddTorrentTVFallsBackWhenInferenceFails(t *testing.T) {
	var category, term string
	qbSrv := fakeQB(t, &category)
	defer qbSrv.Close()
	sonarrSrv := fakeSonarr(t, &term)
	defer sonarrSrv.Close()

	stub := &stubLLM{chatErr: errors.New("ollama down")}
	s := newTestServer(testConfig(), stub, Deps{
		Torrents: qbittorrent.NewClient(qbSrv.URL, "admin", "secret"),
		Sonarr:   sonarr.NewClient(sonarrSrv.URL, "key"),
	})

	resp := postJSON(t, s, "/api/torrent",
		`{"magnet_link":"magnet:?xt=urn:btih:abc&dn=Breaking.Bad.S01E01.720p.WEB-DL"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AddTorrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Category != "sonarr" || category != "sonarr" {
		t.Fatalf("expected sonarr category, got response=%q qb=%q", body.Category, category)
	}
	if term != "Breaking Bad" {
		t.Fatalf("expected regex-cleaned fallback term, got %q", term)
	}
	if !body.AddedToLibrary {
		t.Fatalf("expected library add via fallback title, got %+v", body)
	}
}

func TestAddTorrentHonorsAddToLibraryFalse(t *testing.T) {
	var category string
	qbSrv := fakeQB(t, &category)
	defer qbSrv.Close()

	radarrCalled := false
	radarrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		radarrCalled = true
		http.Error(w, "should not be called", http.StatusTeapot)
	}))
	defer radarrSrv.Close()

	stub := &stubLLM{reply: "Inception"}
	s := newTestServer(testConfig(), stub, Deps{
		Torrents: qbittorrent.NewClient(qbSrv.URL, "admin", "secret"),
		Radarr:   radarr.NewClient(radarrSrv.URL, "key"),
	})

	resp := postJSON(t, s, "/api/torrent",
		`{"magnet_link":"magnet:?xt=urn:btih:abc&dn=Inception.2010.1080p.BluRay","add_to_library":false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AddTorrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AddedToLibrary {
		t.Fatalf("expected no library add, got %+v", body)
	}
	if radarrCalled {
		t.Fatalf("radarr should not have been called")
	}
	if category != "radarr" {
		t.Fatalf("torrent should still be categorized, got %q", category)
	}
}

func TestAddTorrentValidation(t *testing.T) {
	s := newTestServer(testConfig(), &stubLLM{}, Deps{})

	cases := []struct {
		name string
		body string
	}{
		{"missing magnet", `{}`},
		{"not a magnet", `{"magnet_link":"http://example.com/file.torrent"}`},
		{"bad type", `{"magnet_link":"magnet:?xt=urn:btih:abc","type":"podcast"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, s, "/api/torrent", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body AddTorrentResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatalf("expected success=false")
			}
		})
	}
}

func TestAddMediaMovie(t *testing.T) {
	var term string
	radarrSrv := fakeRadarr(t, &term)
	defer radarrSrv.Close()

	s := newTestServer(testConfig(), &stubLLM{}, Deps{
		Radarr: radarr.NewClient(radarrSrv.URL, "key"),
	})

	resp := postJSON(t, s, "/api/media", `{"name":"Inception","type":"movie","year":"2010"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AddMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.MediaType != "movie" || body.MediaID != 42 {
		t.Fatalf("unexpected response: %+v", body)
	}
	if term != "Inception 2010" {
		t.Fatalf("expected year appended to lookup term, got %q", term)
	}
}

func TestAddMediaSeries(t *testing.T) {
	var term string
	sonarrSrv := fakeSonarr(t, &term)
	defer sonarrSrv.Close()

	s := newTestServer(testConfig(), &stubLLM{}, Deps{
		Sonarr: sonarr.NewClient(sonarrSrv.URL, "key"),
	})

	resp := postJSON(t, s, "/api/media", `{"name":"Breaking Bad","type":"tv"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body AddMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.MediaType != "tv" || body.MediaID != 7 {
		t.Fatalf("unexpected response: %+v", body)
	}
	if term != "Breaking Bad" {
		t.Fatalf("unexpected lookup term: %q", term)
	}
}

func TestAddMediaValidation(t *testing.T) {
	s := newTestServer(testConfig(), &stubLLM{}, Deps{})

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"type":"movie"}`},
		{"missing type", `{"name":"Inception"}`},
		{"invalid type", `{"name":"Inception","type":"album"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, s, "/api/media", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}
