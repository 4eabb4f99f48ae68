package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect/collecttest"
	"github.com/matzehuels/stackresolve/pkg/download"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/observability"
	"github.com/matzehuels/stackresolve/pkg/report"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/session"
)

// setupServer serves g:root:1 -> g:a:1 plus versions of g:v from a
// file:// repository.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	remoteDir := t.TempDir()
	for _, c := range []string{"g:root:1", "g:a:1"} {
		p := filepath.Join(remoteDir, filepath.FromSlash(repository.ArtifactPath(collecttest.Dep(c).Artifact)))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(c), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	repo := collecttest.New()
	repo.Add("g:root:1", collecttest.Dep("g:a:1"))
	repo.Add("g:a:1")
	for _, v := range []string{"1.0", "1.5", "2.0"} {
		repo.Add("g:v:" + v)
	}

	quiet := log.New(io.Discard)
	remote := repository.Remote{ID: "files", URL: "file://" + filepath.ToSlash(remoteDir)}
	sess, err := session.New(repository.NewLocal(t.TempDir()), []repository.Remote{remote}, session.Options{
		Adapters: func(*download.Downloader, cache.Cache, *log.Logger) session.Adapters {
			return session.Adapters{Descriptors: repo, Versions: repo}
		},
		Logger: quiet,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sess.Close() })

	store, err := report.NewMemoryStore(0)
	if err != nil {
		t.Fatal(err)
	}
	index, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	observability.NewPrometheusHooks(reg)

	srv := httptest.NewServer(New(sess, store, Options{Cache: index, Gatherer: reg, Logger: quiet}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/resolve", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /resolve: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestResolveAndReports(t *testing.T) {
	srv := setupServer(t)

	resp, data := post(t, srv, `{"coordinate": "g:root:1", "scope": "main-runtime"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.Artifacts) != 2 || rep.Artifacts[0].Coordinate != "g:root:jar:1" {
		t.Errorf("artifacts = %+v", rep.Artifacts)
	}
	if resp.Header.Get("Location") != "/reports/"+rep.ID {
		t.Errorf("Location = %s", resp.Header.Get("Location"))
	}

	resp, data = post(t, srv, `{"coordinate": "g:root:1", "scope": "main-runtime"}`)
	var again report.Report
	json.Unmarshal(data, &again)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Cache") != "hit" || again.ID != rep.ID {
		t.Errorf("repeated request: status %d cache %q id %s", resp.StatusCode, resp.Header.Get("X-Cache"), again.ID)
	}

	resp, data = post(t, srv, `{"coordinate": "g:root:1", "refresh": true}`)
	var fresh report.Report
	json.Unmarshal(data, &fresh)
	if resp.StatusCode != http.StatusCreated || fresh.ID == rep.ID {
		t.Errorf("refresh: status %d id %s", resp.StatusCode, fresh.ID)
	}

	resp, data = get(t, srv, "/reports/"+rep.ID)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), rep.ID) {
		t.Errorf("GET report: %d %s", resp.StatusCode, data)
	}

	resp, data = get(t, srv, "/reports?limit=1")
	var list []report.Report
	json.Unmarshal(data, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 || list[0].ID != fresh.ID {
		t.Errorf("list: %d %s", resp.StatusCode, data)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/reports/"+rep.ID, nil)
	dresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	dresp.Body.Close()
	if dresp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", dresp.StatusCode)
	}

	resp, data = get(t, srv, "/reports/"+rep.ID)
	var body errorBody
	json.Unmarshal(data, &body)
	if resp.StatusCode != http.StatusNotFound || body.Code != errs.ErrCodeReportNotFound {
		t.Errorf("deleted report: %d %s", resp.StatusCode, data)
	}
}

func TestResolveErrors(t *testing.T) {
	srv := setupServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		code   errs.Code
	}{
		{"bad json", `{`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unknown field", `{"coordinate": "g:a:1", "color": "red"}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"no root", `{}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"two roots", `{"coordinate": "g:a:1", "dependencies": ["g:a:1"]}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"bad coordinate", `{"coordinate": "g"}`, http.StatusBadRequest, errs.ErrCodeInvalidCoordinate},
		{"bad scope", `{"coordinate": "g:a:1", "scope": "everything"}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"bad type", `{"coordinate": "g:a:1", "types": ["bootpath"]}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unknown root", `{"coordinate": "g:nope:1"}`, http.StatusUnprocessableEntity, errs.ErrCodeDependencyCollection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, srv, tt.body)
			var body errorBody
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
			if resp.StatusCode != tt.status || body.Code != tt.code {
				t.Errorf("got %d %s, want %d %s", resp.StatusCode, body.Code, tt.status, tt.code)
			}
		})
	}
}

func TestDependencyList(t *testing.T) {
	srv := setupServer(t)
	resp, data := post(t, srv, `{"dependencies": ["g:a:1"], "types": ["classpath", "modulepath"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var rep report.Report
	json.Unmarshal(data, &rep)
	if len(rep.Artifacts) != 1 || len(rep.Paths["classpath"]) != 1 {
		t.Errorf("report = %+v", rep)
	}
	if _, ok := rep.Paths["modulepath"]; !ok {
		t.Error("modulepath missing")
	}
}

func TestVersions(t *testing.T) {
	srv := setupServer(t)
	tests := []struct {
		query  string
		status int
		want   string
	}{
		{"", http.StatusOK, "1.0,1.5,2.0"},
		{"?range=[1.0,2.0)", http.StatusOK, "1.0,1.5"},
		{"?range=[2.0,1.0]", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		resp, data := get(t, srv, "/versions/g/v"+tt.query)
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d: %s", tt.query, resp.StatusCode, data)
			continue
		}
		if tt.status != http.StatusOK {
			continue
		}
		var out VersionsResponse
		json.Unmarshal(data, &out)
		if got := strings.Join(out.Versions, ","); got != tt.want {
			t.Errorf("%s: versions = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := setupServer(t)
	if resp, _ := get(t, srv, "/healthz"); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	post(t, srv, `{"coordinate": "g:root:1"}`)
	resp, data := get(t, srv, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), "# HELP stackresolve_") {
		t.Errorf("metrics output lacks stackresolve collectors:\n%s", data)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errs.Code]int{
		errs.ErrCodeVersionParse:         http.StatusBadRequest,
		errs.ErrCodeReportNotFound:       http.StatusNotFound,
		errs.ErrCodeDependencyResolution: http.StatusUnprocessableEntity,
		errs.ErrCodeOffline:              http.StatusBadGateway,
		errs.ErrCodeTimeout:              http.StatusGatewayTimeout,
		errs.ErrCodeInternal:             http.StatusInternalServerError,
		"":                               http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", code, got, want)
		}
	}
}
