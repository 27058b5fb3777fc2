package testkit

// runner.go: Run executes a single scenario; RunDir runs every scenario in
// a directory as subtests against one server.

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
)

// ─── Public API ───────────────────────────────────────────────────────────────

// Serve mounts target on a fresh engine behind an httptest server, closed
// when the test ends.
func Serve(t *testing.T, target any, opts ...bridge.Option) *httptest.Server {
	t.Helper()

	srv := engine.New(engine.DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := bridge.Mount(srv, target, opts...); err != nil {
		t.Fatalf("testkit: mount: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// Run executes the scenario file at scenarioPath against target.
func Run(t *testing.T, target any, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}
	ts := Serve(t, target)
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, ts.URL, s)
	})
}

// RunDir runs every scenario in dir as a t.Run subtest. Scenario files
// that fail to parse are reported as failures, not fatal.
func RunDir(t *testing.T, target any, dir string) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	if len(scenarios) == 0 && len(errs) > 0 {
		t.Fatalf("%v", errs[0])
	}
	for _, err := range errs {
		t.Errorf("%v", err)
	}

	ts := Serve(t, target)
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, ts.URL, s)
		})
	}
}

// ─── Internal execution ───────────────────────────────────────────────────────

func runScenario(t *testing.T, baseURL string, s *Scenario) {
	t.Helper()

	var reqBody io.Reader
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(strings.ToUpper(s.RequestMethod), baseURL+s.RequestURL, reqBody)
	if err != nil {
		t.Fatalf("[%s] build request: %v", s.Name, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("[%s] request failed: %v", s.Name, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("[%s] read response: %v", s.Name, err)
	}

	AssertStatusCode(t, s, res.StatusCode)
	AssertHeaders(t, s, res.Header)

	switch {
	case s.ResponseText != nil:
		AssertTextBody(t, s, *s.ResponseText, body)
	case s.ResponseBodyPath() != "":
		expected, err := os.ReadFile(s.ResponseBodyPath())
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, s.ResponseBodyPath(), err)
			return
		}
		AssertJSONBody(t, s, expected, body)
	}
}
