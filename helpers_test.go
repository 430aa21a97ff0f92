package tinypm

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// fixtureRegistry returns a file:// URL for testdata/registry.
func fixtureRegistry(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", "registry"))
	if err != nil {
		t.Fatal(err)
	}
	return pathToFileURL(abs)
}

// mockRegistry serves testdata/registry over HTTP and counts requests per path.
type mockRegistry struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string]int
	// status, if set for a package name, is returned instead of the packument.
	status map[string]int
}

func newMockRegistry(t *testing.T) *mockRegistry {
	t.Helper()
	m := &mockRegistry{requests: make(map[string]int), status: make(map[string]int)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *mockRegistry) serve(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests[name]++
	status := m.status[name]
	m.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	data, err := os.ReadFile(filepath.Join("testdata", "registry", registry.CacheFileName(name)+".json"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (m *mockRegistry) requestCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[name]
}

func (m *mockRegistry) setStatus(name string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[name] = status
}

// readGolden returns the non-empty lines of a golden file.
func readGolden(t *testing.T, name string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "golden", name))
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
