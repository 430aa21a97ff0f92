package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const expressPackument = `{
	"name": "express",
	"dist-tags": {"latest": "2.5.0"},
	"versions": {
		"2.0.0": {"name": "express", "version": "2.0.0", "dist": {"tarball": "https://r.example/express/-/express-2.0.0.tgz"}},
		"2.5.0": {"name": "express", "version": "2.5.0", "dependencies": {"mime": ">= 0.0.1"}, "deprecated": "use 3.x"}
	}
}`

// TestNewClient_BaseURL tests URL normalization
func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://registry.yarnpkg.com", "https://registry.yarnpkg.com"},
		{"https://registry.yarnpkg.com/", "https://registry.yarnpkg.com"},
		{"https://registry.yarnpkg.com//", "https://registry.yarnpkg.com/"},
		{"http://localhost:8080/", "http://localhost:8080"},
	}

	for _, tt := range tests {
		c := NewClient(tt.input)
		if c.BaseURL() != tt.expected {
			t.Errorf("NewClient(%q).BaseURL() = %q, want %q", tt.input, c.BaseURL(), tt.expected)
		}
	}
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient("https://example.com")
	if !c.validateResponses {
		t.Error("Default client should have validation enabled")
	}
	if !c.abbreviated {
		t.Error("Default client should request abbreviated metadata")
	}
	if c.client.Timeout != DefaultRequestTimeout {
		t.Errorf("Timeout = %v, want %v", c.client.Timeout, DefaultRequestTimeout)
	}

	c = NewClient("https://example.com", WithValidation(false), WithAbbreviatedMetadata(false), WithTimeout(-1))
	if c.validateResponses || c.abbreviated {
		t.Error("options did not disable validation and abbreviated metadata")
	}
	if c.client.Timeout != DefaultRequestTimeout {
		t.Errorf("negative timeout should fall back to default, got %v", c.client.Timeout)
	}

	custom := &http.Client{Timeout: 5 * time.Second}
	c = NewClient("https://example.com", WithHTTPClient(custom))
	if c.client != custom {
		t.Error("WithHTTPClient did not install the custom client")
	}
}

func TestPackumentURL(t *testing.T) {
	c := NewClient("https://registry.yarnpkg.com/")
	tests := map[string]string{
		"express":     "https://registry.yarnpkg.com/express",
		"@types/node": "https://registry.yarnpkg.com/@types%2fnode",
	}
	for name, want := range tests {
		if got := c.PackumentURL(name); got != want {
			t.Errorf("PackumentURL(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestGetPackument_Success(t *testing.T) {
	var gotAccept, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/express" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, expressPackument)
	}))
	defer server.Close()

	c := NewClient(server.URL, WithUserAgent("tinypm-test"))
	p, err := c.GetPackument(context.Background(), "express")
	if err != nil {
		t.Fatalf("GetPackument() error = %v", err)
	}

	if p.Name != "express" {
		t.Errorf("Name = %q, want express", p.Name)
	}
	if got := p.VersionStrings(); len(got) != 2 || got[0] != "2.0.0" || got[1] != "2.5.0" {
		t.Errorf("VersionStrings() = %v", got)
	}
	if !p.IsDeprecated("2.5.0") || p.IsDeprecated("2.0.0") {
		t.Error("deprecation flags not decoded")
	}
	if !strings.Contains(gotAccept, "application/vnd.npm.install-v1+json") {
		t.Errorf("Accept = %q, want abbreviated metadata", gotAccept)
	}
	if gotUA != "tinypm-test" {
		t.Errorf("User-Agent = %q, want tinypm-test", gotUA)
	}
}

func TestGetPackument_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetPackument(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetPackument() succeeded for a 404")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v is not a *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestGetPackument_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "broken", "versions": [`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetPackument(context.Background(), "broken")
	if err == nil || !strings.Contains(err.Error(), "failed to parse packument") {
		t.Errorf("GetPackument() error = %v, want parse error", err)
	}
}

func TestGetPackument_ValidationToggle(t *testing.T) {
	// The dist-tag points at a version that does not exist.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "odd", "dist-tags": {"latest": "9.9.9"}, "versions": {"1.0.0": {}}}`)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).GetPackument(context.Background(), "odd"); err == nil {
		t.Error("validating client accepted an invalid packument")
	}
	if _, err := NewClient(server.URL, WithValidation(false)).GetPackument(context.Background(), "odd"); err != nil {
		t.Errorf("non-validating client error = %v", err)
	}
}

func TestGetPackument_CachesAndDeduplicates(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		fmt.Fprint(w, expressPackument)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetPackument(ctx, "express"); err != nil {
				t.Errorf("GetPackument() error = %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if _, err := c.GetPackument(ctx, "express"); err != nil {
		t.Fatalf("cached GetPackument() error = %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}

	c.ClearCache()
	if _, err := c.GetPackument(ctx, "express"); err != nil {
		t.Fatalf("GetPackument() after ClearCache error = %v", err)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("server saw %d requests after ClearCache, want 2", n)
	}
}

func TestGetPackument_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, expressPackument)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(server.URL).GetPackument(ctx, "express"); !errors.Is(err, context.Canceled) {
		t.Errorf("GetPackument() error = %v, want context.Canceled", err)
	}
}

func TestGetTarball(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dayjs/-/dayjs-1.11.13.tgz" {
			_, _ = w.Write([]byte("tarball-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	data, err := c.GetTarball(context.Background(), DefaultTarballURL(server.URL, "dayjs", "1.11.13"))
	if err != nil {
		t.Fatalf("GetTarball() error = %v", err)
	}
	if string(data) != "tarball-bytes" {
		t.Errorf("GetTarball() = %q", data)
	}

	if _, err := c.GetTarball(context.Background(), server.URL+"/nope.tgz"); err == nil {
		t.Error("GetTarball() succeeded for a 404")
	}
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/express" {
			fmt.Fprint(w, expressPackument)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewClient(server.URL, WithMetrics(m))
	ctx := context.Background()

	_, _ = c.GetPackument(ctx, "express")
	_, _ = c.GetPackument(ctx, "express")
	_, _ = c.GetPackument(ctx, "missing")

	if got := testutil.ToFloat64(m.requests.WithLabelValues(kindPackument, "ok")); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues(kindPackument, "not_found")); got != 1 {
		t.Errorf("not_found requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}

	var nilMetrics *Metrics
	nilMetrics.observe(kindTarball, time.Now(), nil)
	nilMetrics.cacheHit()
}
