package release

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/codexget/codexget/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Repo:       "openai/codex",
		APITimeout: 5 * time.Second,
	}
}

// fakeGitHub serves the latest-release endpoint for openai/codex.
func fakeGitHub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func latestReleaseJSON(tag string, names ...string) *github.RepositoryRelease {
	rel := &github.RepositoryRelease{TagName: github.String(tag)}
	for _, n := range names {
		rel.Assets = append(rel.Assets, &github.ReleaseAsset{
			Name:               github.String(n),
			BrowserDownloadURL: github.String("https://example.com/releases/download/" + tag + "/" + n),
			Size:               github.Int(1024),
		})
	}
	return rel
}

func TestLatestRelease(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/openai/codex/releases/latest") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(latestReleaseJSON("v1.2.3",
			"codex-x86_64-unknown-linux-musl.tar.gz",
			"codex-aarch64-apple-darwin.zip",
		))
	})
	defer server.Close()

	client := New(testConfig(), WithBaseURL(server.URL))

	rel, err := client.LatestRelease(context.Background(), "openai/codex")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}

	if rel.Tag != "v1.2.3" {
		t.Errorf("Tag = %q, want v1.2.3", rel.Tag)
	}
	if len(rel.Assets) != 2 {
		t.Fatalf("len(Assets) = %d, want 2", len(rel.Assets))
	}
	if rel.Assets[0].Name != "codex-x86_64-unknown-linux-musl.tar.gz" {
		t.Errorf("first asset = %q", rel.Assets[0].Name)
	}
	if rel.Assets[0].URL == "" {
		t.Error("asset URL should not be empty")
	}
}

func TestLatestReleaseSendsToken(t *testing.T) {
	var gotAuth string
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(latestReleaseJSON("v1.0.0", "codex-x86_64-unknown-linux-musl.tar.gz"))
	})
	defer server.Close()

	cfg := testConfig()
	cfg.Token = "ghp_testtoken"
	client := New(cfg, WithBaseURL(server.URL))

	if _, err := client.LatestRelease(context.Background(), "openai/codex"); err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}
	if gotAuth != "Bearer ghp_testtoken" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestLatestReleaseNotFound(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})
	defer server.Close()

	client := New(testConfig(), WithBaseURL(server.URL))

	_, err := client.LatestRelease(context.Background(), "openai/codex")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Kind != KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", apiErr.Kind)
	}
}

func TestLatestReleaseRateLimited(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1735689600")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})
	defer server.Close()

	client := New(testConfig(), WithBaseURL(server.URL))

	_, err := client.LatestRelease(context.Background(), "openai/codex")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Kind != KindRateLimit {
		t.Errorf("Kind = %v, want KindRateLimit", apiErr.Kind)
	}
	if apiErr.Suggestion() == "" {
		t.Error("rate limit errors should carry a suggestion")
	}
}

func TestLatestReleaseMalformedResponse(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	})
	defer server.Close()

	client := New(testConfig(), WithBaseURL(server.URL))

	_, err := client.LatestRelease(context.Background(), "openai/codex")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
}

func TestLatestReleaseUnreachable(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // refuse connections

	client := New(testConfig(), WithBaseURL(server.URL))

	_, err := client.LatestRelease(context.Background(), "openai/codex")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Kind != KindConnection {
		t.Errorf("Kind = %v, want KindConnection", apiErr.Kind)
	}
}

func TestLatestReleaseBadRepo(t *testing.T) {
	tests := []string{"codex", "openai/codex/extra", "/codex", "openai/", ""}

	client := New(testConfig())
	for _, repo := range tests {
		t.Run(repo, func(t *testing.T) {
			_, err := client.LatestRelease(context.Background(), repo)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want APIError", err)
			}
			if apiErr.Kind != KindValidation {
				t.Errorf("Kind = %v, want KindValidation", apiErr.Kind)
			}
		})
	}
}

func TestResolveEndToEnd(t *testing.T) {
	server := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(latestReleaseJSON("v1.2.3",
			"codex-x86_64-unknown-linux-musl.tar.gz",
			"codex-x86_64-unknown-linux-musl.zst",
		))
	})
	defer server.Close()

	client := New(testConfig(), WithBaseURL(server.URL))

	got, err := client.Resolve(context.Background(), "openai/codex", muslCandidates, muslPrefix)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name != muslPrefix+".tar.gz" {
		t.Errorf("resolved %q, want the tar.gz", got.Name)
	}
	if got.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", got.Version)
	}
}
