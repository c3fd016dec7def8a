package functional

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/codexget/codexget/internal/asset"
	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/platform"
)

// binaryPayload is the executable content served inside fixture assets.
const binaryPayload = "#!/bin/sh\necho fake-codex-payload\n"

type fakeServer struct {
	*httptest.Server
}

type releaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int    `json:"size"`
}

type releaseDoc struct {
	TagName string         `json:"tag_name"`
	Assets  []releaseAsset `json:"assets"`
}

// newReleaseServer serves a latest-release document and its asset
// downloads from one local endpoint.
func newReleaseServer(tag string, assets map[string][]byte) *fakeServer {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name, ok := strings.CutPrefix(r.URL.Path, "/download/"); ok {
			data, ok := assets[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/releases/latest") {
			http.NotFound(w, r)
			return
		}
		doc := releaseDoc{TagName: tag}
		for name, data := range assets {
			doc.Assets = append(doc.Assets, releaseAsset{
				Name:               name,
				BrowserDownloadURL: "http://" + r.Host + "/download/" + name,
				Size:               len(data),
			})
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	return &fakeServer{srv}
}

func hostTarget() (platform.Target, error) {
	return platform.Host(config.DefaultLibc)
}

func tarGzAsset(inner string, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{Name: inner, Mode: 0o755, Size: int64(len(payload)), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write(payload); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zstAsset(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func aReleaseWithTarGzAsset(ctx context.Context, tag string) (context.Context, error) {
	state := getState(ctx)
	target, err := hostTarget()
	if err != nil {
		return ctx, fmt.Errorf("this host has no release target: %w", err)
	}

	archive, err := tarGzAsset(asset.RawName(target), []byte(binaryPayload))
	if err != nil {
		return ctx, err
	}
	name := asset.Name(target, "tar.gz")
	state.assetName = name
	state.server = newReleaseServer(tag, map[string][]byte{name: archive})
	return ctx, nil
}

func aReleaseWithZstAsset(ctx context.Context, tag string) (context.Context, error) {
	state := getState(ctx)
	target, err := hostTarget()
	if err != nil {
		return ctx, fmt.Errorf("this host has no release target: %w", err)
	}

	stream, err := zstAsset([]byte(binaryPayload))
	if err != nil {
		return ctx, err
	}
	name := asset.Name(target, "zst")
	state.assetName = name
	state.server = newReleaseServer(tag, map[string][]byte{name: stream})
	return ctx, nil
}

func aReleaseWithOnlyAsset(ctx context.Context, tag, name string) (context.Context, error) {
	state := getState(ctx)
	state.assetName = name
	state.server = newReleaseServer(tag, map[string][]byte{name: []byte("unrelated")})
	return ctx, nil
}

func theAPIIsRateLimited(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	state.server = &fakeServer{srv}
	return ctx, nil
}

func theEnvironmentVariableIs(ctx context.Context, name, value string) (context.Context, error) {
	state := getState(ctx)
	state.env[name] = value
	return ctx, nil
}

func iRunCodexget(ctx context.Context) (context.Context, error) {
	return runBinary(ctx, nil)
}

func iRunCodexgetWithArguments(ctx context.Context, arguments string) (context.Context, error) {
	return runBinary(ctx, strings.Fields(arguments))
}

func runBinary(ctx context.Context, args []string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	cmd := exec.Command(state.binPath, args...)
	cmd.Dir = state.workDir

	// Start from a neutral environment so host configuration cannot leak
	// into scenarios; exec keeps the last value for duplicate keys.
	env := append(os.Environ(),
		config.EnvRepo+"=", config.EnvLibc+"=", config.EnvFormat+"=",
		config.EnvKeepArchive+"=", config.EnvAutoInstall+"=",
		config.EnvAPITimeout+"=", config.EnvAPIURL+"=", config.EnvGitHubToken+"=",
	)
	if state.server != nil {
		env = append(env, config.EnvAPIURL+"="+state.server.URL)
	}
	for k, v := range state.env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
		state.exitCode = exitErr.ExitCode()
	} else {
		state.exitCode = 0
	}
	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theErrorOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr not to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func installedPath(state *testState) (string, error) {
	target, err := hostTarget()
	if err != nil {
		return "", err
	}
	return filepath.Join(state.workDir, "codex"+target.ExeSuffix()), nil
}

func theInstalledExecutableExists(ctx context.Context) error {
	state := getState(ctx)
	path, err := installedPath(state)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("expected executable at %q: %w\nstderr: %s", path, err, state.stderr)
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%q is not executable (mode %v)", path, fi.Mode())
	}
	return nil
}

func theInstalledExecutableContains(ctx context.Context, text string) error {
	state := getState(ctx)
	path, err := installedPath(state)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("expected %q to contain %q", path, text)
	}
	return nil
}

func noExecutableIsInstalled(ctx context.Context) error {
	state := getState(ctx)
	path, err := installedPath(state)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return fmt.Errorf("expected no executable at %q", path)
	}
	return nil
}

func theArchiveIsRetained(ctx context.Context) error {
	state := getState(ctx)
	if state.assetName == "" {
		return fmt.Errorf("no asset was served in this scenario")
	}
	path := filepath.Join(state.workDir, state.assetName)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("expected retained archive at %q: %w", path, err)
	}
	return nil
}

func theArchiveIsNotRetained(ctx context.Context) error {
	state := getState(ctx)
	if state.assetName == "" {
		return fmt.Errorf("no asset was served in this scenario")
	}
	path := filepath.Join(state.workDir, state.assetName)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return fmt.Errorf("expected %q to be cleaned up", path)
	}
	return nil
}
