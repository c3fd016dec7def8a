// Package config reads codexget's environment-variable configuration into
// an immutable record that is threaded through the pipeline. There are no
// flags and no configuration files; the environment is the whole surface.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// EnvRepo overrides the GitHub repository to query, as "owner/name".
	EnvRepo = "CODEXGET_REPO"

	// EnvLibc selects the C library variant on Linux: "musl" or "gnu".
	EnvLibc = "CODEXGET_LIBC"

	// EnvFormat overrides the preferred asset format. Empty means the
	// OS default (zip on windows, tar.gz elsewhere).
	EnvFormat = "CODEXGET_FORMAT"

	// EnvKeepArchive retains the downloaded archive after installation.
	EnvKeepArchive = "CODEXGET_KEEP_ARCHIVE"

	// EnvAutoInstall permits package-manager installation of missing
	// host tools on Debian/Ubuntu-like systems.
	EnvAutoInstall = "CODEXGET_AUTO_INSTALL"

	// EnvAPITimeout configures the release-metadata request timeout.
	EnvAPITimeout = "CODEXGET_API_TIMEOUT"

	// EnvGitHubToken is sent as a bearer credential to avoid rate limits.
	EnvGitHubToken = "GITHUB_TOKEN"

	// EnvAPIURL points the release API at another base URL. Used by the
	// functional test suite to target a local fake server.
	EnvAPIURL = "CODEXGET_API_URL"

	// DefaultRepo is the repository queried when EnvRepo is unset.
	DefaultRepo = "openai/codex"

	// DefaultLibc is the Linux C library variant when EnvLibc is unset.
	DefaultLibc = "musl"

	// DefaultAPITimeout is the default release-metadata request timeout.
	DefaultAPITimeout = 30 * time.Second
)

// Config carries every run-scoped setting. Built once in main and passed
// down by value; nothing mutates it afterward.
type Config struct {
	// Repo is the GitHub repository as "owner/name".
	Repo string

	// Libc is the Linux C library variant, "musl" or "gnu".
	Libc string

	// Format is the requested asset format ("tar.gz", "zst", "zip",
	// "dmg", "raw"). Empty selects the OS default.
	Format string

	// KeepArchive retains the downloaded asset in the invocation
	// directory after installation.
	KeepArchive bool

	// AutoInstall permits apt-get installation of missing host tools.
	AutoInstall bool

	// APITimeout bounds the release-metadata API call.
	APITimeout time.Duration

	// Token is the GitHub bearer credential, empty when unset.
	Token string

	// APIBaseURL overrides the release API base URL, empty for the
	// public GitHub API.
	APIBaseURL string
}

// FromEnv builds the Config from the process environment, applying
// defaults and printing warnings to stderr for values it cannot parse.
func FromEnv() Config {
	cfg := Config{
		Repo:        DefaultRepo,
		Libc:        DefaultLibc,
		KeepArchive: getBool(EnvKeepArchive, false),
		AutoInstall: getBool(EnvAutoInstall, true),
		APITimeout:  getAPITimeout(),
		Format:      os.Getenv(EnvFormat),
		Token:       os.Getenv(EnvGitHubToken),
		APIBaseURL:  os.Getenv(EnvAPIURL),
	}

	if repo := os.Getenv(EnvRepo); repo != "" {
		cfg.Repo = repo
	}
	if libc := os.Getenv(EnvLibc); libc != "" {
		cfg.Libc = strings.ToLower(libc)
	}

	return cfg
}

// getAPITimeout reads EnvAPITimeout as a duration string like "30s" or
// "2m30s". Invalid values fall back to the default; out-of-range values
// are clamped to 1s..10m. Each case prints a warning to stderr.
func getAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// getBool reads an on/off environment variable. Accepts 1/true/yes/on and
// 0/false/no/off, case-insensitive. Unset or unrecognized values return
// the default, with a warning for the unrecognized case.
func getBool(name string, def bool) bool {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	switch strings.ToLower(envValue) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}
}
