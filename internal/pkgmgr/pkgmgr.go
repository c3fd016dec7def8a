// Package pkgmgr ensures host tools an extraction plan depends on are
// available, installing them through the system package manager when the
// host supports it and configuration permits. All native archive formats
// extract in-process, so the manager usually has nothing to do; the
// capability exists so future formats can declare external tools.
package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/log"
)

const osReleasePath = "/etc/os-release"

// MissingToolError reports a host tool that is required but absent and
// could not be installed.
type MissingToolError struct {
	// Tool is the executable name that was looked up.
	Tool string
	// Command is a copy-pasteable install suggestion, empty when the
	// host package manager is unknown.
	Command string
}

func (e *MissingToolError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("required tool not found: %s (install with: %s)", e.Tool, e.Command)
	}
	return fmt.Sprintf("required tool not found: %s", e.Tool)
}

// Manager makes required host tools available.
type Manager interface {
	// Name identifies the manager variant.
	Name() string
	// Ensure verifies tool is runnable, installing it if the variant
	// can. A tool that remains unavailable yields *MissingToolError.
	Ensure(ctx context.Context, tool string) error
}

// EnsureAll verifies every tool in order, stopping at the first failure.
func EnsureAll(ctx context.Context, m Manager, tools []string) error {
	for _, tool := range tools {
		if err := m.Ensure(ctx, tool); err != nil {
			return err
		}
	}
	return nil
}

// Detect picks the manager for the current host: AptGet on Debian-family
// Linux with auto-install permitted, Noop everywhere else.
func Detect(cfg config.Config, logger log.Logger) Manager {
	return detect(cfg, logger, runtime.GOOS, osReleasePath)
}

func detect(cfg config.Config, logger log.Logger, goos, releasePath string) Manager {
	if goos != "linux" || !cfg.AutoInstall {
		return NewNoop()
	}
	debian, err := isDebianFamily(releasePath)
	if err != nil {
		logger.Debug("could not read os-release, tool installation disabled", "error", err)
		return NewNoop()
	}
	if !debian {
		return NewNoop()
	}
	return NewAptGet(logger)
}

// Noop only checks the PATH; it never installs anything.
type Noop struct {
	lookPath func(string) (string, error)
}

// NewNoop returns a manager that reports missing tools without
// attempting installation.
func NewNoop() *Noop {
	return &Noop{lookPath: exec.LookPath}
}

func (n *Noop) Name() string { return "noop" }

func (n *Noop) Ensure(_ context.Context, tool string) error {
	if _, err := n.lookPath(tool); err != nil {
		return &MissingToolError{Tool: tool}
	}
	return nil
}

// runnerFunc executes a host command and returns its combined output.
type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// AptGet installs missing tools with apt-get on Debian-family hosts,
// escalating through sudo or doas when not running as root.
type AptGet struct {
	run      runnerFunc
	lookPath func(string) (string, error)
	uid      func() int
	log      log.Logger
}

// NewAptGet returns an apt-get backed manager.
func NewAptGet(logger log.Logger) *AptGet {
	if logger == nil {
		logger = log.Default()
	}
	return &AptGet{
		run:      execRunner,
		lookPath: exec.LookPath,
		uid:      os.Getuid,
		log:      logger,
	}
}

func (m *AptGet) Name() string { return "apt-get" }

func (m *AptGet) Ensure(ctx context.Context, tool string) error {
	if m.present(ctx, tool) {
		return nil
	}

	argv := m.elevate([]string{"apt-get", "install", "-y", tool})
	m.log.Info("installing missing tool", "tool", tool, "command", strings.Join(argv, " "))
	if out, err := m.run(ctx, argv[0], argv[1:]...); err != nil {
		m.log.Warn("tool installation failed", "tool", tool, "error", err, "output", strings.TrimSpace(string(out)))
		return &MissingToolError{Tool: tool, Command: strings.Join(argv, " ")}
	}

	if !m.present(ctx, tool) {
		return &MissingToolError{Tool: tool, Command: strings.Join(argv, " ")}
	}
	return nil
}

// present checks the dpkg database first and falls back to the PATH;
// the dpkg query needs no elevated privileges.
func (m *AptGet) present(ctx context.Context, tool string) bool {
	out, err := m.run(ctx, "dpkg-query", "-W", "-f=${Status}", tool)
	if err == nil && strings.Contains(string(out), "install ok installed") {
		return true
	}
	_, err = m.lookPath(tool)
	return err == nil
}

// elevate prefixes argv with doas or sudo when not running as root.
// doas is preferred when available.
func (m *AptGet) elevate(argv []string) []string {
	if m.uid() == 0 {
		return argv
	}
	if _, err := m.lookPath("doas"); err == nil {
		return append([]string{"doas"}, argv...)
	}
	return append([]string{"sudo"}, argv...)
}
