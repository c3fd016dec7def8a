// Package install runs the download-and-install pipeline: resolve the
// latest release asset for the host platform, fetch it, extract the
// executable and place it in the destination directory. Stages run
// strictly in order and every temporary resource is removed before
// return, success or failure.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codexget/codexget/internal/asset"
	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/extract"
	"github.com/codexget/codexget/internal/fetch"
	"github.com/codexget/codexget/internal/log"
	"github.com/codexget/codexget/internal/pkgmgr"
	"github.com/codexget/codexget/internal/platform"
	"github.com/codexget/codexget/internal/release"
)

// Resolver picks the release asset to download.
type Resolver interface {
	Resolve(ctx context.Context, repo string, candidates []string, prefix string) (*release.Resolved, error)
}

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, destPath string, expectedSize int64) error
}

// Result summarizes a completed run.
type Result struct {
	// Tag is the release tag the asset came from.
	Tag string
	// Version is the normalized semantic version, empty for non-semver
	// tags.
	Version string
	// Asset is the selected asset filename.
	Asset string
	// Path is the installed executable, or the saved disk image for
	// passthrough assets.
	Path string
}

// Installer wires the pipeline stages together.
type Installer struct {
	cfg      config.Config
	log      log.Logger
	target   platform.Target
	resolver Resolver
	fetcher  Downloader
	manager  pkgmgr.Manager
	destDir  string
	workRoot string
}

// Option adjusts how the installer is assembled.
type Option func(*Installer)

// WithTarget overrides host platform detection.
func WithTarget(t platform.Target) Option {
	return func(ins *Installer) { ins.target = t }
}

// WithResolver replaces the GitHub-backed resolver.
func WithResolver(r Resolver) Option {
	return func(ins *Installer) { ins.resolver = r }
}

// WithDownloader replaces the HTTP fetcher.
func WithDownloader(d Downloader) Option {
	return func(ins *Installer) { ins.fetcher = d }
}

// WithManager replaces the detected package manager.
func WithManager(m pkgmgr.Manager) Option {
	return func(ins *Installer) { ins.manager = m }
}

// WithDestDir sets the installation directory. Default is the
// invocation directory.
func WithDestDir(dir string) Option {
	return func(ins *Installer) { ins.destDir = dir }
}

// WithWorkRoot sets the parent for scratch directories. Default is the
// system temp directory.
func WithWorkRoot(dir string) Option {
	return func(ins *Installer) { ins.workRoot = dir }
}

// New assembles an installer for cfg. Platform detection runs here, so
// an unsupported host fails before any network traffic.
func New(cfg config.Config, logger log.Logger, opts ...Option) (*Installer, error) {
	if logger == nil {
		logger = log.Default()
	}
	ins := &Installer{cfg: cfg, log: logger, destDir: "."}
	for _, opt := range opts {
		opt(ins)
	}

	if ins.target == (platform.Target{}) {
		t, err := platform.Host(cfg.Libc)
		if err != nil {
			return nil, err
		}
		ins.target = t
	}
	if ins.resolver == nil {
		ins.resolver = release.New(cfg, release.WithLogger(logger))
	}
	if ins.fetcher == nil {
		ins.fetcher = fetch.New(nil, logger)
	}
	if ins.manager == nil {
		ins.manager = pkgmgr.Detect(cfg, logger)
	}
	return ins, nil
}

// Run executes the pipeline and returns where the executable landed.
func (ins *Installer) Run(ctx context.Context) (*Result, error) {
	candidates, err := asset.Candidates(ins.target, ins.cfg.Format)
	if err != nil {
		return nil, err
	}
	ins.log.Info("resolving latest release",
		"repo", ins.cfg.Repo, "target", ins.target.Triple())

	resolved, err := ins.resolver.Resolve(ctx, ins.cfg.Repo, candidates, asset.TargetPrefix(ins.target))
	if err != nil {
		return nil, err
	}
	ins.log.Info("selected asset",
		"tag", resolved.Tag, "asset", resolved.Name, "size", resolved.Size)

	plan := extract.PlanFor(resolved.Name, ins.target)
	if err := pkgmgr.EnsureAll(ctx, ins.manager, plan.RequiredTools()); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(ins.workRoot, "codexget-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			ins.log.Warn("could not remove scratch directory", "path", workDir, "error", rmErr)
		}
	}()

	archivePath := filepath.Join(workDir, resolved.Name)
	if err := ins.fetcher.Download(ctx, resolved.URL, archivePath, resolved.Size); err != nil {
		return nil, err
	}

	// Disk images are delivered intact; nothing to extract or chmod.
	if plan.Kind == extract.KindPassthrough {
		dest := filepath.Join(ins.destDir, resolved.Name)
		if err := moveFile(archivePath, dest); err != nil {
			return nil, fmt.Errorf("saving disk image to %s: %w", dest, err)
		}
		ins.log.Info("disk image saved", "tag", resolved.Tag, "path", dest)
		return &Result{Tag: resolved.Tag, Version: resolved.Version, Asset: resolved.Name, Path: dest}, nil
	}

	extractDir := filepath.Join(workDir, "extract")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating extraction directory: %w", err)
	}

	binPath, err := extract.Run(plan, archivePath, extractDir)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(ins.destDir, asset.Prefix+ins.target.ExeSuffix())
	if err := Place(binPath, dest, ins.log); err != nil {
		return nil, err
	}

	if ins.cfg.KeepArchive {
		kept := filepath.Join(ins.destDir, resolved.Name)
		if err := copyFile(archivePath, kept); err != nil {
			return nil, fmt.Errorf("retaining archive at %s: %w", kept, err)
		}
		ins.log.Info("archive retained", "path", kept)
	}

	ins.log.Info("installed", "tag", resolved.Tag, "asset", resolved.Name, "path", dest)
	return &Result{Tag: resolved.Tag, Version: resolved.Version, Asset: resolved.Name, Path: dest}, nil
}
