package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codexget/codexget/internal/buildinfo"
	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/errmsg"
	"github.com/codexget/codexget/internal/install"
	"github.com/codexget/codexget/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "codexget",
	Short: "Download and install the latest codex release",
	Long: `codexget resolves the latest GitHub release of the codex CLI, picks
the asset built for this machine, downloads it and installs the
executable into the current directory as ./codex.

Configuration is read from the environment:
  CODEXGET_REPO          repository to install from (default openai/codex)
  CODEXGET_LIBC          Linux libc flavor: musl (default) or gnu
  CODEXGET_FORMAT        preferred asset format (tar.gz, zst, zip, dmg, raw)
  CODEXGET_KEEP_ARCHIVE  keep the downloaded archive next to the executable
  CODEXGET_AUTO_INSTALL  allow apt-get installs of missing host tools (default on)
  CODEXGET_API_TIMEOUT   GitHub API timeout as a Go duration (default 30s)
  GITHUB_TOKEN           token for authenticated API requests`,
	Version:       buildinfo.Version(),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg := config.FromEnv()
	logger := log.NewText(os.Stderr, slog.LevelInfo)
	log.SetDefault(logger)

	ins, err := install.New(cfg, logger)
	if err != nil {
		return err
	}
	_, err = ins.Run(ctx)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", errmsg.Format(err))
		exitWithCode(exitCode(err))
	}
}
