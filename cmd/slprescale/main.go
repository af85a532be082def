package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/slprescale/internal/adapters/progress"
	"github.com/bft-labs/slprescale/internal/cliconfig"
	"github.com/bft-labs/slprescale/pkg/log"
	"github.com/bft-labs/slprescale/pkg/slprescale"
)

const longHelp = `Rescale SLEAP label files (.slp, .pkg.slp) from one frame resolution to another.

A rescale multiplies every labeled point by new/old size (missing points are
left untouched), resizes embedded frames and rewrites the frame size recorded
in each video's metadata. Output is written to a scratch copy and replaces the
destination only when the whole run succeeds.

Configuration is read from $HOME/.slprescale/config.toml, then SLPRESCALE_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  slprescale rescale labels.pkg.slp labels.3240x2890.pkg.slp
  slprescale rescale in.slp out.slp --old-width 1024 --old-height 1024 --new-width 2048 --new-height 2048 --images=false
  slprescale set-shape in.slp out.slp --width 3240 --height 2890
  slprescale inspect labels.pkg.slp --output yaml
  slprescale resize-videos ./raw ./resized --width 3240 --height 2890 --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration into subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  log.Logger
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	root := c.rootCommand()

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "slprescale: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "slprescale",
		Short:         "Rescale SLEAP label files and videos to a new resolution",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.slprescale/config.toml)")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format (auto, console, json)")
	pf.BoolVar(&c.cfg.NoProgress, "no-progress", c.cfg.NoProgress, "disable progress bars")
	pf.StringVar(&c.cfg.LedgerPath, "ledger", c.cfg.LedgerPath, `run history database ("" or "off" to disable)`)

	root.AddCommand(
		c.rescaleCommand(),
		c.setShapeCommand(),
		c.inspectCommand(),
		c.resizeVideosCommand(),
		c.historyCommand(),
	)
	return root
}

// load layers config file, environment and changed flags, then builds the
// logger.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	} else if c.cfgPath != "" {
		return fmt.Errorf("load config: %s does not exist", c.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = log.NewZerolog(log.Options{
		Level:  c.cfg.LogLevel,
		Format: c.cfg.LogFormat,
		Out:    cmd.ErrOrStderr(),
	})
	c.logger.Debug("configuration",
		log.String("config_file", cfgFile),
		log.String("ledger", c.cfg.LedgerPath),
		log.String("log_level", c.cfg.LogLevel),
	)
	return nil
}

// rescaler wires the library from the resolved config.
func (c *cli) rescaler() (*slprescale.Rescaler, error) {
	return slprescale.New(slprescale.Config{
		From:           slprescale.Resolution{Width: c.cfg.OldWidth, Height: c.cfg.OldHeight},
		To:             slprescale.Resolution{Width: c.cfg.NewWidth, Height: c.cfg.NewHeight},
		ResizeImages:   c.cfg.ResizeImages,
		JPEGQuality:    c.cfg.JPEGQuality,
		LedgerPath:     c.cfg.LedgerPath,
		RefuseRescaled: c.cfg.RefuseRescaled,
		FFmpeg:         c.cfg.FFmpegPath,
		FFprobe:        c.cfg.FFprobePath,
		QScale:         c.cfg.QScale,
		VideoInclude:   c.cfg.VideoInclude,
		SettleDelay:    c.cfg.SettleDelay,
	},
		slprescale.WithLogger(c.logger),
		slprescale.WithProgress(!c.cfg.NoProgress && progress.DefaultEnabled()),
	)
}

// signalContext is canceled on SIGINT or SIGTERM so scratch files are
// removed before exit.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
