// Package cli implements the envconv command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/config"
	"github.com/aclements/envelope/internal/convert"
	"github.com/aclements/envelope/internal/logging"
	"github.com/aclements/envelope/internal/report"
	"github.com/aclements/envelope/internal/solar"
)

// Version is set at build time.
var Version = "dev"

// env is the per-invocation state shared by the commands.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

type envKey struct{}

func getEnv(cmd *cobra.Command) *env {
	if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
		return e
	}
	return &env{cfg: &config.Config{}, log: zap.NewNop()}
}

// NewRootCmd returns the envconv command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "envconv",
		Short: "Convert legacy BDL building files to an energy-envelope model",
		Long: `envconv reads a legacy tool project (a .ctehexml or .bdl file and its
side files) and writes a normalized energy-envelope model as JSON, with
derived areas, volumes, U values and window obstruction factors.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format == "json")
			if err != nil {
				return err
			}
			if f := config.FileUsed(); f != "" {
				log.Debug("loaded config", zap.String("file", f))
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, envKey{}, &env{cfg: cfg, log: log}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = getEnv(cmd).log.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultFile+")")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console or json)")

	root.AddCommand(
		newConvertCmd(),
		newInspectCmd(),
		newShadowsCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// addPipelineFlags registers the flags that configure a conversion. Their
// values reach the command through the config.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.Bool("skip-unresolved", false, "drop records with bad attributes or geometry instead of failing")
	fs.String("climate-table", "", "YAML table of solar samples")
	fs.Float64("latitude", 0, "site latitude, degrees north (with --longitude)")
	fs.Float64("longitude", 0, "site longitude, degrees east (with --latitude)")
	fs.String("zone", "", "climate zone, replacing the project's")
	fs.String("method", string(solar.MethodClip), "obstruction method (clip or rays)")
	fs.Int("workers", 0, "obstruction workers (0 for one per CPU)")
	fs.String("obstruction-cache", "", "directory caching obstruction factors across runs")
}

// newConverter builds a converter from the loaded config.
func (e *env) newConverter() (*convert.Converter, error) {
	cfg := e.cfg
	opts := convert.Options{
		SkipUnresolved: cfg.SkipUnresolved,
		Zone:           cfg.Climate.Zone,
		Workers:        cfg.Solar.Workers,
	}
	var err error
	if opts.Method, err = solar.ParseMethod(cfg.Solar.Method); err != nil {
		return nil, err
	}
	switch {
	case cfg.Climate.Table != "":
		if opts.Climate, err = solar.LoadTableClimate(cfg.Climate.Table); err != nil {
			return nil, err
		}
	case cfg.Climate.HasLocation():
		if opts.Climate, err = solar.NewLocationClimate(*cfg.Climate.Latitude, *cfg.Climate.Longitude); err != nil {
			return nil, err
		}
	}
	if cfg.Solar.Cache != "" {
		if opts.Cache, err = solar.OpenCache(cfg.Solar.Cache, e.log.Named("cache")); err != nil {
			return nil, err
		}
	}
	return convert.New(opts, e.log), nil
}

// printWarnings writes ws one per line.
func printWarnings(w io.Writer, ws []report.Warning) {
	for _, wn := range ws {
		fmt.Fprintf(w, "warning: %s\n", wn)
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "envconv: %v\n", err)
		return 1
	}
	return 0
}
