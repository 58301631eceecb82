package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/config"
	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
)

// version is set at build time via -ldflags.
var version = "dev"

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	logLevel   string
	schemaPath string
}

// app is what a subcommand needs after the root has loaded configuration
type app struct {
	cfg    *config.Config
	logger logging.Logger
	stderr io.Writer
	schema *schema.MapRegistry
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:   "settingstext",
		Short: "Render the effective settings of a node-graph workflow as text",
		Long: `settingstext resolves selected node parameters of a workflow through
links, relays and computed nodes, and renders them as a report.

The authoritative graph ("prompt") is the executed node map; the design-time
graph ("workflow") supplies titles, muted/bypassed state and nodes missing
from the prompt.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.LogLevel = g.logLevel
			}
			if g.schemaPath != "" {
				cfg.SchemaPath = g.schemaPath
			}
			a.cfg = cfg
			a.stderr = cmd.ErrOrStderr()
			a.logger = logging.NewJSONLogger(a.stderr, logging.ParseLevel(cfg.LogLevel))
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "Path to YAML config file")
	f.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	f.StringVar(&g.schemaPath, "schema", "", "Node type schema: YAML, or an object_info JSON export")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newSelectAllCmd(a))
	root.AddCommand(newServeCmd(a))
	root.Version = version
	return root
}

// newService builds the service described by the loaded configuration
func (a *app) newService(opts ...service.Option) (*service.Service, error) {
	mode, err := eval.ParseMatchMode(a.cfg.MatchMode)
	if err != nil {
		return nil, err
	}
	base := []service.Option{
		service.WithLogger(a.logger),
		service.WithEvaluators(eval.NewRegistry(mode)),
	}
	reg, err := a.loadSchema()
	if err != nil {
		return nil, err
	}
	if reg != nil {
		base = append(base, service.WithSchema(reg))
	}
	return service.New(append(base, opts...)...), nil
}

// loadSchema reads the configured schema once. No path means no schema.
func (a *app) loadSchema() (*schema.MapRegistry, error) {
	if a.schema != nil || a.cfg.SchemaPath == "" {
		return a.schema, nil
	}
	reg, err := schema.LoadFile(a.cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("schema loaded", logging.Path(a.cfg.SchemaPath), logging.Count(reg.Len()))
	a.schema = reg
	return reg, nil
}

// reportMode picks the flag value over the configured default
func (a *app) reportMode(flag string) (report.Mode, error) {
	if flag == "" {
		flag = a.cfg.Mode
	}
	return report.ParseMode(flag)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
