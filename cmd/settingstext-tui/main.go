// Command settingstext-tui picks report parameters from a workflow in the
// terminal and writes the selection JSON on exit.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/config"
	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

var version = "dev"

type options struct {
	configPath string
	workflow   string
	prompt     string
	selection  string
	out        string
	schemaPath string
	exclude    string
	mode       string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:          "settingstext-tui",
		Short:        "Pick report parameters from a workflow interactively",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Path to YAML config file")
	f.StringVarP(&o.workflow, "workflow", "w", "", "Design-time workflow JSON file")
	f.StringVarP(&o.prompt, "prompt", "p", "", "Executed prompt JSON file for the live preview")
	f.StringVarP(&o.selection, "selection", "s", "", "Existing selection JSON file to start from")
	f.StringVarP(&o.out, "out", "o", "", "Write the selection here instead of stdout")
	f.StringVar(&o.schemaPath, "schema", "", "Node type schema: YAML, or an object_info JSON export")
	f.StringVar(&o.exclude, "exclude", "", "Node id left out of the list (usually the report node itself)")
	f.StringVarP(&o.mode, "mode", "m", "", "Preview mode (default from config)")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}

// session holds everything loaded before the program starts
type session struct {
	candidates []report.Candidate
	initial    []report.Entry
	render     renderFunc
}

func load(o *options) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.schemaPath != "" {
		cfg.SchemaPath = o.schemaPath
	}
	if o.mode == "" {
		o.mode = cfg.Mode
	}
	mode, err := report.ParseMode(o.mode)
	if err != nil {
		return nil, err
	}
	match, err := eval.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return nil, err
	}

	svcOpts := []service.Option{service.WithEvaluators(eval.NewRegistry(match))}
	var reg schema.Registry
	if cfg.SchemaPath != "" {
		loaded, err := schema.LoadFile(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		reg = loaded
		svcOpts = append(svcOpts, service.WithSchema(loaded))
	}

	workflow, err := os.ReadFile(o.workflow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.workflow, err)
	}
	design, err := graph.ParseDesign(workflow)
	if err != nil {
		return nil, err
	}

	prompt := []byte("{}")
	if o.prompt != "" {
		if prompt, err = os.ReadFile(o.prompt); err != nil {
			return nil, fmt.Errorf("read %s: %w", o.prompt, err)
		}
	}

	var initial []report.Entry
	if o.selection != "" {
		data, err := os.ReadFile(o.selection)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", o.selection, err)
		}
		sel, err := report.ParseSelection(service.SelectionBytes(data))
		if err != nil && !errors.Is(err, report.ErrNoSelection) {
			return nil, err
		}
		if sel != nil {
			initial = sel.Entries
		}
	}

	return &session{
		candidates: report.Catalog(design, reg, o.exclude),
		initial:    initial,
		render:     previewRenderer(service.New(svcOpts...), prompt, workflow, mode),
	}, nil
}

// previewRenderer reports the current selection against the loaded graphs
func previewRenderer(svc *service.Service, prompt, workflow []byte, mode report.Mode) renderFunc {
	return func(entries []report.Entry) string {
		sel, err := report.MarshalSelection(entries)
		if err != nil {
			return err.Error()
		}
		res, err := svc.Report(context.Background(), &validation.ReportRequest{
			Selection: json.RawMessage(sel),
			Prompt:    json.RawMessage(prompt),
			Workflow:  json.RawMessage(workflow),
			Mode:      string(mode),
		})
		if err != nil {
			return err.Error()
		}
		return res.Text
	}
}

func run(cmd *cobra.Command, o *options) error {
	s, err := load(o)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(newModel(s.candidates, s.initial, s.render), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	m, ok := final.(model)
	if !ok || !m.saved {
		fmt.Fprintln(cmd.ErrOrStderr(), "selection not saved")
		return nil
	}
	return save(o.out, cmd.OutOrStdout(), cmd.ErrOrStderr(), m.Entries())
}

// save writes entries as selection JSON to path, or to w when path is empty
func save(path string, w, stderr io.Writer, entries []report.Entry) error {
	data, err := report.MarshalSelection(entries)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.NewJSONLogger(stderr, logging.InfoLevel).Info("selection saved",
		logging.Path(path), logging.Count(len(entries)))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
