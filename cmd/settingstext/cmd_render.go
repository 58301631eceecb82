package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/export"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/metrics"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
	"github.com/dd0wney/cluso-settingstext/pkg/watch"
)

type renderFlags struct {
	prompt    string
	workflow  string
	selection string
	all       bool
	mode      string
	output    string
	export    bool
	watch     bool
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report for a selection of node parameters",
		Long: `Render resolves every selected (node, param) pair and prints the report.

Usage:
  settingstext render --prompt prompt.json --workflow workflow.json --selection sel.json
  settingstext render --prompt prompt.json --workflow workflow.json --all --mode table
  settingstext render -p prompt.json -s sel.json --watch

The selection is a JSON list of {"id", "param", "title"} objects, or a JSON
string holding that list. --all selects every parameter of every active
node in the workflow instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.prompt, "prompt", "p", "", "Authoritative graph JSON file (- for stdin)")
	fl.StringVarP(&f.workflow, "workflow", "w", "", "Design-time graph JSON file")
	fl.StringVarP(&f.selection, "selection", "s", "", "Selection JSON file")
	fl.BoolVar(&f.all, "all", false, "Select every parameter of the workflow")
	fl.StringVarP(&f.mode, "mode", "m", "", "Report mode: grouped, raw, raw-yaml, table, markdown (default from config)")
	fl.StringVarP(&f.output, "output", "o", "", "Write the report to this file instead of stdout")
	fl.BoolVar(&f.export, "export", false, "Also store the report in the configured export sink")
	fl.BoolVar(&f.watch, "watch", false, "Re-render whenever an input file changes")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagsMutuallyExclusive("selection", "all")
	return cmd
}

// renderer holds what one render needs so --watch can repeat it
type renderer struct {
	a        *app
	f        *renderFlags
	cmd      *cobra.Command
	svc      *service.Service
	mode     report.Mode
	exporter *export.Exporter
}

func runRender(cmd *cobra.Command, a *app, f *renderFlags) error {
	if f.selection == "" && !f.all {
		return errors.New("one of --selection or --all is required")
	}
	if f.all && f.workflow == "" {
		return errors.New("--all needs --workflow")
	}
	if f.watch && (f.prompt == "-" || f.selection == "-") {
		return errors.New("--watch needs files, not stdin")
	}

	mode, err := a.reportMode(f.mode)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	svc, err := a.newService(service.WithRecorder(reg))
	if err != nil {
		return err
	}

	r := &renderer{a: a, f: f, cmd: cmd, svc: svc, mode: mode}
	if f.export {
		sink, err := export.NewSink(cmd.Context(), a.cfg.Export)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		r.exporter = export.NewExporter(sink,
			export.WithCompression(a.cfg.Export.Compress),
			export.WithLogger(a.logger),
			export.WithRecorder(reg))
	}

	if err := r.render(cmd.Context()); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New([]string{f.prompt, f.workflow, f.selection}, func(changed []string) {
		a.logger.Info("inputs changed, re-rendering", logging.Count(len(changed)))
		reg.RecordWatchRefresh()
		if err := r.render(ctx); err != nil {
			a.logger.Error("render failed", logging.Error(err))
		}
	}, watch.WithDebounce(a.cfg.Watch.Debounce), watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return w.Run(ctx, nil)
}

func (r *renderer) render(ctx context.Context) error {
	in := r.cmd.InOrStdin()
	prompt, err := readInput(r.f.prompt, in)
	if err != nil {
		return err
	}
	workflow, err := readInput(r.f.workflow, in)
	if err != nil {
		return err
	}

	var selection []byte
	if r.f.all {
		entries, err := r.svc.SelectAll(workflow, "")
		if err != nil {
			return err
		}
		if selection, err = report.MarshalSelection(entries); err != nil {
			return err
		}
	} else if selection, err = readInput(r.f.selection, in); err != nil {
		return err
	}

	res, err := r.svc.Report(ctx, &validation.ReportRequest{
		Selection: selection,
		Prompt:    prompt,
		Workflow:  workflow,
		Mode:      string(r.mode),
	})
	if err != nil {
		return err
	}
	if err := writeOutput(r.f.output, r.cmd.OutOrStdout(), res.Text); err != nil {
		return err
	}

	if r.exporter != nil {
		location, err := r.exporter.Export(ctx, res.RunID, string(res.Mode), res.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.a.stderr, "exported to %s\n", location)
	}
	return nil
}
