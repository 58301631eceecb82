// Package report turns a selection of (node, parameter) pairs into the
// grouped text report, or into one of the structured and tabular renderings.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
	"github.com/dd0wney/cluso-settingstext/pkg/traversal"
)

// Mode selects the output rendering
type Mode string

const (
	ModeGrouped  Mode = "grouped"
	ModeRaw      Mode = "raw"
	ModeRawYAML  Mode = "raw-yaml"
	ModeTable    Mode = "table"
	ModeMarkdown Mode = "markdown"
)

// Modes lists every supported mode
var Modes = []Mode{ModeGrouped, ModeRaw, ModeRawYAML, ModeTable, ModeMarkdown}

// ParseMode parses a mode name; empty means grouped
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeGrouped, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown report mode %q", s)
}

// Report statuses used for metrics
const (
	StatusOK               = "ok"
	StatusInvalidJSON      = "invalid_selection"
	StatusEmpty            = "no_selection"
	StatusInvalidGraph     = "invalid_graph"
	inactiveSuffix         = " (Inactive/Subgraph)"
	missingNodeLine        = "(Node missing - deleted?)"
	groupSeparator         = "---"
	invalidGraphStatusLine = "Error: Invalid graph"
)

// Recorder receives report and resolution statistics. metrics.Registry
// implements it.
type Recorder interface {
	traversal.Recorder
	RecordReport(mode, status string, duration time.Duration)
}

// Request is one report invocation. Prompt is the authoritative graph,
// Workflow the optional design-time graph.
type Request struct {
	Selection  []byte
	Prompt     []byte
	Workflow   []byte
	Schema     schema.Registry
	Mode       Mode
	Evaluators *eval.Registry
	// RunID tags logs and exports; generated when empty
	RunID string
}

// ParamValue is one resolved parameter line
type ParamValue struct {
	Param string `json:"param"`
	traversal.Result
}

// ResolvedGroup is one node section of a report
type ResolvedGroup struct {
	ID      graph.NodeRef `json:"id"`
	Title   string        `json:"title"`
	Active  bool          `json:"active"`
	Missing bool          `json:"missing"`
	Values  []ParamValue  `json:"values,omitempty"`
}

// Result is a generated report. Err is set when a status line was
// rendered instead of a report.
type Result struct {
	RunID  string          `json:"run_id"`
	Mode   Mode            `json:"mode"`
	Text   string          `json:"report"`
	Groups []ResolvedGroup `json:"groups,omitempty"`
	Err    error           `json:"-"`
}

// Generator builds reports. It holds no per-report state and is safe for
// concurrent use; every call gets its own View and Engine.
type Generator struct {
	logger     logging.Logger
	recorder   Recorder
	evaluators *eval.Registry
	schema     schema.Registry
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) { g.logger = logging.OrDefault(l) }
}

// WithRecorder sets the statistics sink
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithEvaluators sets the default evaluator registry
func WithEvaluators(r *eval.Registry) Option {
	return func(g *Generator) { g.evaluators = r }
}

// WithSchema sets the default type schema
func WithSchema(r schema.Registry) Option {
	return func(g *Generator) { g.schema = r }
}

// NewGenerator creates a generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		logger:     logging.NewNopLogger(),
		evaluators: eval.NewRegistry(eval.MatchSubstring),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the rendered report or a one-line status
func (g *Generator) Generate(req Request) string {
	return g.Run(req).Text
}

// Run generates a report and returns it with its resolved groups
func (g *Generator) Run(req Request) *Result {
	mode := req.Mode
	if mode == "" {
		mode = ModeGrouped
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := g.logger.With(logging.RunID(runID), logging.Mode(string(mode)))
	timer := logging.StartTimer(logger, "report generated")

	res := &Result{RunID: runID, Mode: mode}
	status := StatusOK
	defer func() {
		if g.recorder != nil {
			g.recorder.RecordReport(string(mode), status, timer.Elapsed())
		}
	}()

	sel, err := ParseSelection(req.Selection)
	if err != nil {
		status = StatusEmpty
		if errors.Is(err, ErrInvalidSelection) {
			status = StatusInvalidJSON
		}
		logger.Warn("selection rejected", logging.Error(err))
		res.Text, res.Err = StatusText(err), err
		return res
	}
	for _, r := range sel.Rejected {
		logger.Warn("selection entry dropped", logging.Int("index", r.Index), logging.String("reason", r.Reason))
	}

	view, err := g.buildView(req)
	if err != nil {
		status = StatusInvalidGraph
		logger.Warn("graph rejected", logging.Error(err))
		res.Text, res.Err = invalidGraphStatusLine, err
		return res
	}

	groups := Group(sel.Entries)
	switch mode {
	case ModeRaw, ModeRawYAML:
		res.Text, err = renderRaw(view, groups, mode == ModeRawYAML)
		if err != nil {
			status = StatusInvalidGraph
			res.Text, res.Err = invalidGraphStatusLine, err
			return res
		}
	default:
		res.Groups = g.resolve(view, groups, req.Evaluators)
		switch mode {
		case ModeTable:
			res.Text = renderTable(res.Groups, false)
		case ModeMarkdown:
			res.Text = renderTable(res.Groups, true)
		default:
			res.Text = renderGrouped(res.Groups)
		}
	}

	timer.End(logging.Count(len(sel.Entries)), logging.Int("nodes", len(groups)))
	return res
}

func (g *Generator) buildView(req Request) (*graph.View, error) {
	active, err := graph.ParseActive(req.Prompt)
	if err != nil {
		return nil, err
	}
	design, err := graph.ParseDesign(req.Workflow)
	if err != nil {
		return nil, err
	}
	registry := req.Schema
	if registry == nil {
		registry = g.schema
	}
	return graph.NewView(active, design, registry), nil
}

// resolve runs every requested parameter through one engine
func (g *Generator) resolve(view *graph.View, groups []NodeGroup, evaluators *eval.Registry) []ResolvedGroup {
	if evaluators == nil {
		evaluators = g.evaluators
	}
	opts := []traversal.Option{
		traversal.WithEvaluators(evaluators),
		traversal.WithLogger(g.logger),
	}
	if g.recorder != nil {
		opts = append(opts, traversal.WithRecorder(g.recorder))
	}
	engine := traversal.NewEngine(view, opts...)

	out := make([]ResolvedGroup, 0, len(groups))
	for _, grp := range groups {
		node, ok := view.Lookup(grp.ID)
		rg := ResolvedGroup{ID: grp.ID, Title: grp.Title, Active: ok && node.Active, Missing: !ok}
		if ok {
			for _, p := range grp.Params {
				rg.Values = append(rg.Values, ParamValue{Param: p, Result: engine.TraverseDetailed(grp.ID, p)})
			}
		}
		out = append(out, rg)
	}
	return out
}

// renderGrouped writes the text report: one header per node, one line per
// parameter, groups separated by ---
func renderGrouped(groups []ResolvedGroup) string {
	lines := make([]string, 0, len(groups)*4)
	for i, grp := range groups {
		if i > 0 {
			lines = append(lines, groupSeparator)
		}
		lines = append(lines, header(grp))
		if grp.Missing {
			lines = append(lines, missingNodeLine)
			continue
		}
		for _, v := range grp.Values {
			lines = append(lines, v.Param+": "+v.Value)
		}
	}
	return strings.Join(lines, "\n")
}

func header(grp ResolvedGroup) string {
	suffix := ""
	if !grp.Active {
		suffix = inactiveSuffix
	}
	return fmt.Sprintf("%s - #%s%s", grp.Title, grp.ID, suffix)
}
