// Package service is the request layer shared by the HTTP, GraphQL and
// message-socket front ends: it validates a request, builds the graph view
// and runs the report generator or a single resolution.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
	"github.com/dd0wney/cluso-settingstext/pkg/traversal"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

// ErrBadRequest wraps request validation failures
var ErrBadRequest = errors.New("bad request")

// Service answers report and resolve requests. It is safe for concurrent
// use; nothing is cached between requests.
type Service struct {
	generator  *report.Generator
	evaluators *eval.Registry
	schema     schema.Registry
	logger     logging.Logger
	recorder   report.Recorder
}

// Option configures a Service
type Option func(*Service)

// WithSchema sets the type schema used to name design-time widgets
func WithSchema(r schema.Registry) Option {
	return func(s *Service) { s.schema = r }
}

// WithEvaluators sets the evaluator registry
func WithEvaluators(r *eval.Registry) Option {
	return func(s *Service) { s.evaluators = r }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = logging.OrDefault(l) }
}

// WithRecorder sets the statistics sink
func WithRecorder(r report.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New creates a service
func New(opts ...Option) *Service {
	s := &Service{
		evaluators: eval.NewRegistry(eval.MatchSubstring),
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	genOpts := []report.Option{
		report.WithLogger(s.logger),
		report.WithEvaluators(s.evaluators),
		report.WithSchema(s.schema),
	}
	if s.recorder != nil {
		genOpts = append(genOpts, report.WithRecorder(s.recorder))
	}
	s.generator = report.NewGenerator(genOpts...)
	return s
}

// Report validates req and generates the report. Malformed selections are
// not errors: the result carries the status line.
func (s *Service) Report(ctx context.Context, req *validation.ReportRequest) (*report.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validation.ValidateReportRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	mode, err := report.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	return s.generator.Run(report.Request{
		Selection: SelectionBytes(req.Selection),
		Prompt:    req.Prompt,
		Workflow:  req.Workflow,
		Mode:      mode,
	}), nil
}

// Resolve validates req and resolves one parameter
func (s *Service) Resolve(ctx context.Context, req *validation.ResolveRequest) (traversal.Result, error) {
	if err := ctx.Err(); err != nil {
		return traversal.Result{}, err
	}
	if err := validation.ValidateResolveRequest(req); err != nil {
		return traversal.Result{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	active, err := graph.ParseActive(req.Prompt)
	if err != nil {
		return traversal.Result{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	design, err := graph.ParseDesign(req.Workflow)
	if err != nil {
		return traversal.Result{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	opts := []traversal.Option{
		traversal.WithEvaluators(s.evaluators),
		traversal.WithLogger(s.logger),
	}
	if s.recorder != nil {
		opts = append(opts, traversal.WithRecorder(s.recorder))
	}
	engine := traversal.NewEngine(graph.NewView(active, design, s.schema), opts...)
	return engine.TraverseDetailed(req.Node, req.Param), nil
}

// EvaluatorKinds lists the configured evaluator kinds in priority order
func (s *Service) EvaluatorKinds() []string {
	return s.evaluators.Kinds()
}

// SelectAll lists every selectable parameter of a design-time graph
func (s *Service) SelectAll(workflow []byte, exclude graph.NodeRef) ([]report.Entry, error) {
	design, err := graph.ParseDesign(workflow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return report.SelectAll(design, s.schema, exclude), nil
}

// SelectionBytes unwraps a selection sent as a JSON string holding the
// list, which is how the host widget stores it
func SelectionBytes(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return trimmed
	}
	return []byte(inner)
}
