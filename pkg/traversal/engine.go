// Package traversal follows links from a requested (node, parameter) pair
// to the value that will actually be used, producing one display string per
// request. Every failure is a placeholder string; nothing here returns an
// error.
package traversal

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
)

// MaxDepth is the recursion ceiling for one resolution chain
const MaxDepth = 20

// Placeholders rendered in place of a value
const (
	NodeMissing     = "[Node missing]"
	InactiveLink    = "[Link (Inactive)]"
	GroupPort       = "[Shared/Group Port]"
	ParamNotFound   = "[Param Not Found]"
	Guard           = "..."
	GenericGroupTag = "Subgraph/Group"
)

// UpstreamMissing is the placeholder for a link whose source node is absent
func UpstreamMissing(id graph.NodeRef) string {
	return fmt.Sprintf("[Link to #%s]", id)
}

// FromSource is the placeholder for a source node with no usable key
func FromSource(label string, id graph.NodeRef) string {
	return fmt.Sprintf("[From %s #%s]", label, id)
}

// upstreamKeys are tried on a link source after the requested key itself
var upstreamKeys = []string{
	"value", "text", "int", "float",
	"ckpt_name", "lora_name", "vae_name", "clip_name", "unet_name",
	"seed",
}

// Outcome classifies how a request terminated
type Outcome string

const (
	OutcomeLiteral          Outcome = "literal"
	OutcomeRecovered        Outcome = "recovered"
	OutcomeComputed         Outcome = "computed"
	OutcomeNodeMissing      Outcome = "node_missing"
	OutcomeUpstreamMissing  Outcome = "upstream_missing"
	OutcomeInactiveLink     Outcome = "inactive_link"
	OutcomeGroupPort        Outcome = "group_port"
	OutcomeGuard            Outcome = "guard"
	OutcomeUnresolvedSource Outcome = "unresolved_source"
	OutcomeNotFound         Outcome = "not_found"
)

// Outcomes lists every outcome, for metric pre-registration and docs
var Outcomes = []Outcome{
	OutcomeLiteral, OutcomeRecovered, OutcomeComputed,
	OutcomeNodeMissing, OutcomeUpstreamMissing, OutcomeInactiveLink,
	OutcomeGroupPort, OutcomeGuard, OutcomeUnresolvedSource, OutcomeNotFound,
}

// Result is the display value of one request and how it was reached
type Result struct {
	Value   string  `json:"value"`
	Outcome Outcome `json:"outcome"`
	Depth   int     `json:"depth"`
}

// Recorder receives resolution statistics. metrics.Registry implements it.
type Recorder interface {
	RecordResolution(outcome string, depth int)
	RecordEvaluation(kind string, applied bool)
	RecordRecovery(rule string)
}

type nopRecorder struct{}

func (nopRecorder) RecordResolution(string, int)  {}
func (nopRecorder) RecordEvaluation(string, bool) {}
func (nopRecorder) RecordRecovery(string)         {}

// chain is the per-call guard state. It is copied on every step so sibling
// branches never see each other's visits.
type chain struct {
	visited map[graph.NodeRef]struct{}
	depth   int
}

func (c chain) seen(id graph.NodeRef) bool {
	_, ok := c.visited[id]
	return ok
}

// with returns a copy of c that also contains id
func (c chain) with(id graph.NodeRef) chain {
	next := chain{visited: make(map[graph.NodeRef]struct{}, len(c.visited)+1), depth: c.depth}
	for k := range c.visited {
		next.visited[k] = struct{}{}
	}
	next.visited[id] = struct{}{}
	return next
}

// deeper returns c one level down. The visited set is shared read-only;
// with always copies before adding.
func (c chain) deeper() chain {
	return chain{visited: c.visited, depth: c.depth + 1}
}

func (c chain) exhausted() bool {
	return c.depth > MaxDepth
}

// Engine resolves requests against one View. Build one per report; it is
// not safe for concurrent use because the View memoises lookups.
type Engine struct {
	view       *graph.View
	evaluators *eval.Registry
	logger     logging.Logger
	recorder   Recorder
}

// Option configures an Engine
type Option func(*Engine)

// WithEvaluators replaces the default evaluator registry
func WithEvaluators(r *eval.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.evaluators = r
		}
	}
}

// WithLogger sets the logger used for guard and evaluator diagnostics
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the statistics sink
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates an engine over view
func NewEngine(view *graph.View, opts ...Option) *Engine {
	e := &Engine{
		view:       view,
		evaluators: eval.NewRegistry(eval.MatchSubstring),
		logger:     logging.NewNopLogger(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View returns the graph view the engine resolves against
func (e *Engine) View() *graph.View { return e.view }

// Traverse returns the display string for (id, param)
func (e *Engine) Traverse(id graph.NodeRef, param string) string {
	return e.TraverseDetailed(id, param).Value
}

// TraverseDetailed is Traverse plus the outcome and the depth reached
func (e *Engine) TraverseDetailed(id graph.NodeRef, param string) Result {
	r := e.start(id, param)
	e.recorder.RecordResolution(string(r.Outcome), r.Depth)
	return r
}

// start is traverse for the requested node itself, where an intercepting
// evaluator answers before the node's inputs are consulted
func (e *Engine) start(id graph.NodeRef, param string) Result {
	c := chain{}.with(id)
	node, ok := e.view.Lookup(id)
	if !ok {
		return Result{Value: NodeMissing, Outcome: OutcomeNodeMissing}
	}
	if ev, ok := e.evaluators.Dispatch(node.ClassType); ok {
		if ic, ok := ev.(eval.Interceptor); ok && ic.Intercepts(param) {
			if v, ok := e.evaluate(node, param, c); ok {
				return Result{Value: FormatValue(v), Outcome: OutcomeComputed}
			}
		}
	}
	return e.resolveOn(node, param, c)
}

func (e *Engine) traverse(id graph.NodeRef, param string, c chain) Result {
	if c.seen(id) || c.exhausted() {
		e.logger.Debug("traversal guard hit",
			logging.Node(id), logging.Param(param), logging.Depth(c.depth),
			logging.Outcome(string(OutcomeGuard)))
		return Result{Value: Guard, Outcome: OutcomeGuard, Depth: c.depth}
	}
	c = c.with(id)

	node, ok := e.view.Lookup(id)
	if !ok {
		return Result{Value: NodeMissing, Outcome: OutcomeNodeMissing, Depth: c.depth}
	}
	return e.resolveOn(node, param, c)
}

// resolveOn runs the lookup state machine on a node already admitted to c
func (e *Engine) resolveOn(node *graph.NodeView, param string, c chain) Result {
	res := Resolve(node, param)
	if !res.Found {
		if v, ok := e.evaluate(node, param, c); ok {
			return Result{Value: FormatValue(v), Outcome: OutcomeComputed, Depth: c.depth}
		}
		return Result{Value: ParamNotFound, Outcome: OutcomeNotFound, Depth: c.depth}
	}

	if res.Source == SourceHeuristic {
		e.recorder.RecordRecovery(res.Match.Rule)
		return Result{Value: FormatValue(res.Value.Value()), Outcome: OutcomeRecovered, Depth: c.depth}
	}
	if res.Value.IsLiteral() {
		return Result{Value: FormatValue(res.Value.Value()), Outcome: OutcomeLiteral, Depth: c.depth}
	}

	src := res.Value.Source()
	switch {
	case IsGeneratedID(src):
		return Result{Value: GroupPort, Outcome: OutcomeGroupPort, Depth: c.depth}
	case res.Value.IsUnknown():
		return Result{Value: InactiveLink, Outcome: OutcomeInactiveLink, Depth: c.depth}
	}

	srcNode, ok := e.view.Lookup(src)
	if !ok {
		return Result{Value: UpstreamMissing(src), Outcome: OutcomeUpstreamMissing, Depth: c.depth}
	}

	// computed nodes intercept before plain traversal
	next := c.deeper()
	if v, ok := e.evaluate(srcNode, param, next); ok {
		return Result{Value: FormatValue(v), Outcome: OutcomeComputed, Depth: next.depth}
	}

	if key, ok := upstreamKey(srcNode, param); ok {
		return e.traverse(src, key, next)
	}
	return Result{Value: FromSource(sourceLabel(srcNode), src), Outcome: OutcomeUnresolvedSource, Depth: c.depth}
}

// upstreamKey picks the input of src to continue with: the requested key,
// the original name, the common value keys, then a relay's first input
func upstreamKey(src *graph.NodeView, param string) (string, bool) {
	key := NormaliseKey(param)
	candidates := []string{key}
	if key != param {
		candidates = append(candidates, param)
	}
	candidates = append(candidates, upstreamKeys...)

	for _, k := range candidates {
		if k != "" && src.Inputs.Has(k) {
			return k, true
		}
	}
	if IsRelay(src.ClassType) {
		if name, _, ok := src.Inputs.First(); ok {
			return name, true
		}
	}
	return "", false
}

// sourceLabel names a node in the [From ...] placeholder: its title unless
// that is empty or generic, else its class, with generated class ids shown
// as a generic group label
func sourceLabel(n *graph.NodeView) string {
	class := n.ClassType
	if class == "" {
		class = graph.UnknownSource
	}
	generated := IsGeneratedID(class)
	if generated {
		class = GenericGroupTag
	}

	title := n.TitleHint
	if title != "" && title != graph.UnknownSource && !(generated && title == n.ClassType) {
		return title
	}
	return class
}

// evaluate asks the evaluator registered for node's class. Operands are the
// node's own inputs resolved one level deeper; the node is admitted to the
// chain without tripping its own guard.
func (e *Engine) evaluate(node *graph.NodeView, param string, c chain) (any, bool) {
	ev, ok := e.evaluators.Dispatch(node.ClassType)
	if !ok {
		return nil, false
	}

	inner := c.with(node.ID)
	ops := eval.OperandFunc(func(name string) (string, bool) {
		if !node.Inputs.Has(name) {
			return "", false
		}
		next := inner.deeper()
		if next.exhausted() {
			return Guard, true
		}
		return e.resolveOn(node, name, next).Value, true
	})

	v, err := ev.Evaluate(node, param, ops)
	e.recorder.RecordEvaluation(ev.Kind(), err == nil)
	if err != nil {
		if !errors.Is(err, eval.ErrNotApplicable) {
			e.logger.Warn("evaluator failed",
				logging.Node(node.ID), logging.String("kind", ev.Kind()), logging.Error(err))
			return nil, false
		}
		e.logger.Debug("evaluation not applicable",
			logging.Node(node.ID), logging.Param(param),
			logging.String("kind", ev.Kind()), logging.Error(err))
		return nil, false
	}
	e.logger.Debug("node evaluated",
		logging.Node(node.ID), logging.Param(param),
		logging.String("kind", ev.Kind()), logging.Outcome(string(OutcomeComputed)))
	return v, true
}
