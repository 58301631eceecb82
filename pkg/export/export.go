// Package export writes generated reports to a sink: a local directory or
// an S3-compatible bucket. Bodies may be snappy-compressed.
package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-settingstext/pkg/config"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
)

// CompressedSuffix is appended to names of snappy-compressed objects
const CompressedSuffix = ".sz"

// ErrNoSink is returned by NewSink when export is disabled
var ErrNoSink = errors.New("export disabled")

// Sink stores one named object and returns where it went
type Sink interface {
	Kind() string
	Put(ctx context.Context, name string, body []byte) (string, error)
}

// Recorder receives export statistics. metrics.Registry implements it.
type Recorder interface {
	RecordExport(sink string, size int, err error)
}

// Exporter names, optionally compresses and stores reports
type Exporter struct {
	sink     Sink
	compress bool
	logger   logging.Logger
	recorder Recorder
}

// Option configures an Exporter
type Option func(*Exporter)

// WithCompression enables snappy compression of bodies
func WithCompression(enabled bool) Option {
	return func(e *Exporter) { e.compress = enabled }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(e *Exporter) { e.logger = logging.OrDefault(l) }
}

// WithRecorder sets the statistics sink
func WithRecorder(r Recorder) Option {
	return func(e *Exporter) { e.recorder = r }
}

// NewExporter wraps sink
func NewExporter(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{sink: sink, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ObjectName builds the stored name of a report: report-<runID>.<ext>,
// plus CompressedSuffix when compressed. An empty runID gets a fresh one.
func ObjectName(runID, mode string, compressed bool) string {
	if runID == "" {
		runID = uuid.NewString()
	}
	name := fmt.Sprintf("report-%s.%s", runID, extension(mode))
	if compressed {
		name += CompressedSuffix
	}
	return name
}

func extension(mode string) string {
	switch mode {
	case "raw":
		return "json"
	case "raw-yaml":
		return "yaml"
	case "markdown":
		return "md"
	default:
		return "txt"
	}
}

// Export stores one report and returns its location
func (e *Exporter) Export(ctx context.Context, runID, mode, text string) (string, error) {
	body := []byte(text)
	if e.compress {
		body = snappy.Encode(nil, body)
	}
	name := ObjectName(runID, mode, e.compress)

	timer := logging.StartTimer(e.logger, "report export",
		logging.String("sink", e.sink.Kind()),
		logging.String("name", name))

	location, err := e.sink.Put(ctx, name, body)
	if e.recorder != nil {
		e.recorder.RecordExport(e.sink.Kind(), len(body), err)
	}
	if err != nil {
		timer.EndError(err)
		return "", fmt.Errorf("failed to export %s: %w", name, err)
	}

	timer.End(logging.Path(location), logging.Int("bytes", len(body)))
	return location, nil
}

// Decode reverses Export's encoding for a stored object
func Decode(name string, body []byte) ([]byte, error) {
	if !strings.HasSuffix(name, CompressedSuffix) {
		return body, nil
	}
	out, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
	}
	return out, nil
}

// NewSink builds the sink described by cfg
func NewSink(ctx context.Context, cfg config.ExportConfig) (Sink, error) {
	switch cfg.Kind {
	case "", config.ExportNone:
		return nil, ErrNoSink
	case config.ExportFile:
		return NewFileSink(cfg.Dir)
	case config.ExportS3:
		return NewS3Sink(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown export kind %q", cfg.Kind)
	}
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
