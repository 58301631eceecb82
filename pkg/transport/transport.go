// Package transport serves report and resolve requests over a nanomsg
// REQ/REP socket (tcp://, ipc:// or inproc:// addresses).
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// Register transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/traversal"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

// Operations
const (
	OpReport  = "report"
	OpResolve = "resolve"
	OpPing    = "ping"
)

// DefaultTimeout bounds one request on either side
const DefaultTimeout = 5 * time.Second

// Request is the wire envelope of one call
type Request struct {
	Op      string                     `json:"op"`
	Report  *validation.ReportRequest  `json:"report,omitempty"`
	Resolve *validation.ResolveRequest `json:"resolve,omitempty"`
}

// Response is the wire envelope of one reply
type Response struct {
	OK      bool              `json:"ok"`
	Error   string            `json:"error,omitempty"`
	Report  *report.Result    `json:"report,omitempty"`
	Resolve *traversal.Result `json:"resolve,omitempty"`
}

// Recorder receives per-request statistics. metrics.Registry implements it.
type Recorder interface {
	RecordTransportRequest(op string, ok bool)
}

// Server answers requests on a REP socket
type Server struct {
	svc      *service.Service
	logger   logging.Logger
	recorder Recorder
	timeout  time.Duration

	sock    mangos.Socket
	running bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger sets the logger
func WithLogger(l logging.Logger) ServerOption {
	return func(s *Server) { s.logger = logging.OrDefault(l) }
}

// WithRecorder sets the statistics sink
func WithRecorder(r Recorder) ServerOption {
	return func(s *Server) { s.recorder = r }
}

// WithTimeout sets the per-request send deadline
func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a server around svc
func NewServer(svc *service.Service, opts ...ServerOption) *Server {
	s := &Server{svc: svc, logger: logging.NewNopLogger(), timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on addr and serves in the background until Stop
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("transport server already running")
	}

	sock, err := rep.NewSocket()
	if err != nil {
		return fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, s.timeout); err != nil {
		sock.Close()
		return fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return fmt.Errorf("failed to bind REP socket: %w", err)
	}

	s.sock = sock
	s.running = true
	s.wg.Add(1)
	go s.serve(sock)

	s.logger.Info("transport listening", logging.String("addr", addr))
	return nil
}

// Stop closes the socket and waits for the serve loop to exit
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	err := s.sock.Close()
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Running reports whether the server is listening
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) serve(sock mangos.Socket) {
	defer s.wg.Done()

	for {
		msg, err := sock.Recv()
		if err != nil {
			if errors.Is(err, mangos.ErrClosed) {
				return
			}
			s.logger.Warn("transport receive failed", logging.Error(err))
			continue
		}

		op, reply := s.handle(msg)
		if s.recorder != nil {
			s.recorder.RecordTransportRequest(op, reply.OK)
		}

		out, err := json.Marshal(reply)
		if err != nil {
			out, _ = json.Marshal(Response{Error: err.Error()})
		}
		if err := sock.Send(out); err != nil {
			if errors.Is(err, mangos.ErrClosed) {
				return
			}
			s.logger.Warn("transport send failed", logging.Error(err))
		}
	}
}

func (s *Server) handle(msg []byte) (string, Response) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return "invalid", Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch req.Op {
	case OpPing:
		return req.Op, Response{OK: true}
	case OpReport:
		res, err := s.svc.Report(ctx, req.Report)
		if err != nil {
			return req.Op, Response{Error: err.Error()}
		}
		return req.Op, Response{OK: true, Report: res}
	case OpResolve:
		res, err := s.svc.Resolve(ctx, req.Resolve)
		if err != nil {
			return req.Op, Response{Error: err.Error()}
		}
		return req.Op, Response{OK: true, Resolve: &res}
	default:
		return "unknown", Response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

// Client sends requests over a REQ socket. A REQ socket carries one
// request at a time, so calls are serialised.
type Client struct {
	sock mangos.Socket
	mu   sync.Mutex
}

// Dial connects to addr
func Dial(addr string) (*Client, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{sock: sock}, nil
}

// Close closes the socket
func (c *Client) Close() error {
	return c.sock.Close()
}

// Report requests a report
func (c *Client) Report(ctx context.Context, r *validation.ReportRequest) (*report.Result, error) {
	resp, err := c.call(ctx, Request{Op: OpReport, Report: r})
	if err != nil {
		return nil, err
	}
	return resp.Report, nil
}

// Resolve requests a single resolution
func (c *Client) Resolve(ctx context.Context, r *validation.ResolveRequest) (traversal.Result, error) {
	resp, err := c.call(ctx, Request{Op: OpResolve, Resolve: r})
	if err != nil {
		return traversal.Result{}, err
	}
	if resp.Resolve == nil {
		return traversal.Result{}, errors.New("empty resolve reply")
	}
	return *resp.Resolve, nil
}

// Ping checks the server is answering
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, Request{Op: OpPing})
	return err
}

func (c *Client) call(ctx context.Context, r Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	timeout := DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	if err := c.sock.SetOption(mangos.OptionSendDeadline, timeout); err != nil {
		return nil, err
	}
	if err := c.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return nil, err
	}

	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if err := c.sock.Send(body); err != nil {
		return nil, fmt.Errorf("send %s: %w", r.Op, err)
	}
	msg, err := c.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", r.Op, err)
	}

	var resp Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		return nil, fmt.Errorf("invalid reply: %w", err)
	}
	if !resp.OK {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}
