package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func startServer(t *testing.T, ctx context.Context, opts ...Option) (*GracefulServer, string, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gs := NewGracefulServer(&http.Server{Handler: handler}, opts...)

	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	waitReady(t, url)
	return gs, url, done
}

func waitReady(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never became ready", url)
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestGracefulServer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gs, _, done := startServer(t, ctx, WithShutdownTimeout(time.Second))

	var hooked atomic.Bool
	gs.OnShutdown(func(context.Context) error {
		hooked.Store(true)
		return nil
	})

	if gs.IsShuttingDown() {
		t.Fatal("Server should not be shutting down yet")
	}
	cancel()

	if err := waitDone(t, done); err != nil {
		t.Errorf("Serve() error = %v", err)
	}
	if !gs.IsShuttingDown() {
		t.Error("Server should report shutting down")
	}
	if !hooked.Load() {
		t.Error("Shutdown hook was not run")
	}
	select {
	case <-gs.ShutdownChannel():
	default:
		t.Error("Shutdown channel not closed")
	}
}

func TestGracefulServer_ShutdownIsIdempotent(t *testing.T) {
	gs, _, done := startServer(t, context.Background())

	hookErr := errors.New("transport close failed")
	calls := 0
	gs.OnShutdown(func(context.Context) error {
		calls++
		return hookErr
	})

	if err := gs.Shutdown(); !errors.Is(err, hookErr) {
		t.Errorf("Shutdown() error = %v, want %v", err, hookErr)
	}
	if err := gs.Shutdown(); !errors.Is(err, hookErr) {
		t.Errorf("second Shutdown() error = %v, want %v", err, hookErr)
	}
	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
	if err := waitDone(t, done); err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestGracefulServer_SIGHUPReloads(t *testing.T) {
	gs, _, done := startServer(t, context.Background())

	reloaded := make(chan struct{}, 1)
	gs.SetConfigReloadFunc(func() error {
		reloaded <- struct{}{}
		return nil
	})

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("Config reload was not triggered")
	}
	if gs.IsShuttingDown() {
		t.Error("Server should not be shutting down after SIGHUP")
	}

	gs.Shutdown()
	waitDone(t, done)
}

func TestGracefulServer_ReloadConfig(t *testing.T) {
	gs := NewGracefulServer(&http.Server{})

	if err := gs.ReloadConfig(); err != nil {
		t.Errorf("ReloadConfig() without func error = %v", err)
	}

	want := errors.New("bad config")
	gs.SetConfigReloadFunc(func() error { return want })
	if err := gs.ReloadConfig(); !errors.Is(err, want) {
		t.Errorf("ReloadConfig() error = %v, want %v", err, want)
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"})
	if err := gs.ListenAndServe(context.Background()); err == nil {
		t.Error("Expected listen error")
	}
}
