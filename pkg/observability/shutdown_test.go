package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
		{name: "zero timeout uses default", timeout: 0, expectedTimeout: DefaultShutdownTimeout},
		{name: "negative timeout uses default", timeout: -time.Second, expectedTimeout: DefaultShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), tt.timeout)
			if sm.shutdownTimeout != tt.expectedTimeout {
				t.Errorf("Expected timeout %v, got %v", tt.expectedTimeout, sm.shutdownTimeout)
			}
		})
	}
}

func TestShutdown_ReverseOrder(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)

	var order []string
	for _, name := range []string{"db", "redis", "tracing"} {
		name := name
		sm.RegisterShutdownFunc(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	sm.RegisterShutdownFunc("nil", nil)

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Join(order, ",") != "tracing,redis,db" {
		t.Errorf("Unexpected order %v", order)
	}
}

func TestShutdown_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)
	ran := false
	sm.RegisterShutdownFunc("ok", func(ctx context.Context) error {
		ran = true
		return nil
	})
	sm.RegisterShutdownFunc("broken", func(ctx context.Context) error {
		return errors.New("close failed")
	})

	err := sm.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "broken: close failed") {
		t.Errorf("Expected wrapped error, got %v", err)
	}
	if !ran {
		t.Error("Later functions should still run after a failure")
	}
}

func TestShutdown_StopsServers(t *testing.T) {
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Start()
	defer ts.Close()

	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)
	sm.AddServer(ts.Config)

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := http.Get(ts.URL); err == nil {
		t.Error("Expected server to refuse connections after shutdown")
	}
}

func TestShutdown_Timeout(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), 20*time.Millisecond)
	sm.RegisterShutdownFunc("skipped", func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := sm.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestWaitForShutdown(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)
	called := make(chan struct{})
	sm.RegisterShutdownFunc("signal", func(ctx context.Context) error {
		close(called)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- sm.WaitForShutdown(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
	<-called
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "unit")
		panic("boom")
	}()
	if !strings.Contains(buf.String(), "PANIC recovered") {
		t.Error("Expected panic to be logged")
	}

	called := false
	func() {
		defer RecoverPanicWithCallback(logger, "unit", func() { called = true })
		panic("again")
	}()
	if !called {
		t.Error("Expected callback after panic")
	}

	if MustRecover(nil) != nil {
		t.Error("Expected nil error without panic")
	}
	if err := MustRecover("bad"); err == nil || err.Error() != "panic: bad" {
		t.Errorf("Unexpected error %v", err)
	}
}
