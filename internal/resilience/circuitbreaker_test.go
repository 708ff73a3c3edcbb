package resilience

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
)

var errBoom = errors.New("boom")

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         10 * time.Millisecond,
	}
}

func failTimes(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		cb.Execute(func() error { return errBoom })
	}
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())

	failTimes(cb, 2)
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s, want CLOSED before threshold", cb.State())
	}

	failTimes(cb, 1)
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want OPEN at threshold", cb.State())
	}

	var called bool
	err := cb.Execute(func() error { called = true; return nil })
	if !apperrors.Is(err, apperrors.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Errorf("fn must not run while the circuit is open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())

	failTimes(cb, 2)
	cb.Execute(func() error { return nil })
	failTimes(cb, 2)

	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED (failures are counted consecutively)", cb.State())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	failTimes(cb, 3)

	time.Sleep(15 * time.Millisecond)

	// First probe transitions to half-open; two successes close it.
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe after cooldown: %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN after first probe", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED after success threshold", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	failTimes(cb, 3)

	time.Sleep(15 * time.Millisecond)
	cb.Execute(func() error { return errBoom })

	if cb.State() != CircuitOpen {
		t.Errorf("state = %s, want OPEN after half-open failure", cb.State())
	}
}

func TestExecuteWithResult(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())

	got, err := ExecuteWithResult(cb, func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("got %d, %v; want 42, nil", got, err)
	}

	_, err = ExecuteWithResult(cb, func() (int, error) { return 0, errBoom })
	if !errors.Is(err, errBoom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestStatsCounters(t *testing.T) {
	cb := NewCircuitBreaker("spot", testConfig())
	failTimes(cb, 3)
	cb.Execute(func() error { return nil }) // rejected, circuit open

	stats := cb.Stats()
	if stats.Name != "spot" || stats.State != CircuitOpen {
		t.Errorf("stats identity wrong: %+v", stats)
	}
	if stats.TotalRequests != 4 || stats.TotalFailures != 3 || stats.TotalRejected != 1 {
		t.Errorf("counters wrong: %+v", stats)
	}
}
