package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	called := false
	d.Register(":TEST:", func(e Event) (any, error) {
		called = true
		if e.Timestamp.IsZero() {
			t.Error("expected timestamp to be filled in")
		}
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":TEST:", Args: []string{"arg1"}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: ":UNKNOWN:"})

	if err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestDispatcher_MinArgs(t *testing.T) {
	d, _ := newTestDispatcher(t)

	calls := 0
	d.Register(":MOVE:", func(e Event) (any, error) {
		calls++
		return nil, nil
	}, MinArgs(3))

	if _, err := d.Dispatch(Event{Command: ":MOVE:", Args: []string{"a", "1"}}); err == nil {
		t.Error("expected error for missing args")
	}
	if _, err := d.Dispatch(Event{Command: ":MOVE:", Args: []string{"a", "1", "2"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
}

func TestDispatcher_Stats(t *testing.T) {
	d, err := NewWithMeter(nil, noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	d.Register(":OK:", func(e Event) (any, error) { return nil, nil })
	d.Register(":FAIL:", func(e Event) (any, error) { return nil, errors.New("boom") }, Logged())

	for i := 0; i < 3; i++ {
		d.Dispatch(Event{Command: ":OK:"})
	}
	d.Dispatch(Event{Command: ":FAIL:"})
	d.Dispatch(Event{Command: ":NOPE:"})

	stats := d.Stats()
	if got := stats[":OK:"]; got != (Stats{Processed: 3}) {
		t.Errorf("unexpected :OK: stats %+v", got)
	}
	if got := stats[":FAIL:"]; got != (Stats{Processed: 1, Failed: 1}) {
		t.Errorf("unexpected :FAIL: stats %+v", got)
	}
	if _, ok := stats[":NOPE:"]; ok {
		t.Error("unknown commands should not be counted")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":LOGGED:", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Command: ":LOGGED:", Args: []string{"a", "b"}})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) != 2 {
		t.Fatalf("expected 2 log messages, got %d: %v", len(logger.messages), logger.messages)
	}
	if !strings.HasPrefix(logger.messages[0], "DEBUG: handling event") {
		t.Errorf("unexpected first message: %s", logger.messages[0])
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":ERROR:", func(e Event) (any, error) {
		return nil, errors.New("test error")
	}, Logged())

	_, err := d.Dispatch(Event{Command: ":ERROR:"})

	if err == nil {
		t.Error("expected error")
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if strings.HasPrefix(msg, "ERROR: event failed") {
			hasError = true
		}
	}
	if !hasError {
		t.Errorf("expected error log message, got %v", logger.messages)
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":EXISTS:", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler(":EXISTS:") {
		t.Error("expected HasHandler to return true")
	}
	if d.HasHandler(":NOTEXISTS:") {
		t.Error("expected HasHandler to return false")
	}
	if d.Commands() != 1 {
		t.Errorf("expected 1 command, got %d", d.Commands())
	}
}
