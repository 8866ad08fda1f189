package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsHooksInReverse(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(time.Second, zap.New(core))

	var order []string
	started := false
	m.Closer("store", closerFunc(func() error {
		order = append(order, "store")
		return nil
	}))
	m.Run("worker", func() { started = true }, func(context.Context) error {
		order = append(order, "worker")
		return errors.New("stuck")
	})
	m.Register("server", func(context.Context) error {
		order = append(order, "server")
		return nil
	})

	if !started {
		t.Fatal("Run did not call start")
	}
	err := m.Shutdown(context.Background())
	if err == nil || err.Error() != "stuck" {
		t.Errorf("err = %v, want the failing hook's error", err)
	}
	want := []string{"server", "worker", "store"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if got := logs.FilterMessage("shutdown hook failed").Len(); got != 1 {
		t.Errorf("failure logs = %d, want 1", got)
	}

	order = nil
	if err := m.Shutdown(context.Background()); err != nil || len(order) != 0 {
		t.Errorf("second shutdown ran hooks again: %v %v", order, err)
	}
}

func TestShutdownHonoursTimeout(t *testing.T) {
	m := New(10*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := m.Shutdown(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
