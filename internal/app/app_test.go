package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/config"
	testhelpers "github.com/polkiloo/coursemart/internal/test"
	"github.com/polkiloo/coursemart/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestWorkers(t *testing.T) (*worker.Reconciler, *worker.Janitor) {
	t.Helper()
	reconciler := worker.NewReconciler(&testhelpers.ReconcileFacadeStub{}, 10*time.Millisecond, 1, 1, discardLogger())
	janitor, err := worker.NewJanitor(&testhelpers.CleanupFacadeStub{}, "@hourly", discardLogger())
	if err != nil {
		t.Fatalf("janitor: %v", err)
	}
	return reconciler, janitor
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewWorkersUseConfig(t *testing.T) {
	p := workerParams{
		Facade: &CourseMart{},
		Config: &config.Config{ReconcileInterval: 15 * time.Second, MaxReconcileBatch: 3, WorkerPoolSize: 4, CleanupSchedule: "@every 30m"},
		Logger: discardLogger(),
	}
	if newReconciler(p) == nil {
		t.Fatal("expected reconciler instance")
	}
	if _, err := newJanitor(p); err != nil {
		t.Fatalf("expected janitor, got %v", err)
	}

	p.Config.CleanupSchedule = "not a schedule"
	if _, err := newJanitor(p); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	reconciler, janitor := newTestWorkers(t)

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     server,
		Reconciler: reconciler,
		Janitor:    janitor,
		Config:     &config.Config{ShutdownTimeout: 100 * time.Millisecond},
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	reconciler, janitor := newTestWorkers(t)

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     &http.Server{Addr: "bad addr"},
		Reconciler: reconciler,
		Janitor:    janitor,
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = recorder.Stop(context.Background())
}

func TestLifecycleRecorderStopsInReverse(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	var order []string
	for _, name := range []string{"storage", "server"} {
		name := name
		recorder.Append(fx.Hook{
			OnStart: func(context.Context) error { order = append(order, "start "+name); return nil },
			OnStop:  func(context.Context) error { order = append(order, "stop "+name); return nil },
		})
	}
	_ = recorder.Start(context.Background())
	_ = recorder.Stop(context.Background())

	want := []string{"start storage", "start server", "stop server", "stop storage"}
	if len(order) != len(want) {
		t.Fatalf("unexpected hook order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected hook order %v", order)
		}
	}
}
