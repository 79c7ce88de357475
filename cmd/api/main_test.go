package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcanvas/mailcanvas/config"
	"github.com/mailcanvas/mailcanvas/internal/app"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// fakeApp overrides the lifecycle methods runServer uses
type fakeApp struct {
	app.AppInterface

	initErr     error
	startErr    error
	stop        chan struct{}
	shutdownErr error
	shutdownHit bool
}

func (f *fakeApp) Initialize() error { return f.initErr }

func (f *fakeApp) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stop
	return nil
}

func (f *fakeApp) Shutdown(ctx context.Context) error {
	f.shutdownHit = true
	close(f.stop)
	return f.shutdownErr
}

func (f *fakeApp) GetActiveRequestCount() int64 { return 0 }

// captureSignals replaces signalNotify and returns the registered channels
func captureSignals(t *testing.T) func() []chan<- os.Signal {
	var mu sync.Mutex
	var channels []chan<- os.Signal

	orig := signalNotify
	signalNotify = func(c chan<- os.Signal, _ ...os.Signal) {
		mu.Lock()
		channels = append(channels, c)
		mu.Unlock()
	}
	t.Cleanup(func() { signalNotify = orig })

	return func() []chan<- os.Signal {
		mu.Lock()
		defer mu.Unlock()
		return append([]chan<- os.Signal(nil), channels...)
	}
}

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{ShutdownTimeout: time.Second}}
}

func newFake(f *fakeApp) NewAppFunc {
	return func(*config.Config, ...app.AppOption) app.AppInterface { return f }
}

func TestRunServer_InitFailure(t *testing.T) {
	captureSignals(t)
	f := &fakeApp{initErr: errors.New("database unreachable"), stop: make(chan struct{})}

	err := runServer(testConfig(), logger.NewMockLogger(t), newFake(f))
	assert.EqualError(t, err, "database unreachable")
}

func TestRunServer_StartFailure(t *testing.T) {
	captureSignals(t)
	f := &fakeApp{startErr: errors.New("address already in use"), stop: make(chan struct{})}

	err := runServer(testConfig(), logger.NewMockLogger(t), newFake(f))
	assert.EqualError(t, err, "address already in use")
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	channels := captureSignals(t)
	f := &fakeApp{stop: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- runServer(testConfig(), logger.NewMockLogger(t), newFake(f)) }()

	require.Eventually(t, func() bool { return len(channels()) == 1 }, time.Second, 5*time.Millisecond)
	channels()[0] <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.True(t, f.shutdownHit)
	case <-time.After(3 * time.Second):
		t.Fatal("runServer did not return")
	}
}
