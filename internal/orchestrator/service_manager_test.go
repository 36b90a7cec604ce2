package orchestrator

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsOnCancel(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	sm := NewServiceManager(server, time.Second)

	var order []string
	sm.OnShutdown("store", func() error { order = append(order, "store"); return nil })
	sm.OnShutdown("metrics", func() error { order = append(order, "metrics"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sm.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"metrics", "store"}, order)
}

func TestRunReportsListenError(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}
	sm := NewServiceManager(server, time.Second)

	closed := false
	sm.OnShutdown("store", func() error { closed = true; return nil })

	err := sm.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, closed)
}
