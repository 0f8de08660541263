package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGracefulShutdown_DrainsInFlightRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			w.WriteHeader(http.StatusOK)
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		gracefulShutdown(ctx, srv, 2*time.Second)
		close(done)
	}()

	reqErr := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
		reqErr <- err
	}()

	// Trigger shutdown while the request sits in the handler; the drain
	// must wait for it rather than cut the connection.
	<-entered
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.NoError(t, <-reqErr)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not return")
	}
}
