package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownOnDone_DrainsInFlight(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(started)
			<-release
			w.WriteHeader(http.StatusOK)
		}),
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	go shutdownOnDone(ctx, srv, 5*time.Second)

	respErr := make(chan error, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/", ln.Addr()))
		if err != nil {
			respErr <- err
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			respErr <- fmt.Errorf("status %d", resp.StatusCode)
			return
		}
		respErr <- nil
	}()

	<-started
	cancel()
	// Give Shutdown a moment to begin draining before unblocking the handler.
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-respErr, "in-flight request must complete during drain")

	select {
	case err := <-serveErr:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
