package main

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestStartServer_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	serverErr := startServer(server, zaptest.NewLogger(t))

	select {
	case err := <-serverErr:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener failure was not reported")
	}
}

func TestAwaitShutdown(t *testing.T) {
	tests := []struct {
		name     string
		signal   bool
		err      error
		wantCode int
	}{
		{name: "signal", signal: true, wantCode: 0},
		{name: "server failure", err: syscall.EADDRINUSE, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigCh := make(chan os.Signal, 1)
			serverErr := make(chan error, 1)
			if tt.signal {
				sigCh <- syscall.SIGTERM
			}
			if tt.err != nil {
				serverErr <- tt.err
			}
			assert.Equal(t, tt.wantCode, awaitShutdown(sigCh, serverErr, zap.NewNop()))
		})
	}
}
