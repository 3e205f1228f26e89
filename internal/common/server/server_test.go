package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
)

func TestNew_AppliesConfig(t *testing.T) {
	cfg := DefaultConfig("8081")
	assert.Equal(t, constants.ServerReadHeaderTimeout, cfg.ReadHeaderTimeout)

	var buf bytes.Buffer
	s := New(cfg, http.NotFoundHandler(), logger.NewWithWriter(&buf, "test", "ERROR"))
	assert.Equal(t, ":8081", s.Addr)
	assert.Equal(t, cfg.WriteTimeout, s.WriteTimeout)
	assert.Equal(t, constants.ServerMaxHeaderBytes, s.MaxHeaderBytes)

	require.NotNil(t, s.ErrorLog)
	s.ErrorLog.Printf("http: TLS handshake error from %s", "127.0.0.1:5555")
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "TLS handshake error from 127.0.0.1:5555")
}

func TestShutdown_RunsHooksAfterServerStops(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "test", "ERROR")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(DefaultConfig("0"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), log)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()

	var order []string
	hooks := []ShutdownHook{
		func(ctx context.Context) error {
			order = append(order, "first")
			return errors.New("ignored")
		},
		func(ctx context.Context) error {
			order = append(order, "second")
			return nil
		},
	}

	Shutdown(s, log, "test", hooks)

	select {
	case err := <-served:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"first", "second"}, order)
}
