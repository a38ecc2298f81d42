package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_AppliesConnectionTimeouts(t *testing.T) {
	// Arrange
	conf := Config{Port: 9090}
	conf.ApplyDefaults()

	// Act
	srv := New(zap.NewNop(), conf, http.NotFoundHandler())

	// Assert
	assert.Equal(t, ":9090", srv.httpSrv.Addr)
	assert.Equal(t, 10*time.Second, srv.httpSrv.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, srv.httpSrv.ReadTimeout)
	assert.Equal(t, 40*time.Second, srv.httpSrv.WriteTimeout, "write timeout outlives the request timeout")
	assert.Equal(t, 1<<20, srv.httpSrv.MaxHeaderBytes)
	assert.Nil(t, srv.Addr())
}

func TestServer_StartServeStop(t *testing.T) {
	// Arrange
	srv := New(zap.NewNop(), Config{Port: 0}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	ctx := context.Background()

	// Act
	require.NoError(t, srv.Start(ctx, func(err error) { t.Errorf("unexpected serve error: %v", err) }))
	port := srv.Addr().(*net.TCPAddr).Port
	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/v1/events")
	require.NoError(t, err)
	_ = resp.Body.Close()

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	stopErr := srv.Stop(stopCtx)

	// Assert
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NoError(t, stopErr)
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	// Arrange
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := New(zap.NewNop(), Config{Port: port}, http.NotFoundHandler())

	// Act
	err = srv.Start(context.Background(), nil)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
	assert.NoError(t, srv.Stop(context.Background()), "stop before a successful start is a no-op")
}
