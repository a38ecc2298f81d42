package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Server binds its listener in Start so a busy port fails application start instead of
// surfacing later from a goroutine.
type Server struct {
	httpSrv *http.Server
	ln      net.Listener
	log     *zap.Logger
	done    chan error
}

func New(log *zap.Logger, conf Config, handler http.Handler) *Server {
	return &Server{
		httpSrv: &http.Server{
			Addr:              ":" + strconv.Itoa(conf.Port),
			Handler:           handler,
			ReadHeaderTimeout: conf.Connection.ReadHeaderTimeout,
			ReadTimeout:       conf.Connection.ReadTimeout,
			WriteTimeout:      conf.Connection.WriteTimeout,
			IdleTimeout:       conf.Connection.IdleTimeout,
			MaxHeaderBytes:    conf.Connection.MaxHeaderBytes,
		},
		log:  log,
		done: make(chan error, 1),
	}
}

// Start listens and serves in the background. onExit receives a serve error other than
// a clean shutdown.
func (s *Server) Start(ctx context.Context, onExit func(error)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpSrv.Addr, err)
	}
	s.ln = ln
	s.log.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		err := s.httpSrv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil && onExit != nil {
			onExit(err)
		}
		s.done <- err
	}()
	return nil
}

// Addr is the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
