package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/peterkuimelis/netrun/internal/store"
	"go.uber.org/zap"
)

// Server hosts runs for TCP clients, one run per connection.
type Server struct {
	Runner *Runner
	Port   string
	Diag   *zap.Logger
}

func (s *Server) diag() *zap.Logger {
	if s.Diag == nil {
		return zap.NewNop()
	}
	return s.Diag
}

// Run listens on Port and serves clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	fmt.Printf("Waiting for runners on port %s...\n", s.Port)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then waits for the
// open sessions to wind down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.diag().Info("client connected", zap.String("addr", conn.RemoteAddr().String()))

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			if err := s.handle(ctx, conn); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.diag().Warn("session ended", zap.String("addr", conn.RemoteAddr().String()), zap.Error(err))
			}
		}()
	}
}

// handle reads the join handshake and plays the requested run.
func (s *Server) handle(ctx context.Context, conn net.Conn) error {
	ctrl := NewNetworkController(conn)

	join, err := ctrl.Receive(ctx)
	if err != nil {
		return fmt.Errorf("read join message: %w", err)
	}
	if join.Type != MsgJoin {
		err := fmt.Errorf("expected join, got %q", join.Type)
		_ = ctrl.SendError(err)
		return err
	}
	return PlaySession(ctx, s.Runner, ctrl, join)
}

// PlaySession starts or resumes the run a join message asks for and plays it
// on ctrl. Failures are reported to the client before returning.
func PlaySession(ctx context.Context, runner *Runner, ctrl *NetworkController, join ClientMessage) error {
	name := join.Name
	if name == "" {
		name = "Runner"
	}

	var (
		run *store.Run
		err error
	)
	if join.RunID != "" {
		run, err = runner.LoadRun(ctx, join.RunID)
	} else {
		run, err = runner.NewRun(ctx, name, join.Build)
	}
	if err != nil {
		_ = ctrl.SendError(err)
		return err
	}

	if err := runner.Play(ctx, run, ctrl); err != nil {
		_ = ctrl.SendError(err)
		return err
	}
	return nil
}

// PlayLocal plays a run in-process: the session and a terminal client talk
// over a pipe, the client reading choices from in and rendering to out.
func PlayLocal(ctx context.Context, runner *Runner, join ClientMessage, in io.Reader, out io.Writer) error {
	clientConn, serverConn := net.Pipe()
	ctrl := NewNetworkController(serverConn)

	errCh := make(chan error, 1)
	go func() {
		defer serverConn.Close()
		errCh <- PlaySession(ctx, runner, ctrl, join)
	}()

	replErr := NewClient(clientConn, in, out).RunREPL(ctx)
	clientConn.Close()
	sessionErr := <-errCh
	if replErr != nil {
		return replErr
	}
	return sessionErr
}
