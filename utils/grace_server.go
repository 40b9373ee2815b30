package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	gracefulEnv       = "DAILYDRAW_GRACEFUL=1"
	inheritedListenFD = 3
	defaultIOTimeout  = 60 * time.Second
	shutdownGrace     = 30 * time.Second
)

// GraceServer serves HTTP until SIGINT/SIGTERM, then drains connections and runs the stop hooks.
// SIGUSR2 hands the listening socket to a freshly started copy of the binary before draining.
type GraceServer struct {
	http     *http.Server
	listener net.Listener
	onStop   []func()
	done     chan struct{}
}

// NewGraceServer creates a server for handler on addr.
func NewGraceServer(addr string, handler http.Handler) *GraceServer {
	return &GraceServer{
		http: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultIOTimeout,
			WriteTimeout: defaultIOTimeout,
		},
		done: make(chan struct{}),
	}
}

// OnStop registers fn to run once the server has drained, e.g. to stop background jobs.
func (s *GraceServer) OnStop(fn func()) {
	s.onStop = append(s.onStop, fn)
}

// ListenAndServe blocks until the server has shut down.
func (s *GraceServer) ListenAndServe() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = ln
	go s.watchSignals()
	err = s.http.Serve(ln)
	<-s.done
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *GraceServer) listen() (net.Listener, error) {
	if os.Getenv("DAILYDRAW_GRACEFUL") != "" {
		ln, err := net.FileListener(os.NewFile(inheritedListenFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return ln, nil
}

func (s *GraceServer) watchSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	for sig := range signals {
		if sig == syscall.SIGUSR2 {
			pid, err := s.handOver()
			if err != nil {
				Logger.Error("restart failed, keep serving", zap.Error(err))
				continue
			}
			Logger.Info("restarted", zap.Int("pid", pid))
		}
		Logger.Info("shutting down", zap.String("signal", sig.String()))
		s.shutdown()
		return
	}
}

func (s *GraceServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		Logger.Error("http shutdown", zap.Error(err))
	}
	for _, fn := range s.onStop {
		fn()
	}
	close(s.done)
}

// handOver starts a new process that inherits the listening socket as fd 3.
func (s *GraceServer) handOver() (int, error) {
	tcpLn, ok := s.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener %T cannot be inherited", s.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnv {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnv)
	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
}
